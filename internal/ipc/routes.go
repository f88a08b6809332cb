package ipc

import (
	"github.com/labstack/echo/v4"
)

func RegisterRoutes(e *echo.Echo, p StatusProvider, socket string) {
	e.GET("/status", statusHandler(p, socket))
}
