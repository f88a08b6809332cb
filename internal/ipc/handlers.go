package ipc

import (
	"net/http"
	"os"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/spf13/viper"

	"github.com/svscagn/skadi"
)

// GET /status
func statusHandler(p StatusProvider, socket string) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSONPretty(http.StatusOK, StatusResponse{
			Status:   "ok",
			Message:  "skadi is running",
			Version:  strings.Trim(skadi.Version, "\n\r "),
			PID:      os.Getpid(),
			Socket:   socket,
			Config:   viper.ConfigFileUsed(),
			Adapters: p.Adapters(),
			Emitted:  p.Emitted(),
		}, "  ")
	}
}
