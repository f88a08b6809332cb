// Package ipc serves a read-only status endpoint over a unix socket, so a
// running backend can be inspected without touching its stdout stream.
package ipc

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/labstack/echo/v4"

	"github.com/svscagn/skadi/internal/middleware"
)

const shutdownTimeout = time.Second

// SocketPath is $XDG_RUNTIME_DIR/skadi.sock, or the same name in the temp
// directory when no runtime directory is set.
func SocketPath() string {
	sockDir := os.Getenv("XDG_RUNTIME_DIR")
	if sockDir == "" {
		sockDir = os.TempDir()
	}
	return filepath.Join(sockDir, "skadi.sock")
}

// Serve listens on path until ctx is cancelled, then shuts the server down
// and removes the socket. A stale socket file is replaced.
func Serve(ctx context.Context, path string, p StatusProvider) error {
	if _, err := os.Stat(path); err == nil {
		_ = os.Remove(path)
	}

	listener, err := net.Listen("unix", path)
	if err != nil {
		return err
	}
	defer os.Remove(path)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Listener = listener

	e.Use(middleware.CharmLog())

	RegisterRoutes(e, p, path)

	stop := context.AfterFunc(ctx, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := e.Shutdown(shutdownCtx); err != nil {
			log.Warn("status socket shutdown", "err", err)
		}
	})
	defer stop()

	log.Info("status socket listening", "socket", path)
	if err := e.StartServer(e.Server); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
