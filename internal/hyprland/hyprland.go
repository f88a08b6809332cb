// Package hyprland follows the Hyprland event socket (socket2) and turns
// workspace and focus changes into envelopes.
package hyprland

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/svscagn/skadi/internal/output"
	"github.com/svscagn/skadi/internal/payload"
	"github.com/svscagn/skadi/internal/types"
)

const (
	envRuntimeDir = "XDG_RUNTIME_DIR"
	envSignature  = "HYPRLAND_INSTANCE_SIGNATURE"

	socketName = ".socket2.sock"
	delimiter  = ">>"
)

// SocketPath resolves $XDG_RUNTIME_DIR/hypr/$HYPRLAND_INSTANCE_SIGNATURE/.socket2.sock.
func SocketPath(getenv func(string) string) (string, error) {
	runtimeDir := getenv(envRuntimeDir)
	if runtimeDir == "" {
		return "", payload.ErrMissingRuntimeDir
	}

	signature := getenv(envSignature)
	if signature == "" {
		return "", payload.ErrMissingWmSignature
	}

	return filepath.Join(runtimeDir, "hypr", signature, socketName), nil
}

// ParseLine maps one "EVENT>>DATA" line to a payload. Lines without the
// delimiter and events the bar does not care about report false.
func ParseLine(line string) (payload.Payload, bool) {
	event, data, ok := strings.Cut(line, delimiter)
	if !ok {
		return nil, false
	}

	switch event {
	case "workspace":
		return payload.Workspace{Kind: types.WorkspaceMoved, ID: parseID(data)}, true
	case "createworkspace":
		return payload.Workspace{Kind: types.WorkspaceCreated, ID: parseID(data)}, true
	case "destroyworkspace":
		return payload.Workspace{Kind: types.WorkspaceDestroyed, ID: parseID(data)}, true
	case "activewindow":
		return payload.WindowChanged{Title: data}, true
	default:
		return nil, false
	}
}

// parseID treats anything that is not a workspace number (named and special
// workspaces included) as 0.
func parseID(data string) uint16 {
	id, err := strconv.ParseUint(data, 10, 16)
	if err != nil {
		return 0
	}
	return uint16(id)
}

type Adapter struct {
	Getenv func(string) string
	Dialer net.Dialer
}

func New() *Adapter {
	return &Adapter{Getenv: os.Getenv}
}

func (a *Adapter) Name() string { return "hyprland" }

// Run connects to the event socket and emits one envelope per recognised
// line. It returns nil when Hyprland closes the socket.
func (a *Adapter) Run(ctx context.Context, emitter output.Emitter) error {
	logger := log.WithPrefix(a.Name())

	path, err := SocketPath(a.Getenv)
	if err != nil {
		return err
	}

	conn, err := a.Dialer.DialContext(ctx, "unix", path)
	if err != nil {
		return payload.IoFailure("connect "+path, err)
	}
	defer conn.Close()
	logger.Info("connected to event socket", "path", path)

	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	// lines are unbounded; window titles can be arbitrarily long
	reader := bufio.NewReader(conn)
	for {
		line, readErr := reader.ReadString('\n')
		if readErr != nil && ctx.Err() != nil {
			return ctx.Err()
		}
		if p, ok := ParseLine(strings.TrimRight(line, "\r\n")); ok {
			if err := emitter.Emit(ctx, p); err != nil {
				return err
			}
		}
		if readErr == nil {
			continue
		}
		if !errors.Is(readErr, io.EOF) && !errors.Is(readErr, net.ErrClosed) {
			return payload.IoFailure("read "+path, readErr)
		}
		break
	}

	logger.Warn("event socket closed")
	return nil
}
