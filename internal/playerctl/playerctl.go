// Package playerctl reports what an MPRIS player is playing, using the
// playerctl utility: one snapshot at startup, then its --follow feed.
package playerctl

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/svscagn/skadi/internal/command"
	"github.com/svscagn/skadi/internal/output"
	"github.com/svscagn/skadi/internal/payload"
	"github.com/svscagn/skadi/internal/types"
)

const (
	DefaultPlayer = "spotify"
	DefaultBinary = "playerctl"

	unknownStatus = "Unknown"
	recordFields  = 8
)

// Fields of a follow record, in order.
var followKeys = []string{
	"status", "title", "artist", "album", "position", "mpris:length", "volume", "mpris:artUrl",
}

var followFormat = "{{" + strings.Join(followKeys, "}}|{{") + "}}"

type Listener struct {
	Player string
	Binary string
	Runner command.Runner
}

func New(player string, runner command.Runner) *Listener {
	return &Listener{Player: player, Binary: DefaultBinary, Runner: runner}
}

func (l *Listener) Name() string { return "playerctl" }

// property queries a single template key. A failed or empty answer is absent.
func (l *Listener) property(ctx context.Context, key string) (string, bool) {
	out, err := l.Runner.Output(ctx, l.Binary, "-p", l.Player, "metadata", "--format", "{{"+key+"}}")
	if err != nil {
		log.Debug("playerctl query failed", "player", l.Player, "key", key, "err", err)
		return "", false
	}
	v := strings.TrimSpace(string(out))
	return v, v != ""
}

func (l *Listener) optional(ctx context.Context, key string) *string {
	v, ok := l.property(ctx, key)
	if !ok {
		return nil
	}
	return &v
}

func (l *Listener) number(ctx context.Context, key string) *uint64 {
	v, ok := l.property(ctx, key)
	if !ok {
		return nil
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return nil
	}
	return &n
}

// CurrentTrack asks the player for each field separately. It never fails:
// missing fields stay nil and the status falls back to "Unknown".
func (l *Listener) CurrentTrack(ctx context.Context) payload.TrackInfo {
	status, ok := l.property(ctx, "status")
	if !ok {
		status = unknownStatus
	}

	return payload.TrackInfo{
		Title:      l.optional(ctx, "title"),
		Artist:     l.optional(ctx, "artist"),
		Album:      l.optional(ctx, "album"),
		Status:     status,
		Position:   l.number(ctx, "position"),
		Duration:   l.number(ctx, "mpris:length"),
		Volume:     l.optional(ctx, "volume"),
		ArtworkURL: l.optional(ctx, "mpris:artUrl"),
	}
}

// ParseRecord parses one line of the follow feed. Records with fewer than
// eight fields, or with a non-numeric position or duration, are rejected.
func ParseRecord(line string) (payload.TrackInfo, error) {
	parts := strings.Split(line, "|")
	if len(parts) < recordFields {
		return payload.TrackInfo{}, fmt.Errorf("expected %d fields, got %d", recordFields, len(parts))
	}

	position, err := parseOptionalUint(parts[4])
	if err != nil {
		return payload.TrackInfo{}, fmt.Errorf("position: %w", err)
	}
	duration, err := parseOptionalUint(parts[5])
	if err != nil {
		return payload.TrackInfo{}, fmt.Errorf("duration: %w", err)
	}

	return payload.TrackInfo{
		Status:     parts[0],
		Title:      payload.Optional(parts[1]),
		Artist:     payload.Optional(parts[2]),
		Album:      payload.Optional(parts[3]),
		Position:   position,
		Duration:   duration,
		Volume:     payload.Optional(parts[6]),
		ArtworkURL: payload.Optional(parts[7]),
	}, nil
}

func parseOptionalUint(s string) (*uint64, error) {
	if s == "" {
		return nil, nil
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// KindFromStatus maps a player status to an event kind. Unrecognised statuses
// yield PlaybackUnknown.
func KindFromStatus(status string) types.PlaybackKind {
	switch status {
	case "Playing":
		return types.PlaybackPlaying
	case "Paused":
		return types.PlaybackPaused
	case "Stopped":
		return types.PlaybackStopped
	default:
		return types.PlaybackUnknown
	}
}

// eventKind is the kind actually put on the wire.
func eventKind(status string) types.PlaybackKind {
	if kind := KindFromStatus(status); kind != types.PlaybackUnknown {
		return kind
	}
	return types.PlaybackStopped
}

// Run emits the startup snapshot and then one event per follow record until
// playerctl exits.
func (l *Listener) Run(ctx context.Context, emitter output.Emitter) error {
	logger := log.WithPrefix(l.Name())

	snapshot := payload.SpotifyEvent{Kind: types.PlaybackRequest, TrackInfo: l.CurrentTrack(ctx)}
	if err := emitter.Emit(ctx, snapshot); err != nil {
		return err
	}

	logger.Info("following player", "player", l.Player)

	var emitErr error
	args := []string{"-p", l.Player, "-f", followFormat, "metadata", "--follow"}
	err := l.Runner.Stream(ctx, l.Binary, args, func(line string) {
		if emitErr != nil {
			return
		}
		info, err := ParseRecord(line)
		if err != nil {
			logger.Debug("dropping follow record", "line", line, "err", err)
			return
		}
		emitErr = emitter.Emit(ctx, payload.SpotifyEvent{Kind: eventKind(info.Status), TrackInfo: info})
	})
	if emitErr != nil {
		return emitErr
	}
	if err != nil {
		return err
	}

	logger.Warn("playerctl follow stream ended")
	return nil
}
