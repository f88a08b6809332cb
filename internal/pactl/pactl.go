// Package pactl watches PulseAudio (or pipewire-pulse) for sink changes and
// reports the default sink's volume.
package pactl

import (
	"context"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/svscagn/skadi/internal/command"
	"github.com/svscagn/skadi/internal/output"
	"github.com/svscagn/skadi/internal/payload"
)

const (
	DefaultSink   = "@DEFAULT_SINK@"
	DefaultBinary = "pactl"

	sinkChanged = "'change' on sink"
)

type Monitor struct {
	Sink   string
	Binary string
	Runner command.Runner
}

func New(sink string, runner command.Runner) *Monitor {
	return &Monitor{Sink: sink, Binary: DefaultBinary, Runner: runner}
}

func (m *Monitor) Name() string { return "pactl" }

// ParseVolume extracts the percentage from get-sink-volume output such as
// "Volume: front-left: 65536 /  100% / 0.00 dB". Only the first channel is read.
func ParseVolume(text string) (uint32, bool) {
	before, _, ok := strings.Cut(text, "%")
	if !ok {
		return 0, false
	}
	space := strings.LastIndexByte(before, ' ')
	if space < 0 {
		return 0, false
	}
	v, err := strconv.ParseUint(before[space+1:], 10, 32)
	if err != nil {
		return 0, false
	}
	return uint32(v), true
}

// Volume queries the sink's current volume.
func (m *Monitor) Volume(ctx context.Context) (uint32, bool) {
	out, err := m.Runner.Output(ctx, m.Binary, "get-sink-volume", m.Sink)
	if err != nil {
		log.Debug("get-sink-volume failed", "sink", m.Sink, "err", err)
		return 0, false
	}
	return ParseVolume(string(out))
}

// Run follows `pactl subscribe` and emits the sink volume after every sink
// change event. Unparsable volumes are skipped.
func (m *Monitor) Run(ctx context.Context, emitter output.Emitter) error {
	logger := log.WithPrefix(m.Name())
	logger.Info("subscribing to audio server events", "sink", m.Sink)

	var emitErr error
	err := m.Runner.Stream(ctx, m.Binary, []string{"subscribe"}, func(line string) {
		if emitErr != nil || !strings.Contains(line, sinkChanged) {
			return
		}
		volume, ok := m.Volume(ctx)
		if !ok {
			return
		}
		emitErr = emitter.Emit(ctx, payload.VolumeEvent{Volume: volume})
	})
	if emitErr != nil {
		return emitErr
	}
	if err != nil {
		return err
	}

	logger.Warn("pactl subscribe stream ended")
	return nil
}
