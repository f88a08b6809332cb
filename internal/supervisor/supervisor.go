// Package supervisor runs the adapters side by side and ends the whole run as
// soon as any one of them stops.
package supervisor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"github.com/svscagn/skadi/internal/output"
	"github.com/svscagn/skadi/internal/payload"
	"github.com/svscagn/skadi/internal/types"
)

const DefaultShutdownGrace = 2 * time.Second

// Adapter translates one external source into envelopes. Run blocks until the
// source is exhausted, fails, or ctx is cancelled.
type Adapter interface {
	Name() string
	Run(ctx context.Context, emitter output.Emitter) error
}

// ExitError reports which adapter ended the run. Err is nil when the adapter
// simply ran out of input.
type ExitError struct {
	Adapter string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s exited", e.Adapter)
	}
	return fmt.Sprintf("%s failed: %v", e.Adapter, e.Err)
}

func (e *ExitError) Unwrap() error { return e.Err }

// Failed reports whether the adapter stopped because of an error.
func (e *ExitError) Failed() bool { return e != nil && e.Err != nil }

type AdapterStatus struct {
	Name  string             `json:"name"`
	State types.AdapterState `json:"state"`
	Error string             `json:"error,omitempty"`
}

type Supervisor struct {
	adapters []Adapter
	sink     *output.Sink
	grace    time.Duration
	logger   *log.Logger

	mu     sync.Mutex
	status map[string]AdapterStatus
}

func New(sink *output.Sink, grace time.Duration, adapters ...Adapter) *Supervisor {
	if grace <= 0 {
		grace = DefaultShutdownGrace
	}
	status := make(map[string]AdapterStatus, len(adapters))
	for _, a := range adapters {
		status[a.Name()] = AdapterStatus{Name: a.Name(), State: types.AdapterPending}
	}
	return &Supervisor{
		adapters: adapters,
		sink:     sink,
		grace:    grace,
		logger:   log.WithPrefix("supervisor"),
		status:   status,
	}
}

func (s *Supervisor) setStatus(st AdapterStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status[st.Name] = st
}

// Adapters returns the current state of every adapter, in start order.
func (s *Supervisor) Adapters() []AdapterStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return lo.Map(s.adapters, func(a Adapter, _ int) AdapterStatus {
		return s.status[a.Name()]
	})
}

// Emitted exposes the sink's per-opcode counters.
func (s *Supervisor) Emitted() map[string]uint64 {
	return s.sink.Stats()
}

// Run starts the output sink and all adapters. The first adapter to return,
// for any reason, cancels the rest; they get the shutdown grace period to
// wind down (subprocesses are terminated through their contexts) before Run
// gives up on them. Run returns nil when ctx is cancelled and an *ExitError
// naming the adapter otherwise.
func (s *Supervisor) Run(ctx context.Context) error {
	sinkCtx, stopSink := context.WithCancel(context.WithoutCancel(ctx))
	defer stopSink()
	sinkDone := make(chan error, 1)
	go func() { sinkDone <- s.sink.Run(sinkCtx) }()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	exits := make(chan *ExitError, len(s.adapters))
	g, gctx := errgroup.WithContext(runCtx)
	for _, a := range s.adapters {
		g.Go(func() error {
			s.setStatus(AdapterStatus{Name: a.Name(), State: types.AdapterRunning})
			s.logger.Debug("adapter started", "adapter", a.Name())

			exit := &ExitError{Adapter: a.Name(), Err: a.Run(gctx, s.sink)}
			switch {
			case exit.Err == nil:
				s.setStatus(AdapterStatus{Name: a.Name(), State: types.AdapterExited})
			case gctx.Err() != nil && errors.Is(exit.Err, context.Canceled):
				s.setStatus(AdapterStatus{Name: a.Name(), State: types.AdapterStopped})
			default:
				s.setStatus(AdapterStatus{Name: a.Name(), State: types.AdapterFailed, Error: exit.Err.Error()})
			}
			exits <- exit
			// always non-nil so the group cancels the others
			return exit
		})
	}

	var first *ExitError
	select {
	case first = <-exits:
		// an adapter that lost the output is reporting the sink's failure
		if errors.Is(first.Err, output.ErrClosed) {
			first = &ExitError{Adapter: "output", Err: <-sinkDone}
			sinkDone = nil
		}
	case err := <-sinkDone:
		sinkDone = nil
		first = &ExitError{Adapter: "output", Err: err}
	case <-ctx.Done():
	}
	cancel()

	if ctx.Err() != nil {
		s.logger.Info("shutting down", "reason", context.Cause(ctx))
		first = nil
	} else if first.Failed() {
		s.logger.Error("adapter failed", "adapter", first.Adapter, "err", first.Err)
	} else {
		s.logger.Warn("adapter exited", "adapter", first.Adapter)
	}

	s.waitAdapters(g)

	if first.Failed() && sinkDone != nil {
		if err := s.sink.Emit(context.Background(), payload.AsBackendError(first.Err)); err != nil && !errors.Is(err, output.ErrClosed) {
			s.logger.Warn("could not report failure on output", "err", err)
		}
	}
	stopSink()
	if sinkDone != nil {
		select {
		case <-sinkDone:
		case <-time.After(s.grace):
			s.logger.Warn("output did not drain in time")
		}
	}

	if first == nil {
		return nil
	}
	return first
}

func (s *Supervisor) waitAdapters(g *errgroup.Group) {
	done := make(chan struct{})
	go func() {
		_ = g.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(s.grace):
		running := lo.FilterMap(s.Adapters(), func(st AdapterStatus, _ int) (string, bool) {
			return st.Name, st.State == types.AdapterRunning
		})
		s.logger.Warn("adapters still running after shutdown grace", "adapters", running)
	}
}
