// Package output owns the process's stdout. Adapters hand envelopes to a Sink
// and the Sink's Run loop is the only code that writes, one whole line at a
// time, so concurrent producers can never interleave partial lines.
package output

import (
	"context"
	"errors"
	"io"
	"sync/atomic"

	"github.com/charmbracelet/log"
	"github.com/tidwall/pretty"

	"github.com/svscagn/skadi/internal/payload"
)

// ErrClosed is returned by Emit once the sink has stopped writing.
var ErrClosed = errors.New("output sink closed")

var ErrNilPayload = errors.New("nil payload")

// Emitter is what adapters publish through.
type Emitter interface {
	Emit(ctx context.Context, p payload.Payload) error
}

// EmitterFunc adapts a plain function to Emitter.
type EmitterFunc func(ctx context.Context, p payload.Payload) error

func (f EmitterFunc) Emit(ctx context.Context, p payload.Payload) error { return f(ctx, p) }

const opCount = int(payload.OpVolumeEvent) + 1

type Sink struct {
	w      io.Writer
	queue  chan payload.Envelope
	done   chan struct{}
	logger *log.Logger
	debug  bool
	fatalf func(format string, args ...any)

	emitted [opCount]atomic.Uint64
}

type Option func(*Sink)

// WithDebug echoes every written line to the log, colourised.
func WithDebug(debug bool) Option {
	return func(s *Sink) { s.debug = debug }
}

// WithBuffer sets how many envelopes may wait for the writer.
func WithBuffer(n int) Option {
	return func(s *Sink) { s.queue = make(chan payload.Envelope, n) }
}

func NewSink(w io.Writer, opts ...Option) *Sink {
	s := &Sink{
		w:      w,
		queue:  make(chan payload.Envelope, 64),
		done:   make(chan struct{}),
		logger: log.WithPrefix("output"),
		fatalf: log.Fatalf,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Emit wraps p in an envelope and queues it for writing. It blocks while the
// queue is full, and gives up when ctx is cancelled or the sink has stopped.
func (s *Sink) Emit(ctx context.Context, p payload.Payload) error {
	if p == nil {
		return ErrNilPayload
	}
	e := payload.New(p)
	select {
	case <-s.done:
		return ErrClosed
	default:
	}

	select {
	case s.queue <- e:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-s.done:
		return ErrClosed
	}
}

// Run writes queued envelopes until ctx is cancelled, then writes whatever is
// already queued and returns. A failed write to the underlying writer ends Run
// with an IoFailure.
func (s *Sink) Run(ctx context.Context) error {
	defer close(s.done)

	for {
		select {
		case e := <-s.queue:
			if err := s.write(e); err != nil {
				return err
			}
		case <-ctx.Done():
			return s.drain()
		}
	}
}

func (s *Sink) drain() error {
	for {
		select {
		case e := <-s.queue:
			if err := s.write(e); err != nil {
				return err
			}
		default:
			return nil
		}
	}
}

func (s *Sink) write(e payload.Envelope) error {
	line, err := payload.Encode(e)
	if err != nil {
		// Every payload type is plain data; failing here is a programming error.
		s.fatalf("failed to serialize envelope: %v", err)
		return err
	}

	if s.debug {
		s.logger.Debug(string(pretty.Color(line, nil)))
	}

	line = append(line, '\n')
	if _, err := s.w.Write(line); err != nil {
		return payload.IoFailure("write envelope", err)
	}

	if op := int(e.Op()); op < opCount {
		s.emitted[op].Add(1)
	}
	return nil
}

// Stats reports how many envelopes of each opcode have been written.
func (s *Sink) Stats() map[string]uint64 {
	out := make(map[string]uint64, opCount)
	for i := range s.emitted {
		out[payload.OpCode(i).String()] = s.emitted[i].Load()
	}
	return out
}
