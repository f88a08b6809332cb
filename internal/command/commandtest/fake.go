// Package commandtest provides an in-memory command.Runner.
package commandtest

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Fake answers Output calls from a table keyed by the joined command line and
// replays canned lines for Stream calls.
type Fake struct {
	mu sync.Mutex

	// Outputs maps "name arg1 arg2" to stdout. Missing keys fail.
	Outputs map[string]string
	// Lines is what Stream feeds to its callback.
	Lines []string
	// StreamErr is returned from Stream, instead of starting, when set.
	StreamErr error
	// Block keeps Stream open after Lines are replayed until ctx is done.
	Block bool
	// OnLine, when set, runs after each streamed line is delivered.
	OnLine func(i int)

	Calls []string
}

func Key(name string, args ...string) string {
	return strings.Join(append([]string{name}, args...), " ")
}

func (f *Fake) record(key string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, key)
}

func (f *Fake) CallCount(prefix string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.Calls {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}

func (f *Fake) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	key := Key(name, args...)
	f.record(key)

	f.mu.Lock()
	out, ok := f.Outputs[key]
	f.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%s: exit status 1", key)
	}
	return []byte(out), nil
}

func (f *Fake) Stream(ctx context.Context, name string, args []string, fn func(line string)) error {
	f.record(Key(name, args...))
	if f.StreamErr != nil {
		return f.StreamErr
	}

	for i, line := range f.Lines {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		fn(line)
		if f.OnLine != nil {
			f.OnLine(i)
		}
	}

	if f.Block {
		<-ctx.Done()
		return ctx.Err()
	}
	return nil
}
