// Package command runs the external utilities the adapters depend on, either
// as a one-shot query or as a long-running line stream.
package command

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/log"

	"github.com/svscagn/skadi/internal/payload"
)

// Runner is implemented by Exec, and by fakes in tests.
type Runner interface {
	// Output runs name to completion and returns its stdout. A non-zero exit
	// status is an error.
	Output(ctx context.Context, name string, args ...string) ([]byte, error)

	// Stream starts name and calls fn for every line it writes to stdout. It
	// returns once stdout is closed.
	Stream(ctx context.Context, name string, args []string, fn func(line string)) error
}

// Exec runs real subprocesses. When ctx is cancelled the child gets SIGTERM
// and, if it is still around after WaitDelay, SIGKILL.
type Exec struct {
	WaitDelay time.Duration
}

func NewExec() *Exec {
	return &Exec{WaitDelay: time.Second}
}

func (e *Exec) command(ctx context.Context, name string, args ...string) *exec.Cmd {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Cancel = func() error {
		return cmd.Process.Signal(syscall.SIGTERM)
	}
	cmd.WaitDelay = e.WaitDelay
	return cmd
}

func (e *Exec) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := e.command(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, fmt.Errorf("%s %s: %w: %s", name, strings.Join(args, " "), err, strings.TrimSpace(stderr.String()))
		}
		return nil, payload.IoFailure(fmt.Sprintf("run %s", name), err)
	}
	return out, nil
}

func (e *Exec) Stream(ctx context.Context, name string, args []string, fn func(line string)) error {
	cmd := e.command(ctx, name, args...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return payload.IoFailure(fmt.Sprintf("pipe %s", name), err)
	}

	if err := cmd.Start(); err != nil {
		return payload.IoFailure(fmt.Sprintf("spawn %s", name), err)
	}
	log.Debug("spawned subprocess", "cmd", name, "args", strings.Join(args, " "), "pid", cmd.Process.Pid)

	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		fn(scanner.Text())
	}
	scanErr := scanner.Err()
	if scanErr != nil {
		// nobody drains stdout any more
		_ = cmd.Process.Kill()
	}

	waitErr := cmd.Wait()
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if scanErr != nil {
		return payload.IoFailure(fmt.Sprintf("read %s output", name), scanErr)
	}
	if waitErr != nil {
		log.Debug("subprocess exited", "cmd", name, "err", waitErr)
	}
	return nil
}
