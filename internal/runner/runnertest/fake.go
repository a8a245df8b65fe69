// Package runnertest provides a scriptable runner.Runner for tests.
package runnertest

import (
	"context"
	"os/exec"
	"path/filepath"
	"sync"

	"appenv/internal/runner"
)

// Call records one command invocation.
type Call struct {
	Command string
	Args    []string
	Dir     string
}

// Base returns the command's file name.
func (c Call) Base() string {
	return filepath.Base(c.Command)
}

// HandlerFunc scripts the outcome of a call.
type HandlerFunc func(call Call, opts runner.RunOptions) (runner.RunResult, error)

// Fake records invocations and delegates their outcome to Handler. A nil
// Handler makes every call succeed with empty output.
type Fake struct {
	Handler HandlerFunc

	mu    sync.Mutex
	calls []Call
}

func (f *Fake) Run(_ context.Context, command string, args []string, opts runner.RunOptions) (runner.RunResult, error) {
	call := Call{Command: command, Args: append([]string(nil), args...), Dir: opts.Dir}
	f.mu.Lock()
	f.calls = append(f.calls, call)
	handler := f.Handler
	f.mu.Unlock()

	if handler == nil {
		return runner.RunResult{}, nil
	}
	res, err := handler(call, opts)
	if opts.Stdout != nil && len(res.Stdout) > 0 {
		_, _ = opts.Stdout.Write(res.Stdout)
	}
	if opts.Stderr != nil && len(res.Stderr) > 0 {
		_, _ = opts.Stderr.Write(res.Stderr)
	}
	return res, err
}

// Calls returns a copy of every recorded call.
func (f *Fake) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

// Reset forgets recorded calls.
func (f *Fake) Reset() {
	f.mu.Lock()
	f.calls = nil
	f.mu.Unlock()
}

var _ runner.Runner = (*Fake)(nil)

// ExitFailure returns an error shaped like a process that started and exited
// non-zero.
func ExitFailure() error {
	return &exec.ExitError{}
}
