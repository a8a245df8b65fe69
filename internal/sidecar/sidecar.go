// Package sidecar starts the long-running worker process and relays its
// output.
package sidecar

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"sync"

	"golang.org/x/sync/errgroup"

	"appenv/internal/runner"
)

// Stream tags which child stream a line came from.
type Stream int

const (
	Stdout Stream = iota
	Stderr
)

func (s Stream) String() string {
	if s == Stderr {
		return "stderr"
	}
	return "stdout"
}

// Line is one line of child output.
type Line struct {
	Stream Stream
	Text   string
}

// Spec describes how to start the sidecar.
type Spec struct {
	Path string
	Args []string
	// Env is merged over the inherited environment.
	Env map[string]string
	Dir string
}

// Handle refers to a started sidecar.
type Handle struct {
	cmd     *exec.Cmd
	lines   chan Line
	drained chan struct{}

	waitOnce sync.Once
	waitErr  error
}

// Launch starts the sidecar and returns without waiting for it to exit.
// Output lines are delivered on Events in arrival order until both streams
// close. When sink is non-nil a detached goroutine drains Events into it;
// otherwise the caller must drain Events.
func Launch(ctx context.Context, spec Spec, sink Sink) (*Handle, error) {
	cmd := exec.CommandContext(ctx, spec.Path, spec.Args...)
	cmd.Env = MergeEnv(nil, spec.Env)
	cmd.Dir = spec.Dir

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("sidecar stdout: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("sidecar stderr: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to spawn sidecar %s: %w", spec.Path, err)
	}

	h := &Handle{
		cmd:     cmd,
		lines:   make(chan Line, 64),
		drained: make(chan struct{}),
	}

	var g errgroup.Group
	g.Go(func() error { return h.read(stdout, Stdout) })
	g.Go(func() error { return h.read(stderr, Stderr) })
	go func() {
		// Read errors only happen once the child is gone; end of stream is
		// the terminal signal either way.
		_ = g.Wait()
		close(h.lines)
		close(h.drained)
	}()

	if sink != nil {
		go Relay(h.lines, sink)
	}
	return h, nil
}

func (h *Handle) read(r io.Reader, stream Stream) error {
	err := runner.ScanLines(r, func(text string) {
		h.lines <- Line{Stream: stream, Text: text}
	})
	if err != nil {
		// Keep the pipe drained so the child never blocks on a write.
		_, _ = io.Copy(io.Discard, r)
	}
	return err
}

// Events returns the output stream. It is closed when both child streams
// reach end of file.
func (h *Handle) Events() <-chan Line {
	return h.lines
}

// Pid returns the child's process id.
func (h *Handle) Pid() int {
	if h.cmd.Process == nil {
		return 0
	}
	return h.cmd.Process.Pid
}

// Wait blocks until the output streams are drained and the child exits.
// It is safe to call more than once.
func (h *Handle) Wait() error {
	h.waitOnce.Do(func() {
		<-h.drained
		h.waitErr = h.cmd.Wait()
	})
	return h.waitErr
}

// Relay forwards every line from lines to sink until lines is closed.
func Relay(lines <-chan Line, sink Sink) {
	for line := range lines {
		sink.Line(line)
	}
}
