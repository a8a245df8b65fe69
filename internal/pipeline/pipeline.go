// Package pipeline runs the external tools that materialize the runtime and
// its dependencies inside the environment directory.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os/exec"

	"github.com/charmbracelet/log"

	"appenv/internal/logx"
	"appenv/internal/paths"
	"appenv/internal/runner"
)

// ErrExternalTool marks a failed or unspawnable pipeline stage.
var ErrExternalTool = errors.New("external tool failure")

// Stage identifies one blocking external-process invocation.
type Stage int

const (
	StageEnvInstall Stage = iota + 1
	StageCompileRuntime
	StageInstallDependencies
)

func (s Stage) String() string {
	switch s {
	case StageEnvInstall:
		return "environment install"
	case StageCompileRuntime:
		return "runtime compilation"
	case StageInstallDependencies:
		return "dependency installation"
	default:
		return fmt.Sprintf("stage %d", int(s))
	}
}

// StageError reports which stage failed and why.
type StageError struct {
	Stage Stage
	// Spawn is true when the tool could not be started at all.
	Spawn   bool
	Message string
	Err     error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %d (%s): %s: %v", int(e.Stage), e.Stage, e.Message, e.Err)
}

func (e *StageError) Unwrap() []error {
	return []error{ErrExternalTool, e.Err}
}

// Pipeline holds everything needed to run the stages against one
// environment directory.
type Pipeline struct {
	Runner          runner.Runner
	Paths           paths.EnvPaths
	EnvManager      string
	CompileTask     string
	InstallerModule string
	Logger          *log.Logger
	// Before, when set, is called as each stage starts.
	Before func(Stage)
}

// Full runs every stage in order: environment install, runtime compilation,
// dependency installation.
func (p Pipeline) Full(ctx context.Context) error {
	return p.Run(ctx, StageEnvInstall, StageCompileRuntime, StageInstallDependencies)
}

// Dependencies runs the dependency installation stage only.
func (p Pipeline) Dependencies(ctx context.Context) error {
	return p.Run(ctx, StageInstallDependencies)
}

// Run executes stages sequentially and stops at the first failure.
func (p Pipeline) Run(ctx context.Context, stages ...Stage) error {
	for _, s := range stages {
		if p.Before != nil {
			p.Before(s)
		}
		if err := p.runStage(ctx, s); err != nil {
			return err
		}
	}
	return nil
}

// Command returns the executable and arguments for a stage.
func (p Pipeline) Command(s Stage) (string, []string) {
	switch s {
	case StageEnvInstall:
		return p.EnvManager, []string{"install"}
	case StageCompileRuntime:
		return p.EnvManager, []string{"run", p.CompileTask}
	case StageInstallDependencies:
		return p.Paths.RuntimeBinary, []string{"-m", p.InstallerModule, "install", "-r", p.Paths.Requirements}
	default:
		return "", nil
	}
}

func (p Pipeline) runStage(ctx context.Context, s Stage) error {
	command, args := p.Command(s)
	if command == "" {
		return &StageError{Stage: s, Spawn: true, Message: "unknown stage", Err: errors.New("no command")}
	}

	logger := p.Logger
	if logger == nil {
		logger = logx.Discard()
	}
	logger = logger.With("stage", s.String())
	logger.Info("running", "command", command, "args", args, "dir", p.Paths.Root)

	stdout := runner.NewLineWriter(func(line string) { logger.Info(line, "stream", "stdout") })
	stderr := runner.NewLineWriter(func(line string) { logger.Warn(line, "stream", "stderr") })
	_, err := p.Runner.Run(ctx, command, args, runner.RunOptions{
		Dir:    p.Paths.Root,
		Stdout: stdout,
		Stderr: stderr,
	})
	stdout.Flush()
	stderr.Flush()

	if err != nil {
		stageErr := classify(s, command, err)
		logger.Error("stage failed", "err", stageErr)
		return stageErr
	}
	logger.Info("stage finished")
	return nil
}

func classify(s Stage, command string, err error) *StageError {
	var exitErr *exec.ExitError
	spawn := !errors.As(err, &exitErr)

	var msg string
	switch {
	case s == StageInstallDependencies && spawn:
		msg = "failed to run the package installer, is the runtime install ok?"
	case s == StageInstallDependencies:
		msg = "failed to install packages"
	case spawn:
		msg = fmt.Sprintf("failed to run %s, is it available on the system?", command)
	case s == StageEnvInstall:
		msg = fmt.Sprintf("failed to set up environment with %s", command)
	default:
		msg = "failed to compile the runtime"
	}
	return &StageError{Stage: s, Spawn: spawn, Message: msg, Err: err}
}
