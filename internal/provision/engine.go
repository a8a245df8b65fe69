// Package provision runs the provisioning state machine: check the
// environment directory, repair it from the bundle when needed, then launch
// the sidecar.
package provision

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"

	"appenv/internal/bundle"
	"appenv/internal/config"
	"appenv/internal/events"
	"appenv/internal/fingerprint"
	"appenv/internal/logx"
	"appenv/internal/paths"
	"appenv/internal/pipeline"
	"appenv/internal/runner"
	"appenv/internal/sidecar"
	"appenv/internal/stage"
)

// LaunchFunc starts the sidecar. sidecar.Launch is the default.
type LaunchFunc func(ctx context.Context, spec sidecar.Spec, sink sidecar.Sink) (*sidecar.Handle, error)

// Options wires an Engine to its collaborators.
type Options struct {
	Config config.Config
	Paths  paths.EnvPaths
	Bundle bundle.Bundle
	Runner runner.Runner
	Events events.Sink
	Logger *log.Logger
	// EnvManager is the resolved environment-manager executable. Defaults to
	// the configured name.
	EnvManager string
	// SidecarPath is the resolved sidecar executable. Defaults to the
	// configured path.
	SidecarPath string
	Launch      LaunchFunc
	// Sink receives relayed sidecar output. Defaults to a log sink.
	Sink sidecar.Sink
}

// Result describes a successful run.
type Result struct {
	// Initial is the environment state found before any repair.
	Initial fingerprint.State
	Plan    fingerprint.Plan
	EnvVars map[string]string
	Sidecar *sidecar.Handle
}

// Outcome is delivered by Start when the run ends.
type Outcome struct {
	Result Result
	Err    error
}

// Engine runs one provisioning flow. It is not safe to run two flows against
// the same environment directory at once.
type Engine struct {
	opts    Options
	checker fingerprint.Checker
	label   string
	logger  *log.Logger

	mu          sync.Mutex
	phase       Phase
	transitions []Phase
}

// New builds an engine, filling defaults for optional collaborators.
func New(opts Options) *Engine {
	if opts.Runner == nil {
		opts.Runner = runner.CmdRunner{}
	}
	if opts.Events == nil {
		opts.Events = events.Func(func(events.Event) {})
	}
	if opts.Logger == nil {
		opts.Logger = logx.Discard()
	}
	if opts.EnvManager == "" {
		opts.EnvManager = opts.Config.Tools.EnvManager
	}
	if opts.SidecarPath == "" {
		opts.SidecarPath = opts.Config.Sidecar.Path
	}
	if opts.Launch == nil {
		opts.Launch = sidecar.Launch
	}
	if opts.Sink == nil {
		opts.Sink = sidecar.LogSink{Logger: opts.Logger.WithPrefix("sidecar")}
	}

	label := strings.TrimSpace(opts.Config.Runtime.ProbePrefix)
	if label == "" {
		label = "runtime"
	}

	return &Engine{
		opts: opts,
		checker: fingerprint.Checker{
			Runner:        opts.Runner,
			Paths:         opts.Paths,
			Bundle:        opts.Bundle,
			Requirements:  opts.Config.Resources.Requirements,
			ExpectedProbe: opts.Config.ExpectedProbe(),
			Logger:        opts.Logger,
		},
		label:  label,
		logger: opts.Logger,
		phase:  PhaseIdle,
	}
}

// EnvVars derives the variables handed to the sidecar from the environment
// directory.
func EnvVars(cfg config.Config, pp paths.EnvPaths) map[string]string {
	return map[string]string{
		cfg.Env.LibraryPathVar: pp.RuntimeLibDir,
		cfg.Env.ModulePathVar:  pp.ModuleDir,
	}
}

// Start waits for grace, then runs the flow on a background goroutine. The
// returned channel yields exactly one Outcome.
func (e *Engine) Start(ctx context.Context, grace time.Duration) <-chan Outcome {
	out := make(chan Outcome, 1)
	go func() {
		defer close(out)
		if grace > 0 {
			timer := time.NewTimer(grace)
			select {
			case <-ctx.Done():
				timer.Stop()
				out <- Outcome{Err: e.fail(fmt.Errorf("provisioning cancelled: %w", ctx.Err()))}
				return
			case <-timer.C:
			}
		}
		res, err := e.Run(ctx)
		out <- Outcome{Result: res, Err: err}
	}()
	return out
}

// Run executes the state machine on the calling goroutine. On failure a
// single error event is emitted and the sidecar is not launched.
func (e *Engine) Run(ctx context.Context) (Result, error) {
	res, err := e.run(ctx)
	if err != nil {
		return Result{}, e.fail(err)
	}
	e.enter(PhaseDone)
	e.opts.Events.Emit(events.Dismiss())
	return res, nil
}

func (e *Engine) run(ctx context.Context) (Result, error) {
	var res Result
	launchEnv, err := e.sidecarEnv()
	if err != nil {
		return Result{}, err
	}

	e.enter(PhaseCheckingRuntime)
	e.progress(fmt.Sprintf("Checking for existing %s...", strings.ToLower(e.label)))
	res.Initial = e.runtimeState(ctx)
	res.Plan = res.Initial.Plan()
	e.logger.Info("runtime checked", "state", res.Initial, "dir", e.opts.Paths.Root)

	if res.Plan == fingerprint.PlanFull {
		e.enter(PhaseInstalling)
		e.progress(fmt.Sprintf("Correct version of %s doesn't exist, installing... This might take a couple of minutes", e.label))
		if err := e.install(ctx); err != nil {
			return Result{}, err
		}
	} else {
		e.progress(fmt.Sprintf("Correct %s already exists", e.label))
	}

	e.enter(PhaseCheckingDeps)
	e.progress("Checking packages are up to date...")
	if e.checker.DependenciesMatch() {
		e.progress("Packages are up to date")
	} else {
		if res.Plan == fingerprint.PlanNone {
			res.Plan = fingerprint.PlanDependencies
		}
		e.logger.Info("dependency list changed", "state", fingerprint.DependenciesStale)
		e.progress("Updating packages...")
		if err := e.refreshDependencies(ctx); err != nil {
			return Result{}, err
		}
		e.progress("Packages are up to date")
	}
	if res.Initial == fingerprint.Ready && res.Plan == fingerprint.PlanDependencies {
		res.Initial = fingerprint.DependenciesStale
	}

	e.enter(PhaseLaunchingSidecar)
	e.progress("Starting " + e.opts.Config.Display)
	res.EnvVars = EnvVars(e.opts.Config, e.opts.Paths)
	handle, err := e.opts.Launch(ctx, sidecar.Spec{
		Path: e.opts.SidecarPath,
		Args: e.opts.Config.Sidecar.Args,
		Env:  launchEnv,
	}, e.opts.Sink)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrSidecarLaunch, err)
	}
	res.Sidecar = handle
	if handle != nil {
		e.logger.Info("sidecar started", "path", e.opts.SidecarPath, "pid", handle.Pid())
	}
	return res, nil
}

// sidecarEnv returns the variables the sidecar starts with: the optional
// env file overlaid by the provisioning variables.
func (e *Engine) sidecarEnv() (map[string]string, error) {
	vars := EnvVars(e.opts.Config, e.opts.Paths)
	file := e.opts.Config.Sidecar.EnvFile
	if file == "" {
		return vars, nil
	}
	merged, err := godotenv.Read(file)
	if err != nil {
		return nil, fmt.Errorf("%w: read sidecar env file: %w", ErrConfiguration, err)
	}
	for k, v := range vars {
		merged[k] = v
	}
	return merged, nil
}

// runtimeState reports Absent, VersionStale or Ready; the dependency list is
// checked separately once the runtime is known good.
func (e *Engine) runtimeState(ctx context.Context) fingerprint.State {
	exists, err := paths.DirExists(e.opts.Paths.Root)
	if err != nil || !exists {
		return fingerprint.Absent
	}
	if !e.checker.RuntimeMatches(ctx) {
		return fingerprint.VersionStale
	}
	return fingerprint.Ready
}

func (e *Engine) install(ctx context.Context) error {
	cfg := e.opts.Config
	// A broken bundle must not cost the user their current environment.
	if err := bundle.CheckManifest(e.opts.Bundle, cfg.Resources.Manifest, cfg.Tools.CompileTask); err != nil {
		return fmt.Errorf("check environment manifest: %w", err)
	}
	if err := e.resolveAll(stage.FullSet(cfg)); err != nil {
		return err
	}

	e.logger.Info("removing environment directory", "dir", e.opts.Paths.Root)
	if err := stage.Remove(e.opts.Paths.Root); err != nil {
		return fmt.Errorf("reset environment: %w", err)
	}

	e.enter(PhaseStaging)
	if err := stage.Stage(e.opts.Paths.Root, e.opts.Bundle, stage.FullSet(cfg)); err != nil {
		return fmt.Errorf("stage resources: %w", err)
	}

	e.enter(PhasePipelineRunning)
	p := e.pipeline()
	p.Before = func(s pipeline.Stage) {
		if s == pipeline.StageInstallDependencies {
			e.progress(fmt.Sprintf("%s installed! Installing packages...", e.label))
		}
	}
	if err := p.Full(ctx); err != nil {
		return fmt.Errorf("install runtime: %w", err)
	}
	return nil
}

func (e *Engine) refreshDependencies(ctx context.Context) error {
	e.enter(PhaseStaging)
	if err := stage.Stage(e.opts.Paths.Root, e.opts.Bundle, stage.FullSet(e.opts.Config)); err != nil {
		return fmt.Errorf("stage resources: %w", err)
	}

	e.enter(PhasePipelineRunning)
	if err := e.pipeline().Dependencies(ctx); err != nil {
		return fmt.Errorf("update packages: %w", err)
	}
	return nil
}

func (e *Engine) resolveAll(names []string) error {
	for _, name := range names {
		if _, err := e.opts.Bundle.Resolve(name); err != nil {
			return fmt.Errorf("resolve bundled resources: %w", err)
		}
	}
	return nil
}

func (e *Engine) pipeline() pipeline.Pipeline {
	return pipeline.Pipeline{
		Runner:          e.opts.Runner,
		Paths:           e.opts.Paths,
		EnvManager:      e.opts.EnvManager,
		CompileTask:     e.opts.Config.Tools.CompileTask,
		InstallerModule: e.opts.Config.Tools.InstallerModule,
		Logger:          e.logger.WithPrefix("pipeline"),
	}
}

func (e *Engine) fail(err error) error {
	e.enter(PhaseFailed)
	e.logger.Error("provisioning failed", "kind", Kind(err), "err", err)
	e.opts.Events.Emit(events.Error(err.Error()))
	return err
}

func (e *Engine) progress(msg string) {
	e.logger.Info(msg)
	e.opts.Events.Emit(events.Progress(msg))
}

func (e *Engine) enter(p Phase) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.phase.Terminal() {
		return
	}
	e.phase = p
	e.transitions = append(e.transitions, p)
	e.logger.Debug("phase", "phase", p)
}

// Phase returns the current phase.
func (e *Engine) Phase() Phase {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.phase
}

// Transitions returns every phase entered so far, in order.
func (e *Engine) Transitions() []Phase {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]Phase(nil), e.transitions...)
}

// Inspect evaluates the environment without modifying it.
func (e *Engine) Inspect(ctx context.Context) fingerprint.State {
	return e.checker.Evaluate(ctx)
}
