package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"appenv/internal/events"
	"appenv/internal/logx"
	"appenv/internal/provision"
	"appenv/internal/runner"
	"appenv/internal/tui"
)

var (
	runNoProgress bool
	runGrace      time.Duration
	runStayOpen   bool
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Provision the environment if needed, then start the sidecar and wait for it",
		RunE:  runRun,
	}
	addRunFlags(cmd)
	return cmd
}

func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&runNoProgress, "no-progress", false, "Print plain progress lines instead of the interactive view")
	cmd.Flags().DurationVar(&runGrace, "grace", -1, "Delay before provisioning starts (default: grace_delay from the config)")
	cmd.Flags().BoolVar(&runStayOpen, "stay-open", false, "Keep the progress view open after a failure until dismissed")
}

func runRun(cmd *cobra.Command, _ []string) error {
	app, err := loadApp()
	if err != nil {
		return err
	}
	if err := validateConfig(app.Config); err != nil {
		return err
	}

	if err := app.Paths.EnsureLogsDir(); err != nil {
		return err
	}
	logger, closer, err := logx.New(app.Paths.LogsDir, app.Config.Log.Level, nil)
	if err != nil {
		return err
	}
	defer closer.Close()

	grace := app.Config.Grace()
	if runGrace >= 0 {
		grace = runGrace
	}

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	queue := events.NewQueue()
	eng := provision.New(provision.Options{
		Config:      app.Config,
		Paths:       app.Paths,
		Bundle:      app.Bundle,
		Runner:      runner.CmdRunner{},
		Events:      queue,
		Logger:      logger,
		EnvManager:  app.envManager(),
		SidecarPath: app.sidecarPath(),
	})
	logger.Info("starting",
		"env", app.Paths.Root,
		"resources", app.Bundle.Root,
		"config", app.ConfigFile,
		"grace", grace,
	)

	outcomes := eng.Start(ctx, grace)
	finished := make(chan provision.Outcome, 1)
	go func() {
		outcome := <-outcomes
		queue.Close()
		finished <- outcome
	}()

	mode := tui.DetectMode(cmd.ErrOrStderr(), runNoProgress, outputJSON)
	renderErr := renderEvents(ctx, cmd, mode, "Preparing "+app.Config.Display, queue.Events())
	if errors.Is(renderErr, tui.ErrInterrupted) {
		stop()
	}
	// The view may have quit early; keep the queue flowing so it can close.
	go func() {
		for range queue.Events() {
		}
	}()

	outcome := <-finished
	logger.Debug("provisioning finished", "phase", eng.Phase(), "transitions", eng.Transitions())
	if outcome.Err != nil {
		if mode == tui.ModePlain && runStayOpen {
			waitForEnter(cmd)
		}
		return outcome.Err
	}

	handle := outcome.Result.Sidecar
	if handle == nil {
		return nil
	}
	if err := handle.Wait(); err != nil {
		if ctx.Err() != nil {
			logger.Info("sidecar stopped", "reason", ctx.Err())
			return nil
		}
		logger.Error("sidecar exited", "err", err)
		return fmt.Errorf("sidecar exited: %w", err)
	}
	logger.Info("sidecar exited")
	return nil
}

func renderEvents(ctx context.Context, cmd *cobra.Command, mode tui.OutputMode, title string, evs <-chan events.Event) error {
	switch mode {
	case tui.ModeJSON:
		return tui.WriteJSONEvents(cmd.OutOrStdout(), evs)
	case tui.ModeTUI:
		return tui.RunEvents(ctx, cmd.ErrOrStderr(), tui.NewStepsModel(title, runStayOpen), evs)
	default:
		return tui.PrintEvents(cmd.ErrOrStderr(), evs)
	}
}

func waitForEnter(cmd *cobra.Command) {
	fmt.Fprintln(cmd.ErrOrStderr(), "Press Enter to exit")
	_, _ = bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
}
