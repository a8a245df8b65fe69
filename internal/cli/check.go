package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"appenv/internal/bundle"
	"appenv/internal/config"
	"appenv/internal/fingerprint"
	"appenv/internal/provision"
	"appenv/internal/runner"
	"appenv/internal/stage"
	"appenv/internal/tui"
)

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Report the environment state without changing anything",
		RunE:  runCheck,
	}
}

type healthCheck struct {
	Name    string `json:"name"`
	Status  string `json:"status"` // "ok", "warning", "error"
	Summary string `json:"summary"`
}

type checkReport struct {
	EnvDir string            `json:"env_dir"`
	State  fingerprint.State `json:"state"`
	Plan   fingerprint.Plan  `json:"plan"`
	Checks []healthCheck     `json:"checks"`
}

func runCheck(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	app, err := loadApp()
	if err != nil {
		return err
	}

	report := checkReport{EnvDir: app.Paths.Root}
	report.Checks = append(report.Checks, checkConfig(app.Config))
	report.Checks = append(report.Checks, checkResources(app.Bundle, app.Config))
	report.Checks = append(report.Checks, checkExecutable("Env manager", app.envManager()))
	report.Checks = append(report.Checks, checkExecutable("Sidecar", app.sidecarPath()))

	var status *tui.StatusWriter
	if tui.DetectMode(cmd.ErrOrStderr(), false, outputJSON) == tui.ModeTUI {
		status = tui.NewStatusWriter(cmd.ErrOrStderr())
		status.Update("Probing " + app.Paths.RuntimeBinary)
	}
	eng := provision.New(provision.Options{
		Config: app.Config,
		Paths:  app.Paths,
		Bundle: app.Bundle,
		Runner: runner.CmdRunner{},
	})
	report.State = eng.Inspect(ctx)
	report.Plan = report.State.Plan()
	if status != nil {
		status.Stop()
	}
	report.Checks = append(report.Checks, checkEnvironment(report.State))

	return writeCheckReport(cmd, report)
}

func checkConfig(cfg config.Config) healthCheck {
	var warnings, errs int
	var first string
	for _, v := range cfg.Validate() {
		switch v.Level {
		case "warning":
			warnings++
		case "error":
			errs++
		}
		if first == "" {
			first = v.Field + ": " + v.Message
		}
	}

	summary := fmt.Sprintf("runtime %s, app %s", cfg.Runtime.Version, cfg.AppName)
	if errs > 0 {
		return healthCheck{Name: "Config", Status: "error", Summary: fmt.Sprintf("%s; %d errors (%s)", summary, errs, first)}
	}
	if warnings > 0 {
		return healthCheck{Name: "Config", Status: "warning", Summary: fmt.Sprintf("%s; %d warnings (%s)", summary, warnings, first)}
	}
	return healthCheck{Name: "Config", Status: "ok", Summary: summary}
}

func checkResources(b bundle.Bundle, cfg config.Config) healthCheck {
	names := stage.FullSet(cfg)
	var errs []error
	for _, name := range names {
		if _, err := b.Resolve(name); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) == 0 {
		if err := bundle.CheckManifest(b, cfg.Resources.Manifest, cfg.Tools.CompileTask); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return healthCheck{Name: "Resources", Status: "error", Summary: strings.ReplaceAll(err.Error(), "\n", "; ")}
	}
	return healthCheck{Name: "Resources", Status: "ok", Summary: joinComma(names)}
}

func checkExecutable(name, path string) healthCheck {
	resolved, err := exec.LookPath(path)
	if err != nil {
		return healthCheck{Name: name, Status: "error", Summary: fmt.Sprintf("%s not found", path)}
	}
	return healthCheck{Name: name, Status: "ok", Summary: resolved}
}

func checkEnvironment(state fingerprint.State) healthCheck {
	switch state {
	case fingerprint.Ready:
		return healthCheck{Name: "Environment", Status: "ok", Summary: "up to date"}
	case fingerprint.DependenciesStale:
		return healthCheck{Name: "Environment", Status: "warning", Summary: "packages will be updated on next run"}
	case fingerprint.VersionStale:
		return healthCheck{Name: "Environment", Status: "warning", Summary: "runtime version differs; it will be reinstalled on next run"}
	default:
		return healthCheck{Name: "Environment", Status: "warning", Summary: "not installed; it will be installed on next run"}
	}
}

func writeCheckReport(cmd *cobra.Command, report checkReport) error {
	if outputJSON {
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}

	bold := lipgloss.NewStyle().Bold(true).Inline(true)
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, bold.Render("ENVIRONMENT:")+" "+report.EnvDir)
	fmt.Fprintln(out, bold.Render("STATE:")+" "+tui.StateStyle(report.State.String()).Inline(true).Render(report.State.String()))

	for _, c := range report.Checks {
		var label string
		switch c.Status {
		case "ok":
			label = "OK"
		case "warning":
			label = "WARN"
		case "error":
			label = "ERROR"
		}
		fmt.Fprintf(out, "  %-13s %s    %s\n", c.Name+":", tui.StateStyle(c.Status).Inline(true).Render(label), c.Summary)
	}
	return nil
}

func joinComma(items []string) string {
	return strings.Join(items, ", ")
}
