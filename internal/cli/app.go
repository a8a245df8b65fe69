package cli

import (
	"fmt"

	"appenv/internal/bundle"
	"appenv/internal/config"
	"appenv/internal/paths"
	"appenv/internal/runner"
)

// appContext is everything a command needs after configuration is loaded.
type appContext struct {
	ConfigFile string
	Config     config.Config
	Paths      paths.EnvPaths
	Bundle     bundle.Dir
}

func loadApp() (appContext, error) {
	file, err := config.Locate(configPath)
	if err != nil {
		return appContext{}, err
	}
	cfg, err := config.Load(file)
	if err != nil {
		return appContext{}, err
	}
	cfg.ResolveRelative(file)
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}

	pp, err := paths.Resolve(cfg)
	if err != nil {
		return appContext{}, err
	}
	b, err := bundle.Open(cfg.Resources.Dir)
	if err != nil {
		return appContext{}, err
	}
	return appContext{ConfigFile: file, Config: cfg, Paths: pp, Bundle: b}, nil
}

// envManager returns the environment-manager executable to invoke.
func (a appContext) envManager() string {
	return runner.Locate(a.Config.Tools.EnvManager)
}

// sidecarPath returns the sidecar executable to start.
func (a appContext) sidecarPath() string {
	return runner.Locate(a.Config.Sidecar.Path)
}

func validateConfig(cfg config.Config) error {
	results := cfg.Validate()
	if !config.HasErrors(results) {
		return nil
	}
	for _, r := range results {
		if r.Level == "error" {
			return fmt.Errorf("%w: invalid config: %s: %s", bundle.ErrConfiguration, r.Field, r.Message)
		}
	}
	return nil
}
