// Package fingerprint decides whether the provisioned environment on disk
// matches what the application bundles.
package fingerprint

import (
	"bytes"
	"context"
	"os"
	"strings"

	"github.com/charmbracelet/log"

	"appenv/internal/bundle"
	"appenv/internal/paths"
	"appenv/internal/runner"
)

// VersionSwitch is passed to the runtime binary to query its version.
const VersionSwitch = "--version"

// RuntimeMatches runs binary with the version switch and reports whether its
// trimmed standard output equals expected. Any failure to run the probe
// counts as a mismatch.
func RuntimeMatches(ctx context.Context, r runner.Runner, binary, expected string) bool {
	ok, _ := probeRuntime(ctx, r, binary, expected)
	return ok
}

func probeRuntime(ctx context.Context, r runner.Runner, binary, expected string) (bool, error) {
	res, err := r.Run(ctx, binary, []string{VersionSwitch}, runner.RunOptions{})
	if err != nil {
		return false, err
	}
	return strings.TrimSpace(string(res.Stdout)) == expected, nil
}

// DependenciesMatch reports whether both files exist and are byte-identical.
// No normalization is applied.
func DependenciesMatch(installedPath, bundledPath string) bool {
	if installedPath == "" || bundledPath == "" {
		return false
	}
	installed, err := os.ReadFile(installedPath)
	if err != nil {
		return false
	}
	bundled, err := os.ReadFile(bundledPath)
	if err != nil {
		return false
	}
	return bytes.Equal(installed, bundled)
}

// Checker evaluates one environment directory against the bundle.
type Checker struct {
	Runner        runner.Runner
	Paths         paths.EnvPaths
	Bundle        bundle.Bundle
	Requirements  string
	ExpectedProbe string
	Logger        *log.Logger
}

// RuntimeMatches probes the runtime inside the environment directory.
func (c Checker) RuntimeMatches(ctx context.Context) bool {
	ok, err := probeRuntime(ctx, c.Runner, c.Paths.RuntimeBinary, c.ExpectedProbe)
	if err != nil && c.Logger != nil {
		c.Logger.Debug("runtime probe failed", "binary", c.Paths.RuntimeBinary, "err", err)
	}
	return ok
}

// DependenciesMatch compares the installed dependency list with the bundled one.
func (c Checker) DependenciesMatch() bool {
	bundled, err := c.Bundle.Resolve(c.Requirements)
	if err != nil {
		if c.Logger != nil {
			c.Logger.Debug("bundled dependency list unavailable", "err", err)
		}
		return false
	}
	return DependenciesMatch(c.Paths.Requirements, bundled)
}

// Evaluate computes the environment state from scratch. It only reads.
func (c Checker) Evaluate(ctx context.Context) State {
	exists, err := paths.DirExists(c.Paths.Root)
	if err != nil || !exists {
		return Absent
	}
	if !c.RuntimeMatches(ctx) {
		return VersionStale
	}
	if !c.DependenciesMatch() {
		return DependenciesStale
	}
	return Ready
}
