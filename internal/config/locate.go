package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// Locate returns the configuration file to load. An explicit flag wins;
// otherwise the file next to the running executable is used, falling back to
// the working directory. The returned path may not exist.
func Locate(flag string) (string, error) {
	if flag != "" {
		abs, err := filepath.Abs(flag)
		if err != nil {
			return "", fmt.Errorf("resolve config path: %w", err)
		}
		return abs, nil
	}

	if exe, err := os.Executable(); err == nil {
		candidate := filepath.Join(filepath.Dir(exe), FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}

	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("resolve working directory: %w", err)
	}
	return filepath.Join(wd, FileName), nil
}

// ResolveRelative anchors relative config paths (resources dir, env dir,
// log dir, sidecar files) at the directory holding the configuration file.
func (c *Config) ResolveRelative(configPath string) {
	base := filepath.Dir(configPath)
	if c.Resources.Dir != "" {
		c.Resources.Dir = resolveExternalPath(base, c.Resources.Dir)
	}
	if c.Env.Dir != "" {
		c.Env.Dir = resolveExternalPath(base, c.Env.Dir)
	}
	if c.Log.Dir != "" {
		c.Log.Dir = resolveExternalPath(base, c.Log.Dir)
	}
	if c.Sidecar.EnvFile != "" {
		c.Sidecar.EnvFile = resolveExternalPath(base, c.Sidecar.EnvFile)
	}
	if filepath.IsAbs(c.Sidecar.Path) || filepath.Base(c.Sidecar.Path) != c.Sidecar.Path {
		c.Sidecar.Path = resolveExternalPath(base, c.Sidecar.Path)
	}
}

// resolveExternalPath returns path as-is if absolute, otherwise joins it with root.
func resolveExternalPath(root, path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(root, path)
}
