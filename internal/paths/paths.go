package paths

import (
	"fmt"
	"os"
	"path/filepath"

	"appenv/internal/config"
)

// HomeOverrideEnv relocates the environment directory, mainly for tests and
// portable installs.
const HomeOverrideEnv = "APPENV_HOME"

// EnvPaths captures canonical locations inside the environment directory.
type EnvPaths struct {
	Root          string
	Lockfile      string
	Manifest      string
	VersionMarker string
	Requirements  string
	RuntimeBinary string
	RuntimeLibDir string
	ModuleDir     string
	LogsDir       string
}

// Resolve determines the environment directory for the configuration. The
// directory is not created.
func Resolve(cfg config.Config) (EnvPaths, error) {
	root := cfg.Env.Dir
	if override, ok := os.LookupEnv(HomeOverrideEnv); ok && override != "" {
		root = override
	}
	if root == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return EnvPaths{}, fmt.Errorf("detect user home: %w", err)
		}
		root = filepath.Join(home, "."+cfg.AppName+"-app")
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return EnvPaths{}, fmt.Errorf("resolve environment directory: %w", err)
	}
	return newEnvPaths(abs, cfg), nil
}

func newEnvPaths(root string, cfg config.Config) EnvPaths {
	logs := cfg.Log.Dir
	if logs == "" {
		// Kept beside the environment so a destructive refresh keeps the
		// log of the run that performed it.
		logs = root + "-logs"
	}
	return EnvPaths{
		Root:          root,
		Lockfile:      filepath.Join(root, cfg.Resources.Lockfile),
		Manifest:      filepath.Join(root, cfg.Resources.Manifest),
		VersionMarker: filepath.Join(root, cfg.Runtime.Version),
		Requirements:  filepath.Join(root, cfg.Resources.Requirements),
		RuntimeBinary: filepath.Join(root, filepath.FromSlash(cfg.Runtime.Binary)),
		RuntimeLibDir: filepath.Join(root, filepath.FromSlash(cfg.Runtime.LibDir)),
		ModuleDir:     filepath.Join(root, filepath.FromSlash(cfg.Runtime.ModuleDir)),
		LogsDir:       logs,
	}
}

// EnsureLogsDir creates the run log directory.
func (p EnvPaths) EnsureLogsDir() error {
	if err := os.MkdirAll(p.LogsDir, 0o755); err != nil {
		return fmt.Errorf("create logs directory %s: %w", p.LogsDir, err)
	}
	return nil
}

// FileExists reports whether a path exists and is a regular file.
func FileExists(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return info.Mode().IsRegular(), nil
}

// DirExists reports whether a path exists and is a directory.
func DirExists(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return info.IsDir(), nil
}
