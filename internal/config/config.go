package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// FileName is the configuration file looked up next to the executable.
const FileName = "appenv.yaml"

// Config captures how the environment is provisioned and which sidecar is
// launched from it.
type Config struct {
	Version    int             `yaml:"version"`
	AppName    string          `yaml:"app_name"`
	Display    string          `yaml:"display_name"`
	Runtime    RuntimeConfig   `yaml:"runtime"`
	Env        EnvConfig       `yaml:"env"`
	Resources  ResourcesConfig `yaml:"resources"`
	Tools      ToolsConfig     `yaml:"tools"`
	Sidecar    SidecarConfig   `yaml:"sidecar"`
	GraceDelay *Duration       `yaml:"grace_delay,omitempty"`
	Log        LogConfig       `yaml:"log"`
}

// RuntimeConfig pins the language runtime build inside the environment.
type RuntimeConfig struct {
	Version     string `yaml:"version"`
	ProbePrefix string `yaml:"probe_prefix"`
	Binary      string `yaml:"binary"`
	LibDir      string `yaml:"lib_dir"`
	ModuleDir   string `yaml:"module_dir"`
}

// EnvConfig controls the environment directory and exported variables.
type EnvConfig struct {
	Dir            string `yaml:"dir,omitempty"`
	LibraryPathVar string `yaml:"library_path_var"`
	ModulePathVar  string `yaml:"module_path_var"`
}

// ResourcesConfig names the bundled provisioning artifacts.
type ResourcesConfig struct {
	Dir          string `yaml:"dir,omitempty"`
	Lockfile     string `yaml:"lockfile"`
	Manifest     string `yaml:"manifest"`
	Requirements string `yaml:"requirements"`
}

// ToolsConfig names the external tools the pipeline invokes.
type ToolsConfig struct {
	EnvManager      string `yaml:"env_manager"`
	CompileTask     string `yaml:"compile_task"`
	InstallerModule string `yaml:"installer_module"`
}

// SidecarConfig describes the long-running worker process.
type SidecarConfig struct {
	Path string   `yaml:"path"`
	Args []string `yaml:"args,omitempty"`
	// EnvFile is an optional dotenv file whose variables are passed to the
	// sidecar. The provisioning variables take precedence.
	EnvFile string `yaml:"env_file,omitempty"`
}

// LogConfig controls the run log.
type LogConfig struct {
	Level string `yaml:"level"`
	Dir   string `yaml:"dir,omitempty"`
}

// Duration is a time.Duration that reads and writes as a Go duration string.
type Duration struct {
	time.Duration
}

func (d Duration) MarshalYAML() (interface{}, error) {
	return d.Duration.String(), nil
}

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return fmt.Errorf("duration: %w", err)
	}
	parsed, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("duration %q: %w", raw, err)
	}
	d.Duration = parsed
	return nil
}

// Default returns the baseline configuration.
func Default() Config {
	return Config{
		Version: 1,
		AppName: "kiara",
		Display: "network analysis app",
		Runtime: RuntimeConfig{
			Version:     "3.11.5",
			ProbePrefix: "Python ",
			Binary:      "python/bin/python",
			LibDir:      "python/lib",
			ModuleDir:   "python",
		},
		Env: EnvConfig{
			LibraryPathVar: "DYLD_LIBRARY_PATH",
			ModulePathVar:  "PYTHONPATH",
		},
		Resources: ResourcesConfig{
			Lockfile:     "pixi.lock",
			Manifest:     "pixi.toml",
			Requirements: "requirements.txt",
		},
		Tools: ToolsConfig{
			EnvManager:      "pixi",
			CompileTask:     "compile-python",
			InstallerModule: "pip",
		},
		Sidecar: SidecarConfig{
			Path: "kiara-tauri",
		},
		GraceDelay: &Duration{Duration: 3 * time.Second},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads the YAML configuration from disk if it exists, otherwise returns
// the default configuration.
func Load(path string) (Config, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg := Default()
			cfg.ApplyDefaults()
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.ApplyDefaults()
	return cfg, nil
}

// ApplyDefaults ensures nested fields fall back to sensible defaults when the
// YAML omits them.
func (c *Config) ApplyDefaults() {
	defaults := Default()

	if c.Version == 0 {
		c.Version = defaults.Version
	}
	c.AppName = strings.TrimSpace(c.AppName)
	if c.AppName == "" {
		c.AppName = defaults.AppName
	}
	if strings.TrimSpace(c.Display) == "" {
		c.Display = defaults.Display
	}
	if strings.TrimSpace(c.Runtime.Version) == "" {
		c.Runtime.Version = defaults.Runtime.Version
	}
	if c.Runtime.Binary == "" {
		c.Runtime.Binary = defaults.Runtime.Binary
	}
	if c.Runtime.LibDir == "" {
		c.Runtime.LibDir = defaults.Runtime.LibDir
	}
	if c.Runtime.ModuleDir == "" {
		c.Runtime.ModuleDir = defaults.Runtime.ModuleDir
	}
	if c.Env.LibraryPathVar == "" {
		c.Env.LibraryPathVar = defaults.Env.LibraryPathVar
	}
	if c.Env.ModulePathVar == "" {
		c.Env.ModulePathVar = defaults.Env.ModulePathVar
	}
	if c.Resources.Lockfile == "" {
		c.Resources.Lockfile = defaults.Resources.Lockfile
	}
	if c.Resources.Manifest == "" {
		c.Resources.Manifest = defaults.Resources.Manifest
	}
	if c.Resources.Requirements == "" {
		c.Resources.Requirements = defaults.Resources.Requirements
	}
	if c.Tools.EnvManager == "" {
		c.Tools.EnvManager = defaults.Tools.EnvManager
	}
	if c.Tools.CompileTask == "" {
		c.Tools.CompileTask = defaults.Tools.CompileTask
	}
	if c.Tools.InstallerModule == "" {
		c.Tools.InstallerModule = defaults.Tools.InstallerModule
	}
	if c.Sidecar.Path == "" {
		c.Sidecar.Path = defaults.Sidecar.Path
	}
	if c.GraceDelay == nil {
		c.GraceDelay = defaults.GraceDelay
	}
	if c.Log.Level == "" {
		c.Log.Level = defaults.Log.Level
	}
}

// ExpectedProbe is the exact line the installed runtime must print when
// asked for its version.
func (c Config) ExpectedProbe() string {
	return c.Runtime.ProbePrefix + c.Runtime.Version
}

// Grace returns the delay before provisioning starts.
func (c Config) Grace() time.Duration {
	if c.GraceDelay == nil {
		return 0
	}
	return c.GraceDelay.Duration
}

// Marshal returns the YAML encoding of the configuration.
func (c Config) Marshal() ([]byte, error) {
	buf, err := yaml.Marshal(&c)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return buf, nil
}
