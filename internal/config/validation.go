package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// ValidationResult captures a single validation finding.
type ValidationResult struct {
	Level   string `json:"level"` // "error" or "warning"
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Validate runs all validations against the config and returns structured
// results. An empty slice means the config is usable as-is.
func (c Config) Validate() []ValidationResult {
	var results []ValidationResult
	results = append(results, c.validateRuntime()...)
	results = append(results, c.validateRelativePaths()...)
	results = append(results, c.validateNames()...)
	if c.Grace() < 0 {
		results = append(results, ValidationResult{
			Level:   "error",
			Field:   "grace_delay",
			Message: fmt.Sprintf("grace delay must not be negative (got %s)", c.Grace()),
		})
	}
	return results
}

// HasErrors reports whether any result is an error.
func HasErrors(results []ValidationResult) bool {
	for _, r := range results {
		if r.Level == "error" {
			return true
		}
	}
	return false
}

func (c Config) validateRuntime() []ValidationResult {
	version := strings.TrimSpace(c.Runtime.Version)
	if version == "" {
		return []ValidationResult{{Level: "error", Field: "runtime.version", Message: "runtime version is required"}}
	}
	var results []ValidationResult
	if version != c.Runtime.Version {
		results = append(results, ValidationResult{
			Level:   "error",
			Field:   "runtime.version",
			Message: fmt.Sprintf("runtime version %q has surrounding whitespace", c.Runtime.Version),
		})
	}
	if strings.ContainsAny(version, `/\`) {
		results = append(results, ValidationResult{
			Level:   "error",
			Field:   "runtime.version",
			Message: fmt.Sprintf("runtime version %q doubles as a file name and must not contain path separators", version),
		})
	}
	if _, err := semver.StrictNewVersion(version); err != nil {
		results = append(results, ValidationResult{
			Level:   "warning",
			Field:   "runtime.version",
			Message: fmt.Sprintf("runtime version %q is not a semantic version: %v", version, err),
		})
	}
	return results
}

func (c Config) validateRelativePaths() []ValidationResult {
	fields := []struct {
		name  string
		value string
	}{
		{"runtime.binary", c.Runtime.Binary},
		{"runtime.lib_dir", c.Runtime.LibDir},
		{"runtime.module_dir", c.Runtime.ModuleDir},
	}

	var results []ValidationResult
	for _, f := range fields {
		clean := filepath.Clean(filepath.FromSlash(f.value))
		if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
			results = append(results, ValidationResult{
				Level:   "error",
				Field:   f.name,
				Message: fmt.Sprintf("%s must stay inside the environment directory (got %q)", f.name, f.value),
			})
		}
	}
	return results
}

func (c Config) validateNames() []ValidationResult {
	var results []ValidationResult
	names := map[string]string{
		"resources.lockfile":     c.Resources.Lockfile,
		"resources.manifest":     c.Resources.Manifest,
		"resources.requirements": c.Resources.Requirements,
	}
	for _, field := range []string{"resources.lockfile", "resources.manifest", "resources.requirements"} {
		name := names[field]
		if filepath.Base(name) != name {
			results = append(results, ValidationResult{
				Level:   "error",
				Field:   field,
				Message: fmt.Sprintf("resource %q must be a bare file name", name),
			})
		}
	}
	if strings.ContainsAny(c.AppName, `/\ `) {
		results = append(results, ValidationResult{
			Level:   "error",
			Field:   "app_name",
			Message: fmt.Sprintf("app name %q must not contain spaces or path separators", c.AppName),
		})
	}
	if c.Env.LibraryPathVar == c.Env.ModulePathVar {
		results = append(results, ValidationResult{
			Level:   "error",
			Field:   "env.module_path_var",
			Message: fmt.Sprintf("library and module path variables must differ (both %q)", c.Env.ModulePathVar),
		})
	}
	return results
}
