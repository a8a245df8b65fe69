package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), FileName))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Runtime.Version != "3.11.5" {
		t.Fatalf("expected default runtime version, got %q", cfg.Runtime.Version)
	}
	if cfg.ExpectedProbe() != "Python 3.11.5" {
		t.Fatalf("unexpected probe line %q", cfg.ExpectedProbe())
	}
	if cfg.Grace() != 3*time.Second {
		t.Fatalf("expected 3s grace, got %s", cfg.Grace())
	}
}

func TestLoadOverridesAndDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	body := `
app_name: demo
runtime:
  version: 3.12.1
grace_delay: 0s
tools:
  env_manager: /opt/pixi/bin/pixi
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.AppName != "demo" {
		t.Fatalf("app name = %q", cfg.AppName)
	}
	if cfg.ExpectedProbe() != "Python 3.12.1" {
		t.Fatalf("probe = %q", cfg.ExpectedProbe())
	}
	if cfg.Grace() != 0 {
		t.Fatalf("expected zero grace, got %s", cfg.Grace())
	}
	if cfg.Tools.EnvManager != "/opt/pixi/bin/pixi" {
		t.Fatalf("env manager = %q", cfg.Tools.EnvManager)
	}
	if cfg.Tools.CompileTask != "compile-python" {
		t.Fatalf("compile task default lost: %q", cfg.Tools.CompileTask)
	}
	if cfg.Resources.Requirements != "requirements.txt" {
		t.Fatalf("requirements default lost: %q", cfg.Resources.Requirements)
	}
}

func TestLoadRejectsBadDuration(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	if err := os.WriteFile(path, []byte("grace_delay: soon\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for invalid duration")
	}
}

func TestMarshalRoundTripsGrace(t *testing.T) {
	cfg := Default()
	cfg.GraceDelay = &Duration{Duration: 1500 * time.Millisecond}
	data, err := cfg.Marshal()
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if !strings.Contains(string(data), "grace_delay: 1.5s") {
		t.Fatalf("expected grace delay in output:\n%s", data)
	}
}

func TestValidateDefaultsClean(t *testing.T) {
	if results := Default().Validate(); len(results) != 0 {
		t.Fatalf("expected no findings, got %+v", results)
	}
}

func TestValidateFindings(t *testing.T) {
	cfg := Default()
	cfg.Runtime.Version = "nightly"
	cfg.Runtime.Binary = "../outside/python"
	cfg.Resources.Manifest = "conf/pixi.toml"
	cfg.Env.ModulePathVar = cfg.Env.LibraryPathVar

	results := cfg.Validate()
	if !HasErrors(results) {
		t.Fatalf("expected errors, got %+v", results)
	}

	fields := map[string]string{}
	for _, r := range results {
		fields[r.Field] = r.Level
	}
	if fields["runtime.version"] != "warning" {
		t.Fatalf("expected semver warning, got %+v", results)
	}
	for _, f := range []string{"runtime.binary", "resources.manifest", "env.module_path_var"} {
		if fields[f] != "error" {
			t.Fatalf("expected error for %s, got %+v", f, results)
		}
	}
}

func TestResolveRelative(t *testing.T) {
	dir := t.TempDir()
	cfg := Default()
	cfg.Resources.Dir = "resources"
	cfg.Sidecar.Path = "bin/worker"
	cfg.Sidecar.EnvFile = "sidecar.env"
	cfg.ResolveRelative(filepath.Join(dir, FileName))

	if cfg.Resources.Dir != filepath.Join(dir, "resources") {
		t.Fatalf("resources dir = %q", cfg.Resources.Dir)
	}
	if cfg.Sidecar.Path != filepath.Join(dir, "bin", "worker") {
		t.Fatalf("sidecar path = %q", cfg.Sidecar.Path)
	}
	if cfg.Sidecar.EnvFile != filepath.Join(dir, "sidecar.env") {
		t.Fatalf("sidecar env file = %q", cfg.Sidecar.EnvFile)
	}

	bare := Default()
	bare.ResolveRelative(filepath.Join(dir, FileName))
	if bare.Sidecar.Path != "kiara-tauri" {
		t.Fatalf("bare sidecar name should be left for lookup, got %q", bare.Sidecar.Path)
	}
}

func TestSchemaUsesYAMLNames(t *testing.T) {
	data, err := Schema()
	if err != nil {
		t.Fatalf("schema: %v", err)
	}
	out := string(data)
	for _, want := range []string{`"app_name"`, `"grace_delay"`, `"compile_task"`, `"env_file"`} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %s in schema", want)
		}
	}
	if strings.Contains(out, `"AppName"`) {
		t.Error("schema should not use Go field names")
	}
}
