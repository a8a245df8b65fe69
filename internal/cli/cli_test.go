package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"appenv/internal/bundle"
	"appenv/internal/config"
	"appenv/internal/fingerprint"
	"appenv/internal/paths"
)

type testApp struct {
	root      string
	config    string
	envDir    string
	resources string
}

func newTestApp(t *testing.T, extra string) testApp {
	t.Helper()
	t.Setenv(paths.HomeOverrideEnv, "")
	root := t.TempDir()
	app := testApp{
		root:      root,
		config:    filepath.Join(root, config.FileName),
		envDir:    filepath.Join(root, "env"),
		resources: filepath.Join(root, "resources"),
	}
	body := "app_name: kiara\n" +
		"env:\n  dir: " + app.envDir + "\n" +
		"resources:\n  dir: " + app.resources + "\n" +
		"log:\n  dir: " + filepath.Join(root, "logs") + "\n" + extra
	writeTestFile(t, app.config, body)
	return app
}

func writeTestFile(t *testing.T, path, body string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestJoinComma(t *testing.T) {
	tests := []struct {
		input []string
		want  string
	}{
		{nil, ""},
		{[]string{"a"}, "a"},
		{[]string{"a", "b", "c"}, "a, b, c"},
	}
	for _, tt := range tests {
		if got := joinComma(tt.input); got != tt.want {
			t.Errorf("joinComma(%v) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestCheckConfig(t *testing.T) {
	cfg := config.Default()
	if got := checkConfig(cfg); got.Status != "ok" {
		t.Errorf("got status=%q, want ok (%s)", got.Status, got.Summary)
	}

	cfg.Runtime.Version = "3.11"
	if got := checkConfig(cfg); got.Status != "warning" {
		t.Errorf("got status=%q, want warning", got.Status)
	}

	cfg = config.Default()
	cfg.Env.ModulePathVar = cfg.Env.LibraryPathVar
	if got := checkConfig(cfg); got.Status != "error" {
		t.Errorf("got status=%q, want error", got.Status)
	}
}

func TestCheckResources(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	b := bundle.Dir{Root: dir}

	got := checkResources(b, cfg)
	if got.Status != "error" || !strings.Contains(got.Summary, "failed to find pixi.lock file") {
		t.Errorf("unexpected result %+v", got)
	}

	for _, name := range []string{cfg.Resources.Lockfile, cfg.Runtime.Version, cfg.Resources.Requirements} {
		writeTestFile(t, filepath.Join(dir, name), "")
	}
	writeTestFile(t, filepath.Join(dir, cfg.Resources.Manifest), "[tasks]\nbuild = \"make\"\n")
	got = checkResources(b, cfg)
	if got.Status != "error" || !strings.Contains(got.Summary, "compile-python") {
		t.Errorf("expected missing task error, got %+v", got)
	}

	writeTestFile(t, filepath.Join(dir, cfg.Resources.Manifest), "[tasks]\ncompile-python = \"./build.sh\"\n")
	if got = checkResources(b, cfg); got.Status != "ok" {
		t.Errorf("expected ok, got %+v", got)
	}
}

func TestCheckEnvironment(t *testing.T) {
	tests := map[fingerprint.State]string{
		fingerprint.Ready:             "ok",
		fingerprint.DependenciesStale: "warning",
		fingerprint.VersionStale:      "warning",
		fingerprint.Absent:            "warning",
	}
	for state, want := range tests {
		if got := checkEnvironment(state); got.Status != want {
			t.Errorf("checkEnvironment(%s) = %q, want %q", state, got.Status, want)
		}
	}
}

func TestCheckExecutableMissing(t *testing.T) {
	got := checkExecutable("Sidecar", filepath.Join(t.TempDir(), "nope"))
	if got.Status != "error" {
		t.Errorf("got status=%q, want error", got.Status)
	}
}

func TestEnvCommand(t *testing.T) {
	app := newTestApp(t, "")
	out, err := execute(t, "env", "--config", app.config)
	if err != nil {
		t.Fatalf("env: %v", err)
	}
	want := "DYLD_LIBRARY_PATH=" + filepath.Join(app.envDir, "python", "lib") + "\n" +
		"PYTHONPATH=" + filepath.Join(app.envDir, "python") + "\n"
	if out != want {
		t.Errorf("got %q, want %q", out, want)
	}

	out, err = execute(t, "env", "--config", app.config, "--json")
	if err != nil {
		t.Fatalf("env --json: %v", err)
	}
	var vars map[string]string
	if err := json.Unmarshal([]byte(out), &vars); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if vars["PYTHONPATH"] != filepath.Join(app.envDir, "python") {
		t.Errorf("unexpected vars %v", vars)
	}
}

func TestCleanRequiresYes(t *testing.T) {
	app := newTestApp(t, "")
	writeTestFile(t, filepath.Join(app.envDir, "python", "bin", "python"), "3.11.5")

	out, err := execute(t, "clean", "--config", app.config)
	if err != nil {
		t.Fatalf("clean: %v", err)
	}
	if !strings.Contains(out, "Would remove") {
		t.Errorf("expected dry run output, got %q", out)
	}
	if _, err := os.Stat(app.envDir); err != nil {
		t.Fatalf("environment removed without --yes: %v", err)
	}

	out, err = execute(t, "clean", "--config", app.config, "--yes")
	if err != nil {
		t.Fatalf("clean --yes: %v", err)
	}
	if !strings.Contains(out, "Removed") {
		t.Errorf("unexpected output %q", out)
	}
	if _, err := os.Stat(app.envDir); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected environment removed, stat err=%v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	app := newTestApp(t, "grace_delay: -1s\n")
	out, err := execute(t, "config", "validate", "--config", app.config)
	if !errors.Is(err, errInvalidConfig) {
		t.Fatalf("expected errInvalidConfig, got %v", err)
	}
	if !strings.Contains(out, "grace_delay") {
		t.Errorf("expected grace_delay finding, got %q", out)
	}

	app = newTestApp(t, "")
	out, err = execute(t, "config", "validate", "--config", app.config)
	if err != nil {
		t.Fatalf("validate: %v (%s)", err, out)
	}
	if !strings.HasSuffix(strings.TrimSpace(out), "ok") {
		t.Errorf("unexpected output %q", out)
	}
}

func TestConfigShow(t *testing.T) {
	app := newTestApp(t, "")
	out, err := execute(t, "config", "show", "--config", app.config)
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	for _, want := range []string{"app_name: kiara", "compile_task: compile-python", "grace_delay: 3s"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestCheckReportJSON(t *testing.T) {
	app := newTestApp(t, "")
	out, err := execute(t, "check", "--config", app.config, "--json")
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	var report struct {
		State  string        `json:"state"`
		Plan   string        `json:"plan"`
		Checks []healthCheck `json:"checks"`
	}
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if report.State != "absent" || report.Plan != "full" {
		t.Errorf("unexpected state %q plan %q", report.State, report.Plan)
	}
	if len(report.Checks) != 5 {
		t.Errorf("expected 5 checks, got %d", len(report.Checks))
	}
	if _, err := os.Stat(app.envDir); !errors.Is(err, os.ErrNotExist) {
		t.Error("check must not create the environment directory")
	}
}

func TestConfigSchema(t *testing.T) {
	out, err := execute(t, "config", "schema")
	if err != nil {
		t.Fatalf("schema: %v", err)
	}
	if !strings.Contains(out, `"sidecar"`) {
		t.Errorf("unexpected schema output:\n%s", out)
	}
}
