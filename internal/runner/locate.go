package runner

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
)

// ExecutableName appends the platform executable suffix.
func ExecutableName(base string) string {
	if runtime.GOOS == "windows" && filepath.Ext(base) == "" {
		return base + ".exe"
	}
	return base
}

// Locate resolves a bare tool name the way bundled helpers are shipped: next
// to the running executable first, then on PATH. Paths containing a
// separator are returned unchanged, as is a name that cannot be found, so
// the spawn failure surfaces when the tool is actually run.
func Locate(name string) string {
	if name == "" || filepath.Base(name) != name {
		return name
	}
	if exe, err := os.Executable(); err == nil {
		candidate := filepath.Join(filepath.Dir(exe), ExecutableName(name))
		if info, err := os.Stat(candidate); err == nil && info.Mode().IsRegular() {
			return candidate
		}
	}
	if path, err := exec.LookPath(name); err == nil {
		return path
	}
	return name
}
