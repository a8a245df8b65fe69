// Package bundle resolves the read-only provisioning artifacts shipped with
// the application.
package bundle

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrConfiguration marks failures caused by a broken application build.
var ErrConfiguration = errors.New("configuration error")

// Bundle resolves a resource name to an absolute path.
type Bundle interface {
	Resolve(name string) (string, error)
}

// MissingResourceError reports a resource the bundle does not contain.
type MissingResourceError struct {
	Name string
	Dir  string
	Err  error
}

func (e *MissingResourceError) Error() string {
	return fmt.Sprintf("failed to find %s file in app resources (%s): %v", e.Name, e.Dir, e.Err)
}

func (e *MissingResourceError) Unwrap() []error {
	return []error{ErrConfiguration, e.Err}
}

// Dir is a bundle backed by a directory on disk.
type Dir struct {
	Root string
}

// DefaultDir returns the resources directory next to the running executable.
func DefaultDir() (Dir, error) {
	exe, err := os.Executable()
	if err != nil {
		return Dir{}, fmt.Errorf("locate executable: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return Dir{Root: filepath.Join(filepath.Dir(exe), "resources")}, nil
}

// Open returns a Dir rooted at root, or DefaultDir when root is empty.
func Open(root string) (Dir, error) {
	if root == "" {
		return DefaultDir()
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return Dir{}, fmt.Errorf("resolve resources dir: %w", err)
	}
	return Dir{Root: abs}, nil
}

// Resolve returns the absolute path of name, which must be a regular file
// directly inside the bundle.
func (d Dir) Resolve(name string) (string, error) {
	if name == "" || filepath.Base(name) != name {
		return "", &MissingResourceError{Name: name, Dir: d.Root, Err: errors.New("invalid resource name")}
	}
	path := filepath.Join(d.Root, name)
	info, err := os.Stat(path)
	if err != nil {
		return "", &MissingResourceError{Name: name, Dir: d.Root, Err: err}
	}
	if !info.Mode().IsRegular() {
		return "", &MissingResourceError{Name: name, Dir: d.Root, Err: errors.New("not a regular file")}
	}
	return path, nil
}

var _ Bundle = Dir{}
