// Package stage copies bundled provisioning artifacts into the writable
// environment directory.
package stage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"appenv/internal/bundle"
	"appenv/internal/config"
)

// ErrEnvironmentIO marks filesystem failures against the environment directory.
var ErrEnvironmentIO = errors.New("environment I/O error")

// IOError reports a failed filesystem operation against the environment
// directory.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() []error {
	return []error{ErrEnvironmentIO, e.Err}
}

// FullSet lists the resources copied for a full (re)install: lock file,
// environment manifest, runtime version marker and dependency list.
func FullSet(cfg config.Config) []string {
	return []string{
		cfg.Resources.Lockfile,
		cfg.Resources.Manifest,
		cfg.Runtime.Version,
		cfg.Resources.Requirements,
	}
}

// Stage ensures envDir exists and copies every named resource from b into
// it, overwriting existing files. All names are resolved before anything is
// written so a broken bundle leaves envDir untouched.
func Stage(envDir string, b bundle.Bundle, names []string) error {
	sources := make([]string, len(names))
	for i, name := range names {
		src, err := b.Resolve(name)
		if err != nil {
			return err
		}
		sources[i] = src
	}

	if err := os.MkdirAll(envDir, 0o755); err != nil {
		return &IOError{Op: "create directory", Path: envDir, Err: err}
	}

	for i, name := range names {
		dest := filepath.Join(envDir, name)
		if err := copyFile(sources[i], dest); err != nil {
			return &IOError{Op: "copy " + name + " to", Path: dest, Err: err}
		}
	}
	return nil
}

// Remove deletes envDir and everything below it. A missing directory is not
// an error.
func Remove(envDir string) error {
	if err := os.RemoveAll(envDir); err != nil {
		return &IOError{Op: "remove", Path: envDir, Err: err}
	}
	return nil
}

func copyFile(src, dst string) error {
	source, err := os.Open(src)
	if err != nil {
		return err
	}
	defer source.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}

	dest, err := os.Create(dst)
	if err != nil {
		return err
	}

	if _, err := io.Copy(dest, source); err != nil {
		dest.Close()
		return err
	}
	return dest.Close()
}
