package bundle

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/pelletier/go-toml/v2"
)

// ErrTaskMissing is returned when the environment manifest does not declare
// the task the pipeline runs to build the runtime.
var ErrTaskMissing = errors.New("environment manifest does not declare task")

// Manifest is the subset of the environment-manager manifest the pipeline
// depends on.
type Manifest struct {
	Project struct {
		Name     string   `toml:"name"`
		Channels []string `toml:"channels"`
	} `toml:"project"`
	Tasks map[string]any `toml:"tasks"`
}

// TaskNames returns the declared task names in sorted order.
func (m Manifest) TaskNames() []string {
	names := make([]string, 0, len(m.Tasks))
	for name := range m.Tasks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LoadManifest decodes the manifest at path.
func LoadManifest(path string) (Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Manifest{}, fmt.Errorf("read environment manifest: %w", err)
	}
	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return Manifest{}, fmt.Errorf("%w: parse environment manifest %s: %v", ErrConfiguration, path, err)
	}
	return m, nil
}

// CheckManifest resolves the manifest resource and verifies it declares task.
// Every failure is a configuration error.
func CheckManifest(b Bundle, name, task string) error {
	path, err := b.Resolve(name)
	if err != nil {
		return err
	}
	m, err := LoadManifest(path)
	if err != nil {
		if errors.Is(err, ErrConfiguration) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	if _, ok := m.Tasks[task]; !ok {
		return fmt.Errorf("%w: %w %q (declared: %v)", ErrConfiguration, ErrTaskMissing, task, m.TaskNames())
	}
	return nil
}
