package stage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"appenv/internal/bundle"
	"appenv/internal/config"
)

func newBundle(t *testing.T, files map[string]string) bundle.Dir {
	t.Helper()
	root := t.TempDir()
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(root, name), []byte(body), 0o644))
	}
	return bundle.Dir{Root: root}
}

func TestFullSet(t *testing.T) {
	assert.Equal(t,
		[]string{"pixi.lock", "pixi.toml", "3.11.5", "requirements.txt"},
		FullSet(config.Default()))
}

func TestStageCreatesParentsAndOverwrites(t *testing.T) {
	b := newBundle(t, map[string]string{
		"pixi.lock":        "lock-v2",
		"requirements.txt": "kiara==0.5\n",
	})
	envDir := filepath.Join(t.TempDir(), "home", ".kiara-app")
	require.NoError(t, os.MkdirAll(envDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(envDir, "pixi.lock"), []byte("lock-v1-longer-content"), 0o644))

	require.NoError(t, Stage(envDir, b, []string{"pixi.lock", "requirements.txt"}))

	data, err := os.ReadFile(filepath.Join(envDir, "pixi.lock"))
	require.NoError(t, err)
	assert.Equal(t, "lock-v2", string(data))

	data, err = os.ReadFile(filepath.Join(envDir, "requirements.txt"))
	require.NoError(t, err)
	assert.Equal(t, "kiara==0.5\n", string(data))
}

func TestStageMissingResourceIsConfigurationError(t *testing.T) {
	b := newBundle(t, map[string]string{"pixi.lock": "lock"})
	envDir := filepath.Join(t.TempDir(), "env")

	err := Stage(envDir, b, []string{"pixi.lock", "pixi.toml"})
	require.Error(t, err)
	assert.ErrorIs(t, err, bundle.ErrConfiguration)
	assert.NotErrorIs(t, err, ErrEnvironmentIO)

	_, statErr := os.Stat(envDir)
	assert.True(t, os.IsNotExist(statErr), "envDir must not be created when the bundle is broken")
}

func TestStageIOError(t *testing.T) {
	b := newBundle(t, map[string]string{"pixi.lock": "lock"})
	parent := t.TempDir()
	blocker := filepath.Join(parent, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	err := Stage(filepath.Join(blocker, "env"), b, []string{"pixi.lock"})
	require.Error(t, err)
	var ioErr *IOError
	require.ErrorAs(t, err, &ioErr)
	assert.Equal(t, filepath.Join(blocker, "env"), ioErr.Path)
	assert.ErrorIs(t, err, ErrEnvironmentIO)
}

func TestRemove(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "env")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "python", "lib"), 0o755))
	require.NoError(t, Remove(dir))
	_, err := os.Stat(dir)
	assert.True(t, os.IsNotExist(err))
	require.NoError(t, Remove(dir))
}
