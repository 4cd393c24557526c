package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/nirvanamm/nirvanamm/pkg/filesystem"
	"github.com/nirvanamm/nirvanamm/pkg/paths"
	"github.com/nirvanamm/nirvanamm/pkg/types"
	"github.com/stretchr/testify/require"
)

// TestEnvironment is an in-memory installation: data, config and cache
// directories plus a game root holding data.win.
type TestEnvironment struct {
	FS       types.FS
	Paths    paths.Paths
	GameRoot string
}

// NewTestEnvironment builds the environment on a fresh memory filesystem.
func NewTestEnvironment(t *testing.T) *TestEnvironment {
	t.Helper()

	t.Setenv(paths.EnvConfigDir, "/config")
	t.Setenv(paths.EnvCacheDir, "/cache")

	p, err := paths.New("/data")
	require.NoError(t, err)

	env := &TestEnvironment{
		FS:       filesystem.NewMemory(),
		Paths:    p,
		GameRoot: "/game",
	}
	require.NoError(t, p.EnsureDirs(env.FS))
	env.WriteGameFile(t, "data.win", "ORIGINAL")
	return env
}

// GamePath joins rel (forward slashes) onto the game root.
func (e *TestEnvironment) GamePath(rel string) string {
	return filepath.Join(e.GameRoot, filepath.FromSlash(rel))
}

// WriteGameFile writes a file under the game root.
func (e *TestEnvironment) WriteGameFile(t *testing.T, rel, body string) {
	t.Helper()
	full := e.GamePath(rel)
	require.NoError(t, e.FS.MkdirAll(filepath.Dir(full), 0755))
	require.NoError(t, e.FS.WriteFile(full, []byte(body), 0644))
}

// ReadGameFile returns the content of a file under the game root.
func (e *TestEnvironment) ReadGameFile(t *testing.T, rel string) string {
	t.Helper()
	data, err := e.FS.ReadFile(e.GamePath(rel))
	require.NoError(t, err)
	return string(data)
}

// GameFileExists reports whether rel exists under the game root.
func (e *TestEnvironment) GameFileExists(rel string) bool {
	_, err := e.FS.Stat(e.GamePath(rel))
	return err == nil
}

// AddMod writes the mod into the mods directory as <guid>.zip.
func (e *TestEnvironment) AddMod(t *testing.T, b *ModBuilder) string {
	t.Helper()
	return b.Write(t, e.FS, filepath.Join(e.Paths.ModsDir(), b.guid+".zip"))
}

// TempDir returns a real temporary directory, for tests that need the OS
// filesystem.
func TempDir(t *testing.T) string {
	t.Helper()
	dir, err := os.MkdirTemp("", "nirvanamm-test-")
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.RemoveAll(dir) })
	return dir
}
