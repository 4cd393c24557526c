package origin_test

import (
	"testing"

	"github.com/nirvanamm/nirvanamm/pkg/archive"
	"github.com/nirvanamm/nirvanamm/pkg/config"
	"github.com/nirvanamm/nirvanamm/pkg/errors"
	"github.com/nirvanamm/nirvanamm/pkg/origin"
	"github.com/nirvanamm/nirvanamm/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSaver struct {
	saved []*config.AppConfig
	err   error
}

func (r *recordingSaver) Save(cfg *config.AppConfig) error {
	if r.err != nil {
		return r.err
	}
	r.saved = append(r.saved, cfg.Clone())
	return nil
}

func setup(t *testing.T) (*testutil.TestEnvironment, *origin.Store, *config.AppConfig) {
	t.Helper()
	env := testutil.NewTestEnvironment(t)
	env.WriteGameFile(t, "music/theme.ogg", "OLD")
	require.NoError(t, env.FS.MkdirAll(env.GamePath("empty"), 0755))

	cfg := config.Default()
	cfg.DataWin.GameRoot = env.GameRoot
	return env, origin.NewStore(env.FS, env.Paths.OriginPath(), 0), cfg
}

// modify simulates an apply run touching the game tree.
func modify(t *testing.T, env *testutil.TestEnvironment, cfg *config.AppConfig) {
	t.Helper()
	env.WriteGameFile(t, "data.win", "PATCHED")
	env.WriteGameFile(t, "music/theme.ogg", "NEW")
	env.WriteGameFile(t, "sprites/deep/new.png", "PNG")
	for _, rel := range []string{"data.win", "music/theme.ogg", "sprites/deep/new.png"} {
		cfg.RecordReplaced(rel)
	}
}

func TestPrepare(t *testing.T) {
	env, store, _ := setup(t)
	assert.False(t, store.Exists())

	stats, err := store.Prepare(env.GameRoot)
	require.NoError(t, err)
	assert.True(t, store.Exists())
	assert.Equal(t, origin.Stats{Files: 2, Dirs: 2, Bytes: int64(len("ORIGINAL") + len("OLD"))}, stats)

	_, err = env.FS.Stat(store.Path() + ".tmp")
	assert.Error(t, err)

	r, err := archive.Open(env.FS, store.Path())
	require.NoError(t, err)
	defer r.Close()
	assert.ElementsMatch(t, []string{"data.win", "empty/", "music/", "music/theme.ogg"}, r.Names())
}

func TestPrepareRejectsMissingRoot(t *testing.T) {
	env, store, _ := setup(t)

	_, err := store.Prepare("/nowhere")
	assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidInput))

	_, err = store.Prepare(env.GamePath("data.win"))
	assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidInput))
	assert.False(t, store.Exists())
}

func TestReset(t *testing.T) {
	env, store, cfg := setup(t)
	_, err := store.Prepare(env.GameRoot)
	require.NoError(t, err)

	modify(t, env, cfg)
	require.NoError(t, store.Reset(cfg))

	assert.Equal(t, "ORIGINAL", env.ReadGameFile(t, "data.win"))
	assert.Equal(t, "OLD", env.ReadGameFile(t, "music/theme.ogg"))
	assert.False(t, env.GameFileExists("sprites/deep/new.png"))
	assert.False(t, env.GameFileExists("sprites/deep"))
	assert.False(t, env.GameFileExists("sprites"))
	assert.True(t, env.GameFileExists("empty"))
	assert.Empty(t, cfg.DataWin.ReplacedFiles)
	assert.NotNil(t, cfg.DataWin.ReplacedFiles)
}

func TestResetKeepsUntrackedFiles(t *testing.T) {
	env, store, cfg := setup(t)
	_, err := store.Prepare(env.GameRoot)
	require.NoError(t, err)

	modify(t, env, cfg)
	env.WriteGameFile(t, "sprites/user-notes.txt", "mine")
	require.NoError(t, store.Reset(cfg))

	assert.True(t, env.GameFileExists("sprites/user-notes.txt"))
	assert.False(t, env.GameFileExists("sprites/deep"))
}

func TestResetIsIdempotent(t *testing.T) {
	env, store, cfg := setup(t)
	_, err := store.Prepare(env.GameRoot)
	require.NoError(t, err)

	modify(t, env, cfg)
	require.NoError(t, store.Reset(cfg))
	require.NoError(t, store.Reset(cfg))

	assert.Equal(t, "ORIGINAL", env.ReadGameFile(t, "data.win"))
	assert.Empty(t, cfg.DataWin.ReplacedFiles)
}

func TestResetWithoutSnapshot(t *testing.T) {
	_, store, cfg := setup(t)

	// Nothing to restore needs no snapshot.
	require.NoError(t, store.Reset(cfg))

	cfg.RecordReplaced("data.win")
	err := store.Reset(cfg)
	assert.True(t, errors.IsErrorCode(err, errors.ErrNotInitialized))
	assert.Equal(t, []string{"data.win"}, cfg.DataWin.ReplacedFiles)
}

func TestPurge(t *testing.T) {
	env, store, cfg := setup(t)
	_, err := store.Prepare(env.GameRoot)
	require.NoError(t, err)

	cfg.SetActiveMods([]string{"a", "b"})
	modify(t, env, cfg)

	saver := &recordingSaver{}
	require.NoError(t, store.Purge(cfg, saver))

	assert.False(t, store.Exists())
	assert.Equal(t, "ORIGINAL", env.ReadGameFile(t, "data.win"))
	assert.Empty(t, cfg.DataWin.ActiveMods)
	require.Len(t, saver.saved, 1)
	assert.Empty(t, saver.saved[0].DataWin.ActiveMods)
	assert.Empty(t, saver.saved[0].DataWin.ReplacedFiles)
}

func TestPurgePersistsThroughStore(t *testing.T) {
	env, store, cfg := setup(t)
	_, err := store.Prepare(env.GameRoot)
	require.NoError(t, err)
	cfg.SetActiveMods([]string{"a"})

	cs := config.NewStore(env.FS, env.Paths.ConfigPath())
	require.NoError(t, store.Purge(cfg, cs))

	loaded, err := cs.Load()
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestPurgeErrors(t *testing.T) {
	env, store, cfg := setup(t)

	err := store.Purge(cfg, &recordingSaver{})
	assert.True(t, errors.IsErrorCode(err, errors.ErrNotInitialized))

	_, err = store.Prepare(env.GameRoot)
	require.NoError(t, err)

	err = store.Purge(cfg, &recordingSaver{err: errors.New(errors.ErrConfigSave, "disk full")})
	assert.True(t, errors.IsErrorCode(err, errors.ErrConfigSave))
	assert.True(t, store.Exists(), "snapshot must survive a failed save")
}
