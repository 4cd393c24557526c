package apply_test

import (
	"testing"

	"github.com/nirvanamm/nirvanamm/pkg/apply"
	"github.com/nirvanamm/nirvanamm/pkg/config"
	"github.com/nirvanamm/nirvanamm/pkg/delta"
	"github.com/nirvanamm/nirvanamm/pkg/errors"
	"github.com/nirvanamm/nirvanamm/pkg/modfile"
	"github.com/nirvanamm/nirvanamm/pkg/origin"
	"github.com/nirvanamm/nirvanamm/pkg/testutil"
	"github.com/nirvanamm/nirvanamm/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockCodec is a mock implementation of delta.Codec
type MockCodec struct {
	mock.Mock
}

func (m *MockCodec) Decode(source, patch, target string) error {
	args := m.Called(source, patch, target)
	return args.Error(0)
}

// concatenate makes a decode call write source followed by patch.
func concatenate(t *testing.T, fs types.FS) func(mock.Arguments) {
	return func(args mock.Arguments) {
		src, err := fs.ReadFile(args.String(0))
		require.NoError(t, err)
		patch, err := fs.ReadFile(args.String(1))
		require.NoError(t, err)
		require.NoError(t, fs.WriteFile(args.String(2), append(src, patch...), 0644))
	}
}

type fixture struct {
	env     *testutil.TestEnvironment
	store   *origin.Store
	cfg     *config.AppConfig
	codec   *MockCodec
	applier *apply.Applier
}

func newFixture(t *testing.T, withOrigin bool) *fixture {
	t.Helper()
	env := testutil.NewTestEnvironment(t)
	env.WriteGameFile(t, "music/theme.ogg", "OLD")

	f := &fixture{
		env:   env,
		store: origin.NewStore(env.FS, env.Paths.OriginPath(), 0),
		cfg:   config.Default(),
		codec: &MockCodec{},
	}
	f.cfg.DataWin.GameRoot = env.GameRoot
	if withOrigin {
		_, err := f.store.Prepare(env.GameRoot)
		require.NoError(t, err)
	}
	opener := func() (delta.Codec, error) { return f.codec, nil }
	f.applier = apply.New(env.FS, f.store, opener, env.Paths.StagingDir(), 16)
	return f
}

func (f *fixture) load(t *testing.T, b *testutil.ModBuilder) *modfile.ModFile {
	t.Helper()
	mf, err := modfile.Load(f.env.FS, f.env.AddMod(t, b))
	require.NoError(t, err)
	return mf
}

func TestApplyChain(t *testing.T) {
	f := newFixture(t, true)
	a := f.load(t, testutil.NewMod("a").File("a.txt", "from a").Patch("+A"))
	b := f.load(t, testutil.NewMod("b").Depends("a", "*").Dir("music").File("music/theme.ogg", "NEW").Patch("+B"))

	f.codec.On("Decode", mock.Anything, mock.Anything, f.env.GamePath("data.win")).
		Run(concatenate(t, f.env.FS)).Return(nil).Twice()

	require.NoError(t, f.applier.Apply(f.cfg, []*modfile.ModFile{a, b}))

	assert.Equal(t, "ORIGINAL+A+B", f.env.ReadGameFile(t, "data.win"))
	assert.Equal(t, "from a", f.env.ReadGameFile(t, "a.txt"))
	assert.Equal(t, "NEW", f.env.ReadGameFile(t, "music/theme.ogg"))
	assert.Equal(t, []string{"a.txt", "data.win", "music/theme.ogg"}, f.cfg.DataWin.ReplacedFiles)
	assert.False(t, f.env.GameFileExists("patch.xdelta"))
	f.codec.AssertExpectations(t)
}

func TestApplyResetsBeforeStarting(t *testing.T) {
	f := newFixture(t, true)
	old := f.load(t, testutil.NewMod("old").File("old.txt", "stale"))
	fresh := f.load(t, testutil.NewMod("fresh").File("fresh.txt", "new"))

	require.NoError(t, f.applier.Apply(f.cfg, []*modfile.ModFile{old}))
	require.True(t, f.env.GameFileExists("old.txt"))

	require.NoError(t, f.applier.Apply(f.cfg, []*modfile.ModFile{fresh}))
	assert.False(t, f.env.GameFileExists("old.txt"))
	assert.True(t, f.env.GameFileExists("fresh.txt"))
	assert.Equal(t, []string{"fresh.txt"}, f.cfg.DataWin.ReplacedFiles)
}

func TestApplyFailureMidChainResets(t *testing.T) {
	f := newFixture(t, true)
	a := f.load(t, testutil.NewMod("a").File("music/theme.ogg", "A").Patch("+A"))
	c := f.load(t, testutil.NewMod("c").File("c.txt", "C").Patch("+C"))

	f.codec.On("Decode", mock.Anything, mock.Anything, mock.Anything).
		Run(concatenate(t, f.env.FS)).Return(nil).Once()
	f.codec.On("Decode", mock.Anything, mock.Anything, mock.Anything).
		Return(errors.New(errors.ErrCodec, "checksum mismatch")).Once()

	err := f.applier.Apply(f.cfg, []*modfile.ModFile{a, c})
	require.Error(t, err)

	var applyErr *apply.ApplyError
	require.ErrorAs(t, err, &applyErr)
	assert.Equal(t, "c", applyErr.GUID)
	assert.True(t, applyErr.ResetAttempted)
	assert.NoError(t, applyErr.ResetErr)
	assert.Contains(t, err.Error(), "c")
	assert.Contains(t, err.Error(), "checksum mismatch")
	assert.Contains(t, err.Error(), "Origin was reset")
	assert.True(t, errors.IsErrorCode(err, errors.ErrCodec))

	assert.Equal(t, "ORIGINAL", f.env.ReadGameFile(t, "data.win"))
	assert.Equal(t, "OLD", f.env.ReadGameFile(t, "music/theme.ogg"))
	assert.False(t, f.env.GameFileExists("c.txt"))
	assert.Empty(t, f.cfg.DataWin.ReplacedFiles)
}

func TestApplyFailureWithFailedReset(t *testing.T) {
	f := newFixture(t, false)
	c := f.load(t, testutil.NewMod("c").File("c.txt", "C").Patch("+C"))

	f.codec.On("Decode", mock.Anything, mock.Anything, mock.Anything).
		Return(errors.New(errors.ErrCodec, "boom"))

	err := f.applier.Apply(f.cfg, []*modfile.ModFile{c})

	var applyErr *apply.ApplyError
	require.ErrorAs(t, err, &applyErr)
	assert.Equal(t, "c", applyErr.GUID)
	require.Error(t, applyErr.ResetErr)
	assert.Contains(t, err.Error(), "boom")
	assert.Contains(t, err.Error(), "\nFailed to reset origin: ")
	assert.True(t, errors.IsErrorCode(err, errors.ErrCodec))
	assert.True(t, errors.IsErrorCode(applyErr.ResetErr, errors.ErrNotInitialized))
	assert.Equal(t, []string{"c.txt", "data.win"}, f.cfg.DataWin.ReplacedFiles)
}

func TestApplyCodecUnavailable(t *testing.T) {
	f := newFixture(t, true)
	a := f.load(t, testutil.NewMod("a").File("a.txt", "A"))

	opener := func() (delta.Codec, error) { return nil, errors.New(errors.ErrCodec, "xdelta3 not found") }
	applier := apply.New(f.env.FS, f.store, opener, f.env.Paths.StagingDir(), 0)

	err := applier.Apply(f.cfg, []*modfile.ModFile{a})

	var applyErr *apply.ApplyError
	require.ErrorAs(t, err, &applyErr)
	assert.Empty(t, applyErr.GUID)
	assert.False(t, applyErr.ResetAttempted)
	assert.False(t, f.env.GameFileExists("a.txt"))
	assert.NotContains(t, err.Error(), "reset")
}

func TestApplyMissingArchive(t *testing.T) {
	f := newFixture(t, true)
	a := f.load(t, testutil.NewMod("a").File("a.txt", "A"))
	require.NoError(t, f.env.FS.Remove(a.Path))

	err := f.applier.Apply(f.cfg, []*modfile.ModFile{a})

	var applyErr *apply.ApplyError
	require.ErrorAs(t, err, &applyErr)
	assert.Equal(t, "a", applyErr.GUID)
	assert.True(t, errors.IsErrorCode(err, errors.ErrIO))
}

func TestApplyDirectoryEntriesAreNotRecorded(t *testing.T) {
	f := newFixture(t, true)
	a := f.load(t, testutil.NewMod("a").Dir("levels/bonus"))

	require.NoError(t, f.applier.Apply(f.cfg, []*modfile.ModFile{a}))
	assert.True(t, f.env.GameFileExists("levels/bonus"))
	assert.Empty(t, f.cfg.DataWin.ReplacedFiles)
}
