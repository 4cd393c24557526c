package core

import (
	"path/filepath"
	"sync"

	"github.com/nirvanamm/nirvanamm/pkg/apply"
	"github.com/nirvanamm/nirvanamm/pkg/catalog"
	"github.com/nirvanamm/nirvanamm/pkg/config"
	"github.com/nirvanamm/nirvanamm/pkg/constants"
	"github.com/nirvanamm/nirvanamm/pkg/delta"
	"github.com/nirvanamm/nirvanamm/pkg/errors"
	"github.com/nirvanamm/nirvanamm/pkg/logging"
	"github.com/nirvanamm/nirvanamm/pkg/modfile"
	"github.com/nirvanamm/nirvanamm/pkg/order"
	"github.com/nirvanamm/nirvanamm/pkg/origin"
	"github.com/nirvanamm/nirvanamm/pkg/paths"
	"github.com/nirvanamm/nirvanamm/pkg/session"
	"github.com/nirvanamm/nirvanamm/pkg/types"
	"github.com/nirvanamm/nirvanamm/pkg/validate"
	"go.uber.org/multierr"
)

// Options configures a Manager.
type Options struct {
	FS       types.FS
	Paths    paths.Paths
	Settings *config.Settings

	// Opener overrides the codec; by default the settings' executable is
	// looked up on PATH for every apply.
	Opener delta.Opener
}

// Manager is the engine behind every command.
type Manager struct {
	fs        types.FS
	paths     paths.Paths
	settings  *config.Settings
	store     *config.Store
	catalog   *catalog.Catalog
	validator *validate.Validator
	origin    *origin.Store
	applier   *apply.Applier
	exec      *session.Executor

	mu       sync.Mutex
	cfg      *config.AppConfig
	mods     []*modfile.ModFile
	failures []catalog.Failure
}

// New creates the data directories, loads the persisted state and scans
// the mods directory.
func New(opts Options) (*Manager, error) {
	if opts.FS == nil || opts.Paths == nil {
		return nil, errors.New(errors.ErrInvalidInput, "filesystem and paths are required")
	}
	settings := opts.Settings
	if settings == nil {
		var err error
		if settings, err = config.DefaultSettings(); err != nil {
			return nil, err
		}
	}
	opener := opts.Opener
	if opener == nil {
		opener = delta.ExecOpener(settings.Codec.Binary)
	}

	if err := opts.Paths.EnsureDirs(opts.FS); err != nil {
		return nil, err
	}

	store := config.NewStore(opts.FS, opts.Paths.ConfigPath())
	cfg, err := store.Load()
	if err != nil {
		return nil, err
	}

	cat, err := catalog.New(opts.FS, opts.Paths.ModsDir(), settings.Mods.Extension, settings.Mods.CacheSize)
	if err != nil {
		return nil, err
	}
	validator, err := validate.New(validate.WithDenied(settings.Security.Denied))
	if err != nil {
		return nil, err
	}

	originStore := origin.NewStore(opts.FS, opts.Paths.OriginPath(), settings.IO.BufferSize)
	m := &Manager{
		fs:        opts.FS,
		paths:     opts.Paths,
		settings:  settings,
		store:     store,
		catalog:   cat,
		validator: validator,
		origin:    originStore,
		applier:   apply.New(opts.FS, originStore, opener, opts.Paths.StagingDir(), settings.IO.BufferSize),
		exec:      session.NewExecutor(),
		cfg:       cfg,
	}

	if _, err := m.Refresh(); err != nil {
		return nil, err
	}
	return m, nil
}

// Paths returns the directory layout in use.
func (m *Manager) Paths() paths.Paths {
	return m.paths
}

// Config returns a copy of the current application state.
func (m *Manager) Config() *config.AppConfig {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cfg.Clone()
}

// Busy reports whether a long action is running.
func (m *Manager) Busy() bool {
	return m.exec.Busy()
}

// State returns the phase of the current or last long action.
func (m *Manager) State() session.State {
	return m.exec.State()
}

// OriginExists reports whether the pristine snapshot has been taken.
func (m *Manager) OriginExists() bool {
	return m.origin.Exists()
}

// Refresh rescans the mods directory.
func (m *Manager) Refresh() (*catalog.ScanResult, error) {
	result, err := m.catalog.Scan()
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.mods = result.Mods
	m.failures = result.Failures
	active := append([]string{}, m.cfg.DataWin.ActiveMods...)
	m.mu.Unlock()

	logger := logging.GetLogger("core")
	for _, guid := range active {
		if _, ok := modfile.Find(result.Mods, guid); !ok {
			logger.Warn().Str("guid", guid).Msg("Active mod is no longer installed")
		}
	}
	return result, nil
}

// Mods returns the mods found by the last refresh.
func (m *Manager) Mods() []*modfile.ModFile {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*modfile.ModFile{}, m.mods...)
}

// Failures returns the archives skipped by the last refresh.
func (m *Manager) Failures() []catalog.Failure {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]catalog.Failure{}, m.failures...)
}

// IsActive reports whether guid is part of the persisted selection.
func (m *Manager) IsActive(guid string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cfg.IsActive(guid)
}

// Resolve maps GUIDs to installed mods, keeping the given order and
// dropping repeats. No GUIDs means the persisted active selection.
func (m *Manager) Resolve(guids []string) ([]*modfile.ModFile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(guids) == 0 {
		guids = m.cfg.DataWin.ActiveMods
	}

	seen := make(map[string]bool, len(guids))
	selected := make([]*modfile.ModFile, 0, len(guids))
	for _, guid := range guids {
		if seen[guid] {
			continue
		}
		seen[guid] = true
		mod, ok := modfile.Find(m.mods, guid)
		if !ok {
			return nil, errors.Newf(errors.ErrNotFound, "no installed mod has guid %s", guid).WithDetail("guid", guid)
		}
		selected = append(selected, mod)
	}
	return selected, nil
}

// Validate resolves and validates a selection.
func (m *Manager) Validate(guids []string) (validate.Verdict, error) {
	selected, err := m.Resolve(guids)
	if err != nil {
		return validate.Verdict{}, err
	}
	return m.validator.Validate(selected), nil
}

// Order validates a selection and returns its apply chain.
func (m *Manager) Order(guids []string) ([]*modfile.ModFile, error) {
	selected, err := m.Resolve(guids)
	if err != nil {
		return nil, err
	}
	if verdict := m.validator.Validate(selected); !verdict.OK() {
		return nil, verdict.Err()
	}
	return order.Chain(selected), nil
}

// Commit adopts the config carried by a finished task.
func (m *Manager) Commit(res session.Result) {
	if res.Config == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cfg = res.Config
}

func (m *Manager) snapshot() *config.AppConfig {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cfg.Clone()
}

// ApplyAsync starts applying a selection (the active one when guids is
// empty). The caller must pass the result to Commit.
//
// The task snapshots the game first when no origin exists, validates,
// orders and applies. The selection is recorded as active up front, and
// the config is saved whether applying succeeds or not.
func (m *Manager) ApplyAsync(guids []string) (<-chan session.Result, error) {
	selected, err := m.Resolve(guids)
	if err != nil {
		return nil, err
	}
	cfg := m.snapshot()

	return m.exec.Submit(func(advance func(session.State)) (*config.AppConfig, error) {
		if !m.origin.Exists() {
			advance(session.PreparingOrigin)
			if _, err := m.origin.Prepare(cfg.DataWin.GameRoot); err != nil {
				return nil, err
			}
		}

		advance(session.Validating)
		if verdict := m.validator.Validate(selected); !verdict.OK() {
			return nil, verdict.Err()
		}
		chain := order.Chain(selected)

		advance(session.Applying)
		cfg.SetActiveMods(order.GUIDs(selected))
		applyErr := m.applier.Apply(cfg, chain)
		saveErr := m.store.Save(cfg)
		return cfg, multierr.Append(applyErr, saveErr)
	})
}

// Apply runs ApplyAsync and waits for it.
func (m *Manager) Apply(guids []string) error {
	results, err := m.ApplyAsync(guids)
	if err != nil {
		return err
	}
	res := <-results
	m.Commit(res)
	return res.Err
}

// run executes a long action synchronously through the executor.
func (m *Manager) run(task session.Task) error {
	res := m.exec.Run(task)
	m.Commit(res)
	return res.Err
}

// Prepare takes the origin snapshot. An existing snapshot is never
// replaced; purge it first.
func (m *Manager) Prepare() (origin.Stats, error) {
	var stats origin.Stats
	cfg := m.snapshot()
	err := m.run(func(advance func(session.State)) (*config.AppConfig, error) {
		if m.origin.Exists() {
			return nil, errors.Newf(errors.ErrInvalidInput, "origin snapshot already exists at %s", m.origin.Path())
		}
		advance(session.PreparingOrigin)
		var err error
		stats, err = m.origin.Prepare(cfg.DataWin.GameRoot)
		return nil, err
	})
	return stats, err
}

// Reset restores the game tree from the snapshot and saves the config.
func (m *Manager) Reset() error {
	cfg := m.snapshot()
	return m.run(func(func(session.State)) (*config.AppConfig, error) {
		if err := m.origin.Reset(cfg); err != nil {
			return nil, err
		}
		if err := m.store.Save(cfg); err != nil {
			return nil, err
		}
		return cfg, nil
	})
}

// Purge restores the game tree, clears the selection and deletes the
// snapshot.
func (m *Manager) Purge() error {
	cfg := m.snapshot()
	return m.run(func(func(session.State)) (*config.AppConfig, error) {
		if err := m.origin.Purge(cfg, m.store); err != nil {
			return nil, err
		}
		return cfg, nil
	})
}

// SetGameRoot points the manager at a game installation. The directory
// must contain data.win, and the current installation must not have mods
// applied.
func (m *Manager) SetGameRoot(dir string) error {
	if m.exec.Busy() {
		return errors.New(errors.ErrBusy, "another operation is in progress")
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return errors.Wrapf(err, errors.ErrInvalidInput, "invalid directory %s", dir)
	}
	info, err := m.fs.Stat(abs)
	if err != nil || !info.IsDir() {
		return errors.Newf(errors.ErrInvalidInput, "%s is not a directory", abs)
	}
	if _, err := m.fs.Stat(filepath.Join(abs, constants.TrackedAsset)); err != nil {
		return errors.Newf(errors.ErrInvalidInput, "%s does not contain %s", abs, constants.TrackedAsset)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.cfg.DataWin.ReplacedFiles) > 0 && m.cfg.DataWin.GameRoot != abs {
		return errors.New(errors.ErrInvalidInput, "mods are applied to the current game; reset before changing its root")
	}
	if m.origin.Exists() && m.cfg.DataWin.GameRoot != abs {
		return errors.New(errors.ErrInvalidInput, "a snapshot of the current game exists; purge before changing its root").
			WithDetail("root", m.cfg.DataWin.GameRoot)
	}

	cfg := m.cfg.Clone()
	cfg.DataWin.GameRoot = abs
	if err := m.store.Save(cfg); err != nil {
		return err
	}
	m.cfg = cfg
	return nil
}
