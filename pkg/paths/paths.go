package paths

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/nirvanamm/nirvanamm/pkg/constants"
	"github.com/nirvanamm/nirvanamm/pkg/errors"
	"github.com/nirvanamm/nirvanamm/pkg/types"
)

// Environment variable names
const (
	// EnvDataDir overrides the XDG data directory (mods, origin, state file)
	EnvDataDir = "NIRVANAMM_DATA_DIR"

	// EnvConfigDir overrides the XDG config directory (settings.toml)
	EnvConfigDir = "NIRVANAMM_CONFIG_DIR"

	// EnvCacheDir overrides the XDG cache directory (patch staging)
	EnvCacheDir = "NIRVANAMM_CACHE_DIR"

	// EnvHome is the standard home directory variable
	EnvHome = "HOME"
)

// Paths provides centralized path management for nirvanamm
type Paths interface {
	DataDir() string
	ConfigDir() string
	CacheDir() string
	ModsDir() string
	OriginPath() string
	ConfigPath() string
	SettingsPath() string
	StagingDir() string
	EnsureDirs(fs types.FS) error
}

type paths struct {
	dataDir   string
	configDir string
	cacheDir  string
}

// New creates a new Paths instance. If dataDir is empty it is taken from
// NIRVANAMM_DATA_DIR or the XDG data home.
func New(dataDir string) (Paths, error) {
	p := &paths{}

	switch {
	case dataDir != "":
		p.dataDir = expandHome(dataDir)
	case os.Getenv(EnvDataDir) != "":
		p.dataDir = expandHome(os.Getenv(EnvDataDir))
	default:
		p.dataDir = filepath.Join(xdg.DataHome, constants.AppName)
	}

	if configDir := os.Getenv(EnvConfigDir); configDir != "" {
		p.configDir = expandHome(configDir)
	} else {
		p.configDir = filepath.Join(xdg.ConfigHome, constants.AppName)
	}

	if cacheDir := os.Getenv(EnvCacheDir); cacheDir != "" {
		p.cacheDir = expandHome(cacheDir)
	} else {
		p.cacheDir = filepath.Join(xdg.CacheHome, constants.AppName)
	}

	for _, dir := range []*string{&p.dataDir, &p.configDir, &p.cacheDir} {
		abs, err := filepath.Abs(*dir)
		if err != nil {
			return nil, errors.Wrapf(err, errors.ErrIO, "failed to get absolute path for %s", *dir)
		}
		*dir = abs
	}

	return p, nil
}

// expandHome expands ~ to the home directory
func expandHome(path string) string {
	if path == "" || path[0] != '~' {
		return path
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = os.Getenv(EnvHome)
		if homeDir == "" {
			return path
		}
	}

	if len(path) == 1 {
		return homeDir
	}
	if path[1] == '/' || path[1] == filepath.Separator {
		return filepath.Join(homeDir, path[2:])
	}

	// ~something (not the user's home)
	return path
}

// DataDir returns the application-data root
func (p *paths) DataDir() string {
	return p.dataDir
}

// ConfigDir returns the directory holding settings.toml
func (p *paths) ConfigDir() string {
	return p.configDir
}

// CacheDir returns the cache root
func (p *paths) CacheDir() string {
	return p.cacheDir
}

// ModsDir returns the directory scanned for mod archives
func (p *paths) ModsDir() string {
	return filepath.Join(p.dataDir, constants.ModsSubdir)
}

// OriginPath returns the location of the pristine game snapshot
func (p *paths) OriginPath() string {
	return filepath.Join(p.dataDir, constants.OriginFileName)
}

// ConfigPath returns the location of the persisted application state
func (p *paths) ConfigPath() string {
	return filepath.Join(p.dataDir, constants.ConfigFileName)
}

// SettingsPath returns the optional user settings file
func (p *paths) SettingsPath() string {
	return filepath.Join(p.configDir, constants.SettingsFile)
}

// StagingDir returns the scratch directory used while decoding patches
func (p *paths) StagingDir() string {
	return filepath.Join(p.cacheDir, constants.StagingSubdir)
}

// EnsureDirs creates the data, mods and staging directories.
func (p *paths) EnsureDirs(fs types.FS) error {
	for _, dir := range []string{p.dataDir, p.ModsDir(), p.StagingDir()} {
		if err := fs.MkdirAll(dir, 0755); err != nil {
			return errors.Wrapf(err, errors.ErrIO, "could not create directory %s", dir)
		}
	}
	return nil
}
