package config

import (
	"os"
	"path/filepath"

	"github.com/nirvanamm/nirvanamm/pkg/errors"
	"github.com/nirvanamm/nirvanamm/pkg/logging"
	"github.com/nirvanamm/nirvanamm/pkg/types"
)

// Saver persists an AppConfig.
type Saver interface {
	Save(cfg *AppConfig) error
}

// Store reads and writes config.toml.
type Store struct {
	fs   types.FS
	path string
}

// NewStore returns a Store for the state file at path.
func NewStore(fs types.FS, path string) *Store {
	return &Store{fs: fs, path: path}
}

// Path returns the state file location.
func (s *Store) Path() string {
	return s.path
}

// Load reads the state file. A missing file is created with defaults.
func (s *Store) Load() (*AppConfig, error) {
	logger := logging.GetLogger("config.Store")

	data, err := s.fs.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, errors.Wrapf(err, errors.ErrConfigLoad, "failed to read %s", s.path)
		}
		logger.Info().Str("path", s.path).Msg("No config found, writing defaults")
		cfg := Default()
		if err := s.Save(cfg); err != nil {
			return nil, err
		}
		return cfg, nil
	}

	cfg, err := Unmarshal(data)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrConfigParse, "invalid config in %s", s.path)
	}
	return cfg, nil
}

// Save overwrites the whole state file. The document is written to a
// sibling temp file first and renamed into place.
func (s *Store) Save(cfg *AppConfig) error {
	data, err := Marshal(cfg)
	if err != nil {
		return err
	}

	if err := s.fs.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return errors.Wrapf(err, errors.ErrConfigSave, "failed to create %s", filepath.Dir(s.path))
	}

	tmp := s.path + ".tmp"
	if err := s.fs.WriteFile(tmp, data, 0644); err != nil {
		return errors.Wrapf(err, errors.ErrConfigSave, "failed to write %s", tmp)
	}
	if err := s.fs.Rename(tmp, s.path); err != nil {
		_ = s.fs.Remove(tmp)
		return errors.Wrapf(err, errors.ErrConfigSave, "failed to replace %s", s.path)
	}
	return nil
}
