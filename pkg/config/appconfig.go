package config

import (
	"runtime"

	"github.com/nirvanamm/nirvanamm/pkg/errors"
	"github.com/pelletier/go-toml/v2"
)

// DataWin is the state of the patched game installation.
type DataWin struct {
	GameRoot      string   `toml:"game_root"`
	ActiveMods    []string `toml:"active_mods"`
	ReplacedFiles []string `toml:"replaced_files"`
}

// AppConfig is the persisted application state.
//
// ReplacedFiles mirrors the set of paths, relative to the game root, that
// currently differ from the origin snapshot. Entries use forward slashes, the
// same form as archive entry names.
type AppConfig struct {
	DataWin DataWin `toml:"data_win"`
}

// Default returns the configuration written on first start.
func Default() *AppConfig {
	return &AppConfig{
		DataWin: DataWin{
			GameRoot:      defaultGameRoot(),
			ActiveMods:    []string{},
			ReplacedFiles: []string{},
		},
	}
}

func defaultGameRoot() string {
	if runtime.GOOS == "windows" {
		return `C:\Program Files (x86)\Steam\steamapps\common\ZeroRanger`
	}
	return ""
}

// Clone returns a deep copy, so a background task can own its config.
func (c *AppConfig) Clone() *AppConfig {
	clone := &AppConfig{DataWin: DataWin{GameRoot: c.DataWin.GameRoot}}
	clone.DataWin.ActiveMods = append([]string{}, c.DataWin.ActiveMods...)
	clone.DataWin.ReplacedFiles = append([]string{}, c.DataWin.ReplacedFiles...)
	return clone
}

// RecordReplaced appends rel to ReplacedFiles unless it is already present.
func (c *AppConfig) RecordReplaced(rel string) {
	for _, existing := range c.DataWin.ReplacedFiles {
		if existing == rel {
			return
		}
	}
	c.DataWin.ReplacedFiles = append(c.DataWin.ReplacedFiles, rel)
}

// ClearReplaced empties ReplacedFiles.
func (c *AppConfig) ClearReplaced() {
	c.DataWin.ReplacedFiles = []string{}
}

// SetActiveMods replaces the active set, keeping first-seen order.
func (c *AppConfig) SetActiveMods(guids []string) {
	seen := make(map[string]bool, len(guids))
	active := make([]string, 0, len(guids))
	for _, guid := range guids {
		if seen[guid] {
			continue
		}
		seen[guid] = true
		active = append(active, guid)
	}
	c.DataWin.ActiveMods = active
}

// IsActive reports whether guid is in the active set.
func (c *AppConfig) IsActive(guid string) bool {
	for _, active := range c.DataWin.ActiveMods {
		if active == guid {
			return true
		}
	}
	return false
}

// Marshal encodes the configuration as TOML.
func Marshal(c *AppConfig) ([]byte, error) {
	data, err := toml.Marshal(c)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigSave, "failed to serialize config")
	}
	return data, nil
}

// Unmarshal decodes a TOML configuration document. Absent lists decode as
// empty rather than nil so a decoded value compares equal to what was saved.
func Unmarshal(data []byte) (*AppConfig, error) {
	cfg := &AppConfig{}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigParse, "failed to parse config")
	}
	if cfg.DataWin.ActiveMods == nil {
		cfg.DataWin.ActiveMods = []string{}
	}
	if cfg.DataWin.ReplacedFiles == nil {
		cfg.DataWin.ReplacedFiles = []string{}
	}
	return cfg, nil
}
