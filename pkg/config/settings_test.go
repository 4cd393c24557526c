package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/nirvanamm/nirvanamm/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultSettings(t *testing.T) {
	s, err := DefaultSettings()
	require.NoError(t, err)

	assert.Equal(t, "xdelta3", s.Codec.Binary)
	assert.Equal(t, ".zip", s.Mods.Extension)
	assert.Equal(t, 256, s.Mods.CacheSize)
	assert.Equal(t, []string{"**/*.exe", "**/*.dll"}, s.Security.Denied)
	assert.Equal(t, 32768, s.IO.BufferSize)
}

func TestLoadSettingsLayers(t *testing.T) {
	t.Run("settings file overrides defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "settings.toml")
		require.NoError(t, os.WriteFile(path, []byte(`
[codec]
binary = "/opt/xdelta/xdelta3"

[security]
denied = ["**/*.exe", "**/*.dll", "**/*.so"]
`), 0644))

		s, err := LoadSettings(path, nil)
		require.NoError(t, err)
		assert.Equal(t, "/opt/xdelta/xdelta3", s.Codec.Binary)
		assert.Contains(t, s.Security.Denied, "**/*.so")
		assert.Equal(t, ".zip", s.Mods.Extension, "untouched keys keep defaults")
	})

	t.Run("missing settings file is ignored", func(t *testing.T) {
		s, err := LoadSettings(filepath.Join(t.TempDir(), "absent.toml"), nil)
		require.NoError(t, err)
		assert.Equal(t, "xdelta3", s.Codec.Binary)
	})

	t.Run("environment overrides file", func(t *testing.T) {
		t.Setenv("NIRVANAMM_CODEC_BINARY", "env-xdelta")
		t.Setenv("NIRVANAMM_IO_BUFFER_SIZE", "4096")

		s, err := LoadSettings("", nil)
		require.NoError(t, err)
		assert.Equal(t, "env-xdelta", s.Codec.Binary)
		assert.Equal(t, 4096, s.IO.BufferSize)
	})

	t.Run("overrides win over environment", func(t *testing.T) {
		t.Setenv("NIRVANAMM_CODEC_BINARY", "env-xdelta")

		s, err := LoadSettings("", map[string]interface{}{"codec.binary": "flag-xdelta"})
		require.NoError(t, err)
		assert.Equal(t, "flag-xdelta", s.Codec.Binary)
	})
}

func TestLoadSettingsValidation(t *testing.T) {
	tests := []struct {
		name      string
		overrides map[string]interface{}
	}{
		{"empty codec", map[string]interface{}{"codec.binary": ""}},
		{"extension without dot", map[string]interface{}{"mods.extension": "zip"}},
		{"zero cache", map[string]interface{}{"mods.cache_size": 0}},
		{"negative buffer", map[string]interface{}{"io.buffer_size": -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadSettings("", tt.overrides)
			assert.True(t, errors.IsErrorCode(err, errors.ErrConfigParse), "got %v", err)
		})
	}
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "codec.binary", envKey("NIRVANAMM_CODEC_BINARY"))
	assert.Equal(t, "io.buffer_size", envKey("NIRVANAMM_IO_BUFFER_SIZE"))
	assert.Equal(t, "mods.cache_size", envKey("NIRVANAMM_MODS_CACHE_SIZE"))
}

func TestLoadSettingsMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.toml")
	require.NoError(t, os.WriteFile(path, []byte("[codec\nbinary = "), 0644))

	_, err := LoadSettings(path, nil)
	assert.True(t, errors.IsErrorCode(err, errors.ErrConfigParse))
}
