package config

import (
	_ "embed"
	"os"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/nirvanamm/nirvanamm/pkg/errors"
)

// EnvPrefix prefixes every environment override, e.g. NIRVANAMM_CODEC_BINARY.
const EnvPrefix = "NIRVANAMM_"

//go:embed embedded/defaults.toml
var defaultSettings []byte

// rawBytesProvider implements koanf provider for raw bytes
type rawBytesProvider struct{ bytes []byte }

func (r *rawBytesProvider) ReadBytes() ([]byte, error) { return r.bytes, nil }
func (r *rawBytesProvider) Read() (map[string]interface{}, error) {
	return nil, errors.New(errors.ErrInternal, "not implemented")
}

// Settings are the runtime knobs of the engine.
type Settings struct {
	Codec struct {
		Binary string `koanf:"binary"`
	} `koanf:"codec"`
	Mods struct {
		Extension string `koanf:"extension"`
		CacheSize int    `koanf:"cache_size"`
	} `koanf:"mods"`
	Security struct {
		Denied []string `koanf:"denied"`
	} `koanf:"security"`
	IO struct {
		BufferSize int `koanf:"buffer_size"`
	} `koanf:"io"`
}

// DefaultSettings returns the embedded defaults only.
func DefaultSettings() (*Settings, error) {
	return LoadSettings("", nil)
}

// LoadSettings layers embedded defaults, the settings file at path (if it
// exists), NIRVANAMM_* environment variables and finally overrides, which
// use dotted keys such as "codec.binary".
func LoadSettings(path string, overrides map[string]interface{}) (*Settings, error) {
	k := koanf.New(".")

	// 1. Embedded defaults
	if err := k.Load(&rawBytesProvider{bytes: defaultSettings}, toml.Parser()); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigParse, "failed to load defaults")
	}

	// 2. User settings file
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
				return nil, errors.Wrapf(err, errors.ErrConfigParse, "failed to load settings from %s", path)
			}
		}
	}

	// 3. Environment
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigLoad, "failed to load env vars")
	}

	// 4. Flag overrides
	if len(overrides) > 0 {
		if err := k.Load(confmap.Provider(overrides, "."), nil); err != nil {
			return nil, errors.Wrap(err, errors.ErrConfigLoad, "failed to load overrides")
		}
	}

	var s Settings
	unmarshalConf := koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           &s,
			WeaklyTypedInput: true,
			DecodeHook:       mapstructure.StringToSliceHookFunc(","),
		},
	}
	if err := k.UnmarshalWithConf("", &s, unmarshalConf); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigParse, "failed to unmarshal settings")
	}

	if err := s.validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// envKey maps NIRVANAMM_IO_BUFFER_SIZE to io.buffer_size: the first
// underscore separates the section, the rest belong to the key.
func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.Replace(key, "_", ".", 1)
}

func (s *Settings) validate() error {
	if s.Codec.Binary == "" {
		return errors.New(errors.ErrConfigParse, "codec.binary must not be empty")
	}
	if !strings.HasPrefix(s.Mods.Extension, ".") {
		return errors.Newf(errors.ErrConfigParse, "mods.extension must start with a dot, got %q", s.Mods.Extension)
	}
	if s.Mods.CacheSize <= 0 {
		return errors.Newf(errors.ErrConfigParse, "mods.cache_size must be positive, got %d", s.Mods.CacheSize)
	}
	if s.IO.BufferSize <= 0 {
		return errors.Newf(errors.ErrConfigParse, "io.buffer_size must be positive, got %d", s.IO.BufferSize)
	}
	return nil
}
