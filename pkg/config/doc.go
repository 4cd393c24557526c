// Package config handles the two kinds of configuration nirvanamm keeps.
//
// AppConfig is the persisted application state (game root, active mods and
// the files that currently differ from the origin snapshot). It lives in
// config.toml in the data directory and round-trips exactly.
//
// Settings are runtime knobs (codec executable, archive extension, security
// deny-list, buffer sizes) layered from embedded defaults, an optional
// settings.toml, NIRVANAMM_* environment variables and command-line flags.
package config
