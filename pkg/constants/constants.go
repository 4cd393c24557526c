// Package constants provides the fixed names nirvanamm relies on.
// This package has no dependencies to avoid circular imports.
package constants

// Archive layout. Every mod archive carries exactly one manifest at its root
// and at most one delta patch, both under these names.
const (
	ManifestName   = "mod.toml"
	PatchName      = "patch.xdelta"
	PatchExtension = ".xdelta"
)

// TrackedAsset is the game data file that may only change through a delta
// patch. It is also the sentinel recorded in replaced_files after a patch.
const TrackedAsset = "data.win"

// Application data layout.
const (
	AppName        = "nirvanamm"
	ModsSubdir     = "mods"
	OriginFileName = "origin.zip"
	ConfigFileName = "config.toml"
	SettingsFile   = "settings.toml"
	StagingSubdir  = "staging"
	LogFileName    = "nirvanamm.log"
)
