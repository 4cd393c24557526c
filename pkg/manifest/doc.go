// Package manifest parses the mod.toml document shipped in every mod
// archive and implements the version and dependency matching rules that
// the rest of nirvanamm builds on.
//
// A manifest looks like:
//
//	manifest = 1
//
//	[metadata]
//	name = "Better Music"
//	guid = "better-music"
//	author = "someone"
//	version = "1.2.0"
//	depends = ["core-lib:1.0", { guid = "hd-sprites", version = ">=2.0.0", soft = true }]
//
// Versions are strict semantic versions. Ranges follow cargo rules: a bare
// version means caret, so "1.0" accepts any 1.x release.
package manifest
