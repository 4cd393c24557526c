// Package paths provides centralized path handling for nirvanamm.
// It resolves the application-data layout on top of the XDG base
// directories, with environment overrides for each root.
package paths
