// Package testutil provides utilities for testing nirvanamm components.
//
// Key components:
//   - ModBuilder: declarative mod archive builder (manifest + payload)
//   - WriteArchive: raw zip writer for malformed or unusual archives
//   - TestEnvironment: in-memory filesystem with a data dir and a game tree
//
// All test data is defined inline; archives are built in memory.
package testutil
