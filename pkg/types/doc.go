// Package types holds the small interfaces shared across nirvanamm's
// packages, chiefly the filesystem abstraction that lets the engine run
// against the real disk or an in-memory tree.
package types
