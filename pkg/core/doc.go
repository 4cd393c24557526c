// Package core wires the engine together into user-level actions.
//
// A Manager owns the persisted AppConfig, the mod catalog and the origin
// snapshot. Long actions (apply, prepare, reset, purge) run through a
// single session.Executor, so at most one of them is ever in flight; the
// worker gets its own copy of the config and the Manager adopts the copy
// it hands back.
package core
