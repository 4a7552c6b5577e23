// Package repositories implements SQLite persistence for archive run history.
//
// [RunRepository] stores one row per run with atomic sequence generation for human-readable ordering. Runs support
// soft deletes via deleted_at timestamps and deleted records are excluded from queries by default.
//
// The history is a log, not a cache: archive decisions are always made against the remote account.
//
// The [NextSequence] function atomically increments per-table sequence counters in dedicated sequence tables.
package repositories
