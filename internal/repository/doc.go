// Package repository defines the discovery history interfaces for voicescout.
//
// The history remembers every server that was ever verified so that later
// discovery calls can use them as seeds, plus a summary row per discovery run.
// The engine itself never reads the history; outer surfaces do.
//
// # SQLite Implementation
//
// The sqlite subpackage implements Store on modernc.org/sqlite with WAL mode.
// The schema is created idempotently on open, and tests run against
// in-memory databases.
package repository
