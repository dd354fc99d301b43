// Package sqlite provides an SQLite-backed entity driver.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. Every entity type shares a single
// table through one database connection; NewDriver returns the typed view of
// the Store for one entity type.
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Entities are stored as JSON payloads alongside the
// columns needed for lookups: uuid, owner, hash and created.
//
// # Data Location
//
// By default, the database is stored at ~/.trakhound/data/entities.db
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking provided
// by SQLite in WAL mode.
package sqlite
