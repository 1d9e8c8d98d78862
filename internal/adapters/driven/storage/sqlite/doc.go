// Package sqlite provides a unified SQLite-based implementation of driven port interfaces.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO. It implements multiple store interfaces through a single database:
//
//   - DocumentStore: Document and chunk persistence
//   - TagStore: Append-only keyword tags
//   - ClusterStore: The current clustering result
//   - EmailCredentialStore: Mailbox accounts with encrypted passwords
//   - ProjectStore, ChatStore: Projects, checklists and chat history
//   - SchedulerStore: Background task state and history
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Applied versions are recorded in schema_migrations.
//
// # Data Location
//
// Each named database keeps its file at <home>/databases/<name>/promethean.db.
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking provided
// by SQLite in WAL mode.
package sqlite
