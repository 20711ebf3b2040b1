// Package storage provides document.Repository implementations.
//
// Two backends are available:
//
//   - MemoryRepository: in-memory map, intended for tests
//   - SQLiteRepository: embedded single-node persistence with WAL mode
//
// Both backends hand out detached snapshots: mutations only take effect
// through Save, matching the session-scoped evaluation model of the
// retention engine.
package storage
