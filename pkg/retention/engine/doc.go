// Package engine implements the retention rule evaluation engine.
//
// The Engine is the single orchestrator for the record retention lifecycle:
// it attaches and unattaches rules, fires retention events, evaluates
// event-based rules against records, and processes expired retention. Every
// operation enforces its authorization gate and state preconditions up
// front and fails with a typed error from the retention package; nothing is
// silently ignored except inside CanAttachRule, which is an explicit
// non-throwing probe.
//
// The engine holds no mutable state of its own beyond the lazily computed
// accepted-events cache. Each operation loads a fresh document snapshot,
// mutates it, and persists it through the document repository, relying on
// the repository's own transactional isolation.
package engine
