// Package audit provides the append-only audit trail for retention
// operations. Entries record who fired which retention event with what
// input, and which rules were attached or unattached.
//
// Two backends are available: an in-memory logger for tests and a SQLite
// logger for single-node deployments.
package audit
