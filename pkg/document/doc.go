// Package document defines the retention-relevant view of documents managed
// by the surrounding content platform, together with the Repository interface
// the retention engine uses to load, persist, and project them.
//
// # Documents and Records
//
// A Document carries only what retention governance needs: identity, type,
// addressable properties, the record marking (flexible or enforced), the
// retain-until value, legal hold, and lock/trash state. Content storage and
// versioning are out of scope and live behind the platform.
//
// The retain-until value has three shapes:
//
//   - nil: the document is not under rule-driven retention
//   - RetainUntilIndeterminate: retained forever until an event resolves it
//   - a concrete timestamp: retained until that instant
//
// # Repository
//
// The Repository interface is the single seam between the retention engine
// and the underlying document store. Besides Get/Save it exposes the two
// projection queries the asynchronous dispatcher depends on:
//
//   - RecordIDsByRules: records whose attached rule is in a given id set
//   - ExpiredRecordIDs: records whose concrete retain-until has passed
//
// Implementations live in the storage subpackage (in-memory for tests,
// SQLite for single-node deployments).
package document
