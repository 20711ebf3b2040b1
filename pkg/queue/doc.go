// Package queue provides the durable, at-least-once work queue behind the
// asynchronous retention evaluation pipeline.
//
// Producers submit batched units of work keyed by a batch kind plus a
// JSON-encodable parameter map; workers claim, process, and acknowledge
// them. A claimed task whose lease expires becomes claimable again, which
// gives at-least-once delivery — consumers must therefore be idempotent.
//
// Two implementations are provided: Memory for tests and SQLite for
// durable single-node deployments.
package queue
