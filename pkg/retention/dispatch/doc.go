// Package dispatch implements the asynchronous evaluation pipeline that
// connects platform events to the retention engine.
//
// The pipeline has two stages. The Dispatcher is the synchronous fast
// classifier: it listens on the event bus and, for each retention event,
// narrows the candidate set to the ids of enabled event-based rules
// listening for that event, then submits a single batched task to the work
// queue. Submission is fire-and-forget; retry is the queue's concern.
//
// The Pool is the consumer: a fixed set of workers claims tasks, expands
// rule ids to the records referencing them, and invokes the engine per
// record. Records are evaluated strictly independently; a failing record
// does not abort its batch.
package dispatch
