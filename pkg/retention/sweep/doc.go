// Package sweep implements the scheduled expiration sweep: the component
// that detects records whose retention has ended and triggers their end
// actions through the engine.
//
// The engine does not track an "already processed" flag for expirations, so
// the sweeper keeps a per-cycle seen set keyed by record id and retain-until
// value. Invocation is therefore at-most-once per expiration per process
// lifetime, not globally; end actions stay idempotent regardless.
package sweep
