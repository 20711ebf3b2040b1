// Package actions runs the ordered begin/end action sequences of retention
// rules against documents.
//
// Actions are opaque named operations registered on the Executor. The
// executor adds the idempotence guards the reserved identifiers need: a
// lock on an already-locked document is skipped, an unlock on an unlocked
// document is skipped, and a trash or delete first removes any existing
// lock. Any other failure aborts the remaining sequence and surfaces as
// *retention.ActionExecutionError carrying the failing action id.
//
// Execution is non-committing: an action persists exactly the side effects
// it performs itself, nothing more.
package actions
