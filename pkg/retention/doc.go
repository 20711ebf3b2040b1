// Package retention defines the retention domain model: retention rules,
// the record view over documents, the rule store boundary, and the error
// taxonomy shared by all retention operations.
//
// # Rules
//
// A Rule is a named, reusable retention policy definition. Once published it
// is treated as immutable; records reference it by id only (a weak
// reference), so deleting or editing a rule never corrupts record state.
//
// The rule's starting point decides how the retention end date is computed
// at attach time:
//
//   - StartImmediate: end = now + rule duration
//   - StartAfterDelay: reserved, deterministically unsupported
//   - StartEventBased: indeterminate until a matching event arrives
//   - StartMetadataBased: end = date field value + rule duration
//
// # Records
//
// Record adapts a document marked immutable into its retention view. The
// record kind (flexible or enforced) is fixed at attach time: flexible
// records can later be unattached, enforced records cannot.
//
// # Errors
//
// Every precondition failure maps to a distinguishable typed error
// (NotAuthorizedError, RuleDisabledError, AlreadyRetainedError, ...) so
// callers can translate them to user-facing statuses with errors.As.
package retention
