package retention

import "fmt"

// NotAuthorizedError is returned when the acting principal fails the
// authorization gate of an operation. It maps to a forbidden-style status.
type NotAuthorizedError struct {
	Principal string // principal name
	Operation string // "attach", "unattach", "fire-event", ...
}

func (e *NotAuthorizedError) Error() string {
	return fmt.Sprintf("user %q is not authorized to %s", e.Principal, e.Operation)
}

// RuleDisabledError is returned when attaching a disabled rule.
type RuleDisabledError struct {
	RuleID string
}

func (e *RuleDisabledError) Error() string {
	return fmt.Sprintf("rule %s is disabled", e.RuleID)
}

// DocTypeRejectedError is returned when a rule's document type filter does
// not accept the target document.
type DocTypeRejectedError struct {
	RuleID  string
	DocType string
}

func (e *DocTypeRejectedError) Error() string {
	return fmt.Sprintf("rule %s does not accept document type %q", e.RuleID, e.DocType)
}

// InvalidMetadataFieldError is returned when a metadata-based rule
// references a missing or non-date field.
type InvalidMetadataFieldError struct {
	XPath  string
	Reason string // "not found" or "not a date field"
}

func (e *InvalidMetadataFieldError) Error() string {
	return fmt.Sprintf("metadata field %q: %s", e.XPath, e.Reason)
}

// AlreadyRetainedError is returned when attaching onto a document already
// under retention or legal hold.
type AlreadyRetainedError struct {
	DocumentID string
}

func (e *AlreadyRetainedError) Error() string {
	return fmt.Sprintf("document %s is already under retention or legal hold", e.DocumentID)
}

// RecordKindConflictError is returned when a rule's record kind is
// incompatible with the document's existing record kind.
type RecordKindConflictError struct {
	DocumentID string
	RecordKind RecordKind
	RuleKind   RecordKind
}

func (e *RecordKindConflictError) Error() string {
	return fmt.Sprintf("document %s is an %s record, rule produces %s records",
		e.DocumentID, e.RecordKind, e.RuleKind)
}

// NotFlexibleRecordError is returned by unattach when the target is not a
// flexible record. This is a validation failure, distinct from
// authorization.
type NotFlexibleRecordError struct {
	DocumentID string
}

func (e *NotFlexibleRecordError) Error() string {
	return fmt.Sprintf("document %s is not a flexible record", e.DocumentID)
}

// InvalidInputError is returned when a retention event input does not match
// the restricted input syntax.
type InvalidInputError struct {
	Input string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid retention event input %q", e.Input)
}

// UnsupportedError is returned for reserved behavior that must fail
// explicitly rather than silently no-op, such as the after-delay starting
// point.
type UnsupportedError struct {
	Feature string
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("%s is not implemented", e.Feature)
}

// ActionExecutionError wraps the failure of a begin or end action with the
// failing action's identifier.
type ActionExecutionError struct {
	ActionID string
	Cause    error
}

func (e *ActionExecutionError) Error() string {
	return fmt.Sprintf("action %q failed: %v", e.ActionID, e.Cause)
}

func (e *ActionExecutionError) Unwrap() error {
	return e.Cause
}
