package document

import (
	"context"
	"fmt"
	"time"
)

// SaveOptions controls side effects of a single Save call. The zero value
// keeps all platform listeners enabled.
type SaveOptions struct {
	// DisableSideEffects suppresses automatic versioning, notification,
	// audit logging, and auto-checkout for this mutation. Used by
	// unattach, which is a bulk state transition rather than a document
	// edit.
	DisableSideEffects bool
}

// SaveOption customizes a Save call.
type SaveOption func(*SaveOptions)

// WithoutSideEffects disables downstream listeners for a single save.
func WithoutSideEffects() SaveOption {
	return func(o *SaveOptions) { o.DisableSideEffects = true }
}

// NotFoundError is returned when a document id does not resolve.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("document %q not found", e.ID)
}

// Repository is the document store boundary. Implementations must provide
// their own transactional isolation for Get/Save pairs; the retention
// engine adds no locking of its own.
type Repository interface {
	// Get loads a document snapshot by id. Returns *NotFoundError if the
	// id does not resolve.
	Get(ctx context.Context, id string) (*Document, error)

	// Save persists a document snapshot.
	Save(ctx context.Context, doc *Document, opts ...SaveOption) error

	// RecordIDsByRules returns the ids of records whose attached rule is
	// in the given set. An empty set yields no ids.
	RecordIDsByRules(ctx context.Context, ruleIDs []string) ([]string, error)

	// ExpiredRecordIDs returns the ids of records whose concrete
	// retain-until value has passed as of the given instant. Records with
	// indeterminate or unset retention are never returned.
	ExpiredRecordIDs(ctx context.Context, asOf time.Time) ([]string, error)
}
