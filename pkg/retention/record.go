package retention

import (
	"context"
	"time"

	"custodia-hq/saturn/pkg/document"
)

// RecordKind distinguishes detachable records from permanent ones.
type RecordKind string

const (
	// KindFlexible records can have their rule and retention unattached.
	KindFlexible RecordKind = "flexible"

	// KindEnforced records keep their retention permanently.
	KindEnforced RecordKind = "enforced"
)

// Record is the retention view over a document marked immutable. It is a
// thin adapter: all state lives on the underlying document snapshot.
type Record struct {
	doc *document.Document
}

// AsRecord adapts a document into its record view. The document does not
// have to be record-marked yet; IsRecord tells callers whether it is.
func AsRecord(doc *document.Document) *Record {
	return &Record{doc: doc}
}

// Document returns the underlying document snapshot.
func (r *Record) Document() *document.Document { return r.doc }

// IsRecord reports whether the document carries the record marking.
func (r *Record) IsRecord() bool { return r.doc.Record }

// Kind returns the record kind set at attach time.
func (r *Record) Kind() RecordKind {
	if r.doc.Flexible {
		return KindFlexible
	}
	return KindEnforced
}

// RuleID returns the id of the attached rule, empty when none is attached.
func (r *Record) RuleID() string { return r.doc.RuleID }

// Rule resolves the attached rule through the store. Returns (nil, nil)
// when no rule is attached or the referenced rule no longer exists: a
// dangling weak reference is not an error.
func (r *Record) Rule(ctx context.Context, rules RuleStore) (*Rule, error) {
	if r.doc.RuleID == "" {
		return nil, nil
	}
	rule, err := rules.Get(ctx, r.doc.RuleID)
	if err != nil {
		if _, ok := err.(*RuleNotFoundError); ok {
			return nil, nil
		}
		return nil, err
	}
	return rule, nil
}

// IsRetentionIndeterminate reports whether the record is retained with no
// known end date.
func (r *Record) IsRetentionIndeterminate() bool {
	return r.doc.IsRetentionIndeterminate()
}

// IsRetentionExpired reports whether the record had a concrete retain-until
// that has passed.
func (r *Record) IsRetentionExpired(now time.Time) bool {
	return r.doc.IsRetentionExpired(now)
}

// IsUnderRetentionOrLegalHold reports whether the record is currently
// protected.
func (r *Record) IsUnderRetentionOrLegalHold(now time.Time) bool {
	return r.doc.IsUnderRetentionOrLegalHold(now)
}

// SavedRetainUntil returns the last concrete retain-until persisted on the
// record, still readable after expiration.
func (r *Record) SavedRetainUntil() *time.Time {
	return r.doc.SavedRetainUntil
}
