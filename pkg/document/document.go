package document

import (
	"maps"
	"time"
)

// RetainUntilIndeterminate is the sentinel retain-until value for documents
// retained with no known end date, pending a future triggering event.
// Comparisons must use Time.Equal, never ==.
var RetainUntilIndeterminate = time.Date(9999, time.December, 31, 23, 59, 59, 0, time.UTC)

// Document is the retention-relevant projection of a platform document.
// It is a detached snapshot: mutating it has no effect until it is passed
// back to Repository.Save.
type Document struct {
	// ID is the platform identifier of the document (UUID).
	ID string

	// Type is the document kind ("File", "Note", "Workspace", ...).
	// Retention rules may restrict the kinds they accept.
	Type string

	// Path is the hierarchical path of the document, informational only.
	Path string

	// Title is the display title of the document.
	Title string

	// Properties holds the addressable metadata fields of the document,
	// keyed by prefixed name (for example "dc:expired"). Values are
	// strings, numbers, booleans, or time.Time for date-typed fields.
	Properties map[string]any

	// Record reports whether the document is marked immutable/record.
	Record bool

	// Flexible distinguishes flexible records (retention can later be
	// unattached) from enforced records. Meaningful only when Record.
	Flexible bool

	// RetainUntil is nil, RetainUntilIndeterminate, or a concrete end
	// instant. See the package documentation.
	RetainUntil *time.Time

	// SavedRetainUntil keeps the last concrete retain-until that was set,
	// readable after expiration for audit purposes.
	SavedRetainUntil *time.Time

	// LegalHold is an independent retention lock unrelated to rule-driven
	// expiration.
	LegalHold bool

	// HoldDescription is an optional reason recorded when the legal hold
	// was placed.
	HoldDescription string

	// RuleID is the identifier of the retention rule that produced the
	// current retention, empty when no rule is attached. It is a weak
	// reference: the rule is resolved on demand and may have been deleted.
	RuleID string

	// Locked reports whether the document is locked in the platform.
	Locked bool

	// Trashed reports whether the document has been moved to the trash.
	Trashed bool
}

// Clone returns a deep copy of the document. Evaluation code works on
// clones so condition expressions can never mutate live repository state.
func (d *Document) Clone() *Document {
	c := *d
	c.Properties = maps.Clone(d.Properties)
	if d.RetainUntil != nil {
		t := *d.RetainUntil
		c.RetainUntil = &t
	}
	if d.SavedRetainUntil != nil {
		t := *d.SavedRetainUntil
		c.SavedRetainUntil = &t
	}
	return &c
}

// IsRetentionIndeterminate reports whether the document is retained with no
// known end date.
func (d *Document) IsRetentionIndeterminate() bool {
	return d.RetainUntil != nil && d.RetainUntil.Equal(RetainUntilIndeterminate)
}

// IsUnderRetentionOrLegalHold reports whether the document must not be
// modified or deleted as of now: it is under legal hold, indeterminate
// retention, or a concrete retain-until that has not passed.
func (d *Document) IsUnderRetentionOrLegalHold(now time.Time) bool {
	if d.LegalHold {
		return true
	}
	if d.RetainUntil == nil {
		return false
	}
	if d.IsRetentionIndeterminate() {
		return true
	}
	return now.Before(*d.RetainUntil)
}

// IsRetentionExpired reports whether the document had a concrete
// retain-until that has passed. Never true for unset or indeterminate
// retention.
func (d *Document) IsRetentionExpired(now time.Time) bool {
	if d.RetainUntil == nil || d.IsRetentionIndeterminate() {
		return false
	}
	return !now.Before(*d.RetainUntil)
}

// DateProperty returns the value of a date-typed property. The second
// return reports whether the field exists, the third whether it is
// date-typed. A present field holding nil is reported as (zero, true, true).
func (d *Document) DateProperty(name string) (time.Time, bool, bool) {
	v, ok := d.Properties[name]
	if !ok {
		return time.Time{}, false, false
	}
	if v == nil {
		return time.Time{}, true, true
	}
	t, isDate := v.(time.Time)
	return t, true, isDate
}

// SetRetainUntil sets the retain-until value and, for concrete instants,
// records it as SavedRetainUntil.
func (d *Document) SetRetainUntil(until time.Time) {
	t := until
	d.RetainUntil = &t
	if !until.Equal(RetainUntilIndeterminate) {
		saved := until
		d.SavedRetainUntil = &saved
	}
}

// ClearRetainUntil removes rule-driven retention from the document.
// SavedRetainUntil is intentionally preserved.
func (d *Document) ClearRetainUntil() {
	d.RetainUntil = nil
}
