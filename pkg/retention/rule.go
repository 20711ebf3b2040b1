package retention

import (
	"context"
	"fmt"
	"time"
)

// ApplicationPolicy describes how a rule gets applied to documents.
type ApplicationPolicy string

const (
	// ApplyManual is the only supported application policy: rules are
	// attached to documents one by one by an authorized actor.
	ApplyManual ApplicationPolicy = "manual"

	// ApplyAuto is reserved for bulk-matched automatic attachment, which
	// is not implemented.
	ApplyAuto ApplicationPolicy = "auto"
)

// StartingPointPolicy decides how the retention end date is computed when a
// rule is attached.
type StartingPointPolicy string

const (
	StartImmediate     StartingPointPolicy = "immediate"
	StartAfterDelay    StartingPointPolicy = "after_delay"
	StartEventBased    StartingPointPolicy = "event_based"
	StartMetadataBased StartingPointPolicy = "metadata_based"
)

// Rule is an immutable-once-published retention policy definition.
type Rule struct {
	// ID is the rule identifier (UUID). Records reference rules by id.
	ID string `yaml:"id"`

	// Name is a short human-readable label.
	Name string `yaml:"name"`

	// Description documents the rule's intent.
	Description string `yaml:"description"`

	// ApplicationPolicy is how the rule gets applied. Only ApplyManual is
	// supported.
	ApplicationPolicy ApplicationPolicy `yaml:"application_policy"`

	// StartingPointPolicy selects the attach-time retention computation.
	StartingPointPolicy StartingPointPolicy `yaml:"starting_point_policy"`

	// Duration components, combined additively to compute the retention
	// end from a starting instant. All must be non-negative.
	DurationYears   int `yaml:"duration_years"`
	DurationMonths  int `yaml:"duration_months"`
	DurationDays    int `yaml:"duration_days"`
	DurationHours   int `yaml:"duration_hours"`
	DurationMinutes int `yaml:"duration_minutes"`
	DurationMillis  int `yaml:"duration_millis"`

	// DocTypes is the set of accepted document kinds. Empty accepts all.
	DocTypes []string `yaml:"doc_types"`

	// MetadataXPath names the date-typed field read by metadata-based
	// rules. Required when StartingPointPolicy is StartMetadataBased.
	MetadataXPath string `yaml:"metadata_xpath"`

	// StartingPointEvent is the event name an event-based rule listens
	// for. The match is exact.
	StartingPointEvent string `yaml:"starting_point_event"`

	// StartingPointValue triggers an event-based rule when the event
	// input equals it exactly. Mutually exclusive with
	// StartingPointExpression.
	StartingPointValue string `yaml:"starting_point_value"`

	// StartingPointExpression is a boolean condition evaluated against
	// the record with currentDate and eventInput bound. An empty
	// expression matches any input.
	StartingPointExpression string `yaml:"starting_point_expression"`

	// BeginActions are action ids run, in order, when the rule is
	// attached.
	BeginActions []string `yaml:"begin_actions"`

	// EndActions are action ids run, in order, when retention expires.
	// End actions must be idempotent.
	EndActions []string `yaml:"end_actions"`

	// MakeFlexibleRecords selects the record kind produced by attach:
	// flexible (detachable) when true, enforced (permanent) otherwise.
	MakeFlexibleRecords bool `yaml:"make_flexible_records"`

	// Enabled gates attachment. Disabled rules cannot be attached.
	Enabled bool `yaml:"enabled"`
}

// IsImmediate reports whether the rule starts retention at attach time.
func (r *Rule) IsImmediate() bool { return r.StartingPointPolicy == StartImmediate }

// IsAfterDelay reports whether the rule uses the reserved, unsupported
// delayed starting point.
func (r *Rule) IsAfterDelay() bool { return r.StartingPointPolicy == StartAfterDelay }

// IsEventBased reports whether the rule starts retention on an event.
func (r *Rule) IsEventBased() bool { return r.StartingPointPolicy == StartEventBased }

// IsMetadataBased reports whether the rule starts retention from a date
// field of the document.
func (r *Rule) IsMetadataBased() bool { return r.StartingPointPolicy == StartMetadataBased }

// AcceptsDocType reports whether the rule accepts the given document kind.
// An empty filter accepts everything.
func (r *Rule) AcceptsDocType(docType string) bool {
	if len(r.DocTypes) == 0 {
		return true
	}
	for _, t := range r.DocTypes {
		if t == docType {
			return true
		}
	}
	return false
}

// RetainUntilFrom computes the retention end by applying the rule duration
// to the given starting instant. Calendar components use calendar
// arithmetic; sub-day components are exact.
func (r *Rule) RetainUntilFrom(start time.Time) time.Time {
	t := start.AddDate(r.DurationYears, r.DurationMonths, r.DurationDays)
	t = t.Add(time.Duration(r.DurationHours) * time.Hour)
	t = t.Add(time.Duration(r.DurationMinutes) * time.Minute)
	t = t.Add(time.Duration(r.DurationMillis) * time.Millisecond)
	return t
}

// Validate checks the structural invariants of the rule definition.
func (r *Rule) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("rule id is required")
	}
	switch r.ApplicationPolicy {
	case ApplyManual:
	case ApplyAuto:
		return fmt.Errorf("rule %s: automatic application is not supported", r.ID)
	default:
		return fmt.Errorf("rule %s: unknown application policy %q", r.ID, r.ApplicationPolicy)
	}
	switch r.StartingPointPolicy {
	case StartImmediate, StartAfterDelay, StartEventBased, StartMetadataBased:
	default:
		return fmt.Errorf("rule %s: unknown starting point policy %q", r.ID, r.StartingPointPolicy)
	}
	for _, d := range []struct {
		name  string
		value int
	}{
		{"years", r.DurationYears},
		{"months", r.DurationMonths},
		{"days", r.DurationDays},
		{"hours", r.DurationHours},
		{"minutes", r.DurationMinutes},
		{"millis", r.DurationMillis},
	} {
		if d.value < 0 {
			return fmt.Errorf("rule %s: duration %s must be non-negative, got %d", r.ID, d.name, d.value)
		}
	}
	if r.IsMetadataBased() && r.MetadataXPath == "" {
		return fmt.Errorf("rule %s: metadata-based rule requires a metadata field", r.ID)
	}
	if r.IsEventBased() {
		if r.StartingPointEvent == "" {
			return fmt.Errorf("rule %s: event-based rule requires a starting point event", r.ID)
		}
		if r.StartingPointValue != "" && r.StartingPointExpression != "" {
			return fmt.Errorf("rule %s: starting point value and expression are mutually exclusive", r.ID)
		}
	}
	return nil
}

// RuleNotFoundError is returned when a rule id does not resolve.
type RuleNotFoundError struct {
	ID string
}

func (e *RuleNotFoundError) Error() string {
	return fmt.Sprintf("retention rule %q not found", e.ID)
}

// RuleStore is the rule persistence boundary. The engine resolves record
// rule references through it and the dispatcher uses the projection query
// to narrow candidate rules per event.
type RuleStore interface {
	// Get resolves a rule by id. Returns *RuleNotFoundError if the id
	// does not resolve.
	Get(ctx context.Context, id string) (*Rule, error)

	// List returns all known rules.
	List(ctx context.Context) ([]*Rule, error)

	// EventBasedRuleIDs returns the ids of enabled event-based rules
	// whose starting point event equals the given name.
	EventBasedRuleIDs(ctx context.Context, eventName string) ([]string, error)
}
