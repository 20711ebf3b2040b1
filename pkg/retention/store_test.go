package retention

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

func eventRule(id, event string) *Rule {
	return &Rule{
		ID:                  id,
		ApplicationPolicy:   ApplyManual,
		StartingPointPolicy: StartEventBased,
		StartingPointEvent:  event,
		DurationDays:        30,
		Enabled:             true,
	}
}

func TestPutValidatesAndCopies(t *testing.T) {
	store := NewMemoryRuleStore()

	if err := store.Put(&Rule{ID: "bad", ApplicationPolicy: ApplyAuto, StartingPointPolicy: StartImmediate}); err == nil {
		t.Error("Put(invalid) error = nil, want validation error")
	}

	rule := validRule()
	if err := store.Put(rule); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	// Later mutation of the caller's rule must not reach the store.
	rule.Enabled = false
	got, err := store.Get(context.Background(), "contracts-10y")
	if err != nil {
		t.Fatal(err)
	}
	if !got.Enabled {
		t.Error("stored rule was mutated through the caller's pointer")
	}
}

func TestGetNotFound(t *testing.T) {
	store := NewMemoryRuleStore()
	_, err := store.Get(context.Background(), "missing")
	var notFound *RuleNotFoundError
	if !errors.As(err, &notFound) {
		t.Errorf("Get(missing) error = %v, want *RuleNotFoundError", err)
	}
}

func TestDeleteLeavesDanglingReference(t *testing.T) {
	store := NewMemoryRuleStore()
	if err := store.Put(validRule()); err != nil {
		t.Fatal(err)
	}

	store.Delete("contracts-10y")
	if _, err := store.Get(context.Background(), "contracts-10y"); err == nil {
		t.Error("Get after Delete error = nil, want not found")
	}
}

func TestReplaceSwapsRuleSet(t *testing.T) {
	store := NewMemoryRuleStore()
	if err := store.Put(validRule()); err != nil {
		t.Fatal(err)
	}

	store.Replace([]*Rule{eventRule("a", "e1"), eventRule("b", "e2")})

	rules, err := store.List(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	var ids []string
	for _, r := range rules {
		ids = append(ids, r.ID)
	}
	if want := []string{"a", "b"}; !reflect.DeepEqual(ids, want) {
		t.Errorf("List() ids = %v, want %v", ids, want)
	}
}

func TestEventBasedRuleIDs(t *testing.T) {
	store := NewMemoryRuleStore()
	disabled := eventRule("disabled", "retention.contractEnd")
	disabled.Enabled = false
	for _, r := range []*Rule{
		eventRule("b", "retention.contractEnd"),
		eventRule("a", "retention.contractEnd"),
		eventRule("other", "retention.caseClosed"),
		disabled,
		validRule(), // immediate, never projected
	} {
		if err := store.Put(r); err != nil {
			t.Fatal(err)
		}
	}

	ids, err := store.EventBasedRuleIDs(context.Background(), "retention.contractEnd")
	if err != nil {
		t.Fatalf("EventBasedRuleIDs() error = %v", err)
	}
	if want := []string{"a", "b"}; !reflect.DeepEqual(ids, want) {
		t.Errorf("EventBasedRuleIDs() = %v, want %v", ids, want)
	}
}
