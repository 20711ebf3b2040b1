package document

import (
	"testing"
	"time"
)

var now = time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC)

func TestIsUnderRetentionOrLegalHold(t *testing.T) {
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	tests := []struct {
		name string
		doc  Document
		want bool
	}{
		{"plain document", Document{}, false},
		{"legal hold", Document{LegalHold: true}, true},
		{"indeterminate", Document{RetainUntil: &RetainUntilIndeterminate}, true},
		{"future retain until", Document{RetainUntil: &future}, true},
		{"past retain until", Document{RetainUntil: &past}, false},
		{"expired but held", Document{RetainUntil: &past, LegalHold: true}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.doc.IsUnderRetentionOrLegalHold(now); got != tt.want {
				t.Errorf("IsUnderRetentionOrLegalHold() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsRetentionExpired(t *testing.T) {
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	tests := []struct {
		name string
		doc  Document
		want bool
	}{
		{"no retention", Document{}, false},
		{"indeterminate never expires", Document{RetainUntil: &RetainUntilIndeterminate}, false},
		{"future", Document{RetainUntil: &future}, false},
		{"past", Document{RetainUntil: &past}, true},
		{"exactly now", Document{RetainUntil: &now}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.doc.IsRetentionExpired(now); got != tt.want {
				t.Errorf("IsRetentionExpired() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSetRetainUntilRecordsSaved(t *testing.T) {
	doc := &Document{}

	doc.SetRetainUntil(now)
	if doc.RetainUntil == nil || !doc.RetainUntil.Equal(now) {
		t.Fatalf("RetainUntil = %v, want %v", doc.RetainUntil, now)
	}
	if doc.SavedRetainUntil == nil || !doc.SavedRetainUntil.Equal(now) {
		t.Errorf("SavedRetainUntil = %v, want %v", doc.SavedRetainUntil, now)
	}

	// Indeterminate retention does not overwrite the saved value.
	doc.SetRetainUntil(RetainUntilIndeterminate)
	if !doc.IsRetentionIndeterminate() {
		t.Error("IsRetentionIndeterminate() = false after setting sentinel")
	}
	if doc.SavedRetainUntil == nil || !doc.SavedRetainUntil.Equal(now) {
		t.Errorf("SavedRetainUntil = %v, want preserved %v", doc.SavedRetainUntil, now)
	}

	// Clearing preserves the saved value for audit.
	doc.ClearRetainUntil()
	if doc.RetainUntil != nil {
		t.Error("RetainUntil not cleared")
	}
	if doc.SavedRetainUntil == nil {
		t.Error("SavedRetainUntil lost on clear")
	}
}

func TestDateProperty(t *testing.T) {
	doc := &Document{Properties: map[string]any{
		"dc:expired": now,
		"dc:title":   "contract",
		"dc:cleared": nil,
	}}

	if _, exists, _ := doc.DateProperty("dc:missing"); exists {
		t.Error("missing field reported as existing")
	}
	if _, _, isDate := doc.DateProperty("dc:title"); isDate {
		t.Error("string field reported as date-typed")
	}
	if v, exists, isDate := doc.DateProperty("dc:cleared"); !exists || !isDate || !v.IsZero() {
		t.Errorf("nil field = (%v, %v, %v), want (zero, true, true)", v, exists, isDate)
	}
	if v, _, isDate := doc.DateProperty("dc:expired"); !isDate || !v.Equal(now) {
		t.Errorf("date field = (%v, %v)", v, isDate)
	}
}

func TestCloneIsDetached(t *testing.T) {
	doc := &Document{
		ID:         "doc-1",
		Properties: map[string]any{"dc:title": "original"},
	}
	doc.SetRetainUntil(now)

	clone := doc.Clone()
	clone.Properties["dc:title"] = "mutated"
	*clone.RetainUntil = now.Add(time.Hour)

	if doc.Properties["dc:title"] != "original" {
		t.Error("clone shares the properties map")
	}
	if !doc.RetainUntil.Equal(now) {
		t.Error("clone shares the retain-until pointer")
	}
}
