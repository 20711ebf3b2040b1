package audit

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func TestNewEntry(t *testing.T) {
	entry := NewEntry("retentionRuleAttached", "mdoe", "rule=contracts-10y")

	if entry.ID == "" {
		t.Error("ID not generated")
	}
	if entry.EventID != "retentionRuleAttached" {
		t.Errorf("EventID = %q", entry.EventID)
	}
	if entry.Category != EventCategory {
		t.Errorf("Category = %q, want %q", entry.Category, EventCategory)
	}
	if entry.Principal != "mdoe" || entry.Comment != "rule=contracts-10y" {
		t.Errorf("Principal/Comment = %q/%q", entry.Principal, entry.Comment)
	}
	if entry.EventDate.IsZero() {
		t.Error("EventDate not set")
	}

	if other := NewEntry("x", "y", ""); other.ID == entry.ID {
		t.Error("two entries share an id")
	}
}

func TestMemoryAppend(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	for _, event := range []string{"retentionRuleAttached", "retentionExpired"} {
		if err := m.Append(ctx, NewEntry(event, "system", "")); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}

	entries := m.Entries()
	if len(entries) != 2 {
		t.Fatalf("len(Entries()) = %d, want 2", len(entries))
	}
	if entries[0].EventID != "retentionRuleAttached" || entries[1].EventID != "retentionExpired" {
		t.Errorf("entries out of order: %v, %v", entries[0].EventID, entries[1].EventID)
	}

	// Entries returns a copy.
	entries[0].EventID = "mutated"
	if m.Entries()[0].EventID == "mutated" {
		t.Error("Entries() exposes internal state")
	}
}

func TestSQLiteAppendAndSince(t *testing.T) {
	log, err := NewSQLite(filepath.Join(t.TempDir(), "audit.db"))
	if err != nil {
		t.Fatalf("NewSQLite() error = %v", err)
	}
	defer log.Close()

	ctx := context.Background()
	base := time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC)

	old := NewEntry("retentionRuleAttached", "mdoe", "rule=contracts-10y")
	old.EventDate = base.Add(-time.Hour)
	old.DocumentID = "doc-1"
	recent := NewEntry("retentionExpired", "system", "")
	recent.EventDate = base.Add(time.Hour)

	for _, e := range []Entry{old, recent} {
		if err := log.Append(ctx, e); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}

	all, err := log.Since(ctx, base.Add(-2*time.Hour))
	if err != nil {
		t.Fatalf("Since() error = %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("len(Since(all)) = %d, want 2", len(all))
	}
	if all[0].EventID != "retentionRuleAttached" || all[0].DocumentID != "doc-1" {
		t.Errorf("oldest entry = %+v", all[0])
	}
	if !all[0].EventDate.Equal(old.EventDate) {
		t.Errorf("EventDate = %v, want %v", all[0].EventDate, old.EventDate)
	}

	late, err := log.Since(ctx, base)
	if err != nil {
		t.Fatal(err)
	}
	if len(late) != 1 || late[0].EventID != "retentionExpired" {
		t.Errorf("Since(base) = %v, want only the recent entry", late)
	}
}
