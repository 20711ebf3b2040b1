package audit

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// EventCategory is the audit category for retention events.
const EventCategory = "Retention"

// Entry is one append-only audit record.
type Entry struct {
	// ID is the entry identifier (UUID).
	ID string

	// EventID is the name of the audited event.
	EventID string

	// EventDate is when the audited event occurred.
	EventDate time.Time

	// Category groups entries, e.g. "Retention".
	Category string

	// Principal is the name of the acting user.
	Principal string

	// DocumentID is the affected document, if any.
	DocumentID string

	// Comment carries free-form context, e.g. the retention event input.
	Comment string
}

// Logger appends audit entries.
type Logger interface {
	Append(ctx context.Context, entry Entry) error
}

// NewEntry builds an entry with a fresh id and the current time.
func NewEntry(eventID, principal, comment string) Entry {
	return Entry{
		ID:        uuid.NewString(),
		EventID:   eventID,
		EventDate: time.Now(),
		Category:  EventCategory,
		Principal: principal,
		Comment:   comment,
	}
}

// Memory is an in-memory Logger for tests.
type Memory struct {
	mu      sync.RWMutex
	entries []Entry
}

// NewMemory creates an empty in-memory audit logger.
func NewMemory() *Memory {
	return &Memory{}
}

// Append stores the entry.
func (m *Memory) Append(ctx context.Context, entry Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entry)
	return nil
}

// Entries returns a copy of all appended entries, oldest first.
func (m *Memory) Entries() []Entry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Entry, len(m.entries))
	copy(out, m.entries)
	return out
}
