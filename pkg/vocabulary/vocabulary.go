package vocabulary

import (
	"context"
	"sort"
	"sync"
)

// Entry is one trigger-event identifier in the directory.
type Entry struct {
	// ID is the event identifier, e.g. "retention.contractEnd".
	ID string

	// Label is a human-readable description.
	Label string

	// Obsolete hides the entry from the accepted-events list without
	// breaking rules that still reference it.
	Obsolete bool
}

// Directory enumerates accepted retention trigger events.
type Directory interface {
	// AcceptedEvents returns the ids of all non-obsolete entries.
	AcceptedEvents(ctx context.Context) ([]string, error)
}

// Memory is an in-memory Directory.
type Memory struct {
	entries map[string]Entry
	mu      sync.RWMutex
}

// NewMemory creates an empty in-memory directory.
func NewMemory() *Memory {
	return &Memory{entries: make(map[string]Entry)}
}

// Add inserts or replaces an entry.
func (m *Memory) Add(e Entry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[e.ID] = e
}

// MarkObsolete flags an entry as obsolete if it exists.
func (m *Memory) MarkObsolete(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.entries[id]; ok {
		e.Obsolete = true
		m.entries[id] = e
	}
}

// AcceptedEvents returns the ids of all non-obsolete entries, sorted.
func (m *Memory) AcceptedEvents(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var ids []string
	for _, e := range m.entries {
		if !e.Obsolete {
			ids = append(ids, e.ID)
		}
	}
	sort.Strings(ids)
	return ids, nil
}
