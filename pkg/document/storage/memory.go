package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"custodia-hq/saturn/pkg/document"
)

// MemoryRepository implements document.Repository using an in-memory map.
// This implementation is intended for testing only.
type MemoryRepository struct {
	docs map[string]*document.Document
	mu   sync.RWMutex
}

// NewMemoryRepository creates a new in-memory document repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		docs: make(map[string]*document.Document),
	}
}

// Get loads a detached snapshot of a document.
func (r *MemoryRepository) Get(ctx context.Context, id string) (*document.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	doc, ok := r.docs[id]
	if !ok {
		return nil, &document.NotFoundError{ID: id}
	}
	return doc.Clone(), nil
}

// Save persists a snapshot. Side-effect options are accepted and ignored:
// the memory backend has no downstream listeners.
func (r *MemoryRepository) Save(ctx context.Context, doc *document.Document, opts ...document.SaveOption) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.docs[doc.ID] = doc.Clone()
	return nil
}

// RecordIDsByRules returns ids of records attached to any of the given rules.
func (r *MemoryRepository) RecordIDsByRules(ctx context.Context, ruleIDs []string) ([]string, error) {
	if len(ruleIDs) == 0 {
		return nil, nil
	}
	rules := make(map[string]struct{}, len(ruleIDs))
	for _, id := range ruleIDs {
		rules[id] = struct{}{}
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var ids []string
	for _, doc := range r.docs {
		if !doc.Record || doc.RuleID == "" {
			continue
		}
		if _, ok := rules[doc.RuleID]; ok {
			ids = append(ids, doc.ID)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// ExpiredRecordIDs returns ids of records whose concrete retain-until has
// passed as of the given instant.
func (r *MemoryRepository) ExpiredRecordIDs(ctx context.Context, asOf time.Time) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var ids []string
	for _, doc := range r.docs {
		if doc.Record && doc.IsRetentionExpired(asOf) {
			ids = append(ids, doc.ID)
		}
	}
	sort.Strings(ids)
	return ids, nil
}
