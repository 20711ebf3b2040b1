package retention

import (
	"context"
	"sort"
	"sync"
)

// MemoryRuleStore implements RuleStore with an in-memory map. It is used in
// tests and as the backing store behind the file-based rule source.
type MemoryRuleStore struct {
	rules map[string]*Rule
	mu    sync.RWMutex
}

// NewMemoryRuleStore creates an empty in-memory rule store.
func NewMemoryRuleStore() *MemoryRuleStore {
	return &MemoryRuleStore{rules: make(map[string]*Rule)}
}

// Put validates and stores a rule, replacing any previous definition with
// the same id.
func (s *MemoryRuleStore) Put(rule *Rule) error {
	if err := rule.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *rule
	s.rules[rule.ID] = &c
	return nil
}

// Delete removes a rule. Records referencing it keep their dangling weak
// reference; resolution simply yields no rule.
func (s *MemoryRuleStore) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rules, id)
}

// Replace swaps the entire rule set, used by the file source on reload.
func (s *MemoryRuleStore) Replace(rules []*Rule) {
	next := make(map[string]*Rule, len(rules))
	for _, r := range rules {
		c := *r
		next[r.ID] = &c
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rules = next
}

// Get resolves a rule by id.
func (s *MemoryRuleStore) Get(ctx context.Context, id string) (*Rule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rule, ok := s.rules[id]
	if !ok {
		return nil, &RuleNotFoundError{ID: id}
	}
	c := *rule
	return &c, nil
}

// List returns all rules ordered by id.
func (s *MemoryRuleStore) List(ctx context.Context) ([]*Rule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Rule, 0, len(s.rules))
	for _, r := range s.rules {
		c := *r
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// EventBasedRuleIDs returns ids of enabled event-based rules listening for
// the given event.
func (s *MemoryRuleStore) EventBasedRuleIDs(ctx context.Context, eventName string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var ids []string
	for _, r := range s.rules {
		if r.Enabled && r.IsEventBased() && r.StartingPointEvent == eventName {
			ids = append(ids, r.ID)
		}
	}
	sort.Strings(ids)
	return ids, nil
}
