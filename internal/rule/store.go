package rule

import (
	"fmt"
	"sort"
	"time"
)

// Store is the in-memory keyed collection holding one loaded rule set.
// It is the source of truth for a single load cycle: the loader and the
// sync manager replace its contents, versioning appends changelog entries,
// and every other component reads it through derived views.
//
// The store itself takes no locks. A load/merge/sync cycle runs to
// completion before the store is exposed for querying; serializing access
// is the owning manager's job.
type Store struct {
	rules map[string]*Rule
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{rules: make(map[string]*Rule)}
}

// Add inserts a rule. Adding a duplicate id is an error; same-id collisions
// are the merger's business, not the store's.
func (s *Store) Add(r *Rule) error {
	if r == nil {
		return fmt.Errorf("cannot add nil rule")
	}
	if _, exists := s.rules[r.ID]; exists {
		return fmt.Errorf("rule %q already exists in store", r.ID)
	}
	s.rules[r.ID] = r
	return nil
}

// Get returns the rule with the given id, or nil if absent.
func (s *Store) Get(id string) *Rule {
	return s.rules[id]
}

// Has reports whether a rule with the given id is present.
func (s *Store) Has(id string) bool {
	_, ok := s.rules[id]
	return ok
}

// Put inserts or overwrites a rule and stamps Updated. Reserved for the
// loader and the sync manager.
func (s *Store) Put(r *Rule) {
	if r == nil {
		return
	}
	r.Updated = time.Now().UTC().Format(time.RFC3339)
	s.rules[r.ID] = r
}

// Remove deletes a rule by id. Removing an absent id is a no-op.
func (s *Store) Remove(id string) {
	delete(s.rules, id)
}

// Len returns the number of rules in the store.
func (s *Store) Len() int {
	return len(s.rules)
}

// All returns every rule sorted by id. Sorted iteration keeps downstream
// output (search ties, merge reports, sync formatting) deterministic.
func (s *Store) All() []*Rule {
	out := make([]*Rule, 0, len(s.rules))
	for _, r := range s.rules {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Replace swaps the full contents for the given rules. Later duplicates of
// the same id win; the merger is expected to have resolved collisions first.
func (s *Store) Replace(rules []*Rule) {
	s.rules = make(map[string]*Rule, len(rules))
	for _, r := range rules {
		if r != nil {
			s.rules[r.ID] = r
		}
	}
}
