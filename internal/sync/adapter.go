// Package sync keeps the canonical rule store and per-tool rule-file
// representations consistent: pull (import), push (export), diff, and
// bidirectional merge with field-level conflict surfacing.
//
// Platform specifics live behind the Adapter interface. The engine never
// inspects adapter internals, and the adapter set is an explicit Registry
// value handed to the Manager at construction — no ambient global state.
package sync

import (
	"context"
	"fmt"
	"sort"

	"github.com/mgalvez/rulekeeper/internal/rule"
)

// Adapter translates between the canonical rule model and one tool's
// native rule-file format. Read and Write touch the platform's storage
// (file, editor config, remote) and are the only I/O boundary in a sync.
type Adapter interface {
	// Name identifies the platform, e.g. "claude" or "cursor".
	Name() string
	// Read returns the platform's current rule text.
	Read(ctx context.Context) (string, error)
	// Parse extracts partial rule records from platform text. Platform
	// formats are typically lossy; absent fields stay zero and are filled
	// by Complete.
	Parse(text string) ([]PartialRule, error)
	// Format renders the full rule set in the platform's format.
	Format(rules []*rule.Rule) (string, error)
	// Write replaces the platform's rule text.
	Write(ctx context.Context, text string) error
}

// Registry maps platform names to adapters. It is a plain value injected
// into the Manager; callers construct one per configuration.
type Registry struct {
	adapters map[string]Adapter
}

// NewRegistry creates a registry holding the given adapters.
func NewRegistry(adapters ...Adapter) *Registry {
	r := &Registry{adapters: make(map[string]Adapter, len(adapters))}
	for _, a := range adapters {
		r.adapters[a.Name()] = a
	}
	return r
}

// Register adds or replaces an adapter.
func (r *Registry) Register(a Adapter) {
	r.adapters[a.Name()] = a
}

// Get returns the adapter for the platform, or an error naming the known
// platforms.
func (r *Registry) Get(platform string) (Adapter, error) {
	a, ok := r.adapters[platform]
	if !ok {
		return nil, fmt.Errorf("unknown platform %q: registered platforms: %v", platform, r.Names())
	}
	return a, nil
}

// Names returns the registered platform names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.adapters))
	for name := range r.adapters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
