package sync

import (
	"context"
	"fmt"
	"sort"

	"github.com/mgalvez/rulekeeper/internal/rule"
	"github.com/mgalvez/rulekeeper/internal/version"
)

// Direction selects what a full sync performs.
type Direction string

const (
	DirectionPull Direction = "pull"
	DirectionPush Direction = "push"
	DirectionBoth Direction = "both"
)

// Resolution is a per-field conflict decision.
type Resolution string

const (
	ResolveLocal  Resolution = "local"  // keep the local value
	ResolveRemote Resolution = "remote" // take the platform value
	ResolveMerge  Resolution = "merge"  // structural merge; arrays union, scalars stay unresolved
	ResolveSkip   Resolution = "skip"   // leave both sides, resurface next sync
	ResolveManual Resolution = "manual" // leave the whole set for an external decision
)

// Conflict is one field-level divergence between a local rule and its
// platform counterpart. Resolution stays empty until decided.
type Conflict struct {
	RuleID        string     `json:"ruleId"`
	Field         string     `json:"field"`
	LocalVersion  string     `json:"localVersion"`
	RemoteVersion string     `json:"remoteVersion"`
	LocalValue    any        `json:"localValue"`
	RemoteValue   any        `json:"remoteValue"`
	Resolution    Resolution `json:"resolution,omitempty"`
}

// remote is a completed pulled rule plus the set of fields the platform
// text actually declared.
type remote struct {
	rule   *rule.Rule
	fields map[string]bool
}

// Manager keeps one store consistent with the platforms in its registry.
// Unresolved conflicts from a merge block pushes until resolved.
type Manager struct {
	store    *rule.Store
	registry *Registry
	pending  []Conflict
}

// NewManager creates a Manager over the given store and adapter registry.
func NewManager(store *rule.Store, registry *Registry) *Manager {
	return &Manager{store: store, registry: registry}
}

// Pending returns the unresolved conflicts from the last merge.
func (m *Manager) Pending() []Conflict {
	return append([]Conflict(nil), m.pending...)
}

// --- Pull ---

// PullResult classifies imported rules relative to the local store.
type PullResult struct {
	Platform  string   `json:"platform"`
	New       []string `json:"new,omitempty"`
	Updated   []string `json:"updated,omitempty"`
	Unchanged []string `json:"unchanged,omitempty"`
}

// Pull imports the platform's rules: new rules are added, updated rules
// take the remote's declared fields, unchanged rules are left alone.
func (m *Manager) Pull(ctx context.Context, platform string) (*PullResult, error) {
	adapter, err := m.registry.Get(platform)
	if err != nil {
		return nil, err
	}
	remotes, err := m.readRemote(ctx, adapter)
	if err != nil {
		return nil, err
	}

	result := &PullResult{Platform: platform}
	for _, rem := range remotes {
		local := m.store.Get(rem.rule.ID)
		switch {
		case local == nil:
			m.store.Put(rem.rule)
			result.New = append(result.New, rem.rule.ID)
		case len(version.CompareFields(local, rem.rule, rem.fields)) > 0:
			updated := local.Clone()
			for field := range rem.fields {
				applyField(updated, field, fieldValue(rem.rule, field))
			}
			m.store.Put(updated)
			result.Updated = append(result.Updated, rem.rule.ID)
		default:
			result.Unchanged = append(result.Unchanged, rem.rule.ID)
		}
	}
	sort.Strings(result.New)
	sort.Strings(result.Updated)
	sort.Strings(result.Unchanged)
	return result, nil
}

// --- Push ---

// PushResult reports an export.
type PushResult struct {
	Platform   string `json:"platform"`
	RulesCount int    `json:"rulesCount"`
}

// Push formats the full local rule set and writes it to the platform.
// Unresolved conflicts block the push: resolve or discard them first.
func (m *Manager) Push(ctx context.Context, platform string) (*PushResult, error) {
	if len(m.pending) > 0 {
		return nil, fmt.Errorf("push to %q blocked: %d unresolved sync conflicts", platform, len(m.pending))
	}
	adapter, err := m.registry.Get(platform)
	if err != nil {
		return nil, err
	}
	rules := m.store.All()
	text, err := adapter.Format(rules)
	if err != nil {
		return nil, fmt.Errorf("formatting rules for %q: %w", platform, err)
	}
	if err := adapter.Write(ctx, text); err != nil {
		return nil, fmt.Errorf("writing rules to %q: %w", platform, err)
	}
	return &PushResult{Platform: platform, RulesCount: len(rules)}, nil
}

// --- Diff ---

// RuleDiff is the field-level difference for one rule present on both sides.
type RuleDiff struct {
	RuleID  string               `json:"ruleId"`
	Changes []version.DiffChange `json:"changes"`
}

// DiffResult partitions rules into local-only, remote-only, different, and
// identical. All lists sort by id.
type DiffResult struct {
	Platform   string     `json:"platform"`
	LocalOnly  []string   `json:"localOnly,omitempty"`
	RemoteOnly []string   `json:"remoteOnly,omitempty"`
	Different  []RuleDiff `json:"different,omitempty"`
	Identical  []string   `json:"identical,omitempty"`
}

// Diff compares the local store against the platform without changing
// either side.
func (m *Manager) Diff(ctx context.Context, platform string) (*DiffResult, error) {
	adapter, err := m.registry.Get(platform)
	if err != nil {
		return nil, err
	}
	remotes, err := m.readRemote(ctx, adapter)
	if err != nil {
		return nil, err
	}

	result := &DiffResult{Platform: platform}
	remoteByID := make(map[string]remote, len(remotes))
	for _, rem := range remotes {
		remoteByID[rem.rule.ID] = rem
	}

	for _, local := range m.store.All() {
		rem, onRemote := remoteByID[local.ID]
		if !onRemote {
			result.LocalOnly = append(result.LocalOnly, local.ID)
			continue
		}
		if changes := version.CompareFields(local, rem.rule, rem.fields); len(changes) > 0 {
			result.Different = append(result.Different, RuleDiff{RuleID: local.ID, Changes: changes})
		} else {
			result.Identical = append(result.Identical, local.ID)
		}
	}
	for id := range remoteByID {
		if !m.store.Has(id) {
			result.RemoteOnly = append(result.RemoteOnly, id)
		}
	}
	sort.Strings(result.RemoteOnly)
	sort.Slice(result.Different, func(i, j int) bool { return result.Different[i].RuleID < result.Different[j].RuleID })
	return result, nil
}

// --- Merge ---

// MergeOutcome is a merged rule list plus the conflicts that kept some
// fields undecided. Conflicted rules keep their local values in Rules
// until resolution: merge never overwrites either side on its own.
type MergeOutcome struct {
	Rules     []*rule.Rule
	Conflicts []Conflict
}

// merge combines the local store with completed remote rules.
func (m *Manager) merge(remotes []remote) MergeOutcome {
	var outcome MergeOutcome
	remoteByID := make(map[string]remote, len(remotes))
	for _, rem := range remotes {
		remoteByID[rem.rule.ID] = rem
	}

	for _, local := range m.store.All() {
		outcome.Rules = append(outcome.Rules, local)
		rem, onRemote := remoteByID[local.ID]
		if !onRemote {
			continue
		}
		for _, change := range version.CompareFields(local, rem.rule, rem.fields) {
			outcome.Conflicts = append(outcome.Conflicts, Conflict{
				RuleID:        local.ID,
				Field:         change.Field,
				LocalVersion:  local.Metadata.Version,
				RemoteVersion: rem.rule.Metadata.Version,
				LocalValue:    change.From,
				RemoteValue:   change.To,
			})
		}
	}

	ids := make([]string, 0, len(remoteByID))
	for id := range remoteByID {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		if !m.store.Has(id) {
			outcome.Rules = append(outcome.Rules, remoteByID[id].rule)
		}
	}
	return outcome
}

// ResolveAll applies one resolution mode across the pending conflict set.
// "local" keeps local values, "remote" applies the platform values, and
// "manual" leaves the set untouched for an external decision. It returns
// the conflicts still pending.
func (m *Manager) ResolveAll(mode Resolution) ([]Conflict, error) {
	switch mode {
	case ResolveManual:
		return m.Pending(), nil
	case ResolveLocal:
		m.pending = nil
		return nil, nil
	case ResolveRemote:
		for _, c := range m.pending {
			if r := m.store.Get(c.RuleID); r != nil {
				applyField(r, c.Field, c.RemoteValue)
			}
		}
		m.pending = nil
		return nil, nil
	}
	return nil, fmt.Errorf("invalid resolution mode %q: must be one of: local, remote, manual", mode)
}

// Resolve decides a single pending conflict. "merge" unions array-valued
// fields; scalar fields require an explicit local or remote choice.
// "skip" leaves the conflict pending so it resurfaces on the next sync.
func (m *Manager) Resolve(ruleID, field string, choice Resolution) error {
	idx := -1
	for i, c := range m.pending {
		if c.RuleID == ruleID && c.Field == field {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("no pending conflict for rule %q field %q", ruleID, field)
	}
	c := m.pending[idx]

	switch choice {
	case ResolveSkip:
		return nil
	case ResolveLocal:
		// Keep local; nothing to apply.
	case ResolveRemote:
		if r := m.store.Get(c.RuleID); r != nil {
			applyField(r, c.Field, c.RemoteValue)
		}
	case ResolveMerge:
		local, lok := c.LocalValue.([]string)
		remoteVal, rok := c.RemoteValue.([]string)
		if !lok || !rok {
			return fmt.Errorf("cannot structurally merge scalar field %q of rule %q: choose local or remote", field, ruleID)
		}
		if r := m.store.Get(c.RuleID); r != nil {
			applyField(r, c.Field, rule.MergeStringSets(local, remoteVal))
		}
	default:
		return fmt.Errorf("invalid resolution %q for rule %q field %q", choice, ruleID, field)
	}

	m.pending = append(m.pending[:idx], m.pending[idx+1:]...)
	return nil
}

// --- Sync ---

// Result reports one full sync.
type Result struct {
	Success    bool        `json:"success"`
	Platform   string      `json:"platform"`
	Direction  Direction   `json:"direction"`
	RulesCount int         `json:"rulesCount"`
	Pull       *PullResult `json:"pull,omitempty"`
	Conflicts  []Conflict  `json:"conflicts,omitempty"`
}

// Sync runs a full synchronization. The "both" direction snapshots the
// remote before pushing, then merges against that snapshot: adapters may
// read and write the same file, so pushing first would overwrite remote
// edits before they are seen. It is idempotent when neither side changed
// since the previous sync. Conflicts surfaced by the merge leave local
// values in place and block subsequent pushes until resolved.
func (m *Manager) Sync(ctx context.Context, platform string, direction Direction) (*Result, error) {
	result := &Result{Platform: platform, Direction: direction}

	switch direction {
	case DirectionPush:
		push, err := m.Push(ctx, platform)
		if err != nil {
			return nil, err
		}
		result.RulesCount = push.RulesCount

	case DirectionPull:
		pull, err := m.Pull(ctx, platform)
		if err != nil {
			return nil, err
		}
		result.Pull = pull
		result.RulesCount = m.store.Len()

	case DirectionBoth:
		adapter, err := m.registry.Get(platform)
		if err != nil {
			return nil, err
		}
		// Read before pushing: the push may rewrite the same file the
		// remote rules live in.
		remotes, err := m.readRemote(ctx, adapter)
		if err != nil {
			return nil, err
		}
		if _, err := m.Push(ctx, platform); err != nil {
			return nil, err
		}
		outcome := m.merge(remotes)
		m.store.Replace(outcome.Rules)
		m.pending = outcome.Conflicts
		result.Conflicts = outcome.Conflicts
		result.RulesCount = m.store.Len()

	default:
		return nil, fmt.Errorf("invalid sync direction %q: must be one of: pull, push, both", direction)
	}

	result.Success = true
	return result, nil
}

// readRemote reads and parses the platform text into completed rules.
func (m *Manager) readRemote(ctx context.Context, adapter Adapter) ([]remote, error) {
	text, err := adapter.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading rules from %q: %w", adapter.Name(), err)
	}
	partials, err := adapter.Parse(text)
	if err != nil {
		return nil, fmt.Errorf("parsing rules from %q: %w", adapter.Name(), err)
	}
	remotes := make([]remote, 0, len(partials))
	for _, p := range partials {
		remotes = append(remotes, remote{rule: p.Complete(), fields: p.declared()})
	}
	return remotes, nil
}

// --- Field access ---

// applyField sets one comparable field by name. Unknown fields are
// ignored; the conflict set only ever names fields CompareFields emits.
func applyField(r *rule.Rule, field string, value any) {
	switch field {
	case "name":
		if v, ok := value.(string); ok {
			r.Name = v
		}
	case "description":
		if v, ok := value.(string); ok {
			r.Description = v
		}
	case "category":
		if v, ok := value.(string); ok {
			r.Category = v
		}
	case "tags":
		if v, ok := value.([]string); ok {
			r.Tags = append([]string(nil), v...)
		}
	case "severity":
		if v, ok := value.(rule.Severity); ok {
			r.Severity = v
		}
	case "examples":
		if v, ok := value.(*rule.Examples); ok {
			r.Examples = v
		}
	}
}

// fieldValue reads one comparable field by name.
func fieldValue(r *rule.Rule, field string) any {
	switch field {
	case "name":
		return r.Name
	case "description":
		return r.Description
	case "category":
		return r.Category
	case "tags":
		return r.Tags
	case "severity":
		return r.Severity
	case "examples":
		return r.Examples
	}
	return nil
}
