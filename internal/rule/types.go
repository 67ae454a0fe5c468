// Package rule defines the core coding-guideline record and the in-memory
// store that holds one loaded rule set.
//
// A Rule is the unit of management: it carries identity, classification,
// severity, inter-rule dependencies, activation conditions, and versioning
// metadata. Everything else in the engine (loader, graph, search, sync,
// versioning) operates over these records.
//
// Design principles, shared with the rest of the module:
// - SRP: record types, activation conditions, and the store live in separate files
// - DIP: consumers receive a *Store; derived views (graph, index) never mutate it
package rule

import (
	"fmt"
	"sort"
	"strings"
)

// --- Severity enum ---

// Severity expresses how strongly a rule binds.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

var validSeverities = map[Severity]bool{
	SeverityError:   true,
	SeverityWarning: true,
	SeverityInfo:    true,
}

// ValidateSeverity returns an error if the severity is not recognized.
func ValidateSeverity(s Severity) error {
	if !validSeverities[s] {
		return fmt.Errorf("invalid severity %q: must be one of: error, warning, info", s)
	}
	return nil
}

// --- Scope enum ---

// Scope identifies the hierarchy layer a rule was defined in.
// Priority increases from global to package.
type Scope string

const (
	ScopeGlobal  Scope = "global"
	ScopeProject Scope = "project"
	ScopePackage Scope = "package"
)

// ScopePriority returns the numeric priority of a scope; higher wins.
// Unknown scopes rank below global so malformed input never outranks
// legitimate definitions.
func ScopePriority(s Scope) int {
	switch s {
	case ScopePackage:
		return 3
	case ScopeProject:
		return 2
	case ScopeGlobal:
		return 1
	default:
		return 0
	}
}

// --- Status enum ---

// Status tracks a rule's lifecycle.
type Status string

const (
	StatusDraft      Status = "draft"
	StatusActive     Status = "active"
	StatusDeprecated Status = "deprecated"
)

// --- Record types ---

// Examples holds good/bad code snippets illustrating the rule.
type Examples struct {
	Good []string `json:"good,omitempty" yaml:"good,omitempty"`
	Bad  []string `json:"bad,omitempty" yaml:"bad,omitempty"`
}

// Dependencies declares inter-rule relationships. Requires and Conflicts
// reference rule ids; Extends names a single parent rule; ReplacedBy points
// at the successor of a deprecated rule.
type Dependencies struct {
	Requires   []string `json:"requires,omitempty" yaml:"requires,omitempty"`
	Conflicts  []string `json:"conflicts,omitempty" yaml:"conflicts,omitempty"`
	Extends    string   `json:"extends,omitempty" yaml:"extends,omitempty"`
	ReplacedBy string   `json:"replacedBy,omitempty" yaml:"replacedBy,omitempty"`
}

// Empty reports whether no relationship is declared.
func (d Dependencies) Empty() bool {
	return len(d.Requires) == 0 && len(d.Conflicts) == 0 && d.Extends == "" && d.ReplacedBy == ""
}

// ChangelogEntry is an immutable history record. Snapshot, when present,
// holds the full rule state immediately before the change was applied and
// enables rollback. Entries are appended, never modified or deleted.
type ChangelogEntry struct {
	Version  string `json:"version" yaml:"version"`
	Date     string `json:"date" yaml:"date"` // RFC3339
	Author   string `json:"author" yaml:"author"`
	Changes  string `json:"changes" yaml:"changes"`
	Snapshot *Rule  `json:"snapshot,omitempty" yaml:"snapshot,omitempty"`
}

// Metadata carries lifecycle status and version history.
type Metadata struct {
	Status    Status           `json:"status" yaml:"status"`
	Version   string           `json:"version" yaml:"version"`
	Changelog []ChangelogEntry `json:"changelog,omitempty" yaml:"changelog,omitempty"`
}

// Rule is the root record, persisted one per document.
type Rule struct {
	ID          string       `json:"id" yaml:"id"`
	Name        string       `json:"name" yaml:"name"`
	Description string       `json:"description" yaml:"description"`
	Category    string       `json:"category" yaml:"category"` // slash-delimited, e.g. "code/naming"
	Tags        []string     `json:"tags,omitempty" yaml:"tags,omitempty"`
	Severity    Severity     `json:"severity" yaml:"severity"`
	Examples    *Examples    `json:"examples,omitempty" yaml:"examples,omitempty"`
	Exceptions  string       `json:"exceptions,omitempty" yaml:"exceptions,omitempty"`
	Related     []string     `json:"related,omitempty" yaml:"related,omitempty"`
	Scope       Scope        `json:"scope,omitempty" yaml:"scope,omitempty"`
	Deps        Dependencies `json:"dependencies,omitempty" yaml:"dependencies,omitempty"`
	Conditions  *Conditions  `json:"conditions,omitempty" yaml:"conditions,omitempty"`
	Metadata    Metadata     `json:"metadata" yaml:"metadata"`
	Created     string       `json:"created,omitempty" yaml:"created,omitempty"` // RFC3339
	Updated     string       `json:"updated,omitempty" yaml:"updated,omitempty"` // RFC3339
}

// Validate checks the required fields and enum values. It reports the first
// problem found; batch callers collect one error per rule document.
func (r *Rule) Validate() error {
	switch {
	case strings.TrimSpace(r.ID) == "":
		return fmt.Errorf("rule is missing required field %q", "id")
	case strings.TrimSpace(r.Name) == "":
		return fmt.Errorf("rule %q is missing required field %q", r.ID, "name")
	case strings.TrimSpace(r.Description) == "":
		return fmt.Errorf("rule %q is missing required field %q", r.ID, "description")
	case strings.TrimSpace(r.Category) == "":
		return fmt.Errorf("rule %q is missing required field %q", r.ID, "category")
	}
	if err := ValidateSeverity(r.Severity); err != nil {
		return fmt.Errorf("rule %q: %w", r.ID, err)
	}
	return nil
}

// Enabled reports whether the rule participates in enforcement: active
// status, and inside the date window when one is declared.
func (r *Rule) Enabled(nowISO string) bool {
	if r.Metadata.Status != StatusActive {
		return false
	}
	if r.Conditions == nil {
		return true
	}
	return r.Conditions.InDateRange(nowISO)
}

// HasTag reports whether the rule carries the tag (case-insensitive).
func (r *Rule) HasTag(tag string) bool {
	for _, t := range r.Tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

// Clone returns a deep copy. Version snapshots and merge layers rely on
// clones so later mutation of the original never leaks into history.
func (r *Rule) Clone() *Rule {
	c := *r
	c.Tags = cloneStrings(r.Tags)
	c.Related = cloneStrings(r.Related)
	c.Deps.Requires = cloneStrings(r.Deps.Requires)
	c.Deps.Conflicts = cloneStrings(r.Deps.Conflicts)
	if r.Examples != nil {
		c.Examples = &Examples{
			Good: cloneStrings(r.Examples.Good),
			Bad:  cloneStrings(r.Examples.Bad),
		}
	}
	if r.Conditions != nil {
		cc := *r.Conditions
		cc.FilePatterns = cloneStrings(r.Conditions.FilePatterns)
		cc.Branches = cloneStrings(r.Conditions.Branches)
		cc.Environments = cloneStrings(r.Conditions.Environments)
		c.Conditions = &cc
	}
	if r.Metadata.Changelog != nil {
		entries := make([]ChangelogEntry, len(r.Metadata.Changelog))
		for i, e := range r.Metadata.Changelog {
			entries[i] = e
			if e.Snapshot != nil {
				entries[i].Snapshot = e.Snapshot.Clone()
			}
		}
		c.Metadata.Changelog = entries
	}
	return &c
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

// MergeStringSets concatenates two string slices preserving first-seen order
// and dropping duplicates. Used by field-wise merge and sync resolution.
func MergeStringSets(a, b []string) []string {
	if len(a) == 0 && len(b) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, s := range append(append([]string{}, a...), b...) {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

// SortedIDs returns the ids of the given rules in lexicographic order.
func SortedIDs(rules []*Rule) []string {
	ids := make([]string, 0, len(rules))
	for _, r := range rules {
		ids = append(ids, r.ID)
	}
	sort.Strings(ids)
	return ids
}
