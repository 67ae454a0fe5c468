package version

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/mgalvez/rulekeeper/internal/rule"
)

// ChangeType classifies a per-field difference.
type ChangeType string

const (
	ChangeAdded    ChangeType = "added"
	ChangeRemoved  ChangeType = "removed"
	ChangeModified ChangeType = "modified"
)

// DiffChange is one field-level difference between two rule states. For
// multi-line string fields Text carries a unified diff for display.
type DiffChange struct {
	Field string     `json:"field"`
	Type  ChangeType `json:"type"`
	From  any        `json:"from,omitempty"`
	To    any        `json:"to,omitempty"`
	Text  string     `json:"text,omitempty"`
}

// Diff reconstructs the rule's state at fromVersion and toVersion and
// returns the per-field changes between them. Nested fields (examples,
// dependencies, conditions) compare by deep structural equality.
// Identity, timestamps, and history metadata are not diffed.
func Diff(r *rule.Rule, fromVersion, toVersion string) ([]DiffChange, error) {
	from, err := SnapshotAt(r, fromVersion)
	if err != nil {
		return nil, err
	}
	to, err := SnapshotAt(r, toVersion)
	if err != nil {
		return nil, err
	}
	return CompareRules(from, to), nil
}

// CompareRules returns the per-field changes between two rule states.
func CompareRules(from, to *rule.Rule) []DiffChange {
	return CompareFields(from, to, nil)
}

// CompareFields is CompareRules restricted to the named fields. A nil
// mask compares everything. Sync uses the mask so fields a lossy platform
// format never carried are not diffed against their completion defaults.
func CompareFields(from, to *rule.Rule, fields map[string]bool) []DiffChange {
	var changes []DiffChange
	add := func(field string, a, b any) {
		if fields != nil && !fields[field] {
			return
		}
		if c, ok := fieldChange(field, a, b); ok {
			changes = append(changes, c)
		}
	}
	add("name", from.Name, to.Name)
	add("description", from.Description, to.Description)
	add("category", from.Category, to.Category)
	add("tags", from.Tags, to.Tags)
	add("severity", from.Severity, to.Severity)
	add("examples", from.Examples, to.Examples)
	add("exceptions", from.Exceptions, to.Exceptions)
	add("related", from.Related, to.Related)
	add("scope", from.Scope, to.Scope)
	add("dependencies", from.Deps, to.Deps)
	add("conditions", from.Conditions, to.Conditions)
	add("status", from.Metadata.Status, to.Metadata.Status)
	return changes
}

// fieldChange builds a DiffChange for one field, or reports ok=false when
// the values are structurally equal.
func fieldChange(field string, a, b any) (DiffChange, bool) {
	if reflect.DeepEqual(a, b) {
		return DiffChange{}, false
	}
	change := DiffChange{Field: field, From: a, To: b}
	switch {
	case isZero(a):
		change.Type = ChangeAdded
	case isZero(b):
		change.Type = ChangeRemoved
	default:
		change.Type = ChangeModified
	}
	if as, ok := a.(string); ok {
		if bs, ok := b.(string); ok && (strings.Contains(as, "\n") || strings.Contains(bs, "\n")) {
			change.Text = unifiedText(field, as, bs)
		}
	}
	return change, true
}

func isZero(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Slice, reflect.Map:
		return rv.IsNil() || (rv.Kind() != reflect.Ptr && rv.Len() == 0)
	}
	return rv.IsZero()
}

// unifiedText renders a classic unified diff for a multi-line field.
func unifiedText(field, a, b string) string {
	u := difflib.UnifiedDiff{
		A:        difflib.SplitLines(a),
		B:        difflib.SplitLines(b),
		FromFile: fmt.Sprintf("%s (before)", field),
		ToFile:   fmt.Sprintf("%s (after)", field),
		Context:  2,
	}
	s, err := difflib.GetUnifiedDiffString(u)
	if err != nil {
		return ""
	}
	return s
}
