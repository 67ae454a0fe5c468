package sync

import (
	"strings"

	"github.com/google/uuid"

	"github.com/mgalvez/rulekeeper/internal/rule"
)

// PartialRule is what a lossy platform format can express. Zero fields are
// absent: platform text rarely carries severity, tags, or ids, and never
// carries version history. Complete fills the gaps with documented
// defaults.
type PartialRule struct {
	ID          string
	Name        string
	Description string
	Category    string
	Tags        []string
	Severity    rule.Severity
	Examples    *rule.Examples
}

// Completion defaults for fields a platform format cannot express.
const (
	DefaultSeverity = rule.SeverityWarning
	DefaultCategory = "general"
)

// Complete turns a partial record into a full rule:
//
//	id       — kept when present, else slugified from the name, else
//	           "rule-" plus a short random suffix
//	severity — warning
//	category — "general"
//	status   — active, version 1.0.0
//
// The returned rule is independent of the partial's slices.
func (p PartialRule) Complete() *rule.Rule {
	id := p.ID
	if id == "" {
		id = slugify(p.Name)
	}
	if id == "" {
		id = "rule-" + uuid.NewString()[:8]
	}

	severity := p.Severity
	if severity == "" {
		severity = DefaultSeverity
	}
	category := p.Category
	if category == "" {
		category = DefaultCategory
	}
	name := p.Name
	if name == "" {
		name = id
	}

	r := &rule.Rule{
		ID:          id,
		Name:        name,
		Description: p.Description,
		Category:    category,
		Tags:        append([]string(nil), p.Tags...),
		Severity:    severity,
		Metadata:    rule.Metadata{Status: rule.StatusActive, Version: "1.0.0"},
	}
	if p.Examples != nil {
		r.Examples = &rule.Examples{
			Good: append([]string(nil), p.Examples.Good...),
			Bad:  append([]string(nil), p.Examples.Bad...),
		}
	}
	return r
}

// declared reports which comparable fields the partial actually carried.
// Sync diffs only compare declared fields so completion defaults never
// masquerade as remote edits.
func (p PartialRule) declared() map[string]bool {
	fields := make(map[string]bool, 6)
	if p.Name != "" {
		fields["name"] = true
	}
	if p.Description != "" {
		fields["description"] = true
	}
	if p.Category != "" {
		fields["category"] = true
	}
	if len(p.Tags) > 0 {
		fields["tags"] = true
	}
	if p.Severity != "" {
		fields["severity"] = true
	}
	if p.Examples != nil {
		fields["examples"] = true
	}
	return fields
}

// slugify lowercases and hyphenates a name into a filesystem/id-safe slug.
func slugify(name string) string {
	var b strings.Builder
	prevHyphen := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
			prevHyphen = false
		case r == ' ' || r == '_' || r == '-' || r == '/':
			if !prevHyphen && b.Len() > 0 {
				b.WriteByte('-')
				prevHyphen = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}
