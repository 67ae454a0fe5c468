package rule

import (
	"time"

	"github.com/bmatcuk/doublestar/v4"
)

// Conditions gate where and when a rule applies. All fields are optional;
// an empty Conditions matches everything.
type Conditions struct {
	FilePatterns []string `json:"filePatterns,omitempty" yaml:"filePatterns,omitempty"` // doublestar globs, e.g. "src/**/*.go"
	Branches     []string `json:"branches,omitempty" yaml:"branches,omitempty"`
	Environments []string `json:"environments,omitempty" yaml:"environments,omitempty"`
	ActiveFrom   string   `json:"activeFrom,omitempty" yaml:"activeFrom,omitempty"`   // RFC3339 or YYYY-MM-DD
	ActiveUntil  string   `json:"activeUntil,omitempty" yaml:"activeUntil,omitempty"` // RFC3339 or YYYY-MM-DD
}

// MatchesFile reports whether the path satisfies at least one file pattern.
// With no patterns declared, every path matches. Invalid patterns are
// treated as non-matching rather than failing the whole check.
func (c *Conditions) MatchesFile(path string) bool {
	if c == nil || len(c.FilePatterns) == 0 {
		return true
	}
	for _, pattern := range c.FilePatterns {
		ok, err := doublestar.Match(pattern, path)
		if err == nil && ok {
			return true
		}
	}
	return false
}

// MatchesBranch reports whether the branch is allowed. Empty list allows all.
func (c *Conditions) MatchesBranch(branch string) bool {
	if c == nil || len(c.Branches) == 0 {
		return true
	}
	for _, b := range c.Branches {
		if b == branch {
			return true
		}
	}
	return false
}

// MatchesEnvironment reports whether the environment is allowed.
func (c *Conditions) MatchesEnvironment(env string) bool {
	if c == nil || len(c.Environments) == 0 {
		return true
	}
	for _, e := range c.Environments {
		if e == env {
			return true
		}
	}
	return false
}

// InDateRange reports whether nowISO falls inside [ActiveFrom, ActiveUntil].
// Open ends are unbounded. Unparseable bounds are ignored so a malformed
// date never disables a rule silently.
func (c *Conditions) InDateRange(nowISO string) bool {
	if c == nil || (c.ActiveFrom == "" && c.ActiveUntil == "") {
		return true
	}
	now, err := parseWhen(nowISO)
	if err != nil {
		return true
	}
	if from, err := parseWhen(c.ActiveFrom); c.ActiveFrom != "" && err == nil && now.Before(from) {
		return false
	}
	if until, err := parseWhen(c.ActiveUntil); c.ActiveUntil != "" && err == nil && now.After(until) {
		return false
	}
	return true
}

// parseWhen accepts RFC3339 timestamps and bare dates.
func parseWhen(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}
