package search

import (
	"sort"
	"strings"
	"time"

	"github.com/mgalvez/rulekeeper/internal/rule"
)

// Field weights for keyword scoring: an id hit outweighs a name hit, which
// outweighs tag, category, description, and example hits in that order.
const (
	weightID          = 10.0
	weightName        = 5.0
	weightTag         = 3.0
	weightCategory    = 2.0
	weightDescription = 1.0
	weightExamples    = 0.5
)

// Query is the composite search input. Every filter only narrows the
// candidate set; zero values disable the corresponding stage.
type Query struct {
	Text        string
	Tags        []string
	Category    string // prefix match on the slash-delimited category path
	Severity    rule.Severity
	EnabledOnly bool
	Limit       int
}

// Result pairs a matched rule with its relevance score.
type Result struct {
	Rule  *rule.Rule
	Score float64
}

// Search runs the composite pipeline: tag filter, category-prefix filter,
// severity filter, enabled filter, keyword scoring, then the result limit.
// Results sort descending by score; ties keep store iteration order, which
// is sorted by id and therefore stable.
func Search(rules []*rule.Rule, q Query) []Result {
	candidates := rules
	if len(q.Tags) > 0 {
		candidates = filter(candidates, func(r *rule.Rule) bool {
			for _, tag := range q.Tags {
				if !r.HasTag(tag) {
					return false
				}
			}
			return true
		})
	}
	if q.Category != "" {
		prefix := strings.Trim(q.Category, "/")
		candidates = filter(candidates, func(r *rule.Rule) bool {
			return categoryHasPrefix(r.Category, prefix)
		})
	}
	if q.Severity != "" {
		candidates = filter(candidates, func(r *rule.Rule) bool { return r.Severity == q.Severity })
	}
	if q.EnabledOnly {
		now := time.Now().UTC().Format(time.RFC3339)
		candidates = filter(candidates, func(r *rule.Rule) bool { return r.Enabled(now) })
	}

	results := make([]Result, 0, len(candidates))
	for _, r := range candidates {
		score := 0.0
		if q.Text != "" {
			score = Score(r, q.Text)
			if score == 0 {
				continue
			}
		}
		results = append(results, Result{Rule: r, Score: score})
	}

	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if q.Limit > 0 && len(results) > q.Limit {
		results = results[:q.Limit]
	}
	return results
}

// Score computes the field-weighted relevance of a rule for the query
// text. Each query token contributes per field it hits.
func Score(r *rule.Rule, text string) float64 {
	tokens := Tokenize(text)
	if len(tokens) == 0 {
		// Queries like "x" tokenize to nothing; fall back to the raw text.
		tokens = []string{strings.ToLower(strings.TrimSpace(text))}
		if tokens[0] == "" {
			return 0
		}
	}

	id := strings.ToLower(r.ID)
	name := strings.ToLower(r.Name)
	category := strings.ToLower(r.Category)
	description := strings.ToLower(r.Description)
	examples := strings.ToLower(exampleText(r))

	score := 0.0
	for _, token := range tokens {
		if strings.Contains(id, token) {
			score += weightID
		}
		if strings.Contains(name, token) {
			score += weightName
		}
		if r.HasTag(token) {
			score += weightTag
		}
		if strings.Contains(category, token) {
			score += weightCategory
		}
		if strings.Contains(description, token) {
			score += weightDescription
		}
		if examples != "" && strings.Contains(examples, token) {
			score += weightExamples
		}
	}
	return score
}

// categoryHasPrefix matches whole path segments: "code" prefixes
// "code/naming" but not "codex/naming".
func categoryHasPrefix(category, prefix string) bool {
	if category == prefix {
		return true
	}
	return strings.HasPrefix(category, prefix+"/")
}

func exampleText(r *rule.Rule) string {
	if r.Examples == nil {
		return ""
	}
	parts := append(append([]string{}, r.Examples.Good...), r.Examples.Bad...)
	return strings.Join(parts, "\n")
}

func filter(rules []*rule.Rule, keep func(*rule.Rule) bool) []*rule.Rule {
	out := make([]*rule.Rule, 0, len(rules))
	for _, r := range rules {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}
