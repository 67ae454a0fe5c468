package search

import (
	"reflect"
	"testing"

	"github.com/mgalvez/rulekeeper/internal/rule"
)

// --- Helpers ---

func searchRule(id, name, description, category string, tags ...string) *rule.Rule {
	return &rule.Rule{
		ID:          id,
		Name:        name,
		Description: description,
		Category:    category,
		Tags:        tags,
		Severity:    rule.SeverityWarning,
		Metadata:    rule.Metadata{Status: rule.StatusActive, Version: "1.0.0"},
	}
}

func fixtureRules() []*rule.Rule {
	return []*rule.Rule{
		searchRule("naming-001", "Use camelCase", "Local variables use camelCase.", "code/naming", "naming"),
		searchRule("naming-002", "Avoid abbreviations", "Prefer full words over abbreviations in names.", "code/naming", "naming", "clarity"),
		searchRule("error-001", "Wrap errors", "Wrap errors with context before returning.", "code/errors", "errors"),
	}
}

// --- Tokenize ---

func TestTokenize(t *testing.T) {
	got := Tokenize("Use camelCase, not snake_case! (v2)")
	want := []string{"use", "camelcase", "not", "snake", "case", "v2"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Tokenize = %v, want %v", got, want)
	}
}

func TestTokenizeDropsShortTokens(t *testing.T) {
	if got := Tokenize("a b go"); !reflect.DeepEqual(got, []string{"go"}) {
		t.Errorf("Tokenize = %v, want [go]", got)
	}
}

func TestTokenizeLengthCountsRunes(t *testing.T) {
	// Single multibyte letters are still length one.
	if got := Tokenize("é ñ año"); !reflect.DeepEqual(got, []string{"año"}) {
		t.Errorf("Tokenize = %v, want [año]", got)
	}
}

// --- Index ---

func TestIndexByTagIsCaseInsensitive(t *testing.T) {
	idx := BuildIndex(fixtureRules())
	if got := idx.ByTag("NAMING"); !reflect.DeepEqual(got, []string{"naming-001", "naming-002"}) {
		t.Errorf("ByTag = %v", got)
	}
	if idx.ByTag("missing") != nil {
		t.Error("ByTag for absent tag should be empty")
	}
}

func TestIndexByKeyword(t *testing.T) {
	idx := BuildIndex(fixtureRules())
	if got := idx.ByKeyword("camelcase"); !reflect.DeepEqual(got, []string{"naming-001"}) {
		t.Errorf("ByKeyword = %v", got)
	}
	// Keyword appearing in name and description indexes the id once.
	if got := idx.ByKeyword("abbreviations"); !reflect.DeepEqual(got, []string{"naming-002"}) {
		t.Errorf("ByKeyword = %v", got)
	}
}

// --- Keyword scoring ---

func TestScoreFieldWeights(t *testing.T) {
	r := fixtureRules()[0] // naming-001
	idScore := Score(r, "naming")
	nameScore := Score(r, "camelcase")
	if idScore <= nameScore {
		t.Errorf("id hit (%f) should outweigh name hit (%f)", idScore, nameScore)
	}
	if Score(r, "zzz") != 0 {
		t.Error("no hit should score zero")
	}
}

func TestSearchSortsByScoreDescending(t *testing.T) {
	results := Search(fixtureRules(), Query{Text: "naming"})
	if len(results) < 2 {
		t.Fatalf("got %d results, want at least 2", len(results))
	}
	for i := 1; i < len(results); i++ {
		if results[i].Score > results[i-1].Score {
			t.Errorf("results not sorted descending at %d", i)
		}
	}
	// "naming" hits the ids of both naming rules; the errors rule is out.
	for _, res := range results {
		if res.Rule.ID == "error-001" {
			t.Error("error-001 should not match the naming query")
		}
	}
}

// --- Composite search ---

func TestSearchCompositeNarrows(t *testing.T) {
	rules := fixtureRules()
	results := Search(rules, Query{Tags: []string{"naming"}, Category: "code", Severity: rule.SeverityWarning})
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}

	results = Search(rules, Query{Tags: []string{"naming", "clarity"}})
	if len(results) != 1 || results[0].Rule.ID != "naming-002" {
		t.Errorf("multi-tag filter = %v, want only naming-002", results)
	}
}

func TestSearchCategoryPrefixMatchesWholeSegments(t *testing.T) {
	rules := []*rule.Rule{
		searchRule("a", "A", "A.", "code/naming"),
		searchRule("b", "B", "B.", "codex/naming"),
	}
	results := Search(rules, Query{Category: "code"})
	if len(results) != 1 || results[0].Rule.ID != "a" {
		t.Errorf("category prefix must match segments, got %v", results)
	}
}

func TestSearchEnabledOnly(t *testing.T) {
	rules := fixtureRules()
	rules[0].Metadata.Status = rule.StatusDeprecated
	results := Search(rules, Query{Tags: []string{"naming"}, EnabledOnly: true})
	if len(results) != 1 || results[0].Rule.ID != "naming-002" {
		t.Errorf("enabled filter = %v, want only naming-002", results)
	}
}

func TestSearchLimit(t *testing.T) {
	results := Search(fixtureRules(), Query{Limit: 2})
	if len(results) != 2 {
		t.Errorf("got %d results, want 2", len(results))
	}
}
