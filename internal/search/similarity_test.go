package search

import (
	"math"
	"testing"

	"github.com/mgalvez/rulekeeper/internal/rule"
)

// --- Jaccard properties ---

func TestJaccardIdentity(t *testing.T) {
	a := Bigrams("camelCase naming")
	if got := Jaccard(a, a); got != 1 {
		t.Errorf("Jaccard(A, A) = %f, want 1", got)
	}
}

func TestJaccardAgainstEmpty(t *testing.T) {
	a := Bigrams("camelCase")
	if got := Jaccard(a, Bigrams("")); got != 0 {
		t.Errorf("Jaccard(A, empty) = %f, want 0", got)
	}
	if got := Jaccard(Bigrams(""), Bigrams("")); got != 1 {
		t.Errorf("Jaccard(empty, empty) = %f, want 1", got)
	}
}

func TestJaccardIsSymmetric(t *testing.T) {
	a, b := Bigrams("wrap errors"), Bigrams("wrap every error")
	if Jaccard(a, b) != Jaccard(b, a) {
		t.Error("Jaccard must be symmetric")
	}
}

// --- Similarity ---

func TestSimilarityIdenticalRulesScoreOne(t *testing.T) {
	a := searchRule("a", "Use camelCase", "Local variables use camelCase.", "code/naming", "naming")
	b := searchRule("b", "Use camelCase", "Local variables use camelCase.", "code/naming", "naming")
	if got := Similarity(a, b); math.Abs(got-1) > 1e-9 {
		t.Errorf("Similarity of identical content = %f, want 1", got)
	}
}

func TestSimilarityOrdersByLikeness(t *testing.T) {
	query := searchRule("q", "Use camelCase", "Local variables use camelCase.", "code/naming", "naming")
	near := searchRule("near", "Use camelCase everywhere", "Local variables should use camelCase.", "code/naming", "naming")
	far := searchRule("far", "Wrap errors", "Wrap errors with context.", "code/errors", "errors")

	if Similarity(query, near) <= Similarity(query, far) {
		t.Error("near-duplicate must outscore an unrelated rule")
	}
}

func TestCategoryPrefixRatio(t *testing.T) {
	tests := []struct {
		a, b string
		want float64
	}{
		{"code/naming", "code/naming", 1},
		{"code/naming", "code/style", 0.5},
		{"code/naming", "docs/style", 0},
		{"code", "code/naming", 0.5},
	}
	for _, tt := range tests {
		if got := categoryPrefixRatio(tt.a, tt.b); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("categoryPrefixRatio(%s, %s) = %f, want %f", tt.a, tt.b, got, tt.want)
		}
	}
}

// --- FindSimilar ---

func TestFindSimilarExcludesQueryAndSortsDescending(t *testing.T) {
	query := searchRule("q", "Use camelCase", "Local variables use camelCase.", "code/naming", "naming")
	near := searchRule("near", "Use camelCase everywhere", "Local variables should use camelCase.", "code/naming", "naming")
	far := searchRule("far", "Wrap errors", "Wrap errors with context.", "code/errors", "errors")
	all := []*rule.Rule{query, far, near}

	matches := FindSimilar(all, query, 0.5)
	for _, m := range matches {
		if m.Rule.ID == "q" {
			t.Error("FindSimilar must exclude the query rule")
		}
	}
	if len(matches) == 0 || matches[0].Rule.ID != "near" {
		t.Errorf("matches = %v, want near first", matches)
	}
	for i := 1; i < len(matches); i++ {
		if matches[i].Score > matches[i-1].Score {
			t.Error("matches not sorted descending")
		}
	}

	// Threshold filters.
	if got := FindSimilar(all, query, 1.01); len(got) != 0 {
		t.Errorf("threshold above 1 should match nothing, got %v", got)
	}
}
