package loader

import (
	"testing"

	"github.com/mgalvez/rulekeeper/internal/rule"
)

// --- Helpers ---

func mergeRule(id string, scope rule.Scope, severity rule.Severity, tags ...string) *rule.Rule {
	return &rule.Rule{
		ID:          id,
		Name:        "Rule " + id,
		Description: "Rule " + id + " description.",
		Category:    "code/naming",
		Severity:    severity,
		Tags:        tags,
		Scope:       scope,
		Metadata:    rule.Metadata{Status: rule.StatusActive, Version: "1.0.0"},
	}
}

func twoLayerFixture() []Layer {
	global := mergeRule("naming-001", rule.ScopeGlobal, rule.SeverityWarning, "naming")
	project := mergeRule("naming-001", rule.ScopeProject, rule.SeverityError, "style")
	return []Layer{
		{Scope: rule.ScopeGlobal, Rules: []*rule.Rule{global}},
		{Scope: rule.ScopeProject, Rules: []*rule.Rule{project}},
	}
}

// --- Override ---

func TestMergeOverrideKeepsHighestPriority(t *testing.T) {
	result := Merge(twoLayerFixture(), StrategyOverride, ResolveLocalWins)

	if len(result.Rules) != 1 {
		t.Fatalf("got %d rules, want 1", len(result.Rules))
	}
	if result.Rules[0].Severity != rule.SeverityError {
		t.Errorf("severity = %s, want error (project scope wins)", result.Rules[0].Severity)
	}
	if len(result.Conflicts) != 1 {
		t.Fatalf("got %d conflicts, want 1", len(result.Conflicts))
	}
	c := result.Conflicts[0]
	if c.Resolution != "auto" || c.Winner != "project" {
		t.Errorf("conflict = %+v, want auto resolution with project winner", c)
	}
}

// --- Manual policy ---

func TestMergeManualWithholdsRuleAndSurfacesConflict(t *testing.T) {
	result := Merge(twoLayerFixture(), StrategyOverride, ResolveManual)

	if len(result.Rules) != 0 {
		t.Errorf("got %d rules, want 0 (manual conflicts block the rule)", len(result.Rules))
	}
	if len(result.Conflicts) != 1 {
		t.Fatalf("got %d conflicts, want 1", len(result.Conflicts))
	}
	c := result.Conflicts[0]
	if c.RuleID != "naming-001" || c.Resolution != "manual" || c.Winner != "" {
		t.Errorf("conflict = %+v, want manual entry for naming-001 with no winner", c)
	}
}

// --- Field-wise merge ---

func TestMergeFieldwiseCombines(t *testing.T) {
	layers := twoLayerFixture()
	layers[0].Rules[0].Examples = &rule.Examples{Good: []string{"global good"}}
	layers[1].Rules[0].Examples = &rule.Examples{Good: []string{"project good"}}

	result := Merge(layers, StrategyMerge, ResolveLocalWins)
	if len(result.Rules) != 1 {
		t.Fatalf("got %d rules, want 1", len(result.Rules))
	}
	merged := result.Rules[0]

	// Scalars take the higher-priority value.
	if merged.Severity != rule.SeverityError {
		t.Errorf("severity = %s, want error", merged.Severity)
	}
	// Arrays concatenate and dedupe.
	if len(merged.Tags) != 2 {
		t.Errorf("tags = %v, want union of both layers", merged.Tags)
	}
	if len(merged.Examples.Good) != 2 {
		t.Errorf("examples = %v, want both layers' examples", merged.Examples.Good)
	}
}

// --- Append fallback ---

func TestMergeAppendFallsBackToPolicy(t *testing.T) {
	local := Merge(twoLayerFixture(), StrategyAppend, ResolveLocalWins)
	if local.Rules[0].Severity != rule.SeverityError {
		t.Errorf("local-wins severity = %s, want error", local.Rules[0].Severity)
	}

	parent := Merge(twoLayerFixture(), StrategyAppend, ResolveParentWins)
	if parent.Rules[0].Severity != rule.SeverityWarning {
		t.Errorf("parent-wins severity = %s, want warning", parent.Rules[0].Severity)
	}
}

// --- No collision ---

func TestMergeDistinctIDsPassThrough(t *testing.T) {
	layers := []Layer{
		{Scope: rule.ScopeGlobal, Rules: []*rule.Rule{mergeRule("a", rule.ScopeGlobal, rule.SeverityInfo)}},
		{Scope: rule.ScopeProject, Rules: []*rule.Rule{mergeRule("b", rule.ScopeProject, rule.SeverityInfo)}},
	}
	result := Merge(layers, StrategyOverride, ResolveLocalWins)
	if len(result.Rules) != 2 || len(result.Conflicts) != 0 {
		t.Errorf("got %d rules / %d conflicts, want 2 / 0", len(result.Rules), len(result.Conflicts))
	}
	// Deterministic ordering by id.
	if result.Rules[0].ID != "a" || result.Rules[1].ID != "b" {
		t.Errorf("rules not sorted by id: %s, %s", result.Rules[0].ID, result.Rules[1].ID)
	}
}

func TestMergeResultIsIndependentOfInput(t *testing.T) {
	layers := twoLayerFixture()
	result := Merge(layers, StrategyOverride, ResolveLocalWins)
	result.Rules[0].Name = "mutated"
	if layers[1].Rules[0].Name == "mutated" {
		t.Error("merge result must be cloned, not alias layer rules")
	}
}
