package graph

import (
	"reflect"
	"testing"

	"github.com/mgalvez/rulekeeper/internal/rule"
)

// --- Helpers ---

func depRule(id string, deps rule.Dependencies) *rule.Rule {
	return &rule.Rule{
		ID:          id,
		Name:        "Rule " + id,
		Description: "d",
		Category:    "c",
		Severity:    rule.SeverityInfo,
		Deps:        deps,
	}
}

// --- Topological sort ---

func TestTopoSortRespectsRequires(t *testing.T) {
	g := Build([]*rule.Rule{
		depRule("c", rule.Dependencies{Requires: []string{"b"}}),
		depRule("b", rule.Dependencies{Requires: []string{"a"}}),
		depRule("a", rule.Dependencies{}),
	})
	order, err := g.TopoSort()
	if err != nil {
		t.Fatalf("TopoSort() = %v", err)
	}
	pos := map[string]int{}
	for i, id := range order {
		pos[id] = i
	}
	if !(pos["a"] < pos["b"] && pos["b"] < pos["c"]) {
		t.Errorf("order %v does not respect requires edges", order)
	}
}

func TestTopoSortBreaksTiesLexicographically(t *testing.T) {
	g := Build([]*rule.Rule{
		depRule("zeta", rule.Dependencies{}),
		depRule("alpha", rule.Dependencies{}),
		depRule("mid", rule.Dependencies{}),
	})
	order, err := g.TopoSort()
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(order, []string{"alpha", "mid", "zeta"}) {
		t.Errorf("order = %v, want lexicographic", order)
	}
}

func TestTopoSortFailsOnCycle(t *testing.T) {
	g := Build([]*rule.Rule{
		depRule("a", rule.Dependencies{Requires: []string{"b"}}),
		depRule("b", rule.Dependencies{Requires: []string{"a"}}),
	})
	if _, err := g.TopoSort(); err == nil {
		t.Error("TopoSort on a cyclic graph must fail, not truncate")
	}
}

// --- Cycle detection ---

func TestCyclesFindsRequireLoop(t *testing.T) {
	g := Build([]*rule.Rule{
		depRule("a", rule.Dependencies{Requires: []string{"b"}}),
		depRule("b", rule.Dependencies{Requires: []string{"c"}}),
		depRule("c", rule.Dependencies{Requires: []string{"a"}}),
		depRule("free", rule.Dependencies{}),
	})
	cycles := g.Cycles()
	if len(cycles) != 1 {
		t.Fatalf("got %d cycles, want 1: %v", len(cycles), cycles)
	}
	c := cycles[0]
	if c[0] != c[len(c)-1] {
		t.Errorf("cycle %v must start and end at the same id", c)
	}
	members := map[string]bool{}
	for _, id := range c[:len(c)-1] {
		members[id] = true
	}
	if !reflect.DeepEqual(members, map[string]bool{"a": true, "b": true, "c": true}) {
		t.Errorf("cycle members = %v, want exactly a, b, c", members)
	}
}

func TestCyclesIncludesExtendsEdges(t *testing.T) {
	g := Build([]*rule.Rule{
		depRule("child", rule.Dependencies{Extends: "parent"}),
		depRule("parent", rule.Dependencies{Requires: []string{"child"}}),
	})
	if cycles := g.Cycles(); len(cycles) != 1 {
		t.Errorf("got %d cycles, want 1 (extends participates in cycles)", len(cycles))
	}
}

func TestCyclesIgnoresConflictEdges(t *testing.T) {
	g := Build([]*rule.Rule{
		depRule("a", rule.Dependencies{Conflicts: []string{"b"}}),
		depRule("b", rule.Dependencies{Conflicts: []string{"a"}}),
	})
	if cycles := g.Cycles(); len(cycles) != 0 {
		t.Errorf("conflicts are symmetric, not cycles; got %v", cycles)
	}
}

func TestCyclesReportsEachLoopOnce(t *testing.T) {
	// Two entry points into the same loop.
	g := Build([]*rule.Rule{
		depRule("entry1", rule.Dependencies{Requires: []string{"x"}}),
		depRule("entry2", rule.Dependencies{Requires: []string{"y"}}),
		depRule("x", rule.Dependencies{Requires: []string{"y"}}),
		depRule("y", rule.Dependencies{Requires: []string{"x"}}),
	})
	if cycles := g.Cycles(); len(cycles) != 1 {
		t.Errorf("got %d cycles, want 1: %v", len(cycles), cycles)
	}
}

// --- Conflict pairs ---

func TestConflictPairsClassification(t *testing.T) {
	g := Build([]*rule.Rule{
		depRule("a", rule.Dependencies{Conflicts: []string{"b"}}),
		depRule("b", rule.Dependencies{Conflicts: []string{"a"}}), // mutual with a
		depRule("c", rule.Dependencies{Conflicts: []string{"d"}}), // explicit only
		depRule("d", rule.Dependencies{}),
	})
	details := g.ConflictPairs()
	if len(details) != 2 {
		t.Fatalf("got %d details, want 2: %v", len(details), details)
	}
	if details[0].RuleA != "a" || details[0].Reason != ReasonMutual {
		t.Errorf("details[0] = %+v, want mutual a/b", details[0])
	}
	if details[1].RuleA != "c" || details[1].Reason != ReasonExplicit {
		t.Errorf("details[1] = %+v, want explicit c/d", details[1])
	}
}

func TestConflictPairsTransitiveWithPath(t *testing.T) {
	// a requires b, b extends c, c conflicts with d.
	g := Build([]*rule.Rule{
		depRule("a", rule.Dependencies{Requires: []string{"b"}}),
		depRule("b", rule.Dependencies{Extends: "c"}),
		depRule("c", rule.Dependencies{Conflicts: []string{"d"}}),
		depRule("d", rule.Dependencies{}),
	})
	details := g.ConflictPairs()

	var trans *ConflictDetail
	for i := range details {
		if details[i].Reason == ReasonTransitive && details[i].RuleA == "a" {
			trans = &details[i]
		}
	}
	if trans == nil {
		t.Fatalf("no transitive conflict for a in %v", details)
	}
	if trans.RuleB != "d" {
		t.Errorf("transitive partner = %s, want d", trans.RuleB)
	}
	if !reflect.DeepEqual(trans.Path, []string{"a", "b", "c", "d"}) {
		t.Errorf("path = %v, want [a b c d]", trans.Path)
	}
}

// --- Dangling and validation ---

func TestDanglingReferences(t *testing.T) {
	g := Build([]*rule.Rule{
		depRule("a", rule.Dependencies{Requires: []string{"ghost"}, Extends: "phantom"}),
	})
	dangling := g.Dangling()
	if len(dangling) != 2 {
		t.Fatalf("got %v, want two dangling references", dangling)
	}
}

func TestValidateAggregatesErrors(t *testing.T) {
	g := Build([]*rule.Rule{
		depRule("a", rule.Dependencies{Requires: []string{"b", "ghost"}}),
		depRule("b", rule.Dependencies{Requires: []string{"a"}}),
	})
	result := g.Validate()
	if result.Valid {
		t.Fatal("Validate() = valid, want invalid")
	}
	if len(result.Errors) < 2 {
		t.Errorf("errors = %v, want at least a dangling reference and a cycle", result.Errors)
	}
}

func TestValidateCleanGraph(t *testing.T) {
	g := Build([]*rule.Rule{
		depRule("a", rule.Dependencies{}),
		depRule("b", rule.Dependencies{Requires: []string{"a"}}),
	})
	if result := g.Validate(); !result.Valid || len(result.Errors) != 0 {
		t.Errorf("Validate() = %+v, want valid with no errors", result)
	}
}
