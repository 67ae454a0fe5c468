package graph

import (
	"fmt"
	"sort"
)

// ConflictReason classifies how a conflicting pair was found.
type ConflictReason string

const (
	ReasonExplicit   ConflictReason = "explicit"   // one side declares the other
	ReasonMutual     ConflictReason = "mutual"     // both sides declare each other
	ReasonTransitive ConflictReason = "transitive" // reached over requires/extends hops
)

// ConflictDetail is one conflicting pair. For transitive conflicts Path
// holds the chain from RuleA through the declaring rule to RuleB.
type ConflictDetail struct {
	RuleA  string         `json:"ruleA"`
	RuleB  string         `json:"ruleB"`
	Reason ConflictReason `json:"reason"`
	Path   []string       `json:"path,omitempty"`
}

// ConflictPairs returns every conflicting pair in the graph.
//
// Classification:
//   - mutual: both rules declare each other (reported once per pair)
//   - explicit: one rule declares the other
//   - transitive: a rule reaches, over one or more requires/extends hops,
//     some rule that explicitly conflicts with a third; the hop chain is
//     recorded for diagnostics
//
// Pairs already reported as explicit or mutual are not re-reported as
// transitive. Output is sorted for deterministic diagnostics.
func (g *Graph) ConflictPairs() []ConflictDetail {
	var details []ConflictDetail
	reported := make(map[string]bool) // unordered pair keys

	declares := func(a, b string) bool {
		n := g.nodes[a]
		if n == nil {
			return false
		}
		for _, c := range n.Conflicts {
			if c == b {
				return true
			}
		}
		return false
	}

	// Explicit and mutual.
	for _, id := range g.ids {
		for _, other := range g.nodes[id].Conflicts {
			if _, ok := g.nodes[other]; !ok {
				continue // dangling, reported by Dangling()
			}
			key := pairKey(id, other)
			if reported[key] {
				continue
			}
			reported[key] = true
			reason := ReasonExplicit
			if declares(other, id) {
				reason = ReasonMutual
			}
			a, b := orderPair(id, other)
			details = append(details, ConflictDetail{RuleA: a, RuleB: b, Reason: reason})
		}
	}

	// Transitive: breadth-first over requires/extends from each node,
	// checking the explicit conflicts of every reached rule.
	for _, id := range g.ids {
		parent := map[string]string{}
		queue := []string{id}
		visited := map[string]bool{id: true}
		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]
			if cur != id {
				for _, other := range g.nodes[cur].Conflicts {
					if _, ok := g.nodes[other]; !ok || other == id {
						continue
					}
					key := pairKey(id, other)
					if reported[key] {
						continue
					}
					reported[key] = true
					details = append(details, ConflictDetail{
						RuleA:  id,
						RuleB:  other,
						Reason: ReasonTransitive,
						Path:   append(chainTo(parent, id, cur), other),
					})
				}
			}
			for _, next := range g.edges(cur) {
				if !visited[next] {
					visited[next] = true
					parent[next] = cur
					queue = append(queue, next)
				}
			}
		}
	}

	sort.Slice(details, func(i, j int) bool {
		if details[i].RuleA != details[j].RuleA {
			return details[i].RuleA < details[j].RuleA
		}
		if details[i].RuleB != details[j].RuleB {
			return details[i].RuleB < details[j].RuleB
		}
		return details[i].Reason < details[j].Reason
	})
	return details
}

// chainTo reconstructs the hop chain from start to end using BFS parents.
func chainTo(parent map[string]string, start, end string) []string {
	var rev []string
	for cur := end; ; cur = parent[cur] {
		rev = append(rev, cur)
		if cur == start {
			break
		}
	}
	chain := make([]string, len(rev))
	for i, id := range rev {
		chain[len(rev)-1-i] = id
	}
	return chain
}

func pairKey(a, b string) string {
	x, y := orderPair(a, b)
	return x + "|" + y
}

func orderPair(a, b string) (string, string) {
	if a < b {
		return a, b
	}
	return b, a
}

// --- Validation ---

// ValidationResult enumerates every dependency problem found. Valid is
// true only when Errors is empty.
type ValidationResult struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors,omitempty"`
}

// Validate runs the full dependency check: dangling references, cycles,
// and conflicting pairs. It is invoked on demand, not on every load.
func (g *Graph) Validate() ValidationResult {
	var errs []string
	for _, d := range g.Dangling() {
		errs = append(errs, fmt.Sprintf("dangling dependency: %s", d))
	}
	for _, cycle := range g.Cycles() {
		errs = append(errs, fmt.Sprintf("dependency cycle: %v", cycle))
	}
	for _, c := range g.ConflictPairs() {
		switch c.Reason {
		case ReasonTransitive:
			errs = append(errs, fmt.Sprintf("transitive conflict between %s and %s via %v", c.RuleA, c.RuleB, c.Path))
		default:
			errs = append(errs, fmt.Sprintf("%s conflict between %s and %s", c.Reason, c.RuleA, c.RuleB))
		}
	}
	return ValidationResult{Valid: len(errs) == 0, Errors: errs}
}
