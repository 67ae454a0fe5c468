// Package graph builds the dependency graph derived from a loaded rule set
// and answers the structural questions about it: dangling references,
// require/extends cycles, dependency-respecting order, and conflicting
// pairs.
//
// The graph is a derived view: it is rebuilt on demand from the current
// store contents and never persisted or mutated in place.
//
// Design goals (shared with the rest of the engine):
//   - Deterministic output: nodes iterate in id order, ties break
//     lexicographically
//   - No recursion: cycle detection walks an explicit stack so a large
//     graph cannot exhaust the call stack
package graph

import (
	"fmt"
	"sort"

	"github.com/mgalvez/rulekeeper/internal/rule"
)

// Node is one rule's edges. Requires and Extends are traversal edges;
// Conflicts is a symmetric exclusion relation, never part of a cycle.
type Node struct {
	ID        string
	Requires  []string
	Conflicts []string
	Extends   string
}

// Graph holds one node per rule id.
type Graph struct {
	nodes map[string]*Node
	ids   []string // sorted
}

// Build constructs the graph from the given rules.
func Build(rules []*rule.Rule) *Graph {
	g := &Graph{nodes: make(map[string]*Node, len(rules))}
	for _, r := range rules {
		g.nodes[r.ID] = &Node{
			ID:        r.ID,
			Requires:  append([]string(nil), r.Deps.Requires...),
			Conflicts: append([]string(nil), r.Deps.Conflicts...),
			Extends:   r.Deps.Extends,
		}
		g.ids = append(g.ids, r.ID)
	}
	sort.Strings(g.ids)
	return g
}

// Node returns the node for id, or nil.
func (g *Graph) Node(id string) *Node { return g.nodes[id] }

// Len returns the number of nodes.
func (g *Graph) Len() int { return len(g.ids) }

// --- Dangling references ---

// Dangling returns every reference to an id not present in the graph,
// formatted as "<from> -> <missing>" and sorted.
func (g *Graph) Dangling() []string {
	var out []string
	for _, id := range g.ids {
		n := g.nodes[id]
		for _, ref := range n.Requires {
			if _, ok := g.nodes[ref]; !ok {
				out = append(out, fmt.Sprintf("%s -> %s", id, ref))
			}
		}
		for _, ref := range n.Conflicts {
			if _, ok := g.nodes[ref]; !ok {
				out = append(out, fmt.Sprintf("%s -> %s", id, ref))
			}
		}
		if n.Extends != "" {
			if _, ok := g.nodes[n.Extends]; !ok {
				out = append(out, fmt.Sprintf("%s -> %s", id, n.Extends))
			}
		}
	}
	sort.Strings(out)
	return out
}

// --- Cycle detection ---

// traversal edges: requires plus extends, existing targets only, sorted.
func (g *Graph) edges(id string) []string {
	n := g.nodes[id]
	out := make([]string, 0, len(n.Requires)+1)
	for _, ref := range n.Requires {
		if _, ok := g.nodes[ref]; ok {
			out = append(out, ref)
		}
	}
	if n.Extends != "" {
		if _, ok := g.nodes[n.Extends]; ok {
			out = append(out, n.Extends)
		}
	}
	sort.Strings(out)
	return out
}

const (
	white = iota // unvisited
	gray         // in progress
	black        // done
)

// Cycles returns every distinct requires/extends cycle as an ordered id
// list that starts and ends at the same id. The traversal is an iterative
// three-color depth-first search with an explicit frame stack.
func (g *Graph) Cycles() [][]string {
	color := make(map[string]int, len(g.ids))
	var cycles [][]string
	seen := make(map[string]bool) // normalized cycle keys

	type frame struct {
		id    string
		edges []string
		next  int
	}

	for _, start := range g.ids {
		if color[start] != white {
			continue
		}
		stack := []frame{{id: start, edges: g.edges(start)}}
		color[start] = gray

		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			if top.next >= len(top.edges) {
				color[top.id] = black
				stack = stack[:len(stack)-1]
				continue
			}
			child := top.edges[top.next]
			top.next++

			switch color[child] {
			case white:
				color[child] = gray
				stack = append(stack, frame{id: child, edges: g.edges(child)})
			case gray:
				// Back edge: the cycle is the stack segment from child
				// to the current node, closed back at child.
				var cycle []string
				for i := range stack {
					if stack[i].id == child {
						for _, f := range stack[i:] {
							cycle = append(cycle, f.id)
						}
						break
					}
				}
				cycle = append(cycle, child)
				if key := normalizeCycle(cycle); !seen[key] {
					seen[key] = true
					cycles = append(cycles, cycle)
				}
			}
		}
	}
	return cycles
}

// normalizeCycle keys a cycle by rotating its open form (without the
// closing repeat) to start at the smallest id, so the same loop found from
// two entry points counts once.
func normalizeCycle(cycle []string) string {
	open := cycle[:len(cycle)-1]
	minIdx := 0
	for i, id := range open {
		if id < open[minIdx] {
			minIdx = i
		}
	}
	key := ""
	for i := range open {
		key += open[(minIdx+i)%len(open)] + "|"
	}
	return key
}

// --- Topological sort ---

// TopoSort returns a dependency-respecting order over the requires edges:
// every rule appears after all rules it requires. Ties break by
// lexicographic id, so the order is stable. If a requires/extends cycle
// exists the sort fails and surfaces one offending cycle.
func (g *Graph) TopoSort() ([]string, error) {
	// In-degree counts how many of a node's requires targets are unemitted;
	// dependencies are emitted before their dependents.
	indegree := make(map[string]int, len(g.ids))
	dependents := make(map[string][]string, len(g.ids))
	for _, id := range g.ids {
		for _, ref := range g.nodes[id].Requires {
			if _, ok := g.nodes[ref]; !ok {
				continue
			}
			indegree[id]++
			dependents[ref] = append(dependents[ref], id)
		}
	}

	var ready []string
	for _, id := range g.ids {
		if indegree[id] == 0 {
			ready = append(ready, id)
		}
	}
	sort.Strings(ready)

	order := make([]string, 0, len(g.ids))
	for len(ready) > 0 {
		id := ready[0]
		ready = ready[1:]
		order = append(order, id)
		changed := false
		for _, dep := range dependents[id] {
			indegree[dep]--
			if indegree[dep] == 0 {
				ready = append(ready, dep)
				changed = true
			}
		}
		if changed {
			sort.Strings(ready)
		}
	}

	if len(order) != len(g.ids) {
		if cycles := g.Cycles(); len(cycles) > 0 {
			return nil, fmt.Errorf("dependency cycle: %v", cycles[0])
		}
		return nil, fmt.Errorf("dependency cycle involving %d rules", len(g.ids)-len(order))
	}
	return order, nil
}
