// Package graph builds the dependency graph over selected issues and
// computes the wave schedule: layers of mutually independent issues
// that can run concurrently, in an order that respects every declared
// blocking dependency.
//
// The graph is held in a node-index arena (identifier → integer index)
// so cycle detection and layering are plain slice operations with no
// object-reference ownership to reason about.
package graph

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/BrennonTWilliams/little-loops/internal/issue"
)

// ErrCycle is returned when the selected issues contain a dependency cycle.
var ErrCycle = errors.New("dependency cycle detected")

// CycleError reports a dependency cycle with the ordered list of issue
// IDs forming it. A self-dependency is a cycle of length one.
type CycleError struct {
	// Cycle lists the IDs on the cycle in dependency order; the last
	// element depends on the first.
	Cycle []string
}

// Error renders the full cycle path for diagnosis.
func (e *CycleError) Error() string {
	return fmt.Sprintf("dependency cycle: %s → %s",
		strings.Join(e.Cycle, " → "), e.Cycle[0])
}

// Unwrap allows errors.Is(err, ErrCycle).
func (e *CycleError) Unwrap() error { return ErrCycle }

// Graph is an acyclic dependency graph over a selected set of issues.
// An edge A → B means A is blocked by B: B must complete before A runs.
type Graph struct {
	ids   []string       // index → ID, lexically sorted
	index map[string]int // ID → index

	// deps[i] lists indices that issue i is blocked by (forward edges).
	deps [][]int
	// dependents[i] lists indices blocked by issue i (reverse edges).
	dependents [][]int

	// external maps an issue ID to dependency IDs outside the selected
	// set. These are treated as already satisfied and never block.
	external map[string][]string
}

// Build constructs the graph from the selected issues. Dependency IDs
// not present in the selection are recorded as external and treated as
// satisfied. Returns a *CycleError if the restricted graph contains a
// cycle, including a self-dependency.
func Build(issues []issue.Issue) (*Graph, error) {
	ids := make([]string, 0, len(issues))
	byID := make(map[string]*issue.Issue, len(issues))
	for i := range issues {
		is := &issues[i]
		if _, dup := byID[is.ID]; dup {
			return nil, fmt.Errorf("duplicate issue ID %q in selection", is.ID)
		}
		byID[is.ID] = is
		ids = append(ids, is.ID)
	}
	sort.Strings(ids)

	index := make(map[string]int, len(ids))
	for i, id := range ids {
		index[id] = i
	}

	g := &Graph{
		ids:        ids,
		index:      index,
		deps:       make([][]int, len(ids)),
		dependents: make([][]int, len(ids)),
		external:   make(map[string][]string),
	}

	for i, id := range ids {
		is := byID[id]
		seen := make(map[int]bool)
		for _, dep := range is.DependsOn {
			if dep == id {
				return nil, &CycleError{Cycle: []string{id}}
			}
			j, ok := index[dep]
			if !ok {
				g.external[id] = append(g.external[id], dep)
				continue
			}
			if seen[j] {
				continue
			}
			seen[j] = true
			g.deps[i] = append(g.deps[i], j)
			g.dependents[j] = append(g.dependents[j], i)
		}
		sort.Ints(g.deps[i])
	}
	for i := range g.dependents {
		sort.Ints(g.dependents[i])
	}

	if cycle := g.findCycle(); cycle != nil {
		return nil, &CycleError{Cycle: cycle}
	}
	return g, nil
}

// Len returns the number of issues in the graph.
func (g *Graph) Len() int { return len(g.ids) }

// IDs returns all issue IDs in the graph, lexically sorted.
func (g *Graph) IDs() []string {
	out := make([]string, len(g.ids))
	copy(out, g.ids)
	return out
}

// Deps returns the in-selection dependency IDs of the given issue.
func (g *Graph) Deps(id string) []string {
	i, ok := g.index[id]
	if !ok {
		return nil
	}
	out := make([]string, len(g.deps[i]))
	for k, j := range g.deps[i] {
		out[k] = g.ids[j]
	}
	return out
}

// ExternalDeps returns dependency IDs of the given issue that fall
// outside the selected set (treated as satisfied).
func (g *Graph) ExternalDeps(id string) []string {
	return g.external[id]
}

// findCycle runs a depth-first traversal with an explicit recursion
// stack and returns the ordered ID path of the first back-edge cycle
// found, or nil if the graph is acyclic.
func (g *Graph) findCycle() []string {
	const (
		white = 0 // unvisited
		grey  = 1 // on the recursion stack
		black = 2 // fully explored
	)
	color := make([]int, len(g.ids))
	var stack []int

	var visit func(i int) []string
	visit = func(i int) []string {
		color[i] = grey
		stack = append(stack, i)
		for _, j := range g.deps[i] {
			switch color[j] {
			case grey:
				// Back edge: the cycle is the stack suffix from j.
				var cycle []string
				for k := len(stack) - 1; k >= 0; k-- {
					cycle = append([]string{g.ids[stack[k]]}, cycle...)
					if stack[k] == j {
						break
					}
				}
				return cycle
			case white:
				if cycle := visit(j); cycle != nil {
					return cycle
				}
			}
		}
		stack = stack[:len(stack)-1]
		color[i] = black
		return nil
	}

	for i := range g.ids {
		if color[i] == white {
			if cycle := visit(i); cycle != nil {
				return cycle
			}
		}
	}
	return nil
}
