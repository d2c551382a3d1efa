package graph

import "sort"

// Wave is a layer of issues whose dependencies all lie in strictly
// earlier waves. Members of one wave have no dependency edge between
// any pair and are candidates for concurrent execution.
type Wave struct {
	// Number is the 1-based wave index.
	Number int
	// IssueIDs lists the member issues, lexically sorted for
	// reproducible scheduling.
	IssueIDs []string
}

// ComputeWaves groups the graph into dependency waves using Kahn's
// algorithm. Wave 1 holds issues with no in-selection dependencies;
// wave N holds issues whose dependencies all sit in waves < N. For
// every edge A → B (A blocked by B), B's wave index is strictly less
// than A's. Running twice on the same input yields identical waves.
//
// Build already rejects cyclic graphs, so a cycle here indicates the
// graph was mutated; it is still reported rather than looping forever.
func (g *Graph) ComputeWaves() ([]Wave, error) {
	inDegree := make([]int, len(g.ids))
	for i := range g.ids {
		inDegree[i] = len(g.deps[i])
	}

	var current []int
	for i, deg := range inDegree {
		if deg == 0 {
			current = append(current, i)
		}
	}

	var waves []Wave
	placed := 0
	for len(current) > 0 {
		ids := make([]string, len(current))
		for k, i := range current {
			ids[k] = g.ids[i]
		}
		sort.Strings(ids)
		waves = append(waves, Wave{Number: len(waves) + 1, IssueIDs: ids})
		placed += len(current)

		var next []int
		for _, i := range current {
			for _, dependent := range g.dependents[i] {
				inDegree[dependent]--
				if inDegree[dependent] == 0 {
					next = append(next, dependent)
				}
			}
		}
		current = next
	}

	if placed != len(g.ids) {
		if cycle := g.findCycle(); cycle != nil {
			return nil, &CycleError{Cycle: cycle}
		}
		return nil, ErrCycle
	}
	return waves, nil
}
