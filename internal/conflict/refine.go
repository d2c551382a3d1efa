package conflict

import (
	"fmt"
	"sort"

	"github.com/BrennonTWilliams/little-loops/internal/graph"
)

// SubWave is a file-overlap-safe group within a wave: no two members
// share a touched file, so they can run concurrently.
type SubWave struct {
	// Number is the 1-based sub-wave index within its wave.
	Number int
	// IssueIDs lists the member issues, lexically sorted.
	IssueIDs []string
}

// Annotation explains one serialization decision for observability:
// which pair of issues was split apart and by which file hints.
type Annotation struct {
	IssueA, IssueB string
	Overlap        Overlap
}

// String renders the annotation for run reports.
func (a Annotation) String() string {
	files := a.Overlap.PatternA
	if a.Overlap.PatternA != a.Overlap.PatternB {
		files = a.Overlap.PatternA + " / " + a.Overlap.PatternB
	}
	return fmt.Sprintf("%s and %s both touch %s; serialized into different sub-waves",
		a.IssueA, a.IssueB, files)
}

// Refinement is the result of splitting one wave.
type Refinement struct {
	// SubWaves covers every wave member exactly once, in execution order.
	SubWaves []SubWave
	// Annotations lists every conflicting pair that forced a split.
	// Empty when the wave needed no serialization.
	Annotations []Annotation
}

// Refine partitions a wave into ordered sub-waves such that no two
// issues sharing a touched file land in the same sub-wave. files maps
// issue ID to its touched-file hints; a missing or empty entry means
// unknown and conflicts with nothing.
//
// The partition is a greedy maximal-independent-set extraction in
// lexical ID order, so the result is deterministic for a given input.
// A wave of size one always yields exactly one sub-wave.
func Refine(wave graph.Wave, files map[string][]string) Refinement {
	ids := append([]string(nil), wave.IssueIDs...)
	sort.Strings(ids)

	// Precompute the conflict relation and its annotations.
	conflicts := make(map[string]map[string]bool, len(ids))
	var annotations []Annotation
	for i := 0; i < len(ids); i++ {
		for j := i + 1; j < len(ids); j++ {
			a, b := ids[i], ids[j]
			ov, overlaps := hintsOverlap(files[a], files[b])
			if !overlaps {
				continue
			}
			if conflicts[a] == nil {
				conflicts[a] = make(map[string]bool)
			}
			if conflicts[b] == nil {
				conflicts[b] = make(map[string]bool)
			}
			conflicts[a][b] = true
			conflicts[b][a] = true
			annotations = append(annotations, Annotation{IssueA: a, IssueB: b, Overlap: ov})
		}
	}

	var subWaves []SubWave
	remaining := ids
	for len(remaining) > 0 {
		var group, rest []string
		for _, id := range remaining {
			clash := false
			for _, member := range group {
				if conflicts[id][member] {
					clash = true
					break
				}
			}
			if clash {
				rest = append(rest, id)
			} else {
				group = append(group, id)
			}
		}
		subWaves = append(subWaves, SubWave{Number: len(subWaves) + 1, IssueIDs: group})
		remaining = rest
	}

	return Refinement{SubWaves: subWaves, Annotations: annotations}
}
