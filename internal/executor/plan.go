// Package executor drives the wave/sub-wave plan to completion with a
// bounded pool of workers, one isolated sandbox per in-flight issue.
// Dependency safety comes from the wave barrier; file-write safety
// comes from the sub-wave barrier inside each wave.
package executor

import (
	"github.com/BrennonTWilliams/little-loops/internal/conflict"
	"github.com/BrennonTWilliams/little-loops/internal/graph"
	"github.com/BrennonTWilliams/little-loops/internal/issue"
	"github.com/BrennonTWilliams/little-loops/internal/report"
)

// PlannedWave pairs a dependency wave with its file-overlap refinement.
type PlannedWave struct {
	Wave       graph.Wave
	Refinement conflict.Refinement
}

// Plan is the complete execution order for a selected issue set.
type Plan struct {
	Graph  *graph.Graph
	Waves  []PlannedWave
	Issues map[string]*issue.Issue
}

// BuildPlan computes waves from the dependency graph and refines each
// wave into file-overlap-safe sub-waves. A dependency cycle surfaces
// as a *graph.CycleError before anything executes.
func BuildPlan(issues []issue.Issue) (*Plan, error) {
	g, err := graph.Build(issues)
	if err != nil {
		return nil, err
	}
	waves, err := g.ComputeWaves()
	if err != nil {
		return nil, err
	}

	byID, err := issue.ByID(issues)
	if err != nil {
		return nil, err
	}
	files := make(map[string][]string, len(byID))
	for id, is := range byID {
		files[id] = is.Files
	}

	planned := make([]PlannedWave, 0, len(waves))
	for _, w := range waves {
		planned = append(planned, PlannedWave{
			Wave:       w,
			Refinement: conflict.Refine(w, files),
		})
	}
	return &Plan{Graph: g, Waves: planned, Issues: byID}, nil
}

// WavePlans converts the plan into its report form.
func (p *Plan) WavePlans() []report.WavePlan {
	out := make([]report.WavePlan, 0, len(p.Waves))
	for _, pw := range p.Waves {
		wp := report.WavePlan{Number: pw.Wave.Number}
		for _, sw := range pw.Refinement.SubWaves {
			wp.SubWaves = append(wp.SubWaves, report.SubWavePlan{
				Number:   sw.Number,
				IssueIDs: sw.IssueIDs,
			})
		}
		for _, a := range pw.Refinement.Annotations {
			wp.Annotations = append(wp.Annotations, a.String())
		}
		out = append(out, wp)
	}
	return out
}
