package executor

import (
	"errors"
	"reflect"
	"testing"

	"github.com/BrennonTWilliams/little-loops/internal/graph"
	"github.com/BrennonTWilliams/little-loops/internal/issue"
)

func TestBuildPlan(t *testing.T) {
	t.Parallel()

	// C depends on A, B depends on C. A and C share no files with
	// anything in their wave; the layering alone drives the order.
	issues := []issue.Issue{
		{ID: "BUG-A-1"},
		{ID: "BUG-B-2", DependsOn: []string{"BUG-C-3"}},
		{ID: "BUG-C-3", DependsOn: []string{"BUG-A-1"}},
	}

	plan, err := BuildPlan(issues)
	if err != nil {
		t.Fatalf("BuildPlan: %v", err)
	}
	if len(plan.Waves) != 3 {
		t.Fatalf("got %d waves, want 3", len(plan.Waves))
	}

	want := [][]string{{"BUG-A-1"}, {"BUG-C-3"}, {"BUG-B-2"}}
	for i, pw := range plan.Waves {
		if !reflect.DeepEqual(pw.Wave.IssueIDs, want[i]) {
			t.Errorf("wave %d = %v, want %v", pw.Wave.Number, pw.Wave.IssueIDs, want[i])
		}
		// Every wave carries at least one sub-wave covering its members.
		if len(pw.Refinement.SubWaves) != 1 {
			t.Errorf("wave %d sub-waves = %v", pw.Wave.Number, pw.Refinement.SubWaves)
		}
	}
}

func TestBuildPlanIndependentIssuesShareSubWave(t *testing.T) {
	t.Parallel()

	// A and C are independent with disjoint files: same wave, same
	// sub-wave. B waits for A in the next wave even though it touches
	// the same file (the dependency already serializes them).
	issues := []issue.Issue{
		{ID: "BUG-A-1", Files: []string{"x.py"}},
		{ID: "BUG-B-2", DependsOn: []string{"BUG-A-1"}, Files: []string{"x.py"}},
		{ID: "BUG-C-3", Files: []string{"y.py"}},
	}

	plan, err := BuildPlan(issues)
	if err != nil {
		t.Fatalf("BuildPlan: %v", err)
	}
	if len(plan.Waves) != 2 {
		t.Fatalf("got %d waves, want 2", len(plan.Waves))
	}

	w1 := plan.Waves[0]
	if !reflect.DeepEqual(w1.Wave.IssueIDs, []string{"BUG-A-1", "BUG-C-3"}) {
		t.Errorf("wave 1 = %v", w1.Wave.IssueIDs)
	}
	if len(w1.Refinement.SubWaves) != 1 {
		t.Errorf("wave 1 sub-waves = %v, want A and C together", w1.Refinement.SubWaves)
	}
	if !reflect.DeepEqual(plan.Waves[1].Wave.IssueIDs, []string{"BUG-B-2"}) {
		t.Errorf("wave 2 = %v", plan.Waves[1].Wave.IssueIDs)
	}
}

func TestBuildPlanRefinesOverlaps(t *testing.T) {
	t.Parallel()

	issues := []issue.Issue{
		{ID: "BUG-D-4", Files: []string{"src/shared.py"}},
		{ID: "BUG-E-5", Files: []string{"src/shared.py"}},
	}

	plan, err := BuildPlan(issues)
	if err != nil {
		t.Fatalf("BuildPlan: %v", err)
	}
	if len(plan.Waves) != 1 {
		t.Fatalf("got %d waves, want 1", len(plan.Waves))
	}
	ref := plan.Waves[0].Refinement
	if len(ref.SubWaves) != 2 {
		t.Fatalf("sub-waves = %v, want the pair serialized", ref.SubWaves)
	}
	if len(ref.Annotations) != 1 {
		t.Errorf("annotations = %v, want one", ref.Annotations)
	}
}

func TestBuildPlanCycle(t *testing.T) {
	t.Parallel()

	issues := []issue.Issue{
		{ID: "BUG-1", DependsOn: []string{"BUG-2"}},
		{ID: "BUG-2", DependsOn: []string{"BUG-1"}},
	}
	_, err := BuildPlan(issues)
	var cerr *graph.CycleError
	if !errors.As(err, &cerr) {
		t.Fatalf("err = %v, want *graph.CycleError", err)
	}
}

func TestWavePlans(t *testing.T) {
	t.Parallel()

	plan, err := BuildPlan([]issue.Issue{
		{ID: "BUG-1", Files: []string{"a.go"}},
		{ID: "BUG-2", Files: []string{"a.go"}},
	})
	if err != nil {
		t.Fatal(err)
	}

	wps := plan.WavePlans()
	if len(wps) != 1 {
		t.Fatalf("WavePlans = %v", wps)
	}
	if len(wps[0].SubWaves) != 2 {
		t.Errorf("sub-waves = %v", wps[0].SubWaves)
	}
	if len(wps[0].Annotations) != 1 {
		t.Errorf("annotations = %v", wps[0].Annotations)
	}
}
