package graph

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/BrennonTWilliams/little-loops/internal/issue"
)

func mk(id string, deps ...string) issue.Issue {
	return issue.Issue{ID: id, DependsOn: deps}
}

func TestBuildCycleDetection(t *testing.T) {
	t.Parallel()

	t.Run("self dependency", func(t *testing.T) {
		t.Parallel()
		_, err := Build([]issue.Issue{mk("BUG-1", "BUG-1")})
		var cerr *CycleError
		if !errors.As(err, &cerr) {
			t.Fatalf("err = %v, want *CycleError", err)
		}
		if !reflect.DeepEqual(cerr.Cycle, []string{"BUG-1"}) {
			t.Errorf("Cycle = %v", cerr.Cycle)
		}
	})

	t.Run("two node cycle reports full path", func(t *testing.T) {
		t.Parallel()
		_, err := Build([]issue.Issue{
			mk("BUG-1", "BUG-2"),
			mk("BUG-2", "BUG-1"),
		})
		var cerr *CycleError
		if !errors.As(err, &cerr) {
			t.Fatalf("err = %v, want *CycleError", err)
		}
		if len(cerr.Cycle) != 2 {
			t.Fatalf("Cycle = %v, want 2 nodes", cerr.Cycle)
		}
		if !errors.Is(err, ErrCycle) {
			t.Error("cycle error does not unwrap to ErrCycle")
		}
		// The message names every node and closes the loop.
		msg := cerr.Error()
		for _, id := range []string{"BUG-1", "BUG-2"} {
			if !strings.Contains(msg, id) {
				t.Errorf("error %q missing %s", msg, id)
			}
		}
	})

	t.Run("longer cycle behind a chain", func(t *testing.T) {
		t.Parallel()
		_, err := Build([]issue.Issue{
			mk("BUG-1", "BUG-2"),
			mk("BUG-2", "BUG-3"),
			mk("BUG-3", "BUG-4"),
			mk("BUG-4", "BUG-2"),
		})
		var cerr *CycleError
		if !errors.As(err, &cerr) {
			t.Fatalf("err = %v, want *CycleError", err)
		}
		if len(cerr.Cycle) != 3 {
			t.Errorf("Cycle = %v, want the 3-node loop only", cerr.Cycle)
		}
	})

	t.Run("duplicate ID", func(t *testing.T) {
		t.Parallel()
		_, err := Build([]issue.Issue{mk("BUG-1"), mk("BUG-1")})
		if err == nil {
			t.Fatal("expected error for duplicate ID")
		}
	})
}

func TestExternalDepsSatisfied(t *testing.T) {
	t.Parallel()

	g, err := Build([]issue.Issue{
		mk("BUG-1", "BUG-99", "EXT-5"),
		mk("BUG-2", "BUG-1"),
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if deps := g.Deps("BUG-1"); len(deps) != 0 {
		t.Errorf("Deps(BUG-1) = %v, want none in-selection", deps)
	}
	ext := g.ExternalDeps("BUG-1")
	if !reflect.DeepEqual(ext, []string{"BUG-99", "EXT-5"}) {
		t.Errorf("ExternalDeps = %v", ext)
	}

	// External deps never block: BUG-1 lands in wave 1.
	waves, err := g.ComputeWaves()
	if err != nil {
		t.Fatalf("ComputeWaves: %v", err)
	}
	if !reflect.DeepEqual(waves[0].IssueIDs, []string{"BUG-1"}) {
		t.Errorf("wave 1 = %v", waves[0].IssueIDs)
	}
}

func TestComputeWaves(t *testing.T) {
	t.Parallel()

	// C depends on A; B depends on C. Expected layering:
	// wave 1 {A}, wave 2 {C}, wave 3 {B}.
	g, err := Build([]issue.Issue{
		mk("BUG-A-1"),
		mk("BUG-B-2", "BUG-C-3"),
		mk("BUG-C-3", "BUG-A-1"),
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	waves, err := g.ComputeWaves()
	if err != nil {
		t.Fatalf("ComputeWaves: %v", err)
	}

	want := [][]string{{"BUG-A-1"}, {"BUG-C-3"}, {"BUG-B-2"}}
	if len(waves) != len(want) {
		t.Fatalf("got %d waves, want %d", len(waves), len(want))
	}
	for i, w := range waves {
		if w.Number != i+1 {
			t.Errorf("wave %d numbered %d", i, w.Number)
		}
		if !reflect.DeepEqual(w.IssueIDs, want[i]) {
			t.Errorf("wave %d = %v, want %v", w.Number, w.IssueIDs, want[i])
		}
	}
}

func TestWavesRespectEveryEdge(t *testing.T) {
	t.Parallel()

	issues := []issue.Issue{
		mk("BUG-1"),
		mk("BUG-2", "BUG-1"),
		mk("BUG-3", "BUG-1"),
		mk("BUG-4", "BUG-2", "BUG-3"),
		mk("BUG-5"),
		mk("BUG-6", "BUG-5", "BUG-4"),
	}
	g, err := Build(issues)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	waves, err := g.ComputeWaves()
	if err != nil {
		t.Fatalf("ComputeWaves: %v", err)
	}

	waveOf := make(map[string]int)
	for _, w := range waves {
		for _, id := range w.IssueIDs {
			waveOf[id] = w.Number
		}
	}
	if len(waveOf) != len(issues) {
		t.Fatalf("placed %d issues, want %d", len(waveOf), len(issues))
	}
	for _, is := range issues {
		for _, dep := range is.DependsOn {
			if waveOf[dep] >= waveOf[is.ID] {
				t.Errorf("%s (wave %d) not after its dependency %s (wave %d)",
					is.ID, waveOf[is.ID], dep, waveOf[dep])
			}
		}
	}
}

func TestWavesDeterministic(t *testing.T) {
	t.Parallel()

	issues := []issue.Issue{
		mk("BUG-3"), mk("BUG-1"), mk("BUG-2"),
		mk("BUG-5", "BUG-3"), mk("BUG-4", "BUG-1"),
	}
	g1, err := Build(issues)
	if err != nil {
		t.Fatal(err)
	}
	w1, err := g1.ComputeWaves()
	if err != nil {
		t.Fatal(err)
	}

	// Same selection in reverse input order yields identical waves.
	reversed := make([]issue.Issue, len(issues))
	for i, is := range issues {
		reversed[len(issues)-1-i] = is
	}
	g2, err := Build(reversed)
	if err != nil {
		t.Fatal(err)
	}
	w2, err := g2.ComputeWaves()
	if err != nil {
		t.Fatal(err)
	}

	if !reflect.DeepEqual(w1, w2) {
		t.Errorf("waves differ across input orders:\n%v\n%v", w1, w2)
	}
	for _, w := range w1 {
		if !sortedStrings(w.IssueIDs) {
			t.Errorf("wave %d not lexically sorted: %v", w.Number, w.IssueIDs)
		}
	}
}

func sortedStrings(s []string) bool {
	for i := 1; i < len(s); i++ {
		if s[i-1] > s[i] {
			return false
		}
	}
	return true
}
