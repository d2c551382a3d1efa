package executor

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/BrennonTWilliams/little-loops/internal/issue"
	"github.com/BrennonTWilliams/little-loops/internal/report"
	"github.com/BrennonTWilliams/little-loops/internal/result"
	"github.com/BrennonTWilliams/little-loops/internal/runner"
	"github.com/BrennonTWilliams/little-loops/internal/sandbox"
)

// Engine executes a plan: waves in order, sub-waves in order within
// each wave, sub-wave members concurrently up to MaxWorkers.
type Engine struct {
	Sandboxes *sandbox.Manager
	Runner    *runner.Runner
	// SeedPaths are copied into every sandbox before execution.
	SeedPaths []string
	// MaxWorkers bounds concurrent issue executions. Values below one
	// are treated as one.
	MaxWorkers int
	// UnverifiedPolicy is "accept" or "reject" for results without a
	// validated-file marker.
	UnverifiedPolicy string
	// Project names the run in the report.
	Project string
	// Logger receives progress lines; nil means os.Stderr.
	Logger io.Writer

	mu  sync.Mutex
	rep *report.Report
}

// logger returns the effective log writer (os.Stderr if Logger is nil).
func (e *Engine) logger() io.Writer {
	if e.Logger != nil {
		return e.Logger
	}
	return os.Stderr
}

// Run drives the plan to completion and returns the report. Every
// selected issue appears in the report exactly once.
//
// Barriers: a sub-wave's members all finish (success or failure)
// before the next sub-wave starts, and a wave's sub-waves all finish
// before the next wave starts. One issue's failure never blocks or
// cancels its siblings.
//
// Cancellation: once ctx is done, in-flight issues finish and are
// recorded, no new sub-wave or wave starts, and every issue that never
// dispatched is reported as failed with a cancellation diagnostic.
// Sandboxes are released on all paths.
func (e *Engine) Run(ctx context.Context, plan *Plan) *report.Report {
	workers := e.MaxWorkers
	if workers < 1 {
		workers = 1
	}
	sem := semaphore.NewWeighted(int64(workers))

	e.rep = &report.Report{
		Project: e.Project,
		Started: time.Now(),
		Waves:   plan.WavePlans(),
	}

	dispatched := make(map[string]bool, len(plan.Issues))

	for _, pw := range plan.Waves {
		if ctx.Err() != nil {
			break
		}
		fmt.Fprintf(e.logger(), "wave %d: %d issue(s) in %d sub-wave(s)\n",
			pw.Wave.Number, len(pw.Wave.IssueIDs), len(pw.Refinement.SubWaves))

		for _, sw := range pw.Refinement.SubWaves {
			if ctx.Err() != nil {
				break
			}

			var wg sync.WaitGroup
			for _, id := range sw.IssueIDs {
				// The semaphore bounds concurrency; acquisition fails
				// only when ctx is cancelled, in which case the issue
				// stays undispatched and is reported below.
				if err := sem.Acquire(ctx, 1); err != nil {
					break
				}
				dispatched[id] = true
				wg.Add(1)
				go func(id string, wave, subWave int) {
					defer wg.Done()
					defer sem.Release(1)
					res := e.executeIssue(ctx, plan.Issues[id])
					res.Wave = wave
					res.SubWave = subWave
					e.record(res)
				}(id, pw.Wave.Number, sw.Number)
			}
			// Sub-wave barrier: file-overlap safety.
			wg.Wait()
		}
		// Wave barrier: dependency safety. All sub-waves of this wave
		// have already joined above.
	}

	// Enumerate issues that never dispatched (cancellation).
	for _, id := range plan.Graph.IDs() {
		if !dispatched[id] {
			e.record(report.IssueResult{
				IssueID: id,
				Status:  report.StatusFailed,
				Error:   "run cancelled before dispatch",
			})
		}
	}

	e.rep.Cancelled = ctx.Err() != nil
	e.rep.Finished = time.Now()
	e.rep.Sort()
	return e.rep
}

// record appends a result under the engine mutex.
func (e *Engine) record(res report.IssueResult) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.rep.Add(res)
}

// executeIssue runs one issue's full pipeline: acquire sandbox, seed,
// invoke the external step, validate the output, release the sandbox.
// All failures are scoped to this issue.
func (e *Engine) executeIssue(ctx context.Context, is *issue.Issue) report.IssueResult {
	res := report.IssueResult{IssueID: is.ID}

	wt, err := e.Sandboxes.Acquire(ctx, is.ID)
	if err != nil {
		res.Status = report.StatusFailed
		res.Error = err.Error()
		return res
	}
	// Guaranteed cleanup on every exit path, including panics in the
	// external step plumbing.
	defer func() {
		if relErr := e.Sandboxes.Release(ctx, wt); relErr != nil {
			fmt.Fprintf(e.logger(), "warning: %v\n", relErr)
		}
	}()

	if err := e.Sandboxes.Seed(ctx, wt, e.SeedPaths); err != nil {
		res.Status = report.StatusFailed
		res.Error = err.Error()
		return res
	}

	step, err := e.Runner.Run(ctx, is.ID, is.Path, wt.Dir)
	if err != nil {
		res.Status = report.StatusFailed
		res.Error = err.Error()
		return res
	}
	res.DurationMS = step.Duration.Milliseconds()

	out := result.Parse(step.Output)
	for _, h := range out.Unrecognized {
		fmt.Fprintf(e.logger(), "warning: %s: unrecognized output section %q\n", is.ID, h)
	}

	validation := result.Validate(is.Path, out, e.UnverifiedPolicy)
	res.Verdict = string(out.Verdict)
	res.ValidatedFile = validation.Actual

	switch validation.Status {
	case result.StatusRejected:
		res.Status = report.StatusSkippedMismatch
		res.Error = validation.Err.Error()
	case result.StatusUnverified:
		res.Unverified = true
		res.Status = verdictStatus(out.Verdict)
	case result.StatusAccepted:
		res.Status = verdictStatus(out.Verdict)
	}
	if res.Status == report.StatusFailed && res.Error == "" {
		res.Error = fmt.Sprintf("step verdict %q", out.Verdict)
	}
	return res
}

// verdictStatus maps an accepted step verdict onto a report status.
// A proceed or skip verdict is a successful execution; fail and
// unknown verdicts are failures.
func verdictStatus(v result.Verdict) report.Status {
	switch v {
	case result.VerdictProceed, result.VerdictSkip:
		return report.StatusSucceeded
	default:
		return report.StatusFailed
	}
}
