// Package report assembles the run report: the wave/sub-wave plan, a
// per-issue outcome for every selected issue, and the conflict
// annotations behind each serialization decision. Reports render both
// human-readable and as JSON.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"
)

// Status is the final per-issue outcome. Every selected issue appears
// in the report with exactly one of these; issues are never silently
// dropped.
type Status string

const (
	// StatusSucceeded means the step completed and its result was
	// accepted by validation.
	StatusSucceeded Status = "succeeded"
	// StatusFailed means the sandbox, the step, or its verdict failed.
	StatusFailed Status = "failed"
	// StatusSkippedMismatch means validation rejected the result
	// because the validated-file marker named the wrong file.
	StatusSkippedMismatch Status = "skipped-mismatch"
	// StatusSkippedCycle means the run aborted on a dependency cycle
	// before any execution.
	StatusSkippedCycle Status = "skipped-cycle"
)

// IssueResult is one issue's outcome.
type IssueResult struct {
	IssueID string `json:"issue_id"`
	Status  Status `json:"status"`
	// Verdict is the step's decision ("proceed", "skip", "fail",
	// "unknown"); empty when the step never ran.
	Verdict string `json:"verdict,omitempty"`
	// ValidatedFile is the canonical path the step reported analyzing.
	ValidatedFile string `json:"validated_file,omitempty"`
	// Unverified marks a result accepted without a validated-file
	// marker under the accept policy.
	Unverified bool `json:"unverified,omitempty"`
	// Error is the failure or rejection diagnostic.
	Error string `json:"error,omitempty"`
	// Wave and SubWave locate the issue in the executed plan (1-based;
	// zero when the plan never ran).
	Wave    int `json:"wave,omitempty"`
	SubWave int `json:"sub_wave,omitempty"`
	// DurationMS is the external step's wall-clock time.
	DurationMS int64 `json:"duration_ms,omitempty"`
}

// SubWavePlan is one file-overlap-safe group in the plan.
type SubWavePlan struct {
	Number   int      `json:"number"`
	IssueIDs []string `json:"issue_ids"`
}

// WavePlan is one dependency layer in the plan, with its sub-wave
// split and the conflict annotations that forced it.
type WavePlan struct {
	Number      int           `json:"number"`
	SubWaves    []SubWavePlan `json:"sub_waves"`
	Annotations []string      `json:"annotations,omitempty"`
}

// Report is the full outcome of a scheduling run.
type Report struct {
	Project   string        `json:"project,omitempty"`
	Started   time.Time     `json:"started"`
	Finished  time.Time     `json:"finished"`
	Cancelled bool          `json:"cancelled,omitempty"`
	Waves     []WavePlan    `json:"waves,omitempty"`
	Results   []IssueResult `json:"results"`
	// CycleError holds the rendered cycle diagnostic when the run
	// aborted before execution.
	CycleError string `json:"cycle_error,omitempty"`
}

// Add appends a result.
func (r *Report) Add(res IssueResult) {
	r.Results = append(r.Results, res)
}

// Sort orders results by issue ID for stable output.
func (r *Report) Sort() {
	sort.Slice(r.Results, func(i, j int) bool {
		return r.Results[i].IssueID < r.Results[j].IssueID
	})
}

// Counts tallies results per status.
func (r *Report) Counts() map[Status]int {
	counts := make(map[Status]int)
	for _, res := range r.Results {
		counts[res.Status]++
	}
	return counts
}

// CycleReport builds the report for a run aborted by a dependency
// cycle: every selected issue is enumerated as skipped-cycle and
// nothing executes.
func CycleReport(project string, issueIDs []string, diagnostic string) *Report {
	now := time.Now()
	r := &Report{
		Project:    project,
		Started:    now,
		Finished:   now,
		CycleError: diagnostic,
	}
	for _, id := range issueIDs {
		r.Add(IssueResult{IssueID: id, Status: StatusSkippedCycle, Error: diagnostic})
	}
	r.Sort()
	return r
}

// WriteJSON renders the machine-readable form.
func (r *Report) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// Render writes the human-readable report.
func (r *Report) Render(w io.Writer) {
	if r.Project != "" {
		fmt.Fprintf(w, "Run report: %s\n", r.Project)
	} else {
		fmt.Fprintf(w, "Run report\n")
	}

	if r.CycleError != "" {
		fmt.Fprintf(w, "  ABORTED: %s\n\n", r.CycleError)
	}

	for _, wave := range r.Waves {
		fmt.Fprintf(w, "Wave %d:\n", wave.Number)
		for _, sw := range wave.SubWaves {
			fmt.Fprintf(w, "  Sub-wave %d.%d: %v\n", wave.Number, sw.Number, sw.IssueIDs)
		}
		for _, a := range wave.Annotations {
			fmt.Fprintf(w, "  conflict: %s\n", a)
		}
	}
	if len(r.Waves) > 0 {
		fmt.Fprintln(w)
	}

	for _, res := range r.Results {
		line := fmt.Sprintf("%-12s %s", res.IssueID, res.Status)
		if res.Verdict != "" {
			line += fmt.Sprintf(" (verdict: %s)", res.Verdict)
		}
		if res.Unverified {
			line += " [unverified]"
		}
		if res.DurationMS > 0 {
			line += fmt.Sprintf(" %.1fs", float64(res.DurationMS)/1000)
		}
		fmt.Fprintln(w, line)
		if res.Error != "" {
			fmt.Fprintf(w, "             ↳ %s\n", res.Error)
		}
	}

	counts := r.Counts()
	fmt.Fprintf(w, "\n%d issues: %d succeeded, %d failed, %d skipped-mismatch, %d skipped-cycle\n",
		len(r.Results), counts[StatusSucceeded], counts[StatusFailed],
		counts[StatusSkippedMismatch], counts[StatusSkippedCycle])
	if r.Cancelled {
		fmt.Fprintln(w, "run cancelled before completion")
	}
}
