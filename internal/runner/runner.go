// Package runner invokes the external issue-processing step inside a
// sandbox. The step's semantics are opaque to the scheduler; only its
// raw output matters, and that is handed to the result validator.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"
)

// ErrExternalStep indicates the issue-processing command failed or
// timed out. It is always scoped to a single issue.
var ErrExternalStep = errors.New("external step failed")

// StepError wraps a per-issue external step failure.
type StepError struct {
	IssueID string
	Err     error
	// TimedOut is set when the step exceeded the configured timeout.
	TimedOut bool
}

// Error names the issue for the per-issue report.
func (e *StepError) Error() string {
	if e.TimedOut {
		return fmt.Sprintf("external step for %s timed out: %v", e.IssueID, e.Err)
	}
	return fmt.Sprintf("external step for %s: %v", e.IssueID, e.Err)
}

// Unwrap allows errors.Is(err, ErrExternalStep).
func (e *StepError) Unwrap() error { return ErrExternalStep }

// issueToken is replaced in the command template with the absolute
// issue record path.
const issueToken = "{{issue}}"

// StepResult is the captured outcome of one external invocation.
type StepResult struct {
	// Output is the raw stdout of the step, fed to the validator.
	Output string
	// Stderr is kept for diagnostics only.
	Stderr string
	// Duration is the wall-clock time of the invocation.
	Duration time.Duration
}

// Runner executes the configured issue-processing command.
type Runner struct {
	// Command is the shell command template; {{issue}} expands to the
	// absolute issue record path.
	Command string
	// Timeout bounds a single invocation. Zero disables it.
	Timeout time.Duration
	// Verbose echoes each invocation to Logger.
	Verbose bool
	// Logger receives diagnostics; nil means os.Stderr.
	Logger io.Writer
}

// logger returns the effective log writer (os.Stderr if Logger is nil).
func (r *Runner) logger() io.Writer {
	if r.Logger != nil {
		return r.Logger
	}
	return os.Stderr
}

// Run invokes the step for one issue with the sandbox root as working
// directory. The issue record path is exposed both through the
// {{issue}} template token and the LL_ISSUE_FILE environment variable.
func (r *Runner) Run(ctx context.Context, issueID, recordPath, workDir string) (*StepResult, error) {
	if strings.TrimSpace(r.Command) == "" {
		return nil, &StepError{IssueID: issueID,
			Err: fmt.Errorf("no run.command configured in %s", "loops.toml")}
	}

	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	command := strings.ReplaceAll(r.Command, issueToken, recordPath)
	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	cmd.Dir = workDir
	cmd.Env = append(os.Environ(), "LL_ISSUE_FILE="+recordPath)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if r.Verbose {
		fmt.Fprintf(r.logger(), "[runner] %s: %s\n", issueID, command)
	}

	start := time.Now()
	err := cmd.Run()
	elapsed := time.Since(start)

	if err != nil {
		timedOut := errors.Is(ctx.Err(), context.DeadlineExceeded)
		return nil, &StepError{
			IssueID:  issueID,
			TimedOut: timedOut,
			Err: fmt.Errorf("%w: %s (stderr: %s)", err,
				command, firstLine(stderr.String())),
		}
	}

	return &StepResult{
		Output:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: elapsed,
	}, nil
}

// firstLine trims stderr to its first non-empty line for error messages.
func firstLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
