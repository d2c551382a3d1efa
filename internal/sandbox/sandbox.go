// Package sandbox manages isolated git worktrees, one per concurrently
// executing issue. Workers never touch the top-level working tree:
// every issue runs inside a disposable copy that is created on
// dispatch, seeded with auxiliary files, and removed on every exit
// path.
package sandbox

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/cenkalti/backoff/v4"
)

// ErrSandbox indicates the version-control system could not create or
// remove an isolation point.
var ErrSandbox = errors.New("sandbox operation failed")

// SandboxError wraps a per-issue sandbox failure. It is scoped to one
// issue and never aborts sibling executions.
type SandboxError struct {
	IssueID string
	Op      string // "acquire", "seed" or "release"
	Err     error
}

// Error names the issue and operation for the per-issue report.
func (e *SandboxError) Error() string {
	return fmt.Sprintf("sandbox %s for %s: %v", e.Op, e.IssueID, e.Err)
}

// Unwrap allows errors.Is(err, ErrSandbox) and unwrapping the cause.
func (e *SandboxError) Unwrap() error { return e.Err }

// Worktree is an isolated filesystem root bound to exactly one
// executing issue for the lifetime of that execution.
type Worktree struct {
	// IssueID is the owning issue.
	IssueID string
	// Dir is the absolute root of the isolated tree.
	Dir string
	// Branch is the git branch the worktree is checked out on.
	Branch string
}

// Manager creates and destroys worktrees under a single base directory.
type Manager struct {
	// RepoDir is the repository root the worktrees branch from.
	RepoDir string
	// BaseDir is where worktrees live, relative to RepoDir.
	// Empty means ".ll-worktrees".
	BaseDir string
	// MaxRetries bounds acquisition attempts beyond the first try.
	MaxRetries int
	// DirPolicy controls seeding when a declared path is a directory:
	// "skip" or "copy".
	DirPolicy string
	// Logger receives warnings; nil means os.Stderr.
	Logger io.Writer
}

// NewManager creates a Manager rooted at repoDir. Returns an error if
// git is unavailable or repoDir is not inside a git repository, since
// no isolation point can ever be created in that case.
func NewManager(ctx context.Context, repoDir string) (*Manager, error) {
	if _, err := exec.LookPath("git"); err != nil {
		return nil, fmt.Errorf("%w: git not available: %v", ErrSandbox, err)
	}
	cmd := exec.CommandContext(ctx, "git", "-C", repoDir, "rev-parse", "--git-dir")
	if out, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("%w: not a git repository: %v: %s",
			ErrSandbox, err, strings.TrimSpace(string(out)))
	}
	return &Manager{RepoDir: repoDir, BaseDir: ".ll-worktrees"}, nil
}

// logger returns the effective log writer (os.Stderr if Logger is nil).
func (m *Manager) logger() io.Writer {
	if m.Logger != nil {
		return m.Logger
	}
	return os.Stderr
}

// baseDir returns the absolute worktree base directory.
func (m *Manager) baseDir() string {
	base := m.BaseDir
	if base == "" {
		base = ".ll-worktrees"
	}
	if filepath.IsAbs(base) {
		return base
	}
	return filepath.Join(m.RepoDir, base)
}

// Acquire creates an isolated worktree for the issue on branch
// loops/<issue-id>, retrying with bounded exponential backoff when the
// underlying git operation fails (dirty state, lock contention).
// After the retry budget is exhausted it returns a *SandboxError.
func (m *Manager) Acquire(ctx context.Context, issueID string) (*Worktree, error) {
	dir := filepath.Join(m.baseDir(), issueID)
	branch := "loops/" + issueID

	if err := os.MkdirAll(m.baseDir(), 0o755); err != nil {
		return nil, &SandboxError{IssueID: issueID, Op: "acquire",
			Err: fmt.Errorf("%w: %v", ErrSandbox, err)}
	}

	// A leftover worktree from a crashed run shadows the new one;
	// remove it before adding.
	if _, err := os.Stat(dir); err == nil {
		m.remove(ctx, dir)
	}

	op := func() error {
		cmd := exec.CommandContext(ctx, "git", "-C", m.RepoDir,
			"worktree", "add", "-B", branch, dir, "HEAD")
		var stderr bytes.Buffer
		cmd.Stderr = &stderr
		if err := cmd.Run(); err != nil {
			return fmt.Errorf("git worktree add: %w: %s",
				err, strings.TrimSpace(stderr.String()))
		}
		return nil
	}

	bo := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), uint64(m.MaxRetries)), ctx)
	if err := backoff.Retry(op, bo); err != nil {
		return nil, &SandboxError{IssueID: issueID, Op: "acquire",
			Err: fmt.Errorf("%w: %v", ErrSandbox, err)}
	}

	return &Worktree{IssueID: issueID, Dir: dir, Branch: branch}, nil
}

// Release removes the worktree. It is safe on every exit path: normal
// completion, failure, and cancellation all call it, so sandboxes never
// accumulate across runs. Removal failures fall back to deleting the
// directory and pruning git's bookkeeping.
func (m *Manager) Release(ctx context.Context, wt *Worktree) error {
	if wt == nil {
		return nil
	}
	if err := m.remove(ctx, wt.Dir); err != nil {
		return &SandboxError{IssueID: wt.IssueID, Op: "release",
			Err: fmt.Errorf("%w: %v", ErrSandbox, err)}
	}
	return nil
}

// remove runs git worktree remove with a filesystem fallback.
// Release runs on cancellation paths where ctx is already done, so git
// commands here deliberately use context.Background().
func (m *Manager) remove(_ context.Context, dir string) error {
	cmd := exec.Command("git", "-C", m.RepoDir, "worktree", "remove", "--force", dir)
	if err := cmd.Run(); err == nil {
		return nil
	}
	if err := os.RemoveAll(dir); err != nil {
		return err
	}
	// Clear the stale registration left behind by the manual removal.
	_ = exec.Command("git", "-C", m.RepoDir, "worktree", "prune").Run()
	return nil
}

// Sweep removes every worktree under the base directory, for cleanup
// after crashed runs. Returns the number removed.
func (m *Manager) Sweep(ctx context.Context) (int, error) {
	entries, err := os.ReadDir(m.baseDir())
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: reading %s: %v", ErrSandbox, m.baseDir(), err)
	}

	removed := 0
	var errs []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		dir := filepath.Join(m.baseDir(), e.Name())
		if err := m.remove(ctx, dir); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", dir, err))
			continue
		}
		removed++
	}
	// Drop the base directory once it is empty.
	_ = os.Remove(m.baseDir())

	if len(errs) > 0 {
		return removed, fmt.Errorf("%w: %s", ErrSandbox, strings.Join(errs, "; "))
	}
	return removed, nil
}
