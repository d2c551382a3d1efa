package sandbox

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Seed copies the declared auxiliary paths into the worktree before
// execution. Paths are interpreted relative to the repository root and
// land at the same relative location inside the sandbox; a source
// outside the repository lands at the sandbox root under its base name.
//
// A path that turns out to be a directory is handled per the manager's
// DirPolicy: recursively copied ("copy") or skipped with a warning
// ("skip"). A directory is never passed to a plain file copy, and no
// single bad path aborts the run; problems are logged and the
// remaining paths are still seeded.
func (m *Manager) Seed(ctx context.Context, wt *Worktree, paths []string) error {
	var firstErr error
	for _, p := range paths {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		src := p
		if !filepath.IsAbs(src) {
			src = filepath.Join(m.RepoDir, p)
		}
		// Sources outside the repository root seed flat at the worktree
		// root, so a manifest path can never place a copy outside the
		// sandbox.
		rel, err := filepath.Rel(m.RepoDir, src)
		if err != nil || escapes(rel) {
			rel = filepath.Base(src)
		}
		dst := filepath.Join(wt.Dir, rel)
		if inner, err := filepath.Rel(wt.Dir, dst); err != nil || escapes(inner) {
			fmt.Fprintf(m.logger(), "warning: seed path %s resolves outside the sandbox (skipped)\n", p)
			continue
		}

		info, err := os.Stat(src)
		if err != nil {
			fmt.Fprintf(m.logger(), "warning: seed path %s: %v (skipped)\n", p, err)
			continue
		}

		if info.IsDir() {
			if m.DirPolicy == "copy" {
				if err := copyDir(src, dst); err != nil {
					fmt.Fprintf(m.logger(), "warning: seeding directory %s: %v (skipped)\n", p, err)
					if firstErr == nil {
						firstErr = err
					}
				}
			} else {
				fmt.Fprintf(m.logger(), "warning: seed path %s is a directory (skipped)\n", p)
			}
			continue
		}

		if err := copyFile(src, dst, info.Mode()); err != nil {
			fmt.Fprintf(m.logger(), "warning: seeding %s: %v (skipped)\n", p, err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	if firstErr != nil {
		return &SandboxError{IssueID: wt.IssueID, Op: "seed", Err: firstErr}
	}
	return nil
}

// escapes reports whether a cleaned relative path points above its base.
func escapes(rel string) bool {
	return rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// copyFile copies a regular file, creating parent directories.
func copyFile(src, dst string, mode os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode.Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// copyDir recursively copies a directory tree. Symlinks are skipped.
func copyDir(src, dst string) error {
	return filepath.WalkDir(src, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		if !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		return copyFile(path, target, info.Mode())
	})
}
