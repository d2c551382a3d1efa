package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/BrennonTWilliams/little-loops/internal/config"
	"github.com/BrennonTWilliams/little-loops/internal/issue"
)

// project bundles everything loaded from the project directory.
type project struct {
	Cfg      config.Config
	Manifest *issue.Manifest
	Dir      string
	Issues   []issue.Issue
}

// loadProject reads config, manifest and the backlog, then narrows the
// selection to the requested issue IDs (all backlog issues when args
// is empty).
func loadProject(args []string) (*project, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	dir, err := filepath.Abs(cfg.WorkDir)
	if err != nil {
		return nil, fmt.Errorf("resolving project dir: %w", err)
	}

	manifest, err := issue.LoadManifest(dir)
	if err != nil {
		return nil, err
	}

	backlog := manifest.Project.BacklogDir
	if !filepath.IsAbs(backlog) {
		backlog = filepath.Join(dir, backlog)
	}
	issues, err := issue.ScanDir(backlog)
	if err != nil {
		return nil, err
	}

	selected, err := selectIssues(issues, args)
	if err != nil {
		return nil, err
	}

	return &project{Cfg: cfg, Manifest: manifest, Dir: dir, Issues: selected}, nil
}

// selectIssues narrows the scanned backlog to the requested IDs. An
// argument must bind to exactly one issue: first by exact ID, then by
// delimiter-bounded match against record filenames. Ambiguous or
// missing IDs are errors, never best-effort guesses.
func selectIssues(issues []issue.Issue, args []string) ([]issue.Issue, error) {
	if len(args) == 0 {
		return issues, nil
	}

	byID := make(map[string]issue.Issue, len(issues))
	names := make([]string, len(issues))
	byName := make(map[string]issue.Issue, len(issues))
	for i, is := range issues {
		byID[is.ID] = is
		names[i] = filepath.Base(is.Path)
		byName[names[i]] = is
	}

	var selected []issue.Issue
	seen := make(map[string]bool)
	for _, arg := range args {
		is, ok := byID[arg]
		if !ok {
			name, err := issue.FindByID(arg, names)
			if err != nil {
				return nil, fmt.Errorf("selecting %q: %w", arg, err)
			}
			is = byName[name]
		}
		if seen[is.ID] {
			continue
		}
		seen[is.ID] = true
		selected = append(selected, is)
	}
	issue.SortByID(selected)
	return selected, nil
}
