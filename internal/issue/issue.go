// Package issue models tracked work items discovered in the backlog:
// their identifiers, declared dependencies, and touched-file hints.
// It owns the delimiter-bounded identifier matching used by every
// lookup in the system.
package issue

import (
	"fmt"
	"sort"
)

// Issue is a tracked unit of work selected for a scheduling run.
// Immutable once scanned; lifecycle moves (backlog → in-progress →
// completed) happen outside the scheduler.
type Issue struct {
	// ID is the stable identifier, e.g. "BUG-001".
	ID string

	// Path is the absolute path of the issue record on disk.
	Path string

	// Title is the human-readable one-line summary.
	Title string

	// DependsOn lists identifiers of issues that must complete first.
	DependsOn []string

	// Files lists touched-file hints: declared paths from the record's
	// frontmatter plus paths inferred from the body. May contain glob
	// patterns. Empty means unknown.
	Files []string
}

// ByID indexes a slice of issues by identifier. Returns an error if
// two issues share an ID.
func ByID(issues []Issue) (map[string]*Issue, error) {
	m := make(map[string]*Issue, len(issues))
	for i := range issues {
		is := &issues[i]
		if prev, ok := m[is.ID]; ok {
			return nil, fmt.Errorf("duplicate issue ID %q (%s and %s)", is.ID, prev.Path, is.Path)
		}
		m[is.ID] = is
	}
	return m, nil
}

// SortByID sorts issues by identifier for deterministic processing.
func SortByID(issues []Issue) {
	sort.Slice(issues, func(i, j int) bool {
		return issues[i].ID < issues[j].ID
	})
}
