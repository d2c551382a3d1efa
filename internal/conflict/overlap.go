// Package conflict refines a dependency wave into ordered sub-waves so
// that no two issues with overlapping touched-file hints run
// concurrently. Hints are imprecise evidence (exact paths, directories,
// or glob patterns), so overlap detection is deliberately conservative
// for directories and globs while staying exact for literal paths.
package conflict

import (
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Overlap describes why two file hints conflict.
type Overlap struct {
	// PatternA and PatternB are the hints that overlap. Equal when the
	// conflict is an exact match.
	PatternA, PatternB string
}

// hintsOverlap reports the first overlapping pair between two hint
// sets, or false when the sets are disjoint. An empty hint set never
// overlaps anything: issues with unknown touched files are assumed
// conflict-free. That optimistic default trades safety for throughput
// and is the documented precision/recall trade-off of this refiner.
func hintsOverlap(a, b []string) (Overlap, bool) {
	for _, pa := range a {
		for _, pb := range b {
			if patternsOverlap(pa, pb) {
				return Overlap{PatternA: pa, PatternB: pb}, true
			}
		}
	}
	return Overlap{}, false
}

// patternsOverlap reports whether two hints can refer to the same file.
// It handles exact matches, directory containment, and glob patterns.
func patternsOverlap(a, b string) bool {
	ca := filepath.Clean(a)
	cb := filepath.Clean(b)

	if ca == cb {
		return true
	}
	if dirContains(ca, cb) || dirContains(cb, ca) {
		return true
	}
	if isGlob(ca) || isGlob(cb) {
		return globsOverlap(ca, cb)
	}
	return false
}

// dirContains reports whether parent contains child as a sub-path.
func dirContains(parent, child string) bool {
	p := parent
	if !strings.HasSuffix(p, string(filepath.Separator)) {
		p += string(filepath.Separator)
	}
	return strings.HasPrefix(child, p)
}

// isGlob reports whether the hint contains glob metacharacters.
func isGlob(pattern string) bool {
	return strings.ContainsAny(pattern, "*?[{")
}

// globsOverlap checks whether two hints (at least one a glob) can match
// overlapping file sets.
func globsOverlap(a, b string) bool {
	// A literal path might match the other side's glob directly.
	if m, _ := doublestar.Match(a, b); m {
		return true
	}
	if m, _ := doublestar.Match(b, a); m {
		return true
	}

	// Compare directory prefixes: globs rooted in unrelated directories
	// cannot collide.
	da := globDirPrefix(a)
	db := globDirPrefix(b)
	if da != db && !dirContains(da, db) && !dirContains(db, da) {
		return false
	}

	// Same or nested directory: match a concrete representative of each
	// pattern against the other. "internal/*.go" vs "internal/*.ts"
	// stays disjoint because "internal/x.go" does not match "*.ts".
	repA := globRepresentative(a)
	repB := globRepresentative(b)
	if repA == "" || repB == "" {
		return true // cannot invert the pattern, report overlap conservatively
	}
	if m, _ := doublestar.Match(b, repA); m {
		return true
	}
	if m, _ := doublestar.Match(a, repB); m {
		return true
	}
	return false
}

// globDirPrefix extracts the directory portion before the first glob
// metacharacter.
func globDirPrefix(pattern string) string {
	idx := strings.IndexAny(pattern, "*?[{")
	if idx < 0 {
		return pattern
	}
	prefix := pattern[:idx]
	if i := strings.LastIndex(prefix, string(filepath.Separator)); i >= 0 {
		return prefix[:i]
	}
	return "."
}

// globRepresentative builds a concrete path that would match the given
// glob by replacing '**' and '*' with fixed placeholders. Returns ""
// for '?', '[' or '{' metacharacters that are hard to invert.
func globRepresentative(pattern string) string {
	if strings.ContainsAny(pattern, "?[{") {
		return ""
	}
	rep := strings.ReplaceAll(pattern, "**", "x")
	return strings.ReplaceAll(rep, "*", "x")
}
