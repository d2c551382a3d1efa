package issue

import (
	"fmt"
	"regexp"
	"strings"
)

// idPattern matches a well-formed issue identifier: an alphanumeric
// prefix, a hyphen, and a number.
var idPattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9]*-[0-9]+$`)

// ValidID reports whether s is a well-formed {PREFIX}-{NUMBER} identifier.
func ValidID(s string) bool {
	return idPattern.MatchString(s)
}

// tokenRe builds a regexp that matches id only at delimiter boundaries
// within a file or branch name. The identifier must be preceded by the
// start of the name or a '-', '_' or '/' separator, and followed by a
// '-', '_' or '.' separator or the end of the name. This guarantees
// that "BUG-1" never matches inside "BUG-10" or "BUG-100".
func tokenRe(id string) *regexp.Regexp {
	return regexp.MustCompile(`(?:^|[-_/])` + regexp.QuoteMeta(id) + `(?:[-_.]|$)`)
}

// NameContainsID reports whether name contains id as a
// delimiter-bounded token. This is the only identifier lookup the
// scheduler performs against names; raw substring search is never used.
func NameContainsID(name, id string) bool {
	return tokenRe(id).MatchString(name)
}

// FindByID returns the single candidate name containing id as a
// delimiter-bounded token. Zero or multiple matches are errors so that
// a lookup can never silently bind to the wrong record.
func FindByID(id string, candidates []string) (string, error) {
	var matches []string
	for _, c := range candidates {
		if NameContainsID(c, id) {
			matches = append(matches, c)
		}
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("no candidate matches issue ID %q", id)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("issue ID %q is ambiguous: matches %s", id, strings.Join(matches, ", "))
	}
}

// IDFromFilename extracts the leading {PREFIX}-{NUMBER} token from an
// issue record filename like "BUG-001-fix-scanner.md". Returns "" if
// the filename does not start with a well-formed identifier.
func IDFromFilename(name string) string {
	base := name
	if i := strings.LastIndexByte(base, '/'); i >= 0 {
		base = base[i+1:]
	}
	base = strings.TrimSuffix(base, ".md")

	// Identifier is the prefix up to the second hyphen group: letters,
	// hyphen, digits.
	m := regexp.MustCompile(`^([A-Za-z][A-Za-z0-9]*-[0-9]+)(?:[-_.]|$)`).FindStringSubmatch(base)
	if m == nil {
		return ""
	}
	return m[1]
}
