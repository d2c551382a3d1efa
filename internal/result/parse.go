// Package result parses the structured output of the external
// issue-processing step and validates that a computed verdict applies
// to the file that was actually analyzed. The validation is
// defense-in-depth: it assumes upstream dispatch could in principle
// have selected the wrong file and re-checks inside the hot path.
package result

import (
	"regexp"
	"strings"
)

// Verdict is the decision the external step reached for an issue.
type Verdict string

const (
	// VerdictProceed means the issue's work applies cleanly.
	VerdictProceed Verdict = "proceed"
	// VerdictSkip means the step declined to act on the issue.
	VerdictSkip Verdict = "skip"
	// VerdictFail means the step could not complete the work.
	VerdictFail Verdict = "fail"
	// VerdictUnknown is any unrecognized or absent verdict. Treated as
	// fail by callers, never silently promoted.
	VerdictUnknown Verdict = "unknown"
)

// Recognized section headers in step output.
const (
	headerVerdict   = "VERDICT:"
	headerValidated = "VALIDATED_FILE:"
	headerNotes     = "NOTES:"
)

// headerShape matches lines that look like section headers
// (UPPER_SNAKE followed by a colon), recognized or not.
var headerShape = regexp.MustCompile(`^[A-Z][A-Z0-9_]*:`)

// StepOutput is the parsed form of the raw step output.
type StepOutput struct {
	// Verdict is the normalized verdict.
	Verdict Verdict
	// ValidatedFile is the path the step reports it actually analyzed.
	// Empty when the marker section is absent (degraded mode).
	ValidatedFile string
	// Notes carries free-form diagnostic text from the NOTES section.
	Notes string
	// Unrecognized lists header-shaped lines the grammar does not
	// know. They are flagged for observability rather than guessed at.
	Unrecognized []string
}

// Parse scans raw step output with a small fixed grammar: a mapping
// from recognized section header to its value. Optional sections may
// be missing; unknown header-shaped lines are collected, not
// interpreted. The parser never fails — a degraded result is always
// representable — so the validation policy alone decides acceptance.
func Parse(raw string) *StepOutput {
	out := &StepOutput{Verdict: VerdictUnknown}

	lines := strings.Split(raw, "\n")
	for i := 0; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		switch {
		case strings.HasPrefix(line, headerVerdict):
			out.Verdict = normalizeVerdict(strings.TrimPrefix(line, headerVerdict))
		case strings.HasPrefix(line, headerValidated):
			out.ValidatedFile = strings.TrimSpace(strings.TrimPrefix(line, headerValidated))
		case strings.HasPrefix(line, headerNotes):
			var notes []string
			if rest := strings.TrimSpace(strings.TrimPrefix(line, headerNotes)); rest != "" {
				notes = append(notes, rest)
			}
			// NOTES runs until the next header-shaped line.
			for i+1 < len(lines) && !headerShape.MatchString(strings.TrimSpace(lines[i+1])) {
				i++
				notes = append(notes, strings.TrimSpace(lines[i]))
			}
			out.Notes = strings.TrimSpace(strings.Join(notes, "\n"))
		case headerShape.MatchString(line):
			out.Unrecognized = append(out.Unrecognized, line)
		}
	}
	return out
}

// normalizeVerdict maps a raw verdict string onto the known set.
// Unknown values map to VerdictUnknown so they are never treated as a
// pass by accident.
func normalizeVerdict(raw string) Verdict {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "proceed":
		return VerdictProceed
	case "skip":
		return VerdictSkip
	case "fail":
		return VerdictFail
	default:
		return VerdictUnknown
	}
}
