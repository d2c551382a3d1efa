package result

import (
	"errors"
	"fmt"
	"path/filepath"
)

// ErrMismatch indicates the validated-file marker names a different
// file than the one the scheduler dispatched. The result is rejected
// and no destructive action is taken.
var ErrMismatch = errors.New("validated-file mismatch")

// MismatchError carries both paths so the diagnostic always names the
// expected target and the file that was actually analyzed.
type MismatchError struct {
	Expected string
	Actual   string
}

// Error renders both canonical paths.
func (e *MismatchError) Error() string {
	return fmt.Sprintf("validated-file mismatch: expected %s, step analyzed %s",
		e.Expected, e.Actual)
}

// Unwrap allows errors.Is(err, ErrMismatch).
func (e *MismatchError) Unwrap() error { return ErrMismatch }

// Status classifies a validation outcome.
type Status string

const (
	// StatusAccepted means the marker matched the expected file.
	StatusAccepted Status = "accepted"
	// StatusUnverified means no marker was present and the accept
	// policy let the result through, flagged.
	StatusUnverified Status = "unverified"
	// StatusRejected means the marker disagreed with the expected file,
	// or was absent under the reject policy.
	StatusRejected Status = "rejected"
)

// Validation is the outcome of cross-checking a step result against
// the file the scheduler intended to process.
type Validation struct {
	Status Status
	// Expected and Actual are canonical absolute paths. Actual is
	// empty when the marker was absent.
	Expected, Actual string
	// Err is the rejection cause, nil for accepted/unverified results.
	Err error
}

// Validate compares the expected record path against the step's
// validated-file marker, both resolved to canonical absolute form.
//
// Match: accepted. Mismatch: rejected with a diagnostic naming both
// paths. Marker absent: degraded mode — unverifiedPolicy ("accept" or
// "reject") decides, defaulting to reject for unknown policy values so
// a config typo can only make validation stricter.
func Validate(expectedPath string, out *StepOutput, unverifiedPolicy string) Validation {
	expected := canonicalize(expectedPath)

	if out.ValidatedFile == "" {
		if unverifiedPolicy == "accept" {
			return Validation{Status: StatusUnverified, Expected: expected}
		}
		return Validation{
			Status:   StatusRejected,
			Expected: expected,
			Err:      fmt.Errorf("%w: result carries no VALIDATED_FILE marker", ErrMismatch),
		}
	}

	actual := canonicalize(out.ValidatedFile)
	if actual != expected {
		return Validation{
			Status:   StatusRejected,
			Expected: expected,
			Actual:   actual,
			Err:      &MismatchError{Expected: expected, Actual: actual},
		}
	}
	return Validation{Status: StatusAccepted, Expected: expected, Actual: actual}
}

// canonicalize resolves a path to absolute, symlink-free, cleaned form.
// When symlink resolution fails (path may not exist on this side of a
// sandbox boundary) the cleaned absolute path is used as-is.
func canonicalize(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved
	}
	return filepath.Clean(abs)
}
