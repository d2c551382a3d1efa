package result

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestValidateMatch(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	record := filepath.Join(dir, "BUG-1-fix.md")
	if err := os.WriteFile(record, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	out := &StepOutput{Verdict: VerdictProceed, ValidatedFile: record}
	v := Validate(record, out, "accept")
	if v.Status != StatusAccepted {
		t.Fatalf("Status = %q, want accepted: %v", v.Status, v.Err)
	}
	if v.Actual != v.Expected {
		t.Errorf("Actual %q != Expected %q", v.Actual, v.Expected)
	}
}

func TestValidateMatchAfterCleaning(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	record := filepath.Join(dir, "BUG-1-fix.md")
	if err := os.WriteFile(record, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	// Same file spelled with a redundant path segment.
	messy := dir + "/./BUG-1-fix.md"
	out := &StepOutput{ValidatedFile: messy}
	if v := Validate(record, out, "reject"); v.Status != StatusAccepted {
		t.Errorf("Status = %q, want accepted for equivalent path", v.Status)
	}
}

func TestValidateMismatch(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	expected := filepath.Join(dir, "BUG-1-fix.md")
	other := filepath.Join(dir, "BUG-2-other.md")

	out := &StepOutput{ValidatedFile: other}
	v := Validate(expected, out, "accept")
	if v.Status != StatusRejected {
		t.Fatalf("Status = %q, want rejected", v.Status)
	}
	if !errors.Is(v.Err, ErrMismatch) {
		t.Errorf("Err = %v, want ErrMismatch", v.Err)
	}
	// The diagnostic names both paths.
	msg := v.Err.Error()
	if !strings.Contains(msg, "BUG-1-fix.md") || !strings.Contains(msg, "BUG-2-other.md") {
		t.Errorf("diagnostic %q does not name both paths", msg)
	}
}

func TestValidateMissingMarker(t *testing.T) {
	t.Parallel()

	out := &StepOutput{Verdict: VerdictProceed}

	t.Run("accept policy", func(t *testing.T) {
		t.Parallel()
		v := Validate("/repo/BUG-1.md", out, "accept")
		if v.Status != StatusUnverified {
			t.Errorf("Status = %q, want unverified", v.Status)
		}
		if v.Err != nil {
			t.Errorf("Err = %v, want nil", v.Err)
		}
	})

	t.Run("reject policy", func(t *testing.T) {
		t.Parallel()
		v := Validate("/repo/BUG-1.md", out, "reject")
		if v.Status != StatusRejected {
			t.Errorf("Status = %q, want rejected", v.Status)
		}
		if !errors.Is(v.Err, ErrMismatch) {
			t.Errorf("Err = %v, want ErrMismatch", v.Err)
		}
	})

	t.Run("unknown policy rejects", func(t *testing.T) {
		t.Parallel()
		if v := Validate("/repo/BUG-1.md", out, "acept"); v.Status != StatusRejected {
			t.Errorf("Status = %q, want rejected for unknown policy", v.Status)
		}
	})
}
