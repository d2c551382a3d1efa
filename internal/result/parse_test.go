package result

import (
	"reflect"
	"testing"
)

func TestParse(t *testing.T) {
	t.Parallel()

	t.Run("full output", func(t *testing.T) {
		t.Parallel()
		out := Parse(`Working on the issue...
VERDICT: proceed
VALIDATED_FILE: /repo/issues/backlog/BUG-1-fix.md
NOTES: applied the patch
second note line
VERDICT_EXTRA: surprise
`)
		if out.Verdict != VerdictProceed {
			t.Errorf("Verdict = %q", out.Verdict)
		}
		if out.ValidatedFile != "/repo/issues/backlog/BUG-1-fix.md" {
			t.Errorf("ValidatedFile = %q", out.ValidatedFile)
		}
		if out.Notes != "applied the patch\nsecond note line" {
			t.Errorf("Notes = %q", out.Notes)
		}
		if !reflect.DeepEqual(out.Unrecognized, []string{"VERDICT_EXTRA: surprise"}) {
			t.Errorf("Unrecognized = %v", out.Unrecognized)
		}
	})

	t.Run("missing sections degrade", func(t *testing.T) {
		t.Parallel()
		out := Parse("no structure at all\n")
		if out.Verdict != VerdictUnknown {
			t.Errorf("Verdict = %q, want unknown", out.Verdict)
		}
		if out.ValidatedFile != "" || out.Notes != "" {
			t.Errorf("got %+v, want empty sections", out)
		}
	})

	t.Run("empty input", func(t *testing.T) {
		t.Parallel()
		out := Parse("")
		if out.Verdict != VerdictUnknown {
			t.Errorf("Verdict = %q, want unknown", out.Verdict)
		}
	})
}

func TestNormalizeVerdict(t *testing.T) {
	t.Parallel()

	cases := []struct {
		raw  string
		want Verdict
	}{
		{"proceed", VerdictProceed},
		{" Proceed ", VerdictProceed},
		{"SKIP", VerdictSkip},
		{"fail", VerdictFail},
		{"maybe", VerdictUnknown},
		{"", VerdictUnknown},
	}
	for _, tc := range cases {
		if got := normalizeVerdict(tc.raw); got != tc.want {
			t.Errorf("normalizeVerdict(%q) = %q, want %q", tc.raw, got, tc.want)
		}
	}
}
