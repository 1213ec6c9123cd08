package tokens

import (
	"strings"
	"testing"
)

func TestTruncateApproxShortTextUntouched(t *testing.T) {
	text := "short enough"
	if got := TruncateApprox(text, 100); got != text {
		t.Errorf("TruncateApprox() = %q, want unchanged", got)
	}
}

func TestTruncateApproxCutsAtWordBoundary(t *testing.T) {
	text := strings.Repeat("word ", 100)
	got := TruncateApprox(text, 10)

	if len(got) > 40 {
		t.Errorf("TruncateApprox() kept %d chars, want at most 40", len(got))
	}
	if strings.HasSuffix(got, " ") {
		t.Errorf("TruncateApprox() = %q, trailing space after boundary cut", got)
	}
	if !strings.HasSuffix(got, "word") {
		t.Errorf("TruncateApprox() = %q, cut mid-word", got)
	}
}

func TestTruncateApproxZeroBudgetUntouched(t *testing.T) {
	text := strings.Repeat("x", 1000)
	if got := TruncateApprox(text, 0); got != text {
		t.Error("TruncateApprox(text, 0) modified text")
	}
}

func TestTruncateApproxNoSpaces(t *testing.T) {
	text := strings.Repeat("x", 100)
	got := TruncateApprox(text, 5)
	if len(got) != 20 {
		t.Errorf("TruncateApprox() kept %d chars, want 20", len(got))
	}
}
