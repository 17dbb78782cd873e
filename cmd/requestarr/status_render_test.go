package main

import (
	"bytes"
	"strings"
	"testing"

	"requestarr/internal/wizard"
)

func TestRenderStatusLine(t *testing.T) {
	line := renderStatusLine("Sign In", statusOK, "signed in as Admin", false)
	if !strings.Contains(line, "[OK] signed in as Admin") {
		t.Fatalf("unexpected line %q", line)
	}
	colored := renderStatusLine("Sign In", statusError, "", true)
	if !strings.HasPrefix(colored, ansiRed) || !strings.HasSuffix(colored, ansiReset) {
		t.Fatalf("expected red line, got %q", colored)
	}
}

func TestRenderIndicatorsMarksProgress(t *testing.T) {
	out := renderIndicators(wizard.State{Step: wizard.StepMediaServer}, false)
	for _, want := range []string{"Sign In", "done", "Configure Media Server", "current", "Configure Services", "pending"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in\n%s", want, out)
		}
	}
}

func TestShouldColorizeNonFile(t *testing.T) {
	if shouldColorize(&bytes.Buffer{}) {
		t.Fatal("buffers are never terminals")
	}
}
