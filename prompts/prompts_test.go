package prompts

import (
	"strings"
	"testing"
	"time"
)

func fixedLibrary() *Library {
	return NewLibraryAt(func() time.Time {
		return time.Date(2026, time.January, 5, 12, 0, 0, 0, time.UTC)
	})
}

func TestDateContext(t *testing.T) {
	l := fixedLibrary()
	for name, text := range map[string]string{
		"system": l.System(),
		"plan":   l.Plan("some topic", 4),
		"report": l.Report("some topic", []string{"finding"}),
	} {
		if !strings.Contains(text, "Monday, January 5, 2026") {
			t.Errorf("%s prompt missing date context", name)
		}
	}
}

func TestPromptsCarryInputs(t *testing.T) {
	l := fixedLibrary()

	plan := l.Plan("quantum error correction", 5)
	if !strings.Contains(plan, "quantum error correction") || !strings.Contains(plan, "5") {
		t.Errorf("plan prompt missing topic or cap:\n%s", plan)
	}

	sum := l.Summarize("topic", "A Title", "https://example.com", "body text")
	for _, want := range []string{"A Title", "https://example.com", "body text"} {
		if !strings.Contains(sum, want) {
			t.Errorf("summarize prompt missing %q", want)
		}
	}

	eval := l.Evaluate("topic", []string{"first finding", "second finding"})
	if !strings.Contains(eval, "1. first finding") || !strings.Contains(eval, "2. second finding") {
		t.Errorf("evaluate prompt should number findings:\n%s", eval)
	}
}
