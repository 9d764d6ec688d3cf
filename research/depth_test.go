package research

import (
	"errors"
	"testing"
)

func TestProfileForKnownTiers(t *testing.T) {
	for _, name := range DepthTiers() {
		profile, err := ProfileFor(name)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", name, err)
		}
		if profile.MaxRounds < 1 {
			t.Errorf("%s: MaxRounds must be at least 1", name)
		}
		if profile.MaxInitialQueries < profile.MinInitialQueries {
			t.Errorf("%s: max initial queries below min", name)
		}
		if profile.MaxResultsPerQuery < profile.MinResultsPerQuery {
			t.Errorf("%s: max results below min", name)
		}
	}
}

func TestProfileForDefaultsToNormal(t *testing.T) {
	profile, err := ProfileFor("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if profile.Name != "normal" {
		t.Errorf("expected normal tier, got %q", profile.Name)
	}
}

func TestProfileForUnknownTier(t *testing.T) {
	_, err := ProfileFor("bottomless")
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Errorf("expected ValidationError, got %v", err)
	}
}

func TestSessionMarkSeen(t *testing.T) {
	profile, _ := ProfileFor("shallow")
	s := newSession("some research question", profile)

	if s.markSeen("https://example.com/a") {
		t.Error("first occurrence must not be marked seen")
	}
	if !s.markSeen("https://example.com/a") {
		t.Error("second occurrence must be marked seen")
	}
	if s.markSeen("https://example.com/b") {
		t.Error("different URL must not be marked seen")
	}
	if s.id == "" {
		t.Error("expected a session id")
	}
}
