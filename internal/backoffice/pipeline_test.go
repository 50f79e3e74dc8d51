package backoffice_test

import (
	"testing"

	"recrutement/backoffice-service/internal/backoffice"
)

// ── ParseStage ────────────────────────────────────────────────────────────

func TestParseStage_ValidValues(t *testing.T) {
	valid := []string{"nouvelle", "preselection", "entretien", "presentation_client", "placee", "refusee"}
	for _, s := range valid {
		got, err := backoffice.ParseStage(s)
		if err != nil {
			t.Errorf("ParseStage(%q) returned unexpected error: %v", s, err)
		}
		if string(got) != s {
			t.Errorf("ParseStage(%q) = %q, want %q", s, got, s)
		}
	}
}

func TestParseStage_Invalid(t *testing.T) {
	for _, s := range []string{"", "UNKNOWN", "Nouvelle", " entretien", "placée"} {
		if _, err := backoffice.ParseStage(s); err == nil {
			t.Errorf("ParseStage(%q) expected error, got nil", s)
		}
	}
}

func TestStages_RoundTrip(t *testing.T) {
	stages := backoffice.Stages()
	if len(stages) != 6 || stages[0] != backoffice.StageNew || stages[4] != backoffice.StagePlaced {
		t.Fatalf("Stages() = %v", stages)
	}
	for _, s := range stages {
		if _, err := backoffice.ParseStage(string(s)); err != nil {
			t.Errorf("ParseStage(%q) unexpected error: %v", s, err)
		}
	}
}

// ── IsPlaced / IsTerminal ─────────────────────────────────────────────────

func TestIsPlaced(t *testing.T) {
	for _, s := range backoffice.Stages() {
		if got, want := backoffice.IsPlaced(s), s == backoffice.StagePlaced; got != want {
			t.Errorf("IsPlaced(%s) = %v, want %v", s, got, want)
		}
	}
}

func TestIsTerminal(t *testing.T) {
	for _, s := range backoffice.Stages() {
		want := s == backoffice.StagePlaced || s == backoffice.StageRejected
		if got := backoffice.IsTerminal(s); got != want {
			t.Errorf("IsTerminal(%s) = %v, want %v", s, got, want)
		}
	}
}

// ── IsTransitionAllowed ───────────────────────────────────────────────────

func TestIsTransitionAllowed_ValidForward(t *testing.T) {
	cases := []struct{ from, to backoffice.Stage }{
		{backoffice.StageNew, backoffice.StageShortlist},
		{backoffice.StageShortlist, backoffice.StageInterview},
		{backoffice.StageInterview, backoffice.StagePresented},
		{backoffice.StagePresented, backoffice.StagePlaced},
	}
	for _, c := range cases {
		if !backoffice.IsTransitionAllowed(c.from, c.to) {
			t.Errorf("IsTransitionAllowed(%s → %s) should be true", c.from, c.to)
		}
	}
}

func TestIsTransitionAllowed_ToRejected(t *testing.T) {
	for _, from := range []backoffice.Stage{
		backoffice.StageNew, backoffice.StageShortlist, backoffice.StageInterview, backoffice.StagePresented,
	} {
		if !backoffice.IsTransitionAllowed(from, backoffice.StageRejected) {
			t.Errorf("IsTransitionAllowed(%s → refusee) should be true", from)
		}
	}
}

func TestIsTransitionAllowed_Forbidden(t *testing.T) {
	cases := []struct {
		name     string
		from, to backoffice.Stage
	}{
		{"skip preselection", backoffice.StageNew, backoffice.StageInterview},
		{"skip to placed", backoffice.StageNew, backoffice.StagePlaced},
		{"skip presentation", backoffice.StageInterview, backoffice.StagePlaced},
		{"backwards", backoffice.StageInterview, backoffice.StageShortlist},
		{"self", backoffice.StageShortlist, backoffice.StageShortlist},
		{"from placed", backoffice.StagePlaced, backoffice.StageRejected},
		{"from rejected", backoffice.StageRejected, backoffice.StageNew},
		{"unknown from", backoffice.Stage("x"), backoffice.StageShortlist},
	}
	for _, c := range cases {
		if backoffice.IsTransitionAllowed(c.from, c.to) {
			t.Errorf("%s: IsTransitionAllowed(%s → %s) should be false", c.name, c.from, c.to)
		}
	}
}
