// Package backoffice holds the business logic of the recruitment back-office:
// candidates, clients, mandates, the application pipeline and the
// applications received from the public website. It is transport-agnostic:
// used by the HTTP handler and the gRPC server.
//
// Valid application stage graph:
//
//	nouvelle ──► preselection ──► entretien ──► presentation_client ──► placee
//	    │             │               │                 │
//	    └─────────────┴───────────────┴─────────────────┴──► refusee
//
// placee and refusee are terminal stages.
package backoffice

import "fmt"

// Stage is the value of candidatures.statut.
type Stage string

const (
	StageNew       Stage = "nouvelle"
	StageShortlist Stage = "preselection"
	StageInterview Stage = "entretien"
	StagePresented Stage = "presentation_client"
	StagePlaced    Stage = "placee"
	StageRejected  Stage = "refusee"
)

// validTransitions lists every allowed (from → to) pair.
var validTransitions = map[Stage][]Stage{
	StageNew:       {StageShortlist, StageRejected},
	StageShortlist: {StageInterview, StageRejected},
	StageInterview: {StagePresented, StageRejected},
	StagePresented: {StagePlaced, StageRejected},
}

// Stages returns every stage in pipeline order.
func Stages() []Stage {
	return []Stage{StageNew, StageShortlist, StageInterview, StagePresented, StagePlaced, StageRejected}
}

// ParseStage converts a raw string to a Stage, returning an error for
// unknown values.
func ParseStage(s string) (Stage, error) {
	st := Stage(s)
	switch st {
	case StageNew, StageShortlist, StageInterview, StagePresented, StagePlaced, StageRejected:
		return st, nil
	}
	return "", fmt.Errorf("unknown application stage %q", s)
}

// IsTransitionAllowed returns true when moving from → to is permitted by the
// pipeline.
func IsTransitionAllowed(from, to Stage) bool {
	for _, s := range validTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no move leaves s.
func IsTerminal(s Stage) bool { return s == StagePlaced || s == StageRejected }

// IsPlaced returns true when s is placee (fills the mandate).
func IsPlaced(s Stage) bool { return s == StagePlaced }
