package backoffice

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"recrutement/backoffice-service/internal/events"
	"recrutement/backoffice-service/internal/model"
	"recrutement/backoffice-service/internal/store"
)

// candidatePlacedStatus is set on a candidate whose application reaches
// placee.
const candidatePlacedStatus = "place"

// Closed mandates accept no new application.
var closedMandate = map[string]bool{MandateFilled: true, "annule": true}

// ApplicationQuery narrows ListApplications. Empty fields do not filter.
type ApplicationQuery struct {
	CandidatID string
	MandatID   string
}

// ListApplications returns the applications matching q, newest first.
func (s *Service) ListApplications(ctx context.Context, q ApplicationQuery) ([]model.Application, error) {
	var (
		list []model.Application
		err  error
	)
	switch {
	case q.CandidatID != "":
		list, err = s.st.Applications.ListBy(ctx, "candidat_id", q.CandidatID)
	case q.MandatID != "":
		list, err = s.st.Applications.ListBy(ctx, "mandat_id", q.MandatID)
	default:
		list, err = s.st.Applications.List(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("listApplications: %w", err)
	}
	if q.CandidatID != "" && q.MandatID != "" {
		kept := list[:0]
		for _, a := range list {
			if a.MandatID == q.MandatID {
				kept = append(kept, a)
			}
		}
		list = kept
	}
	return list, nil
}

// GetApplication returns one application.
func (s *Service) GetApplication(ctx context.Context, id string) (*model.Application, error) {
	a, err := s.st.Applications.Get(ctx, id)
	if err != nil {
		return nil, notFound("getApplication", err)
	}
	return &a, nil
}

// CreateApplication puts a candidate in the pipeline of a mandate at the
// nouvelle stage. A candidate can only be in a mandate's pipeline once.
func (s *Service) CreateApplication(ctx context.Context, a model.Application) (*model.Application, error) {
	a.ID = ""
	a.Statut = string(StageNew)
	a.Historique = json.RawMessage(`[]`)
	s.stamp(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	if err := validateRecord(a); err != nil {
		return nil, err
	}

	if _, err := s.st.Candidates.Get(ctx, a.CandidatID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, invalid("candidat_id", "unknown candidate "+a.CandidatID)
		}
		return nil, fmt.Errorf("createApplication: %w", err)
	}
	m, err := s.st.Mandates.Get(ctx, a.MandatID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, invalid("mandat_id", "unknown mandate "+a.MandatID)
		}
		return nil, fmt.Errorf("createApplication: %w", err)
	}
	if closedMandate[m.Statut] {
		return nil, conflict("mandate %s is %s", m.ID, m.Statut)
	}

	existing, err := s.st.Applications.ListBy(ctx, "candidat_id", a.CandidatID)
	if err != nil {
		return nil, fmt.Errorf("createApplication: %w", err)
	}
	for _, e := range existing {
		if e.MandatID == a.MandatID {
			return nil, conflict("candidate %s already applied to mandate %s", a.CandidatID, a.MandatID)
		}
	}

	saved, err := s.st.Applications.Insert(ctx, a)
	if err != nil {
		return nil, fmt.Errorf("createApplication: %w", err)
	}
	s.changed(ctx, store.Applications, saved.ID, events.OpCreate)
	return &saved, nil
}

// MoveApplication moves an application to another pipeline stage.
// Returns ErrNotFound if the application does not exist.
// Returns a ValidationError if the pipeline rejects the move.
func (s *Service) MoveApplication(ctx context.Context, id, to string) (*model.Application, error) {
	next, err := ParseStage(to)
	if err != nil {
		return nil, invalid("statut", err.Error())
	}

	a, err := s.st.Applications.Get(ctx, id)
	if err != nil {
		return nil, notFound("moveApplication", err)
	}
	current, _ := ParseStage(a.Statut)
	if !IsTransitionAllowed(current, next) {
		return nil, &ValidationError{
			Msg:    fmt.Sprintf("transition %s → %s is not allowed", a.Statut, next),
			Fields: map[string]string{"statut": "cannot move from " + a.Statut},
		}
	}

	now := s.now()
	history := append(a.History(), model.StageChange{From: a.Statut, To: string(next), At: now})
	raw, err := json.Marshal(history)
	if err != nil {
		return nil, fmt.Errorf("moveApplication history: %w", err)
	}
	from := a.Statut
	a.Statut = string(next)
	a.Historique = raw
	a.UpdatedAt = now

	saved, err := s.st.Applications.Update(ctx, a)
	if err != nil {
		return nil, notFound("moveApplication", err)
	}

	if IsPlaced(next) {
		s.fillMandate(ctx, a.MandatID)
		s.markPlaced(ctx, a.CandidatID)
	}

	s.changed(ctx, store.Applications, id, events.OpUpdate)
	s.publish(ctx, events.ApplicationMoved, events.Move{
		ApplicationID: id,
		CandidatID:    a.CandidatID,
		MandatID:      a.MandatID,
		From:          from,
		To:            string(next),
	})
	return &saved, nil
}

// markPlaced sets the candidate status once placed (non-fatal).
func (s *Service) markPlaced(ctx context.Context, candidateID string) {
	c, err := s.st.Candidates.Get(ctx, candidateID)
	if err != nil {
		slog.Warn("markPlaced: load failed", "candidateId", candidateID, "err", err)
		return
	}
	c.Statut = candidatePlacedStatus
	c.UpdatedAt = s.now()
	if _, err := s.st.Candidates.Update(ctx, c); err != nil {
		slog.Warn("markPlaced: update failed", "candidateId", candidateID, "err", err)
		return
	}
	s.changed(ctx, store.Candidates, candidateID, events.OpUpdate)
}

// DeleteApplication removes an application from its pipeline.
func (s *Service) DeleteApplication(ctx context.Context, id string) error {
	if err := s.st.Applications.Delete(ctx, id); err != nil {
		return notFound("deleteApplication", err)
	}
	s.changed(ctx, store.Applications, id, events.OpDelete)
	return nil
}
