package backoffice

import (
	"context"
	"fmt"
	"log/slog"

	"recrutement/backoffice-service/internal/events"
	"recrutement/backoffice-service/internal/model"
	"recrutement/backoffice-service/internal/search"
	"recrutement/backoffice-service/internal/store"
)

// Raw application statuses the service sets on its own.
const rawApplicationImported = "traitee"

// importSource is the candidats.source of a candidate created from a website
// application.
const importSource = "site_web"

// Website experience levels mapped to candidate levels on import. The website
// form has its own scale.
var importedExperience = map[string]string{
	"debutant": "debutant",
	"confirme": "intermediaire",
	"senior":   "senior",
}

// ListRawApplications returns every website application with its notes,
// newest first.
func (s *Service) ListRawApplications(ctx context.Context) ([]model.RawApplication, error) {
	list, err := s.st.RawApplications.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listRawApplications: %w", err)
	}
	notes := s.notesBy(ctx, candidatureWPID)
	for i := range list {
		list[i].Notes = notes[list[i].ID]
	}
	return list, nil
}

// SearchRawApplications filters the website applications by free text and
// categories. The result keeps the list order.
func (s *Service) SearchRawApplications(ctx context.Context, query string, filters search.Filters) (search.Result[model.RawApplication], error) {
	list, err := s.ListRawApplications(ctx)
	if err != nil {
		return search.Result[model.RawApplication]{}, err
	}
	return search.Apply(list, query, filters), nil
}

// GetRawApplication returns one website application with its notes.
func (s *Service) GetRawApplication(ctx context.Context, id string) (*model.RawApplication, error) {
	r, err := s.st.RawApplications.Get(ctx, id)
	if err != nil {
		return nil, notFound("getRawApplication", err)
	}
	r.Notes = s.notesOf(ctx, Parent{Kind: ParentRawApplication, ID: id})
	return &r, nil
}

// ImportRawApplication creates a candidate from a website application, links
// it back and marks the application as processed. An application is
// imported once.
func (s *Service) ImportRawApplication(ctx context.Context, id string) (*model.Candidate, error) {
	r, err := s.st.RawApplications.Get(ctx, id)
	if err != nil {
		return nil, notFound("importRawApplication", err)
	}
	if r.CandidatID != nil && *r.CandidatID != "" {
		return nil, conflict("application %s was already imported as candidate %s", id, *r.CandidatID)
	}

	c := model.Candidate{
		Nom:              r.Nom,
		Prenom:           r.Prenom,
		Email:            r.Email,
		Telephone:        r.Telephone,
		Ville:            r.Ville,
		Metier:           r.Poste,
		NiveauExperience: importedExperience[r.NiveauExperience],
		Competences:      append(model.StringList(nil), r.Competences...),
		CVURL:            r.CVURL,
		Source:           importSource,
	}
	if r.Poste != "" {
		c.PostesCibles = model.StringList{r.Poste}
	}
	if r.Message != "" {
		c.Motivation = &model.Motivation{Objectifs: r.Message}
	}
	created, err := s.CreateCandidate(ctx, c)
	if err != nil {
		return nil, err
	}

	r.Notes = nil
	r.CandidatID = &created.ID
	r.Statut = rawApplicationImported
	r.UpdatedAt = s.now()
	if _, err := s.st.RawApplications.Update(ctx, r); err != nil {
		// Unlinked, the application would import again on retry.
		if derr := s.st.Candidates.Delete(ctx, created.ID); derr != nil {
			slog.Warn("importRawApplication: rollback failed", "candidateId", created.ID, "err", derr)
		} else {
			s.changed(ctx, store.Candidates, created.ID, events.OpDelete)
		}
		return nil, notFound("importRawApplication link", err)
	}
	s.changed(ctx, store.RawApplications, id, events.OpUpdate)
	return created, nil
}

// UpdateRawApplicationStatus sets the processing status of a website
// application.
func (s *Service) UpdateRawApplicationStatus(ctx context.Context, id, status string) (*model.RawApplication, error) {
	if status == "" {
		return nil, invalid("statut", "is required")
	}
	if err := s.checkVocabulary(store.RawApplications.Name, map[string]string{model.CategoryStatus: status}); err != nil {
		return nil, err
	}
	r, err := s.st.RawApplications.Get(ctx, id)
	if err != nil {
		return nil, notFound("updateRawApplicationStatus", err)
	}
	r.Notes = nil
	r.Statut = status
	r.UpdatedAt = s.now()
	saved, err := s.st.RawApplications.Update(ctx, r)
	if err != nil {
		return nil, notFound("updateRawApplicationStatus", err)
	}
	s.changed(ctx, store.RawApplications, id, events.OpUpdate)
	saved.Notes = s.notesOf(ctx, Parent{Kind: ParentRawApplication, ID: id})
	return &saved, nil
}

// DeleteRawApplication removes a website application and its notes. A
// candidate created from it is kept.
func (s *Service) DeleteRawApplication(ctx context.Context, id string) error {
	if err := s.st.RawApplications.Delete(ctx, id); err != nil {
		return notFound("deleteRawApplication", err)
	}
	s.deleteNotesOf(ctx, Parent{Kind: ParentRawApplication, ID: id})
	s.changed(ctx, store.RawApplications, id, events.OpDelete)
	return nil
}
