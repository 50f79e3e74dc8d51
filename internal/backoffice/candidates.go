package backoffice

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"recrutement/backoffice-service/internal/events"
	"recrutement/backoffice-service/internal/model"
	"recrutement/backoffice-service/internal/search"
	"recrutement/backoffice-service/internal/store"
)

// Default status of a new candidate.
const candidateDefaultStatus = "actif"

// ListCandidates returns every candidate with its notes, newest first.
func (s *Service) ListCandidates(ctx context.Context) ([]model.Candidate, error) {
	list, err := s.st.Candidates.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listCandidates: %w", err)
	}
	notes := s.notesBy(ctx, candidatID)
	for i := range list {
		list[i].Notes = notes[list[i].ID]
	}
	return list, nil
}

// SearchCandidates filters the candidate list by free text and categories.
// The result keeps the list order.
func (s *Service) SearchCandidates(ctx context.Context, query string, filters search.Filters) (search.Result[model.Candidate], error) {
	list, err := s.ListCandidates(ctx)
	if err != nil {
		return search.Result[model.Candidate]{}, err
	}
	return search.Apply(list, query, filters), nil
}

// GetCandidate returns one candidate with its notes.
func (s *Service) GetCandidate(ctx context.Context, id string) (*model.Candidate, error) {
	c, err := s.st.Candidates.Get(ctx, id)
	if err != nil {
		return nil, notFound("getCandidate", err)
	}
	c.Notes = s.notesOf(ctx, Parent{Kind: ParentCandidate, ID: id})
	return &c, nil
}

// CreateCandidate validates and stores a new candidate.
func (s *Service) CreateCandidate(ctx context.Context, c model.Candidate) (*model.Candidate, error) {
	c.ID = ""
	c.Notes = nil
	if c.Statut == "" {
		c.Statut = candidateDefaultStatus
	}
	s.stamp(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if err := s.validateCandidate(c); err != nil {
		return nil, err
	}

	saved, err := s.st.Candidates.Insert(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("createCandidate: %w", err)
	}
	s.changed(ctx, store.Candidates, saved.ID, events.OpCreate)
	return &saved, nil
}

// UpdateCandidate replaces every column of a candidate but its id and
// creation time.
func (s *Service) UpdateCandidate(ctx context.Context, id string, c model.Candidate) (*model.Candidate, error) {
	cur, err := s.st.Candidates.Get(ctx, id)
	if err != nil {
		return nil, notFound("updateCandidate", err)
	}
	c.ID = id
	c.CreatedAt = cur.CreatedAt
	return s.saveCandidate(ctx, c)
}

func (s *Service) saveCandidate(ctx context.Context, c model.Candidate) (*model.Candidate, error) {
	c.Notes = nil
	c.UpdatedAt = s.now()
	if err := s.validateCandidate(c); err != nil {
		return nil, err
	}
	saved, err := s.st.Candidates.Update(ctx, c)
	if err != nil {
		return nil, notFound("updateCandidate", err)
	}
	s.changed(ctx, store.Candidates, c.ID, events.OpUpdate)
	saved.Notes = s.notesOf(ctx, Parent{Kind: ParentCandidate, ID: c.ID})
	return &saved, nil
}

func (s *Service) validateCandidate(c model.Candidate) error {
	if err := validateRecord(c); err != nil {
		return err
	}
	return s.checkVocabulary(store.Candidates.Name, map[string]string{
		model.CategoryStatus:     c.Statut,
		model.CategoryExperience: c.NiveauExperience,
	})
}

// DeleteCandidate removes a candidate together with its notes and
// applications.
func (s *Service) DeleteCandidate(ctx context.Context, id string) error {
	if _, err := s.st.Candidates.Get(ctx, id); err != nil {
		return notFound("deleteCandidate", err)
	}
	apps, err := s.st.Applications.ListBy(ctx, "candidat_id", id)
	if err != nil {
		return fmt.Errorf("deleteCandidate: %w", err)
	}
	for _, a := range apps {
		if err := s.st.Applications.Delete(ctx, a.ID); err != nil {
			return notFound("deleteCandidate application", err)
		}
		s.changed(ctx, store.Applications, a.ID, events.OpDelete)
	}
	if err := s.st.Candidates.Delete(ctx, id); err != nil {
		return notFound("deleteCandidate", err)
	}
	s.deleteNotesOf(ctx, Parent{Kind: ParentCandidate, ID: id})
	s.changed(ctx, store.Candidates, id, events.OpDelete)
	return nil
}

// ─── Profile sections ────────────────────────────────────────────────────────

// Candidate profile sections and the columns each one edits. Sections with a
// single column take that column's value as body; the others take an object
// keyed by column.
var candidateSections = map[string][]string{
	"identite":    {"nom", "prenom", "date_naissance"},
	"coordonnees": {"email", "telephone", "adresse", "code_postal", "ville", "pays", "linkedin_url"},
	"profil": {
		"statut", "metier", "specialisations", "postes_cibles", "niveau_experience",
		"annees_experience", "pretention_salariale", "disponibilite", "mobilite",
		"source", "cv_url",
	},
	"competences": {"competences", "competences_techniques"},
	"experiences": {"experiences"},
	"formations":  {"formations"},
	"langues":     {"langues"},
	"motivation":  {"motivation"},
	"analyse_ia":  {"analyse_ia"},
}

// Sections lists the editable profile sections in name order.
func Sections() []string {
	out := make([]string, 0, len(candidateSections))
	for name := range candidateSections {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// UpdateCandidateSection edits one section of a candidate profile, leaving
// the other columns untouched.
func (s *Service) UpdateCandidateSection(ctx context.Context, id, section string, body json.RawMessage) (*model.Candidate, error) {
	cols, ok := candidateSections[section]
	if !ok {
		return nil, invalid("section", fmt.Sprintf("unknown section %q (want one of %s)", section, strings.Join(Sections(), ", ")))
	}
	patch, err := sectionPatch(cols, body)
	if err != nil {
		return nil, err
	}

	cur, err := s.st.Candidates.Get(ctx, id)
	if err != nil {
		return nil, notFound("updateCandidateSection", err)
	}
	next, err := applyPatch(cur, patch)
	if err != nil {
		return nil, err
	}
	next.ID = id
	next.CreatedAt = cur.CreatedAt

	slog.Debug("candidate section updated", "candidateId", id, "section", section)
	return s.saveCandidate(ctx, next)
}

// sectionPatch reads the body of a section update into column → value.
func sectionPatch(cols []string, body json.RawMessage) (map[string]json.RawMessage, error) {
	if len(cols) == 1 {
		if len(strings.TrimSpace(string(body))) == 0 {
			return nil, invalid(cols[0], "missing value")
		}
		return map[string]json.RawMessage{cols[0]: body}, nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, &ValidationError{Msg: "section body must be a JSON object"}
	}
	allowed := make(map[string]bool, len(cols))
	for _, c := range cols {
		allowed[c] = true
	}
	for k := range fields {
		if !allowed[k] {
			return nil, invalid(k, "not part of this section")
		}
	}
	return fields, nil
}

// applyPatch overlays patch on the JSON form of c.
func applyPatch(c model.Candidate, patch map[string]json.RawMessage) (model.Candidate, error) {
	c.Notes = nil
	raw, err := json.Marshal(c)
	if err != nil {
		return c, fmt.Errorf("encode candidate: %w", err)
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return c, fmt.Errorf("encode candidate: %w", err)
	}
	for k, v := range patch {
		fields[k] = v
	}
	merged, err := json.Marshal(fields)
	if err != nil {
		return c, fmt.Errorf("encode candidate: %w", err)
	}

	var next model.Candidate
	if err := json.Unmarshal(merged, &next); err != nil {
		var te *json.UnmarshalTypeError
		if errors.As(err, &te) {
			return c, invalid(te.Field, "has the wrong type")
		}
		return c, &ValidationError{Msg: "invalid section body: " + err.Error()}
	}
	return next, nil
}
