package backoffice

import (
	"context"
	"strings"

	"recrutement/backoffice-service/internal/events"
	"recrutement/backoffice-service/internal/model"
	"recrutement/backoffice-service/internal/store"
)

// Parent kinds a note can be attached to.
const (
	ParentCandidate      = "candidat"
	ParentClient         = "client"
	ParentMandate        = "mandat"
	ParentRawApplication = "candidature_wp"
)

// Parent identifies the record a note belongs to.
type Parent struct {
	Kind string
	ID   string
}

func (p Parent) column() string { return p.Kind + "_id" }

// parentExists checks that the parent record is there.
func (s *Service) parentExists(ctx context.Context, p Parent) error {
	var err error
	switch p.Kind {
	case ParentCandidate:
		_, err = s.st.Candidates.Get(ctx, p.ID)
	case ParentClient:
		_, err = s.st.Clients.Get(ctx, p.ID)
	case ParentMandate:
		_, err = s.st.Mandates.Get(ctx, p.ID)
	case ParentRawApplication:
		_, err = s.st.RawApplications.Get(ctx, p.ID)
	default:
		return invalid("parent", "unknown kind "+p.Kind)
	}
	if err != nil {
		return notFound("get note parent", err)
	}
	return nil
}

// ListNotes returns the notes of a record, newest first.
func (s *Service) ListNotes(ctx context.Context, p Parent) ([]model.Note, error) {
	if err := s.parentExists(ctx, p); err != nil {
		return nil, err
	}
	notes, err := s.st.Notes.ListBy(ctx, p.column(), p.ID)
	if err != nil {
		return nil, notFound("listNotes", err)
	}
	return notes, nil
}

// AddNote attaches a new note to a record.
func (s *Service) AddNote(ctx context.Context, p Parent, n model.Note) (*model.Note, error) {
	if err := s.parentExists(ctx, p); err != nil {
		return nil, err
	}
	n.CandidatID, n.ClientID, n.MandatID, n.CandidatureWPID = nil, nil, nil, nil
	id := p.ID
	switch p.Kind {
	case ParentCandidate:
		n.CandidatID = &id
	case ParentClient:
		n.ClientID = &id
	case ParentMandate:
		n.MandatID = &id
	case ParentRawApplication:
		n.CandidatureWPID = &id
	}
	n.ID = ""
	n.Contenu = strings.TrimSpace(n.Contenu)
	s.stamp(&n.ID, &n.CreatedAt, &n.UpdatedAt)
	if err := validateRecord(n); err != nil {
		return nil, err
	}

	saved, err := s.st.Notes.Insert(ctx, n)
	if err != nil {
		return nil, notFound("addNote", err)
	}
	s.changed(ctx, store.Notes, saved.ID, events.OpCreate)
	return &saved, nil
}

// UpdateNote rewrites the author, type and content of a note. The parent
// cannot change.
func (s *Service) UpdateNote(ctx context.Context, id string, n model.Note) (*model.Note, error) {
	cur, err := s.st.Notes.Get(ctx, id)
	if err != nil {
		return nil, notFound("updateNote", err)
	}
	cur.Auteur = n.Auteur
	cur.Type = n.Type
	cur.Contenu = strings.TrimSpace(n.Contenu)
	cur.UpdatedAt = s.now()
	if err := validateRecord(cur); err != nil {
		return nil, err
	}

	saved, err := s.st.Notes.Update(ctx, cur)
	if err != nil {
		return nil, notFound("updateNote", err)
	}
	s.changed(ctx, store.Notes, id, events.OpUpdate)
	return &saved, nil
}

// DeleteNote removes a note.
func (s *Service) DeleteNote(ctx context.Context, id string) error {
	if err := s.st.Notes.Delete(ctx, id); err != nil {
		return notFound("deleteNote", err)
	}
	s.changed(ctx, store.Notes, id, events.OpDelete)
	return nil
}
