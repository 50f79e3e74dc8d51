package backoffice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"recrutement/backoffice-service/internal/events"
	"recrutement/backoffice-service/internal/model"
	"recrutement/backoffice-service/internal/store"
)

// Mandate statuses the service sets on its own.
const (
	MandateOpen   = "ouvert"
	MandateFilled = "pourvu"
)

const clientDefaultStatus = "prospect"

// ─── Clients ─────────────────────────────────────────────────────────────────

// ListClients returns every client, newest first.
func (s *Service) ListClients(ctx context.Context) ([]model.Client, error) {
	list, err := s.st.Clients.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listClients: %w", err)
	}
	return list, nil
}

// GetClient returns one client.
func (s *Service) GetClient(ctx context.Context, id string) (*model.Client, error) {
	c, err := s.st.Clients.Get(ctx, id)
	if err != nil {
		return nil, notFound("getClient", err)
	}
	return &c, nil
}

// CreateClient validates and stores a new client.
func (s *Service) CreateClient(ctx context.Context, c model.Client) (*model.Client, error) {
	c.ID = ""
	if c.Statut == "" {
		c.Statut = clientDefaultStatus
	}
	s.stamp(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if err := s.validateClient(c); err != nil {
		return nil, err
	}
	saved, err := s.st.Clients.Insert(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("createClient: %w", err)
	}
	s.changed(ctx, store.Clients, saved.ID, events.OpCreate)
	return &saved, nil
}

// UpdateClient replaces every column of a client but its id and creation
// time.
func (s *Service) UpdateClient(ctx context.Context, id string, c model.Client) (*model.Client, error) {
	cur, err := s.st.Clients.Get(ctx, id)
	if err != nil {
		return nil, notFound("updateClient", err)
	}
	c.ID = id
	c.CreatedAt = cur.CreatedAt
	c.UpdatedAt = s.now()
	if err := s.validateClient(c); err != nil {
		return nil, err
	}
	saved, err := s.st.Clients.Update(ctx, c)
	if err != nil {
		return nil, notFound("updateClient", err)
	}
	s.changed(ctx, store.Clients, id, events.OpUpdate)
	return &saved, nil
}

func (s *Service) validateClient(c model.Client) error {
	if err := validateRecord(c); err != nil {
		return err
	}
	return s.checkVocabulary(store.Clients.Name, map[string]string{"statut": c.Statut})
}

// DeleteClient removes a client and its notes. It is refused while mandates
// still reference the client.
func (s *Service) DeleteClient(ctx context.Context, id string) error {
	if _, err := s.st.Clients.Get(ctx, id); err != nil {
		return notFound("deleteClient", err)
	}
	mandates, err := s.st.Mandates.ListBy(ctx, "client_id", id)
	if err != nil {
		return fmt.Errorf("deleteClient: %w", err)
	}
	if len(mandates) > 0 {
		return conflict("client %s still has %d mandate(s)", id, len(mandates))
	}
	if err := s.st.Clients.Delete(ctx, id); err != nil {
		return notFound("deleteClient", err)
	}
	s.deleteNotesOf(ctx, Parent{Kind: ParentClient, ID: id})
	s.changed(ctx, store.Clients, id, events.OpDelete)
	return nil
}

// ─── Mandates ────────────────────────────────────────────────────────────────

// ListMandates returns the mandates of clientID, or every mandate when
// clientID is empty.
func (s *Service) ListMandates(ctx context.Context, clientID string) ([]model.Mandate, error) {
	var (
		list []model.Mandate
		err  error
	)
	if clientID != "" {
		list, err = s.st.Mandates.ListBy(ctx, "client_id", clientID)
	} else {
		list, err = s.st.Mandates.List(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("listMandates: %w", err)
	}
	return list, nil
}

// GetMandate returns one mandate.
func (s *Service) GetMandate(ctx context.Context, id string) (*model.Mandate, error) {
	m, err := s.st.Mandates.Get(ctx, id)
	if err != nil {
		return nil, notFound("getMandate", err)
	}
	return &m, nil
}

// CreateMandate stores a new mandate for an existing client.
func (s *Service) CreateMandate(ctx context.Context, m model.Mandate) (*model.Mandate, error) {
	m.ID = ""
	if m.Statut == "" {
		m.Statut = MandateOpen
	}
	if m.DateOuverture == nil {
		today := s.now().Format("2006-01-02")
		m.DateOuverture = &today
	}
	s.stamp(&m.ID, &m.CreatedAt, &m.UpdatedAt)
	if err := s.validateMandate(ctx, m); err != nil {
		return nil, err
	}
	saved, err := s.st.Mandates.Insert(ctx, m)
	if err != nil {
		return nil, fmt.Errorf("createMandate: %w", err)
	}
	s.changed(ctx, store.Mandates, saved.ID, events.OpCreate)
	return &saved, nil
}

// UpdateMandate replaces every column of a mandate but its id and creation
// time.
func (s *Service) UpdateMandate(ctx context.Context, id string, m model.Mandate) (*model.Mandate, error) {
	cur, err := s.st.Mandates.Get(ctx, id)
	if err != nil {
		return nil, notFound("updateMandate", err)
	}
	m.ID = id
	m.CreatedAt = cur.CreatedAt
	m.UpdatedAt = s.now()
	if err := s.validateMandate(ctx, m); err != nil {
		return nil, err
	}
	saved, err := s.st.Mandates.Update(ctx, m)
	if err != nil {
		return nil, notFound("updateMandate", err)
	}
	s.changed(ctx, store.Mandates, id, events.OpUpdate)
	return &saved, nil
}

func (s *Service) validateMandate(ctx context.Context, m model.Mandate) error {
	if err := validateRecord(m); err != nil {
		return err
	}
	if err := s.checkVocabulary(store.Mandates.Name, map[string]string{
		"statut":       m.Statut,
		"type_contrat": m.TypeContrat,
	}); err != nil {
		return err
	}
	if m.SalaireMin != nil && m.SalaireMax != nil && *m.SalaireMin > *m.SalaireMax {
		return invalid("salaire_max", "must be greater than or equal to salaire_min")
	}
	if _, err := s.st.Clients.Get(ctx, m.ClientID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return invalid("client_id", "unknown client "+m.ClientID)
		}
		return fmt.Errorf("validateMandate: %w", err)
	}
	return nil
}

// DeleteMandate removes a mandate and its notes. It is refused while
// applications still reference the mandate.
func (s *Service) DeleteMandate(ctx context.Context, id string) error {
	if _, err := s.st.Mandates.Get(ctx, id); err != nil {
		return notFound("deleteMandate", err)
	}
	apps, err := s.st.Applications.ListBy(ctx, "mandat_id", id)
	if err != nil {
		return fmt.Errorf("deleteMandate: %w", err)
	}
	if len(apps) > 0 {
		return conflict("mandate %s still has %d application(s)", id, len(apps))
	}
	if err := s.st.Mandates.Delete(ctx, id); err != nil {
		return notFound("deleteMandate", err)
	}
	s.deleteNotesOf(ctx, Parent{Kind: ParentMandate, ID: id})
	s.changed(ctx, store.Mandates, id, events.OpDelete)
	return nil
}

// fillMandate marks the mandate of a placed application as filled
// (non-fatal).
func (s *Service) fillMandate(ctx context.Context, mandateID string) {
	m, err := s.st.Mandates.Get(ctx, mandateID)
	if err != nil {
		slog.Warn("fillMandate: load failed", "mandateId", mandateID, "err", err)
		return
	}
	m.Statut = MandateFilled
	if m.DateCloture == nil {
		today := s.now().Format("2006-01-02")
		m.DateCloture = &today
	}
	m.UpdatedAt = s.now()
	if _, err := s.st.Mandates.Update(ctx, m); err != nil {
		slog.Warn("fillMandate: update failed", "mandateId", mandateID, "err", err)
		return
	}
	s.changed(ctx, store.Mandates, mandateID, events.OpUpdate)
}
