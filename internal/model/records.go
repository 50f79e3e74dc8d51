package model

import (
	"encoding/json"
	"time"

	"recrutement/backoffice-service/internal/search"
)

// Note mirrors a row of the notes table. Exactly one of the parent IDs is set.
type Note struct {
	ID              string    `json:"id"`
	CandidatID      *string   `json:"candidat_id"`
	ClientID        *string   `json:"client_id"`
	MandatID        *string   `json:"mandat_id"`
	CandidatureWPID *string   `json:"candidature_wp_id"`
	Auteur          string    `json:"auteur" validate:"max=120"`
	Type            string    `json:"type" validate:"omitempty,oneof=appel entretien email relance commentaire"`
	Contenu         string    `json:"contenu" validate:"required"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Key implements store.Entity.
func (n Note) Key() string { return n.ID }

// Client mirrors a row of the clients table.
type Client struct {
	ID               string    `json:"id"`
	Nom              string    `json:"nom" validate:"required,max=200"`
	Secteur          string    `json:"secteur"`
	Adresse          string    `json:"adresse"`
	Ville            string    `json:"ville"`
	CodePostal       string    `json:"code_postal" validate:"omitempty,max=12"`
	SiteWeb          string    `json:"site_web" validate:"omitempty,url"`
	ContactNom       string    `json:"contact_nom"`
	ContactEmail     string    `json:"contact_email" validate:"omitempty,email"`
	ContactTelephone string    `json:"contact_telephone" validate:"omitempty,max=40"`
	Statut           string    `json:"statut"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Key implements store.Entity.
func (c Client) Key() string { return c.ID }

// Mandate mirrors a row of the mandats table: a job order from a client.
type Mandate struct {
	ID            string    `json:"id"`
	ClientID      string    `json:"client_id" validate:"required"`
	Titre         string    `json:"titre" validate:"required,max=200"`
	Description   string    `json:"description"`
	Lieu          string    `json:"lieu"`
	TypeContrat   string    `json:"type_contrat"`
	SalaireMin    *int      `json:"salaire_min" validate:"omitempty,min=0"`
	SalaireMax    *int      `json:"salaire_max" validate:"omitempty,min=0"`
	Statut        string    `json:"statut"`
	DateOuverture *string   `json:"date_ouverture" validate:"omitempty,datetime=2006-01-02"`
	DateCloture   *string   `json:"date_cloture" validate:"omitempty,datetime=2006-01-02"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Key implements store.Entity.
func (m Mandate) Key() string { return m.ID }

// Application mirrors a row of the candidatures table: a candidate placed in
// the pipeline of a mandate.
type Application struct {
	ID          string          `json:"id"`
	CandidatID  string          `json:"candidat_id" validate:"required"`
	MandatID    string          `json:"mandat_id" validate:"required"`
	Statut      string          `json:"statut"`
	Source      string          `json:"source"`
	Commentaire string          `json:"commentaire"`
	Historique  json.RawMessage `json:"historique"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// Key implements store.Entity.
func (a Application) Key() string { return a.ID }

// StageChange is one entry of Application.Historique.
type StageChange struct {
	From string    `json:"from"`
	To   string    `json:"to"`
	At   time.Time `json:"at"`
}

// History decodes Historique. Unreadable history yields nil.
func (a Application) History() []StageChange {
	var h List[StageChange]
	_ = json.Unmarshal(a.Historique, &h)
	return h
}

// RawApplicationFieldsVersion identifies the field list searched by
// RawApplication.Project.
const RawApplicationFieldsVersion = 1

// RawApplication mirrors a row of the candidatures_wp table: an application
// submitted through the public website, not yet turned into a Candidate.
type RawApplication struct {
	ID               string     `json:"id"`
	Nom              string     `json:"nom"`
	Prenom           string     `json:"prenom"`
	Email            string     `json:"email"`
	Telephone        string     `json:"telephone"`
	Ville            string     `json:"ville"`
	Poste            string     `json:"poste"`
	Message          string     `json:"message"`
	NiveauExperience string     `json:"niveau_experience"`
	Competences      StringList `json:"competences"`
	Statut           string     `json:"statut"`
	CVURL            string     `json:"cv_url"`
	DateSoumission   *string    `json:"date_soumission"`
	CandidatID       *string    `json:"candidat_id"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`

	// Notes is attached by the service; it is not a column.
	Notes []Note `json:"notes,omitempty"`
}

// UnmarshalJSON decodes a row, coercing a numeric telephone to text.
func (r *RawApplication) UnmarshalJSON(data []byte) error {
	data, err := coerceColumns(data, rawTextColumns, nil)
	if err != nil {
		return err
	}
	type plain RawApplication
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*r = RawApplication(p)
	return nil
}

// Key implements store.Entity.
func (r RawApplication) Key() string { return r.ID }

// Project implements search.Searchable.
func (r RawApplication) Project() search.Projection {
	var p search.Projection
	p.Scalar(
		r.Nom, r.Prenom, r.Email, r.Telephone, r.Ville, r.Poste, r.Message,
		r.NiveauExperience, r.Statut,
	)
	p.ScalarPtr(r.DateSoumission)
	p.Array(r.Competences)
	for _, n := range r.Notes {
		p.Sub(n.Contenu, n.Auteur, n.Type)
	}
	return p
}

// Category implements search.Searchable.
func (r RawApplication) Category(name string) string {
	switch name {
	case CategoryStatus:
		return r.Statut
	case CategoryExperience:
		return r.NiveauExperience
	case CategoryJobTitle:
		return r.Poste
	}
	return ""
}
