// Package model defines the records stored in the back-office tables and
// their searchable projections.
package model

import (
	"encoding/json"
	"time"

	"recrutement/backoffice-service/internal/search"
)

// Category dimensions shared by the candidate and raw-application lists.
const (
	CategoryStatus     = "statut"
	CategoryExperience = "niveau_experience"
	CategoryJobTitle   = "poste"
)

// CandidateFieldsVersion identifies the field list searched by
// Candidate.Project. Bump it whenever a field is added or removed there.
const CandidateFieldsVersion = 2

// Candidate mirrors a row of the candidats table ("profil").
type Candidate struct {
	ID                    string              `json:"id"`
	Nom                   string              `json:"nom" validate:"required,max=120"`
	Prenom                string              `json:"prenom" validate:"required,max=120"`
	Email                 string              `json:"email" validate:"omitempty,email"`
	Telephone             string              `json:"telephone" validate:"omitempty,max=40"`
	Adresse               string              `json:"adresse"`
	CodePostal            string              `json:"code_postal" validate:"omitempty,max=12"`
	Ville                 string              `json:"ville"`
	Pays                  string              `json:"pays"`
	DateNaissance         *string             `json:"date_naissance" validate:"omitempty,datetime=2006-01-02"`
	Statut                string              `json:"statut"`
	Metier                string              `json:"metier"`
	Specialisations       StringList          `json:"specialisations"`
	PostesCibles          StringList          `json:"postes_cibles"`
	NiveauExperience      string              `json:"niveau_experience"`
	AnneesExperience      *int                `json:"annees_experience" validate:"omitempty,min=0,max=60"`
	PretentionSalariale   *int                `json:"pretention_salariale" validate:"omitempty,min=0"`
	Disponibilite         *string             `json:"disponibilite"`
	Mobilite              string              `json:"mobilite"`
	Competences           StringList          `json:"competences"`
	CompetencesTechniques StringList          `json:"competences_techniques"`
	Experiences           List[Experience]    `json:"experiences" validate:"dive"`
	Formations            List[Education]     `json:"formations" validate:"dive"`
	Langues               List[LanguageSkill] `json:"langues" validate:"dive"`
	AnalyseIA             *AIAnalysis         `json:"analyse_ia"`
	Motivation            *Motivation         `json:"motivation"`
	CVURL                 string              `json:"cv_url" validate:"omitempty,url"`
	LinkedInURL           string              `json:"linkedin_url" validate:"omitempty,url"`
	Source                string              `json:"source"`
	CreatedAt             time.Time           `json:"created_at"`
	UpdatedAt             time.Time           `json:"updated_at"`

	// Notes is attached by the service from the notes table; it is not a
	// column of candidats.
	Notes []Note `json:"notes,omitempty"`
}

// Experience is one entry of Candidate.Experiences.
type Experience struct {
	Entreprise          string     `json:"entreprise" validate:"required_without=Poste"`
	Poste               string     `json:"poste"`
	Description         string     `json:"description"`
	Lieu                string     `json:"lieu"`
	Secteur             string     `json:"secteur"`
	CompetencesAcquises StringList `json:"competences_acquises"`
	DateDebut           *string    `json:"date_debut"`
	DateFin             *string    `json:"date_fin"`
}

// Education is one entry of Candidate.Formations.
type Education struct {
	Diplome       string `json:"diplome" validate:"required_without=Etablissement"`
	Etablissement string `json:"etablissement"`
	Domaine       string `json:"domaine"`
	Lieu          string `json:"lieu"`
	Annee         *int   `json:"annee" validate:"omitempty,min=1900,max=2100"`
	Description   string `json:"description"`
}

// LanguageSkill is one entry of Candidate.Langues.
type LanguageSkill struct {
	Langue string `json:"langue" validate:"required"`
	Niveau string `json:"niveau"`
}

// AIAnalysis is the stored result of the CV analysis.
type AIAnalysis struct {
	Resume             string     `json:"resume"`
	PointsForts        StringList `json:"points_forts"`
	PointsAmelioration StringList `json:"points_amelioration"`
	Recommandations    StringList `json:"recommandations"`
	Score              *float64   `json:"score"`
}

// UnmarshalJSON accepts the object inline or stringified.
func (a *AIAnalysis) UnmarshalJSON(data []byte) error {
	type plain AIAnalysis
	var p plain
	if inner := unwrapJSONString(data); len(inner) > 0 && inner[0] == '{' {
		_ = json.Unmarshal(inner, &p)
	}
	*a = AIAnalysis(p)
	return nil
}

// Motivation captures what the candidate is looking for.
type Motivation struct {
	Objectifs   string `json:"objectifs"`
	Preferences string `json:"preferences"`
	TypeContrat string `json:"type_contrat"`
	Mobilite    string `json:"mobilite"`
}

// UnmarshalJSON accepts the object inline or stringified.
func (m *Motivation) UnmarshalJSON(data []byte) error {
	type plain Motivation
	var p plain
	if inner := unwrapJSONString(data); len(inner) > 0 && inner[0] == '{' {
		_ = json.Unmarshal(inner, &p)
	}
	*m = Motivation(p)
	return nil
}

// UnmarshalJSON decodes a row, first coercing the scalar columns whose
// stored type varies (phone numbers saved as numbers, years of experience
// saved as text).
func (c *Candidate) UnmarshalJSON(data []byte) error {
	data, err := coerceColumns(data, candidateTextColumns, candidateIntColumns)
	if err != nil {
		return err
	}
	type plain Candidate
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*c = Candidate(p)
	return nil
}

// Key implements store.Entity.
func (c Candidate) Key() string { return c.ID }

// FullName returns "Prenom Nom", or whichever of the two is set.
func (c Candidate) FullName() string {
	switch {
	case c.Prenom == "":
		return c.Nom
	case c.Nom == "":
		return c.Prenom
	}
	return c.Prenom + " " + c.Nom
}

// Project implements search.Searchable.
func (c Candidate) Project() search.Projection {
	var p search.Projection
	p.Scalar(
		c.Nom, c.Prenom, c.Email, c.Telephone, c.Adresse, c.CodePostal,
		c.Ville, c.Pays, c.Statut, c.Metier, c.NiveauExperience, c.Mobilite,
		c.Source,
	)
	p.Int(c.AnneesExperience).Int(c.PretentionSalariale).ScalarPtr(c.Disponibilite)
	p.ScalarPtr(c.DateNaissance)

	p.Array(c.Specialisations).
		Array(c.PostesCibles).
		Array(c.Competences).
		Array(c.CompetencesTechniques)

	for _, e := range c.Experiences {
		p.Sub(append([]string{e.Entreprise, e.Poste, e.Description, e.Lieu, e.Secteur}, e.CompetencesAcquises...)...)
	}
	for _, f := range c.Formations {
		p.Sub(f.Diplome, f.Etablissement, f.Domaine, f.Lieu, f.Description)
	}
	for _, l := range c.Langues {
		p.Sub(l.Langue, l.Niveau)
	}
	for _, n := range c.Notes {
		p.Sub(n.Contenu, n.Auteur, n.Type)
	}
	if a := c.AnalyseIA; a != nil {
		p.Sub(a.Resume)
		p.Array(a.PointsForts).Array(a.PointsAmelioration).Array(a.Recommandations)
	}
	if m := c.Motivation; m != nil {
		p.Sub(m.Objectifs, m.Preferences, m.TypeContrat, m.Mobilite)
	}
	return p
}

// Category implements search.Searchable.
func (c Candidate) Category(name string) string {
	switch name {
	case CategoryStatus:
		return c.Statut
	case CategoryExperience:
		return c.NiveauExperience
	case CategoryJobTitle:
		return c.Metier
	}
	return ""
}
