// Package store is the thin persistence boundary of the back-office. Every
// table is reached through the same five calls keyed by record id; the
// backends (Postgres, Supabase, in-memory) only differ in transport.
package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned when no row has the requested id.
var ErrNotFound = errors.New("record not found")

// Entity is a row that can be addressed by id.
type Entity interface {
	Key() string
}

// Table describes a backing table: its name and the columns the service is
// allowed to write. "id" must be part of Columns.
type Table struct {
	Name    string
	Columns []string
}

// Store is a typed CRUD view of one table.
type Store[T Entity] interface {
	// List returns every row, most recently created first.
	List(ctx context.Context) ([]T, error)
	// ListBy returns the rows whose column equals value, most recent first.
	ListBy(ctx context.Context, column, value string) ([]T, error)
	Get(ctx context.Context, id string) (T, error)
	Insert(ctx context.Context, v T) (T, error)
	Update(ctx context.Context, v T) (T, error)
	Delete(ctx context.Context, id string) error
}

// Known tables. Column lists exclude values attached by the service (notes).
var (
	Candidates = Table{Name: "candidats", Columns: []string{
		"id", "nom", "prenom", "email", "telephone", "adresse", "code_postal",
		"ville", "pays", "date_naissance", "statut", "metier", "specialisations",
		"postes_cibles", "niveau_experience", "annees_experience",
		"pretention_salariale", "disponibilite", "mobilite", "competences",
		"competences_techniques", "experiences", "formations", "langues",
		"analyse_ia", "motivation", "cv_url", "linkedin_url", "source",
		"created_at", "updated_at",
	}}
	Notes = Table{Name: "notes", Columns: []string{
		"id", "candidat_id", "client_id", "mandat_id", "candidature_wp_id",
		"auteur", "type", "contenu", "created_at", "updated_at",
	}}
	Clients = Table{Name: "clients", Columns: []string{
		"id", "nom", "secteur", "adresse", "ville", "code_postal", "site_web",
		"contact_nom", "contact_email", "contact_telephone", "statut",
		"created_at", "updated_at",
	}}
	Mandates = Table{Name: "mandats", Columns: []string{
		"id", "client_id", "titre", "description", "lieu", "type_contrat",
		"salaire_min", "salaire_max", "statut", "date_ouverture", "date_cloture",
		"created_at", "updated_at",
	}}
	Applications = Table{Name: "candidatures", Columns: []string{
		"id", "candidat_id", "mandat_id", "statut", "source", "commentaire",
		"historique", "created_at", "updated_at",
	}}
	RawApplications = Table{Name: "candidatures_wp", Columns: []string{
		"id", "nom", "prenom", "email", "telephone", "ville", "poste", "message",
		"niveau_experience", "competences", "statut", "cv_url",
		"date_soumission", "candidat_id", "created_at", "updated_at",
	}}
)

// HasColumn reports whether column is one of t's writable columns.
func (t Table) HasColumn(column string) bool {
	for _, c := range t.Columns {
		if c == column {
			return true
		}
	}
	return false
}
