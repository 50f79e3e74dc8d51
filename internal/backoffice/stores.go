package backoffice

import (
	"github.com/jackc/pgx/v5/pgxpool"
	supabase "github.com/nedpals/supabase-go"

	"recrutement/backoffice-service/internal/model"
	"recrutement/backoffice-service/internal/store"
)

// Stores bundles one store per table.
type Stores struct {
	Candidates      store.Store[model.Candidate]
	Notes           store.Store[model.Note]
	Clients         store.Store[model.Client]
	Mandates        store.Store[model.Mandate]
	Applications    store.Store[model.Application]
	RawApplications store.Store[model.RawApplication]
}

// PostgresStores returns Stores backed by pool.
func PostgresStores(pool *pgxpool.Pool) Stores {
	return Stores{
		Candidates:      store.NewPostgresStore[model.Candidate](pool, store.Candidates),
		Notes:           store.NewPostgresStore[model.Note](pool, store.Notes),
		Clients:         store.NewPostgresStore[model.Client](pool, store.Clients),
		Mandates:        store.NewPostgresStore[model.Mandate](pool, store.Mandates),
		Applications:    store.NewPostgresStore[model.Application](pool, store.Applications),
		RawApplications: store.NewPostgresStore[model.RawApplication](pool, store.RawApplications),
	}
}

// SupabaseStores returns Stores backed by the Supabase REST API.
func SupabaseStores(client *supabase.Client) Stores {
	return Stores{
		Candidates:      store.NewSupabaseStore[model.Candidate](client, store.Candidates),
		Notes:           store.NewSupabaseStore[model.Note](client, store.Notes),
		Clients:         store.NewSupabaseStore[model.Client](client, store.Clients),
		Mandates:        store.NewSupabaseStore[model.Mandate](client, store.Mandates),
		Applications:    store.NewSupabaseStore[model.Application](client, store.Applications),
		RawApplications: store.NewSupabaseStore[model.RawApplication](client, store.RawApplications),
	}
}

// MemoryStores returns empty in-process Stores.
func MemoryStores() Stores {
	return Stores{
		Candidates:      store.NewMemoryStore[model.Candidate](store.Candidates),
		Notes:           store.NewMemoryStore[model.Note](store.Notes),
		Clients:         store.NewMemoryStore[model.Client](store.Clients),
		Mandates:        store.NewMemoryStore[model.Mandate](store.Mandates),
		Applications:    store.NewMemoryStore[model.Application](store.Applications),
		RawApplications: store.NewMemoryStore[model.RawApplication](store.RawApplications),
	}
}
