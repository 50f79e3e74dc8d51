package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	supabase "github.com/nedpals/supabase-go"
)

// SupabaseStore talks to the hosted Postgres through its PostgREST API using
// the supabase-go SDK.
//
// The SDK calls do not take a context; ctx is only checked before each call.
type SupabaseStore[T Entity] struct {
	client *supabase.Client
	table  Table
}

// NewSupabaseStore returns a SupabaseStore for table.
func NewSupabaseStore[T Entity](client *supabase.Client, table Table) *SupabaseStore[T] {
	return &SupabaseStore[T]{client: client, table: table}
}

// List implements Store.
func (s *SupabaseStore[T]) List(ctx context.Context) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var rows []json.RawMessage
	if err := s.client.DB.From(s.table.Name).Select("*").Execute(&rows); err != nil {
		return nil, fmt.Errorf("%s: select: %w", s.table.Name, err)
	}
	return s.decodeSorted(rows)
}

// ListBy implements Store.
func (s *SupabaseStore[T]) ListBy(ctx context.Context, column, value string) ([]T, error) {
	if !s.table.HasColumn(column) {
		return nil, fmt.Errorf("%s: unknown column %q", s.table.Name, column)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var rows []json.RawMessage
	if err := s.client.DB.From(s.table.Name).Select("*").Eq(column, value).Execute(&rows); err != nil {
		return nil, fmt.Errorf("%s: select: %w", s.table.Name, err)
	}
	return s.decodeSorted(rows)
}

// Get implements Store.
func (s *SupabaseStore[T]) Get(ctx context.Context, id string) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}
	var rows []json.RawMessage
	if err := s.client.DB.From(s.table.Name).Select("*").Eq("id", id).Execute(&rows); err != nil {
		return zero, fmt.Errorf("%s: select: %w", s.table.Name, err)
	}
	return s.first(rows)
}

// Insert implements Store.
func (s *SupabaseStore[T]) Insert(ctx context.Context, v T) (T, error) {
	if err := ctx.Err(); err != nil {
		return v, err
	}
	row, err := s.columns(v)
	if err != nil {
		return v, err
	}
	var rows []json.RawMessage
	if err := s.client.DB.From(s.table.Name).Insert(row).Execute(&rows); err != nil {
		return v, fmt.Errorf("%s: insert: %w", s.table.Name, err)
	}
	return s.first(rows)
}

// Update implements Store.
func (s *SupabaseStore[T]) Update(ctx context.Context, v T) (T, error) {
	if err := ctx.Err(); err != nil {
		return v, err
	}
	row, err := s.columns(v)
	if err != nil {
		return v, err
	}
	var rows []json.RawMessage
	if err := s.client.DB.From(s.table.Name).Update(row).Eq("id", v.Key()).Execute(&rows); err != nil {
		return v, fmt.Errorf("%s: update: %w", s.table.Name, err)
	}
	if len(rows) == 0 {
		// No representation returned: read the row back, which also
		// reports a missing id.
		return s.Get(ctx, v.Key())
	}
	return s.first(rows)
}

// Delete implements Store.
func (s *SupabaseStore[T]) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	var rows []json.RawMessage
	if err := s.client.DB.From(s.table.Name).Delete().Eq("id", id).Execute(&rows); err != nil {
		return fmt.Errorf("%s: delete: %w", s.table.Name, err)
	}
	return nil
}

// columns restricts v's JSON to the table's writable columns; PostgREST
// rejects unknown keys.
func (s *SupabaseStore[T]) columns(v T) (map[string]json.RawMessage, error) {
	full, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%s: encode: %w", s.table.Name, err)
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(full, &fields); err != nil {
		return nil, fmt.Errorf("%s: encode: %w", s.table.Name, err)
	}
	row := make(map[string]json.RawMessage, len(s.table.Columns))
	for _, c := range s.table.Columns {
		if raw, ok := fields[c]; ok {
			row[c] = raw
		}
	}
	return row, nil
}

func (s *SupabaseStore[T]) first(rows []json.RawMessage) (T, error) {
	var v T
	if len(rows) == 0 {
		return v, ErrNotFound
	}
	if err := json.Unmarshal(rows[0], &v); err != nil {
		return v, fmt.Errorf("%s: decode: %w", s.table.Name, err)
	}
	return v, nil
}

// decodeSorted decodes rows newest first by created_at.
func (s *SupabaseStore[T]) decodeSorted(rows []json.RawMessage) ([]T, error) {
	type stamped struct {
		CreatedAt time.Time `json:"created_at"`
	}
	stamps := make([]time.Time, len(rows))
	for i, r := range rows {
		var st stamped
		_ = json.Unmarshal(r, &st)
		stamps[i] = st.CreatedAt
	}
	idx := make([]int, len(rows))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return stamps[idx[a]].After(stamps[idx[b]]) })

	out := make([]T, 0, len(rows))
	for _, i := range idx {
		var v T
		if err := json.Unmarshal(rows[i], &v); err != nil {
			return nil, fmt.Errorf("%s: decode: %w", s.table.Name, err)
		}
		out = append(out, v)
	}
	return out, nil
}
