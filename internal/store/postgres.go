package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore reads and writes a table over pgx. Rows are fetched as
// to_jsonb(row) and decoded into T, so column types (arrays, jsonb, text
// holding JSON) are normalized by T's JSON decoding rather than by Scan.
type PostgresStore[T Entity] struct {
	pool  *pgxpool.Pool
	table Table

	name string // sanitized table identifier
	cols string // sanitized, comma-separated writable columns
}

// NewPostgresStore returns a PostgresStore for table.
func NewPostgresStore[T Entity](pool *pgxpool.Pool, table Table) *PostgresStore[T] {
	cols := make([]string, 0, len(table.Columns))
	for _, c := range table.Columns {
		cols = append(cols, pgx.Identifier{c}.Sanitize())
	}
	return &PostgresStore[T]{
		pool:  pool,
		table: table,
		name:  pgx.Identifier{table.Name}.Sanitize(),
		cols:  strings.Join(cols, ", "),
	}
}

// List implements Store.
func (s *PostgresStore[T]) List(ctx context.Context) ([]T, error) {
	return s.query(ctx,
		fmt.Sprintf(`SELECT to_jsonb(t) FROM %s t ORDER BY t.created_at DESC`, s.name))
}

// ListBy implements Store.
func (s *PostgresStore[T]) ListBy(ctx context.Context, column, value string) ([]T, error) {
	if !s.table.HasColumn(column) {
		return nil, fmt.Errorf("%s: unknown column %q", s.table.Name, column)
	}
	return s.query(ctx,
		fmt.Sprintf(`SELECT to_jsonb(t) FROM %s t WHERE t.%s::text = $1 ORDER BY t.created_at DESC`,
			s.name, pgx.Identifier{column}.Sanitize()),
		value)
}

func (s *PostgresStore[T]) query(ctx context.Context, sql string, args ...any) ([]T, error) {
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: query: %w", s.table.Name, err)
	}
	defer rows.Close()

	out := make([]T, 0)
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("%s: scan: %w", s.table.Name, err)
		}
		var v T
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("%s: decode: %w", s.table.Name, err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// Get implements Store.
func (s *PostgresStore[T]) Get(ctx context.Context, id string) (T, error) {
	return s.one(ctx,
		fmt.Sprintf(`SELECT to_jsonb(t) FROM %s t WHERE t.id::text = $1`, s.name),
		id)
}

// Insert implements Store. Only the table's writable columns are taken
// from v.
func (s *PostgresStore[T]) Insert(ctx context.Context, v T) (T, error) {
	doc, err := json.Marshal(v)
	if err != nil {
		return v, fmt.Errorf("%s: encode: %w", s.table.Name, err)
	}
	return s.one(ctx,
		fmt.Sprintf(`INSERT INTO %[1]s (%[2]s)
		 SELECT %[2]s FROM jsonb_populate_record(NULL::%[1]s, $1::jsonb)
		 RETURNING to_jsonb(%[1]s.*)`, s.name, s.cols),
		string(doc))
}

// Update implements Store. The row is overwritten column by column from v;
// keys missing from v's JSON keep their current value.
func (s *PostgresStore[T]) Update(ctx context.Context, v T) (T, error) {
	doc, err := json.Marshal(v)
	if err != nil {
		return v, fmt.Errorf("%s: encode: %w", s.table.Name, err)
	}
	return s.one(ctx,
		fmt.Sprintf(`UPDATE %[1]s AS t
		 SET (%[2]s) = (SELECT %[2]s FROM jsonb_populate_record(t, $2::jsonb))
		 WHERE t.id::text = $1
		 RETURNING to_jsonb(t.*)`, s.name, s.cols),
		v.Key(), string(doc))
}

// Delete implements Store.
func (s *PostgresStore[T]) Delete(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx,
		fmt.Sprintf(`DELETE FROM %s WHERE id::text = $1`, s.name), id)
	if err != nil {
		return fmt.Errorf("%s: delete: %w", s.table.Name, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore[T]) one(ctx context.Context, sql string, args ...any) (T, error) {
	var (
		v   T
		raw []byte
	)
	if err := s.pool.QueryRow(ctx, sql, args...).Scan(&raw); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return v, ErrNotFound
		}
		return v, fmt.Errorf("%s: %w", s.table.Name, err)
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, fmt.Errorf("%s: decode: %w", s.table.Name, err)
	}
	return v, nil
}
