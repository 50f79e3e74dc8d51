package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
)

// MemoryStore keeps rows in process. Values are copied through JSON on the
// way in and out so callers never share memory with the store, the same way
// they would not with a remote backend.
type MemoryStore[T Entity] struct {
	table Table

	mu   sync.RWMutex
	rows map[string][]byte
	seq  map[string]int
	next int
}

// NewMemoryStore returns an empty MemoryStore for table.
func NewMemoryStore[T Entity](table Table) *MemoryStore[T] {
	return &MemoryStore[T]{
		table: table,
		rows:  make(map[string][]byte),
		seq:   make(map[string]int),
	}
}

func (s *MemoryStore[T]) decode(b []byte) (T, error) {
	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		return v, fmt.Errorf("%s: decode: %w", s.table.Name, err)
	}
	return v, nil
}

// List implements Store.
func (s *MemoryStore[T]) List(ctx context.Context) ([]T, error) {
	return s.filter(func(map[string]json.RawMessage) bool { return true })
}

// ListBy implements Store.
func (s *MemoryStore[T]) ListBy(ctx context.Context, column, value string) ([]T, error) {
	if !s.table.HasColumn(column) {
		return nil, fmt.Errorf("%s: unknown column %q", s.table.Name, column)
	}
	return s.filter(func(fields map[string]json.RawMessage) bool {
		var got string
		if err := json.Unmarshal(fields[column], &got); err != nil {
			return false
		}
		return got == value
	})
}

func (s *MemoryStore[T]) filter(keep func(map[string]json.RawMessage) bool) ([]T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.rows))
	for id := range s.rows {
		ids = append(ids, id)
	}
	// Newest first, like ORDER BY created_at DESC.
	sort.Slice(ids, func(i, j int) bool { return s.seq[ids[i]] > s.seq[ids[j]] })

	out := make([]T, 0, len(ids))
	for _, id := range ids {
		b := s.rows[id]
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(b, &fields); err != nil {
			return nil, fmt.Errorf("%s: decode: %w", s.table.Name, err)
		}
		if !keep(fields) {
			continue
		}
		v, err := s.decode(b)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// Get implements Store.
func (s *MemoryStore[T]) Get(ctx context.Context, id string) (T, error) {
	s.mu.RLock()
	b, ok := s.rows[id]
	s.mu.RUnlock()
	if !ok {
		var zero T
		return zero, ErrNotFound
	}
	return s.decode(b)
}

// Insert implements Store.
func (s *MemoryStore[T]) Insert(ctx context.Context, v T) (T, error) {
	id := v.Key()
	if id == "" {
		return v, fmt.Errorf("%s: insert: empty id", s.table.Name)
	}
	b, err := s.encode(v)
	if err != nil {
		return v, err
	}

	s.mu.Lock()
	if _, exists := s.rows[id]; exists {
		s.mu.Unlock()
		return v, fmt.Errorf("%s: insert: duplicate id %q", s.table.Name, id)
	}
	s.next++
	s.seq[id] = s.next
	s.rows[id] = b
	s.mu.Unlock()

	return s.decode(b)
}

// Update implements Store.
func (s *MemoryStore[T]) Update(ctx context.Context, v T) (T, error) {
	b, err := s.encode(v)
	if err != nil {
		return v, err
	}

	s.mu.Lock()
	if _, ok := s.rows[v.Key()]; !ok {
		s.mu.Unlock()
		return v, ErrNotFound
	}
	s.rows[v.Key()] = b
	s.mu.Unlock()

	return s.decode(b)
}

// Delete implements Store.
func (s *MemoryStore[T]) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[id]; !ok {
		return ErrNotFound
	}
	delete(s.rows, id)
	delete(s.seq, id)
	return nil
}

// encode keeps only the table's columns, so values attached by the service
// (notes) are not persisted.
func (s *MemoryStore[T]) encode(v T) ([]byte, error) {
	full, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%s: encode: %w", s.table.Name, err)
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(full, &fields); err != nil {
		return nil, fmt.Errorf("%s: encode: %w", s.table.Name, err)
	}
	kept := make(map[string]json.RawMessage, len(s.table.Columns))
	for _, c := range s.table.Columns {
		if raw, ok := fields[c]; ok {
			kept[c] = raw
		}
	}
	return json.Marshal(kept)
}
