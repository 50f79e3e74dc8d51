// Package search implements the in-memory free-text and category filter used
// by the candidate and raw-application list views.
//
// A query is split into lowercase words; a record passes when every word is a
// substring of at least one of its projected fields and every constrained
// category equals the selected value exactly. Nothing in this package performs
// I/O or writes to the records it is given.
package search

import "strings"

// All is the filter value meaning "no constraint" for a dimension.
const All = "all"

// Filters maps a category name (statut, niveau_experience, poste, ...) to the
// selected value or All.
type Filters map[string]string

// Searchable is implemented by every record type that appears in a filtered
// list.
type Searchable interface {
	// Project returns the fields the text query is matched against.
	Project() Projection
	// Category returns the raw value of a category dimension, or "" when the
	// record has no such dimension.
	Category(name string) string
}

// Result is the output of Apply.
type Result[R Searchable] struct {
	Records []R
	Count   int
	Active  bool
}

// Tokenize lowercases query and splits it on runs of whitespace. A blank query
// yields an empty slice. Repeated words are kept.
func Tokenize(query string) []string {
	return strings.Fields(strings.ToLower(strings.TrimSpace(query)))
}

// Matches reports whether every token is found in at least one projected
// field of r. An empty token list matches every record.
func Matches(r Searchable, tokens []string) bool {
	if len(tokens) == 0 {
		return true
	}
	p := r.Project()
	for _, t := range tokens {
		if !ContainsToken(p, t) {
			return false
		}
	}
	return true
}

// ContainsToken reports whether token is a substring of any field of p.
// token is expected to be lowercase already.
func ContainsToken(p Projection, token string) bool {
	for _, s := range p.Scalars {
		if containsFold(s, token) {
			return true
		}
	}
	for _, arr := range p.Arrays {
		for _, s := range arr {
			if containsFold(s, token) {
				return true
			}
		}
	}
	for _, sub := range p.Nested {
		for _, s := range sub {
			if containsFold(s, token) {
				return true
			}
		}
	}
	return false
}

func containsFold(field, token string) bool {
	if field == "" {
		return false
	}
	return strings.Contains(strings.ToLower(field), token)
}

// Constrained reports whether value restricts its dimension.
func Constrained(value string) bool {
	return value != "" && value != All
}

// IsActive reports whether query or filters narrow the list at all.
func IsActive(query string, filters Filters) bool {
	if strings.TrimSpace(query) != "" {
		return true
	}
	for _, v := range filters {
		if Constrained(v) {
			return true
		}
	}
	return false
}

// PassesFilters reports whether r satisfies every constrained category.
func PassesFilters(r Searchable, filters Filters) bool {
	for name, want := range filters {
		if !Constrained(want) {
			continue
		}
		if r.Category(name) != want {
			return false
		}
	}
	return true
}

// Apply filters records by query and filters. The returned slice is always
// newly allocated and keeps the input order; records itself is left untouched.
func Apply[R Searchable](records []R, query string, filters Filters) Result[R] {
	tokens := Tokenize(query)
	out := make([]R, 0, len(records))
	for _, r := range records {
		if !Matches(r, tokens) {
			continue
		}
		if !PassesFilters(r, filters) {
			continue
		}
		out = append(out, r)
	}
	return Result[R]{
		Records: out,
		Count:   len(out),
		Active:  IsActive(query, filters),
	}
}
