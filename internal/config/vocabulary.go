package config

import (
	_ "embed"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

//go:embed vocabulary.yaml
var defaultVocabulary []byte

// Vocabulary holds the allowed values of the categorical columns, keyed by
// table then column.
type Vocabulary struct {
	kinds map[string]map[string][]string
}

// LoadVocabulary reads the vocabulary at path, or the embedded default when
// path is empty.
func LoadVocabulary(path string) (*Vocabulary, error) {
	data := defaultVocabulary
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read vocabulary: %w", err)
		}
		data = b
	}
	return ParseVocabulary(data)
}

// ParseVocabulary decodes and validates a YAML vocabulary document.
func ParseVocabulary(data []byte) (*Vocabulary, error) {
	var kinds map[string]map[string][]string
	if err := yaml.Unmarshal(data, &kinds); err != nil {
		return nil, fmt.Errorf("parse vocabulary: %w", err)
	}
	for kind, dims := range kinds {
		for dim, values := range dims {
			if len(values) == 0 {
				return nil, fmt.Errorf("vocabulary %s.%s: empty option list", kind, dim)
			}
			seen := make(map[string]bool, len(values))
			for _, v := range values {
				if v == "" {
					return nil, fmt.Errorf("vocabulary %s.%s: empty value", kind, dim)
				}
				if seen[v] {
					return nil, fmt.Errorf("vocabulary %s.%s: duplicate value %q", kind, dim, v)
				}
				seen[v] = true
			}
		}
	}
	return &Vocabulary{kinds: kinds}, nil
}

// Options returns the allowed values of kind.dim, or nil when the column is
// free text.
func (v *Vocabulary) Options(kind, dim string) []string {
	values := v.kinds[kind][dim]
	if values == nil {
		return nil
	}
	return append([]string(nil), values...)
}

// Allows reports whether value may be stored in kind.dim. Empty values and
// columns without a vocabulary are always allowed.
func (v *Vocabulary) Allows(kind, dim, value string) bool {
	if value == "" {
		return true
	}
	values, ok := v.kinds[kind][dim]
	if !ok {
		return true
	}
	for _, s := range values {
		if s == value {
			return true
		}
	}
	return false
}

// Dimensions lists the constrained columns of kind in name order.
func (v *Vocabulary) Dimensions(kind string) []string {
	dims := make([]string, 0, len(v.kinds[kind]))
	for d := range v.kinds[kind] {
		dims = append(dims, d)
	}
	sort.Strings(dims)
	return dims
}

// All returns a copy of the whole vocabulary, suitable for JSON encoding.
func (v *Vocabulary) All() map[string]map[string][]string {
	out := make(map[string]map[string][]string, len(v.kinds))
	for kind, dims := range v.kinds {
		out[kind] = make(map[string][]string, len(dims))
		for dim, values := range dims {
			out[kind][dim] = append([]string(nil), values...)
		}
	}
	return out
}
