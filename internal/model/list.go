package model

import (
	"bytes"
	"encoding/json"
	"strings"
)

// List is a slice of nested sub-records (experiences, formations, langues)
// decoded leniently: a single object becomes a one-element list, a string
// holding JSON is decoded as if it were inline, and anything unreadable
// yields an empty list rather than an error.
type List[T any] []T

// UnmarshalJSON implements json.Unmarshaler.
func (l *List[T]) UnmarshalJSON(data []byte) error {
	*l = nil
	data = unwrapJSONString(data)
	if len(data) == 0 {
		return nil
	}
	switch data[0] {
	case '[':
		var items []T
		if err := json.Unmarshal(data, &items); err != nil {
			return nil
		}
		*l = items
	case '{':
		var item T
		if err := json.Unmarshal(data, &item); err != nil {
			return nil
		}
		*l = List[T]{item}
	}
	return nil
}

// MarshalJSON implements json.Marshaler. A nil list encodes as [].
func (l List[T]) MarshalJSON() ([]byte, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]T(l))
}

// unwrapJSONString returns the inner document when data is a JSON string
// whose content is itself JSON. null and blank strings return nil.
func unwrapJSONString(data []byte) []byte {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	if data[0] != '"' {
		return data
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return nil
	}
	s = strings.TrimSpace(s)
	if s == "" || s == "null" {
		return nil
	}
	return []byte(s)
}
