package model

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// StringList is a list of strings decoded leniently from the store.
//
// Older rows keep some list columns (specialisations, postes_cibles) as a
// stringified JSON array, others as a native array, and a few as a bare
// value. All of them decode to the same slice:
//
//	["a","b"]        → [a b]
//	"[\"a\",\"b\"]"  → [a b]
//	"a"              → [a]
//	42               → [42]
//	null, "", "[]"   → []
//
// StringList always encodes as a JSON array.
type StringList []string

// UnmarshalJSON implements json.Unmarshaler.
func (l *StringList) UnmarshalJSON(data []byte) error {
	*l = nil
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	switch data[0] {
	case '[':
		var raw []json.RawMessage
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		for _, item := range raw {
			if s, ok := scalarString(item); ok {
				*l = append(*l, s)
			}
		}
		return nil
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return nil
		}
		if strings.HasPrefix(s, "[") {
			var inner StringList
			if err := json.Unmarshal([]byte(s), &inner); err == nil {
				*l = inner
				return nil
			}
		}
		*l = StringList{s}
		return nil
	default:
		if s, ok := scalarString(data); ok {
			*l = StringList{s}
		}
		return nil
	}
}

// MarshalJSON implements json.Marshaler. A nil list encodes as [].
func (l StringList) MarshalJSON() ([]byte, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(l))
}

// scalarString renders a JSON scalar as text. Objects, arrays and null are
// rejected.
func scalarString(raw json.RawMessage) (string, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return "", false
	}
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", false
		}
		s = strings.TrimSpace(s)
		return s, s != ""
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(raw, &b); err != nil {
			return "", false
		}
		return strconv.FormatBool(b), true
	case 'n', '{', '[':
		return "", false
	default:
		var n json.Number
		if err := json.Unmarshal(raw, &n); err != nil {
			return "", false
		}
		return n.String(), true
	}
}
