package model

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Columns whose stored JSON type is known to drift between rows.
var (
	candidateTextColumns = []string{"telephone", "code_postal"}
	candidateIntColumns  = []string{"annees_experience", "pretention_salariale"}
	rawTextColumns       = []string{"telephone"}
)

// coerceColumns rewrites drifted scalar columns of a row object before it is
// decoded: numbers stored in text columns become strings, and numeric text
// or decimals stored in integer columns become integers. An integer column
// holding anything else decodes as null. Rows that are not objects are
// returned unchanged.
func coerceColumns(data []byte, text, ints []string) ([]byte, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return data, nil
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return nil, err
	}

	changed := false
	for _, c := range text {
		raw, ok := fields[c]
		if !ok {
			continue
		}
		raw = bytes.TrimSpace(raw)
		if len(raw) == 0 || raw[0] == '"' || raw[0] == 'n' {
			continue
		}
		s, _ := scalarString(raw)
		fields[c], _ = json.Marshal(s)
		changed = true
	}
	for _, c := range ints {
		raw, ok := fields[c]
		if !ok {
			continue
		}
		raw = bytes.TrimSpace(raw)
		if len(raw) == 0 || raw[0] == 'n' {
			continue
		}
		if _, err := strconv.Atoi(string(raw)); err == nil {
			continue
		}
		fields[c] = json.RawMessage("null")
		if n, ok := parseInt(raw); ok {
			fields[c] = json.RawMessage(strconv.Itoa(n))
		}
		changed = true
	}

	if !changed {
		return data, nil
	}
	return json.Marshal(fields)
}

// parseInt reads a JSON number or numeric string ("5", " 42 000 ", "7.5")
// as an integer, rounding decimals.
func parseInt(raw json.RawMessage) (int, bool) {
	s, ok := scalarString(raw)
	if !ok {
		return 0, false
	}
	s = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\u00a0', '\u202f':
			return -1
		case ',':
			return '.'
		}
		return r
	}, s)
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return int(math.Round(f)), true
}
