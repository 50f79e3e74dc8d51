package search

import (
	"strconv"
	"strings"
)

// Projection is the flattened, searchable view of one record.
//
// Scalars holds single values (empty string stands for null), Arrays holds
// string-list attributes, and Nested holds one entry per sub-record of a
// nested collection or object.
type Projection struct {
	Scalars []string
	Arrays  [][]string
	Nested  [][]string
}

// Scalar adds string values. Empty values are skipped.
func (p *Projection) Scalar(values ...string) *Projection {
	for _, v := range values {
		if v != "" {
			p.Scalars = append(p.Scalars, v)
		}
	}
	return p
}

// ScalarPtr adds an optional string value.
func (p *Projection) ScalarPtr(v *string) *Projection {
	if v != nil {
		p.Scalar(*v)
	}
	return p
}

// Int adds an optional integer, stringified in base 10.
func (p *Projection) Int(v *int) *Projection {
	if v != nil {
		p.Scalars = append(p.Scalars, strconv.Itoa(*v))
	}
	return p
}

// Float adds an optional number using the shortest decimal form.
func (p *Projection) Float(v *float64) *Projection {
	if v != nil {
		p.Scalars = append(p.Scalars, strconv.FormatFloat(*v, 'f', -1, 64))
	}
	return p
}

// Array adds a list attribute. Nil and empty lists add nothing.
func (p *Projection) Array(values []string) *Projection {
	if len(values) > 0 {
		p.Arrays = append(p.Arrays, values)
	}
	return p
}

// Sub adds the fields of one sub-record. Blank fields are dropped; a
// sub-record with no remaining fields adds nothing.
func (p *Projection) Sub(fields ...string) *Projection {
	var sub []string
	for _, f := range fields {
		if strings.TrimSpace(f) != "" {
			sub = append(sub, f)
		}
	}
	if len(sub) > 0 {
		p.Nested = append(p.Nested, sub)
	}
	return p
}

// Len returns the total number of projected values.
func (p Projection) Len() int {
	n := len(p.Scalars)
	for _, a := range p.Arrays {
		n += len(a)
	}
	for _, s := range p.Nested {
		n += len(s)
	}
	return n
}
