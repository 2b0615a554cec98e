package reconcile

import (
	"strconv"

	"github.com/gyeh/readmit/internal/schema"
)

// Field is one reconciled column value. Categorical fields carry Text,
// numeric fields carry Number.
type Field struct {
	Name   string      `json:"name"`
	Kind   schema.Kind `json:"kind"`
	Text   string      `json:"text,omitempty"`
	Number float64     `json:"number"`
	Source Source      `json:"source"`
}

// Value returns the field's value as string or float64 depending on kind.
func (f Field) Value() any {
	if f.Kind == schema.Categorical {
		return f.Text
	}
	return f.Number
}

// String renders the value as text.
func (f Field) String() string {
	if f.Kind == schema.Categorical {
		return f.Text
	}
	return strconv.FormatFloat(f.Number, 'f', -1, 64)
}

// Record is a full feature row aligned to the schema it was reconciled against.
type Record struct {
	Fields  []Field  `json:"fields"`
	Ignored []string `json:"ignored,omitempty"`
}

// Names returns the column names in record order.
func (r Record) Names() []string {
	names := make([]string, len(r.Fields))
	for i, f := range r.Fields {
		names[i] = f.Name
	}
	return names
}

// Get returns the named field, or ok=false.
func (r Record) Get(name string) (Field, bool) {
	for _, f := range r.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Observed converts the record back into an observed input.
func (r Record) Observed() Observed {
	o := make(Observed, len(r.Fields))
	for _, f := range r.Fields {
		o[f.Name] = f.Value()
	}
	return o
}

// WithSource returns the names of fields whose Source is s.
func (r Record) WithSource(s Source) []string {
	var names []string
	for _, f := range r.Fields {
		if f.Source == s {
			names = append(names, f.Name)
		}
	}
	return names
}

// Equal reports whether r and o hold the same columns, kinds and values in
// the same order. Source and Ignored are bookkeeping and not compared.
func (r Record) Equal(o Record) bool {
	if len(r.Fields) != len(o.Fields) {
		return false
	}
	for i := range r.Fields {
		a, b := r.Fields[i], o.Fields[i]
		if a.Name != b.Name || a.Kind != b.Kind || a.Text != b.Text || a.Number != b.Number {
			return false
		}
	}
	return true
}
