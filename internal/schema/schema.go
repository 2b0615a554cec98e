package schema

import (
	"errors"
	"fmt"
)

// Kind tags a column as categorical (one-hot encoded) or numeric (passed through).
type Kind string

const (
	Categorical Kind = "categorical"
	Numeric     Kind = "numeric"
)

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	return k == Categorical || k == Numeric
}

// ErrMalformed is wrapped by every MismatchError.
var ErrMalformed = errors.New("malformed feature schema")

// MismatchError reports a feature schema that cannot be reconciled against.
type MismatchError struct {
	Column string // offending column, empty when the schema as a whole is bad
	Reason string
}

func (e *MismatchError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("%s: %s", ErrMalformed, e.Reason)
	}
	return fmt.Sprintf("%s: column %q: %s", ErrMalformed, e.Column, e.Reason)
}

func (e *MismatchError) Unwrap() error {
	return ErrMalformed
}

// Column is one training-time feature column.
type Column struct {
	Name string `yaml:"name"`
	Kind Kind   `yaml:"kind"`
	// Fill is the persisted training-set mode, stored as text. Empty means
	// no statistic was recorded and the kind-level default applies.
	Fill string `yaml:"fill,omitempty"`
}

// Schema is the ordered column list and kind mapping the model was fit on.
// A Schema is immutable once built; accessors never hand out the backing slice.
type Schema struct {
	columns []Column
	index   map[string]int
}

// New validates cols and returns a Schema that preserves their order.
func New(cols []Column) (*Schema, error) {
	s := &Schema{
		columns: make([]Column, len(cols)),
		index:   make(map[string]int, len(cols)),
	}
	copy(s.columns, cols)
	if err := s.Validate(); err != nil {
		return nil, err
	}
	for i, c := range s.columns {
		s.index[c.Name] = i
	}
	return s, nil
}

// Validate checks the schema is non-empty, its names are unique and
// non-blank, and every kind is known.
func (s *Schema) Validate() error {
	if s == nil || len(s.columns) == 0 {
		return &MismatchError{Reason: "no columns"}
	}
	seen := make(map[string]struct{}, len(s.columns))
	for i, c := range s.columns {
		if c.Name == "" {
			return &MismatchError{Reason: fmt.Sprintf("column %d has an empty name", i)}
		}
		if _, dup := seen[c.Name]; dup {
			return &MismatchError{Column: c.Name, Reason: "duplicate column name"}
		}
		seen[c.Name] = struct{}{}
		if !c.Kind.Valid() {
			return &MismatchError{Column: c.Name, Reason: fmt.Sprintf("unknown kind %q", c.Kind)}
		}
	}
	return nil
}

// Len returns the number of columns.
func (s *Schema) Len() int {
	return len(s.columns)
}

// Names returns the column names in schema order.
func (s *Schema) Names() []string {
	names := make([]string, len(s.columns))
	for i, c := range s.columns {
		names[i] = c.Name
	}
	return names
}

// Columns returns a copy of the columns in schema order.
func (s *Schema) Columns() []Column {
	out := make([]Column, len(s.columns))
	copy(out, s.columns)
	return out
}

// Column returns the named column, or ok=false.
func (s *Schema) Column(name string) (Column, bool) {
	i, ok := s.index[name]
	if !ok {
		return Column{}, false
	}
	return s.columns[i], true
}

// Index returns the position of the named column, or -1.
func (s *Schema) Index(name string) int {
	if i, ok := s.index[name]; ok {
		return i
	}
	return -1
}

// At returns the column at position i.
func (s *Schema) At(i int) Column {
	return s.columns[i]
}

// Kinds returns the column-name to kind mapping.
func (s *Schema) Kinds() map[string]Kind {
	m := make(map[string]Kind, len(s.columns))
	for _, c := range s.columns {
		m[c.Name] = c.Kind
	}
	return m
}

// WithFills returns a copy of s whose Fill values are replaced by fills.
// Columns missing from fills keep their current Fill.
func (s *Schema) WithFills(fills map[string]string) *Schema {
	out := &Schema{
		columns: make([]Column, len(s.columns)),
		index:   s.index,
	}
	copy(out.columns, s.columns)
	for i := range out.columns {
		if v, ok := fills[out.columns[i].Name]; ok {
			out.columns[i].Fill = v
		}
	}
	return out
}
