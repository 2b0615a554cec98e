package encode

import (
	"fmt"
	"os"
	"sort"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/gyeh/readmit/internal/reconcile"
	"github.com/gyeh/readmit/internal/schema"
)

// HandleUnknown controls what happens when a categorical value was not seen
// during fitting.
type HandleUnknown string

const (
	// Ignore encodes an unseen category as an all-zero one-hot vector.
	Ignore HandleUnknown = "ignore"
	// Error rejects an unseen category.
	Error HandleUnknown = "error"
)

// Unknown is the design-row value of an unseen category on an Ignore column.
const Unknown = -1

// UnknownCategoryError is returned when a strict column receives a value
// outside its training vocabulary.
type UnknownCategoryError struct {
	Column string
	Value  string
}

func (e *UnknownCategoryError) Error() string {
	return fmt.Sprintf("column %q: category %q not seen during training", e.Column, e.Value)
}

// Column is the fitted encoding of one schema column.
type Column struct {
	Name          string        `yaml:"name"`
	Kind          schema.Kind   `yaml:"kind"`
	HandleUnknown HandleUnknown `yaml:"handle_unknown,omitempty"`
	Categories    []string      `yaml:"categories,omitempty"`

	index map[string]int
}

func (c *Column) buildIndex() {
	c.index = make(map[string]int, len(c.Categories))
	for i, v := range c.Categories {
		c.index[v] = i
	}
}

// Encoder maps reconciled records to design rows. Numeric columns pass
// through; categorical columns become the index of their category, which is
// the compact form of a one-hot vector.
type Encoder struct {
	Columns []Column `yaml:"columns"`
}

// Fit learns sorted vocabularies for every categorical column of s from rows,
// which must be in schema order. Columns named in strict reject unseen values.
func Fit(s *schema.Schema, rows [][]string, strict []string) (*Encoder, error) {
	strictSet := make(map[string]struct{}, len(strict))
	for _, name := range strict {
		c, ok := s.Column(name)
		if !ok {
			return nil, fmt.Errorf("strict column %q not in schema", name)
		}
		if c.Kind != schema.Categorical {
			return nil, fmt.Errorf("strict column %q is not categorical", name)
		}
		strictSet[name] = struct{}{}
	}

	e := &Encoder{Columns: make([]Column, s.Len())}
	for i, sc := range s.Columns() {
		col := Column{Name: sc.Name, Kind: sc.Kind}
		if sc.Kind == schema.Categorical {
			col.HandleUnknown = Ignore
			if _, ok := strictSet[sc.Name]; ok {
				col.HandleUnknown = Error
			}
			seen := make(map[string]struct{})
			for r, row := range rows {
				if len(row) != s.Len() {
					return nil, fmt.Errorf("row %d has %d cells, schema has %d", r, len(row), s.Len())
				}
				seen[row[i]] = struct{}{}
			}
			for v := range seen {
				col.Categories = append(col.Categories, v)
			}
			sort.Strings(col.Categories)
		}
		col.buildIndex()
		e.Columns[i] = col
	}
	return e, nil
}

// Width returns the number of features after one-hot expansion.
func (e *Encoder) Width() int {
	w := 0
	for _, c := range e.Columns {
		if c.Kind == schema.Categorical {
			w += len(c.Categories)
		} else {
			w++
		}
	}
	return w
}

// Categorical reports, per design-row position, whether the feature is categorical.
func (e *Encoder) Categorical() []bool {
	out := make([]bool, len(e.Columns))
	for i, c := range e.Columns {
		out[i] = c.Kind == schema.Categorical
	}
	return out
}

// Contains reports whether value is in the vocabulary of the named column.
func (e *Encoder) Contains(column, value string) bool {
	for _, c := range e.Columns {
		if c.Name == column {
			_, ok := c.index[value]
			return ok
		}
	}
	return false
}

// Strict returns the columns that reject unseen categories.
func (e *Encoder) Strict() []string {
	var names []string
	for _, c := range e.Columns {
		if c.HandleUnknown == Error {
			names = append(names, c.Name)
		}
	}
	return names
}

// CheckSchema verifies that the encoder was fit on exactly the columns of s.
func (e *Encoder) CheckSchema(s *schema.Schema) error {
	if len(e.Columns) != s.Len() {
		return fmt.Errorf("encoder has %d columns, schema has %d", len(e.Columns), s.Len())
	}
	for i, c := range e.Columns {
		sc := s.At(i)
		if c.Name != sc.Name || c.Kind != sc.Kind {
			return fmt.Errorf("encoder column %d is %s(%s), schema has %s(%s)", i, c.Name, c.Kind, sc.Name, sc.Kind)
		}
	}
	return nil
}

// Transform encodes one reconciled record.
func (e *Encoder) Transform(rec reconcile.Record) ([]float64, error) {
	if len(rec.Fields) != len(e.Columns) {
		return nil, fmt.Errorf("record has %d columns, encoder expects %d", len(rec.Fields), len(e.Columns))
	}
	out := make([]float64, len(e.Columns))
	for i, c := range e.Columns {
		f := rec.Fields[i]
		if f.Name != c.Name {
			return nil, fmt.Errorf("record column %d is %q, encoder expects %q", i, f.Name, c.Name)
		}
		if c.Kind == schema.Numeric {
			out[i] = f.Number
			continue
		}
		v, err := c.category(f.Text)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// TransformText encodes one raw training row in schema order. Unparseable
// numeric cells become 0.
func (e *Encoder) TransformText(row []string) ([]float64, error) {
	if len(row) != len(e.Columns) {
		return nil, fmt.Errorf("row has %d cells, encoder expects %d", len(row), len(e.Columns))
	}
	out := make([]float64, len(e.Columns))
	for i, c := range e.Columns {
		if c.Kind == schema.Numeric {
			out[i], _ = strconv.ParseFloat(row[i], 64)
			continue
		}
		v, err := c.category(row[i])
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (c *Column) category(value string) (float64, error) {
	if idx, ok := c.index[value]; ok {
		return float64(idx), nil
	}
	if c.HandleUnknown == Error {
		return 0, &UnknownCategoryError{Column: c.Name, Value: value}
	}
	return Unknown, nil
}

// Load reads an encoder.yaml file.
func Load(path string) (*Encoder, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read encoder file: %w", err)
	}
	var e Encoder
	if err := yaml.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("parse encoder file: %w", err)
	}
	for i := range e.Columns {
		e.Columns[i].buildIndex()
	}
	return &e, nil
}

// Save writes the encoder as YAML.
func (e *Encoder) Save(path string) error {
	data, err := yaml.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode encoder: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write encoder file: %w", err)
	}
	return nil
}
