// Package reconcile rebuilds a complete, typed, schema-ordered feature row
// from the handful of fields a front-end actually collects.
//
// The trained pipeline aligns columns by name and position, so a row with a
// missing, extra or reordered column either fails or silently mispredicts.
// Reconcile is the only place rows are shaped for inference.
package reconcile

import (
	"sort"

	"github.com/gyeh/readmit/internal/normalize"
	"github.com/gyeh/readmit/internal/schema"
)

// DefaultCategory is the placeholder category used for unset categorical
// columns that have no per-column default. Encoders built by this module
// treat it as an unknown value unless it was seen during training.
const DefaultCategory = "Unknown"

// Observed is the partial mapping of column name to user-supplied value.
type Observed map[string]any

// Source records where a reconciled value came from.
type Source string

const (
	FromObserved  Source = "observed"
	FromDefault   Source = "defaulted"
	FromRecovered Source = "recovered" // supplied but not coercible; default substituted
)

// Defaults are the kind-conditioned fallbacks for unset or uncoercible columns.
type Defaults struct {
	Category string            // categorical fallback, DefaultCategory when empty
	Number   float64           // numeric fallback
	Columns  map[string]string // per-column fallback as text, coerced to the column kind
}

// DefaultsFromSchema returns Defaults whose per-column values are the
// schema's persisted Fill statistics. Entries in overrides win over fills.
func DefaultsFromSchema(s *schema.Schema, overrides map[string]string) Defaults {
	d := Defaults{Category: DefaultCategory, Columns: make(map[string]string)}
	for _, c := range s.Columns() {
		if c.Fill != "" {
			d.Columns[c.Name] = c.Fill
		}
	}
	for name, v := range overrides {
		d.Columns[name] = v
	}
	return d
}

// Reconciler reconciles observed inputs against one schema. It is read-only
// after New and safe for concurrent use.
type Reconciler struct {
	schema *schema.Schema
	fills  []Field // per-column default, already coerced to kind
}

// New validates s and precomputes the per-column defaults.
func New(s *schema.Schema, d Defaults) (*Reconciler, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	if d.Category == "" {
		d.Category = DefaultCategory
	}
	r := &Reconciler{schema: s, fills: make([]Field, s.Len())}
	for i, c := range s.Columns() {
		f := Field{Name: c.Name, Kind: c.Kind, Source: FromDefault}
		raw, hasColumn := d.Columns[c.Name]
		switch c.Kind {
		case schema.Categorical:
			f.Text = d.Category
			if txt, ok := normalize.Text(raw); hasColumn && ok {
				f.Text = txt
			}
		case schema.Numeric:
			f.Number = d.Number
			if num, ok := normalize.Number(raw); hasColumn && ok {
				f.Number = num
			}
		}
		r.fills[i] = f
	}
	return r, nil
}

// Schema returns the schema the reconciler was built for.
func (r *Reconciler) Schema() *schema.Schema {
	return r.schema
}

// Default returns the default field for the named column, or ok=false.
func (r *Reconciler) Default(name string) (Field, bool) {
	i := r.schema.Index(name)
	if i < 0 {
		return Field{}, false
	}
	return r.fills[i], true
}

// Reconcile builds one Record in schema order. Missing and uncoercible values
// are replaced by defaults; keys outside the schema are dropped and listed in
// Record.Ignored. It never fails.
func (r *Reconciler) Reconcile(observed Observed) Record {
	rec := Record{Fields: make([]Field, r.schema.Len())}
	for i := range rec.Fields {
		def := r.fills[i]
		raw, present := observed[def.Name]
		if !present {
			rec.Fields[i] = def
			continue
		}
		rec.Fields[i] = coerce(def, raw)
	}
	for key := range observed {
		if r.schema.Index(key) < 0 {
			rec.Ignored = append(rec.Ignored, key)
		}
	}
	sort.Strings(rec.Ignored)
	return rec
}

// coerce converts raw to def's kind, falling back to def when it cannot.
// A nil or blank value counts as absent rather than as a coercion failure.
func coerce(def Field, raw any) Field {
	f := Field{Name: def.Name, Kind: def.Kind, Source: FromObserved}
	switch def.Kind {
	case schema.Categorical:
		txt, ok := normalize.Text(raw)
		if !ok {
			return def
		}
		f.Text = txt
	case schema.Numeric:
		num, ok := normalize.Number(raw)
		if !ok {
			if _, nonBlank := normalize.Text(raw); !nonBlank {
				return def
			}
			def.Source = FromRecovered
			return def
		}
		f.Number = num
	}
	return f
}

// Reconcile validates s and reconciles observed against it in one call.
// It fails only with a *schema.MismatchError when s is malformed.
func Reconcile(s *schema.Schema, observed Observed, d Defaults) (Record, error) {
	r, err := New(s, d)
	if err != nil {
		return Record{}, err
	}
	return r.Reconcile(observed), nil
}
