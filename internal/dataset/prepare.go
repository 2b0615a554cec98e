package dataset

import (
	"fmt"
	"math/rand"
	"sort"
	"strconv"

	"gonum.org/v1/gonum/stat"

	"github.com/gyeh/readmit/internal/schema"
)

// Target describes how the label column is turned into a binary outcome.
type Target struct {
	Column   string   // e.g. "readmitted"
	Positive string   // value labelled 1, e.g. "<30"
	Drop     []string // values whose rows are excluded, e.g. "NO"
}

// DefaultTarget is the 30-day readmission outcome.
var DefaultTarget = Target{Column: "readmitted", Positive: "<30", Drop: []string{"NO"}}

// Labeled is a feature frame with one binary label per row.
type Labeled struct {
	Features *Frame
	Labels   []int
}

// Label drops excluded rows, maps the target to 0/1 and removes the target
// column from the features.
func Label(f *Frame, t Target) (*Labeled, error) {
	col := f.Column(t.Column)
	if col < 0 {
		return nil, fmt.Errorf("target column %q not found", t.Column)
	}
	drop := make(map[string]struct{}, len(t.Drop))
	for _, v := range t.Drop {
		drop[v] = struct{}{}
	}

	header := make([]string, 0, len(f.Header)-1)
	header = append(header, f.Header[:col]...)
	header = append(header, f.Header[col+1:]...)

	out := &Labeled{Features: &Frame{Header: header, Rejected: f.Rejected}}
	for _, row := range f.Rows {
		v := row[col]
		if _, skip := drop[v]; skip {
			continue
		}
		feat := make([]string, 0, len(row)-1)
		feat = append(feat, row[:col]...)
		feat = append(feat, row[col+1:]...)
		out.Features.Rows = append(out.Features.Rows, feat)
		if v == t.Positive {
			out.Labels = append(out.Labels, 1)
		} else {
			out.Labels = append(out.Labels, 0)
		}
	}
	if len(out.Labels) == 0 {
		return nil, fmt.Errorf("no rows left after dropping %v", t.Drop)
	}
	return out, nil
}

// InferKinds classifies each column: numeric when every non-empty value
// parses as a number, categorical otherwise. A single placeholder such as
// "?" therefore makes the whole column categorical.
func InferKinds(f *Frame) []schema.Kind {
	kinds := make([]schema.Kind, len(f.Header))
	for c := range f.Header {
		kinds[c] = schema.Numeric
		seen := false
		for _, row := range f.Rows {
			v := row[c]
			if v == "" {
				continue
			}
			seen = true
			if _, err := strconv.ParseFloat(v, 64); err != nil {
				kinds[c] = schema.Categorical
				break
			}
		}
		if !seen {
			kinds[c] = schema.Categorical
		}
	}
	return kinds
}

// Modes returns the most frequent value of each column as text. Ties on
// categorical columns resolve to the lexically smallest value.
func Modes(f *Frame, kinds []schema.Kind) []string {
	modes := make([]string, len(f.Header))
	for c := range f.Header {
		if kinds[c] == schema.Numeric {
			modes[c] = numericMode(f, c)
			continue
		}
		counts := make(map[string]int)
		for _, row := range f.Rows {
			if row[c] != "" {
				counts[row[c]]++
			}
		}
		keys := make([]string, 0, len(counts))
		for k := range counts {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		best, bestN := "", 0
		for _, k := range keys {
			if counts[k] > bestN {
				best, bestN = k, counts[k]
			}
		}
		modes[c] = best
	}
	return modes
}

func numericMode(f *Frame, c int) string {
	var vals []float64
	for _, row := range f.Rows {
		if v, err := strconv.ParseFloat(row[c], 64); err == nil {
			vals = append(vals, v)
		}
	}
	if len(vals) == 0 {
		return ""
	}
	sort.Float64s(vals)
	mode, _ := stat.Mode(vals, nil)
	return strconv.FormatFloat(mode, 'f', -1, 64)
}

// Schema builds a feature schema from the frame's header, inferred kinds and
// training modes.
func Schema(f *Frame) (*schema.Schema, error) {
	kinds := InferKinds(f)
	modes := Modes(f, kinds)
	cols := make([]schema.Column, len(f.Header))
	for i, name := range f.Header {
		cols[i] = schema.Column{Name: name, Kind: kinds[i], Fill: modes[i]}
	}
	return schema.New(cols)
}

// Split returns a deterministic shuffled train/test split of n row indices.
func Split(n int, testRatio float64, seed int64) (train, test []int) {
	rnd := rand.New(rand.NewSource(seed))
	indices := rnd.Perm(n)
	nTest := int(float64(n) * testRatio)
	test = append(test, indices[:nTest]...)
	train = append(train, indices[nTest:]...)
	return train, test
}

// Stratify keeps at most perClass rows for each distinct value of column,
// chosen at random with seed. Kept rows stay in their original order.
func Stratify(f *Frame, column string, perClass int, seed int64) (*Frame, error) {
	col := f.Column(column)
	if col < 0 {
		return nil, fmt.Errorf("stratify column %q not found", column)
	}
	byClass := make(map[string][]int)
	var classes []string
	for i, row := range f.Rows {
		v := row[col]
		if _, ok := byClass[v]; !ok {
			classes = append(classes, v)
		}
		byClass[v] = append(byClass[v], i)
	}
	sort.Strings(classes)

	rnd := rand.New(rand.NewSource(seed))
	var keep []int
	for _, c := range classes {
		idx := byClass[c]
		if len(idx) > perClass {
			rnd.Shuffle(len(idx), func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })
			idx = idx[:perClass]
		}
		keep = append(keep, idx...)
	}
	sort.Ints(keep)
	return f.Select(keep), nil
}
