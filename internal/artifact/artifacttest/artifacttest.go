// Package artifacttest builds a small trained bundle for tests.
package artifacttest

import (
	"strconv"
	"testing"

	"github.com/gyeh/readmit/internal/artifact"
	"github.com/gyeh/readmit/internal/boost"
	"github.com/gyeh/readmit/internal/dataset"
	"github.com/gyeh/readmit/internal/encode"
)

// StrictColumn rejects categories unseen in Frame.
const StrictColumn = "gender"

// Frame returns 48 encounters whose label is 1 exactly when
// time_in_hospital >= 7.
func Frame() (*dataset.Frame, []int) {
	races := []string{"Caucasian", "AfricanAmerican", "Caucasian", "Asian"}
	genders := []string{"Female", "Male", "Female"}
	ages := []string{"[70-80)", "[60-70)", "[50-60)", "[70-80)"}

	f := &dataset.Frame{Header: []string{
		"race", "gender", "age", "time_in_hospital", "num_lab_procedures", "num_medications",
	}}
	var labels []int
	for i := 0; i < 48; i++ {
		tih := 1 + i%12
		f.Rows = append(f.Rows, []string{
			races[i%4],
			genders[i%3],
			ages[i%4],
			strconv.Itoa(tih),
			strconv.Itoa(30 + i%20),
			strconv.Itoa(10 + i%10),
		})
		label := 0
		if tih >= 7 {
			label = 1
		}
		labels = append(labels, label)
	}
	return f, labels
}

// Bundle fits a bundle on Frame.
func Bundle(t testing.TB) *artifact.Bundle {
	t.Helper()
	f, y := Frame()
	s, err := dataset.Schema(f)
	if err != nil {
		t.Fatalf("dataset.Schema: %v", err)
	}
	enc, err := encode.Fit(s, f.Rows, []string{StrictColumn})
	if err != nil {
		t.Fatalf("encode.Fit: %v", err)
	}
	X := make([][]float64, len(f.Rows))
	for i, row := range f.Rows {
		if X[i], err = enc.TransformText(row); err != nil {
			t.Fatalf("TransformText: %v", err)
		}
	}
	params := boost.DefaultParams()
	params.NEstimators = 20
	params.LearningRate = 0.3
	params.MaxDepth = 2
	params.Subsample = 1
	params.ColsampleByTree = 1
	params.MinChildWeight = 0
	b := boost.New(boost.WithParams(params))
	if err := b.Fit(X, y, enc.Categorical()); err != nil {
		t.Fatalf("boost.Fit: %v", err)
	}
	return &artifact.Bundle{
		Manifest: artifact.Manifest{
			Target:    dataset.DefaultTarget.Column,
			Positive:  dataset.DefaultTarget.Positive,
			Threshold: 0.5,
			Params:    b.Params,
		},
		Schema:  s,
		Encoder: enc,
		Booster: b,
	}
}

// Dir saves a Bundle into a temporary directory and returns its path.
func Dir(t testing.TB) string {
	t.Helper()
	dir := t.TempDir()
	if err := artifact.Save(dir, Bundle(t)); err != nil {
		t.Fatalf("artifact.Save: %v", err)
	}
	return dir
}
