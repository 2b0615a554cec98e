package train

import (
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"github.com/gyeh/readmit/internal/artifact"
	"github.com/gyeh/readmit/internal/artifact/artifacttest"
	"github.com/gyeh/readmit/internal/boost"
	"github.com/gyeh/readmit/internal/dataset"
	"github.com/gyeh/readmit/internal/predict"
	"github.com/gyeh/readmit/internal/reconcile"
)

// writeTrainingCSV writes artifacttest.Frame with a readmitted column.
// Negative rows alternate between ">30" and the dropped "NO".
func writeTrainingCSV(t *testing.T) string {
	t.Helper()
	f, labels := artifacttest.Frame()
	path := filepath.Join(t.TempDir(), "diabetic_data.csv")
	out, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer out.Close()
	w := csv.NewWriter(out)
	_ = w.Write(append(append([]string(nil), f.Header...), "readmitted"))
	for i, row := range f.Rows {
		outcome := "<30"
		if labels[i] == 0 {
			outcome = ">30"
			if i%2 == 1 {
				outcome = "NO"
			}
		}
		_ = w.Write(append(append([]string(nil), row...), outcome))
	}
	w.Flush()
	if err := w.Error(); err != nil {
		t.Fatal(err)
	}
	return path
}

func testOptions(t *testing.T) Options {
	return Options{
		DataPath:    writeTrainingCSV(t),
		ArtifactDir: filepath.Join(t.TempDir(), "artifacts"),
		Target:      dataset.DefaultTarget,
		TestRatio:   0.25,
		Params: boost.Params{
			NEstimators:     20,
			LearningRate:    0.3,
			MaxDepth:        2,
			Subsample:       1,
			ColsampleByTree: 1,
			Lambda:          1,
			MinChildWeight:  0,
			MaxBins:         64,
			Seed:            7,
		},
		Strict: []string{artifacttest.StrictColumn},
	}
}

func TestRun(t *testing.T) {
	opts := testOptions(t)
	bundle, summary, err := Run(zerolog.Nop(), opts)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.RowsRead != 48 {
		t.Errorf("expected 48 rows read, got %d", summary.RowsRead)
	}
	if summary.RowsLabeled >= summary.RowsRead {
		t.Errorf("NO rows should be dropped: labeled %d of %d", summary.RowsLabeled, summary.RowsRead)
	}
	if got := summary.TrainRows + summary.TestRows + summary.TestSkipped; got != summary.RowsLabeled {
		t.Errorf("train+test+skipped = %d, labeled = %d", got, summary.RowsLabeled)
	}
	if summary.Features != 6 || summary.Trees != 20 {
		t.Errorf("unexpected shape: %d features, %d trees", summary.Features, summary.Trees)
	}
	if bundle.Schema.Index("readmitted") >= 0 {
		t.Error("target column leaked into the feature schema")
	}
	if bundle.Manifest.Threshold != predict.DefaultThreshold {
		t.Errorf("expected default threshold, got %v", bundle.Manifest.Threshold)
	}

	loaded, err := artifact.Load(opts.ArtifactDir)
	if err != nil {
		t.Fatalf("artifact.Load: %v", err)
	}
	if loaded.Manifest.ModelID != summary.ModelID {
		t.Errorf("manifest model id %q, summary %q", loaded.Manifest.ModelID, summary.ModelID)
	}
	m := loaded.Manifest.Metrics
	if int64(m.TestRows) != summary.TestRows || int64(m.TrainRows) != summary.TrainRows {
		t.Errorf("manifest metrics disagree with summary: %+v", m)
	}
	if m.TestRows > 0 && m.Report.Accuracy < 0.75 {
		t.Errorf("expected held-out accuracy >= 0.75, got %v", m.Report.Accuracy)
	}

	p, err := predict.New(loaded, reconcile.DefaultsFromSchema(loaded.Schema, nil), 0)
	if err != nil {
		t.Fatalf("predict.New: %v", err)
	}
	if _, err := p.Predict(reconcile.Observed{"time_in_hospital": 9}); err != nil {
		t.Errorf("Predict on trained bundle: %v", err)
	}
}

func TestRun_PhaseErrors(t *testing.T) {
	cases := []struct {
		name  string
		edit  func(*Options)
		phase string
	}{
		{"missing data", func(o *Options) { o.DataPath = filepath.Join(t.TempDir(), "nope.csv") }, "load"},
		{"missing target", func(o *Options) { o.Target.Column = "outcome" }, "load"},
		{"numeric strict column", func(o *Options) { o.Strict = []string{"time_in_hospital"} }, "prepare"},
		{"unknown strict column", func(o *Options) { o.Strict = []string{"payer_code"} }, "prepare"},
		{"bad params", func(o *Options) { o.Params.MaxDepth = 0 }, "fit"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			opts := testOptions(t)
			tc.edit(&opts)
			_, _, err := Run(zerolog.Nop(), opts)
			var pe *PipelineError
			if !errors.As(err, &pe) {
				t.Fatalf("expected *PipelineError, got %v", err)
			}
			if pe.Phase != tc.phase {
				t.Errorf("expected phase %q, got %q (%v)", tc.phase, pe.Phase, pe.Err)
			}
		})
	}
}

func TestRun_ThresholdRecorded(t *testing.T) {
	opts := testOptions(t)
	opts.Threshold = 0.3
	bundle, _, err := Run(zerolog.Nop(), opts)
	if err != nil {
		t.Fatal(err)
	}
	if bundle.Manifest.Threshold != 0.3 {
		t.Errorf("expected threshold 0.3, got %v", bundle.Manifest.Threshold)
	}
}
