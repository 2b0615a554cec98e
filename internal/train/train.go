// Package train fits the readmission bundle from a labeled encounter CSV.
package train

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/gyeh/readmit/internal/artifact"
	"github.com/gyeh/readmit/internal/boost"
	"github.com/gyeh/readmit/internal/dataset"
	"github.com/gyeh/readmit/internal/encode"
	"github.com/gyeh/readmit/internal/model"
	"github.com/gyeh/readmit/internal/predict"
)

// PipelineError wraps an error with the phase where it occurred.
type PipelineError struct {
	Phase string
	Err   error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("%s: %s", e.Phase, e.Err)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

// Options configure one training run.
type Options struct {
	DataPath    string
	ArtifactDir string
	Target      dataset.Target
	TestRatio   float64
	Params      boost.Params
	Strict      []string
	Threshold   float64 // recorded in the manifest; outside (0,1) means predict.DefaultThreshold
}

// Run executes the training pipeline: load → prepare → fit → evaluate →
// save. The saved bundle is returned along with the run summary.
func Run(log zerolog.Logger, opts Options) (*artifact.Bundle, *model.TrainSummary, error) {
	totalStart := time.Now()
	summary := &model.TrainSummary{DataPath: opts.DataPath, ArtifactDir: opts.ArtifactDir}

	threshold := opts.Threshold
	if threshold <= 0 || threshold >= 1 {
		threshold = predict.DefaultThreshold
	}

	// Phase 1: Load
	start := time.Now()
	frame, err := dataset.LoadCSV(opts.DataPath)
	if err != nil {
		return nil, nil, &PipelineError{Phase: "load", Err: err}
	}
	labeled, err := dataset.Label(frame, opts.Target)
	if err != nil {
		return nil, nil, &PipelineError{Phase: "load", Err: err}
	}
	summary.RowsRead = int64(len(frame.Rows))
	summary.RowsMalformed = frame.Rejected
	summary.RowsLabeled = int64(len(labeled.Labels))
	for _, y := range labeled.Labels {
		summary.RowsPositive += int64(y)
	}
	summary.DurationLoad = time.Since(start)
	log.Info().
		Str("file", opts.DataPath).
		Int64("rows", summary.RowsRead).
		Int64("malformed", summary.RowsMalformed).
		Int64("labeled", summary.RowsLabeled).
		Float64("positive_rate", summary.PositiveRate()).
		Msg("training data loaded")

	// Phase 2: Prepare
	trainIdx, testIdx := dataset.Split(len(labeled.Labels), opts.TestRatio, opts.Params.Seed)
	if len(trainIdx) == 0 {
		return nil, nil, &PipelineError{Phase: "prepare", Err: errors.New("no training rows after split")}
	}
	trainFrame := labeled.Features.Select(trainIdx)
	s, err := dataset.Schema(trainFrame)
	if err != nil {
		return nil, nil, &PipelineError{Phase: "prepare", Err: err}
	}
	enc, err := encode.Fit(s, trainFrame.Rows, opts.Strict)
	if err != nil {
		return nil, nil, &PipelineError{Phase: "prepare", Err: err}
	}
	X, y, _, err := design(enc, trainFrame, labeled.Labels, trainIdx)
	if err != nil {
		return nil, nil, &PipelineError{Phase: "prepare", Err: err}
	}
	summary.TrainRows = int64(len(X))
	summary.Features = s.Len()
	log.Info().
		Int("columns", s.Len()).
		Int("one_hot_width", enc.Width()).
		Strs("strict", enc.Strict()).
		Msg("features prepared")

	// Phase 3: Fit
	start = time.Now()
	b := boost.New(boost.WithParams(opts.Params))
	if err := b.Fit(X, y, enc.Categorical()); err != nil {
		return nil, nil, &PipelineError{Phase: "fit", Err: err}
	}
	summary.Trees = len(b.Trees)
	summary.DurationFit = time.Since(start)
	log.Info().
		Int64("train_rows", summary.TrainRows).
		Int("features", summary.Features).
		Int("trees", summary.Trees).
		Str("duration", summary.DurationFit.String()).
		Msg("booster fitted")

	// Phase 4: Evaluate
	start = time.Now()
	metrics := artifact.Metrics{TrainRows: len(X)}
	if len(testIdx) > 0 {
		Xt, yt, skipped, err := design(enc, labeled.Features.Select(testIdx), labeled.Labels, testIdx)
		if err != nil {
			return nil, nil, &PipelineError{Phase: "evaluate", Err: err}
		}
		summary.TestSkipped = int64(skipped)
		if skipped > 0 {
			log.Warn().Int("rows", skipped).Msg("held-out rows with unseen strict categories excluded from evaluation")
		}
		if len(Xt) > 0 {
			proba := b.PredictProba(Xt)
			metrics.TestRows = len(Xt)
			metrics.LogLoss = boost.LogLoss(yt, proba)
			metrics.Report = boost.Evaluate(yt, boost.BinaryPredFromProba(proba, threshold))
		}
	}
	summary.TestRows = int64(metrics.TestRows)
	summary.DurationEval = time.Since(start)
	log.Info().
		Int("test_rows", metrics.TestRows).
		Float64("accuracy", metrics.Report.Accuracy).
		Float64("log_loss", metrics.LogLoss).
		Msg("held-out evaluation complete")

	// Phase 5: Save
	bundle := &artifact.Bundle{
		Manifest: artifact.Manifest{
			Target:    opts.Target.Column,
			Positive:  opts.Target.Positive,
			Threshold: threshold,
			Params:    b.Params,
			Metrics:   metrics,
		},
		Schema:  s,
		Encoder: enc,
		Booster: b,
	}
	if err := artifact.Save(opts.ArtifactDir, bundle); err != nil {
		return nil, nil, &PipelineError{Phase: "save", Err: err}
	}
	summary.ModelID = bundle.Manifest.ModelID
	summary.DurationTotal = time.Since(totalStart)
	log.Info().
		Str("model_id", summary.ModelID).
		Str("dir", opts.ArtifactDir).
		Str("total_duration", summary.DurationTotal.String()).
		Msg("training pipeline complete")

	return bundle, summary, nil
}

// design encodes f into a design matrix with labels picked from labels by
// idx. Rows carrying an unseen strict category are skipped and counted.
func design(enc *encode.Encoder, f *dataset.Frame, labels []int, idx []int) ([][]float64, []int, int, error) {
	X := make([][]float64, 0, len(f.Rows))
	y := make([]int, 0, len(f.Rows))
	skipped := 0
	for i, row := range f.Rows {
		x, err := enc.TransformText(row)
		if err != nil {
			var uce *encode.UnknownCategoryError
			if errors.As(err, &uce) {
				skipped++
				continue
			}
			return nil, nil, 0, fmt.Errorf("encode row %d: %w", idx[i], err)
		}
		X = append(X, x)
		y = append(y, labels[idx[i]])
	}
	return X, y, skipped, nil
}
