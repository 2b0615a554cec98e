// Package predict runs single-record inference against a loaded bundle.
package predict

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/gyeh/readmit/internal/artifact"
	"github.com/gyeh/readmit/internal/model"
	"github.com/gyeh/readmit/internal/reconcile"
	"github.com/gyeh/readmit/internal/schema"
)

// DefaultThreshold is the positive-class probability cut.
const DefaultThreshold = 0.5

// InferenceError wraps a failure of the encoder or model on a reconciled
// record. It is always surfaced to the caller.
type InferenceError struct {
	Err error
}

func (e *InferenceError) Error() string {
	return fmt.Sprintf("inference failed: %v", e.Err)
}

func (e *InferenceError) Unwrap() error {
	return e.Err
}

// Predictor holds the read-only inference context. It is built once at
// startup and shared by every request.
type Predictor struct {
	bundle     *artifact.Bundle
	reconciler *reconcile.Reconciler
	threshold  float64
}

// New validates the bundle and builds a Predictor. A threshold outside
// (0,1) falls back to the bundle's recorded threshold, then DefaultThreshold.
func New(b *artifact.Bundle, d reconcile.Defaults, threshold float64) (*Predictor, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	r, err := reconcile.New(b.Schema, d)
	if err != nil {
		return nil, err
	}
	for _, name := range b.Encoder.Strict() {
		f, _ := r.Default(name)
		if !b.Encoder.Contains(name, f.Text) {
			return nil, fmt.Errorf("default %q for strict column %q is not a training category", f.Text, name)
		}
	}
	if threshold <= 0 || threshold >= 1 {
		threshold = b.Manifest.Threshold
	}
	if threshold <= 0 || threshold >= 1 {
		threshold = DefaultThreshold
	}
	return &Predictor{bundle: b, reconciler: r, threshold: threshold}, nil
}

// Schema returns the feature schema inference accepts.
func (p *Predictor) Schema() *schema.Schema {
	return p.bundle.Schema
}

// ModelID returns the bundle's model ID.
func (p *Predictor) ModelID() string {
	return p.bundle.Manifest.ModelID
}

// Strict returns the columns whose unseen categories fail inference.
func (p *Predictor) Strict() []string {
	return p.bundle.Encoder.Strict()
}

// Threshold returns the probability cut in use.
func (p *Predictor) Threshold() float64 {
	return p.threshold
}

// Reconcile shapes observed into a schema-aligned record without running
// the model.
func (p *Predictor) Reconcile(observed reconcile.Observed) reconcile.Record {
	return p.reconciler.Reconcile(observed)
}

// Predict reconciles observed, encodes it and scores exactly one row.
func (p *Predictor) Predict(observed reconcile.Observed) (*model.Prediction, error) {
	return p.PredictRecord(p.reconciler.Reconcile(observed))
}

// PredictRecord scores an already reconciled record.
func (p *Predictor) PredictRecord(rec reconcile.Record) (*model.Prediction, error) {
	row, err := p.bundle.Encoder.Transform(rec)
	if err != nil {
		return nil, &InferenceError{Err: err}
	}
	proba := p.bundle.Booster.PredictProba([][]float64{row})
	if len(proba) != 1 {
		return nil, &InferenceError{Err: errors.New("model returned no probability")}
	}
	label := 0
	if proba[0] >= p.threshold {
		label = 1
	}
	return &model.Prediction{
		ID:          uuid.New(),
		ModelID:     p.bundle.Manifest.ModelID,
		Label:       label,
		Risk:        model.RiskFor(label),
		Probability: proba[0],
		Record:      rec,
	}, nil
}
