package model

import (
	"github.com/google/uuid"

	"github.com/gyeh/readmit/internal/reconcile"
)

// Risk is the display band of a prediction.
type Risk string

const (
	RiskLow  Risk = "low"
	RiskHigh Risk = "high"
)

// RiskFor maps a predicted label to its risk band.
func RiskFor(label int) Risk {
	if label == 1 {
		return RiskHigh
	}
	return RiskLow
}

// Prediction is the outcome of one inference call.
type Prediction struct {
	ID          uuid.UUID
	ModelID     string
	Label       int
	Risk        Risk
	Probability float64
	Record      reconcile.Record
}

// Defaulted returns the columns that were filled in rather than observed,
// including values recovered after a failed coercion.
func (p *Prediction) Defaulted() []string {
	names := p.Record.WithSource(reconcile.FromDefault)
	return append(names, p.Record.WithSource(reconcile.FromRecovered)...)
}

// Recovered returns the columns whose observed value could not be coerced.
func (p *Prediction) Recovered() []string {
	return p.Record.WithSource(reconcile.FromRecovered)
}
