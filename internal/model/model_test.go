package model

import (
	"testing"

	"github.com/google/uuid"

	"github.com/gyeh/readmit/internal/reconcile"
)

func TestRiskFor(t *testing.T) {
	if RiskFor(1) != RiskHigh || RiskFor(0) != RiskLow {
		t.Fatal("unexpected risk mapping")
	}
}

func TestPredictionDefaulted(t *testing.T) {
	p := Prediction{Record: reconcile.Record{Fields: []reconcile.Field{
		{Name: "age", Source: reconcile.FromObserved},
		{Name: "race", Source: reconcile.FromDefault},
		{Name: "num_medications", Source: reconcile.FromRecovered},
	}}}
	got := p.Defaulted()
	if len(got) != 2 || got[0] != "race" || got[1] != "num_medications" {
		t.Errorf("unexpected defaulted columns: %v", got)
	}
	if r := p.Recovered(); len(r) != 1 || r[0] != "num_medications" {
		t.Errorf("unexpected recovered columns: %v", r)
	}
}

func TestScoredRowCopyValues(t *testing.T) {
	batch, modelID := uuid.New(), uuid.New()
	row := ScoredRow{
		BatchID:     batch.String(),
		RowNumber:   7,
		ModelID:     modelID.String(),
		Label:       1,
		Probability: 0.8,
		Risk:        string(RiskHigh),
	}
	vals, err := row.CopyValues()
	if err != nil {
		t.Fatalf("CopyValues: %v", err)
	}
	if len(vals) != len(ScoredColumns()) {
		t.Fatalf("expected %d values, got %d", len(ScoredColumns()), len(vals))
	}
	if vals[0] != batch || vals[3] != modelID {
		t.Errorf("ids not parsed: %v %v", vals[0], vals[3])
	}

	row.BatchID = "not-a-uuid"
	if _, err := row.CopyValues(); err == nil {
		t.Error("expected error for malformed batch id")
	}
}
