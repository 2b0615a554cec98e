package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gyeh/readmit/internal/model"
	"github.com/gyeh/readmit/internal/reconcile"
	embedsql "github.com/gyeh/readmit/internal/sql"
)

// PredictionLog records served predictions into readmit.predictions.
type PredictionLog struct {
	pool *pgxpool.Pool
}

// NewPredictionLog wraps pool.
func NewPredictionLog(pool *pgxpool.Pool) *PredictionLog {
	return &PredictionLog{pool: pool}
}

// Record inserts one prediction with the raw observed input.
func (l *PredictionLog) Record(ctx context.Context, p *model.Prediction, observed reconcile.Observed) error {
	modelID, err := uuid.Parse(p.ModelID)
	if err != nil {
		return fmt.Errorf("record prediction: model id: %w", err)
	}
	if observed == nil {
		observed = reconcile.Observed{}
	}
	obs, err := json.Marshal(observed)
	if err != nil {
		return fmt.Errorf("record prediction: encode observed: %w", err)
	}
	rec, err := json.Marshal(p.Record.Fields)
	if err != nil {
		return fmt.Errorf("record prediction: encode record: %w", err)
	}
	defaulted := p.Defaulted()
	if defaulted == nil {
		defaulted = []string{}
	}
	ignored := p.Record.Ignored
	if ignored == nil {
		ignored = []string{}
	}

	_, err = l.pool.Exec(ctx, embedsql.InsertPrediction,
		p.ID, modelID, p.Label, p.Probability, string(p.Risk),
		obs, rec, defaulted, ignored,
	)
	if err != nil {
		return fmt.Errorf("insert prediction: %w", err)
	}
	return nil
}
