package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/gyeh/readmit/internal/model"
	embedsql "github.com/gyeh/readmit/internal/sql"
)

// Batch status values stored in readmit.score_batches.
const (
	StatusPending = "pending"
	StatusScoring = "scoring"
	StatusStored  = "stored"
	StatusFailed  = "failed"
)

// Batch identifies one scoring run of one input file under one model.
type Batch struct {
	ID          uuid.UUID
	InputPath   string
	InputSHA256 string
	ModelID     string
}

// Store persists batch-scoring results.
type Store struct {
	pool *pgxpool.Pool
	log  zerolog.Logger
}

// NewStore wraps pool.
func NewStore(pool *pgxpool.Pool, log zerolog.Logger) *Store {
	return &Store{pool: pool, log: log}
}

// RegisterBatch records b. When the same input was already scored by the
// same model, the existing batch ID is written into b and alreadyStored
// reports whether that batch completed. With force, a completed batch is
// reset so it can be scored again.
func (s *Store) RegisterBatch(ctx context.Context, b *Batch, force bool) (alreadyStored bool, err error) {
	modelID, err := uuid.Parse(b.ModelID)
	if err != nil {
		return false, fmt.Errorf("register batch: model id: %w", err)
	}

	var id uuid.UUID
	err = s.pool.QueryRow(ctx, embedsql.RegisterBatch, b.ID, b.InputPath, b.InputSHA256, modelID).Scan(&id)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return false, fmt.Errorf("register batch: %w", err)
	}

	var status string
	if err := s.pool.QueryRow(ctx, embedsql.LookupBatch, b.InputSHA256, modelID).Scan(&id, &status); err != nil {
		return false, fmt.Errorf("lookup existing batch: %w", err)
	}
	b.ID = id
	if status == StatusStored && !force {
		return true, nil
	}

	if err := s.DeleteScored(ctx, id); err != nil {
		return false, err
	}
	if err := s.UpdateBatch(ctx, id, StatusPending, 0, 0); err != nil {
		return false, err
	}
	return false, nil
}

// UpdateBatch sets a batch's status and row counts.
func (s *Store) UpdateBatch(ctx context.Context, id uuid.UUID, status string, scored, rejected int64) error {
	if _, err := s.pool.Exec(ctx, embedsql.UpdateBatchStatus, id, status, scored, rejected); err != nil {
		return fmt.Errorf("update batch status: %w", err)
	}
	return nil
}

// DeleteScored removes the scored rows of a batch.
func (s *Store) DeleteScored(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, embedsql.DeleteScoredBatch, id)
	if err != nil {
		return fmt.Errorf("delete scored rows: %w", err)
	}
	s.log.Debug().Int64("rows_deleted", tag.RowsAffected()).Str("batch_id", id.String()).Msg("cleared previous batch rows")
	return nil
}

// CopyScored COPY-loads rows from ch into readmit.scored_rows and runs
// ANALYZE afterwards. The caller closes ch.
func (s *Store) CopyScored(ctx context.Context, ch <-chan *model.ScoredRow) (int64, error) {
	n, err := s.pool.CopyFrom(ctx,
		pgx.Identifier{"readmit", "scored_rows"},
		model.ScoredColumns(),
		NewChannelSource(ch),
	)
	if err != nil {
		return n, fmt.Errorf("copy scored rows: %w", err)
	}
	if _, err := s.pool.Exec(ctx, embedsql.AnalyzeScored); err != nil {
		s.log.Warn().Err(err).Msg("analyze scored_rows failed (non-fatal)")
	}
	return n, nil
}
