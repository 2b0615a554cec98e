// Package score runs batch inference over a CSV of partial encounters.
package score

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gyeh/readmit/internal/dataset"
	"github.com/gyeh/readmit/internal/db"
	"github.com/gyeh/readmit/internal/model"
	"github.com/gyeh/readmit/internal/normalize"
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

// Store persists scored batches. *db.Store implements it.
type Store interface {
	RegisterBatch(ctx context.Context, b *db.Batch, force bool) (bool, error)
	CopyScored(ctx context.Context, ch <-chan *model.ScoredRow) (int64, error)
	UpdateBatch(ctx context.Context, id uuid.UUID, status string, scored, rejected int64) error
}

// Options configure one scoring run.
type Options struct {
	InputPath  string
	OutputPath string
	Force      bool // re-score an input already stored under the same model
}

// Run executes the scoring pipeline: read → score → write → store. The store
// phase is skipped when store is nil.
func Run(ctx context.Context, p *predict.Predictor, store Store, log zerolog.Logger, opts Options) (*model.ScoreSummary, error) {
	totalStart := time.Now()
	summary := &model.ScoreSummary{
		InputPath:  opts.InputPath,
		OutputPath: opts.OutputPath,
		ModelID:    p.ModelID(),
	}

	// Phase 1: Read
	start := time.Now()
	sha, err := normalize.FileHash(opts.InputPath)
	if err != nil {
		return nil, &PipelineError{Phase: "read", Err: err}
	}
	frame, err := dataset.LoadCSV(opts.InputPath)
	if err != nil {
		return nil, &PipelineError{Phase: "read", Err: err}
	}
	summary.InputSHA256 = sha
	summary.RowsRead = int64(len(frame.Rows))
	summary.RowsRejected = frame.Rejected

	batch := &db.Batch{ID: uuid.New(), InputPath: opts.InputPath, InputSHA256: sha, ModelID: p.ModelID()}
	if store != nil {
		stored, err := store.RegisterBatch(ctx, batch, opts.Force)
		if err != nil {
			return nil, &PipelineError{Phase: "read", Err: err}
		}
		if stored {
			summary.BatchID = batch.ID.String()
			summary.DurationTotal = time.Since(totalStart)
			log.Info().
				Str("batch_id", summary.BatchID).
				Str("sha256", sha).
				Msg("input already scored by this model, skipping (use --force to re-score)")
			return summary, nil
		}
	}
	summary.BatchID = batch.ID.String()
	summary.DurationRead = time.Since(start)
	log.Info().
		Str("file", opts.InputPath).
		Str("sha256", sha).
		Int64("rows", summary.RowsRead).
		Int64("malformed", frame.Rejected).
		Msg("input read")

	// Phase 2: Score
	start = time.Now()
	res := ScoreFrame(p, frame, batch.ID, log)
	summary.RowsScored = int64(len(res.Rows))
	summary.RowsRejected += res.Rejected
	summary.RowsPositive = res.Positive
	summary.DurationScore = time.Since(start)

	// Phase 3: Write
	start = time.Now()
	if err := WriteParquet(opts.OutputPath, res.Rows); err != nil {
		return nil, &PipelineError{Phase: "write", Err: err}
	}
	summary.DurationWrite = time.Since(start)

	// Phase 4: Store
	if store != nil {
		start = time.Now()
		if err := store.UpdateBatch(ctx, batch.ID, db.StatusScoring, summary.RowsScored, summary.RowsRejected); err != nil {
			return nil, &PipelineError{Phase: "store", Err: err}
		}
		n, err := Load(ctx, store, opts.OutputPath, log)
		if err != nil {
			_ = store.UpdateBatch(ctx, batch.ID, db.StatusFailed, summary.RowsScored, summary.RowsRejected)
			return nil, &PipelineError{Phase: "store", Err: err}
		}
		if err := store.UpdateBatch(ctx, batch.ID, db.StatusStored, summary.RowsScored, summary.RowsRejected); err != nil {
			return nil, &PipelineError{Phase: "store", Err: err}
		}
		summary.RowsStored = n
		summary.DurationStore = time.Since(start)
	}

	summary.DurationTotal = time.Since(totalStart)
	log.Info().
		Int64("rows_read", summary.RowsRead).
		Int64("rows_scored", summary.RowsScored).
		Int64("rows_rejected", summary.RowsRejected).
		Int64("rows_stored", summary.RowsStored).
		Float64("positive_rate", summary.PositiveRate()).
		Str("total_duration", summary.DurationTotal.String()).
		Msg("scoring pipeline complete")

	return summary, nil
}
