package model

import (
	"fmt"

	"github.com/google/uuid"
)

// ScoredRow is one batch-scored encounter, laid out for Parquet and for COPY
// into readmit.scored_rows. IDs are kept as text in the file.
type ScoredRow struct {
	BatchID     string  `parquet:"batch_id"`
	RowNumber   int64   `parquet:"row_number"`
	InputHash   []byte  `parquet:"input_hash"`
	ModelID     string  `parquet:"model_id"`
	Label       int32   `parquet:"label"`
	Probability float64 `parquet:"probability"`
	Risk        string  `parquet:"risk"`
	Defaulted   int32   `parquet:"defaulted"`
	Recovered   int32   `parquet:"recovered"`
	Ignored     int32   `parquet:"ignored"`
}

// ScoredColumns returns the ordered column names for COPY into readmit.scored_rows.
func ScoredColumns() []string {
	return []string{
		"batch_id",
		"row_number",
		"input_hash",
		"model_id",
		"label",
		"probability",
		"risk",
		"defaulted",
		"recovered",
		"ignored",
	}
}

// CopyValues returns the row values in the same order as ScoredColumns(),
// suitable for pgx CopyFromSource.
func (r *ScoredRow) CopyValues() ([]any, error) {
	batch, err := uuid.Parse(r.BatchID)
	if err != nil {
		return nil, fmt.Errorf("row %d batch_id: %w", r.RowNumber, err)
	}
	modelID, err := uuid.Parse(r.ModelID)
	if err != nil {
		return nil, fmt.Errorf("row %d model_id: %w", r.RowNumber, err)
	}
	return []any{
		batch,
		r.RowNumber,
		r.InputHash,
		modelID,
		r.Label,
		r.Probability,
		r.Risk,
		r.Defaulted,
		r.Recovered,
		r.Ignored,
	}, nil
}
