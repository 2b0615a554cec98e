package score

import (
	"errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gyeh/readmit/internal/dataset"
	"github.com/gyeh/readmit/internal/model"
	"github.com/gyeh/readmit/internal/normalize"
	"github.com/gyeh/readmit/internal/predict"
	"github.com/gyeh/readmit/internal/reconcile"
)

// Result holds the scored rows of one frame.
type Result struct {
	Rows     []model.ScoredRow
	Rejected int64
	Positive int64
}

// Observed turns one CSV row into an observed input. Every cell is passed
// as text; blank cells are treated as missing by the reconciler.
func Observed(header, row []string) reconcile.Observed {
	o := make(reconcile.Observed, len(header))
	for i, name := range header {
		o[name] = row[i]
	}
	return o
}

// ScoreFrame predicts every row of f. Rows the model cannot accept are
// logged and counted, and the batch continues.
func ScoreFrame(p *predict.Predictor, f *dataset.Frame, batchID uuid.UUID, log zerolog.Logger) Result {
	var res Result
	for i, row := range f.Rows {
		rowNum := int64(i + 1)
		pred, err := p.Predict(Observed(f.Header, row))
		if err != nil {
			res.Rejected++
			var ie *predict.InferenceError
			if errors.As(err, &ie) {
				log.Warn().Err(err).Int64("row", rowNum).Msg("row rejected")
			} else {
				log.Error().Err(err).Int64("row", rowNum).Msg("row failed")
			}
			continue
		}
		if pred.Label == 1 {
			res.Positive++
		}
		res.Rows = append(res.Rows, model.ScoredRow{
			BatchID:     batchID.String(),
			RowNumber:   rowNum,
			InputHash:   normalize.RowHash(f.Header, row),
			ModelID:     pred.ModelID,
			Label:       int32(pred.Label),
			Probability: pred.Probability,
			Risk:        string(pred.Risk),
			Defaulted:   int32(len(pred.Record.WithSource(reconcile.FromDefault))),
			Recovered:   int32(len(pred.Recovered())),
			Ignored:     int32(len(pred.Record.Ignored)),
		})
	}
	return res
}
