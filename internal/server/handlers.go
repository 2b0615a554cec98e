package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/gyeh/readmit/internal/model"
	"github.com/gyeh/readmit/internal/predict"
	"github.com/gyeh/readmit/internal/reconcile"
)

// Recorder persists served predictions. *db.PredictionLog implements it.
type Recorder interface {
	Record(ctx context.Context, p *model.Prediction, observed reconcile.Observed) error
}

// Handlers holds the HTTP handlers and their shared read-only state.
type Handlers struct {
	predictor *predict.Predictor
	recorder  Recorder // nil disables the prediction log
	fields    map[string]bool
	metrics   *Metrics
	log       zerolog.Logger
}

// NewHandlers builds the handlers. fields names the columns a front-end
// collects; recorder may be nil.
func NewHandlers(p *predict.Predictor, fields []string, recorder Recorder, metrics *Metrics, log zerolog.Logger) *Handlers {
	fs := make(map[string]bool, len(fields))
	for _, f := range fields {
		fs[f] = true
	}
	return &Handlers{predictor: p, recorder: recorder, fields: fs, metrics: metrics, log: log}
}

// HandleHealth handles GET /health.
func (h *Handlers) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{Status: "ok", ModelID: h.predictor.ModelID()})
}

// HandleSchema handles GET /v1/schema.
func (h *Handlers) HandleSchema(c *gin.Context) {
	s := h.predictor.Schema()
	strict := make(map[string]bool)
	for _, name := range h.predictor.Strict() {
		strict[name] = true
	}
	resp := SchemaResponse{
		ModelID:   h.predictor.ModelID(),
		Threshold: h.predictor.Threshold(),
		Columns:   make([]SchemaColumn, 0, s.Len()),
	}
	for _, col := range s.Columns() {
		resp.Columns = append(resp.Columns, SchemaColumn{
			Name:   col.Name,
			Kind:   string(col.Kind),
			Fill:   col.Fill,
			Field:  h.fields[col.Name],
			Strict: strict[col.Name],
		})
	}
	c.JSON(http.StatusOK, resp)
}

// HandlePredict handles POST /v1/predict.
//
// Response:
//
//	200 OK: PredictResponse
//	400 Bad Request: malformed body
//	422 Unprocessable Entity: the model rejected the reconciled record
func (h *Handlers) HandlePredict(c *gin.Context) {
	var req PredictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Warn().Err(err).Msg("invalid predict request body")
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "invalid request body: " + err.Error(),
			Code:  "INVALID_REQUEST",
		})
		return
	}

	observed := reconcile.Observed(req.Observed)
	pred, err := h.predictor.Predict(observed)
	if err != nil {
		var ie *predict.InferenceError
		if errors.As(err, &ie) {
			h.metrics.inferenceErrors.Inc()
			h.log.Warn().Err(err).Msg("inference rejected record")
			c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: err.Error(), Code: "INFERENCE_FAILED"})
			return
		}
		h.log.Error().Err(err).Msg("prediction failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error(), Code: "INTERNAL"})
		return
	}

	defaulted := pred.Defaulted()
	h.metrics.predictions.WithLabelValues(string(pred.Risk)).Inc()
	h.metrics.probability.Observe(pred.Probability)
	h.metrics.defaulted.Observe(float64(len(defaulted)))

	if h.recorder != nil {
		if err := h.recorder.Record(c.Request.Context(), pred, observed); err != nil {
			h.metrics.recordErrors.Inc()
			h.log.Warn().Err(err).Str("prediction_id", pred.ID.String()).Msg("prediction log write failed")
		}
	}

	h.log.Debug().
		Str("prediction_id", pred.ID.String()).
		Int("label", pred.Label).
		Float64("probability", pred.Probability).
		Int("defaulted", len(defaulted)).
		Msg("prediction served")

	c.JSON(http.StatusOK, newPredictResponse(pred))
}

func newPredictResponse(p *model.Prediction) PredictResponse {
	nonNil := func(s []string) []string {
		if s == nil {
			return []string{}
		}
		return s
	}
	return PredictResponse{
		ID:          p.ID.String(),
		ModelID:     p.ModelID,
		Label:       p.Label,
		Risk:        string(p.Risk),
		Probability: p.Probability,
		Defaulted:   nonNil(p.Defaulted()),
		Recovered:   nonNil(p.Recovered()),
		Ignored:     nonNil(p.Record.Ignored),
		Record:      p.Record.Fields,
	}
}
