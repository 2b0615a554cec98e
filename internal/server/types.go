package server

import "github.com/gyeh/readmit/internal/reconcile"

// PredictRequest is the body of POST /v1/predict.
type PredictRequest struct {
	Observed map[string]any `json:"observed" binding:"required"`
}

// PredictResponse is one prediction.
type PredictResponse struct {
	ID          string            `json:"id"`
	ModelID     string            `json:"model_id"`
	Label       int               `json:"label"`
	Risk        string            `json:"risk"`
	Probability float64           `json:"probability"`
	Defaulted   []string          `json:"defaulted"`
	Recovered   []string          `json:"recovered"`
	Ignored     []string          `json:"ignored"`
	Record      []reconcile.Field `json:"record"`
}

// SchemaColumn describes one feature column to a front-end.
type SchemaColumn struct {
	Name   string `json:"name"`
	Kind   string `json:"kind"`
	Fill   string `json:"fill,omitempty"`
	Field  bool   `json:"field"`  // collected from the user
	Strict bool   `json:"strict"` // unseen categories are rejected
}

// SchemaResponse is the body of GET /v1/schema.
type SchemaResponse struct {
	ModelID   string         `json:"model_id"`
	Threshold float64        `json:"threshold"`
	Columns   []SchemaColumn `json:"columns"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status  string `json:"status"`
	ModelID string `json:"model_id"`
}

// ErrorResponse is returned for every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}
