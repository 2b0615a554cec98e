package model

import "time"

// ScoreSummary captures metrics from a single batch scoring run.
type ScoreSummary struct {
	InputPath     string
	OutputPath    string
	InputSHA256   string
	BatchID       string
	ModelID       string
	RowsRead      int64
	RowsScored    int64
	RowsRejected  int64
	RowsPositive  int64
	RowsStored    int64
	DurationRead  time.Duration
	DurationScore time.Duration
	DurationWrite time.Duration
	DurationStore time.Duration
	DurationTotal time.Duration
}

// PositiveRate is the share of scored rows predicted positive.
func (s *ScoreSummary) PositiveRate() float64 {
	if s.RowsScored == 0 {
		return 0
	}
	return float64(s.RowsPositive) / float64(s.RowsScored)
}

// TrainSummary captures metrics from a single training run.
type TrainSummary struct {
	DataPath      string
	ArtifactDir   string
	ModelID       string
	RowsRead      int64
	RowsMalformed int64
	RowsLabeled   int64
	RowsPositive  int64
	TrainRows     int64
	TestRows      int64
	TestSkipped   int64 // held-out rows with a strict category unseen in training
	Features      int
	Trees         int
	DurationLoad  time.Duration
	DurationFit   time.Duration
	DurationEval  time.Duration
	DurationTotal time.Duration
}

// PositiveRate is the share of labeled rows in the positive class.
func (s *TrainSummary) PositiveRate() float64 {
	if s.RowsLabeled == 0 {
		return 0
	}
	return float64(s.RowsPositive) / float64(s.RowsLabeled)
}
