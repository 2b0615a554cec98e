package db

import (
	"github.com/jackc/pgx/v5"

	"github.com/gyeh/readmit/internal/model"
)

// ChannelSource implements pgx.CopyFromSource by reading ScoredRows from a channel.
// This provides natural backpressure between the Parquet reader and COPY writer.
type ChannelSource struct {
	ch      <-chan *model.ScoredRow
	current *model.ScoredRow
	err     error
}

// NewChannelSource creates a CopyFromSource backed by a channel.
func NewChannelSource(ch <-chan *model.ScoredRow) *ChannelSource {
	return &ChannelSource{ch: ch}
}

// Next advances to the next row. Returns false when the channel is closed
// or a previous row failed to convert.
func (s *ChannelSource) Next() bool {
	if s.err != nil {
		return false
	}
	row, ok := <-s.ch
	if !ok {
		return false
	}
	s.current = row
	return true
}

// Values returns the current row's values in COPY column order.
func (s *ChannelSource) Values() ([]any, error) {
	vals, err := s.current.CopyValues()
	if err != nil {
		s.err = err
	}
	return vals, err
}

// Err returns any error encountered during iteration.
func (s *ChannelSource) Err() error {
	return s.err
}

var _ pgx.CopyFromSource = (*ChannelSource)(nil)
