package score

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/gyeh/readmit/internal/model"
	"github.com/gyeh/readmit/internal/parquetio"
)

// WriteParquet writes rows to path in chunks.
func WriteParquet(path string, rows []model.ScoredRow) error {
	w, err := parquetio.Create(path)
	if err != nil {
		return err
	}
	for start := 0; start < len(rows); start += parquetio.BatchSize {
		end := min(start+parquetio.BatchSize, len(rows))
		if err := w.Write(rows[start:end]); err != nil {
			w.Close()
			return err
		}
	}
	return w.Close()
}

// Load streams the scored rows in a Parquet file into the store through a
// channel, so the reader and the COPY run concurrently.
func Load(ctx context.Context, store Store, path string, log zerolog.Logger) (int64, error) {
	start := time.Now()

	reader, err := parquetio.Open(path)
	if err != nil {
		return 0, fmt.Errorf("load open: %w", err)
	}
	defer reader.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	ch := make(chan *model.ScoredRow, parquetio.BatchSize)
	errCh := make(chan error, 1)

	// Producer goroutine: read Parquet → push to channel
	go func() {
		defer close(ch)
		errCh <- reader.Each(ctx, func(batch []model.ScoredRow) error {
			for i := range batch {
				row := batch[i]
				row.InputHash = append([]byte(nil), row.InputHash...)
				select {
				case ch <- &row:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
			return nil
		})
	}()

	// Consumer: COPY from channel
	stored, copyErr := store.CopyScored(ctx, ch)
	if copyErr != nil {
		cancel()
	}

	prodErr := <-errCh
	if copyErr != nil {
		return 0, fmt.Errorf("load copy: %w", copyErr)
	}
	if prodErr != nil {
		return 0, fmt.Errorf("load producer: %w", prodErr)
	}

	dur := time.Since(start)
	log.Info().
		Int64("rows_stored", stored).
		Str("duration", dur.String()).
		Float64("rows_per_sec", float64(stored)/dur.Seconds()).
		Msg("store complete")

	return stored, nil
}
