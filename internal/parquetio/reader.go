// Package parquetio streams batch-scored rows to and from Parquet files.
package parquetio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/parquet-go/parquet-go"

	"github.com/gyeh/readmit/internal/model"
)

// BatchSize is the number of rows Each hands to its callback at a time.
const BatchSize = 1024

// Reader iterates the scored rows of one Parquet file.
type Reader struct {
	file *os.File
	pf   *parquet.File
}

// Open opens path and checks that it holds scored rows.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open parquet file: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat parquet file: %w", err)
	}
	pf, err := parquet.OpenFile(f, info.Size())
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("open parquet: %w", err)
	}
	if err := ValidateSchema(pf.Schema()); err != nil {
		f.Close()
		return nil, err
	}
	return &Reader{file: f, pf: pf}, nil
}

// NumRows returns the row count recorded in the file footer.
func (r *Reader) NumRows() int64 {
	return r.pf.NumRows()
}

// Each calls fn with consecutive batches of at most BatchSize rows. The
// batch slice is reused between calls; fn must copy what it keeps. Each
// stops at the first error from fn or when ctx is done.
func (r *Reader) Each(ctx context.Context, fn func(batch []model.ScoredRow) error) error {
	gr := parquet.NewGenericReader[model.ScoredRow](r.pf)
	defer gr.Close()

	buf := make([]model.ScoredRow, BatchSize)
	var offset int64
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, readErr := gr.Read(buf)
		if readErr != nil && !errors.Is(readErr, io.EOF) {
			return fmt.Errorf("read parquet at row %d: %w", offset, readErr)
		}
		if n > 0 {
			if err := fn(buf[:n]); err != nil {
				return err
			}
			offset += int64(n)
		}
		if readErr != nil {
			return nil
		}
	}
}

// ReadAll returns every row in the file.
func (r *Reader) ReadAll() ([]model.ScoredRow, error) {
	out := make([]model.ScoredRow, 0, r.NumRows())
	err := r.Each(context.Background(), func(batch []model.ScoredRow) error {
		for _, row := range batch {
			row.InputHash = append([]byte(nil), row.InputHash...)
			out = append(out, row)
		}
		return nil
	})
	return out, err
}

// Close releases the underlying file.
func (r *Reader) Close() error {
	return r.file.Close()
}
