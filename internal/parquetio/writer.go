package parquetio

import (
	"fmt"
	"os"

	"github.com/parquet-go/parquet-go"

	"github.com/gyeh/readmit/internal/model"
)

// Writer streams ScoredRow records into a Parquet file.
type Writer struct {
	file   *os.File
	writer *parquet.GenericWriter[model.ScoredRow]
	rows   int64
}

// Create truncates or creates path and returns a Writer.
func Create(path string) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create parquet file: %w", err)
	}
	return &Writer{file: f, writer: parquet.NewGenericWriter[model.ScoredRow](f)}, nil
}

// Write appends rows.
func (w *Writer) Write(rows []model.ScoredRow) error {
	n, err := w.writer.Write(rows)
	w.rows += int64(n)
	if err != nil {
		return fmt.Errorf("write parquet rows: %w", err)
	}
	return nil
}

// Rows returns the number of rows written so far.
func (w *Writer) Rows() int64 {
	return w.rows
}

// Close flushes the footer and closes the file.
func (w *Writer) Close() error {
	if err := w.writer.Close(); err != nil {
		w.file.Close()
		return fmt.Errorf("close parquet writer: %w", err)
	}
	return w.file.Close()
}
