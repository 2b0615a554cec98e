package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/gyeh/readmit/internal/normalize"
)

// Frame is a raw tabular dataset: a header and rows of text cells.
type Frame struct {
	Header []string
	Rows   [][]string
	// Rejected counts rows dropped because their width did not match the header.
	Rejected int64
}

// Column returns the index of the named column, or -1.
func (f *Frame) Column(name string) int {
	for i, h := range f.Header {
		if h == name {
			return i
		}
	}
	return -1
}

// Values returns a copy of column i across all rows.
func (f *Frame) Values(i int) []string {
	out := make([]string, len(f.Rows))
	for r, row := range f.Rows {
		out[r] = row[i]
	}
	return out
}

// Select returns a new frame restricted to the given row indices.
func (f *Frame) Select(idx []int) *Frame {
	out := &Frame{Header: f.Header, Rows: make([][]string, len(idx))}
	for i, r := range idx {
		out.Rows[i] = f.Rows[r]
	}
	return out
}

// LoadCSV reads a CSV file with a header row.
func LoadCSV(path string) (*Frame, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer file.Close()
	return ReadCSV(file)
}

// ReadCSV reads a header row followed by data rows. Rows whose width
// differs from the header are skipped and counted in Frame.Rejected.
func ReadCSV(r io.Reader) (*Frame, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, errors.New("csv has no header row")
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	f := &Frame{Header: make([]string, len(header))}
	for i, h := range header {
		f.Header[i] = normalize.Header(h)
	}

	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row %d: %w", len(f.Rows)+int(f.Rejected)+2, err)
		}
		if len(rec) != len(f.Header) {
			f.Rejected++
			continue
		}
		f.Rows = append(f.Rows, rec)
	}
	return f, nil
}

// WriteCSV writes the frame with its header row.
func WriteCSV(w io.Writer, f *Frame) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(f.Header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	if err := cw.WriteAll(f.Rows); err != nil {
		return fmt.Errorf("write csv rows: %w", err)
	}
	return nil
}
