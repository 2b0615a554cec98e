package normalize

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"sort"
)

// FileHash returns the hex SHA-256 of the file at path. Artifact files and
// batch inputs are identified by it.
func FileHash(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open file for hash: %w", err)
	}
	defer f.Close()
	return readerHash(f)
}

// readerHash returns the hex SHA-256 of everything read from r.
func readerHash(r io.Reader) (string, error) {
	h := sha256.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", fmt.Errorf("hash input: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// RowHash fingerprints one input row. Cells are hashed as name/value pairs
// in column-name order, so reordering the input's columns keeps the hash.
// Blank cells are skipped, matching how the reconciler treats them.
func RowHash(header, row []string) []byte {
	idx := make([]int, 0, len(header))
	for i := range header {
		if i < len(row) && row[i] != "" {
			idx = append(idx, i)
		}
	}
	sort.Slice(idx, func(a, b int) bool { return header[idx[a]] < header[idx[b]] })

	h := sha256.New()
	for _, i := range idx {
		h.Write([]byte(header[i]))
		h.Write([]byte{0})
		h.Write([]byte(row[i]))
		h.Write([]byte{0})
	}
	return h.Sum(nil)
}
