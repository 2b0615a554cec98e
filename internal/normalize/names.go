package normalize

import (
	"regexp"
	"strings"
)

var multiSpace = regexp.MustCompile(`\s+`)

// Header trims a CSV header cell, strips a UTF-8 byte-order mark and
// collapses inner whitespace. Case is preserved: column names such as
// "A1Cresult" must match the keys the front-end sends.
func Header(s string) string {
	s = strings.TrimPrefix(s, "\ufeff")
	s = strings.TrimSpace(s)
	return multiSpace.ReplaceAllString(s, " ")
}
