package extract

import (
	"context"
	"strings"
	"unicode/utf8"
)

// PlainExtractor treats the upload as UTF-8 text. Invalid byte sequences
// are dropped rather than rejected so partially binary files still yield
// whatever readable text they contain.
type PlainExtractor struct{}

// Extract returns the trimmed UTF-8 content of data.
func (PlainExtractor) Extract(_ context.Context, data []byte, _ string) (string, error) {
	if utf8.Valid(data) {
		return strings.TrimSpace(string(data)), nil
	}
	return strings.TrimSpace(strings.ToValidUTF8(string(data), "")), nil
}
