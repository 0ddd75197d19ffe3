// Package extract converts uploaded document bytes into plain text suitable
// for chunking and embedding. PDF extraction shells out to the poppler
// pdftotext tool through an injectable [CommandRunner] so tests can run
// without the binary installed.
package extract

import (
	"context"
	"path/filepath"
	"strings"
)

// Extractor produces plain text from raw document bytes. The filename is
// used only to select an extraction strategy and for error messages.
type Extractor interface {
	Extract(ctx context.Context, data []byte, filename string) (string, error)
}

// ForFilename returns the extractor matching the file extension: PDF files
// go through pdftotext, everything else is treated as plain text.
func ForFilename(filename string, pdf *PDFExtractor) Extractor {
	if strings.EqualFold(filepath.Ext(filename), ".pdf") {
		return pdf
	}
	return PlainExtractor{}
}
