package extract

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// ErrPDFToolNotFound indicates pdftotext is not installed on this host.
var ErrPDFToolNotFound = errors.New("extract: pdftotext not found in PATH")

// CommandRunner executes an external command and returns its stdout.
// Production code uses [ExecRunner]; tests inject a fake.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

// Run executes name with args and returns combined stdout. Stderr is folded
// into the error on failure.
func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr strings.Builder
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%s: %w: %s", name, err, msg)
		}
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return out, nil
}

// PDFExtractor extracts text from PDF bytes by writing them to a temp file
// and invoking pdftotext with layout preservation disabled (raw reading
// order matches how the text was authored, which chunks better than
// column-reconstructed layout).
type PDFExtractor struct {
	runner CommandRunner
}

// NewPDFExtractor returns an extractor backed by the real pdftotext binary.
func NewPDFExtractor() *PDFExtractor {
	return &PDFExtractor{runner: ExecRunner{}}
}

// NewPDFExtractorWithRunner injects a custom runner. Used in tests.
func NewPDFExtractorWithRunner(r CommandRunner) *PDFExtractor {
	return &PDFExtractor{runner: r}
}

// CheckAvailable reports whether pdftotext is installed.
func CheckAvailable() error {
	if _, err := exec.LookPath("pdftotext"); err != nil {
		return ErrPDFToolNotFound
	}
	return nil
}

// InstallInstructions returns human-readable install guidance for the
// pdftotext dependency, surfaced in startup errors.
func InstallInstructions() string {
	return "pdftotext is required for PDF extraction:\n" +
		"  macOS:         brew install poppler\n" +
		"  Debian/Ubuntu: apt install poppler-utils\n" +
		"  Fedora/RHEL:   dnf install poppler-utils"
}

// Extract writes data to a temporary file, runs pdftotext on it, and
// returns the extracted text with surrounding whitespace trimmed. An empty
// result is not an error here — callers decide whether an unreadable
// document is fatal.
func (p *PDFExtractor) Extract(ctx context.Context, data []byte, filename string) (string, error) {
	tmp, err := os.CreateTemp("", "pdfchat-*.pdf")
	if err != nil {
		return "", fmt.Errorf("extract: create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("extract: write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("extract: close temp file: %w", err)
	}

	// "-" sends the text to stdout instead of a sibling .txt file.
	out, err := p.runner.Run(ctx, "pdftotext", "-enc", "UTF-8", tmpPath, "-")
	if err != nil {
		return "", fmt.Errorf("extract: pdftotext failed for %s: %w", filepath.Base(filename), err)
	}

	return strings.TrimSpace(string(out)), nil
}
