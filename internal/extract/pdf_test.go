package extract

import (
	"context"
	"errors"
	"strings"
	"testing"
)

// fakeRunner returns canned output instead of shelling out.
type fakeRunner struct {
	output   []byte
	err      error
	lastName string
	lastArgs []string
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) ([]byte, error) {
	f.lastName = name
	f.lastArgs = args
	return f.output, f.err
}

func TestPDFExtract(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{output: []byte("Welcome to Exampletown.\n\nPopulation: 4521.\n")}
	ex := NewPDFExtractorWithRunner(runner)

	got, err := ex.Extract(context.Background(), []byte("%PDF-1.4 fake"), "guide.pdf")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	want := "Welcome to Exampletown.\n\nPopulation: 4521."
	if got != want {
		t.Errorf("Extract = %q, want %q", got, want)
	}

	if runner.lastName != "pdftotext" {
		t.Errorf("ran %q, want pdftotext", runner.lastName)
	}
	if len(runner.lastArgs) == 0 || runner.lastArgs[len(runner.lastArgs)-1] != "-" {
		t.Errorf("args = %v, want stdout marker %q last", runner.lastArgs, "-")
	}
}

func TestPDFExtractEmptyOutput(t *testing.T) {
	t.Parallel()

	ex := NewPDFExtractorWithRunner(&fakeRunner{output: []byte("  \n\t\n")})
	got, err := ex.Extract(context.Background(), []byte("%PDF-1.4 scanned"), "scan.pdf")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if got != "" {
		t.Errorf("Extract = %q, want empty string for whitespace-only output", got)
	}
}

func TestPDFExtractRunnerError(t *testing.T) {
	t.Parallel()

	ex := NewPDFExtractorWithRunner(&fakeRunner{err: errors.New("exit status 1: damaged xref table")})
	_, err := ex.Extract(context.Background(), []byte("not a pdf"), "broken.pdf")
	if err == nil {
		t.Fatal("Extract succeeded with a failing runner")
	}
	if !strings.Contains(err.Error(), "broken.pdf") {
		t.Errorf("error %q does not name the file", err)
	}
}

func TestPlainExtract(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		data []byte
		want string
	}{
		{name: "trims whitespace", data: []byte("  hello world \n"), want: "hello world"},
		{name: "empty input", data: nil, want: ""},
		{name: "invalid utf8 dropped", data: []byte("caf\xff\xe9 open"), want: "caf open"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := PlainExtractor{}.Extract(context.Background(), tc.data, "notes.txt")
			if err != nil {
				t.Fatalf("Extract: %v", err)
			}
			if got != tc.want {
				t.Errorf("Extract = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestForFilename(t *testing.T) {
	t.Parallel()

	pdf := NewPDFExtractor()

	if _, ok := ForFilename("report.PDF", pdf).(*PDFExtractor); !ok {
		t.Error("ForFilename(report.PDF) did not select the PDF extractor")
	}
	if _, ok := ForFilename("notes.txt", pdf).(PlainExtractor); !ok {
		t.Error("ForFilename(notes.txt) did not select the plain extractor")
	}
	if _, ok := ForFilename("unnamed.pdf", pdf).(*PDFExtractor); !ok {
		t.Error("ForFilename(unnamed.pdf) did not select the PDF extractor")
	}
}

func TestInstallInstructions(t *testing.T) {
	t.Parallel()

	got := InstallInstructions()
	for _, want := range []string{"pdftotext", "brew install poppler", "apt install poppler-utils"} {
		if !strings.Contains(got, want) {
			t.Errorf("InstallInstructions missing %q", want)
		}
	}
}
