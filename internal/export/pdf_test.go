package export

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ledongthuc/pdf"

	"media-translator/internal/domain"
)

// readPDFText extracts all page text from path.
func readPDFText(t *testing.T, path string) string {
	t.Helper()

	f, reader, err := pdf.Open(path)
	if err != nil {
		t.Fatalf("open pdf: %v", err)
	}
	defer f.Close()

	var sb strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		text, err := reader.Page(i).GetPlainText(nil)
		if err != nil {
			t.Fatalf("page %d text: %v", i, err)
		}
		sb.WriteString(text)
	}
	return sb.String()
}

// TestExportRoundTrip checks exported text is recoverable by a PDF reader.
func TestExportRoundTrip(t *testing.T) {
	outputDir := filepath.Join(t.TempDir(), "transcripts")
	writer := NewWriter(Options{})

	path, err := writer.Export(outputDir, "Namaste duniya")
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if path != filepath.Join(outputDir, "translated_output.pdf") {
		t.Fatalf("path = %q", path)
	}

	got := strings.Join(strings.Fields(readPDFText(t, path)), "")
	if !strings.Contains(got, "Namasteduniya") {
		t.Fatalf("pdf text = %q, want it to contain the exported words", got)
	}
}

// TestExportOverwritesPreviousFile checks last-write-wins.
func TestExportOverwritesPreviousFile(t *testing.T) {
	outputDir := t.TempDir()
	writer := NewWriter(Options{})

	if _, err := writer.Export(outputDir, "first"); err != nil {
		t.Fatalf("first export: %v", err)
	}
	path, err := writer.Export(outputDir, "second")
	if err != nil {
		t.Fatalf("second export: %v", err)
	}

	got := readPDFText(t, path)
	if strings.Contains(got, "first") || !strings.Contains(got, "second") {
		t.Fatalf("pdf text = %q, want only the second export", got)
	}
}

// TestExportEmptyTextWritesNothing checks the no-text outcome.
func TestExportEmptyTextWritesNothing(t *testing.T) {
	outputDir := t.TempDir()
	writer := NewWriter(Options{})

	for _, text := range []string{"", "  \n\t"} {
		path, err := writer.Export(outputDir, text)
		if !errors.Is(err, domain.ErrNoText) {
			t.Fatalf("Export(%q) error = %v, want %v", text, err, domain.ErrNoText)
		}
		if path != "" {
			t.Fatalf("path = %q, want empty", path)
		}
	}
	if _, err := os.Stat(DefaultPath(outputDir)); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected no pdf, stat err = %v", err)
	}
}

// TestWriteFileToChosenPath checks the save-as destination is honored.
func TestWriteFileToChosenPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "exports", "mine.pdf")
	if err := NewWriter(Options{}).WriteFile("saved elsewhere", path); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	if info, err := os.Stat(path); err != nil || info.Size() == 0 {
		t.Fatalf("stat = %v, %v", info, err)
	}
}

// TestWriteFileMissingFontIsIOFailure checks font errors surface as I/O failures.
func TestWriteFileMissingFontIsIOFailure(t *testing.T) {
	writer := NewWriter(Options{FontPath: filepath.Join(t.TempDir(), "absent.ttf")})
	err := writer.WriteFile("text", filepath.Join(t.TempDir(), "out.pdf"))
	if domain.KindOf(err) != domain.FailureIO {
		t.Fatalf("kind = %q (err %v), want io", domain.KindOf(err), err)
	}
}
