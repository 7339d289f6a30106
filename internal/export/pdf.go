// Package export renders translated text into PDF documents.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/go-pdf/fpdf"

	"media-translator/internal/domain"
)

// DefaultFileName is the export written into the output directory.
const DefaultFileName = "translated_output.pdf"

// utf8Family names the registered TTF face when a font file is configured.
const utf8Family = "body"

// Options controls page text rendering.
type Options struct {
	FontPath   string
	FontFamily string
	FontSize   float64
	LineHeight float64
}

// Writer renders text into single-font A4 PDFs.
type Writer struct {
	mu       sync.RWMutex
	opts     Options
	mkdirAll func(path string, perm os.FileMode) error
}

// NewWriter returns a writer, filling zero options with Arial 12 / 10mm lines.
func NewWriter(opts Options) *Writer {
	if strings.TrimSpace(opts.FontFamily) == "" {
		opts.FontFamily = "Arial"
	}
	if opts.FontSize <= 0 {
		opts.FontSize = 12
	}
	if opts.LineHeight <= 0 {
		opts.LineHeight = 10
	}
	return &Writer{opts: opts, mkdirAll: os.MkdirAll}
}

// DefaultPath returns the fixed export location inside outputDir.
func DefaultPath(outputDir string) string {
	return filepath.Join(outputDir, DefaultFileName)
}

// Export writes text to outputDir/translated_output.pdf, replacing any earlier export.
func (w *Writer) Export(outputDir, text string) (string, error) {
	path := DefaultPath(outputDir)
	if err := w.WriteFile(text, path); err != nil {
		return "", err
	}
	return path, nil
}

// SetFontPath switches later exports to the TTF at path. An empty path
// restores the core font.
func (w *Writer) SetFontPath(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.opts.FontPath = strings.TrimSpace(path)
}

// FontPath returns the TTF currently used, if any.
func (w *Writer) FontPath() string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.opts.FontPath
}

// WriteFile renders text to path. Empty text yields domain.ErrNoText and no file.
func (w *Writer) WriteFile(text, path string) error {
	if strings.TrimSpace(text) == "" {
		return domain.ErrNoText
	}
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("%w: export path is empty", domain.ErrIO)
	}
	if err := w.mkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrIO, err)
	}

	w.mu.RLock()
	opts := w.opts
	w.mu.RUnlock()

	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetCreator("media-translator", false)

	family := opts.FontFamily
	body := text
	if opts.FontPath != "" {
		doc.AddUTF8Font(utf8Family, "", opts.FontPath)
		family = utf8Family
	} else {
		body = doc.UnicodeTranslatorFromDescriptor("")(text)
	}

	doc.AddPage()
	doc.SetFont(family, "", opts.FontSize)
	doc.MultiCell(0, opts.LineHeight, body, "", "", false)

	if err := doc.OutputFileAndClose(path); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrIO, err)
	}
	return nil
}
