// Package document reads plain text from word-processor and PDF files.
package document

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fumiama/go-docx"
	"github.com/ledongthuc/pdf"

	"media-translator/internal/domain"
)

// Extractor reads documents from the local filesystem.
type Extractor struct{}

// Extract implements the extraction contract used by the pipeline.
func (Extractor) Extract(path string) (string, error) {
	return Extract(path)
}

// Extract returns the text of a .docx or .pdf file.
// Other extensions fail with domain.ErrUnsupportedFormat without opening the file.
func Extract(path string) (string, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".docx":
		return extractDOCX(path)
	case ".pdf":
		return extractPDF(path)
	default:
		return "", fmt.Errorf("%w: %q", domain.ErrUnsupportedFormat, ext)
	}
}

// extractDOCX joins body paragraphs with newlines. Empty paragraphs become empty lines.
func extractDOCX(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrIO, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrIO, err)
	}

	doc, err := docx.Parse(f, info.Size())
	if err != nil {
		return "", fmt.Errorf("parse docx %s: %w", filepath.Base(path), err)
	}

	var paragraphs []string
	for _, item := range doc.Document.Body.Items {
		if p, ok := item.(*docx.Paragraph); ok {
			paragraphs = append(paragraphs, p.String())
		}
	}
	return strings.Join(paragraphs, "\n"), nil
}

// extractPDF joins page text in page order, one newline per page.
func extractPDF(path string) (string, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		if os.IsNotExist(err) || os.IsPermission(err) {
			return "", fmt.Errorf("%w: %v", domain.ErrIO, err)
		}
		return "", fmt.Errorf("parse pdf %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	var sb strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if !page.V.IsNull() {
			text, err := page.GetPlainText(nil)
			if err != nil {
				return "", fmt.Errorf("read pdf page %d: %w", i, err)
			}
			sb.WriteString(text)
		}
		sb.WriteString("\n")
	}
	return sb.String(), nil
}
