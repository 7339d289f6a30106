package web

import (
	"strings"
	"testing"
)

// TestStaticPageSeparatesLogs checks the browser UI has a pane per log.
func TestStaticPageSeparatesLogs(t *testing.T) {
	data, err := staticFiles.ReadFile("static/index.html")
	if err != nil {
		t.Fatalf("read index: %v", err)
	}
	page := string(data)
	for _, want := range []string{
		`setLines("translation-log", result.translationLog)`,
		`setLines("pdf-log", result.pdfLog)`,
		`id="pdf-link"`,
	} {
		if !strings.Contains(page, want) {
			t.Errorf("index.html missing %s", want)
		}
	}
}
