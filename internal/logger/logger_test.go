package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

// TestNewJSONWritesStructuredFields checks json encoding and names.
func TestNewJSONWritesStructuredFields(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(Config{Level: "info", Format: "json", Output: &buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	log.Named("pipeline").WithJob("job-1").Info("stage started", String("stage", "transcribing"))
	_ = log.Sync()

	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatalf("decode entry %q: %v", buf.String(), err)
	}
	if entry["logger"] != "pipeline" {
		t.Fatalf("logger = %v, want pipeline", entry["logger"])
	}
	if entry["job_id"] != "job-1" || entry["stage"] != "transcribing" {
		t.Fatalf("unexpected fields: %v", entry)
	}
}

// TestNewFiltersBelowLevel checks level filtering.
func TestNewFiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(Config{Level: "warn", Format: "console", Output: &buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	log.Info("hidden")
	log.Warn("shown")
	_ = log.Sync()

	out := buf.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, "shown") {
		t.Fatalf("output = %q", out)
	}
}

// TestNewRejectsUnknownSettings checks config validation.
func TestNewRejectsUnknownSettings(t *testing.T) {
	if _, err := New(Config{Level: "trace"}); err == nil {
		t.Fatal("expected level error")
	}
	if _, err := New(Config{Format: "xml"}); err == nil {
		t.Fatal("expected format error")
	}
}
