package domain

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

// TestResolveLanguages verifies names, codes, and fallbacks resolve.
func TestResolveLanguages(t *testing.T) {
	tests := []struct {
		name string
		fn   func(string) string
		in   string
		want string
	}{
		{name: "transcription display name", fn: ResolveTranscriptionLanguage, in: "English (UK)", want: "en-GB"},
		{name: "transcription tag", fn: ResolveTranscriptionLanguage, in: "ta-IN", want: "ta-IN"},
		{name: "transcription case and space", fn: ResolveTranscriptionLanguage, in: "  HINDI ", want: "hi-IN"},
		{name: "transcription unknown", fn: ResolveTranscriptionLanguage, in: "Klingon", want: "en-US"},
		{name: "transcription empty", fn: ResolveTranscriptionLanguage, in: "", want: "en-US"},
		{name: "translation name", fn: ResolveTranslationLanguage, in: "Malayalam", want: "ml"},
		{name: "translation code", fn: ResolveTranslationLanguage, in: "ur", want: "ur"},
		{name: "translation unknown", fn: ResolveTranslationLanguage, in: "xx", want: "en"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.fn(tt.in); got != tt.want {
				t.Fatalf("resolve(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

// TestLanguagesCatalogDefaults checks the tables exposed to front ends.
func TestLanguagesCatalogDefaults(t *testing.T) {
	catalog := Languages()
	if len(catalog.Transcription) != 12 {
		t.Fatalf("transcription count = %d, want 12", len(catalog.Transcription))
	}
	if len(catalog.Translation) != 11 {
		t.Fatalf("translation count = %d, want 11", len(catalog.Translation))
	}
	if catalog.DefaultTranslation != "hi" {
		t.Fatalf("default translation = %q, want hi", catalog.DefaultTranslation)
	}

	catalog.Transcription[0].Code = "mutated"
	if TranscriptionLanguages[0].Code != "en-US" {
		t.Fatal("catalog must not alias package tables")
	}
}

// TestKindOf verifies wrapped sentinels map to failure kinds.
func TestKindOf(t *testing.T) {
	tests := []struct {
		err  error
		want FailureKind
	}{
		{err: nil, want: ""},
		{err: fmt.Errorf("chunk 2: %w", ErrUnintelligible), want: FailureUnintelligible},
		{err: fmt.Errorf("%w: dial tcp", ErrServiceUnavailable), want: FailureServiceUnavailable},
		{err: fmt.Errorf("%w: .odt", ErrUnsupportedFormat), want: FailureUnsupportedFormat},
		{err: fmt.Errorf("%w: disk full", ErrIO), want: FailureIO},
		{err: ErrListenTimeout, want: FailureUnintelligible},
		{err: ErrNoText, want: ""},
		{err: fmt.Errorf("export: %w", ErrNoText), want: ""},
		{err: errors.New("boom"), want: FailureOther},
	}

	for _, tt := range tests {
		if got := KindOf(tt.err); got != tt.want {
			t.Fatalf("KindOf(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

// TestParseInputKind checks kind parsing from user input.
func TestParseInputKind(t *testing.T) {
	if kind, ok := ParseInputKind(" Video "); !ok || kind != InputKindVideo {
		t.Fatalf("ParseInputKind(video) = %q, %v", kind, ok)
	}
	if _, ok := ParseInputKind("image"); ok {
		t.Fatal("expected image to be rejected")
	}
}

// TestNewDiagnosticReport checks only failures block, warnings are listed.
func TestNewDiagnosticReport(t *testing.T) {
	at := time.Date(2025, 3, 1, 10, 0, 0, 0, time.FixedZone("IST", 19800))
	report := NewDiagnosticReport(at, []DiagnosticItem{
		{ID: "ffmpeg", Status: DiagnosticStatusPass},
		{ID: "microphone", Status: DiagnosticStatusWarn},
	})
	if report.HasFailures {
		t.Fatal("warnings must not count as failures")
	}
	if report.GeneratedAt.Location() != time.UTC {
		t.Fatalf("generatedAt = %v, want UTC", report.GeneratedAt)
	}
	if failed := report.Failed(); len(failed) != 1 || failed[0].ID != "microphone" {
		t.Fatalf("failed = %+v", failed)
	}

	report = NewDiagnosticReport(at, []DiagnosticItem{{ID: "speech", Status: DiagnosticStatusFail}})
	if !report.HasFailures {
		t.Fatal("expected failure")
	}
}
