package config

import (
	"os"
	"path/filepath"
	"testing"

	"media-translator/internal/domain"
)

// TestDefaultSettings verifies baseline defaults are present.
func TestDefaultSettings(t *testing.T) {
	cfg := DefaultSettings()
	if cfg.OutputDir != "transcripts" {
		t.Fatalf("output dir = %q, want transcripts", cfg.OutputDir)
	}
	if cfg.TranscriptionLanguage != "en-US" {
		t.Fatalf("transcription language = %q, want en-US", cfg.TranscriptionLanguage)
	}
	if cfg.TranslationLanguage != "hi" {
		t.Fatalf("translation language = %q, want hi", cfg.TranslationLanguage)
	}
	if cfg.ChunkLengthMs != 60000 {
		t.Fatalf("chunk length = %d, want 60000", cfg.ChunkLengthMs)
	}
}

// TestJSONStoreLoadMissingReturnsDefaults checks first-run behavior.
func TestJSONStoreLoadMissingReturnsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "settings.json")
	store := NewJSONStore(path)

	got, err := store.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got != DefaultSettings() {
		t.Fatalf("settings = %+v, want defaults", got)
	}
}

// TestJSONStoreSaveAndLoadRoundTrip checks persisted settings fidelity.
func TestJSONStoreSaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg", "settings.json")
	store := NewJSONStore(path)
	want := domain.Settings{
		OutputDir:             "/out",
		TranscriptionLanguage: "ta-IN",
		TranslationLanguage:   "en",
		ChunkLengthMs:         30000,
	}

	if err := store.Save(want); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := store.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got != want {
		t.Fatalf("settings = %+v, want %+v", got, want)
	}
}

// TestJSONStoreLoadFillsMissingFields checks older files gain defaults.
func TestJSONStoreLoadFillsMissingFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	if err := os.WriteFile(path, []byte(`{"outputDir":" /data/out ","translationLanguage":"Tamil"}`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	got, err := NewJSONStore(path).Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	want := domain.Settings{
		OutputDir:             "/data/out",
		TranscriptionLanguage: "en-US",
		TranslationLanguage:   "ta",
		ChunkLengthMs:         60000,
	}
	if got != want {
		t.Fatalf("settings = %+v, want %+v", got, want)
	}
}

// TestJSONStoreLoadInvalidJSON checks parse error handling.
func TestJSONStoreLoadInvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg", "settings.json")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte("{not-json"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	store := NewJSONStore(path)
	if _, err := store.Load(); err == nil {
		t.Fatal("expected json parse error")
	}
}

// TestJSONStoreSaveLeavesNoTempFiles checks the rename replaces the file in place.
func TestJSONStoreSaveLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	store := NewJSONStore(filepath.Join(dir, "settings.json"))
	for _, lang := range []string{"hi", "ta"} {
		if err := store.Save(domain.Settings{OutputDir: "out", TranslationLanguage: lang}); err != nil {
			t.Fatalf("Save(%s) error = %v", lang, err)
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "settings.json" {
		t.Fatalf("entries = %v, want only settings.json", entries)
	}
	got, err := store.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.TranslationLanguage != "ta" {
		t.Fatalf("translation = %q, want last save", got.TranslationLanguage)
	}
}
