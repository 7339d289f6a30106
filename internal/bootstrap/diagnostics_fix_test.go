package bootstrap

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"media-translator/internal/diagnostics"
	"media-translator/internal/domain"
)

// fakeDownload writes a stub file instead of fetching sourceURL.
type fakeDownload struct {
	urls []string
	err  error
}

func (f *fakeDownload) fetch(_ context.Context, destinationPath, sourceURL string) error {
	f.urls = append(f.urls, sourceURL)
	if f.err != nil {
		return f.err
	}
	if err := os.MkdirAll(filepath.Dir(destinationPath), 0o755); err != nil {
		return err
	}
	return os.WriteFile(destinationPath, []byte("ttf"), 0o644)
}

// TestInstallOrFixOutputDirCreatesDirectory ensures output dir fix creates missing directories.
func TestInstallOrFixOutputDirCreatesDirectory(t *testing.T) {
	root := t.TempDir()
	outputDir := filepath.Join(root, "nested", "transcripts")

	fixed, changed, err := installOrFixOutputDir(domain.Settings{OutputDir: outputDir})
	if err != nil {
		t.Fatalf("fix output dir: %v", err)
	}
	if changed {
		t.Fatal("expected settings to remain unchanged")
	}
	if fixed.OutputDir != outputDir {
		t.Fatalf("OutputDir = %s, want %s", fixed.OutputDir, outputDir)
	}
	if _, err := os.Stat(outputDir); err != nil {
		t.Fatalf("stat output dir: %v", err)
	}
}

// TestInstallOrFixFontDownloadsScriptFont checks the font matches the translation language.
func TestInstallOrFixFontDownloadsScriptFont(t *testing.T) {
	fontsDir := filepath.Join(t.TempDir(), "fonts")
	dl := &fakeDownload{}

	fixed, changed, err := installOrFixFont(context.Background(), domain.Settings{TranslationLanguage: "ta"}, fontsDir, dl.fetch)
	if err != nil {
		t.Fatalf("fix font: %v", err)
	}
	want := filepath.Join(fontsDir, "NotoSansTamil-Regular.ttf")
	if !changed || fixed.FontPath != want {
		t.Fatalf("fixed = %+v changed = %v, want font %s", fixed, changed, want)
	}
	if len(dl.urls) != 1 {
		t.Fatalf("downloads = %v", dl.urls)
	}

	again, changed, err := installOrFixFont(context.Background(), fixed, fontsDir, dl.fetch)
	if err != nil || changed || again.FontPath != want {
		t.Fatalf("second fix = %+v, %v, %v", again, changed, err)
	}
	if len(dl.urls) != 1 {
		t.Fatalf("existing font should not be downloaded again: %v", dl.urls)
	}
}

// TestInstallOrFixFontReportsDownloadError keeps settings untouched on failure.
func TestInstallOrFixFontReportsDownloadError(t *testing.T) {
	dl := &fakeDownload{err: errors.New("offline")}
	fixed, changed, err := installOrFixFont(context.Background(), domain.Settings{TranslationLanguage: "hi"}, t.TempDir(), dl.fetch)
	if err == nil || changed || fixed.FontPath != "" {
		t.Fatalf("fixed = %+v changed = %v err = %v", fixed, changed, err)
	}
}

// TestInstallOrFixDiagnosticFont saves the downloaded font and refreshes diagnostics.
func TestInstallOrFixDiagnosticFont(t *testing.T) {
	store := &fakeStore{settings: domain.Settings{OutputDir: t.TempDir(), TranslationLanguage: "bn"}}
	app, _ := newTestApp(store, nil)
	app.appDir = t.TempDir()
	dl := &fakeDownload{}
	app.download = dl.fetch

	var applied domain.Settings
	app.apply = func(s domain.Settings) { applied = s }
	app.diagnose = func(s domain.Settings) domain.DiagnosticReport {
		return domain.DiagnosticReport{Items: []domain.DiagnosticItem{{ID: diagnostics.ItemFont, Status: domain.DiagnosticStatusPass}}}
	}

	report, err := app.InstallOrFixDiagnostic(diagnostics.ItemFont)
	if err != nil {
		t.Fatalf("InstallOrFixDiagnostic() error = %v", err)
	}
	if len(report.Items) != 1 {
		t.Fatalf("report = %+v", report)
	}
	want := filepath.Join(app.appDir, "fonts", "NotoSansBengali-Regular.ttf")
	if len(store.saved) != 1 || store.saved[0].FontPath != want {
		t.Fatalf("saved = %+v, want font %s", store.saved, want)
	}
	if applied.FontPath != want {
		t.Fatalf("applied font = %s, want %s", applied.FontPath, want)
	}
}

// TestInstallOrFixDiagnosticRejectsUnknownItem validates the item switch.
func TestInstallOrFixDiagnosticRejectsUnknownItem(t *testing.T) {
	app, _ := newTestApp(&fakeStore{}, nil)
	if _, err := app.InstallOrFixDiagnostic(diagnostics.ItemSpeech); err == nil {
		t.Fatal("expected unsupported item error")
	}
	if _, err := app.InstallOrFixDiagnostic("  "); err == nil {
		t.Fatal("expected missing id error")
	}
}

// TestInstallOrFixDiagnosticFFmpeg runs the installer and refreshes diagnostics.
func TestInstallOrFixDiagnosticFFmpeg(t *testing.T) {
	app, _ := newTestApp(&fakeStore{settings: domain.Settings{OutputDir: t.TempDir()}}, nil)
	calls := 0
	app.installFFmpeg = func(context.Context) error {
		calls++
		return errors.New("no package manager")
	}
	refreshed := false
	app.diagnose = func(domain.Settings) domain.DiagnosticReport {
		refreshed = true
		return domain.DiagnosticReport{}
	}

	if _, err := app.InstallOrFixDiagnostic(diagnostics.ItemFFmpeg); err == nil {
		t.Fatal("expected installer error")
	}
	if calls != 1 || !refreshed {
		t.Fatalf("calls = %d refreshed = %v", calls, refreshed)
	}
}
