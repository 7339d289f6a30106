package diagnostics

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"media-translator/internal/config"
	"media-translator/internal/domain"
)

func configuredApp(fontPath string) config.AppConfig {
	cfg := config.DefaultAppConfig()
	cfg.Speech.APIKey = "speech-key"
	cfg.Translation.APIKey = "translate-key"
	cfg.Export.FontPath = fontPath
	return cfg
}

// TestCheckerRunAllPass validates happy-path diagnostics report.
func TestCheckerRunAllPass(t *testing.T) {
	root := t.TempDir()
	fontPath := filepath.Join(root, "NotoSans.ttf")
	if err := os.WriteFile(fontPath, []byte("stub"), 0o644); err != nil {
		t.Fatalf("write font: %v", err)
	}

	checker := NewCheckerForTests(
		func(name string) (string, error) { return "/usr/local/bin/" + name, nil },
		os.Stat,
		os.MkdirAll,
		os.CreateTemp,
		os.Remove,
		func() error { return nil },
	)

	report := checker.Run(domain.Settings{OutputDir: filepath.Join(root, "output")}, configuredApp(fontPath))
	if report.HasFailures {
		t.Fatalf("expected no failures, got %+v", report.Items)
	}
	for _, item := range report.Items {
		if item.Status != domain.DiagnosticStatusPass {
			t.Fatalf("item %s: got %s, want pass", item.ID, item.Status)
		}
	}
}

// TestCheckerRunMissingToolsAndKeys validates failure reporting.
func TestCheckerRunMissingToolsAndKeys(t *testing.T) {
	checker := NewCheckerForTests(
		func(string) (string, error) { return "", errors.New("not found") },
		os.Stat,
		os.MkdirAll,
		os.CreateTemp,
		os.Remove,
		func() error { return errors.New("no device") },
	)

	cfg := config.DefaultAppConfig()
	cfg.Translation.Provider = config.ProviderOpenAI
	report := checker.Run(domain.Settings{OutputDir: ""}, cfg)

	if !report.HasFailures {
		t.Fatal("expected failures")
	}

	assertStatusByID(t, report, ItemFFmpeg, domain.DiagnosticStatusFail)
	assertStatusByID(t, report, ItemSpeech, domain.DiagnosticStatusFail)
	assertStatusByID(t, report, ItemTranslation, domain.DiagnosticStatusFail)
	assertStatusByID(t, report, ItemOutputDir, domain.DiagnosticStatusFail)
	assertStatusByID(t, report, ItemFont, domain.DiagnosticStatusWarn)
	assertStatusByID(t, report, ItemMicrophone, domain.DiagnosticStatusWarn)

	for _, item := range report.Items {
		if item.ID == ItemTranslation && item.Hint != "Set OPENAI_API_KEY or api_key in the config file." {
			t.Fatalf("translation hint = %q", item.Hint)
		}
		if item.ID == ItemFFmpeg && !item.Fixable {
			t.Fatal("ffmpeg item should be fixable")
		}
	}
}

// TestCheckerRunWarningsAreNotFailures checks warn status does not fail the report.
func TestCheckerRunWarningsAreNotFailures(t *testing.T) {
	checker := NewCheckerForTests(
		func(name string) (string, error) { return "/usr/bin/" + name, nil },
		os.Stat,
		os.MkdirAll,
		os.CreateTemp,
		os.Remove,
		func() error { return errors.New("no device") },
	)

	report := checker.Run(domain.Settings{OutputDir: filepath.Join(t.TempDir(), "out")}, configuredApp(""))
	if report.HasFailures {
		t.Fatalf("warnings should not fail the report: %+v", report.Items)
	}
	assertStatusByID(t, report, ItemFont, domain.DiagnosticStatusWarn)
}

// TestCheckerRunMissingFontFails validates the font path check.
func TestCheckerRunMissingFontFails(t *testing.T) {
	root := t.TempDir()
	checker := NewCheckerForTests(
		func(name string) (string, error) { return "/usr/bin/" + name, nil },
		os.Stat,
		os.MkdirAll,
		os.CreateTemp,
		os.Remove,
		func() error { return nil },
	)

	report := checker.Run(domain.Settings{OutputDir: filepath.Join(root, "out")}, configuredApp(filepath.Join(root, "missing.ttf")))
	assertStatusByID(t, report, ItemFont, domain.DiagnosticStatusFail)
}

// assertStatusByID checks status for one diagnostic item by ID.
func assertStatusByID(t *testing.T, report domain.DiagnosticReport, id string, want domain.DiagnosticStatus) {
	t.Helper()
	for _, item := range report.Items {
		if item.ID == id {
			if item.Status != want {
				t.Fatalf("item %s: got %s, want %s", id, item.Status, want)
			}
			return
		}
	}
	t.Fatalf("diagnostic item not found: %s", id)
}

// TestCheckerRunPrefersSettingsFont checks the per-user font overrides the config.
func TestCheckerRunPrefersSettingsFont(t *testing.T) {
	root := t.TempDir()
	fontPath := filepath.Join(root, "NotoSansTamil-Regular.ttf")
	if err := os.WriteFile(fontPath, []byte("stub"), 0o644); err != nil {
		t.Fatalf("write font: %v", err)
	}
	checker := NewCheckerForTests(
		func(name string) (string, error) { return "/usr/bin/" + name, nil },
		os.Stat,
		os.MkdirAll,
		os.CreateTemp,
		os.Remove,
		func() error { return nil },
	)

	settings := domain.Settings{OutputDir: filepath.Join(root, "out"), FontPath: fontPath}
	report := checker.Run(settings, configuredApp(filepath.Join(root, "missing.ttf")))
	assertStatusByID(t, report, ItemFont, domain.DiagnosticStatusPass)
}
