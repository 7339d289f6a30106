package bootstrap

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"media-translator/internal/config"
	"media-translator/internal/diagnostics"
	"media-translator/internal/domain"
	"media-translator/internal/logger"
)

// InstallOrFixDiagnostic applies an OS-specific remediation for one failed diagnostic item.
func (a *App) InstallOrFixDiagnostic(itemID string) (domain.DiagnosticReport, error) {
	if a.Store == nil {
		return domain.DiagnosticReport{}, fmt.Errorf("settings store is not configured")
	}

	id := strings.TrimSpace(itemID)
	if id == "" {
		return domain.DiagnosticReport{}, fmt.Errorf("diagnostic item id is required")
	}

	settings, err := a.Store.Load()
	if err != nil {
		return domain.DiagnosticReport{}, fmt.Errorf("load settings: %w", err)
	}
	settings = config.NormalizeSettings(settings)

	ctx := context.Background()
	settingsChanged := false
	var fixErr error

	switch id {
	case diagnostics.ItemFFmpeg:
		fixErr = a.installFFmpeg(ctx)
	case diagnostics.ItemOutputDir:
		settings, settingsChanged, fixErr = installOrFixOutputDir(settings)
	case diagnostics.ItemFont:
		settings, settingsChanged, fixErr = installOrFixFont(ctx, settings, localFontsDir(a.appDir), a.download)
	default:
		return domain.DiagnosticReport{}, fmt.Errorf("unsupported diagnostic item id: %s", id)
	}

	if settingsChanged {
		if saveErr := a.Store.Save(settings); saveErr != nil {
			report := a.refreshDiagnosticsFromSettings(settings)
			return report, fmt.Errorf("save settings after fix: %w", saveErr)
		}
	}

	report := a.refreshDiagnosticsFromSettings(settings)
	if fixErr != nil {
		a.log.Warn("diagnostic fix failed", logger.String("item", id), logger.Error(fixErr))
		return report, fixErr
	}
	return report, nil
}

// refreshDiagnosticsFromSettings applies settings to the pipeline and reruns checks.
func (a *App) refreshDiagnosticsFromSettings(settings domain.Settings) domain.DiagnosticReport {
	if a.apply != nil {
		a.apply(settings)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.settings = settings
	if a.diagnose != nil {
		a.Diagnostics = a.diagnose(settings)
	}
	return a.Diagnostics
}

func installOrFixOutputDir(settings domain.Settings) (domain.Settings, bool, error) {
	outputDir := strings.TrimSpace(settings.OutputDir)
	changed := false
	if outputDir == "" {
		outputDir = config.DefaultSettings().OutputDir
		settings.OutputDir = outputDir
		changed = true
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return settings, changed, fmt.Errorf("create output directory %s: %w", outputDir, err)
	}

	return settings, changed, nil
}

// installOrFixFont downloads the font covering the selected translation
// language and points settings.FontPath at it.
func installOrFixFont(ctx context.Context, settings domain.Settings, fontsDir string, download downloadFunc) (domain.Settings, bool, error) {
	font, ok := domain.FontForLanguage(settings.TranslationLanguage)
	if !ok {
		return settings, false, fmt.Errorf("no font available for language %q", settings.TranslationLanguage)
	}

	target := filepath.Join(fontsDir, font.FileName)
	if info, err := os.Stat(target); err != nil || info.IsDir() {
		if err := download(ctx, target, font.URL); err != nil {
			return settings, false, fmt.Errorf("download font %s: %w", font.Name, err)
		}
	}

	if settings.FontPath == target {
		return settings, false, nil
	}
	settings.FontPath = target
	return settings, true, nil
}
