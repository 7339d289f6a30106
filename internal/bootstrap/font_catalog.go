package bootstrap

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"media-translator/internal/config"
	"media-translator/internal/domain"
)

// GetFonts returns the downloadable PDF fonts, marking ones already on disk.
func (a *App) GetFonts() []domain.FontOption {
	fonts := make([]domain.FontOption, len(domain.FontCatalog))
	copy(fonts, domain.FontCatalog)

	settings, err := a.loadSettings()
	markDownloadedFonts(fonts, resolveKnownFontDirs(a.appDir, settings, err == nil))
	return fonts
}

// DownloadFont downloads one catalog font and makes it the PDF export font.
func (a *App) DownloadFont(fontID string) (domain.Settings, error) {
	id := strings.TrimSpace(fontID)
	if id == "" {
		return domain.Settings{}, fmt.Errorf("font id is required")
	}

	font, found := getFontByID(id)
	if !found {
		return domain.Settings{}, fmt.Errorf("unknown font id: %s", id)
	}

	settings, err := a.loadSettings()
	if err != nil {
		return domain.Settings{}, fmt.Errorf("load settings: %w", err)
	}

	targetPath := filepath.Join(localFontsDir(a.appDir), font.FileName)
	if err := a.download(context.Background(), targetPath, font.URL); err != nil {
		return domain.Settings{}, fmt.Errorf("download font %s: %w", font.Name, err)
	}

	settings.FontPath = targetPath
	if err := a.Store.Save(settings); err != nil {
		return domain.Settings{}, fmt.Errorf("save settings: %w", err)
	}

	a.refreshDiagnosticsFromSettings(settings)
	return settings, nil
}

func getFontByID(id string) (domain.FontOption, bool) {
	for _, font := range domain.FontCatalog {
		if font.ID == id {
			return font, true
		}
	}
	return domain.FontOption{}, false
}

func (a *App) loadSettings() (domain.Settings, error) {
	if a.Store == nil {
		return domain.Settings{}, fmt.Errorf("settings store is not configured")
	}
	settings, err := a.Store.Load()
	if err != nil {
		return domain.Settings{}, err
	}
	return config.NormalizeSettings(settings), nil
}

func resolveKnownFontDirs(appDir string, settings domain.Settings, hasSettings bool) []string {
	seen := map[string]struct{}{}
	dirs := []string{}
	add := func(path string) {
		p := strings.TrimSpace(path)
		if p == "" {
			return
		}
		clean := filepath.Clean(p)
		if clean == "." {
			return
		}
		if _, ok := seen[clean]; ok {
			return
		}
		seen[clean] = struct{}{}
		dirs = append(dirs, clean)
	}

	if appDir != "" {
		add(localFontsDir(appDir))
	}
	if hasSettings && settings.FontPath != "" {
		add(filepath.Dir(settings.FontPath))
	}
	return dirs
}

func markDownloadedFonts(fonts []domain.FontOption, fontDirs []string) {
	for i := range fonts {
		for _, dir := range fontDirs {
			candidate := filepath.Join(dir, fonts[i].FileName)
			info, err := os.Stat(candidate)
			if err != nil || info.IsDir() {
				continue
			}
			fonts[i].Downloaded = true
			fonts[i].LocalPath = candidate
			break
		}
	}
}
