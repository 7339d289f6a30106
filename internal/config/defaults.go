package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"media-translator/internal/domain"
)

const (
	// DefaultOutputDir is relative to the process working directory.
	DefaultOutputDir     = "transcripts"
	DefaultChunkLengthMs = 60000
	appDirName           = ".media-translator"
)

// DefaultSettings returns baseline local configuration for first launch.
func DefaultSettings() domain.Settings {
	return domain.Settings{
		OutputDir:             DefaultOutputDir,
		TranscriptionLanguage: domain.DefaultTranscriptionLanguage,
		TranslationLanguage:   domain.DefaultTranslationChoice,
		ChunkLengthMs:         DefaultChunkLengthMs,
	}
}

// DefaultSettingsPath returns the per-user settings file location.
func DefaultSettingsPath() string {
	return filepath.Join(AppDir(), "settings.json")
}

// AppDir returns the per-user application directory.
func AppDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}
	return filepath.Join(homeDir, appDirName)
}

// NormalizeSettings trims user input and fills empty fields with defaults.
func NormalizeSettings(settings domain.Settings) domain.Settings {
	defaults := DefaultSettings()

	settings.OutputDir = strings.TrimSpace(settings.OutputDir)
	if settings.OutputDir == "" {
		settings.OutputDir = defaults.OutputDir
	}
	settings.TranscriptionLanguage = domain.ResolveTranscriptionLanguage(settings.TranscriptionLanguage)
	if strings.TrimSpace(settings.TranslationLanguage) == "" {
		settings.TranslationLanguage = defaults.TranslationLanguage
	} else {
		settings.TranslationLanguage = domain.ResolveTranslationLanguage(settings.TranslationLanguage)
	}
	if settings.ChunkLengthMs <= 0 {
		settings.ChunkLengthMs = defaults.ChunkLengthMs
	}
	settings.FontPath = strings.TrimSpace(settings.FontPath)
	return settings
}

// DefaultAppConfig returns the application config used when no file exists.
func DefaultAppConfig() AppConfig {
	return AppConfig{
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Server: ServerConfig{
			Addr:        ":8080",
			UploadDir:   "uploads",
			MaxUploadMB: 200,
		},
		Speech: ServiceConfig{
			Provider: ProviderGoogle,
			Model:    "whisper-1",
			Timeout:  Duration{Duration: 2 * time.Minute},
		},
		Translation: ServiceConfig{
			Provider: ProviderGoogle,
			Model:    "gpt-4o-mini",
			Timeout:  Duration{Duration: time.Minute},
		},
		FFmpeg: FFmpegConfig{
			Path: "ffmpeg",
		},
		Export: ExportConfig{
			FontFamily: "Arial",
			FontSize:   12,
			LineHeight: 10,
		},
		Microphone: MicrophoneConfig{
			SampleRate:   16000,
			Calibration:  Duration{Duration: time.Second},
			StartTimeout: Duration{Duration: 5 * time.Second},
			PhraseLimit:  Duration{Duration: 10 * time.Second},
			Pause:        Duration{Duration: 800 * time.Millisecond},
		},
	}
}
