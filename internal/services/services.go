// Package services assembles the pipeline and its collaborators from configuration.
package services

import (
	"context"
	"fmt"
	"strings"

	"media-translator/internal/capture"
	"media-translator/internal/config"
	"media-translator/internal/diagnostics"
	"media-translator/internal/document"
	"media-translator/internal/domain"
	"media-translator/internal/export"
	"media-translator/internal/jobs"
	"media-translator/internal/logger"
	"media-translator/internal/media"
	"media-translator/internal/speech"
	"media-translator/internal/transcribe"
	"media-translator/internal/translate"
)

// Services bundles everything a front end needs to run jobs.
type Services struct {
	Config   config.AppConfig
	Logger   *logger.Logger
	FFmpeg   *media.FFmpeg
	Exporter *export.Writer
	Pipeline *transcribe.Pipeline
	Runner   *jobs.Runner
	Checker  *diagnostics.Checker
}

// Build wires the pipeline. A service without credentials is left unset so
// runs report it as a stage failure and diagnostics flag it; Build itself
// fails only on invalid configuration.
func Build(ctx context.Context, cfg config.AppConfig, log *logger.Logger) (*Services, error) {
	if log == nil {
		log = logger.NewNop()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	recognizer, err := NewRecognizer(ctx, cfg.Speech)
	if err != nil {
		return nil, err
	}
	if recognizer == nil {
		log.Warn("speech recognition disabled: no api key", logger.String("provider", cfg.Speech.Provider))
	}

	translator, err := NewTranslator(ctx, cfg.Translation)
	if err != nil {
		return nil, err
	}
	if translator == nil {
		log.Warn("translation disabled: no api key", logger.String("provider", cfg.Translation.Provider))
	}

	ffmpeg := media.NewFFmpeg(cfg.FFmpeg.Path)
	log.Debug("ffmpeg configured", logger.String("path", ffmpeg.Path()))
	exporter := export.NewWriter(export.Options{
		FontPath:   cfg.Export.FontPath,
		FontFamily: cfg.Export.FontFamily,
		FontSize:   cfg.Export.FontSize,
		LineHeight: cfg.Export.LineHeight,
	})

	deps := transcribe.Dependencies{
		Recognizer: recognizer,
		Translator: translator,
		Converter:  ffmpeg,
		Documents:  document.Extractor{},
		Exporter:   exporter,
		Logger:     log,
	}
	if capture.Enabled {
		deps.Listener = NewListener(cfg.Microphone, log)
	}

	pipeline := transcribe.NewPipeline(deps)
	return &Services{
		Config:   cfg,
		Logger:   log,
		FFmpeg:   ffmpeg,
		Exporter: exporter,
		Pipeline: pipeline,
		Runner:   jobs.NewRunner(pipeline, jobs.NewEventBus(1000), log),
		Checker:  diagnostics.NewChecker(),
	}, nil
}

// NewRecognizer returns nil, nil when no API key is configured.
func NewRecognizer(ctx context.Context, svc config.ServiceConfig) (speech.Recognizer, error) {
	if strings.TrimSpace(svc.APIKey) == "" {
		return nil, nil
	}
	switch svc.Provider {
	case config.ProviderGoogle:
		return speech.NewGoogle(ctx, speech.GoogleOptions{
			APIKey:   svc.APIKey,
			Endpoint: svc.Endpoint,
			Timeout:  svc.Timeout.Duration,
		})
	case config.ProviderOpenAI:
		return speech.NewWhisper(speech.WhisperOptions{
			APIKey:  svc.APIKey,
			BaseURL: svc.Endpoint,
			Model:   svc.Model,
			Timeout: svc.Timeout.Duration,
		})
	default:
		return nil, fmt.Errorf("speech: unsupported provider %q", svc.Provider)
	}
}

// NewTranslator returns nil, nil when no API key is configured.
func NewTranslator(ctx context.Context, svc config.ServiceConfig) (translate.Translator, error) {
	if strings.TrimSpace(svc.APIKey) == "" {
		return nil, nil
	}
	switch svc.Provider {
	case config.ProviderGoogle:
		return translate.NewGoogle(ctx, translate.GoogleOptions{
			APIKey:   svc.APIKey,
			Endpoint: svc.Endpoint,
			Timeout:  svc.Timeout.Duration,
		})
	case config.ProviderOpenAI:
		return translate.NewOpenAI(translate.OpenAIOptions{
			APIKey:  svc.APIKey,
			BaseURL: svc.Endpoint,
			Model:   svc.Model,
			Timeout: svc.Timeout.Duration,
		})
	default:
		return nil, fmt.Errorf("translation: unsupported provider %q", svc.Provider)
	}
}

// NewListener builds a microphone listener from the capture settings.
func NewListener(mic config.MicrophoneConfig, log *logger.Logger) *capture.Listener {
	opts := speech.DefaultListenOptions()
	if mic.Calibration.Duration > 0 {
		opts.Calibration = mic.Calibration.Duration
	}
	if mic.StartTimeout.Duration > 0 {
		opts.StartTimeout = mic.StartTimeout.Duration
	}
	if mic.PhraseLimit.Duration > 0 {
		opts.PhraseLimit = mic.PhraseLimit.Duration
	}
	if mic.Pause.Duration > 0 {
		opts.Pause = mic.Pause.Duration
	}
	opts.OnCalibrated = func(threshold float64) {
		log.Debug("microphone calibrated", logger.Any("threshold", threshold))
	}
	return capture.NewListener(mic.SampleRate, opts)
}

// ApplySettings pushes per-user overrides into long-lived collaborators.
func (s *Services) ApplySettings(settings domain.Settings) {
	path := strings.TrimSpace(settings.FontPath)
	if path == "" {
		path = s.Config.Export.FontPath
	}
	if s.Exporter.FontPath() == path {
		return
	}
	s.Exporter.SetFontPath(path)
	s.Logger.Info("export font changed", logger.String("font", path))
}

// Diagnose runs the dependency checks for settings.
func (s *Services) Diagnose(settings domain.Settings) domain.DiagnosticReport {
	return s.Checker.Run(settings, s.Config)
}
