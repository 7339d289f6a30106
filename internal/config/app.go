package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Provider names accepted for speech and translation services.
const (
	ProviderGoogle = "google"
	ProviderOpenAI = "openai"
)

// Environment variables consulted by LoadAppConfig.
const (
	EnvConfigPath = "MEDIA_TRANSLATOR_CONFIG"
	EnvGoogleKey  = "GOOGLE_API_KEY"
	EnvOpenAIKey  = "OPENAI_API_KEY"
)

// AppConfig is the operator-level configuration read from TOML.
type AppConfig struct {
	Log         LogConfig        `toml:"log"`
	Server      ServerConfig     `toml:"server"`
	Speech      ServiceConfig    `toml:"speech"`
	Translation ServiceConfig    `toml:"translation"`
	FFmpeg      FFmpegConfig     `toml:"ffmpeg"`
	Export      ExportConfig     `toml:"export"`
	Microphone  MicrophoneConfig `toml:"microphone"`
}

// LogConfig selects logger level and encoding.
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// ServerConfig configures the web front end.
type ServerConfig struct {
	Addr           string   `toml:"addr"`
	UploadDir      string   `toml:"upload_dir"`
	MaxUploadMB    int64    `toml:"max_upload_mb"`
	AllowedOrigins []string `toml:"allowed_origins"`
}

// ServiceConfig configures one external recognition or translation service.
type ServiceConfig struct {
	Provider string   `toml:"provider"`
	APIKey   string   `toml:"api_key"`
	Endpoint string   `toml:"endpoint"`
	Model    string   `toml:"model"`
	Timeout  Duration `toml:"timeout"`
}

// FFmpegConfig locates the ffmpeg binary.
type FFmpegConfig struct {
	Path string `toml:"path"`
}

// ExportConfig controls PDF rendering.
type ExportConfig struct {
	FontPath   string  `toml:"font_path"`
	FontFamily string  `toml:"font_family"`
	FontSize   float64 `toml:"font_size"`
	LineHeight float64 `toml:"line_height"`
}

// MicrophoneConfig bounds the desktop capture window.
type MicrophoneConfig struct {
	SampleRate   int      `toml:"sample_rate"`
	Calibration  Duration `toml:"calibration"`
	StartTimeout Duration `toml:"start_timeout"`
	PhraseLimit  Duration `toml:"phrase_limit"`
	Pause        Duration `toml:"pause"`
}

// Duration decodes TOML strings such as "5s" or "800ms".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", text, err)
	}
	d.Duration = parsed
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// ResolveConfigPath picks the explicit path, then the env var, then config.toml.
func ResolveConfigPath(explicit string) string {
	if path := strings.TrimSpace(explicit); path != "" {
		return path
	}
	if path := strings.TrimSpace(os.Getenv(EnvConfigPath)); path != "" {
		return path
	}
	return "config.toml"
}

// LoadAppConfig reads path over the defaults. A missing file is not an error.
func LoadAppConfig(path string) (AppConfig, error) {
	cfg := DefaultAppConfig()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return AppConfig{}, fmt.Errorf("decode %s: %w", path, err)
		}
	}

	cfg.applyEnv(os.Getenv)
	if err := cfg.Validate(); err != nil {
		return AppConfig{}, err
	}
	return cfg, nil
}

// applyEnv fills empty API keys from the provider's environment variable.
func (c *AppConfig) applyEnv(getenv func(string) string) {
	for _, svc := range []*ServiceConfig{&c.Speech, &c.Translation} {
		if strings.TrimSpace(svc.APIKey) != "" {
			continue
		}
		switch svc.Provider {
		case ProviderGoogle:
			svc.APIKey = getenv(EnvGoogleKey)
		case ProviderOpenAI:
			svc.APIKey = getenv(EnvOpenAIKey)
		}
	}
}

// Validate rejects unknown providers and impossible limits.
func (c AppConfig) Validate() error {
	for name, svc := range map[string]ServiceConfig{"speech": c.Speech, "translation": c.Translation} {
		switch svc.Provider {
		case ProviderGoogle, ProviderOpenAI:
		default:
			return fmt.Errorf("%s.provider: unsupported provider %q", name, svc.Provider)
		}
		if svc.Timeout.Duration < 0 {
			return fmt.Errorf("%s.timeout must not be negative", name)
		}
	}

	switch c.Log.Format {
	case "", "console", "json":
	default:
		return fmt.Errorf("log.format: unsupported format %q", c.Log.Format)
	}

	if c.Server.MaxUploadMB <= 0 {
		return fmt.Errorf("server.max_upload_mb must be positive")
	}
	if c.Export.FontSize <= 0 || c.Export.LineHeight <= 0 {
		return fmt.Errorf("export.font_size and export.line_height must be positive")
	}
	if c.Microphone.SampleRate <= 0 {
		return fmt.Errorf("microphone.sample_rate must be positive")
	}
	return nil
}
