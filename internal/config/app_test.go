package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// TestLoadAppConfigMissingFileUsesDefaults checks zero-config startup.
func TestLoadAppConfigMissingFileUsesDefaults(t *testing.T) {
	t.Setenv(EnvGoogleKey, "")
	t.Setenv(EnvOpenAIKey, "")

	cfg, err := LoadAppConfig(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("LoadAppConfig() error = %v", err)
	}
	if cfg.Server.Addr != ":8080" {
		t.Fatalf("addr = %q, want :8080", cfg.Server.Addr)
	}
	if cfg.Speech.Provider != ProviderGoogle || cfg.Translation.Provider != ProviderGoogle {
		t.Fatalf("providers = %q/%q", cfg.Speech.Provider, cfg.Translation.Provider)
	}
	if cfg.Microphone.StartTimeout.Duration != 5*time.Second {
		t.Fatalf("start timeout = %s, want 5s", cfg.Microphone.StartTimeout)
	}
}

// TestLoadAppConfigDecodesFileAndEnv checks TOML decoding and key fallback.
func TestLoadAppConfigDecodesFileAndEnv(t *testing.T) {
	t.Setenv(EnvGoogleKey, "google-env")
	t.Setenv(EnvOpenAIKey, "openai-env")

	path := filepath.Join(t.TempDir(), "config.toml")
	content := strings.Join([]string{
		`[log]`,
		`level = "debug"`,
		`format = "json"`,
		`[speech]`,
		`provider = "openai"`,
		`timeout = "45s"`,
		`[translation]`,
		`provider = "google"`,
		`api_key = "explicit"`,
		`[microphone]`,
		`pause = "500ms"`,
		`[export]`,
		`font_path = "/fonts/NotoSans.ttf"`,
	}, "\n")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := LoadAppConfig(path)
	if err != nil {
		t.Fatalf("LoadAppConfig() error = %v", err)
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "json" {
		t.Fatalf("log = %+v", cfg.Log)
	}
	if cfg.Speech.Provider != ProviderOpenAI || cfg.Speech.APIKey != "openai-env" {
		t.Fatalf("speech = %+v", cfg.Speech)
	}
	if cfg.Speech.Timeout.Duration != 45*time.Second {
		t.Fatalf("speech timeout = %s, want 45s", cfg.Speech.Timeout)
	}
	if cfg.Translation.APIKey != "explicit" {
		t.Fatalf("translation key = %q, want explicit", cfg.Translation.APIKey)
	}
	if cfg.Microphone.Pause.Duration != 500*time.Millisecond {
		t.Fatalf("pause = %s, want 500ms", cfg.Microphone.Pause)
	}
	if cfg.Microphone.PhraseLimit.Duration != 10*time.Second {
		t.Fatalf("phrase limit = %s, want default 10s", cfg.Microphone.PhraseLimit)
	}
	if cfg.Export.FontPath != "/fonts/NotoSans.ttf" || cfg.Export.FontSize != 12 {
		t.Fatalf("export = %+v", cfg.Export)
	}
}

// TestLoadAppConfigRejectsInvalid checks validation and decode errors.
func TestLoadAppConfigRejectsInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "unknown provider", content: "[speech]\nprovider = \"azure\"\n"},
		{name: "bad duration", content: "[microphone]\npause = \"soon\"\n"},
		{name: "bad format", content: "[log]\nformat = \"xml\"\n"},
		{name: "broken toml", content: "[server\naddr = 1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			if err := os.WriteFile(path, []byte(tt.content), 0o644); err != nil {
				t.Fatalf("write: %v", err)
			}
			if _, err := LoadAppConfig(path); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

// TestResolveConfigPath checks flag, env, and default precedence.
func TestResolveConfigPath(t *testing.T) {
	t.Setenv(EnvConfigPath, "/etc/mt.toml")
	if got := ResolveConfigPath(" ./local.toml "); got != "./local.toml" {
		t.Fatalf("explicit = %q", got)
	}
	if got := ResolveConfigPath(""); got != "/etc/mt.toml" {
		t.Fatalf("env = %q", got)
	}
	t.Setenv(EnvConfigPath, "")
	if got := ResolveConfigPath(""); got != "config.toml" {
		t.Fatalf("default = %q", got)
	}
}
