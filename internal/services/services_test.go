package services

import (
	"context"
	"testing"

	"media-translator/internal/config"
	"media-translator/internal/domain"
	"media-translator/internal/speech"
	"media-translator/internal/translate"
)

// TestNewRecognizerByProvider checks provider selection.
func TestNewRecognizerByProvider(t *testing.T) {
	ctx := context.Background()

	r, err := NewRecognizer(ctx, config.ServiceConfig{Provider: config.ProviderGoogle, APIKey: "k"})
	if err != nil {
		t.Fatalf("google: %v", err)
	}
	if _, ok := r.(*speech.Google); !ok {
		t.Fatalf("google recognizer type = %T", r)
	}

	r, err = NewRecognizer(ctx, config.ServiceConfig{Provider: config.ProviderOpenAI, APIKey: "k"})
	if err != nil {
		t.Fatalf("openai: %v", err)
	}
	if _, ok := r.(*speech.Whisper); !ok {
		t.Fatalf("openai recognizer type = %T", r)
	}

	r, err = NewRecognizer(ctx, config.ServiceConfig{Provider: config.ProviderGoogle})
	if err != nil || r != nil {
		t.Fatalf("missing key: recognizer = %v, err = %v", r, err)
	}

	if _, err := NewRecognizer(ctx, config.ServiceConfig{Provider: "azure", APIKey: "k"}); err == nil {
		t.Fatal("expected unsupported provider error")
	}
}

// TestNewTranslatorByProvider checks provider selection.
func TestNewTranslatorByProvider(t *testing.T) {
	ctx := context.Background()

	tr, err := NewTranslator(ctx, config.ServiceConfig{Provider: config.ProviderOpenAI, APIKey: "k"})
	if err != nil {
		t.Fatalf("openai: %v", err)
	}
	if _, ok := tr.(*translate.OpenAI); !ok {
		t.Fatalf("openai translator type = %T", tr)
	}

	tr, err = NewTranslator(ctx, config.ServiceConfig{Provider: config.ProviderGoogle})
	if err != nil || tr != nil {
		t.Fatalf("missing key: translator = %v, err = %v", tr, err)
	}
}

// TestBuildWithoutKeys checks the pipeline is still assembled.
func TestBuildWithoutKeys(t *testing.T) {
	svc, err := Build(context.Background(), config.DefaultAppConfig(), nil)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if svc.Pipeline == nil || svc.Runner == nil || svc.Checker == nil {
		t.Fatalf("services = %+v", svc)
	}
	if svc.Runner.Current().Status != domain.JobStatusIdle {
		t.Fatalf("runner status = %s", svc.Runner.Current().Status)
	}
}

// TestBuildRejectsInvalidConfig checks validation runs first.
func TestBuildRejectsInvalidConfig(t *testing.T) {
	cfg := config.DefaultAppConfig()
	cfg.Speech.Provider = "azure"
	if _, err := Build(context.Background(), cfg, nil); err == nil {
		t.Fatal("expected invalid config error")
	}
}

// TestApplySettingsFontOverride checks the per-user font wins over config.
func TestApplySettingsFontOverride(t *testing.T) {
	cfg := config.DefaultAppConfig()
	cfg.Export.FontPath = "/etc/fonts/base.ttf"
	svc, err := Build(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	svc.ApplySettings(domain.Settings{FontPath: " /home/u/tamil.ttf "})
	if got := svc.Exporter.FontPath(); got != "/home/u/tamil.ttf" {
		t.Fatalf("font = %q, want user font", got)
	}

	svc.ApplySettings(domain.Settings{})
	if got := svc.Exporter.FontPath(); got != "/etc/fonts/base.ttf" {
		t.Fatalf("font = %q, want config font", got)
	}
}
