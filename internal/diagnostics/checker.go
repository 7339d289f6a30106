package diagnostics

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"strings"
	"time"

	"media-translator/internal/capture"
	"media-translator/internal/config"
	"media-translator/internal/domain"
)

// Item IDs referenced by the fix actions.
const (
	ItemFFmpeg      = "tool_ffmpeg"
	ItemSpeech      = "speech_service"
	ItemTranslation = "translation_service"
	ItemOutputDir   = "output_dir"
	ItemFont        = "export_font"
	ItemMicrophone  = "microphone"
)

// Checker validates external tools, service credentials, and filesystem paths.
type Checker struct {
	lookPath   func(string) (string, error)
	stat       func(string) (os.FileInfo, error)
	mkdirAll   func(string, os.FileMode) error
	createTemp func(string, string) (*os.File, error)
	remove     func(string) error
	checkMic   func() error
}

// NewChecker builds a checker using real OS dependencies.
func NewChecker() *Checker {
	return &Checker{
		lookPath:   exec.LookPath,
		stat:       os.Stat,
		mkdirAll:   os.MkdirAll,
		createTemp: os.CreateTemp,
		remove:     os.Remove,
		checkMic:   capture.CheckInput,
	}
}

// Run executes all checks and returns a combined report.
func (c *Checker) Run(settings domain.Settings, cfg config.AppConfig) domain.DiagnosticReport {
	items := []domain.DiagnosticItem{
		c.checkTool(ItemFFmpeg, cfg.FFmpeg.Path),
		checkService(ItemSpeech, "Speech recognition", cfg.Speech),
		checkService(ItemTranslation, "Translation", cfg.Translation),
		c.checkOutputDir(settings.OutputDir),
		c.checkFont(fontPath(settings, cfg)),
		c.checkMicrophone(),
	}

	return domain.NewDiagnosticReport(time.Now(), items)
}

// fontPath prefers the per-user font over the configured one.
func fontPath(settings domain.Settings, cfg config.AppConfig) string {
	if strings.TrimSpace(settings.FontPath) != "" {
		return settings.FontPath
	}
	return cfg.Export.FontPath
}

// checkTool verifies a required CLI executable is reachable.
func (c *Checker) checkTool(id, name string) domain.DiagnosticItem {
	if strings.TrimSpace(name) == "" {
		name = "ffmpeg"
	}
	path, err := c.lookPath(name)
	if err != nil {
		return domain.DiagnosticItem{
			ID:      id,
			Name:    name,
			Status:  domain.DiagnosticStatusFail,
			Message: fmt.Sprintf("Tool not found in PATH: %s", name),
			Hint:    "Install ffmpeg and ensure the binary is available on PATH. Video input and non-WAV audio need it.",
			Fixable: true,
		}
	}

	return domain.DiagnosticItem{
		ID:      id,
		Name:    name,
		Status:  domain.DiagnosticStatusPass,
		Message: fmt.Sprintf("Found at %s", path),
	}
}

// checkService verifies an API key is configured for the selected provider.
func checkService(id, name string, svc config.ServiceConfig) domain.DiagnosticItem {
	item := domain.DiagnosticItem{ID: id, Name: name}
	if strings.TrimSpace(svc.APIKey) != "" {
		item.Status = domain.DiagnosticStatusPass
		item.Message = fmt.Sprintf("Using %s with a configured API key.", svc.Provider)
		return item
	}

	envVar := config.EnvGoogleKey
	if svc.Provider == config.ProviderOpenAI {
		envVar = config.EnvOpenAIKey
	}
	item.Status = domain.DiagnosticStatusFail
	item.Message = fmt.Sprintf("No API key configured for %s.", svc.Provider)
	item.Hint = fmt.Sprintf("Set %s or api_key in the config file.", envVar)
	return item
}

// checkOutputDir validates output directory existence and write access.
func (c *Checker) checkOutputDir(outputDir string) domain.DiagnosticItem {
	item := domain.DiagnosticItem{
		ID:      ItemOutputDir,
		Name:    "Output directory",
		Fixable: true,
	}

	if strings.TrimSpace(outputDir) == "" {
		item.Status = domain.DiagnosticStatusFail
		item.Message = "Output directory is empty."
		item.Hint = "Set an output directory where transcripts and PDFs can be written."
		return item
	}

	if err := c.mkdirAll(outputDir, 0o755); err != nil {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("Cannot create output directory: %s", outputDir)
		item.Hint = "Choose a writable location or adjust filesystem permissions."
		return item
	}

	tmpFile, err := c.createTemp(outputDir, ".write-check-*")
	if err != nil {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("Output directory is not writable: %s", outputDir)
		item.Hint = "Choose a writable directory for exports."
		return item
	}

	tmpPath := tmpFile.Name()
	_ = tmpFile.Close()
	_ = c.remove(tmpPath)

	item.Status = domain.DiagnosticStatusPass
	item.Fixable = false
	item.Message = fmt.Sprintf("Writable directory: %s", outputDir)
	return item
}

// checkFont warns when PDFs will fall back to a Latin-only core font.
func (c *Checker) checkFont(fontPath string) domain.DiagnosticItem {
	item := domain.DiagnosticItem{ID: ItemFont, Name: "PDF font", Fixable: true}

	if strings.TrimSpace(fontPath) == "" {
		item.Status = domain.DiagnosticStatusWarn
		item.Message = "No Unicode font configured; PDFs use a Latin-only core font."
		item.Hint = "Set export.font_path to a TTF covering the target script (for example Noto Sans Devanagari)."
		return item
	}

	info, err := c.stat(fontPath)
	if err != nil || info.IsDir() {
		item.Status = domain.DiagnosticStatusFail
		if IsNotExist(err) {
			item.Message = fmt.Sprintf("Font file does not exist: %s", fontPath)
		} else {
			item.Message = fmt.Sprintf("Cannot use font file: %s", fontPath)
		}
		item.Hint = "Point export.font_path at a readable .ttf file."
		return item
	}

	item.Status = domain.DiagnosticStatusPass
	item.Fixable = false
	item.Message = fmt.Sprintf("Font file found: %s", fontPath)
	return item
}

// checkMicrophone reports whether live capture can be used.
func (c *Checker) checkMicrophone() domain.DiagnosticItem {
	item := domain.DiagnosticItem{ID: ItemMicrophone, Name: "Microphone"}
	if c.checkMic == nil {
		c.checkMic = capture.CheckInput
	}
	if err := c.checkMic(); err != nil {
		item.Status = domain.DiagnosticStatusWarn
		item.Message = fmt.Sprintf("Live capture unavailable: %v", err)
		item.Hint = "Microphone input still accepts a recorded WAV file."
		return item
	}

	item.Status = domain.DiagnosticStatusPass
	item.Message = "Default input device is available."
	return item
}

// NewCheckerForTests creates checker with injectable dependencies.
func NewCheckerForTests(
	lookPath func(string) (string, error),
	stat func(string) (os.FileInfo, error),
	mkdirAll func(string, os.FileMode) error,
	createTemp func(string, string) (*os.File, error),
	remove func(string) error,
	checkMic func() error,
) *Checker {
	return &Checker{
		lookPath:   lookPath,
		stat:       stat,
		mkdirAll:   mkdirAll,
		createTemp: createTemp,
		remove:     remove,
		checkMic:   checkMic,
	}
}

// IsNotExist reports whether error represents file-not-found.
func IsNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
