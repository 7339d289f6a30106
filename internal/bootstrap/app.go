package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	goruntime "runtime"
	"strings"
	"sync"

	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"

	"media-translator/internal/config"
	"media-translator/internal/domain"
	"media-translator/internal/export"
	"media-translator/internal/jobs"
	"media-translator/internal/logger"
	"media-translator/internal/services"
	"media-translator/internal/transcribe"

	wailsruntime "github.com/wailsapp/wails/v2/pkg/runtime"
)

var allFilesFilter = wailsruntime.FileFilter{DisplayName: "All files", Pattern: "*"}

var inputDialogFilters = map[domain.InputKind][]wailsruntime.FileFilter{
	domain.InputKindAudio: {
		{DisplayName: "Audio files", Pattern: "*.wav;*.mp3;*.m4a;*.flac;*.aac;*.ogg"},
		allFilesFilter,
	},
	domain.InputKindVideo: {
		{DisplayName: "Video files", Pattern: "*.mp4;*.mov;*.mkv;*.avi;*.webm"},
		allFilesFilter,
	},
	domain.InputKindDocument: {
		{DisplayName: "Documents", Pattern: "*.pdf;*.docx"},
		allFilesFilter,
	},
	domain.InputKindMicrophone: {
		{DisplayName: "Recorded speech", Pattern: "*.wav"},
		allFilesFilter,
	},
}

var fontDialogFilter = []wailsruntime.FileFilter{
	{DisplayName: "TrueType fonts", Pattern: "*.ttf"},
	allFilesFilter,
}

var pdfDialogFilter = []wailsruntime.FileFilter{
	{DisplayName: "PDF files", Pattern: "*.pdf"},
}

// textService runs the standalone translate and save actions.
type textService interface {
	Translate(ctx context.Context, text, language string) transcribe.TranslationResult
	SavePDF(text, path string) ([]string, error)
}

// SaveResult reports where a PDF was written and the log lines produced.
type SaveResult struct {
	Path string   `json:"path"`
	Log  []string `json:"log"`
}

// App wires configuration, jobs, pipeline, and UI runtime callbacks.
type App struct {
	Store       config.Store
	Runner      *jobs.Runner
	Text        textService
	Diagnostics domain.DiagnosticReport

	appDir        string
	assets        fs.FS
	log           *logger.Logger
	diagnose      func(domain.Settings) domain.DiagnosticReport
	apply         func(domain.Settings)
	download      downloadFunc
	installFFmpeg func(context.Context) error

	mu          sync.Mutex
	settings    domain.Settings
	runtimeCtx  context.Context
	unsubscribe func()
}

// New builds the application with persisted settings and startup diagnostics.
func New() (*App, error) {
	return NewWithAssets(nil)
}

// NewWithAssets builds the application and optionally configures embedded frontend assets.
func NewWithAssets(assets fs.FS) (*App, error) {
	appDir := config.AppDir()
	if err := ensureLocalBinOnPATH(appDir); err != nil {
		return nil, fmt.Errorf("prepare local tool path: %w", err)
	}

	cfg, err := config.LoadAppConfig(config.ResolveConfigPath(""))
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	log, err := logger.New(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}

	svc, err := services.Build(context.Background(), cfg, log)
	if err != nil {
		return nil, err
	}

	store := config.NewJSONStore(config.DefaultSettingsPath())
	settings, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	log.Debug("settings loaded", logger.String("path", store.Path()))

	app := newApp(store, svc.Runner, svc.Pipeline, log.Named("desktop"))
	app.appDir = appDir
	app.assets = assets
	app.diagnose = svc.Diagnose
	app.apply = svc.ApplySettings
	app.refreshDiagnosticsFromSettings(settings)
	return app, nil
}

// newApp holds the wiring shared by NewWithAssets and tests.
func newApp(store config.Store, runner *jobs.Runner, text textService, log *logger.Logger) *App {
	if log == nil {
		log = logger.NewNop()
	}
	return &App{
		Store:         store,
		Runner:        runner,
		Text:          text,
		log:           log,
		download:      newFontFetcher().Fetch,
		installFFmpeg: newToolInstaller(log).InstallFFmpeg,
	}
}

// Run starts the Wails desktop application and binds backend methods.
func (a *App) Run() error {
	assetOptions := &assetserver.Options{}
	if a.assets != nil {
		assetOptions.Assets = a.assets
	} else {
		assetOptions.Handler = http.FileServer(http.Dir("./frontend"))
	}

	defer func() { _ = a.log.Sync() }()
	return wails.Run(&options.App{
		Title:       "Media Translator",
		Width:       1180,
		Height:      780,
		AssetServer: assetOptions,
		OnStartup:   a.Startup,
		OnShutdown:  a.Shutdown,
		Bind:        []interface{}{a},
	})
}

// Startup stores Wails runtime context and forwards job events to the UI.
func (a *App) Startup(ctx context.Context) {
	unsubscribe := a.Runner.Events().Subscribe(func(event jobs.Event) {
		a.mu.Lock()
		runtimeCtx := a.runtimeCtx
		a.mu.Unlock()
		if runtimeCtx != nil {
			wailsruntime.EventsEmit(runtimeCtx, "job:event", event)
		}
	})

	a.mu.Lock()
	defer a.mu.Unlock()
	a.runtimeCtx = ctx
	a.unsubscribe = unsubscribe
}

// Shutdown stops event forwarding and cancels any running job.
func (a *App) Shutdown(context.Context) {
	a.mu.Lock()
	unsubscribe := a.unsubscribe
	a.runtimeCtx = nil
	a.unsubscribe = nil
	a.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	if err := a.Runner.Cancel(); err != nil && !errors.Is(err, jobs.ErrNoRunningJob) {
		a.log.Warn("cancel on shutdown", logger.Error(err))
	}
}

// GetLanguages returns the transcription and translation language tables.
func (a *App) GetLanguages() domain.LanguageCatalog {
	return domain.Languages()
}

// GetDiagnostics returns the latest cached diagnostics report.
func (a *App) GetDiagnostics() domain.DiagnosticReport {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.Diagnostics
}

// GetSettings loads and returns the latest persisted settings.
func (a *App) GetSettings() (domain.Settings, error) {
	settings, err := a.loadSettings()
	if err != nil {
		return domain.Settings{}, fmt.Errorf("load settings: %w", err)
	}

	a.mu.Lock()
	a.settings = settings
	a.mu.Unlock()

	return settings, nil
}

// SaveSettings normalizes and persists settings, then refreshes diagnostics.
func (a *App) SaveSettings(settings domain.Settings) (domain.Settings, error) {
	normalized := config.NormalizeSettings(settings)
	if err := a.Store.Save(normalized); err != nil {
		return domain.Settings{}, fmt.Errorf("save settings: %w", err)
	}

	a.refreshDiagnosticsFromSettings(normalized)
	return normalized, nil
}

// RefreshDiagnostics reloads settings and reruns dependency checks.
func (a *App) RefreshDiagnostics() (domain.DiagnosticReport, error) {
	settings, err := a.loadSettings()
	if err != nil {
		return domain.DiagnosticReport{}, fmt.Errorf("load settings: %w", err)
	}
	return a.refreshDiagnosticsFromSettings(settings), nil
}

// PickInputFile opens a native file dialog filtered for one input kind.
func (a *App) PickInputFile(kind string) (string, error) {
	inputKind, ok := domain.ParseInputKind(kind)
	if !ok {
		return "", fmt.Errorf("unsupported input kind %q", kind)
	}
	ctx, err := a.runtimeContext()
	if err != nil {
		return "", err
	}

	path, err := wailsruntime.OpenFileDialog(ctx, wailsruntime.OpenDialogOptions{
		Title:   fmt.Sprintf("Select %s file", inputKind),
		Filters: inputDialogFilters[inputKind],
	})
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(path), nil
}

// PickFontFile opens a native file dialog for a TrueType font.
func (a *App) PickFontFile() (string, error) {
	ctx, err := a.runtimeContext()
	if err != nil {
		return "", err
	}

	path, err := wailsruntime.OpenFileDialog(ctx, wailsruntime.OpenDialogOptions{
		Title:   "Select PDF font",
		Filters: fontDialogFilter,
	})
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(path), nil
}

// PickOutputDirectory opens a native directory picker for transcripts and PDFs.
func (a *App) PickOutputDirectory() (string, error) {
	ctx, err := a.runtimeContext()
	if err != nil {
		return "", err
	}

	path, err := wailsruntime.OpenDirectoryDialog(ctx, wailsruntime.OpenDialogOptions{
		Title: "Select output directory",
	})
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(path), nil
}

// OpenOutputFolder opens the given path (or configured output dir) in file manager.
func (a *App) OpenOutputFolder(path string) error {
	target := strings.TrimSpace(path)
	if target == "" {
		a.mu.Lock()
		target = a.settings.OutputDir
		a.mu.Unlock()
	}
	if target == "" {
		return fmt.Errorf("output path is empty")
	}

	info, err := os.Stat(target)
	if err != nil {
		return fmt.Errorf("resolve output path: %w", err)
	}

	openPath := target
	if !info.IsDir() {
		openPath = filepath.Dir(target)
	}

	return openInFileManager(openPath)
}

// StartProcessing creates a job for one input and runs it asynchronously.
func (a *App) StartProcessing(input domain.InputSpec) (domain.Job, error) {
	settings, err := a.loadSettings()
	if err != nil {
		return domain.Job{}, fmt.Errorf("load settings: %w", err)
	}
	if a.apply != nil {
		a.apply(settings)
	}

	a.mu.Lock()
	a.settings = settings
	a.mu.Unlock()

	return a.Runner.Start(input, settings)
}

// CancelProcessing cancels the currently running job, if any.
func (a *App) CancelProcessing() error {
	return a.Runner.Cancel()
}

// CurrentJob returns current job metadata and status.
func (a *App) CurrentJob() domain.Job {
	return a.Runner.Current()
}

// JobEvents returns all events with sequence greater than sinceSeq.
func (a *App) JobEvents(sinceSeq int64) []jobs.Event {
	return a.Runner.Since(sinceSeq)
}

// LastResult returns the artifacts of the most recent finished job.
func (a *App) LastResult() (transcribe.Result, error) {
	result, ok := a.Runner.LastResult()
	if !ok {
		return transcribe.Result{}, fmt.Errorf("no job has finished yet")
	}
	return result, nil
}

// TranslateText translates edited text without running a whole job.
func (a *App) TranslateText(text, language string) transcribe.TranslationResult {
	return a.Text.Translate(context.Background(), text, language)
}

// SavePDFAs asks for a destination and renders text there.
func (a *App) SavePDFAs(text string) (SaveResult, error) {
	ctx, err := a.runtimeContext()
	if err != nil {
		return SaveResult{}, err
	}

	a.mu.Lock()
	outputDir := a.settings.OutputDir
	a.mu.Unlock()

	path, err := wailsruntime.SaveFileDialog(ctx, wailsruntime.SaveDialogOptions{
		Title:            "Save PDF",
		DefaultDirectory: outputDir,
		DefaultFilename:  export.DefaultFileName,
		Filters:          pdfDialogFilter,
	})
	if err != nil {
		return SaveResult{}, err
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return SaveResult{}, nil
	}
	return a.SavePDF(text, path)
}

// SavePDF renders text to path.
func (a *App) SavePDF(text, path string) (SaveResult, error) {
	lines, err := a.Text.SavePDF(text, path)
	if err != nil {
		return SaveResult{Log: lines}, err
	}
	return SaveResult{Path: path, Log: lines}, nil
}

// runtimeContext returns current Wails runtime context for dialog APIs.
func (a *App) runtimeContext() (context.Context, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.runtimeCtx == nil {
		return nil, fmt.Errorf("runtime context is not initialized")
	}
	return a.runtimeCtx, nil
}

// openInFileManager launches the platform file explorer for the provided path.
func openInFileManager(path string) error {
	var cmd *exec.Cmd
	switch goruntime.GOOS {
	case "darwin":
		cmd = exec.Command("open", path)
	case "windows":
		cmd = exec.Command("explorer", filepath.Clean(path))
	default:
		cmd = exec.Command("xdg-open", path)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("launch file manager: %w", err)
	}
	return nil
}
