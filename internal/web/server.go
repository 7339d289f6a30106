// Package web serves the browser front end and its JSON API.
package web

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"media-translator/internal/config"
	"media-translator/internal/domain"
	"media-translator/internal/export"
	"media-translator/internal/jobs"
	"media-translator/internal/logger"
	"media-translator/internal/transcribe"
)

//go:embed static
var staticFiles embed.FS

// TextService runs the standalone translate and save actions.
type TextService interface {
	Translate(ctx context.Context, text, language string) transcribe.TranslationResult
	SavePDF(text, path string) ([]string, error)
}

// Options configures a Server.
type Options struct {
	Config   config.ServerConfig
	Settings domain.Settings
	Runner   *jobs.Runner
	Text     TextService
	Diagnose func(domain.Settings) domain.DiagnosticReport
	Logger   *logger.Logger
}

// Server exposes job control, events, and artifacts over HTTP.
type Server struct {
	cfg         config.ServerConfig
	settings    domain.Settings
	runner      *jobs.Runner
	text        TextService
	diagnose    func(domain.Settings) domain.DiagnosticReport
	log         *logger.Logger
	hub         *Hub
	middleware  *Middleware
	unsubscribe func()
}

// NewServer wires the hub to the runner's event bus.
func NewServer(opts Options) *Server {
	log := opts.Logger
	if log == nil {
		log = logger.NewNop()
	}
	cfg := opts.Config
	if cfg.MaxUploadMB <= 0 {
		cfg.MaxUploadMB = config.DefaultAppConfig().Server.MaxUploadMB
	}
	if strings.TrimSpace(cfg.UploadDir) == "" {
		cfg.UploadDir = config.DefaultAppConfig().Server.UploadDir
	}

	s := &Server{
		cfg:        cfg,
		settings:   config.NormalizeSettings(opts.Settings),
		runner:     opts.Runner,
		text:       opts.Text,
		diagnose:   opts.Diagnose,
		log:        log.Named("web"),
		middleware: NewMiddleware(log),
	}
	s.hub = NewHub(log, cfg.AllowedOrigins, s.runner.Since)
	s.unsubscribe = s.runner.Events().Subscribe(s.hub.Broadcast)
	return s
}

// Close detaches the hub from the event bus.
func (s *Server) Close() {
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
}

// Routes returns the HTTP handler tree.
func (s *Server) Routes() http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(s.middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(s.middleware.CORS(s.cfg.AllowedOrigins))

	router.Get("/health", s.handleHealth)

	router.Route("/api", func(router chi.Router) {
		router.Get("/languages", s.handleLanguages)
		router.Get("/diagnostics", s.handleDiagnostics)

		router.Post("/jobs", s.handleStartJob)
		router.Get("/jobs/current", s.handleCurrentJob)
		router.Delete("/jobs/current", s.handleCancelJob)
		router.Get("/jobs/current/result", s.handleResult)

		router.Get("/events", s.handleEvents)
		router.Get("/ws", s.hub.ServeHTTP)

		router.Get("/artifacts/{name}", s.handleArtifact)

		router.Post("/translate", s.handleTranslate)
		router.Post("/pdf", s.handleRenderPDF)
	})

	static, _ := fs.Sub(staticFiles, "static")
	router.Handle("/*", http.FileServer(http.FS(static)))

	return router
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("listening", logger.String("addr", s.cfg.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.runner.Cancel(); err != nil && !errors.Is(err, jobs.ErrNoRunningJob) {
		s.log.Warn("cancel running job", logger.Error(err))
	}
	s.Close()
	return srv.Shutdown(shutdownCtx)
}

type errorResponse struct {
	Error string `json:"error"`
}

type translateRequest struct {
	Text     string `json:"text"`
	Language string `json:"language"`
}

type pdfRequest struct {
	Text string `json:"text"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"job":    s.runner.Current(),
	})
}

func (s *Server) handleLanguages(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, domain.Languages())
}

func (s *Server) handleDiagnostics(w http.ResponseWriter, r *http.Request) {
	if s.diagnose == nil {
		writeError(w, http.StatusNotImplemented, "diagnostics are not configured")
		return
	}
	writeJSON(w, http.StatusOK, s.diagnose(s.settings))
}

// handleStartJob accepts a multipart upload and starts processing it.
func (s *Server) handleStartJob(w http.ResponseWriter, r *http.Request) {
	maxBytes := s.cfg.MaxUploadMB << 20
	if r.ContentLength > maxBytes {
		writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("upload exceeds %d MB", s.cfg.MaxUploadMB))
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("upload exceeds %d MB", s.cfg.MaxUploadMB))
			return
		}
		writeError(w, http.StatusBadRequest, "invalid multipart form: "+err.Error())
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	kind, ok := domain.ParseInputKind(r.FormValue("kind"))
	if !ok {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unsupported input kind %q", r.FormValue("kind")))
		return
	}

	input := domain.InputSpec{
		Kind:                  kind,
		TranscriptionLanguage: r.FormValue("transcriptionLanguage"),
		TranslationLanguage:   r.FormValue("translationLanguage"),
	}

	upload, header, err := r.FormFile("file")
	switch {
	case err == nil:
		defer upload.Close()
		path, saveErr := s.saveUpload(upload, header.Filename)
		if saveErr != nil {
			s.log.Error("save upload", logger.Error(saveErr))
			writeError(w, http.StatusInternalServerError, "could not store upload")
			return
		}
		input.Path = path
	case errors.Is(err, http.ErrMissingFile) && kind == domain.InputKindMicrophone:
		// No recording: the server listens on its own input device.
	default:
		writeError(w, http.StatusBadRequest, "file is required")
		return
	}

	job, err := s.runner.Start(input, s.settings)
	if err != nil {
		s.removeUpload(input.Path)
		if errors.Is(err, jobs.ErrJobAlreadyRunning) {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if input.Path != "" {
		go s.removeUploadWhenDone(input.Path)
	}
	writeJSON(w, http.StatusAccepted, job)
}

func (s *Server) handleCurrentJob(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.runner.Current())
}

func (s *Server) handleCancelJob(w http.ResponseWriter, r *http.Request) {
	if err := s.runner.Cancel(); err != nil {
		if errors.Is(err, jobs.ErrNoRunningJob) {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.runner.Current())
}

func (s *Server) handleResult(w http.ResponseWriter, r *http.Request) {
	result, ok := s.runner.LastResult()
	if !ok {
		writeError(w, http.StatusNotFound, "no job has finished yet")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	since := int64(0)
	if raw := r.URL.Query().Get("since"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "since must be an integer")
			return
		}
		since = parsed
	}
	events := s.runner.Since(since)
	if events == nil {
		events = []jobs.Event{}
	}
	writeJSON(w, http.StatusOK, events)
}

// handleArtifact downloads the transcript or PDF of the last finished job.
func (s *Server) handleArtifact(w http.ResponseWriter, r *http.Request) {
	result, ok := s.runner.LastResult()
	if !ok {
		writeError(w, http.StatusNotFound, "no job has finished yet")
		return
	}

	var path, contentType string
	switch chi.URLParam(r, "name") {
	case "transcript":
		path, contentType = result.TranscriptPath, "text/plain; charset=utf-8"
	case "pdf":
		path, contentType = result.PDFPath, "application/pdf"
	default:
		writeError(w, http.StatusNotFound, "unknown artifact")
		return
	}
	if path == "" {
		writeError(w, http.StatusNotFound, "artifact was not produced")
		return
	}

	file, err := os.Open(path)
	if err != nil {
		writeError(w, http.StatusNotFound, "artifact is no longer available")
		return
	}
	defer file.Close()
	info, err := file.Stat()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filepath.Base(path)))
	http.ServeContent(w, r, filepath.Base(path), info.ModTime(), file)
}

func (s *Server) handleTranslate(w http.ResponseWriter, r *http.Request) {
	var req translateRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 4<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	language := req.Language
	if strings.TrimSpace(language) == "" {
		language = s.settings.TranslationLanguage
	}
	writeJSON(w, http.StatusOK, s.text.Translate(r.Context(), req.Text, language))
}

// handleRenderPDF renders edited text and returns the PDF bytes.
func (s *Server) handleRenderPDF(w http.ResponseWriter, r *http.Request) {
	var req pdfRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 4<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	dir, err := os.MkdirTemp("", "media-translator-pdf-*")
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, export.DefaultFileName)
	lines, err := s.text.SavePDF(req.Text, path)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, domain.ErrNoText) {
			status = http.StatusBadRequest
		}
		writeError(w, status, strings.Join(lines, " "))
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.DefaultFileName))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// saveUpload stores an upload under a random name, keeping its extension.
func (s *Server) saveUpload(src io.Reader, filename string) (string, error) {
	if err := os.MkdirAll(s.cfg.UploadDir, 0o755); err != nil {
		return "", err
	}
	ext := strings.ToLower(filepath.Ext(filename))
	path := filepath.Join(s.cfg.UploadDir, uuid.NewString()+ext)

	dst, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		_ = os.Remove(path)
		return "", err
	}
	if err := dst.Close(); err != nil {
		_ = os.Remove(path)
		return "", err
	}
	return path, nil
}

func (s *Server) removeUploadWhenDone(path string) {
	_ = s.runner.Wait(context.Background())
	s.removeUpload(path)
}

func (s *Server) removeUpload(path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		s.log.Warn("remove upload", logger.String("path", path), logger.Error(err))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}
