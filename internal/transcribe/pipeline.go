package transcribe

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-audio/audio"

	"media-translator/internal/domain"
	"media-translator/internal/logger"
	"media-translator/internal/media"
	"media-translator/internal/speech"
	"media-translator/internal/translate"
)

// Stage names reported through Request.OnStage.
const (
	StagePreprocessing = "preprocessing"
	StageTranscribing  = "transcribing"
	StageTranslating   = "translating"
	StageExporting     = "exporting"
)

// Fixed artifact names inside the output directory.
const (
	TranscriptFileName     = "transcript.txt"
	ExtractedAudioFileName = "temp_audio.wav"
	MicrophoneFileName     = "microphone.wav"
)

// Request contains one input and execution callbacks for one run.
type Request struct {
	Kind                  domain.InputKind
	InputPath             string
	TranscriptionLanguage string
	TranslationLanguage   string
	OutputDir             string
	ChunkLengthMs         int
	OnStage               func(stage string)
	OnLog                 func(line string)
	OnCommand             func(log media.CommandLog)
}

// NewRequest builds a request from a user input and the saved settings.
// Languages on the input override the settings.
func NewRequest(input domain.InputSpec, settings domain.Settings) Request {
	req := Request{
		Kind:                  input.Kind,
		InputPath:             strings.TrimSpace(input.Path),
		TranscriptionLanguage: input.TranscriptionLanguage,
		TranslationLanguage:   input.TranslationLanguage,
		OutputDir:             settings.OutputDir,
		ChunkLengthMs:         settings.ChunkLengthMs,
	}
	if strings.TrimSpace(req.TranscriptionLanguage) == "" {
		req.TranscriptionLanguage = settings.TranscriptionLanguage
	}
	if strings.TrimSpace(req.TranslationLanguage) == "" {
		req.TranslationLanguage = settings.TranslationLanguage
	}
	return req
}

// Result is everything one run produced. Stage failures are listed in
// Failures and narrated in the logs; they never abort the run.
type Result struct {
	Kind           domain.InputKind   `json:"kind"`
	Transcript     string             `json:"transcript"`
	TranscriptPath string             `json:"transcriptPath,omitempty"`
	Log            []string           `json:"log"`
	TranslatedText string             `json:"translatedText"`
	TranslationLog []string           `json:"translationLog"`
	PDFPath        string             `json:"pdfPath,omitempty"`
	PDFLog         []string           `json:"pdfLog"`
	Chunks         int                `json:"chunks"`
	Commands       []media.CommandLog `json:"commands,omitempty"`
	Failures       []*PipelineError   `json:"failures,omitempty"`
}

// TranslationResult is the outcome of a standalone translate action.
type TranslationResult struct {
	Text    string         `json:"text"`
	Log     []string       `json:"log"`
	Failure *PipelineError `json:"failure,omitempty"`
}

// PipelineError is a stage-aware failure with optional command context.
type PipelineError struct {
	Stage      string             `json:"stage"`
	Kind       domain.FailureKind `json:"kind"`
	Message    string             `json:"message"`
	CommandLog media.CommandLog   `json:"commandLog"`
	Err        error              `json:"-"`
}

// Error formats pipeline failures for logs and UI.
func (e *PipelineError) Error() string {
	if e == nil {
		return ""
	}
	if e.CommandLog.Command == "" {
		return fmt.Sprintf("%s: %s", e.Stage, e.Message)
	}
	return fmt.Sprintf("%s: %s (cmd=%s exit=%d)", e.Stage, e.Message, e.CommandLog.Command, e.CommandLog.ExitCode)
}

// Unwrap exposes underlying error for errors.Is / errors.As.
func (e *PipelineError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// AudioConverter turns media files into PCM WAV.
type AudioConverter interface {
	ExtractAudio(ctx context.Context, videoPath, outPath string) (media.CommandLog, error)
	Normalize(ctx context.Context, audioPath, outPath string) (media.CommandLog, error)
}

// DocumentExtractor reads the text of a document.
type DocumentExtractor interface {
	Extract(path string) (string, error)
}

// PDFExporter renders text into PDF files.
type PDFExporter interface {
	Export(outputDir, text string) (string, error)
	WriteFile(text, path string) error
}

// Listener records one spoken phrase from a live input.
type Listener interface {
	Listen(ctx context.Context) (speech.Recording, error)
}

// Dependencies are the collaborators a Pipeline sequences.
// Listener is optional; without it microphone input must be a recorded file.
type Dependencies struct {
	Recognizer speech.Recognizer
	Translator translate.Translator
	Converter  AudioConverter
	Documents  DocumentExtractor
	Exporter   PDFExporter
	Listener   Listener
	Logger     *logger.Logger
}

// Pipeline sequences extraction, recognition, translation, and export.
type Pipeline struct {
	recognizer speech.Recognizer
	translator translate.Translator
	converter  AudioConverter
	documents  DocumentExtractor
	exporter   PDFExporter
	listener   Listener
	log        *logger.Logger

	stat      func(name string) (os.FileInfo, error)
	mkdirAll  func(path string, perm os.FileMode) error
	mkdirTemp func(dir, pattern string) (string, error)
	removeAll func(path string) error
	remove    func(name string) error
	writeFile func(name string, data []byte, perm os.FileMode) error
	readWAV   func(path string) (*audio.IntBuffer, error)
	writeWAV  func(path string, buf *audio.IntBuffer) error
}

// NewPipeline constructs the production pipeline with OS dependencies.
func NewPipeline(deps Dependencies) *Pipeline {
	log := deps.Logger
	if log == nil {
		log = logger.NewNop()
	}
	return &Pipeline{
		recognizer: deps.Recognizer,
		translator: deps.Translator,
		converter:  deps.Converter,
		documents:  deps.Documents,
		exporter:   deps.Exporter,
		listener:   deps.Listener,
		log:        log.Named("pipeline"),
		stat:       os.Stat,
		mkdirAll:   os.MkdirAll,
		mkdirTemp:  os.MkdirTemp,
		removeAll:  os.RemoveAll,
		remove:     os.Remove,
		writeFile:  os.WriteFile,
		readWAV:    media.ReadWAV,
		writeWAV:   media.WriteWAV,
	}
}

// Run processes one input. The returned error is non-nil only when ctx is
// cancelled, in which case the partial result is returned with it.
func (p *Pipeline) Run(ctx context.Context, req Request) (Result, error) {
	req = normalizeRequest(req)
	r := &run{p: p, req: req, res: &Result{Kind: req.Kind}}
	p.log.Info("run started",
		logger.String("kind", string(req.Kind)),
		logger.String("input", req.InputPath),
		logger.String("from", req.TranscriptionLanguage),
		logger.String("to", req.TranslationLanguage),
	)

	text, err := r.produceText(ctx)
	if err != nil {
		return *r.res, err
	}
	r.res.Transcript = text
	r.persistTranscript()

	if strings.TrimSpace(text) == "" {
		p.log.Info("empty transcript, skipping translation")
		return *r.res, nil
	}
	if err := ctx.Err(); err != nil {
		return *r.res, err
	}

	translated, err := r.translate(ctx, text)
	if err != nil {
		return *r.res, err
	}
	r.res.TranslatedText = translated
	if translated == "" {
		return *r.res, nil
	}
	if err := ctx.Err(); err != nil {
		return *r.res, err
	}

	r.exportPDF(translated)
	p.log.Info("run finished",
		logger.Int("chunks", r.res.Chunks),
		logger.Int("failures", len(r.res.Failures)),
		logger.String("pdf", r.res.PDFPath),
	)
	return *r.res, nil
}

// Translate runs the translation stage alone over caller-supplied text.
func (p *Pipeline) Translate(ctx context.Context, text, language string) TranslationResult {
	r := &run{p: p, req: Request{TranslationLanguage: domain.ResolveTranslationLanguage(language)}, res: &Result{}}
	if strings.TrimSpace(text) == "" {
		r.translationLog("No text available to translate.")
		return TranslationResult{Log: r.res.TranslationLog}
	}

	translated, _ := r.translate(ctx, text)
	out := TranslationResult{Text: translated, Log: r.res.TranslationLog}
	if len(r.res.Failures) > 0 {
		out.Failure = r.res.Failures[0]
	}
	return out
}

// SavePDF renders text to a caller-chosen path and returns the log lines.
func (p *Pipeline) SavePDF(text, path string) ([]string, error) {
	if err := p.exporter.WriteFile(text, path); err != nil {
		if errors.Is(err, domain.ErrNoText) {
			return []string{"No text available to save."}, err
		}
		return []string{fmt.Sprintf("Failed to save PDF: %v", err)}, err
	}
	return []string{fmt.Sprintf("Text saved as PDF: %s", path)}, nil
}

// normalizeRequest resolves languages and fills defaults.
func normalizeRequest(req Request) Request {
	req.InputPath = strings.TrimSpace(req.InputPath)
	req.TranscriptionLanguage = domain.ResolveTranscriptionLanguage(req.TranscriptionLanguage)
	req.TranslationLanguage = domain.ResolveTranslationLanguage(req.TranslationLanguage)
	if strings.TrimSpace(req.OutputDir) == "" {
		req.OutputDir = "transcripts"
	}
	if req.ChunkLengthMs <= 0 {
		req.ChunkLengthMs = media.DefaultChunkMs
	}
	return req
}

// emitStage forwards stage updates when callback is configured.
func emitStage(cb func(stage string), stage string) {
	if cb != nil {
		cb(stage)
	}
}
