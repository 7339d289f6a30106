package transcribe

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-audio/audio"

	"media-translator/internal/domain"
	"media-translator/internal/logger"
	"media-translator/internal/media"
	"media-translator/internal/speech"
)

// run carries the mutable state of a single Pipeline.Run call.
type run struct {
	p   *Pipeline
	req Request
	res *Result
}

// preparedAudio is a decoded PCM waveform and the file it was read from.
type preparedAudio struct {
	path    string
	buf     *audio.IntBuffer
	cleanup func()
}

func (r *run) logf(format string, args ...any) {
	line := fmt.Sprintf(format, args...)
	r.res.Log = append(r.res.Log, line)
	if r.req.OnLog != nil {
		r.req.OnLog(line)
	}
}

func (r *run) translationLog(line string) {
	r.res.TranslationLog = append(r.res.TranslationLog, line)
	if r.req.OnLog != nil {
		r.req.OnLog(line)
	}
}

func (r *run) pdfLog(line string) {
	r.res.PDFLog = append(r.res.PDFLog, line)
	if r.req.OnLog != nil {
		r.req.OnLog(line)
	}
}

func (r *run) command(log media.CommandLog) {
	if log.Command == "" {
		return
	}
	r.res.Commands = append(r.res.Commands, log)
	if r.req.OnCommand != nil {
		r.req.OnCommand(log)
	}
}

// fail records a stage failure; it never stops the run by itself.
func (r *run) fail(stage, message string, err error, cmd media.CommandLog) {
	pErr := &PipelineError{
		Stage:      stage,
		Kind:       domain.KindOf(err),
		Message:    message,
		CommandLog: cmd,
		Err:        err,
	}
	r.res.Failures = append(r.res.Failures, pErr)
	r.p.log.Warn("stage failed",
		logger.String("stage", stage),
		logger.String("kind", string(pErr.Kind)),
		logger.Error(err),
	)
}

// produceText turns the input into a transcript. Only cancellation is
// returned as an error; every other failure yields an empty transcript.
func (r *run) produceText(ctx context.Context) (string, error) {
	if r.req.Kind == domain.InputKindMicrophone && r.req.InputPath == "" && r.p.listener != nil {
		return r.fromMicrophone(ctx)
	}

	if r.req.InputPath == "" {
		r.logf("Please provide a valid input file.")
		r.fail(StagePreprocessing, "no input file", fmt.Errorf("%w: no input file", domain.ErrIO), media.CommandLog{})
		return "", nil
	}
	if info, err := r.p.stat(r.req.InputPath); err != nil || info.IsDir() {
		if err == nil {
			err = fmt.Errorf("%s is a directory", r.req.InputPath)
		}
		r.logf("Please provide a valid input file.")
		r.fail(StagePreprocessing, "input file unavailable", fmt.Errorf("%w: %v", domain.ErrIO, err), media.CommandLog{})
		return "", nil
	}

	switch r.req.Kind {
	case domain.InputKindDocument:
		return r.fromDocument()
	case domain.InputKindVideo:
		return r.fromVideo(ctx)
	case domain.InputKindAudio:
		return r.fromAudio(ctx)
	case domain.InputKindMicrophone:
		return r.fromRecordedPhrase(ctx)
	default:
		r.logf("Unsupported input type: %s", r.req.Kind)
		r.fail(StagePreprocessing, "unsupported input type", fmt.Errorf("%w: input type %q", domain.ErrUnsupportedFormat, r.req.Kind), media.CommandLog{})
		return "", nil
	}
}

func (r *run) fromDocument() (string, error) {
	emitStage(r.req.OnStage, StagePreprocessing)
	if r.p.documents == nil {
		r.logf("Error occurred: no document extractor configured")
		r.fail(StagePreprocessing, "no document extractor", errors.New("no document extractor configured"), media.CommandLog{})
		return "", nil
	}

	text, err := r.p.documents.Extract(r.req.InputPath)
	switch {
	case err == nil:
		r.logf("Document processed successfully.")
		return text, nil
	case errors.Is(err, domain.ErrUnsupportedFormat):
		r.logf("Unsupported document format.")
		r.fail(StagePreprocessing, "unsupported document format", err, media.CommandLog{})
	default:
		r.logf("Error occurred: %v", err)
		r.fail(StagePreprocessing, "document extraction failed", err, media.CommandLog{})
	}
	return "", nil
}

func (r *run) fromVideo(ctx context.Context) (string, error) {
	emitStage(r.req.OnStage, StagePreprocessing)
	if !r.ensureOutputDir(StagePreprocessing) {
		return "", nil
	}

	outPath := filepath.Join(r.req.OutputDir, ExtractedAudioFileName)
	cmdLog, err := r.p.converter.ExtractAudio(ctx, r.req.InputPath, outPath)
	r.command(cmdLog)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		r.logf("An error occurred while extracting audio: %v", err)
		r.fail(StagePreprocessing, "audio extraction failed", err, cmdLog)
		return "", nil
	}
	r.logf("Audio extracted and saved to %s", outPath)

	buf, err := r.p.readWAV(outPath)
	if err != nil {
		r.logf("Error occurred: %v", err)
		r.fail(StagePreprocessing, "extracted audio unreadable", fmt.Errorf("%w: %v", domain.ErrIO, err), cmdLog)
		return "", nil
	}
	return r.transcribeChunks(ctx, buf)
}

func (r *run) fromAudio(ctx context.Context) (string, error) {
	emitStage(r.req.OnStage, StagePreprocessing)
	prepared, ok, err := r.prepareAudio(ctx, r.req.InputPath)
	if err != nil || !ok {
		return "", err
	}
	defer prepared.cleanup()
	return r.transcribeChunks(ctx, prepared.buf)
}

// prepareAudio decodes path directly when it is already 16-bit mono PCM at
// 16 kHz or less. Anything else is normalized with ffmpeg into a scoped temp
// directory.
func (r *run) prepareAudio(ctx context.Context, path string) (preparedAudio, bool, error) {
	noop := func() {}
	buf, err := r.p.readWAV(path)
	if err == nil {
		if err = media.SpeechReady(buf); err == nil {
			return preparedAudio{path: path, buf: buf, cleanup: noop}, true, nil
		}
		r.p.log.Debug("audio needs conversion", logger.String("path", path), logger.Error(err))
	}
	if !errors.Is(err, media.ErrNotPCM) && !errors.Is(err, media.ErrNeedsConversion) {
		r.logf("Error occurred: %v", err)
		r.fail(StagePreprocessing, "audio unreadable", fmt.Errorf("%w: %v", domain.ErrIO, err), media.CommandLog{})
		return preparedAudio{}, false, nil
	}

	tempDir, err := r.p.mkdirTemp("", "media-translator-*")
	if err != nil {
		r.logf("Error occurred: %v", err)
		r.fail(StagePreprocessing, "failed to create temp dir", fmt.Errorf("%w: %v", domain.ErrIO, err), media.CommandLog{})
		return preparedAudio{}, false, nil
	}
	cleanup := func() {
		if rmErr := r.p.removeAll(tempDir); rmErr != nil {
			r.p.log.Warn("temp cleanup failed", logger.String("dir", tempDir), logger.Error(rmErr))
		}
	}

	outPath := filepath.Join(tempDir, "normalized.wav")
	cmdLog, err := r.p.converter.Normalize(ctx, path, outPath)
	r.command(cmdLog)
	if err != nil {
		cleanup()
		if ctxErr := ctx.Err(); ctxErr != nil {
			return preparedAudio{}, false, ctxErr
		}
		r.logf("Error occurred: %v", err)
		r.fail(StagePreprocessing, "audio conversion failed", fmt.Errorf("%w: %v", domain.ErrUnsupportedFormat, err), cmdLog)
		return preparedAudio{}, false, nil
	}

	buf, err = r.p.readWAV(outPath)
	if err != nil {
		cleanup()
		r.logf("Error occurred: %v", err)
		r.fail(StagePreprocessing, "converted audio unreadable", fmt.Errorf("%w: %v", domain.ErrIO, err), cmdLog)
		return preparedAudio{}, false, nil
	}
	return preparedAudio{path: outPath, buf: buf, cleanup: cleanup}, true, nil
}

// transcribeChunks recognizes buf chunk by chunk and joins the texts in
// chunk order. Unintelligible or unavailable chunks are skipped.
func (r *run) transcribeChunks(ctx context.Context, buf *audio.IntBuffer) (string, error) {
	emitStage(r.req.OnStage, StageTranscribing)
	chunks := media.Split(buf, r.req.ChunkLengthMs)
	r.res.Chunks = len(chunks)
	r.logf("Audio split into %d chunks for processing...", len(chunks))
	if len(chunks) == 0 || !r.ensureOutputDir(StageTranscribing) {
		return "", nil
	}

	var written []string
	defer func() {
		for _, path := range written {
			if err := r.p.remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
				r.p.log.Warn("chunk cleanup failed", logger.String("path", path), logger.Error(err))
			}
		}
	}()

	texts := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		n := chunk.Index + 1
		r.logf("Processing chunk %d...", n)

		path := filepath.Join(r.req.OutputDir, fmt.Sprintf("chunk_%d.wav", chunk.Index))
		if err := r.p.writeWAV(path, chunk.Buffer); err != nil {
			r.logf("Error occurred: %v", err)
			r.fail(StageTranscribing, fmt.Sprintf("chunk %d could not be written", n), fmt.Errorf("%w: %v", domain.ErrIO, err), media.CommandLog{})
			return "", nil
		}
		written = append(written, path)

		text, err := r.recognize(ctx, path, chunk.Buffer)
		switch {
		case err == nil:
			texts = append(texts, text)
			r.logf("Chunk %d transcription complete.", n)
		case ctx.Err() != nil:
			return "", ctx.Err()
		case errors.Is(err, domain.ErrUnintelligible):
			r.logf("Chunk %d: Could not understand audio.", n)
			r.fail(StageTranscribing, fmt.Sprintf("chunk %d unintelligible", n), err, media.CommandLog{})
		case errors.Is(err, domain.ErrServiceUnavailable):
			r.logf("Chunk %d: Speech Recognition service unavailable.", n)
			r.fail(StageTranscribing, fmt.Sprintf("chunk %d service unavailable", n), err, media.CommandLog{})
		default:
			r.logf("Error occurred: %v", err)
			r.fail(StageTranscribing, fmt.Sprintf("chunk %d failed", n), err, media.CommandLog{})
			return "", nil
		}
	}
	return strings.TrimSpace(strings.Join(texts, " ")), nil
}

// fromMicrophone records one phrase, saves it, and recognizes it whole.
func (r *run) fromMicrophone(ctx context.Context) (string, error) {
	emitStage(r.req.OnStage, StagePreprocessing)
	if !r.ensureOutputDir(StagePreprocessing) {
		return "", nil
	}

	r.logf("Adjusting for ambient noise... Please wait.")
	r.logf("Listening... Please speak now.")
	rec, err := r.p.listener.Listen(ctx)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		if errors.Is(err, domain.ErrListenTimeout) {
			r.logf("Listening timed out while waiting for phrase to start.")
		} else {
			r.logf("Error occurred: %v", err)
		}
		r.fail(StagePreprocessing, "recording failed", err, media.CommandLog{})
		return "", nil
	}

	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: rec.SampleRate},
		SourceBitDepth: 16,
		Data:           rec.Samples,
	}
	path := filepath.Join(r.req.OutputDir, MicrophoneFileName)
	if err := r.p.writeWAV(path, buf); err != nil {
		r.logf("Error occurred: %v", err)
		r.fail(StagePreprocessing, "recording could not be saved", fmt.Errorf("%w: %v", domain.ErrIO, err), media.CommandLog{})
		return "", nil
	}
	return r.recognizeWhole(ctx, path, buf)
}

// fromRecordedPhrase treats a file as a single microphone phrase.
func (r *run) fromRecordedPhrase(ctx context.Context) (string, error) {
	emitStage(r.req.OnStage, StagePreprocessing)
	prepared, ok, err := r.prepareAudio(ctx, r.req.InputPath)
	if err != nil || !ok {
		return "", err
	}
	defer prepared.cleanup()
	return r.recognizeWhole(ctx, prepared.path, prepared.buf)
}

func (r *run) recognizeWhole(ctx context.Context, path string, buf *audio.IntBuffer) (string, error) {
	emitStage(r.req.OnStage, StageTranscribing)
	r.logf("Processing your speech...")

	text, err := r.recognize(ctx, path, buf)
	switch {
	case err == nil:
		r.logf("Speech recognition complete.")
		return strings.TrimSpace(text), nil
	case ctx.Err() != nil:
		return "", ctx.Err()
	case errors.Is(err, domain.ErrUnintelligible):
		r.logf("Could not understand audio.")
	case errors.Is(err, domain.ErrServiceUnavailable):
		r.logf("Speech Recognition service unavailable.")
	default:
		r.logf("Error occurred: %v", err)
	}
	r.fail(StageTranscribing, "speech recognition failed", err, media.CommandLog{})
	return "", nil
}

func (r *run) recognize(ctx context.Context, path string, buf *audio.IntBuffer) (string, error) {
	if r.p.recognizer == nil {
		return "", errors.New("no speech recognizer configured")
	}
	clip := speech.Clip{Path: path, SampleRate: 16000, Channels: 1}
	if buf != nil && buf.Format != nil {
		clip.SampleRate = buf.Format.SampleRate
		clip.Channels = buf.Format.NumChannels
	}
	return r.p.recognizer.Recognize(ctx, clip, r.req.TranscriptionLanguage)
}

// persistTranscript writes a non-empty transcript to the output directory.
func (r *run) persistTranscript() {
	if strings.TrimSpace(r.res.Transcript) == "" {
		return
	}
	if !r.ensureOutputDir(StageTranscribing) {
		return
	}

	path := filepath.Join(r.req.OutputDir, TranscriptFileName)
	if err := r.p.writeFile(path, []byte(r.res.Transcript), 0o644); err != nil {
		r.logf("Failed to save transcript: %v", err)
		r.fail(StageTranscribing, "transcript not saved", fmt.Errorf("%w: %v", domain.ErrIO, err), media.CommandLog{})
		return
	}
	r.res.TranscriptPath = path
	r.logf("Transcript saved to %s", path)
}

// translate returns "" on failure; only cancellation is returned as error.
func (r *run) translate(ctx context.Context, text string) (string, error) {
	emitStage(r.req.OnStage, StageTranslating)
	if r.p.translator == nil {
		err := errors.New("no translation service configured")
		r.translationLog(fmt.Sprintf("Error in translation: %v", err))
		r.fail(StageTranslating, "translation failed", err, media.CommandLog{})
		return "", nil
	}

	translated, err := r.p.translator.Translate(ctx, text, r.req.TranslationLanguage)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		r.translationLog(fmt.Sprintf("Error in translation: %v", err))
		r.fail(StageTranslating, "translation failed", err, media.CommandLog{})
		return "", nil
	}
	r.translationLog("Translation complete.")
	return translated, nil
}

func (r *run) exportPDF(text string) {
	emitStage(r.req.OnStage, StageExporting)
	path, err := r.p.exporter.Export(r.req.OutputDir, text)
	switch {
	case err == nil:
		r.res.PDFPath = path
		r.pdfLog(fmt.Sprintf("Text saved as PDF: %s", path))
	case errors.Is(err, domain.ErrNoText):
		r.pdfLog("No text available to save.")
	default:
		r.pdfLog(fmt.Sprintf("Failed to save PDF: %v", err))
		r.fail(StageExporting, "pdf export failed", err, media.CommandLog{})
	}
}

func (r *run) ensureOutputDir(stage string) bool {
	if err := r.p.mkdirAll(r.req.OutputDir, 0o755); err != nil {
		r.logf("Error occurred: %v", err)
		r.fail(stage, "output directory unavailable", fmt.Errorf("%w: %v", domain.ErrIO, err), media.CommandLog{})
		return false
	}
	return true
}
