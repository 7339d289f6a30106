package speech

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"media-translator/internal/domain"
	"media-translator/internal/remote"
)

// Whisper recognizes speech with the OpenAI audio transcription endpoint.
type Whisper struct {
	client  openai.Client
	model   string
	timeout time.Duration
}

// WhisperOptions configures the OpenAI client.
type WhisperOptions struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// NewWhisper creates a client that never retries, so each chunk costs one call.
func NewWhisper(opts WhisperOptions) (*Whisper, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, fmt.Errorf("openai speech: api key is required")
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(opts.APIKey),
		option.WithMaxRetries(0),
	}
	if opts.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(opts.BaseURL))
	}

	model := opts.Model
	if model == "" {
		model = openai.AudioModelWhisper1
	}
	return &Whisper{client: openai.NewClient(reqOpts...), model: model, timeout: opts.Timeout}, nil
}

// Recognize uploads the clip and returns the transcription text.
func (w *Whisper) Recognize(ctx context.Context, clip Clip, languageTag string) (string, error) {
	f, err := os.Open(clip.Path)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrIO, err)
	}
	defer f.Close()

	params := openai.AudioTranscriptionNewParams{
		File:  openai.File(f, filepath.Base(clip.Path), "audio/wav"),
		Model: w.model,
	}
	if lang := isoLanguage(languageTag); lang != "" {
		params.Language = openai.String(lang)
	}

	callCtx, cancel := withTimeout(ctx, w.timeout)
	defer cancel()

	resp, err := w.client.Audio.Transcriptions.New(callCtx, params)
	if err != nil {
		return "", remote.Classify(ctx, err)
	}

	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return "", domain.ErrUnintelligible
	}
	return text, nil
}
