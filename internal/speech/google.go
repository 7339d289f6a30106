package speech

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"google.golang.org/api/option"
	speechapi "google.golang.org/api/speech/v1"

	"media-translator/internal/domain"
	"media-translator/internal/remote"
)

// Google recognizes speech with the Cloud Speech-to-Text v1 REST API.
type Google struct {
	svc     *speechapi.Service
	timeout time.Duration
}

// GoogleOptions configures the Cloud Speech client.
type GoogleOptions struct {
	APIKey   string
	Endpoint string
	Timeout  time.Duration
	// HTTPClient replaces the default transport; the API key is then not attached.
	HTTPClient *http.Client
}

// NewGoogle creates a client authenticated by API key.
func NewGoogle(ctx context.Context, opts GoogleOptions) (*Google, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, fmt.Errorf("google speech: api key is required")
	}

	clientOpts := []option.ClientOption{option.WithAPIKey(opts.APIKey)}
	if opts.Endpoint != "" {
		clientOpts = append(clientOpts, option.WithEndpoint(opts.Endpoint))
	}
	if opts.HTTPClient != nil {
		clientOpts = append(clientOpts, option.WithHTTPClient(opts.HTTPClient))
	}

	svc, err := speechapi.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("google speech: %w", err)
	}
	return &Google{svc: svc, timeout: opts.Timeout}, nil
}

// Recognize sends the clip inline as LINEAR16 and joins the best alternatives.
func (g *Google) Recognize(ctx context.Context, clip Clip, languageTag string) (string, error) {
	data, err := os.ReadFile(clip.Path)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrIO, err)
	}

	req := &speechapi.RecognizeRequest{
		Config: &speechapi.RecognitionConfig{
			Encoding:                   "LINEAR16",
			SampleRateHertz:            int64(clip.SampleRate),
			AudioChannelCount:          int64(clip.Channels),
			LanguageCode:               languageTag,
			EnableAutomaticPunctuation: true,
		},
		Audio: &speechapi.RecognitionAudio{
			Content: base64.StdEncoding.EncodeToString(data),
		},
	}

	callCtx, cancel := withTimeout(ctx, g.timeout)
	defer cancel()

	resp, err := g.svc.Speech.Recognize(req).Context(callCtx).Do()
	if err != nil {
		return "", remote.Classify(ctx, err)
	}

	var parts []string
	for _, result := range resp.Results {
		if result == nil || len(result.Alternatives) == 0 {
			continue
		}
		if text := strings.TrimSpace(result.Alternatives[0].Transcript); text != "" {
			parts = append(parts, text)
		}
	}
	if len(parts) == 0 {
		return "", domain.ErrUnintelligible
	}
	return strings.Join(parts, " "), nil
}
