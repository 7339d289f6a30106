// Package translate sends assembled transcripts to a machine-translation service.
package translate

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	googleoption "google.golang.org/api/option"
	translateapi "google.golang.org/api/translate/v2"

	"media-translator/internal/remote"
)

// Translator translates text into a target language code.
// Each call is a single request with no retry and no splitting of long text.
type Translator interface {
	Translate(ctx context.Context, text, targetCode string) (string, error)
}

// Google uses the Cloud Translation v2 REST API.
type Google struct {
	svc     *translateapi.Service
	timeout time.Duration
}

// GoogleOptions configures the Cloud Translation client.
type GoogleOptions struct {
	APIKey     string
	Endpoint   string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// NewGoogle creates a client authenticated by API key.
func NewGoogle(ctx context.Context, opts GoogleOptions) (*Google, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, fmt.Errorf("google translate: api key is required")
	}

	clientOpts := []googleoption.ClientOption{googleoption.WithAPIKey(opts.APIKey)}
	if opts.Endpoint != "" {
		clientOpts = append(clientOpts, googleoption.WithEndpoint(opts.Endpoint))
	}
	if opts.HTTPClient != nil {
		clientOpts = append(clientOpts, googleoption.WithHTTPClient(opts.HTTPClient))
	}

	svc, err := translateapi.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("google translate: %w", err)
	}
	return &Google{svc: svc, timeout: opts.Timeout}, nil
}

// Translate returns the first translation of text.
func (g *Google) Translate(ctx context.Context, text, targetCode string) (string, error) {
	callCtx, cancel := withTimeout(ctx, g.timeout)
	defer cancel()

	resp, err := g.svc.Translations.List([]string{text}, targetCode).
		Format("text").
		Context(callCtx).
		Do()
	if err != nil {
		return "", remote.Classify(ctx, err)
	}
	if len(resp.Translations) == 0 {
		return "", fmt.Errorf("google translate: empty response")
	}
	return resp.Translations[0].TranslatedText, nil
}

// OpenAI translates with a chat completion model.
type OpenAI struct {
	client  openai.Client
	model   string
	timeout time.Duration
}

// OpenAIOptions configures the chat completion client.
type OpenAIOptions struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

const systemPrompt = "You are a translation engine. Translate the user's text into the language with ISO-639-1 code %q. " +
	"Reply with the translation only, preserving line breaks."

// NewOpenAI creates a chat-completion translator that never retries.
func NewOpenAI(opts OpenAIOptions) (*OpenAI, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, fmt.Errorf("openai translate: api key is required")
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
		model = openai.ChatModelGPT4oMini
	}
	return &OpenAI{client: openai.NewClient(reqOpts...), model: model, timeout: opts.Timeout}, nil
}

// Translate asks the model for a translation of text.
func (o *OpenAI) Translate(ctx context.Context, text, targetCode string) (string, error) {
	callCtx, cancel := withTimeout(ctx, o.timeout)
	defer cancel()

	resp, err := o.client.Chat.Completions.New(callCtx, openai.ChatCompletionNewParams{
		Model: o.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(fmt.Sprintf(systemPrompt, targetCode)),
			openai.UserMessage(text),
		},
		Temperature: openai.Float(0),
	})
	if err != nil {
		return "", remote.Classify(ctx, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai translate: no choices returned")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}
