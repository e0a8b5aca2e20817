// Package openai provides a speech recognizer backed by the OpenAI
// transcription API (Whisper). One API call is made per utterance.
package openai

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/voxgest/voxgest/pkg/provider/stt"
)

const defaultModel = oai.AudioModelWhisper1

// Compile-time assertion that Provider implements stt.Recognizer.
var _ stt.Recognizer = (*Provider)(nil)

// config holds optional configuration for the provider.
type config struct {
	baseURL  string
	model    oai.AudioModel
	language string
	timeout  time.Duration
}

// Option is a functional option for Provider.
type Option func(*config)

// WithBaseURL overrides the default OpenAI API base URL. Use this to point at
// an OpenAI-compatible transcription endpoint.
func WithBaseURL(url string) Option {
	return func(c *config) { c.baseURL = url }
}

// WithModel selects the transcription model. Defaults to whisper-1.
func WithModel(model string) Option {
	return func(c *config) { c.model = oai.AudioModel(model) }
}

// WithLanguage sets the ISO-639-1 language hint (e.g., "en", "ru").
// Empty lets the service auto-detect.
func WithLanguage(lang string) Option {
	return func(c *config) { c.language = lang }
}

// WithTimeout sets a per-request HTTP timeout. Defaults to 30 s.
func WithTimeout(d time.Duration) Option {
	return func(c *config) { c.timeout = d }
}

// Provider implements stt.Recognizer using the OpenAI transcription API.
type Provider struct {
	client   oai.Client
	model    oai.AudioModel
	language string
}

// New constructs a new OpenAI transcription Provider.
func New(apiKey string, opts ...Option) (*Provider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai: apiKey must not be empty")
	}

	cfg := &config{model: defaultModel, timeout: 30 * time.Second}
	for _, o := range opts {
		o(cfg)
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		// A transcription that arrives seconds late is useless to the capture
		// loop, so failed requests are not retried.
		option.WithMaxRetries(0),
	}
	if cfg.baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(cfg.baseURL))
	}
	if cfg.timeout > 0 {
		reqOpts = append(reqOpts, option.WithHTTPClient(&http.Client{
			Timeout: cfg.timeout,
		}))
	}

	return &Provider{
		client:   oai.NewClient(reqOpts...),
		model:    cfg.model,
		language: cfg.language,
	}, nil
}

// Recognize uploads the WAV utterance and returns the transcription.
// An empty transcription is reported as stt.ErrNotRecognized.
func (p *Provider) Recognize(ctx context.Context, wav []byte) (string, error) {
	params := oai.AudioTranscriptionNewParams{
		File:  oai.File(bytes.NewReader(wav), "audio.wav", "audio/wav"),
		Model: p.model,
	}
	if p.language != "" {
		params.Language = oai.String(p.language)
	}

	resp, err := p.client.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("openai: transcription request: %w", err)
	}

	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return "", stt.ErrNotRecognized
	}
	return text, nil
}
