// Package openaistt transcribes audio with the OpenAI speech-to-text API
// using the verbose JSON response, which carries segment timestamps and the
// detected language.
package openaistt

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	langpkg "fwea/internal/language"
	"fwea/internal/services"
)

const (
	// DefaultModel is the transcription model that supports verbose_json.
	DefaultModel = "whisper-1"
	// MaxUploadBytes is the API's file size limit.
	MaxUploadBytes = 25 << 20

	transcriptionsPath = "audio/transcriptions"
)

// Config captures the API settings.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	// MaxRetries bounds the SDK's own retries of 429 and 5xx responses.
	MaxRetries int
}

// Segment is one timed segment of the verbose transcription.
type Segment struct {
	ID           int     `json:"id"`
	Start        float64 `json:"start"`
	End          float64 `json:"end"`
	Text         string  `json:"text"`
	AvgLogprob   float64 `json:"avg_logprob"`
	NoSpeechProb float64 `json:"no_speech_prob"`
}

// Confidence converts the segment's mean token log probability into [0,1]
// and discounts it by the no-speech probability.
func (s Segment) Confidence() float64 {
	c := math.Exp(s.AvgLogprob) * (1 - s.NoSpeechProb)
	return math.Max(0, math.Min(1, c))
}

// Transcription is the verbose_json response body.
type Transcription struct {
	Language string    `json:"language"`
	Duration float64   `json:"duration"`
	Text     string    `json:"text"`
	Segments []Segment `json:"segments"`
}

// Client wraps the OpenAI SDK client.
type Client struct {
	client openai.Client
	model  string
}

// NewClient validates cfg and builds a client.
func NewClient(cfg Config) (*Client, error) {
	key := strings.TrimSpace(cfg.APIKey)
	if key == "" {
		return nil, services.Wrap(services.ErrConfiguration, "openaistt", "init", "OpenAI API key not set", nil)
	}
	opts := []option.RequestOption{option.WithAPIKey(key)}
	if base := strings.TrimSpace(cfg.BaseURL); base != "" {
		opts = append(opts, option.WithBaseURL(base))
	}
	if cfg.MaxRetries >= 0 {
		opts = append(opts, option.WithMaxRetries(cfg.MaxRetries))
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = DefaultModel
	}
	return &Client{client: openai.NewClient(opts...), model: model}, nil
}

// Model returns the configured transcription model.
func (c *Client) Model() string { return c.model }

// Transcribe uploads path and returns the segment-level transcription. The
// language hint is optional; when empty the API detects the language.
func (c *Client) Transcribe(ctx context.Context, path, language string) (Transcription, error) {
	f, err := os.Open(path)
	if err != nil {
		return Transcription{}, services.Wrap(services.ErrValidation, "openaistt", "open", "open source", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return Transcription{}, services.Wrap(services.ErrValidation, "openaistt", "open", "stat source", err)
	}
	if info.Size() > MaxUploadBytes {
		return Transcription{}, services.Wrap(services.ErrDetectionUnavailable, "openaistt", "upload",
			fmt.Sprintf("file is %d bytes, above the %d byte upload limit", info.Size(), MaxUploadBytes), nil)
	}

	params := openai.AudioTranscriptionNewParams{
		File:                   f,
		Model:                  openai.AudioModel(c.model),
		ResponseFormat:         openai.AudioResponseFormatVerboseJSON,
		TimestampGranularities: []string{"segment"},
	}
	if lang := langpkg.ToISO2(language); lang != "" {
		params.Language = openai.String(lang)
	}

	var out Transcription
	if err := c.client.Post(ctx, transcriptionsPath, params, &out); err != nil {
		return Transcription{}, classify(ctx, err)
	}
	out.Language = langpkg.ToISO2(out.Language)
	return out, nil
}

func classify(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return services.Wrap(services.ErrDetectionTimeout, "openaistt", "transcribe", "OpenAI transcription timed out", err)
	}
	if errors.Is(ctx.Err(), context.Canceled) {
		return fmt.Errorf("openaistt transcribe: %w", ctx.Err())
	}
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return services.Wrap(services.ErrDetectionUnavailable, "openaistt", "transcribe",
			fmt.Sprintf("OpenAI returned HTTP %d", apiErr.StatusCode), err)
	}
	return services.Wrap(services.ErrDetectionUnavailable, "openaistt", "transcribe", "OpenAI request failed", err)
}
