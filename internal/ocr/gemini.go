package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"strings"
	"time"

	"github.com/Veraticus/sentinel/internal/common"
	"github.com/disintegration/imaging"
	"github.com/google/generative-ai-go/genai"
	"golang.org/x/time/rate"
	"google.golang.org/api/option"
)

const (
	transcribePrompt = `Transcribe every piece of text visible in this image exactly as written.
Keep the original line order. Do not summarize, translate or correct anything.
If the image contains no text, reply with ` + noTextMarker + ` and nothing else.`
	noTextMarker = "<none>"

	defaultRequestsPerMinute = 60
)

// Gemini recognizes text with a Gemini vision model. It is the optional
// secondary engine and is normally constructed through Lazy.
type Gemini struct {
	client  *genai.Client
	model   *genai.GenerativeModel
	limiter *rate.Limiter
	retry   common.RetryOptions
}

// GeminiOption configures a Gemini engine.
type GeminiOption func(*Gemini)

// WithRequestsPerMinute caps how often the API is called, retries included.
// Values <= 0 fall back to 60.
func WithRequestsPerMinute(n int) GeminiOption {
	return func(g *Gemini) {
		g.limiter = newLimiter(n)
	}
}

// WithRetryOptions overrides the retry policy for transient API failures.
func WithRetryOptions(opts common.RetryOptions) GeminiOption {
	return func(g *Gemini) {
		g.retry = opts
	}
}

func newLimiter(perMinute int) *rate.Limiter {
	if perMinute <= 0 {
		perMinute = defaultRequestsPerMinute
	}
	// The bucket starts full so a burst of screenshots is not delayed.
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), perMinute)
}

// NewGemini connects to the Gemini API. Construction dials the service, so
// callers should build one instance and reuse it.
func NewGemini(ctx context.Context, apiKey, modelName string, opts ...GeminiOption) (*Gemini, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, fmt.Errorf("%w: gemini api key", common.ErrMissingConfig)
	}
	modelName = strings.TrimSpace(modelName)
	if modelName == "" {
		return nil, fmt.Errorf("%w: gemini model name", common.ErrMissingConfig)
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	model := client.GenerativeModel(modelName)
	temperature := float32(0)
	model.GenerationConfig = genai.GenerationConfig{
		Temperature:      &temperature,
		ResponseMIMEType: "text/plain",
	}

	g := &Gemini{
		client:  client,
		model:   model,
		limiter: newLimiter(defaultRequestsPerMinute),
		retry:   common.DefaultRetryOptions(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Name implements Engine.
func (g *Gemini) Name() string { return "gemini" }

// Recognize sends the raw image to the model. Transient API failures are
// retried.
func (g *Gemini) Recognize(ctx context.Context, img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return "", fmt.Errorf("encode image: %w", err)
	}

	parts := []genai.Part{
		genai.Text(transcribePrompt),
		&genai.Blob{MIMEType: "image/png", Data: buf.Bytes()},
	}

	var text string
	err := common.WithRetry(ctx, func() error {
		if err := g.limiter.Wait(ctx); err != nil {
			return &common.RetryableError{Err: fmt.Errorf("rate limiter: %w", err), Retryable: false}
		}
		resp, err := g.model.GenerateContent(ctx, parts...)
		if err != nil {
			return err
		}
		text = firstText(resp)
		return nil
	}, g.retry)
	if err != nil {
		return "", fmt.Errorf("gemini: %w", err)
	}

	if strings.TrimSpace(text) == noTextMarker {
		return "", nil
	}
	return text, nil
}

// Close releases the underlying client.
func (g *Gemini) Close() error {
	return g.client.Close()
}

func firstText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	for _, c := range resp.Candidates {
		if c.Content == nil {
			continue
		}
		for _, p := range c.Content.Parts {
			if t, ok := p.(genai.Text); ok {
				return string(t)
			}
		}
	}
	return ""
}
