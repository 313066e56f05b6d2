// Package pipeline runs the full analysis of a message: text extraction,
// field mining, classification and explanation.
package pipeline

import (
	"context"
	"image"
	"log/slog"
	"time"

	"github.com/Veraticus/sentinel/internal/explain"
	"github.com/Veraticus/sentinel/internal/extract"
	"github.com/Veraticus/sentinel/internal/model"
	"github.com/google/uuid"
)

// TextExtractor reads the text of an image. It never fails; an image without
// readable text yields model.NoTextDetected.
type TextExtractor interface {
	Extract(ctx context.Context, img image.Image) string
}

// TextClassifier assigns a fraud label to text.
type TextClassifier interface {
	Classify(text string) model.ClassificationResult
}

// Pipeline sequences the analysis stages. It keeps no state between calls.
type Pipeline struct {
	extractor  TextExtractor
	classifier TextClassifier
	sink       Sink
	now        func() time.Time
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithSink replaces the default LogSink.
func WithSink(sink Sink) Option {
	return func(p *Pipeline) {
		if sink != nil {
			p.sink = sink
		}
	}
}

// WithClock sets the time source used to stamp results.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		p.now = now
	}
}

// New creates a pipeline. extractor may be nil when only AnalyzeText is used.
func New(extractor TextExtractor, classifier TextClassifier, opts ...Option) *Pipeline {
	p := &Pipeline{
		extractor:  extractor,
		classifier: classifier,
		sink:       LogSink{},
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

type sourceKey struct{}

// WithSource annotates ctx with where the analyzed message came from, such
// as a file name or "telegram". The source is stored on the result.
func WithSource(ctx context.Context, source string) context.Context {
	return context.WithValue(ctx, sourceKey{}, source)
}

func sourceFrom(ctx context.Context) string {
	s, _ := ctx.Value(sourceKey{}).(string)
	return s
}

// Analyze extracts the text of img and analyzes it. The only error is
// cancellation of ctx.
func (p *Pipeline) Analyze(ctx context.Context, img image.Image) (*model.PipelineResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	text := model.NoTextDetected
	if p.extractor != nil {
		text = p.extractor.Extract(ctx, img)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return p.analyze(ctx, text), nil
}

// AnalyzeText analyzes text that is already available, skipping OCR.
func (p *Pipeline) AnalyzeText(ctx context.Context, text string) (*model.PipelineResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return p.analyze(ctx, text), nil
}

func (p *Pipeline) analyze(ctx context.Context, text string) *model.PipelineResult {
	details := extract.Fields(text)
	classification := p.classifier.Classify(text)

	result := &model.PipelineResult{
		ID:                 uuid.NewString(),
		AnalyzedAt:         p.now().UTC(),
		Source:             sourceFrom(ctx),
		ExtractedText:      text,
		TransactionDetails: details,
		FraudAnalysis: model.FraudAnalysis{
			Verdict:       classification.Label,
			Confidence:    classification.Confidence,
			Probabilities: classification.Distribution,
			Reasoning:     explain.Explain(classification.Label, classification.Confidence, text),
			RedFlags:      explain.RedFlags(classification.Label, text),
		},
	}
	if classification.IsError() {
		result.FraudAnalysis.RedFlags = nil
	}

	if err := p.sink.Record(ctx, result); err != nil {
		slog.Warn("Failed to record analysis", "id", result.ID, "error", err)
	}

	return result
}
