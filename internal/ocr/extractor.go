package ocr

import (
	"context"
	"fmt"
	"image"
	"strings"

	"github.com/Veraticus/sentinel/internal/common"
)

// Extractor runs the configured engines over an image and merges their text.
type Extractor struct {
	primary   Engine
	secondary Engine
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithSecondary enables a second engine whose output is merged with the
// primary's. Passing nil leaves the secondary disabled.
func WithSecondary(engine Engine) Option {
	return func(x *Extractor) {
		x.secondary = engine
	}
}

// NewExtractor creates an extractor around the primary engine.
func NewExtractor(primary Engine, opts ...Option) *Extractor {
	x := &Extractor{primary: primary}
	for _, opt := range opts {
		opt(x)
	}
	return x
}

// HasSecondary reports whether a secondary engine is configured.
func (x *Extractor) HasSecondary() bool {
	return x.secondary != nil
}

// Extract returns the merged text of all engines. It never fails: an engine
// error is logged and counts as empty output.
func (x *Extractor) Extract(ctx context.Context, img image.Image) string {
	primary := x.recognize(ctx, x.primary, img)

	var secondary string
	if x.secondary != nil {
		secondary = x.recognize(ctx, x.secondary, img)
	}

	return Merge(primary, secondary)
}

func (x *Extractor) recognize(ctx context.Context, engine Engine, img image.Image) string {
	text, err := run(ctx, engine, img)
	if err != nil {
		common.LogWarn("OCR engine failed", common.Fields{"error": err})
		return ""
	}
	return text
}

// run returns the trimmed text of one engine. Failures wrap
// common.ErrEngineFailure.
func run(ctx context.Context, engine Engine, img image.Image) (string, error) {
	if engine == nil {
		return "", nil
	}
	text, err := engine.Recognize(ctx, img)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", common.ErrEngineFailure, engine.Name(), err)
	}
	return strings.TrimSpace(text), nil
}

// Merge combines the outputs of the two engines:
//
//  1. neither produced text: NoTextDetected
//  2. exactly one produced text: that text
//  3. both produced the same text: that text once
//  4. both produced different text: primary + " " + secondary
func Merge(primary, secondary string) string {
	switch {
	case primary == "" && secondary == "":
		return NoTextDetected
	case secondary == "":
		return primary
	case primary == "":
		return secondary
	case primary == secondary:
		return primary
	default:
		return primary + " " + secondary
	}
}
