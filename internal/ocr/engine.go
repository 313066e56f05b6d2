// Package ocr turns message screenshots into text using one or two
// recognition engines and a fixed merge policy.
package ocr

import (
	"context"
	"image"

	"github.com/Veraticus/sentinel/internal/model"
)

// NoTextDetected is returned by Extract when no engine produced any text.
const NoTextDetected = model.NoTextDetected

// Engine recognizes text in an image.
type Engine interface {
	Name() string
	Recognize(ctx context.Context, img image.Image) (string, error)
}
