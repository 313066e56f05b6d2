package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"github.com/otiai10/gosseract/v2"
)

// Tesseract is the primary, always available engine.
type Tesseract struct {
	language string
}

// NewTesseract returns a Tesseract engine for the given language code.
// An empty language defaults to "eng".
func NewTesseract(language string) *Tesseract {
	if language == "" {
		language = "eng"
	}
	return &Tesseract{language: language}
}

// Name implements Engine.
func (t *Tesseract) Name() string { return "tesseract" }

// Recognize preprocesses img and runs Tesseract over it. A fresh client is
// used per call, so Recognize is safe for concurrent use.
func (t *Tesseract) Recognize(ctx context.Context, img image.Image) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, Preprocess(upscale(img)), imaging.PNG); err != nil {
		return "", fmt.Errorf("encode preprocessed image: %w", err)
	}

	client := gosseract.NewClient()
	defer func() { _ = client.Close() }()

	if err := client.SetLanguage(t.language); err != nil {
		return "", fmt.Errorf("set tesseract language %q: %w", t.language, err)
	}
	if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
		return "", fmt.Errorf("load image into tesseract: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("tesseract: %w", err)
	}
	return text, nil
}
