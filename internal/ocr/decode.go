package ocr

import (
	"fmt"
	"image"
	"io"

	"github.com/Veraticus/sentinel/internal/common"
	"github.com/disintegration/imaging"
)

// Decode reads an image, applying its EXIF orientation so that photos taken
// sideways are recognized upright.
func Decode(r io.Reader) (image.Image, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrInvalidImage, err)
	}
	return img, nil
}

// Open decodes the image stored at path.
func Open(path string) (image.Image, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrInvalidImage, err)
	}
	return img, nil
}
