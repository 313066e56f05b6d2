package ocr

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// Images shorter than minRecognizeHeight are upscaled to upscaleHeight before
// recognition. Tesseract loses most glyphs on small phone screenshots.
const (
	minRecognizeHeight = 800
	upscaleHeight      = 1200
)

// Preprocess converts img into a clean black and white image: luminance
// conversion, Otsu global thresholding and a 3x3 median filter. The result
// depends only on the input pixels.
func Preprocess(img image.Image) *image.Gray {
	gray := imaging.Grayscale(img)
	bounds := gray.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	lum := make([]uint8, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			// Grayscale leaves R, G and B equal.
			lum[y*w+x] = gray.Pix[y*gray.Stride+x*4]
		}
	}

	threshold := otsuThreshold(lum)
	for i, v := range lum {
		if v > threshold {
			lum[i] = 255
		} else {
			lum[i] = 0
		}
	}

	return medianFilter(lum, w, h)
}

// upscale enlarges short images, preserving aspect ratio.
func upscale(img image.Image) image.Image {
	if img.Bounds().Dy() >= minRecognizeHeight {
		return img
	}
	return imaging.Resize(img, 0, upscaleHeight, imaging.Lanczos)
}

// otsuThreshold picks the level that maximises between-class variance.
func otsuThreshold(lum []uint8) uint8 {
	var hist [256]int
	for _, v := range lum {
		hist[v]++
	}

	total := len(lum)
	var sum float64
	for i, n := range hist {
		sum += float64(i * n)
	}

	var (
		sumB      float64
		weightB   int
		best      float64
		threshold uint8
	)
	for t := 0; t < 256; t++ {
		weightB += hist[t]
		if weightB == 0 {
			continue
		}
		weightF := total - weightB
		if weightF == 0 {
			break
		}
		sumB += float64(t * hist[t])
		meanB := sumB / float64(weightB)
		meanF := (sum - sumB) / float64(weightF)
		between := float64(weightB) * float64(weightF) * (meanB - meanF) * (meanB - meanF)
		if between > best {
			best = between
			threshold = uint8(t)
		}
	}
	return threshold
}

// medianFilter applies a 3x3 median to a binary image. Edge pixels reuse the
// nearest row or column. On a binary image the median of nine samples is
// white exactly when at least five of them are white.
func medianFilter(lum []uint8, w, h int) *image.Gray {
	out := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			white := 0
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					if lum[clamp(y+dy, h)*w+clamp(x+dx, w)] == 255 {
						white++
					}
				}
			}
			v := uint8(0)
			if white >= 5 {
				v = 255
			}
			out.SetGray(x, y, color.Gray{Y: v})
		}
	}
	return out
}

func clamp(v, n int) int {
	if v < 0 {
		return 0
	}
	if v >= n {
		return n - 1
	}
	return v
}
