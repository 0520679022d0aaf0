package ocr

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"strings"

	"golang.org/x/image/draw"
)

// Preprocessor cleans up rendered pages before recognition. The full
// pipeline is upscale, grayscale, denoise, contrast equalization,
// binarization, close; with Enhance off only the upscale runs.
type Preprocessor struct {
	HighQuality bool
	Enhance     bool
}

// Pages with either dimension below the threshold are doubled so small
// glyphs survive binarization.
const (
	upscaleThresholdHigh     = 1500
	upscaleThresholdStandard = 1200
)

// CleanFile reads a rendered page, runs the cleanup pipeline, and writes
// the result next to the input. It returns the path of the cleaned image,
// or the input path when the pipeline left the page untouched.
func (p *Preprocessor) CleanFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open page: %w", err)
	}
	img, _, err := image.Decode(f)
	f.Close()
	if err != nil {
		return "", fmt.Errorf("decode page: %w", err)
	}

	cleaned := p.Clean(img)
	if cleaned == img {
		return path, nil
	}

	out := strings.TrimSuffix(path, ".png") + ".clean.png"
	w, err := os.Create(out)
	if err != nil {
		return "", fmt.Errorf("create cleaned page: %w", err)
	}
	if err := png.Encode(w, cleaned); err != nil {
		w.Close()
		return "", fmt.Errorf("encode cleaned page: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("write cleaned page: %w", err)
	}
	return out, nil
}

// Clean runs the pipeline over one page image. It returns the input
// unchanged when there is nothing to do.
func (p *Preprocessor) Clean(img image.Image) image.Image {
	img = p.upscale(img)
	if !p.Enhance {
		return img
	}
	gray := grayscale(img)
	gray = denoise(gray, 10, 7, 21)
	gray = clahe(gray, 2.0, 8, 8)
	gray = otsuBinarize(gray)
	return closeSquare(gray, 1)
}

func (p *Preprocessor) upscale(img image.Image) image.Image {
	b := img.Bounds()
	threshold := upscaleThresholdStandard
	if p.HighQuality {
		threshold = upscaleThresholdHigh
	}
	if b.Dx() >= threshold && b.Dy() >= threshold {
		return img
	}
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx()*2, b.Dy()*2))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

func grayscale(img image.Image) *image.Gray {
	b := img.Bounds()
	gray := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(gray, gray.Bounds(), img, b.Min, draw.Src)
	return gray
}
