//go:build ocr

package ocr

import (
	"context"
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// Gosseract recognizes pages in-process through the Tesseract C API.
// It avoids one subprocess per pass but needs cgo and the ocr build tag.
type Gosseract struct {
	languages []string
}

func NewGosseract(languages string) (Engine, error) {
	var langs []string
	for _, l := range strings.Split(languages, "+") {
		if l = strings.TrimSpace(l); l != "" {
			langs = append(langs, l)
		}
	}
	return &Gosseract{languages: langs}, nil
}

func (g *Gosseract) Name() string { return "gosseract" }

func (g *Gosseract) Available(ctx context.Context) bool { return true }

func (g *Gosseract) Recognize(ctx context.Context, imagePath string, psm int) (string, error) {
	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetImage(imagePath); err != nil {
		return "", fmt.Errorf("set image: %w", err)
	}
	if len(g.languages) > 0 {
		if err := client.SetLanguage(g.languages...); err != nil {
			return "", fmt.Errorf("set languages: %w", err)
		}
	}
	if err := client.SetPageSegMode(gosseract.PageSegMode(psm)); err != nil {
		return "", fmt.Errorf("set page segmentation mode: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("recognize: %w", err)
	}
	return text, nil
}
