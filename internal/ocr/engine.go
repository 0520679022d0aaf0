package ocr

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"
)

// ErrNotEnabled reports that in-process recognition was compiled out.
// Build with -tags ocr to link against the Tesseract C API.
var ErrNotEnabled = errors.New("ocr: in-process engine requires the ocr build tag")

// Engine recognizes the text on one rendered page image.
type Engine interface {
	Name() string
	Available(ctx context.Context) bool
	Recognize(ctx context.Context, imagePath string, psm int) (string, error)
}

// Profile is one recognition pass. PSM selects tesseract's page
// segmentation mode.
type Profile struct {
	Name string
	PSM  int
}

// DefaultProfiles returns the passes tried on every page, in order.
// Ties on score keep the earlier pass, so the form-optimized mode wins
// when nothing distinguishes them.
func DefaultProfiles() []Profile {
	return []Profile{
		{Name: "form", PSM: 6},
		{Name: "single-column", PSM: 4},
		{Name: "auto", PSM: 3},
	}
}

// Score ranks one pass's output. Words weigh more than raw characters so
// a pass that finds structure beats one that finds noise.
func Score(text string) int {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return 0
	}
	return utf8.RuneCountInString(trimmed) + 5*len(strings.Fields(trimmed))
}
