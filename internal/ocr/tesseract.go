package ocr

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// OEM 3 lets tesseract pick between the legacy and LSTM recognizers.
const defaultOEM = "3"

// Tesseract shells out to the tesseract binary. It is the default engine
// and needs no cgo.
type Tesseract struct {
	bin       string
	languages string
	runner    Runner
}

func NewTesseract(bin, languages string) *Tesseract {
	if bin == "" {
		bin = "tesseract"
	}
	if languages == "" {
		languages = "eng"
	}
	return &Tesseract{bin: bin, languages: languages, runner: execRunner{}}
}

func (t *Tesseract) Name() string { return "tesseract-cli" }

func (t *Tesseract) Available(ctx context.Context) bool {
	_, _, err := t.runner.Run(ctx, t.bin, "--version")
	return err == nil
}

// Recognize runs one pass over the page image:
//
//	tesseract <image> stdout -l <langs> --oem 3 --psm <n>
func (t *Tesseract) Recognize(ctx context.Context, imagePath string, psm int) (string, error) {
	args := []string{imagePath, "stdout", "-l", t.languages, "--oem", defaultOEM, "--psm", strconv.Itoa(psm)}
	out, errb, err := t.runner.Run(ctx, t.bin, args...)
	if err != nil {
		return "", fmt.Errorf("tesseract: %s: %w", firstLine(errb), err)
	}
	return string(out), nil
}

func firstLine(b []byte) string {
	s := strings.TrimSpace(string(b))
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return s
}
