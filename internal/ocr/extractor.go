// Package ocr rasterizes PDF pages with pdftoppm and recognizes their
// text through tesseract. It is the most expensive extraction strategy
// and the last one tried.
package ocr

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

type Config struct {
	PdftoppmBin string
	HighQuality bool
	DPIHigh     int
	DPIStandard int
	Preprocess  bool
	Profiles    []Profile
}

// Extractor renders each page, cleans it up, and keeps the best of
// several recognition passes per page.
type Extractor struct {
	cfg    Config
	engine Engine
	runner Runner
	prep   *Preprocessor
}

func New(cfg Config, engine Engine) *Extractor {
	if cfg.PdftoppmBin == "" {
		cfg.PdftoppmBin = "pdftoppm"
	}
	if cfg.DPIHigh <= 0 {
		cfg.DPIHigh = 300
	}
	if cfg.DPIStandard <= 0 {
		cfg.DPIStandard = 200
	}
	if len(cfg.Profiles) == 0 {
		cfg.Profiles = DefaultProfiles()
	}
	return &Extractor{
		cfg:    cfg,
		engine: engine,
		runner: execRunner{},
		prep:   &Preprocessor{HighQuality: cfg.HighQuality, Enhance: cfg.Preprocess},
	}
}

// Available reports whether both the renderer and the recognition engine
// can run. It backs the capability probe at startup.
func (x *Extractor) Available(ctx context.Context) bool {
	if _, _, err := x.runner.Run(ctx, x.cfg.PdftoppmBin, "-v"); err != nil {
		return false
	}
	return x.engine != nil && x.engine.Available(ctx)
}

// Extract renders the document and recognizes every page. Pages that
// yield no text are dropped; the rest carry a page marker so document
// structure survives the round trip through pixels.
func (x *Extractor) Extract(ctx context.Context, data []byte) (string, int, error) {
	if x.engine == nil {
		return "", 0, errors.New("no recognition engine configured")
	}

	tmpDir, err := os.MkdirTemp("", "formflow-ocr-*")
	if err != nil {
		return "", 0, fmt.Errorf("create work dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	pdfPath := filepath.Join(tmpDir, "input.pdf")
	if err := os.WriteFile(pdfPath, data, 0o600); err != nil {
		return "", 0, fmt.Errorf("write work file: %w", err)
	}

	dpi := x.cfg.DPIStandard
	if x.cfg.HighQuality {
		dpi = x.cfg.DPIHigh
	}

	// pdftoppm -r <dpi> -png <in.pdf> <tmp/page>
	prefix := filepath.Join(tmpDir, "page")
	if _, _, err := x.runner.Run(ctx, x.cfg.PdftoppmBin, "-r", strconv.Itoa(dpi), "-png", pdfPath, prefix); err != nil {
		return "", 0, fmt.Errorf("render PDF pages: %w", err)
	}

	// pdftoppm zero-pads page numbers, so a lexicographic sort is page
	// order.
	pages, _ := filepath.Glob(prefix + "-*.png")
	sort.Strings(pages)
	if len(pages) == 0 {
		return "", 0, errors.New("renderer produced no pages")
	}

	var sections []string
	for i, pagePath := range pages {
		if err := ctx.Err(); err != nil {
			return "", 0, err
		}

		path := pagePath
		if cleaned, perr := x.prep.CleanFile(pagePath); perr != nil {
			slog.Warn("page cleanup failed, recognizing raw render", "page", i+1, "error", perr)
		} else {
			path = cleaned
		}

		text := strings.TrimSpace(x.bestPass(ctx, path))
		if text == "" {
			continue
		}
		sections = append(sections, fmt.Sprintf("--- Page %d ---\n%s", i+1, text))
	}
	return strings.Join(sections, "\n\n"), len(pages), nil
}

// bestPass tries every profile and keeps the highest-scoring output.
// Later passes must beat the incumbent strictly.
func (x *Extractor) bestPass(ctx context.Context, imagePath string) string {
	var bestText string
	bestScore := 0
	for _, p := range x.cfg.Profiles {
		text, err := x.engine.Recognize(ctx, imagePath, p.PSM)
		if err != nil {
			slog.Warn("recognition pass failed", "profile", p.Name, "engine", x.engine.Name(), "error", err)
			continue
		}
		if s := Score(text); s > bestScore {
			bestScore = s
			bestText = text
		}
	}
	return bestText
}
