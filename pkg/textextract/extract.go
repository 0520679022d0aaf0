// Package textextract pulls machine-readable text out of born-digital PDFs.
//
// Two strategies are provided. Structural walks the document's content
// streams in order and is the cheapest path. Layout rebuilds reading order
// from glyph positions and reconstructs tables, which costs more but keeps
// columnar data legible. Both skip unreadable pages rather than failing the
// whole document.
package textextract

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Structural extracts the embedded text of each page in stream order.
type Structural struct{}

func (Structural) Name() string { return "structural" }

// Extract returns the trimmed text of every readable page, separated by
// blank lines. Pages that cannot be parsed are skipped; the error is
// non-nil only when the document itself is unreadable.
func (Structural) Extract(ctx context.Context, data []byte) (text string, err error) {
	// The pdf library panics on some malformed documents.
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("parse PDF: %v", p)
		}
	}()

	reader, err := open(data)
	if err != nil {
		return "", err
	}

	var parts []string
	for i := 1; i <= reader.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		if pageText := plainText(reader.Page(i)); pageText != "" {
			parts = append(parts, pageText)
		}
	}
	return strings.Join(parts, "\n\n"), nil
}

func open(data []byte) (*pdf.Reader, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open PDF: %w", err)
	}
	return reader, nil
}

// plainText returns the trimmed text of one page, or "" when the page is
// missing or unreadable.
func plainText(page pdf.Page) (s string) {
	defer func() {
		if recover() != nil {
			s = ""
		}
	}()
	if page.V.IsNull() {
		return ""
	}
	text, err := page.GetPlainText(nil)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(text)
}
