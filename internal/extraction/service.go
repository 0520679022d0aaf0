// Package extraction implements the multi-method document text-extraction
// pipeline: plain-text decoding with an encoding fallback chain, and a
// quality-gated PDF chain that tries cached results, two native extractors,
// and finally OCR.
package extraction

import (
	"context"
	"crypto/md5"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

// Config carries the tunables of one Service instance.
type Config struct {
	UseCache        bool
	HighQuality     bool
	OCRQualityCheck bool          // gate OCR output, flagging low confidence instead of discarding
	Concurrency     int           // batch fan-out width; 1 processes documents sequentially
	DocTimeout      time.Duration // per-document deadline; 0 disables
}

// Deps are the injected collaborators of a Service. Nil entries disable
// the corresponding method regardless of detected capabilities.
type Deps struct {
	Decoder *Decoder
	NativeA PDFTextExtractor
	NativeB PDFTextExtractor
	OCR     OCRExtractor
	Cache   CacheStore
	Caps    Capabilities
}

// Service orchestrates extraction for single documents and batches. It is
// constructed explicitly and owned by the caller; there is no package-level
// instance.
type Service struct {
	cfg     Config
	decoder *Decoder
	nativeA PDFTextExtractor
	nativeB PDFTextExtractor
	ocr     OCRExtractor
	cache   CacheStore
	caps    Capabilities
}

func New(cfg Config, deps Deps) *Service {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	if deps.Decoder == nil {
		deps.Decoder = NewDecoder()
	}

	s := &Service{
		cfg:     cfg,
		decoder: deps.Decoder,
		nativeA: deps.NativeA,
		nativeB: deps.NativeB,
		ocr:     deps.OCR,
		cache:   deps.Cache,
		caps:    deps.Caps,
	}

	slog.Info("document service initialized",
		"native_a", s.caps.NativeA && s.nativeA != nil,
		"native_b", s.caps.NativeB && s.nativeB != nil,
		"ocr", s.caps.OCR && s.ocr != nil,
		"preprocessing", s.caps.Preprocessing,
		"cache", cfg.UseCache,
		"high_quality", cfg.HighQuality,
	)

	return s
}

// ProcessDocuments extracts text from a batch. Documents are independent:
// a failing document is logged and skipped, never fails the batch. Results
// keep input order and join as named sections; an empty batch yields "".
func (s *Service) ProcessDocuments(ctx context.Context, docs []Document) string {
	if len(docs) == 0 {
		return ""
	}

	sections := make([]string, len(docs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Concurrency)
	for i := range docs {
		g.Go(func() error {
			doc := docs[i]
			res, err := s.ProcessDocument(gctx, doc)
			if err != nil {
				slog.Error("error processing document", "name", doc.Name, "error", err)
				return nil
			}
			if res.Text != "" {
				name := doc.Name
				if name == "" {
					name = "Unknown"
				}
				sections[i] = fmt.Sprintf("--- Document: %s ---\n%s", name, res.Text)
				slog.Info("extracted document text",
					"name", name, "chars", len(res.Text), "method", res.Method)
			}
			return nil
		})
	}
	g.Wait()

	out := sections[:0]
	for _, sec := range sections {
		if sec != "" {
			out = append(out, sec)
		}
	}
	return strings.Join(out, "\n\n")
}

// ProcessDocument extracts text from a single document. Only input
// problems (unsupported type, bad base64, oversized content) surface as
// errors; exhausted extraction returns an empty Result.
func (s *Service) ProcessDocument(ctx context.Context, doc Document) (Result, error) {
	raw, err := DecodeContent(doc.Content)
	if err != nil {
		return Result{}, newInputError(CodeInvalidEncoding,
			"invalid document content encoding", err)
	}
	return s.Extract(ctx, doc.Name, doc.Type, raw)
}

// Extract runs the pipeline over already-decoded bytes. Background workers
// use this entry point; ProcessDocument wraps it for base64 inputs.
func (s *Service) Extract(ctx context.Context, name, docType string, raw []byte) (Result, error) {
	docType = strings.ToLower(docType)
	if docType != TypeText && docType != TypePDF {
		return Result{}, newInputError(CodeUnsupportedType,
			fmt.Sprintf("unsupported document type: %s", docType), nil)
	}

	if len(raw) > MaxDocumentSize {
		return Result{}, newInputError(CodeTooLarge,
			fmt.Sprintf("document too large: %d bytes (max %d)", len(raw), MaxDocumentSize), nil)
	}

	if s.cfg.DocTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.DocTimeout)
		defer cancel()
	}

	slog.Info("processing document", "name", name, "type", docType, "bytes", len(raw))

	if docType == TypeText {
		return Result{Text: s.decoder.Decode(raw), Method: MethodDecode}, nil
	}
	return s.extractPDF(ctx, name, raw), nil
}

// DecodeContent accepts standard base64, tolerating whitespace the way
// upstream clients tend to produce it.
func DecodeContent(content string) ([]byte, error) {
	compact := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\n', '\r':
			return -1
		}
		return r
	}, content)
	return base64.StdEncoding.DecodeString(compact)
}

// CacheKey is the content digest used to address cached results: a pure
// function of the raw bytes, so identical content maps to the same entry
// whatever the document is called.
func CacheKey(content []byte) string {
	sum := md5.Sum(content)
	return hex.EncodeToString(sum[:])
}

func (s *Service) extractPDF(ctx context.Context, name string, raw []byte) Result {
	key := CacheKey(raw)

	if s.cfg.UseCache && s.cache != nil {
		if text, ok := s.cache.Get(ctx, key); ok && text != "" {
			slog.Info("using cached result", "name", name)
			return Result{Text: text, Method: MethodCache}
		}
	}

	res := s.extractPDFUncached(ctx, name, raw)

	if s.cfg.UseCache && s.cache != nil && res.Text != "" {
		s.cache.Set(ctx, key, res.Text)
	}

	return res
}

// extractPDFUncached runs the fallback chain: native structural extraction,
// table-aware extraction, then OCR. Each method's failure is logged and
// advances the chain; OCR output is final and accepted when non-empty.
func (s *Service) extractPDFUncached(ctx context.Context, name string, raw []byte) Result {
	if s.caps.NativeA && s.nativeA != nil {
		if res, ok := s.tryNative(ctx, s.nativeA, MethodNativeA, raw); ok {
			return res
		}
	}

	if s.caps.NativeB && s.nativeB != nil {
		if res, ok := s.tryNative(ctx, s.nativeB, MethodNativeB, raw); ok {
			return res
		}
	}

	if s.caps.OCR && s.ocr != nil {
		text, pages, err := s.ocr.Extract(ctx, raw)
		switch {
		case err != nil:
			slog.Error("OCR extraction failed", "name", name, "error", err)
		case strings.TrimSpace(text) != "":
			res := Result{Text: text, Method: MethodOCR, Pages: pages}
			if s.cfg.OCRQualityCheck && !Acceptable(text) {
				res.LowConfidence = true
				slog.Warn("OCR output below quality threshold, keeping low-confidence text", "name", name)
			}
			slog.Info("OCR extracted text", "name", name, "chars", len(text), "pages", pages)
			return res
		}
	}

	slog.Warn("no viable text could be extracted from PDF", "name", name)
	return Result{}
}

func (s *Service) tryNative(ctx context.Context, ex PDFTextExtractor, method Method, raw []byte) (Result, bool) {
	text, err := ex.Extract(ctx, raw)
	if err != nil {
		slog.Warn("native extraction failed", "method", ex.Name(), "error", err)
		return Result{}, false
	}
	if !Acceptable(text) {
		slog.Info("extraction insufficient, trying next method", "method", ex.Name())
		return Result{}, false
	}
	slog.Info("native extraction succeeded", "method", ex.Name(), "chars", len(text))
	return Result{Text: text, Method: method}, true
}
