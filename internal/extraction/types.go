package extraction

import "context"

// MaxDocumentSize is the ceiling on decoded document bytes.
const MaxDocumentSize = 10 * 1024 * 1024

// Declared document types.
const (
	TypeText = "text"
	TypePDF  = "pdf"
)

// Document is one input to the pipeline: a display name, a declared type,
// and base64-encoded content. It lives only for the duration of one
// extraction call.
type Document struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Content string `json:"content"`
}

// Method identifies which strategy produced a result.
type Method string

const (
	MethodDecode  Method = "decode"
	MethodNativeA Method = "native-a"
	MethodNativeB Method = "native-b"
	MethodOCR     Method = "ocr"
	MethodCache   Method = "cache"
)

// Result is the outcome of extracting one document.
type Result struct {
	Text          string
	Method        Method
	Pages         int
	LowConfidence bool
}

// PDFTextExtractor pulls embedded text straight from a PDF's internal
// structure without rendering pixels.
type PDFTextExtractor interface {
	Name() string
	Extract(ctx context.Context, data []byte) (string, error)
}

// OCRExtractor derives text from rasterized pages. It is the last, most
// expensive fallback.
type OCRExtractor interface {
	Extract(ctx context.Context, data []byte) (text string, pages int, err error)
}

// CacheStore holds previously extracted text keyed by a content digest.
// Implementations must treat failures as miss/no-op; they never block the
// pipeline.
type CacheStore interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key, text string)
}
