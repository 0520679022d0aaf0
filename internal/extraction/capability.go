package extraction

import (
	"context"
	"log/slog"
)

// Capabilities records which extraction methods the runtime environment
// supports. It is computed once at startup; the fallback chain skips
// unavailable methods instead of consulting scattered globals.
type Capabilities struct {
	NativeA       bool `json:"native_a"`
	NativeB       bool `json:"native_b"`
	OCR           bool `json:"ocr"`
	Preprocessing bool `json:"preprocessing"`
}

// ToolChecker probes for an external tool dependency.
type ToolChecker interface {
	Available(ctx context.Context) bool
}

// DetectCapabilities probes the environment. The native extractors are
// pure Go and always present; OCR depends on external binaries checked
// through ocrTools; preprocessing is a build-time/config capability.
func DetectCapabilities(ctx context.Context, ocrTools ToolChecker, preprocessing bool) Capabilities {
	caps := Capabilities{
		NativeA:       true,
		NativeB:       true,
		Preprocessing: preprocessing,
	}
	if ocrTools != nil {
		caps.OCR = ocrTools.Available(ctx)
	}

	slog.Info("native PDF extraction", "available", caps.NativeA)
	slog.Info("table-aware PDF extraction", "available", caps.NativeB)
	slog.Info("OCR toolchain", "available", caps.OCR)
	slog.Info("image preprocessing", "available", caps.Preprocessing)

	return caps
}
