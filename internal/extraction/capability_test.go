package extraction

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

type stubChecker struct{ ok bool }

func (s stubChecker) Available(ctx context.Context) bool { return s.ok }

func TestDetectCapabilities(t *testing.T) {
	caps := DetectCapabilities(context.Background(), stubChecker{ok: true}, true)
	assert.True(t, caps.NativeA)
	assert.True(t, caps.NativeB)
	assert.True(t, caps.OCR)
	assert.True(t, caps.Preprocessing)

	caps = DetectCapabilities(context.Background(), stubChecker{ok: false}, false)
	assert.True(t, caps.NativeA)
	assert.False(t, caps.OCR)
	assert.False(t, caps.Preprocessing)
}

func TestDetectCapabilitiesNilChecker(t *testing.T) {
	caps := DetectCapabilities(context.Background(), nil, true)
	assert.False(t, caps.OCR)
}
