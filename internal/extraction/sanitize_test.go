package extraction

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeCollapsesIntraLineSpace(t *testing.T) {
	got := Sanitize("a   b\t\tc\nd  e", 0)
	assert.Equal(t, "a b c\nd e", got)
}

func TestSanitizeDropsEmptyLines(t *testing.T) {
	got := Sanitize("first\n\n   \nsecond\n", 0)
	assert.Equal(t, "first\nsecond", got)
}

func TestSanitizeStripsNULBytes(t *testing.T) {
	got := Sanitize("he\x00llo wor\x00ld", 0)
	assert.Equal(t, "hello world", got)
}

func TestSanitizeTruncates(t *testing.T) {
	got := Sanitize(strings.Repeat("x", 120), 100)
	assert.Equal(t, strings.Repeat("x", 100)+"... [truncated]", got)
}

func TestSanitizeTruncatesOnRunes(t *testing.T) {
	got := Sanitize(strings.Repeat("é", 120), 100)
	assert.Equal(t, strings.Repeat("é", 100)+"... [truncated]", got)
}

func TestSanitizeEmpty(t *testing.T) {
	assert.Equal(t, "", Sanitize("", 0))
}
