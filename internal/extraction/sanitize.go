package extraction

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// DefaultMaxTextLength caps sanitized text before it is handed to storage
// or prompt assembly.
const DefaultMaxTextLength = 50000

var intraLineSpace = regexp.MustCompile(`[ \t]+`)

// Sanitize strips NUL bytes, collapses runs of spaces and tabs within each
// line, drops empty lines, and truncates to maxLen (DefaultMaxTextLength
// when maxLen <= 0), appending a truncation marker.
func Sanitize(text string, maxLen int) string {
	if text == "" {
		return ""
	}
	if maxLen <= 0 {
		maxLen = DefaultMaxTextLength
	}

	text = strings.ReplaceAll(text, "\x00", "")

	lines := strings.Split(text, "\n")
	cleaned := lines[:0]
	for _, line := range lines {
		line = strings.TrimSpace(intraLineSpace.ReplaceAllString(line, " "))
		if line != "" {
			cleaned = append(cleaned, line)
		}
	}
	text = strings.Join(cleaned, "\n")

	if utf8.RuneCountInString(text) > maxLen {
		text = string([]rune(text)[:maxLen]) + "... [truncated]"
	}

	return text
}
