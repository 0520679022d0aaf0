package extraction

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// MinViableTextLength is the minimum trimmed length for extracted text
	// to count as a usable result.
	MinViableTextLength = 20

	minViableWordCount  = 5
	maxSpecialCharRatio = 0.5
)

// Acceptable reports whether extracted text is good enough to stop the
// fallback chain. It rejects short output, output with too few words, and
// output dominated by non-alphanumeric characters (a corruption indicator).
// The same predicate is applied to every native extraction method.
func Acceptable(text string) bool {
	if utf8.RuneCountInString(strings.TrimSpace(text)) < MinViableTextLength {
		return false
	}

	if len(strings.Fields(text)) < minViableWordCount {
		return false
	}

	var total, special int
	for _, r := range text {
		total++
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && !unicode.IsSpace(r) {
			special++
		}
	}
	if total > 0 && float64(special)/float64(total) > maxSpecialCharRatio {
		return false
	}

	return true
}
