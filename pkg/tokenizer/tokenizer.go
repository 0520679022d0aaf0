// Package tokenizer estimates LLM token counts for prompt sizing. The
// numbers are heuristic; providers report exact usage after the fact.
package tokenizer

import (
	"strings"
	"unicode/utf8"
)

// CountTokens estimates how many tokens a piece of text will occupy.
// English runs near four characters or three quarters of a word per token;
// the larger of the two guesses is returned so budgets err high on dense
// extracted text like tables.
func CountTokens(text string) int {
	if text == "" {
		return 0
	}
	byWords := len(strings.Fields(text)) * 4 / 3
	byChars := utf8.RuneCountInString(text) / 4
	if byChars > byWords {
		return byChars
	}
	return max(byWords, 1)
}
