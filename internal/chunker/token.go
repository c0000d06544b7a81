package chunker

import "unicode/utf8"

// CharsPerToken converts the approximate token unit used in configuration to
// a character budget. Roughly 4 characters per token for English prose.
const CharsPerToken = 4

// TokensToChars converts an approximate token count to characters.
func TokensToChars(tokens int) int {
	return tokens * CharsPerToken
}

// EstimateTokens gives a rough token count using the same 4 chars/token ratio.
func EstimateTokens(text string) int {
	n := utf8.RuneCountInString(text)
	if n == 0 {
		return 0
	}
	return (n + CharsPerToken - 1) / CharsPerToken
}
