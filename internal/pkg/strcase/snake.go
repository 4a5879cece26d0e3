// Package strcase converts Go identifiers into the snake_case keys used in API payloads.
package strcase

import (
	"strings"
	"unicode"
)

// Words splits a Go identifier at case boundaries, keeping initialisms together:
// "PendingUserID" -> [Pending User ID], "HTTPAddress" -> [HTTP Address].
func Words(s string) []string {
	runes := []rune(s)

	var words []string
	start := 0
	for i := 1; i < len(runes); i++ {
		if boundary(runes, i) {
			words = append(words, string(runes[start:i]))
			start = i
		}
	}
	if start < len(runes) {
		words = append(words, string(runes[start:]))
	}

	return words
}

// boundary reports whether a new word starts at runes[i].
func boundary(runes []rune, i int) bool {
	cur, prev := runes[i], runes[i-1]
	if !unicode.IsUpper(cur) {
		return false
	}
	if unicode.IsLower(prev) || unicode.IsDigit(prev) {
		return true
	}

	// last upper of an initialism followed by a lower: "HTTPServer" splits before S
	return unicode.IsUpper(prev) && i+1 < len(runes) && unicode.IsLower(runes[i+1])
}

// ToLowerSnake converts an identifier to lower snake_case.
func ToLowerSnake(s string) string {
	return strings.ToLower(strings.Join(Words(s), "_"))
}
