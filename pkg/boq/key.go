package boq

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
)

// NormalizeKey turns a description into the matching identity of a row:
// Unicode case folding, whitespace collapsed to single spaces, trailing
// punctuation removed. No other fuzziness is applied.
func NormalizeKey(description string) string {
	folded := cases.Fold().String(description)
	key := strings.Join(strings.Fields(folded), " ")
	return strings.TrimRightFunc(key, func(r rune) bool {
		return unicode.IsPunct(r) || unicode.IsSpace(r)
	})
}
