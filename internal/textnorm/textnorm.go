// Package textnorm canonicalizes raw text and tokenizes it for lexical
// scoring. Normalization only touches whitespace: multilingual text must
// survive byte-for-byte otherwise, so there is no diacritic stripping and
// no language-aware analysis here.
package textnorm

import (
	"strings"
)

// Normalize collapses any run of whitespace characters to a single space
// and trims leading and trailing whitespace. Non-whitespace characters are
// preserved exactly.
func Normalize(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// Tokenize normalizes text, lowercases it with locale-invariant case
// folding, and splits on whitespace. Empty input yields an empty slice.
func Tokenize(text string) []string {
	normalized := Normalize(text)
	if normalized == "" {
		return []string{}
	}
	return strings.Split(strings.ToLower(normalized), " ")
}
