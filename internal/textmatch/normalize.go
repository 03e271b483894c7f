// Package textmatch holds the text normalization and similarity measure shared
// by vendor matching and duplicate detection.
package textmatch

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// Normalize lowercases s, replaces punctuation and symbols with spaces,
// collapses runs of whitespace and trims the result. Letters of any script,
// digits and combining marks are preserved.
func Normalize(s string) string {
	s = norm.NFKC.String(s)

	var b strings.Builder
	b.Grow(len(s))

	pendingSpace := false
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.Is(unicode.Mn, r) || unicode.Is(unicode.Mc, r):
			if pendingSpace && b.Len() > 0 {
				b.WriteByte(' ')
			}
			pendingSpace = false
			b.WriteRune(unicode.ToLower(r))
		default:
			pendingSpace = true
		}
	}

	return b.String()
}

// Tokens splits normalized text into words.
func Tokens(s string) []string {
	return strings.Fields(Normalize(s))
}

// SignificantTokens returns the tokens longer than minRunes characters that
// are not purely numeric.
func SignificantTokens(s string, minRunes int) []string {
	var out []string
	for _, tok := range Tokens(s) {
		if utf8.RuneCountInString(tok) <= minRunes || isNumeric(tok) {
			continue
		}
		out = append(out, tok)
	}
	return out
}

func isNumeric(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return s != ""
}

// Contains reports whether the normalized sub occurs anywhere in the
// normalized text. Matching is plain substring containment so scripts written
// without spaces between words still match. An empty sub never matches.
func Contains(text, sub string) bool {
	if sub == "" {
		return false
	}
	return strings.Contains(text, sub)
}
