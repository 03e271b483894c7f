package textmatch

import (
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
)

// Similarity scores two strings in [0,1] using normalized Levenshtein
// distance over runes: 1 - distance/max(len(a), len(b)).
// It is symmetric, returns 1 for identical input and 0 when the strings
// share no aligned characters at all.
func Similarity(a, b string) float64 {
	if a == b {
		return 1
	}

	longest := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	if longest == 0 {
		return 1
	}

	return 1 - float64(Distance(a, b))/float64(longest)
}

// NormalizedSimilarity compares the normalized forms of a and b.
func NormalizedSimilarity(a, b string) float64 {
	return Similarity(Normalize(a), Normalize(b))
}

// Distance is the Levenshtein edit distance between a and b, counted in runes.
func Distance(a, b string) int {
	return levenshtein.ComputeDistance(a, b)
}
