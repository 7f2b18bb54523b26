// Package similarity detects near-duplicate follow-up questions with a
// token-set Jaccard index over normalized text.
package similarity

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// DefaultThreshold is the similarity above which two phrasings count as the
// same question.
const DefaultThreshold = 0.78

// Fold lowercases s and strips diacritics ("Études" -> "etudes").
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(out)
}

// Normalize folds s, replaces punctuation with spaces and collapses runs of
// whitespace.
func Normalize(s string) string {
	folded := Fold(s)
	mapped := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return ' '
	}, folded)
	return strings.Join(strings.Fields(mapped), " ")
}

func tokens(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, tok := range strings.Fields(Normalize(s)) {
		set[tok] = struct{}{}
	}
	return set
}

// Jaccard returns |A∩B| / |A∪B| over the normalized token sets of a and b.
// Two empty inputs are identical.
func Jaccard(a, b string) float64 {
	ta, tb := tokens(a), tokens(b)
	if len(ta) == 0 && len(tb) == 0 {
		return 1
	}
	inter := 0
	for tok := range ta {
		if _, ok := tb[tok]; ok {
			inter++
		}
	}
	union := len(ta) + len(tb) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

// IsDuplicate reports whether candidate repeats lastAssistant or any of
// previous: identical after normalization, or more similar than threshold.
// A non-positive threshold selects DefaultThreshold.
func IsDuplicate(candidate string, previous []string, lastAssistant string, threshold float64) bool {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	normalized := Normalize(candidate)
	check := func(other string) bool {
		if strings.TrimSpace(other) == "" {
			return false
		}
		if normalized == Normalize(other) {
			return true
		}
		return Jaccard(candidate, other) > threshold
	}
	if check(lastAssistant) {
		return true
	}
	for _, p := range previous {
		if check(p) {
			return true
		}
	}
	return false
}
