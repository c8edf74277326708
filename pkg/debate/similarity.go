package debate

import "strings"

// TermOverlap is the default convergence score: the Jaccard overlap of the
// significant terms (longer than three characters, case-folded) in two
// replies. Crude, but cheap and good enough to notice two panelists saying
// the same thing.
func TermOverlap(a, b string) float64 {
	termsA := significantTerms(a)
	termsB := significantTerms(b)
	if len(termsA) == 0 && len(termsB) == 0 {
		return 1.0
	}
	if len(termsA) == 0 || len(termsB) == 0 {
		return 0
	}

	common := 0
	for term := range termsA {
		if termsB[term] {
			common++
		}
	}
	union := len(termsA) + len(termsB) - common
	return float64(common) / float64(union)
}

func significantTerms(text string) map[string]bool {
	terms := make(map[string]bool)
	for _, word := range strings.Fields(strings.ToLower(text)) {
		word = strings.Trim(word, ".,;:!?\"'()[]")
		if len(word) > 3 {
			terms[word] = true
		}
	}
	return terms
}
