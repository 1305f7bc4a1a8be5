// Package fuzzy scores candidate titles against a query and picks the
// most similar one above a confidence threshold.
package fuzzy

import (
	"math"

	"pricewatch/lib/textutil"

	"github.com/antzucaro/matchr"
)

// SimilarityThreshold is the minimum score a candidate must reach to be
// treated as a confident match.
const SimilarityThreshold = 70

// CandidateWindow bounds how many search results are considered; results
// past the first few are noise.
const CandidateWindow = 5

// Ratio is a character-level similarity score in [0, 100] derived from
// the Levenshtein distance. Equal strings score 100.
func Ratio(a, b string) int {
	if a == b {
		return 100
	}
	longest := len([]rune(a))
	if l := len([]rune(b)); l > longest {
		longest = l
	}
	if longest == 0 {
		return 100
	}
	dist := matchr.Levenshtein(a, b)
	return int(math.Round(100 * (1 - float64(dist)/float64(longest))))
}

type Candidate struct {
	ID    int
	Title string
}

type Match struct {
	ID    int
	Score int
}

// BestMatch normalizes the query and every candidate title symmetrically,
// scores the first CandidateWindow candidates in order and returns the
// highest scorer, keeping the earliest candidate on ties. The second
// return is false when no candidate clears SimilarityThreshold.
func BestMatch(query string, candidates []Candidate) (Match, bool) {
	normalizedQuery := textutil.NormalizeTitle(query)

	if len(candidates) > CandidateWindow {
		candidates = candidates[:CandidateWindow]
	}

	best := Match{ID: -1}
	for _, candidate := range candidates {
		score := Ratio(normalizedQuery, textutil.NormalizeTitle(candidate.Title))
		if score > best.Score {
			best.Score = score
			best.ID = candidate.ID
		}
	}

	if best.ID < 0 || best.Score < SimilarityThreshold {
		return Match{}, false
	}
	return best, true
}
