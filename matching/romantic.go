package matching

import (
	"time"

	"vibin_matcher/models"
)

// Grouping is a set of candidates selected to become one match.
type Grouping struct {
	Members []models.Candidate
	Score   float64
}

// RomanticMatcher pairs the romantic sub-pool greedily by descending score.
// The result is an approximate maximum-weight matching.
type RomanticMatcher struct {
	Scorer *Scorer
}

// NewRomanticMatcher returns a matcher scoring with s.
func NewRomanticMatcher(s *Scorer) *RomanticMatcher {
	return &RomanticMatcher{Scorer: s}
}

// Match returns disjoint pairs with a positive score, best first.
func (m *RomanticMatcher) Match(cands []models.Candidate, now time.Time) []Grouping {
	matrix := BuildMatrix(m.Scorer, cands, ModeRomantic, now)
	picked := greedyDisjoint(rankedPairs(matrix, 0), len(cands))

	out := make([]Grouping, 0, len(picked))
	for _, p := range picked {
		out = append(out, Grouping{
			Members: []models.Candidate{cands[p.i], cands[p.j]},
			Score:   p.score,
		})
	}
	return out
}
