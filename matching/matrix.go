package matching

import (
	"sort"
	"time"

	"vibin_matcher/models"
)

// Matrix is a symmetric table of pairwise scores with a zero diagonal.
type Matrix [][]float64

// BuildMatrix scores every unordered pair of cands under mode.
func BuildMatrix(s *Scorer, cands []models.Candidate, mode Mode, now time.Time) Matrix {
	n := len(cands)
	m := make(Matrix, n)
	for i := range m {
		m[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			v := s.Score(cands[i], cands[j], mode, now)
			m[i][j] = v
			m[j][i] = v
		}
	}
	return m
}

type scoredPair struct {
	i, j  int
	score float64
}

// rankedPairs lists pairs scoring strictly above threshold, best first. Pairs are
// enumerated in (i, j) order and the sort is stable, so ties keep candidate
// order.
func rankedPairs(m Matrix, threshold float64) []scoredPair {
	var pairs []scoredPair
	for i := range m {
		for j := i + 1; j < len(m); j++ {
			if m[i][j] > threshold {
				pairs = append(pairs, scoredPair{i: i, j: j, score: m[i][j]})
			}
		}
	}
	sort.SliceStable(pairs, func(a, b int) bool {
		return pairs[a].score > pairs[b].score
	})
	return pairs
}

// greedyDisjoint walks ranked pairs and keeps each one whose members are both
// still unclaimed.
func greedyDisjoint(pairs []scoredPair, n int) []scoredPair {
	claimed := make([]bool, n)
	var picked []scoredPair
	for _, p := range pairs {
		if claimed[p.i] || claimed[p.j] {
			continue
		}
		claimed[p.i] = true
		claimed[p.j] = true
		picked = append(picked, p)
	}
	return picked
}
