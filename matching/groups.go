package matching

import (
	"sort"
	"strconv"
	"time"

	"gonum.org/v1/gonum/stat"

	"vibin_matcher/models"
)

const (
	// DefaultSeedThreshold is the minimum score for a seed pair.
	DefaultSeedThreshold = 0.3
	// DefaultViabilityThreshold is the minimum score every pair inside a
	// group must reach.
	DefaultViabilityThreshold = 0.3
	// DefaultMaxMergeIterations bounds the merge phase.
	DefaultMaxMergeIterations = 10

	defaultPreferredSize = 2
)

// GroupFormationEngine turns the friendship sub-pool into groups of 2 to
// MaxGroupSize members.
//
// Candidates without a location, time windows or activities are dropped.
// Viable candidates are seeded into disjoint pairs, then groups are grown
// one merge at a time, always taking the merge with the largest positive
// benefit, until no merge helps or MaxIterations is reached.
type GroupFormationEngine struct {
	Scorer             *Scorer
	SeedThreshold      float64
	ViabilityThreshold float64
	MaxIterations      int
	MaxGroupSize       int
}

// NewGroupFormationEngine returns an engine with the default thresholds.
func NewGroupFormationEngine(s *Scorer) *GroupFormationEngine {
	return &GroupFormationEngine{
		Scorer:             s,
		SeedThreshold:      DefaultSeedThreshold,
		ViabilityThreshold: DefaultViabilityThreshold,
		MaxIterations:      DefaultMaxMergeIterations,
		MaxGroupSize:       models.MaxGroupSize,
	}
}

// IsViableCandidate reports whether c carries enough intent to be grouped.
func IsViableCandidate(c models.Candidate) bool {
	return c.Intention.Location != "" &&
		len(c.Intention.TimeWindows) > 0 &&
		len(c.Intention.Activities) > 0
}

// group is the clustering state of one forming group. members holds indexes
// into the viable slice, kept sorted.
type group struct {
	members []int
	avg     float64
	score   float64
}

type merge struct {
	left    int // index into groups
	right   int // index into groups, or -1 for a single
	single  int // index into singles when right == -1
	merged  group
	benefit float64
}

// Form runs all three phases and returns the final groups.
func (e *GroupFormationEngine) Form(cands []models.Candidate, now time.Time) []Grouping {
	var viable []models.Candidate
	for _, c := range cands {
		if IsViableCandidate(c) {
			viable = append(viable, c)
		}
	}
	if len(viable) < models.MinGroupSize {
		return nil
	}

	matrix := BuildMatrix(e.Scorer, viable, ModeFriendship, now)
	prefs := make([]int, len(viable))
	for i, c := range viable {
		prefs[i] = preferredGroupSize(c.Survey.Get(models.QuestionGroupSize))
	}

	seeds := greedyDisjoint(rankedPairs(matrix, e.SeedThreshold), len(viable))
	seeded := make([]bool, len(viable))
	groups := make([]group, 0, len(seeds))
	for _, p := range seeds {
		seeded[p.i], seeded[p.j] = true, true
		groups = append(groups, e.evaluate([]int{p.i, p.j}, matrix, prefs))
	}
	var singles []int
	for i := range viable {
		if !seeded[i] {
			singles = append(singles, i)
		}
	}

	for iter := 0; iter < e.MaxIterations; iter++ {
		best, ok := e.bestMerge(groups, singles, matrix, prefs)
		if !ok {
			break
		}
		groups, singles = applyMerge(groups, singles, best)
	}

	out := make([]Grouping, 0, len(groups))
	for _, g := range groups {
		members := make([]models.Candidate, len(g.members))
		for k, idx := range g.members {
			members[k] = viable[idx]
		}
		out = append(out, Grouping{Members: members, Score: g.avg})
	}
	return out
}

func (e *GroupFormationEngine) bestMerge(groups []group, singles []int, matrix Matrix, prefs []int) (merge, bool) {
	var best merge
	found := false
	consider := func(m merge) {
		if m.benefit > 0 && (!found || m.benefit > best.benefit) {
			best = m
			found = true
		}
	}

	for a := 0; a < len(groups); a++ {
		for b := a + 1; b < len(groups); b++ {
			members := unionSorted(groups[a].members, groups[b].members)
			if !e.viableSet(members, matrix) {
				continue
			}
			merged := e.evaluate(members, matrix, prefs)
			consider(merge{
				left: a, right: b, merged: merged,
				benefit: merged.score - groups[a].score - groups[b].score,
			})
		}
	}
	for a := range groups {
		for s, idx := range singles {
			members := unionSorted(groups[a].members, []int{idx})
			if !e.viableSet(members, matrix) {
				continue
			}
			merged := e.evaluate(members, matrix, prefs)
			consider(merge{
				left: a, right: -1, single: s, merged: merged,
				benefit: merged.score - groups[a].score,
			})
		}
	}
	return best, found
}

func applyMerge(groups []group, singles []int, m merge) ([]group, []int) {
	next := make([]group, 0, len(groups))
	for i, g := range groups {
		if i == m.left || i == m.right {
			continue
		}
		next = append(next, g)
	}
	next = append(next, m.merged)

	if m.right == -1 {
		singles = append(singles[:m.single:m.single], singles[m.single+1:]...)
	}
	return next, singles
}

// viableSet reports whether members fit the size cap and every pair among
// them meets the viability threshold.
func (e *GroupFormationEngine) viableSet(members []int, matrix Matrix) bool {
	if e.MaxGroupSize > 0 && len(members) > e.MaxGroupSize {
		return false
	}
	for x := 0; x < len(members); x++ {
		for y := x + 1; y < len(members); y++ {
			if matrix[members[x]][members[y]] < e.ViabilityThreshold {
				return false
			}
		}
	}
	return true
}

func (e *GroupFormationEngine) evaluate(members []int, matrix Matrix, prefs []int) group {
	avg := avgPairwise(members, matrix)
	size := len(members)
	return group{
		members: members,
		avg:     avg,
		score:   avg * groupPriority(size, modalPreference(members, prefs)) * float64(size),
	}
}

func avgPairwise(members []int, matrix Matrix) float64 {
	var scores []float64
	for x := 0; x < len(members); x++ {
		for y := x + 1; y < len(members); y++ {
			scores = append(scores, matrix[members[x]][members[y]])
		}
	}
	if len(scores) == 0 {
		return 0
	}
	return stat.Mean(scores, nil)
}

// groupPriority rewards groups that hit their members' preferred size and
// grow beyond a pair.
func groupPriority(size, preferred int) float64 {
	p := 1.0
	if size == preferred {
		p += 0.5
	}
	if size > preferred {
		p += 0.2
	}
	if size > 2 {
		p += 0.1 * float64(size-2)
	}
	return p
}

// modalPreference is the most common preferred size among members, the
// smaller one on ties.
func modalPreference(members []int, prefs []int) int {
	counts := make(map[int]int, len(members))
	for _, idx := range members {
		counts[prefs[idx]]++
	}
	best, bestCount := defaultPreferredSize, 0
	for size, n := range counts {
		if n > bestCount || (n == bestCount && size < best) {
			best, bestCount = size, n
		}
	}
	return best
}

// preferredGroupSize reads a group_size survey answer.
func preferredGroupSize(answer string) int {
	switch answer {
	case "", "small", "pair", "couple":
		return defaultPreferredSize
	case "medium":
		return 4
	case "large":
		return 6
	}
	if n, err := strconv.Atoi(answer); err == nil && n >= models.MinGroupSize && n <= models.MaxGroupSize {
		return n
	}
	return defaultPreferredSize
}

func unionSorted(a, b []int) []int {
	out := make([]int, 0, len(a)+len(b))
	out = append(out, a...)
	out = append(out, b...)
	sort.Ints(out)
	return out
}
