package matching

import (
	"math"
	"time"

	"vibin_matcher/models"
)

// Mode selects the gates and weight table used by the scorer.
type Mode int

const (
	ModeRomantic Mode = iota
	ModeFriendship
)

func (m Mode) String() string {
	if m == ModeRomantic {
		return models.ConnectionRomantic
	}
	return models.ConnectionFriends
}

// starvationBase is raised to the number of waiting days and multiplied into
// every score that passed the gates.
const starvationBase = 1.2

// Scorer computes pairwise compatibility in [0,1]. It holds no mutable state
// and is safe for concurrent use.
type Scorer struct {
	weights Weights
}

// NewScorer returns a scorer over w.
func NewScorer(w Weights) *Scorer {
	return &Scorer{weights: w}
}

// WaitingDays is the number of whole days the more recent of the two
// candidates has been waiting at now.
func WaitingDays(a, b models.Candidate, now time.Time) int {
	latest := a.Entry.JoinedAt
	if b.Entry.JoinedAt.After(latest) {
		latest = b.Entry.JoinedAt
	}
	d := now.Sub(latest)
	if d <= 0 {
		return 0
	}
	return int(d / (24 * time.Hour))
}

// PassesGates reports whether a and b satisfy every hard constraint of mode.
func PassesGates(a, b models.Candidate, mode Mode) bool {
	if a.UserID() == b.UserID() {
		return false
	}
	if a.Intention.Location == "" || a.Intention.Location != b.Intention.Location {
		return false
	}
	if !a.Intention.TimeWindows.Intersects(b.Intention.TimeWindows) {
		return false
	}
	if mode == ModeRomantic && !OrientationCompatible(a, b) {
		return false
	}
	return true
}

// Score returns the compatibility of a and b under mode at now. Any failed
// gate yields 0.
func (s *Scorer) Score(a, b models.Candidate, mode Mode, now time.Time) float64 {
	if !PassesGates(a, b, mode) {
		return 0
	}

	days := WaitingDays(a, b, now)
	var w WeightRow
	if mode == ModeRomantic {
		w = s.weights.Romantic.row(days)
	} else {
		w = s.weights.Friendship.row(days)
	}

	score := w.Intention*intentionAlignment(a, b, days) +
		w.Activities*a.Intention.Activities.Jaccard(b.Intention.Activities) +
		w.Age*ageCompatibility(a.Profile.Age, b.Profile.Age, days) +
		w.Survey*surveyMatchRatio(a.Survey, b.Survey) +
		w.Location +
		w.Time

	score *= math.Pow(starvationBase, float64(days))
	return clamp01(score)
}

func intentionAlignment(a, b models.Candidate, days int) float64 {
	if a.Intention.ConnectionType == b.Intention.ConnectionType {
		return 1
	}
	if days >= 4 {
		return 0.5
	}
	return 0
}

type ageStep struct {
	maxDiff int
	credit  float64
}

var (
	ageStepsFresh = []ageStep{{3, 1}, {6, 0.7}, {10, 0.4}}
	ageStepsWarm  = []ageStep{{5, 1}, {8, 0.7}, {12, 0.4}}
	ageStepsStale = []ageStep{{7, 1}, {12, 0.7}, {18, 0.4}}
)

func ageCompatibility(ageA, ageB, days int) float64 {
	if ageA <= 0 || ageB <= 0 {
		return 0.5
	}
	diff := ageA - ageB
	if diff < 0 {
		diff = -diff
	}

	steps, floor := ageStepsFresh, 0.1
	switch {
	case days >= 4:
		steps, floor = ageStepsStale, 0.2
	case days >= 2:
		steps = ageStepsWarm
	}
	for _, st := range steps {
		if diff <= st.maxDiff {
			return st.credit
		}
	}
	return floor
}

// surveyMatchRatio is the share of questions answered by either side that
// both answered identically.
func surveyMatchRatio(a, b models.SurveyAnswers) float64 {
	union := len(a)
	same := 0
	for q, vb := range b {
		va, ok := a[q]
		if !ok {
			union++
			continue
		}
		if va == vb {
			same++
		}
	}
	if union == 0 {
		return 0
	}
	return float64(same) / float64(union)
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v) || v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
