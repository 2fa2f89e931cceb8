package matching

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vibin_matcher/models"
)

func TestScoreFriendsSameCityFreshPair(t *testing.T) {
	s := NewScorer(DefaultWeights())
	a := newCand("a")
	b := newCand("b")

	require.Equal(t, 0, WaitingDays(a, b, testNow))
	// intention .20 + activities .30 + unknown ages .10*.5 + no survey + location .15 + time .15
	assert.InDelta(t, 0.85, s.Score(a, b, ModeFriendship, testNow), 1e-9)
}

func TestScoreLocationMismatchIsZero(t *testing.T) {
	s := NewScorer(DefaultWeights())
	a := newCand("a", withAge(30), withAnswer("q1", "yes"))
	b := newCand("b", withLocation("Dallas"), withAge(30), withAnswer("q1", "yes"))

	assert.Zero(t, s.Score(a, b, ModeFriendship, testNow))
	assert.Zero(t, s.Score(a, b, ModeRomantic, testNow))
}

func TestScoreGates(t *testing.T) {
	s := NewScorer(DefaultWeights())
	tests := []struct {
		name string
		a, b models.Candidate
		mode Mode
		zero bool
	}{
		{
			name: "disjoint time windows",
			a:    newCand("a", withWindows("saturday evening")),
			b:    newCand("b", withWindows("sunday morning")),
			mode: ModeFriendship,
			zero: true,
		},
		{
			name: "empty location on both sides",
			a:    newCand("a", withLocation("")),
			b:    newCand("b", withLocation("")),
			mode: ModeFriendship,
			zero: true,
		},
		{
			name: "same user twice",
			a:    newCand("a"),
			b: func() models.Candidate {
				c := newCand("b")
				c.Intention.UserID = "u-a"
				return c
			}(),
			mode: ModeFriendship,
			zero: true,
		},
		{
			name: "straight men",
			a:    newCand("a", romantic("male", "straight")),
			b:    newCand("b", romantic("male", "straight")),
			mode: ModeRomantic,
			zero: true,
		},
		{
			name: "straight man and woman",
			a:    newCand("a", romantic("male", "straight")),
			b:    newCand("b", romantic("female", "straight")),
			mode: ModeRomantic,
		},
		{
			name: "orientation gate ignored for friendship",
			a:    newCand("a", romantic("male", "straight")),
			b:    newCand("b", romantic("male", "straight")),
			mode: ModeFriendship,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.Score(tt.a, tt.b, tt.mode, testNow)
			if tt.zero {
				assert.Zero(t, got)
			} else {
				assert.Greater(t, got, 0.0)
			}
		})
	}
}

func TestScoreStarvationMultiplier(t *testing.T) {
	s := NewScorer(DefaultWeights())
	twoDaysAgo := testNow.Add(-50 * time.Hour)
	a := newCand("a", withJoined(twoDaysAgo), withActivities("chess"))
	b := newCand("b", withJoined(twoDaysAgo), withActivities("hiking"))

	require.Equal(t, 2, WaitingDays(a, b, testNow))
	// warm row: intention .18 + no activity overlap + age .08*.5 + no survey + location .15 + time .19 = .56
	assert.InDelta(t, 0.56*1.44, s.Score(a, b, ModeFriendship, testNow), 1e-9)
}

func TestScoreIsClampedAndSymmetric(t *testing.T) {
	s := NewScorer(DefaultWeights())
	longAgo := testNow.Add(-6 * 24 * time.Hour)
	a := newCand("a", withJoined(longAgo), withAge(30), withAnswer("q", "x"))
	b := newCand("b", withJoined(longAgo), withAge(31), withAnswer("q", "x"))

	ab := s.Score(a, b, ModeFriendship, testNow)
	assert.Equal(t, 1.0, ab)
	assert.Equal(t, ab, s.Score(b, a, ModeFriendship, testNow))
}

func TestWaitingDaysUsesMostRecentJoin(t *testing.T) {
	a := newCand("a", withJoined(testNow.Add(-5*24*time.Hour)))
	b := newCand("b", withJoined(testNow.Add(-30*time.Hour)))
	assert.Equal(t, 1, WaitingDays(a, b, testNow))

	future := newCand("c", withJoined(testNow.Add(time.Hour)))
	assert.Equal(t, 0, WaitingDays(a, future, testNow))
}

func TestAgeCompatibility(t *testing.T) {
	tests := []struct {
		name       string
		ageA, ageB int
		days       int
		want       float64
	}{
		{"unknown age", 0, 30, 0, 0.5},
		{"fresh close", 30, 33, 0, 1},
		{"fresh eight apart", 25, 33, 1, 0.4},
		{"warm eight apart", 25, 33, 2, 0.7},
		{"stale eight apart", 25, 33, 5, 0.7},
		{"fresh far apart", 20, 45, 0, 0.1},
		{"stale far apart", 20, 45, 4, 0.2},
		{"stale within tolerance", 30, 37, 4, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ageCompatibility(tt.ageA, tt.ageB, tt.days))
		})
	}
}

func TestIntentionAlignmentPartialCreditAfterFourDays(t *testing.T) {
	a := newCand("a")
	b := newCand("b", func(c *models.Candidate) { c.Intention.ConnectionType = models.ConnectionRomantic })

	assert.Equal(t, 1.0, intentionAlignment(a, newCand("c"), 0))
	assert.Equal(t, 0.0, intentionAlignment(a, b, 3))
	assert.Equal(t, 0.5, intentionAlignment(a, b, 4))
}

func TestSurveyMatchRatio(t *testing.T) {
	a := models.SurveyAnswers{"q1": "x", "q2": "y"}
	b := models.SurveyAnswers{"q1": "x", "q3": "z"}
	assert.InDelta(t, 1.0/3.0, surveyMatchRatio(a, b), 1e-9)
	assert.Zero(t, surveyMatchRatio(models.SurveyAnswers{}, models.SurveyAnswers{}))
	assert.Equal(t, 1.0, surveyMatchRatio(a, a))
}

func TestDefaultWeightsValidate(t *testing.T) {
	require.NoError(t, DefaultWeights().Validate())

	w := DefaultWeights()
	w.Friendship.Warm.Age = 0.5
	assert.Error(t, w.Validate())

	w = DefaultWeights()
	w.Romantic.Fresh.Time = -0.1
	w.Romantic.Fresh.Location = 0.35
	assert.Error(t, w.Validate())
}
