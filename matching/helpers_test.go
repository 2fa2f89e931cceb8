package matching

import (
	"time"

	"vibin_matcher/models"
)

var testNow = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

type candOpt func(*models.Candidate)

func newCand(id string, opts ...candOpt) models.Candidate {
	c := models.Candidate{
		Entry: models.PoolEntry{
			EntryID:     "e-" + id,
			IntentionID: "i-" + id,
			UserID:      "u-" + id,
			JoinedAt:    testNow,
		},
		Intention: models.Intention{
			ID:             "i-" + id,
			UserID:         "u-" + id,
			Location:       "Austin",
			TimeWindows:    models.NewTagSet("saturday evening"),
			ConnectionType: models.ConnectionFriends,
			Activities:     models.NewTagSet("hiking"),
		},
		Profile: models.UserProfile{UserID: "u-" + id},
		Survey:  models.SurveyAnswers{},
	}
	for _, o := range opts {
		o(&c)
	}
	return c
}

func withLocation(loc string) candOpt {
	return func(c *models.Candidate) { c.Intention.Location = loc }
}

func withWindows(tags ...string) candOpt {
	return func(c *models.Candidate) { c.Intention.TimeWindows = models.NewTagSet(tags...) }
}

func withActivities(tags ...string) candOpt {
	return func(c *models.Candidate) { c.Intention.Activities = models.NewTagSet(tags...) }
}

func withJoined(t time.Time) candOpt {
	return func(c *models.Candidate) { c.Entry.JoinedAt = t }
}

func withTier(tier int) candOpt {
	return func(c *models.Candidate) { c.Entry.Tier = tier }
}

func withAge(age int) candOpt {
	return func(c *models.Candidate) { c.Profile.Age = age }
}

func withAnswer(question, value string) candOpt {
	return func(c *models.Candidate) { c.Survey[question] = value }
}

func romantic(gender, orientation string) candOpt {
	return func(c *models.Candidate) {
		c.Intention.ConnectionType = models.ConnectionRomantic
		c.Profile.Gender = gender
		if orientation != "" {
			c.Survey[models.QuestionSexualOrientation] = orientation
		}
	}
}

func memberIDs(g Grouping) []string {
	ids := make([]string, 0, len(g.Members))
	for _, m := range g.Members {
		ids = append(ids, m.Entry.EntryID)
	}
	return ids
}
