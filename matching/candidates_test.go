package matching

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vibin_matcher/models"
)

func poolRecord(id string, joined time.Time, payload string) models.PoolRecord {
	return models.PoolRecord{
		Entry: models.PoolEntry{EntryID: "e-" + id, IntentionID: "i-" + id, UserID: "u-" + id, JoinedAt: joined},
		Intention: &models.IntentionRecord{
			IntentionID:      "i-" + id,
			UserID:           "u-" + id,
			StructuredIntent: payload,
		},
		Profile: models.UserProfile{UserID: "u-" + id, Age: 28},
		Survey: []models.SurveyResponse{
			{UserID: "u-" + id, QuestionID: models.QuestionGroupSize, Value: " Medium "},
		},
	}
}

const friendsPayload = `{"connection_type":"friends","location":"Austin","time_windows":["Saturday Evening"],"activities":["hiking"]}`

func TestBuildCandidates(t *testing.T) {
	missing := poolRecord("missing", testNow, "")
	missing.Intention = nil

	records := []models.PoolRecord{
		poolRecord("late", testNow.Add(-time.Hour), friendsPayload),
		poolRecord("early", testNow.Add(-2*time.Hour), friendsPayload),
		poolRecord("broken", testNow, `{"connection_type":`),
		poolRecord("unknown-type", testNow, `{"connection_type":"business"}`),
		missing,
		poolRecord("stale", testNow.Add(-8*24*time.Hour), friendsPayload),
	}

	cands, excluded := BuildCandidates(records, testNow)

	require.Len(t, cands, 2)
	assert.Equal(t, "e-early", cands[0].Entry.EntryID)
	assert.Equal(t, "e-late", cands[1].Entry.EntryID)
	assert.Equal(t, models.TagSet{"saturday evening"}, cands[0].Intention.TimeWindows)
	assert.Equal(t, "medium", cands[0].Survey.Get(models.QuestionGroupSize))

	require.Len(t, excluded, 3)
	ids := []string{excluded[0].EntryID, excluded[1].EntryID, excluded[2].EntryID}
	assert.Equal(t, []string{"e-broken", "e-unknown-type", "e-missing"}, ids)
	assert.True(t, errors.Is(excluded[0].Err, models.ErrMalformedIntention))
	assert.True(t, errors.Is(excluded[2].Err, models.ErrMissingIntention))
}

func TestSplitByIntent(t *testing.T) {
	cands := []models.Candidate{
		newCand("a"),
		newCand("b", romantic("male", "straight")),
		newCand("c"),
	}
	rom, friends := SplitByIntent(cands)
	assert.Len(t, rom, 1)
	assert.Len(t, friends, 2)
	assert.Equal(t, "e-c", friends[1].Entry.EntryID)
}
