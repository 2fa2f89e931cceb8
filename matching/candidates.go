package matching

import (
	"fmt"
	"sort"
	"time"

	"vibin_matcher/models"
)

// Exclusion records a pool entry dropped during candidate assembly.
type Exclusion struct {
	EntryID string
	Err     error
}

// BuildCandidates validates pool records into candidates. Records with a
// missing or malformed intention are excluded; records already past the pool
// TTL are skipped without being reported, the tier sweep deletes them. The
// result is ordered by join time then entry id, which fixes the candidate
// order every later tie-break relies on.
func BuildCandidates(records []models.PoolRecord, now time.Time) ([]models.Candidate, []Exclusion) {
	cands := make([]models.Candidate, 0, len(records))
	var excluded []Exclusion

	for _, rec := range records {
		if rec.Entry.Expired(now) {
			continue
		}
		if rec.Intention == nil {
			excluded = append(excluded, Exclusion{
				EntryID: rec.Entry.EntryID,
				Err:     fmt.Errorf("%w: %q", models.ErrMissingIntention, rec.Entry.IntentionID),
			})
			continue
		}
		in, err := models.ParseIntention(*rec.Intention)
		if err != nil {
			excluded = append(excluded, Exclusion{EntryID: rec.Entry.EntryID, Err: err})
			continue
		}
		cands = append(cands, models.Candidate{
			Entry:     rec.Entry,
			Intention: in,
			Profile:   rec.Profile,
			Survey:    models.NewSurveyAnswers(rec.Survey),
		})
	}

	sort.SliceStable(cands, func(i, j int) bool {
		a, b := cands[i].Entry, cands[j].Entry
		if !a.JoinedAt.Equal(b.JoinedAt) {
			return a.JoinedAt.Before(b.JoinedAt)
		}
		return a.EntryID < b.EntryID
	})
	return cands, excluded
}

// SplitByIntent separates candidates into the romantic and friendship
// sub-pools, preserving order.
func SplitByIntent(cands []models.Candidate) (romantic, friendship []models.Candidate) {
	for _, c := range cands {
		switch c.Intention.ConnectionType {
		case models.ConnectionRomantic:
			romantic = append(romantic, c)
		case models.ConnectionFriends:
			friendship = append(friendship, c)
		}
	}
	return romantic, friendship
}
