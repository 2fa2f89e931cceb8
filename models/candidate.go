package models

// Candidate is a pool entry joined with its owner's intention, profile and
// survey answers. Built once per run from a PoolRecord and never mutated.
type Candidate struct {
	Entry     PoolEntry
	Intention Intention
	Profile   UserProfile
	Survey    SurveyAnswers
}

// UserID returns the owner of the candidate's intention.
func (c Candidate) UserID() string {
	return c.Intention.UserID
}

// Member returns the persisted membership row for this candidate.
func (c Candidate) Member() MatchMember {
	return MatchMember{
		UserID:      c.Intention.UserID,
		IntentionID: c.Intention.ID,
		EntryID:     c.Entry.EntryID,
	}
}
