package models

import "time"

// PoolEntry is a user's waiting-to-be-matched record.
type PoolEntry struct {
	EntryID     string    `dynamodbav:"entryId" json:"entryId"`         // Partition Key
	IntentionID string    `dynamodbav:"intentionId" json:"intentionId"` // Intention this entry waits on
	UserID      string    `dynamodbav:"userId" json:"userId"`           // Owner of the intention
	Tier        int       `dynamodbav:"tier" json:"tier"`               // 0, 1 or 2
	JoinedAt    time.Time `dynamodbav:"joinedAt" json:"joinedAt"`       // When the user entered the pool
}

// Age returns how long the entry has been waiting at now.
func (e PoolEntry) Age(now time.Time) time.Duration {
	d := now.Sub(e.JoinedAt)
	if d < 0 {
		return 0
	}
	return d
}

// Expired reports whether the entry reached the pool TTL at now.
func (e PoolEntry) Expired(now time.Time) bool {
	return e.Age(now) >= PoolEntryTTL
}

// PoolRecord is one pending entry joined with everything the matcher needs
// about its owner, as handed over by a pool store. Intention is nil when the
// linked intention row could not be found.
type PoolRecord struct {
	Entry     PoolEntry
	Intention *IntentionRecord
	Profile   UserProfile
	Survey    []SurveyResponse
}
