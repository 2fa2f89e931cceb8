package models

import (
	"time"

	"github.com/google/uuid"
)

// MatchMember is one participant of a match.
type MatchMember struct {
	UserID      string `dynamodbav:"userId" json:"userId"`
	IntentionID string `dynamodbav:"intentionId" json:"intentionId"`
	EntryID     string `dynamodbav:"entryId" json:"entryId"` // Pool entry consumed by this match
}

type Match struct {
	MatchID        string        `dynamodbav:"matchId" json:"matchId"`               // Unique matchId
	ConnectionType string        `dynamodbav:"connectionType" json:"connectionType"` // "romantic" or "friends"
	GroupSize      int           `dynamodbav:"groupSize" json:"groupSize"`           // 2..6
	Score          float64       `dynamodbav:"score" json:"score"`                   // In [0,1]
	TierUsed       int           `dynamodbav:"tierUsed" json:"tierUsed"`             // Lowest member tier
	Status         string        `dynamodbav:"status" json:"status"`                 // active, expired
	Users          []string      `dynamodbav:"users" json:"users"`                   // Member user ids, for lookups
	Members        []MatchMember `dynamodbav:"members" json:"members"`
	CreatedAt      time.Time     `dynamodbav:"createdAt" json:"createdAt"`
	ExpiresAt      time.Time     `dynamodbav:"expiresAt" json:"expiresAt"`
}

// NewMatch builds an active match over members, created at now. The caller
// guarantees len(members) >= 2.
func NewMatch(connectionType string, members []Candidate, score float64, now time.Time) Match {
	m := Match{
		MatchID:        uuid.NewString(),
		ConnectionType: connectionType,
		GroupSize:      len(members),
		Score:          score,
		TierUsed:       members[0].Entry.Tier,
		Status:         MatchStatusActive,
		Users:          make([]string, 0, len(members)),
		Members:        make([]MatchMember, 0, len(members)),
		CreatedAt:      now,
		ExpiresAt:      now.Add(MatchTTL),
	}
	for _, c := range members {
		if c.Entry.Tier < m.TierUsed {
			m.TierUsed = c.Entry.Tier
		}
		m.Users = append(m.Users, c.UserID())
		m.Members = append(m.Members, c.Member())
	}
	return m
}

// EntryIDs lists the pool entries this match consumes.
func (m Match) EntryIDs() []string {
	ids := make([]string, 0, len(m.Members))
	for _, mem := range m.Members {
		ids = append(ids, mem.EntryID)
	}
	return ids
}

// MatchesTable is the DynamoDB table name for user matches
const MatchesTable = "Matches"
