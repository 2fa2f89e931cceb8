package models

import "time"

// Connection types a user can ask for
const (
	ConnectionRomantic = "romantic"
	ConnectionFriends  = "friends"
)

// Match statuses
const (
	MatchStatusActive  = "active"
	MatchStatusExpired = "expired"
)

// Pool tiers, coarse staleness buckets derived from waiting time
const (
	Tier0 = 0
	Tier1 = 1
	Tier2 = 2
)

// Survey question ids the matcher reads
const (
	QuestionGroupSize         = "group_size"
	QuestionSexualOrientation = "sexual_orientation"
)

const (
	// PoolEntryTTL is how long an entry may wait before it is expired.
	PoolEntryTTL = 7 * 24 * time.Hour
	// MatchTTL is how long a created match stays active.
	MatchTTL = 7 * 24 * time.Hour

	MinGroupSize = 2
	MaxGroupSize = 6
)

// DynamoDB table names, overridable through config
const (
	PoolEntriesTable     = "PoolEntries"
	IntentionsTable      = "Intentions"
	SurveyResponsesTable = "SurveyResponses"
	BatchLocksTable      = "BatchLocks"
)
