package models

import "time"

// RunResult is what a batch cycle hands back to its trigger.
type RunResult struct {
	RunID      string     `json:"runId"`
	Success    bool       `json:"success"`
	Skipped    bool       `json:"skipped,omitempty"`
	DurationMs int64      `json:"durationMs"`
	Error      string     `json:"error,omitempty"`
	Report     *RunReport `json:"report,omitempty"`
}

// RunReport summarises what a completed cycle did.
type RunReport struct {
	RunID           string      `json:"runId"`
	StartedAt       time.Time   `json:"startedAt"`
	FinishedAt      time.Time   `json:"finishedAt"`
	PoolSize        int         `json:"poolSize"`
	Excluded        []string    `json:"excluded,omitempty"` // Entry ids dropped at ingestion
	RomanticPool    int         `json:"romanticPool"`
	FriendshipPool  int         `json:"friendshipPool"`
	RomanticMatches int         `json:"romanticMatches"`
	GroupMatches    int         `json:"groupMatches"`
	GroupSizes      map[int]int `json:"groupSizes,omitempty"`
	MatchIDs        []string    `json:"matchIds,omitempty"`
	Promoted        int         `json:"promoted"`
	Expired         int         `json:"expired"`
}
