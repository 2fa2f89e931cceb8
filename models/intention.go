package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMissingIntention marks a pool entry whose intention row is gone.
	ErrMissingIntention = errors.New("intention not found")
	// ErrMalformedIntention marks an intention whose structured payload
	// cannot be turned into a usable Intention.
	ErrMalformedIntention = errors.New("malformed intention")
)

// IntentionRecord is the stored form of an intention. StructuredIntent holds
// the JSON payload collected by the intent flow.
type IntentionRecord struct {
	IntentionID      string `dynamodbav:"intentionId" json:"intentionId"` // Partition Key
	UserID           string `dynamodbav:"userId" json:"userId"`
	StructuredIntent string `dynamodbav:"structuredIntent" json:"structuredIntent"`
}

// Intention is the validated, typed form of a user's intent.
type Intention struct {
	ID             string
	UserID         string
	Location       string
	TimeWindows    TagSet
	ConnectionType string
	Activities     TagSet
	FreeText       string
}

type intentPayload struct {
	ConnectionType string   `json:"connection_type"`
	Location       string   `json:"location"`
	TimeWindows    []string `json:"time_windows"`
	Activities     []string `json:"activities"`
	FreeText       string   `json:"free_text"`
}

// EncodeIntent renders an intention into the stored payload format.
func EncodeIntent(in Intention) (string, error) {
	raw, err := json.Marshal(intentPayload{
		ConnectionType: in.ConnectionType,
		Location:       in.Location,
		TimeWindows:    in.TimeWindows,
		Activities:     in.Activities,
		FreeText:       in.FreeText,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode intent: %w", err)
	}
	return string(raw), nil
}

// ParseIntention validates a stored record. Every failure wraps
// ErrMalformedIntention so callers can treat it as a data-quality problem.
func ParseIntention(rec IntentionRecord) (Intention, error) {
	if strings.TrimSpace(rec.UserID) == "" {
		return Intention{}, fmt.Errorf("%w: intention %q has no user", ErrMalformedIntention, rec.IntentionID)
	}

	var p intentPayload
	if err := json.Unmarshal([]byte(rec.StructuredIntent), &p); err != nil {
		return Intention{}, fmt.Errorf("%w: intention %q: %v", ErrMalformedIntention, rec.IntentionID, err)
	}

	connType, ok := normalizeConnectionType(p.ConnectionType)
	if !ok {
		return Intention{}, fmt.Errorf("%w: intention %q: unknown connection type %q", ErrMalformedIntention, rec.IntentionID, p.ConnectionType)
	}

	return Intention{
		ID:             rec.IntentionID,
		UserID:         rec.UserID,
		Location:       strings.TrimSpace(p.Location),
		TimeWindows:    NewTagSet(p.TimeWindows...),
		ConnectionType: connType,
		Activities:     NewTagSet(p.Activities...),
		FreeText:       strings.TrimSpace(p.FreeText),
	}, nil
}

func normalizeConnectionType(raw string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "romantic", "romance", "dating":
		return ConnectionRomantic, true
	case "friends", "friend", "friendship":
		return ConnectionFriends, true
	}
	return "", false
}
