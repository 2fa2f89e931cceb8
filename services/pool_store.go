package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-logr/logr"

	"vibin_matcher/models"
)

// ErrEntryGone is returned when a match could not be committed because one
// of its pool entries no longer exists.
var ErrEntryGone = errors.New("pool entry already consumed")

// Tables names the DynamoDB tables behind the pool.
type Tables struct {
	Pool       string
	Intentions string
	Users      string
	Survey     string
	Matches    string
	Locks      string
}

// DefaultTables returns the table names used when config sets none.
func DefaultTables() Tables {
	return Tables{
		Pool:       models.PoolEntriesTable,
		Intentions: models.IntentionsTable,
		Users:      models.UserProfilesTable,
		Survey:     models.SurveyResponsesTable,
		Matches:    models.MatchesTable,
		Locks:      models.BatchLocksTable,
	}
}

// DynamoPoolStore reads the waiting pool from DynamoDB and writes matches
// back with one transaction per match.
type DynamoPoolStore struct {
	Dynamo *DynamoService
	Tables Tables
	Log    logr.Logger
}

func stringKey(name, value string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		name: &types.AttributeValueMemberS{Value: value},
	}
}

// ListPoolEntries returns every entry in the pool table.
func (s *DynamoPoolStore) ListPoolEntries(ctx context.Context) ([]models.PoolEntry, error) {
	var entries []models.PoolEntry
	if err := s.Dynamo.ScanAll(ctx, s.Tables.Pool, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// ReadPool joins every pool entry with its intention, profile and survey
// answers. A missing intention leaves PoolRecord.Intention nil; a missing
// profile yields an empty one.
func (s *DynamoPoolStore) ReadPool(ctx context.Context) ([]models.PoolRecord, error) {
	entries, err := s.ListPoolEntries(ctx)
	if err != nil {
		return nil, err
	}

	profiles := make(map[string]models.UserProfile)
	surveys := make(map[string][]models.SurveyResponse)
	records := make([]models.PoolRecord, 0, len(entries))

	for _, e := range entries {
		rec := models.PoolRecord{Entry: e}

		intention, err := s.getIntention(ctx, e.IntentionID)
		if err != nil {
			return nil, err
		}
		rec.Intention = intention

		userID := e.UserID
		if userID == "" && intention != nil {
			userID = intention.UserID
		}

		profile, ok := profiles[userID]
		if !ok {
			if profile, err = s.getProfile(ctx, userID); err != nil {
				return nil, err
			}
			profiles[userID] = profile
		}
		rec.Profile = profile

		survey, ok := surveys[userID]
		if !ok {
			if survey, err = s.getSurvey(ctx, userID); err != nil {
				return nil, err
			}
			surveys[userID] = survey
		}
		rec.Survey = survey

		records = append(records, rec)
	}

	s.Log.V(1).Info("pool snapshot read", "entries", len(records), "users", len(profiles))
	return records, nil
}

func (s *DynamoPoolStore) getIntention(ctx context.Context, intentionID string) (*models.IntentionRecord, error) {
	if intentionID == "" {
		return nil, nil
	}
	item, err := s.Dynamo.GetItem(ctx, s.Tables.Intentions, stringKey("intentionId", intentionID))
	if errors.Is(err, ErrItemNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var rec models.IntentionRecord
	if err := attributevalue.UnmarshalMap(item, &rec); err != nil {
		// Undecodable rows are a data problem for this entry only.
		s.Log.Info("intention row unreadable", "intentionId", intentionID, "error", err.Error())
		return nil, nil
	}
	return &rec, nil
}

func (s *DynamoPoolStore) getProfile(ctx context.Context, userID string) (models.UserProfile, error) {
	profile := models.UserProfile{UserID: userID}
	if userID == "" {
		return profile, nil
	}
	item, err := s.Dynamo.GetItem(ctx, s.Tables.Users, stringKey("userId", userID))
	if errors.Is(err, ErrItemNotFound) {
		return profile, nil
	}
	if err != nil {
		return profile, err
	}
	if err := attributevalue.UnmarshalMap(item, &profile); err != nil {
		s.Log.Info("user profile unreadable", "userId", userID, "error", err.Error())
		return models.UserProfile{UserID: userID}, nil
	}
	return profile, nil
}

func (s *DynamoPoolStore) getSurvey(ctx context.Context, userID string) ([]models.SurveyResponse, error) {
	if userID == "" {
		return nil, nil
	}
	items, err := s.Dynamo.QueryItems(ctx, s.Tables.Survey, "userId = :userId", map[string]types.AttributeValue{
		":userId": &types.AttributeValueMemberS{Value: userID},
	})
	if err != nil {
		return nil, err
	}
	var responses []models.SurveyResponse
	if err := attributevalue.UnmarshalListOfMaps(items, &responses); err != nil {
		s.Log.Info("survey responses unreadable", "userId", userID, "error", err.Error())
		return nil, nil
	}
	return responses, nil
}

// CommitMatch writes match and deletes its pool entries in one transaction.
// Every delete is conditioned on the entry still existing, so a match is
// never written for an entry some other writer already consumed.
func (s *DynamoPoolStore) CommitMatch(ctx context.Context, match models.Match) error {
	item, err := attributevalue.MarshalMap(match)
	if err != nil {
		return fmt.Errorf("failed to marshal match: %w", err)
	}

	actions := []types.TransactWriteItem{{
		Put: &types.Put{
			TableName:           aws.String(s.Tables.Matches),
			Item:                item,
			ConditionExpression: aws.String("attribute_not_exists(matchId)"),
		},
	}}
	for _, id := range match.EntryIDs() {
		actions = append(actions, types.TransactWriteItem{
			Delete: &types.Delete{
				TableName:           aws.String(s.Tables.Pool),
				Key:                 stringKey("entryId", id),
				ConditionExpression: aws.String("attribute_exists(entryId)"),
			},
		})
	}

	if err := s.Dynamo.TransactWrite(ctx, actions); err != nil {
		var cancelled *types.TransactionCanceledException
		if errors.As(err, &cancelled) {
			return fmt.Errorf("match %s: %w: %v", match.MatchID, ErrEntryGone, err)
		}
		return fmt.Errorf("match %s: %w", match.MatchID, err)
	}
	s.Log.V(1).Info("match committed", "matchId", match.MatchID, "groupSize", match.GroupSize)
	return nil
}

// UpdateTier raises the tier of an entry. Entries already gone or already
// at or above tier are left alone.
func (s *DynamoPoolStore) UpdateTier(ctx context.Context, entryID string, tier int) error {
	err := s.Dynamo.UpdateItem(ctx, s.Tables.Pool, stringKey("entryId", entryID),
		"SET #tier = :tier",
		"attribute_exists(entryId) AND #tier < :tier",
		map[string]types.AttributeValue{
			":tier": &types.AttributeValueMemberN{Value: strconv.Itoa(tier)},
		},
		map[string]string{"#tier": "tier"},
	)
	if IsConditionFailed(err) {
		return nil
	}
	return err
}

// DeleteEntry removes one pool entry.
func (s *DynamoPoolStore) DeleteEntry(ctx context.Context, entryID string) error {
	return s.Dynamo.DeleteItem(ctx, s.Tables.Pool, stringKey("entryId", entryID))
}
