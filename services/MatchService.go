package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-logr/logr"

	"vibin_matcher/models"
)

// MatchService reads committed matches back out of DynamoDB.
type MatchService struct {
	Dynamo *DynamoService
	Table  string
	Log    logr.Logger
}

// MatchesForUser fetches every match whose users list contains userID,
// newest first.
func (s *MatchService) MatchesForUser(ctx context.Context, userID string) ([]models.Match, error) {
	var matches []models.Match
	err := s.Dynamo.ScanWhere(ctx, s.Table, "contains(#users, :userId)",
		map[string]types.AttributeValue{
			":userId": &types.AttributeValueMemberS{Value: userID},
		},
		map[string]string{"#users": "users"},
		&matches,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch matches for %s: %w", userID, err)
	}

	sortNewestFirst(matches)
	s.Log.V(1).Info("matches fetched", "userId", userID, "count", len(matches))
	return matches, nil
}

func sortNewestFirst(matches []models.Match) {
	sort.SliceStable(matches, func(i, j int) bool {
		if !matches[i].CreatedAt.Equal(matches[j].CreatedAt) {
			return matches[i].CreatedAt.After(matches[j].CreatedAt)
		}
		return matches[i].MatchID < matches[j].MatchID
	})
}
