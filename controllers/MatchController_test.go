package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vibin_matcher/models"
)

type stubLookup struct {
	matches map[string][]models.Match
	err     error
}

func (s stubLookup) MatchesForUser(ctx context.Context, userID string) ([]models.Match, error) {
	return s.matches[userID], s.err
}

func TestMatchControllerHandleGetMatches(t *testing.T) {
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	lookup := stubLookup{matches: map[string][]models.Match{
		"u1": {
			{MatchID: "fresh", Status: models.MatchStatusActive, ExpiresAt: now.Add(time.Hour)},
			{MatchID: "old", Status: models.MatchStatusActive, ExpiresAt: now.Add(-time.Hour)},
		},
	}}

	tests := []struct {
		name       string
		lookup     stubLookup
		body       string
		wantStatus int
		wantIDs    []string
		wantStates []string
	}{
		{
			name: "found", lookup: lookup, body: `{"userId":"u1"}`, wantStatus: http.StatusOK,
			wantIDs:    []string{"fresh", "old"},
			wantStates: []string{models.MatchStatusActive, models.MatchStatusExpired},
		},
		{name: "none", lookup: lookup, body: `{"userId":"u2"}`, wantStatus: http.StatusOK, wantIDs: []string{}, wantStates: []string{}},
		{name: "bad body", lookup: lookup, body: `{`, wantStatus: http.StatusBadRequest},
		{name: "missing user", lookup: lookup, body: `{}`, wantStatus: http.StatusBadRequest},
		{name: "store error", lookup: stubLookup{err: errors.New("throttled")}, body: `{"userId":"u1"}`, wantStatus: http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewMatchController(tt.lookup, logr.Discard())
			c.Clock = func() time.Time { return now }

			rec := httptest.NewRecorder()
			c.HandleGetMatches(rec, httptest.NewRequest(http.MethodPost, "/api/match/get", strings.NewReader(tt.body)))

			require.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus != http.StatusOK {
				return
			}
			var got []models.Match
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
			ids, states := []string{}, []string{}
			for _, m := range got {
				ids = append(ids, m.MatchID)
				states = append(states, m.Status)
			}
			assert.Equal(t, tt.wantIDs, ids)
			assert.Equal(t, tt.wantStates, states)
		})
	}
}
