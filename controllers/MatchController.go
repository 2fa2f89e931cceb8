package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-logr/logr"

	"vibin_matcher/models"
	"vibin_matcher/utils"
)

// MatchLookup reads committed matches for a user.
type MatchLookup interface {
	MatchesForUser(ctx context.Context, userID string) ([]models.Match, error)
}

// MatchController serves the matches produced by batch runs.
type MatchController struct {
	Matches MatchLookup
	Clock   func() time.Time
	Log     logr.Logger
}

// NewMatchController initializes the controller
func NewMatchController(lookup MatchLookup, log logr.Logger) *MatchController {
	return &MatchController{Matches: lookup, Clock: time.Now, Log: log}
}

// HandleGetMatches - Fetch all matches for a given userId
func (c *MatchController) HandleGetMatches(w http.ResponseWriter, r *http.Request) {
	var request struct {
		UserID string `json:"userId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil || strings.TrimSpace(request.UserID) == "" {
		utils.WriteJSONResponse(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
		return
	}

	matches, err := c.Matches.MatchesForUser(r.Context(), request.UserID)
	if err != nil {
		c.Log.Error(err, "failed to fetch matches", "userId", request.UserID)
		utils.WriteJSONResponse(w, http.StatusInternalServerError, map[string]string{"error": "Failed to fetch matches"})
		return
	}

	// Stored status is not rewritten when a match ages out.
	now := c.Clock()
	for i := range matches {
		if matches[i].Status == models.MatchStatusActive && !now.Before(matches[i].ExpiresAt) {
			matches[i].Status = models.MatchStatusExpired
		}
	}
	if matches == nil {
		matches = []models.Match{}
	}
	utils.WriteJSONResponse(w, http.StatusOK, matches)
}
