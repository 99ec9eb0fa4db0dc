package handlers

import (
	"math"
	"net/http"
	"time"
)

// Baseline impact figures shown until live project counters exist.
const (
	fallbackTreesPlanted     = 5247
	fallbackHectaresRestored = 12
	fallbackCommunities      = 3
)

// Stats is the public impact summary.
func (a *App) Stats(w http.ResponseWriter, r *http.Request) {
	donorCount, totalDonated, err := a.Donors.Aggregate(r.Context())
	if err != nil {
		a.Logger.Error().Err(err).Msg("donor aggregate query failed")
		a.error(w, http.StatusInternalServerError, "failed to load stats")
		return
	}

	body := map[string]any{
		"impact": map[string]any{
			"treesPlanted":      fallbackTreesPlanted,
			"hectaresRestored":  fallbackHectaresRestored,
			"communitiesServed": fallbackCommunities,
			"carbonSequestered": int(math.Round(fallbackTreesPlanted * 0.02)),
		},
		"funding": map[string]any{
			"totalDonors":          donorCount,
			"totalDonated":         totalDonated,
			"communityPercentage":  80,
			"operationsPercentage": 15,
			"advocacyPercentage":   5,
		},
		"lastUpdated": time.Now().UTC().Format(time.RFC3339),
	}

	if a.Chat != nil {
		if analytics, err := a.Chat.Analytics(r.Context(), 30); err == nil {
			body["assistant"] = map[string]any{
				"conversations": analytics.TotalConversations,
				"messages":      analytics.TotalMessages,
			}
		}
	}

	a.data(w, http.StatusOK, body)
}
