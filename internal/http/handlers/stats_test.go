package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"greenshillings/internal/domain"
)

func TestStats(t *testing.T) {
	app := testApp()
	app.Donors = &fakeDonorRepo{count: 12, total: 240_000}
	app.Chat = &fakeChatService{analytics: &domain.ChatAnalytics{TotalConversations: 8, TotalMessages: 30}}

	rec := httptest.NewRecorder()
	app.Stats(rec, httptest.NewRequest(http.MethodGet, "/v1/stats", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d (%s)", rec.Code, rec.Body.String())
	}
	var resp struct {
		Data struct {
			Impact struct {
				TreesPlanted      int `json:"treesPlanted"`
				CarbonSequestered int `json:"carbonSequestered"`
			} `json:"impact"`
			Funding struct {
				TotalDonors         int   `json:"totalDonors"`
				TotalDonated        int64 `json:"totalDonated"`
				CommunityPercentage int   `json:"communityPercentage"`
			} `json:"funding"`
			Assistant struct {
				Conversations int `json:"conversations"`
			} `json:"assistant"`
		} `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Data.Funding.TotalDonors != 12 || resp.Data.Funding.TotalDonated != 240_000 {
		t.Fatalf("unexpected funding: %+v", resp.Data.Funding)
	}
	if resp.Data.Funding.CommunityPercentage != 80 {
		t.Fatalf("community percentage = %d", resp.Data.Funding.CommunityPercentage)
	}
	if resp.Data.Impact.TreesPlanted != fallbackTreesPlanted {
		t.Fatalf("trees planted = %d", resp.Data.Impact.TreesPlanted)
	}
	if resp.Data.Assistant.Conversations != 8 {
		t.Fatalf("assistant conversations = %d", resp.Data.Assistant.Conversations)
	}
}

func TestHealth(t *testing.T) {
	app := testApp()
	rec := httptest.NewRecorder()
	app.Health(rec, httptest.NewRequest(http.MethodGet, "/v1/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}
