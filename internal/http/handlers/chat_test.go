package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"greenshillings/internal/auth"
	"greenshillings/internal/chat"
	"greenshillings/internal/domain"
)

func TestChatSendSuccess(t *testing.T) {
	svc := &fakeChatService{result: &chat.SendResult{
		Message:        "We follow Verra VCS and Gold Standard.",
		ConversationID: "conv-1",
		Remaining:      2,
		Limited:        true,
	}}
	app := testApp()
	app.Chat = svc

	body := `{"message":"What standards do you follow?","sessionId":"sess-1"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/chat", strings.NewReader(body))
	req.Header.Set("X-Forwarded-For", "203.0.113.4")
	rec := httptest.NewRecorder()
	app.ChatSend(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d (%s)", rec.Code, http.StatusOK, rec.Body.String())
	}
	var resp struct {
		Data struct {
			Message           string `json:"message"`
			ConversationID    string `json:"conversationId"`
			RemainingMessages *int   `json:"remainingMessages"`
			LimitReached      bool   `json:"limitReached"`
		} `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Data.LimitReached {
		t.Fatal("limitReached should be false")
	}
	if resp.Data.RemainingMessages == nil || *resp.Data.RemainingMessages != 2 {
		t.Fatalf("remainingMessages = %v, want 2", resp.Data.RemainingMessages)
	}
	if resp.Data.ConversationID != "conv-1" {
		t.Fatalf("conversationId = %q", resp.Data.ConversationID)
	}
	if svc.lastSend.VisitorIP != "203.0.113.4" {
		t.Fatalf("visitor ip = %q", svc.lastSend.VisitorIP)
	}
	if svc.lastSend.IsPartner {
		t.Fatal("anonymous caller marked as partner")
	}
}

func TestChatSendLimitReached(t *testing.T) {
	app := testApp()
	app.Chat = &fakeChatService{result: &chat.SendResult{
		Message:      "our team would love to hear from you directly",
		LimitReached: true,
		Limited:      true,
	}}

	body := `{"message":"one more question"}`
	rec := httptest.NewRecorder()
	app.ChatSend(rec, httptest.NewRequest(http.MethodPost, "/v1/chat", strings.NewReader(body)))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	var resp struct {
		Data struct {
			LimitReached      bool `json:"limitReached"`
			RemainingMessages int  `json:"remainingMessages"`
		} `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Data.LimitReached || resp.Data.RemainingMessages != 0 {
		t.Fatalf("unexpected degraded payload: %+v", resp.Data)
	}
}

func TestChatSendOfflineIsClientError(t *testing.T) {
	app := testApp()
	app.Chat = &fakeChatService{result: &chat.SendResult{
		Message: "AI chat is not available.",
		Offline: true,
	}}

	rec := httptest.NewRecorder()
	app.ChatSend(rec, httptest.NewRequest(http.MethodPost, "/v1/chat", strings.NewReader(`{"message":"hi"}`)))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestChatSendEmptyMessage(t *testing.T) {
	app := testApp()
	app.Chat = &fakeChatService{}

	rec := httptest.NewRecorder()
	app.ChatSend(rec, httptest.NewRequest(http.MethodPost, "/v1/chat", strings.NewReader(`{"message":"   "}`)))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestChatSendPartnerCredentials(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("partner-secret"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	partners := &fakePartnerRepo{orgs: []domain.PartnerOrganization{{
		ID:            "org-1",
		Name:          "Mazingira Trust",
		Status:        domain.OrganizationActive,
		AccessKeyID:   "org_abc123",
		AccessKeyHash: string(hash),
	}}}

	svc := &fakeChatService{result: &chat.SendResult{Message: "hello"}}
	app := testApp()
	app.Chat = svc
	app.Auth = auth.NewAuthenticator("", partners)

	req := httptest.NewRequest(http.MethodPost, "/v1/chat", strings.NewReader(`{"message":"hi"}`))
	req.Header.Set(auth.HeaderPartnerKeyID, "org_abc123")
	req.Header.Set(auth.HeaderPartnerKey, "partner-secret")
	rec := httptest.NewRecorder()
	app.ChatSend(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d (%s)", rec.Code, rec.Body.String())
	}
	if !svc.lastSend.IsPartner || svc.lastSend.PartnerID != "org-1" {
		t.Fatalf("partner identity not forwarded: %+v", svc.lastSend)
	}
}

func TestChatStatus(t *testing.T) {
	app := testApp()
	app.Chat = &fakeChatService{
		enabled: true,
		prompt:  chat.PromptConfig{SuggestedQuestions: []string{"How can I support your work?"}},
		limit:   3,
		window:  24 * time.Hour,
	}

	rec := httptest.NewRecorder()
	app.ChatStatus(rec, httptest.NewRequest(http.MethodGet, "/v1/chat/status", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp struct {
		Data struct {
			Enabled            bool     `json:"enabled"`
			SuggestedQuestions []string `json:"suggestedQuestions"`
			RateLimit          struct {
				PublicLimit       int  `json:"publicLimit"`
				WindowHours       int  `json:"windowHours"`
				PartnersUnlimited bool `json:"partnersUnlimited"`
			} `json:"rateLimit"`
		} `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Data.Enabled || len(resp.Data.SuggestedQuestions) != 1 {
		t.Fatalf("unexpected status payload: %+v", resp.Data)
	}
	if resp.Data.RateLimit.PublicLimit != 3 || resp.Data.RateLimit.WindowHours != 24 || !resp.Data.RateLimit.PartnersUnlimited {
		t.Fatalf("unexpected rate limit payload: %+v", resp.Data.RateLimit)
	}
}

func TestChatEscalate(t *testing.T) {
	app := testApp()
	app.Chat = &fakeChatService{escalateAck: "I've flagged this conversation for our team."}

	body := `{"conversationId":"conv-1","reason":"pricing question"}`
	rec := httptest.NewRecorder()
	app.ChatEscalate(rec, httptest.NewRequest(http.MethodPost, "/v1/chat/escalate", strings.NewReader(body)))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d (%s)", rec.Code, rec.Body.String())
	}

	// Unknown conversation maps to 404.
	app.Chat = &fakeChatService{escalateErr: domain.ErrNotFound}
	rec = httptest.NewRecorder()
	app.ChatEscalate(rec, httptest.NewRequest(http.MethodPost, "/v1/chat/escalate", strings.NewReader(body)))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestChatAnalyticsRequiresAdmin(t *testing.T) {
	app := testApp()
	app.Chat = &fakeChatService{analytics: &domain.ChatAnalytics{TotalConversations: 4, Escalations: 1}}
	app.Auth = auth.NewAuthenticator("super-secret", nil)

	rec := httptest.NewRecorder()
	app.ChatAnalytics(rec, httptest.NewRequest(http.MethodGet, "/v1/chat/analytics", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("without key: status = %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/v1/chat/analytics?days=7", nil)
	req.Header.Set(auth.HeaderAdminKey, "super-secret")
	rec = httptest.NewRecorder()
	app.ChatAnalytics(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("with key: status = %d", rec.Code)
	}
	var resp struct {
		Data struct {
			TotalConversations int `json:"totalConversations"`
			Escalations        int `json:"escalations"`
		} `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Data.TotalConversations != 4 || resp.Data.Escalations != 1 {
		t.Fatalf("unexpected analytics payload: %+v", resp.Data)
	}
}
