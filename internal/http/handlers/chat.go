package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"greenshillings/internal/auth"
	"greenshillings/internal/chat"
	"greenshillings/internal/domain"
)

type chatSendRequest struct {
	Message        string      `json:"message"`
	History        []chat.Turn `json:"history"`
	SessionID      string      `json:"sessionId"`
	ConversationID string      `json:"conversationId"`
}

// ChatSend relays one visitor message through the assistant.
func (a *App) ChatSend(w http.ResponseWriter, r *http.Request) {
	var req chatSendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		a.error(w, http.StatusBadRequest, "message is required")
		return
	}

	send := chat.SendRequest{
		Message:        req.Message,
		History:        req.History,
		SessionID:      req.SessionID,
		ConversationID: req.ConversationID,
		VisitorIP:      clientIP(r),
	}
	if caller := a.resolveAuth(r); caller.Role == auth.RolePartner {
		send.IsPartner = true
		send.PartnerID = caller.OrganizationID
	}

	result, err := a.Chat.Send(r.Context(), send)
	if err != nil {
		a.Logger.Error().Err(err).Msg("chat send failed")
		a.error(w, http.StatusInternalServerError, "failed to process message")
		return
	}

	a.writeChatResult(w, result)
}

// ChatQuick answers a one-off question with no session or history.
func (a *App) ChatQuick(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Question string `json:"question"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		a.error(w, http.StatusBadRequest, "question is required")
		return
	}

	result, err := a.Chat.Quick(r.Context(), req.Question)
	if err != nil {
		a.Logger.Error().Err(err).Msg("chat quick answer failed")
		a.error(w, http.StatusInternalServerError, "failed to process question")
		return
	}

	a.writeChatResult(w, result)
}

func (a *App) writeChatResult(w http.ResponseWriter, result *chat.SendResult) {
	if result.Offline || result.Failed {
		a.error(w, http.StatusBadRequest, result.Message)
		return
	}

	body := map[string]any{
		"message":      result.Message,
		"limitReached": result.LimitReached,
	}
	if result.ConversationID != "" {
		body["conversationId"] = result.ConversationID
	}
	if result.Limited {
		body["remainingMessages"] = result.Remaining
	}
	if result.Escalated {
		body["escalated"] = true
	}
	a.data(w, http.StatusOK, body)
}

// ChatStatus reports availability, suggested questions and the public limit.
func (a *App) ChatStatus(w http.ResponseWriter, r *http.Request) {
	limit, window := a.Chat.RateLimit()
	a.data(w, http.StatusOK, map[string]any{
		"enabled":            a.Chat.Enabled(),
		"suggestedQuestions": a.Chat.Prompt().SuggestedQuestions,
		"rateLimit": map[string]any{
			"publicLimit":       limit,
			"windowHours":       int(window.Hours()),
			"partnersUnlimited": true,
		},
	})
}

// ChatEscalate marks a conversation for human follow-up.
func (a *App) ChatEscalate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ConversationID string `json:"conversationId"`
		Reason         string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if req.ConversationID == "" {
		a.error(w, http.StatusBadRequest, "conversationId is required")
		return
	}
	if req.Reason == "" {
		req.Reason = "visitor requested human follow-up"
	}

	ack, err := a.Chat.Escalate(r.Context(), req.ConversationID, req.Reason)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "conversation not found")
			return
		}
		a.Logger.Error().Err(err).Msg("chat escalation failed")
		a.error(w, http.StatusInternalServerError, "failed to escalate conversation")
		return
	}

	a.data(w, http.StatusOK, map[string]any{"message": ack, "escalated": true})
}

// ChatAnalytics summarizes assistant activity, admin-gated.
func (a *App) ChatAnalytics(w http.ResponseWriter, r *http.Request) {
	if !a.requireAdmin(w, r) {
		return
	}

	days, _ := strconv.Atoi(r.URL.Query().Get("days"))
	analytics, err := a.Chat.Analytics(r.Context(), days)
	if err != nil {
		a.Logger.Error().Err(err).Msg("chat analytics query failed")
		a.error(w, http.StatusInternalServerError, "failed to load analytics")
		return
	}

	a.data(w, http.StatusOK, map[string]any{
		"totalConversations":   analytics.TotalConversations,
		"totalMessages":        analytics.TotalMessages,
		"escalations":          analytics.Escalations,
		"partnerConversations": analytics.PartnerConversations,
		"publicConversations":  analytics.PublicConversations,
	})
}
