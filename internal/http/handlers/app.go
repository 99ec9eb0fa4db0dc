package handlers

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"greenshillings/internal/auth"
	"greenshillings/internal/chat"
	"greenshillings/internal/domain"
	"greenshillings/internal/donations"
	"greenshillings/internal/payments/stripe"
)

// DonationService is the slice of the donations service the handlers use.
type DonationService interface {
	InitiateCheckout(ctx context.Context, req donations.DonationRequest) (string, error)
	HandleWebhookEvent(ctx context.Context, event *stripe.Event) error
	RecordDirect(ctx context.Context, req donations.DonationRequest) (*donations.DirectResult, error)
	ListRecent(ctx context.Context, limit int) ([]domain.Donation, error)
}

// ChatService is the slice of the chat relay the handlers use.
type ChatService interface {
	Send(ctx context.Context, req chat.SendRequest) (*chat.SendResult, error)
	Quick(ctx context.Context, question string) (*chat.SendResult, error)
	Escalate(ctx context.Context, conversationID, reason string) (string, error)
	Analytics(ctx context.Context, days int) (*domain.ChatAnalytics, error)
	Enabled() bool
	Prompt() chat.PromptConfig
	RateLimit() (int, time.Duration)
}

// App bundles handler dependencies.
type App struct {
	Donations DonationService
	Chat      ChatService
	Partners  domain.PartnerRepository
	Donors    domain.DonorRepository
	Auth      *auth.Authenticator
	Logger    zerolog.Logger

	// WebhookSecret signs provider webhook deliveries. Empty means the
	// webhook endpoint is not configured.
	WebhookSecret string
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// data wraps successful payloads in the {"data": ...} envelope.
func (a *App) data(w http.ResponseWriter, code int, v any) {
	a.json(w, code, map[string]any{"data": v})
}

func (a *App) error(w http.ResponseWriter, code int, message string) {
	a.json(w, code, map[string]any{"error": message})
}

// requireAdmin gates a handler on the admin capability. It writes the error
// response and returns false when the caller does not prove it.
func (a *App) requireAdmin(w http.ResponseWriter, r *http.Request) bool {
	if a.Auth == nil || !a.Auth.AdminConfigured() {
		a.error(w, http.StatusForbidden, "admin access not configured")
		return false
	}
	if !a.Auth.Resolve(r.Context(), r).IsAdmin() {
		a.error(w, http.StatusUnauthorized, "unauthorized")
		return false
	}
	return true
}

// resolveAuth returns the caller's capability, anonymous when no
// authenticator is wired.
func (a *App) resolveAuth(r *http.Request) auth.Context {
	if a.Auth == nil {
		return auth.Context{Role: auth.RoleAnonymous}
	}
	return a.Auth.Resolve(r.Context(), r)
}

// clientIP extracts the originating address, preferring X-Forwarded-For.
func clientIP(r *http.Request) string {
	if xf := r.Header.Get("X-Forwarded-For"); xf != "" {
		for _, part := range strings.Split(xf, ",") {
			ip := strings.TrimSpace(part)
			if net.ParseIP(ip) != nil {
				return ip
			}
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && net.ParseIP(host) != nil {
		return host
	}
	if net.ParseIP(r.RemoteAddr) != nil {
		return r.RemoteAddr
	}
	return ""
}
