package handlers

import (
	"errors"
	"io"
	"net/http"

	"greenshillings/internal/payments/stripe"
)

// maxWebhookBody bounds provider payload reads.
const maxWebhookBody = 1 << 20

// StripeWebhook verifies and applies one provider event delivery.
func (a *App) StripeWebhook(w http.ResponseWriter, r *http.Request) {
	if a.WebhookSecret == "" {
		a.Logger.Error().Msg("stripe webhook secret not configured")
		a.error(w, http.StatusInternalServerError, "webhook not configured")
		return
	}

	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		a.error(w, http.StatusBadRequest, "unreadable payload")
		return
	}

	event, err := stripe.ConstructEvent(payload, r.Header.Get(stripe.SignatureHeader), a.WebhookSecret)
	if err != nil {
		if errors.Is(err, stripe.ErrMissingSignature) {
			a.error(w, http.StatusBadRequest, "missing signature")
			return
		}
		a.Logger.Warn().Err(err).Msg("webhook signature verification failed")
		a.error(w, http.StatusBadRequest, "invalid signature")
		return
	}

	if err := a.Donations.HandleWebhookEvent(r.Context(), event); err != nil {
		// Returning 500 makes the provider retry the delivery; the
		// conditional updates keep the retry safe.
		a.Logger.Error().Err(err).Str("event_id", event.ID).Str("event_type", event.Type).Msg("webhook handling failed")
		a.error(w, http.StatusInternalServerError, "webhook handler failed")
		return
	}

	a.json(w, http.StatusOK, map[string]any{"received": true})
}
