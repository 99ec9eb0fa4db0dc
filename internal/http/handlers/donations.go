package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"greenshillings/internal/domain"
	"greenshillings/internal/donations"
)

type donationRequest struct {
	Email            string  `json:"email"`
	FullName         string  `json:"fullName"`
	Amount           float64 `json:"amount"`
	Currency         string  `json:"currency"`
	Frequency        string  `json:"frequency"`
	Phone            string  `json:"phone"`
	WhatsAppNumber   string  `json:"whatsappNumber"`
	PreferredChannel string  `json:"preferredChannel"`
}

func (req donationRequest) toService() donations.DonationRequest {
	return donations.DonationRequest{
		Email:            req.Email,
		FullName:         req.FullName,
		Amount:           req.Amount,
		Currency:         req.Currency,
		Frequency:        req.Frequency,
		Phone:            req.Phone,
		WhatsAppNumber:   req.WhatsAppNumber,
		PreferredChannel: req.PreferredChannel,
	}
}

// CheckoutCreate starts a hosted checkout session and returns the redirect URL.
func (a *App) CheckoutCreate(w http.ResponseWriter, r *http.Request) {
	var req donationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "invalid payload")
		return
	}

	url, err := a.Donations.InitiateCheckout(r.Context(), req.toService())
	if err != nil {
		if errors.Is(err, domain.ErrValidation) {
			a.error(w, http.StatusBadRequest, err.Error())
			return
		}
		a.Logger.Error().Err(err).Msg("checkout initiation failed")
		a.error(w, http.StatusInternalServerError, "failed to create checkout session")
		return
	}

	a.json(w, http.StatusOK, map[string]any{"url": url})
}

// DonationsCreate is the direct-record path: the donation is written as
// succeeded without provider confirmation.
func (a *App) DonationsCreate(w http.ResponseWriter, r *http.Request) {
	var req donationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "invalid payload")
		return
	}

	result, err := a.Donations.RecordDirect(r.Context(), req.toService())
	if err != nil {
		if errors.Is(err, domain.ErrValidation) {
			a.error(w, http.StatusBadRequest, err.Error())
			return
		}
		a.Logger.Error().Err(err).Msg("direct donation failed")
		a.error(w, http.StatusInternalServerError, "failed to record donation")
		return
	}

	a.data(w, http.StatusCreated, map[string]any{
		"donorId":       result.DonorID,
		"donationId":    result.DonationID,
		"donationCount": result.DonationCount,
		"totalDonated":  result.TotalDonated,
	})
}

// DonationsRecent lists the newest donations for the internal dashboard.
func (a *App) DonationsRecent(w http.ResponseWriter, r *http.Request) {
	if !a.requireAdmin(w, r) {
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	items, err := a.Donations.ListRecent(r.Context(), limit)
	if err != nil {
		a.Logger.Error().Err(err).Msg("recent donations query failed")
		a.error(w, http.StatusInternalServerError, "failed to load donations")
		return
	}

	out := make([]map[string]any, 0, len(items))
	for _, d := range items {
		out = append(out, map[string]any{
			"id":        d.ID,
			"donorId":   d.DonorID,
			"amount":    d.AmountCents,
			"currency":  d.Currency,
			"status":    d.Status,
			"frequency": d.Frequency,
			"createdAt": d.CreatedAt,
		})
	}
	a.data(w, http.StatusOK, out)
}
