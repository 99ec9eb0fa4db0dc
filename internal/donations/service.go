package donations

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"greenshillings/internal/domain"
	"greenshillings/internal/email"
	"greenshillings/internal/payments/stripe"
)

// maxAmountUSD caps a single donation.
const maxAmountUSD = 1_000_000

// CheckoutProvider creates hosted checkout sessions. Nil means payments are
// not configured and checkout initiation fails fast.
type CheckoutProvider interface {
	CreateCheckoutSession(ctx context.Context, params stripe.CheckoutParams) (*stripe.CheckoutSession, error)
}

// Config tunes the donation flows.
type Config struct {
	BaseURL   string // public site base for success/cancel redirects
	EmailFrom string
}

// Service implements donation checkout initiation, webhook reconciliation
// and the direct-record path.
type Service struct {
	donors    domain.DonorRepository
	donations domain.DonationRepository
	checkout  CheckoutProvider
	mailer    email.Mailer
	logger    zerolog.Logger
	cfg       Config
}

// NewService wires the donation flows. checkout may be nil when Stripe is
// unconfigured; mailer must not be nil (use email.Noop).
func NewService(donors domain.DonorRepository, donations domain.DonationRepository, checkout CheckoutProvider, mailer email.Mailer, logger zerolog.Logger, cfg Config) *Service {
	if mailer == nil {
		mailer = email.Noop{}
	}
	return &Service{
		donors:    donors,
		donations: donations,
		checkout:  checkout,
		mailer:    mailer,
		logger:    logger,
		cfg:       cfg,
	}
}

// DonationRequest is the shared input of the checkout and direct flows.
// Amount is in USD.
type DonationRequest struct {
	Email            string
	FullName         string
	Amount           float64
	Currency         string
	Frequency        string
	Phone            string
	WhatsAppNumber   string
	PreferredChannel string
}

func (r *DonationRequest) validate() error {
	if strings.TrimSpace(r.Email) == "" || strings.TrimSpace(r.FullName) == "" {
		return fmt.Errorf("%w: email and fullName are required", domain.ErrValidation)
	}
	if r.Amount <= 0 {
		return fmt.Errorf("%w: a valid positive amount is required", domain.ErrValidation)
	}
	if r.Amount > maxAmountUSD {
		return fmt.Errorf("%w: donation amount exceeds the maximum allowed ($1,000,000)", domain.ErrValidation)
	}
	if r.PreferredChannel != "" && !domain.IsValidChannel(domain.NotificationChannel(strings.ToUpper(r.PreferredChannel))) {
		return fmt.Errorf("%w: invalid preferredChannel", domain.ErrValidation)
	}
	return nil
}

func (r *DonationRequest) frequency() domain.DonationFrequency {
	if strings.EqualFold(r.Frequency, string(domain.FrequencyMonthly)) {
		return domain.FrequencyMonthly
	}
	return domain.FrequencyOneTime
}

func (r *DonationRequest) amountCents() int64 {
	return int64(math.Round(r.Amount * 100))
}

func (r *DonationRequest) donor() *domain.Donor {
	channel := domain.ChannelEmail
	if r.PreferredChannel != "" {
		channel = domain.NotificationChannel(strings.ToUpper(r.PreferredChannel))
	}
	donor := &domain.Donor{
		ID:               uuid.NewString(),
		Email:            strings.TrimSpace(r.Email),
		FullName:         strings.TrimSpace(r.FullName),
		PreferredChannel: channel,
	}
	phone := ""
	if strings.TrimSpace(r.Phone) != "" {
		phone = FormatPhoneNumber(r.Phone)
		donor.Phone = &phone
	}
	if strings.TrimSpace(r.WhatsAppNumber) != "" {
		whatsapp := FormatPhoneNumber(r.WhatsAppNumber)
		donor.WhatsAppNumber = &whatsapp
	} else if phone != "" {
		donor.WhatsAppNumber = &phone
	}
	return donor
}

// InitiateCheckout validates the request, upserts the donor, records a
// PENDING donation and returns the hosted checkout redirect URL. Aggregate
// counters are untouched until the webhook confirms payment.
func (s *Service) InitiateCheckout(ctx context.Context, req DonationRequest) (string, error) {
	if err := req.validate(); err != nil {
		return "", err
	}
	if s.checkout == nil {
		return "", fmt.Errorf("%w: payment provider not configured", domain.ErrProviderFailure)
	}

	donor, err := s.donors.UpsertByEmail(ctx, req.donor())
	if err != nil {
		return "", err
	}

	frequency := req.frequency()
	donation := &domain.Donation{
		ID:          uuid.NewString(),
		DonorID:     donor.ID,
		AmountCents: req.amountCents(),
		Currency:    "USD",
		Status:      domain.DonationPending,
		Frequency:   frequency,
	}
	if err := s.donations.Create(ctx, donation); err != nil {
		return "", err
	}

	mode := "payment"
	interval := ""
	description := "One-time donation to support equitable carbon finance in Tanzania"
	if frequency == domain.FrequencyMonthly {
		mode = "subscription"
		interval = "month"
		description = "Monthly donation to support equitable carbon finance in Tanzania"
	}

	session, err := s.checkout.CreateCheckoutSession(ctx, stripe.CheckoutParams{
		Mode:               mode,
		CustomerEmail:      donor.Email,
		AmountCents:        donation.AmountCents,
		Currency:           donation.Currency,
		ProductName:        "GREENSHILLINGS Donation",
		ProductDescription: description,
		RecurringInterval:  interval,
		Metadata: map[string]string{
			"donationId": donation.ID,
			"donorId":    donor.ID,
		},
		SuccessURL: s.cfg.BaseURL + "/donate/success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:  s.cfg.BaseURL + "/donate?canceled=true",
	})
	if err != nil {
		s.logger.Error().Err(err).Str("donation_id", donation.ID).Msg("checkout session creation failed")
		return "", fmt.Errorf("%w: create checkout session", domain.ErrProviderFailure)
	}
	return session.URL, nil
}

// HandleWebhookEvent applies one verified provider event. Reapplying the
// same completion event is a no-op; every accepted event returns nil so the
// delivery is acknowledged and not retried forever.
func (s *Service) HandleWebhookEvent(ctx context.Context, event *stripe.Event) error {
	switch event.Type {
	case stripe.EventCheckoutCompleted:
		return s.applyCheckoutCompleted(ctx, event)
	case stripe.EventCheckoutExpired:
		donationID := event.Data.Object.Metadata["donationId"]
		if donationID == "" {
			return nil
		}
		applied, err := s.donations.MarkFailed(ctx, donationID)
		if err != nil {
			return err
		}
		if applied {
			s.logger.Info().Str("donation_id", donationID).Msg("donation checkout expired")
		}
		return nil
	case stripe.EventPaymentFailed:
		s.logger.Warn().Str("event_id", event.ID).Msg("subscription payment failed")
		return nil
	default:
		// Unhandled event type, acknowledge receipt.
		return nil
	}
}

func (s *Service) applyCheckoutCompleted(ctx context.Context, event *stripe.Event) error {
	object := event.Data.Object
	donationID := object.Metadata["donationId"]
	donorID := object.Metadata["donorId"]
	if donationID == "" || donorID == "" {
		s.logger.Warn().Str("session_id", object.ID).Msg("checkout completion missing metadata")
		return nil
	}

	donation, applied, err := s.donations.MarkSucceeded(ctx, donationID, object.ID, string(object.PaymentIntent))
	if err != nil {
		return err
	}
	if !applied {
		// Duplicate delivery; counters were already applied once.
		s.logger.Debug().Str("donation_id", donationID).Msg("duplicate checkout completion ignored")
		return nil
	}

	if _, err := s.donors.ApplySucceededDonation(ctx, donorID, donation.AmountCents); err != nil {
		return err
	}

	if object.CustomerEmail != "" {
		if err := s.mailer.Send(ctx, confirmationEmail(object.CustomerEmail, donation.AmountCents)); err != nil {
			// The donation is already committed; a lost email never fails the ack.
			s.logger.Error().Err(err).Str("donation_id", donationID).Msg("confirmation email failed")
		}
	}
	return nil
}

// DirectResult reports the outcome of the direct-record path.
type DirectResult struct {
	DonorID       string
	DonationID    string
	DonationCount int
	TotalDonated  int64
}

// RecordDirect creates donor and donation in one step, marking the donation
// SUCCEEDED immediately. This is the manual/offline attestation path; there
// is no payment confirmation, so counters are applied inline.
func (s *Service) RecordDirect(ctx context.Context, req DonationRequest) (*DirectResult, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	donor, err := s.donors.UpsertByEmail(ctx, req.donor())
	if err != nil {
		return nil, err
	}

	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = "USD"
	}
	donation := &domain.Donation{
		ID:          uuid.NewString(),
		DonorID:     donor.ID,
		AmountCents: req.amountCents(),
		Currency:    currency,
		Status:      domain.DonationSucceeded,
		Frequency:   req.frequency(),
	}
	if err := s.donations.Create(ctx, donation); err != nil {
		return nil, err
	}

	updated, err := s.donors.ApplySucceededDonation(ctx, donor.ID, donation.AmountCents)
	if err != nil {
		return nil, err
	}

	return &DirectResult{
		DonorID:       updated.ID,
		DonationID:    donation.ID,
		DonationCount: updated.DonationCount,
		TotalDonated:  updated.TotalDonatedCents,
	}, nil
}

// ListRecent returns the latest donations for the internal dashboard.
func (s *Service) ListRecent(ctx context.Context, limit int) ([]domain.Donation, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.donations.ListRecent(ctx, limit)
}

func confirmationEmail(to string, amountCents int64) email.Message {
	amount := float64(amountCents) / 100
	return email.Message{
		To:      to,
		Subject: "Thank you for your donation to GREENSHILLINGS!",
		HTML: fmt.Sprintf(`<h1>Thank you for your generous donation!</h1>
<p>We have received your donation of <strong>$%.2f USD</strong>.</p>
<p>Your contribution directly supports equitable carbon finance in Tanzania,
empowering local communities through sustainable forestry, fair carbon credit
distribution, and transparent climate action.</p>
<p>With gratitude,<br/>The GREENSHILLINGS Team</p>`, amount),
	}
}
