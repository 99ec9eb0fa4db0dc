package handlers

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"greenshillings/internal/chat"
	"greenshillings/internal/domain"
	"greenshillings/internal/donations"
	"greenshillings/internal/payments/stripe"
)

type fakeDonationService struct {
	checkoutURL string
	checkoutErr error
	direct      *donations.DirectResult
	directErr   error
	recent      []domain.Donation
	recentErr   error
	eventErr    error

	lastRequest donations.DonationRequest
	events      []*stripe.Event
	lastLimit   int
}

func (f *fakeDonationService) InitiateCheckout(ctx context.Context, req donations.DonationRequest) (string, error) {
	f.lastRequest = req
	return f.checkoutURL, f.checkoutErr
}

func (f *fakeDonationService) HandleWebhookEvent(ctx context.Context, event *stripe.Event) error {
	f.events = append(f.events, event)
	return f.eventErr
}

func (f *fakeDonationService) RecordDirect(ctx context.Context, req donations.DonationRequest) (*donations.DirectResult, error) {
	f.lastRequest = req
	return f.direct, f.directErr
}

func (f *fakeDonationService) ListRecent(ctx context.Context, limit int) ([]domain.Donation, error) {
	f.lastLimit = limit
	return f.recent, f.recentErr
}

type fakeChatService struct {
	result      *chat.SendResult
	err         error
	enabled     bool
	prompt      chat.PromptConfig
	limit       int
	window      time.Duration
	escalateAck string
	escalateErr error
	analytics   *domain.ChatAnalytics

	lastSend     chat.SendRequest
	lastQuestion string
}

func (f *fakeChatService) Send(ctx context.Context, req chat.SendRequest) (*chat.SendResult, error) {
	f.lastSend = req
	return f.result, f.err
}

func (f *fakeChatService) Quick(ctx context.Context, question string) (*chat.SendResult, error) {
	f.lastQuestion = question
	return f.result, f.err
}

func (f *fakeChatService) Escalate(ctx context.Context, conversationID, reason string) (string, error) {
	return f.escalateAck, f.escalateErr
}

func (f *fakeChatService) Analytics(ctx context.Context, days int) (*domain.ChatAnalytics, error) {
	return f.analytics, nil
}

func (f *fakeChatService) Enabled() bool             { return f.enabled }
func (f *fakeChatService) Prompt() chat.PromptConfig { return f.prompt }
func (f *fakeChatService) RateLimit() (int, time.Duration) {
	return f.limit, f.window
}

type fakePartnerRepo struct {
	orgs      []domain.PartnerOrganization
	createErr error
	created   []*domain.PartnerOrganization
}

func (f *fakePartnerRepo) Create(ctx context.Context, org *domain.PartnerOrganization) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, org)
	f.orgs = append(f.orgs, *org)
	return nil
}

func (f *fakePartnerRepo) GetByAccessKeyID(ctx context.Context, accessKeyID string) (*domain.PartnerOrganization, error) {
	for i := range f.orgs {
		if f.orgs[i].AccessKeyID == accessKeyID {
			return &f.orgs[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakePartnerRepo) List(ctx context.Context) ([]domain.PartnerOrganization, error) {
	return f.orgs, nil
}

type fakeDonorRepo struct {
	count int
	total int64
}

func (f *fakeDonorRepo) UpsertByEmail(ctx context.Context, donor *domain.Donor) (*domain.Donor, error) {
	return donor, nil
}

func (f *fakeDonorRepo) GetByID(ctx context.Context, id string) (*domain.Donor, error) {
	return nil, domain.ErrNotFound
}

func (f *fakeDonorRepo) ApplySucceededDonation(ctx context.Context, donorID string, amountCents int64) (*domain.Donor, error) {
	return nil, domain.ErrNotFound
}

func (f *fakeDonorRepo) Aggregate(ctx context.Context) (int, int64, error) {
	return f.count, f.total, nil
}

func testApp() *App {
	return &App{
		Logger: zerolog.Nop(),
	}
}
