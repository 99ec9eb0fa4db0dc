package donations

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"greenshillings/internal/domain"
	"greenshillings/internal/email"
	"greenshillings/internal/payments/stripe"
)

type fakeDonors struct {
	byEmail map[string]*domain.Donor
	byID    map[string]*domain.Donor
}

func newFakeDonors() *fakeDonors {
	return &fakeDonors{byEmail: map[string]*domain.Donor{}, byID: map[string]*domain.Donor{}}
}

func (f *fakeDonors) UpsertByEmail(_ context.Context, donor *domain.Donor) (*domain.Donor, error) {
	if existing, ok := f.byEmail[donor.Email]; ok {
		existing.FullName = donor.FullName
		if donor.Phone != nil {
			existing.Phone = donor.Phone
		}
		if donor.WhatsAppNumber != nil {
			existing.WhatsAppNumber = donor.WhatsAppNumber
		}
		existing.PreferredChannel = donor.PreferredChannel
		return existing, nil
	}
	stored := *donor
	f.byEmail[donor.Email] = &stored
	f.byID[donor.ID] = &stored
	return &stored, nil
}

func (f *fakeDonors) GetByID(_ context.Context, id string) (*domain.Donor, error) {
	if donor, ok := f.byID[id]; ok {
		return donor, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeDonors) ApplySucceededDonation(_ context.Context, donorID string, amountCents int64) (*domain.Donor, error) {
	donor, ok := f.byID[donorID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	donor.DonationCount++
	donor.TotalDonatedCents += amountCents
	now := time.Now()
	donor.LastDonationAt = &now
	return donor, nil
}

func (f *fakeDonors) Aggregate(context.Context) (int, int64, error) {
	var total int64
	for _, donor := range f.byID {
		total += donor.TotalDonatedCents
	}
	return len(f.byID), total, nil
}

type fakeDonations struct {
	byID map[string]*domain.Donation
}

func newFakeDonations() *fakeDonations {
	return &fakeDonations{byID: map[string]*domain.Donation{}}
}

func (f *fakeDonations) Create(_ context.Context, donation *domain.Donation) error {
	stored := *donation
	f.byID[donation.ID] = &stored
	return nil
}

func (f *fakeDonations) GetByID(_ context.Context, id string) (*domain.Donation, error) {
	if donation, ok := f.byID[id]; ok {
		return donation, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeDonations) MarkSucceeded(_ context.Context, id, session, payment string) (*domain.Donation, bool, error) {
	donation, ok := f.byID[id]
	if !ok {
		return nil, false, domain.ErrNotFound
	}
	if donation.Status == domain.DonationSucceeded {
		return donation, false, nil
	}
	donation.Status = domain.DonationSucceeded
	donation.ProviderSession = session
	donation.ProviderPayment = payment
	return donation, true, nil
}

func (f *fakeDonations) MarkFailed(_ context.Context, id string) (bool, error) {
	donation, ok := f.byID[id]
	if !ok {
		return false, domain.ErrNotFound
	}
	if donation.Status != domain.DonationPending {
		return false, nil
	}
	donation.Status = domain.DonationFailed
	return true, nil
}

func (f *fakeDonations) ListRecent(_ context.Context, limit int) ([]domain.Donation, error) {
	var items []domain.Donation
	for _, donation := range f.byID {
		items = append(items, *donation)
		if len(items) == limit {
			break
		}
	}
	return items, nil
}

type fakeCheckout struct {
	lastParams stripe.CheckoutParams
	calls      int
	fail       bool
}

func (f *fakeCheckout) CreateCheckoutSession(_ context.Context, params stripe.CheckoutParams) (*stripe.CheckoutSession, error) {
	f.calls++
	f.lastParams = params
	if f.fail {
		return nil, errors.New("stripe is down")
	}
	return &stripe.CheckoutSession{ID: "cs_1", URL: "https://checkout.stripe.com/pay/cs_1"}, nil
}

type fakeMailer struct {
	sent []email.Message
	fail bool
}

func (f *fakeMailer) Send(_ context.Context, msg email.Message) error {
	if f.fail {
		return errors.New("smtp on fire")
	}
	f.sent = append(f.sent, msg)
	return nil
}

type fixture struct {
	donors    *fakeDonors
	donations *fakeDonations
	checkout  *fakeCheckout
	mailer    *fakeMailer
	svc       *Service
}

func newFixture() *fixture {
	f := &fixture{
		donors:    newFakeDonors(),
		donations: newFakeDonations(),
		checkout:  &fakeCheckout{},
		mailer:    &fakeMailer{},
	}
	f.svc = NewService(f.donors, f.donations, f.checkout, f.mailer, zerolog.Nop(), Config{
		BaseURL: "https://greenshillings.org",
	})
	return f
}

func validRequest() DonationRequest {
	return DonationRequest{
		Email:    "jane@x.org",
		FullName: "Jane Donor",
		Amount:   50,
	}
}

func TestInitiateCheckoutValidation(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*DonationRequest)
	}{
		{name: "missing email", mutate: func(r *DonationRequest) { r.Email = "" }},
		{name: "missing name", mutate: func(r *DonationRequest) { r.FullName = "  " }},
		{name: "zero amount", mutate: func(r *DonationRequest) { r.Amount = 0 }},
		{name: "negative amount", mutate: func(r *DonationRequest) { r.Amount = -5 }},
		{name: "over ceiling", mutate: func(r *DonationRequest) { r.Amount = 1_000_001 }},
		{name: "bad channel", mutate: func(r *DonationRequest) { r.PreferredChannel = "CARRIER_PIGEON" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture()
			req := validRequest()
			tc.mutate(&req)
			_, err := f.svc.InitiateCheckout(context.Background(), req)
			if !errors.Is(err, domain.ErrValidation) {
				t.Fatalf("err = %v, want ErrValidation", err)
			}
			if f.checkout.calls != 0 {
				t.Fatal("validation failures must not reach the provider")
			}
			if len(f.donations.byID) != 0 {
				t.Fatal("validation failures must not create donations")
			}
		})
	}
}

func TestInitiateCheckoutCreatesPendingWithoutCounters(t *testing.T) {
	f := newFixture()

	url, err := f.svc.InitiateCheckout(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("InitiateCheckout: %v", err)
	}
	if url != "https://checkout.stripe.com/pay/cs_1" {
		t.Fatalf("url = %q", url)
	}

	donor := f.donors.byEmail["jane@x.org"]
	if donor == nil {
		t.Fatal("donor not upserted")
	}
	if donor.DonationCount != 0 || donor.TotalDonatedCents != 0 {
		t.Fatalf("counters moved on PENDING: count=%d total=%d", donor.DonationCount, donor.TotalDonatedCents)
	}

	if len(f.donations.byID) != 1 {
		t.Fatalf("donations = %d, want 1", len(f.donations.byID))
	}
	for _, donation := range f.donations.byID {
		if donation.Status != domain.DonationPending {
			t.Fatalf("status = %s, want PENDING", donation.Status)
		}
		if donation.AmountCents != 5000 {
			t.Fatalf("amount = %d cents, want 5000", donation.AmountCents)
		}
		if f.checkout.lastParams.Metadata["donationId"] != donation.ID {
			t.Fatal("session metadata must carry the donation id")
		}
	}
	if f.checkout.lastParams.Mode != "payment" {
		t.Fatalf("mode = %q, want payment", f.checkout.lastParams.Mode)
	}
}

func TestInitiateCheckoutMonthlyUsesSubscription(t *testing.T) {
	f := newFixture()
	req := validRequest()
	req.Frequency = "MONTHLY"

	if _, err := f.svc.InitiateCheckout(context.Background(), req); err != nil {
		t.Fatalf("InitiateCheckout: %v", err)
	}
	if f.checkout.lastParams.Mode != "subscription" {
		t.Fatalf("mode = %q, want subscription", f.checkout.lastParams.Mode)
	}
	if f.checkout.lastParams.RecurringInterval != "month" {
		t.Fatalf("interval = %q, want month", f.checkout.lastParams.RecurringInterval)
	}
}

func TestInitiateCheckoutProviderFailure(t *testing.T) {
	f := newFixture()
	f.checkout.fail = true
	_, err := f.svc.InitiateCheckout(context.Background(), validRequest())
	if !errors.Is(err, domain.ErrProviderFailure) {
		t.Fatalf("err = %v, want ErrProviderFailure", err)
	}
}

func completedEvent(donationID, donorID string) *stripe.Event {
	event := &stripe.Event{ID: "evt_1", Type: stripe.EventCheckoutCompleted}
	event.Data.Object = stripe.CheckoutObject{
		ID:            "cs_1",
		CustomerEmail: "jane@x.org",
		PaymentIntent: "pi_1",
		Metadata:      map[string]string{"donationId": donationID, "donorId": donorID},
	}
	return event
}

func initiated(t *testing.T, f *fixture) (donationID, donorID string) {
	t.Helper()
	if _, err := f.svc.InitiateCheckout(context.Background(), validRequest()); err != nil {
		t.Fatalf("InitiateCheckout: %v", err)
	}
	for id, donation := range f.donations.byID {
		return id, donation.DonorID
	}
	t.Fatal("no donation created")
	return "", ""
}

func TestWebhookCompletedAppliesOnce(t *testing.T) {
	f := newFixture()
	donationID, donorID := initiated(t, f)

	event := completedEvent(donationID, donorID)
	if err := f.svc.HandleWebhookEvent(context.Background(), event); err != nil {
		t.Fatalf("HandleWebhookEvent: %v", err)
	}

	donation := f.donations.byID[donationID]
	if donation.Status != domain.DonationSucceeded {
		t.Fatalf("status = %s, want SUCCEEDED", donation.Status)
	}
	if donation.ProviderSession != "cs_1" || donation.ProviderPayment != "pi_1" {
		t.Fatalf("provider ids = %q/%q", donation.ProviderSession, donation.ProviderPayment)
	}

	donor := f.donors.byID[donorID]
	if donor.DonationCount != 1 || donor.TotalDonatedCents != 5000 {
		t.Fatalf("counters = %d/%d, want 1/5000", donor.DonationCount, donor.TotalDonatedCents)
	}
	if donor.LastDonationAt == nil {
		t.Fatal("LastDonationAt not stamped")
	}
	if len(f.mailer.sent) != 1 {
		t.Fatalf("emails = %d, want 1", len(f.mailer.sent))
	}

	// The identical delivery replays; counters must not move again.
	if err := f.svc.HandleWebhookEvent(context.Background(), event); err != nil {
		t.Fatalf("replay: %v", err)
	}
	if donor.DonationCount != 1 || donor.TotalDonatedCents != 5000 {
		t.Fatalf("replay double-applied: %d/%d", donor.DonationCount, donor.TotalDonatedCents)
	}
	if len(f.mailer.sent) != 1 {
		t.Fatalf("replay re-sent email: %d", len(f.mailer.sent))
	}
}

func TestWebhookExpiredFailsWithoutCounters(t *testing.T) {
	f := newFixture()
	donationID, donorID := initiated(t, f)

	event := &stripe.Event{Type: stripe.EventCheckoutExpired}
	event.Data.Object.Metadata = map[string]string{"donationId": donationID}
	if err := f.svc.HandleWebhookEvent(context.Background(), event); err != nil {
		t.Fatalf("HandleWebhookEvent: %v", err)
	}

	if f.donations.byID[donationID].Status != domain.DonationFailed {
		t.Fatalf("status = %s, want FAILED", f.donations.byID[donationID].Status)
	}
	donor := f.donors.byID[donorID]
	if donor.DonationCount != 0 || donor.TotalDonatedCents != 0 {
		t.Fatalf("counters moved on expiry: %d/%d", donor.DonationCount, donor.TotalDonatedCents)
	}
}

func TestWebhookExpiredNeverDemotesSucceeded(t *testing.T) {
	f := newFixture()
	donationID, donorID := initiated(t, f)

	if err := f.svc.HandleWebhookEvent(context.Background(), completedEvent(donationID, donorID)); err != nil {
		t.Fatalf("completed: %v", err)
	}

	expired := &stripe.Event{Type: stripe.EventCheckoutExpired}
	expired.Data.Object.Metadata = map[string]string{"donationId": donationID}
	if err := f.svc.HandleWebhookEvent(context.Background(), expired); err != nil {
		t.Fatalf("expired: %v", err)
	}

	if f.donations.byID[donationID].Status != domain.DonationSucceeded {
		t.Fatal("SUCCEEDED must be terminal")
	}
}

func TestWebhookEmailFailureIsNonFatal(t *testing.T) {
	f := newFixture()
	donationID, donorID := initiated(t, f)
	f.mailer.fail = true

	if err := f.svc.HandleWebhookEvent(context.Background(), completedEvent(donationID, donorID)); err != nil {
		t.Fatalf("email failure must not fail the webhook: %v", err)
	}
	if f.donors.byID[donorID].DonationCount != 1 {
		t.Fatal("state change must commit before the email attempt")
	}
}

func TestWebhookMissingMetadataAcknowledged(t *testing.T) {
	f := newFixture()
	event := &stripe.Event{Type: stripe.EventCheckoutCompleted}
	event.Data.Object = stripe.CheckoutObject{ID: "cs_x"}
	if err := f.svc.HandleWebhookEvent(context.Background(), event); err != nil {
		t.Fatalf("HandleWebhookEvent: %v", err)
	}
}

func TestWebhookUnknownEventAcknowledged(t *testing.T) {
	f := newFixture()
	if err := f.svc.HandleWebhookEvent(context.Background(), &stripe.Event{Type: "customer.created"}); err != nil {
		t.Fatalf("HandleWebhookEvent: %v", err)
	}
}

func TestRecordDirectSucceedsImmediately(t *testing.T) {
	f := newFixture()

	result, err := f.svc.RecordDirect(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("RecordDirect: %v", err)
	}
	if result.DonationCount != 1 || result.TotalDonated != 5000 {
		t.Fatalf("result counters = %d/%d, want 1/5000", result.DonationCount, result.TotalDonated)
	}
	donation := f.donations.byID[result.DonationID]
	if donation == nil || donation.Status != domain.DonationSucceeded {
		t.Fatal("direct donation must be created SUCCEEDED")
	}
	if f.checkout.calls != 0 {
		t.Fatal("direct path must not touch the payment provider")
	}
}

func TestRecordDirectAccumulates(t *testing.T) {
	f := newFixture()
	if _, err := f.svc.RecordDirect(context.Background(), validRequest()); err != nil {
		t.Fatalf("RecordDirect: %v", err)
	}
	req := validRequest()
	req.Amount = 25
	result, err := f.svc.RecordDirect(context.Background(), req)
	if err != nil {
		t.Fatalf("RecordDirect: %v", err)
	}
	if result.DonationCount != 2 || result.TotalDonated != 7500 {
		t.Fatalf("counters = %d/%d, want 2/7500", result.DonationCount, result.TotalDonated)
	}
}

func TestDonationRequestPhoneDefaults(t *testing.T) {
	req := validRequest()
	req.Phone = "0712 345 678"
	donor := req.donor()
	if donor.Phone == nil || *donor.Phone != "+255712345678" {
		t.Fatalf("Phone = %v", donor.Phone)
	}
	// WhatsApp falls back to the formatted phone number.
	if donor.WhatsAppNumber == nil || *donor.WhatsAppNumber != "+255712345678" {
		t.Fatalf("WhatsAppNumber = %v", donor.WhatsAppNumber)
	}
}
