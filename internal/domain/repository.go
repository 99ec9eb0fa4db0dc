package domain

import (
	"context"
	"time"
)

// DonorRepository handles donor persistence.
type DonorRepository interface {
	// UpsertByEmail inserts or refreshes contact details for a donor.
	// Aggregate counters are never touched here.
	UpsertByEmail(ctx context.Context, donor *Donor) (*Donor, error)
	GetByID(ctx context.Context, id string) (*Donor, error)
	// ApplySucceededDonation increments donationCount/totalDonated and stamps
	// lastDonationAt. Callers must invoke it exactly once per SUCCEEDED donation.
	ApplySucceededDonation(ctx context.Context, donorID string, amountCents int64) (*Donor, error)
	// Aggregate returns the donor count and the sum of totalDonated across donors.
	Aggregate(ctx context.Context) (count int, totalCents int64, err error)
}

// DonationRepository handles donation persistence.
type DonationRepository interface {
	Create(ctx context.Context, donation *Donation) error
	GetByID(ctx context.Context, id string) (*Donation, error)
	// MarkSucceeded conditionally transitions a donation to SUCCEEDED and
	// records provider ids. The update is a no-op when the donation already
	// succeeded; applied reports whether this call performed the transition.
	MarkSucceeded(ctx context.Context, id, providerSession, providerPayment string) (donation *Donation, applied bool, err error)
	// MarkFailed transitions a PENDING donation to FAILED. Terminal states
	// are left untouched.
	MarkFailed(ctx context.Context, id string) (applied bool, err error)
	ListRecent(ctx context.Context, limit int) ([]Donation, error)
}

// ConversationRepository persists chat conversations and their messages.
type ConversationRepository interface {
	// FindActiveBySession returns the newest conversation for the session
	// started at or after the cutoff, or ErrNotFound.
	FindActiveBySession(ctx context.Context, sessionID string, startedAfter time.Time) (*ChatConversation, error)
	Create(ctx context.Context, conversation *ChatConversation) error
	GetByID(ctx context.Context, id string) (*ChatConversation, error)
	// AppendMessage stores the message and bumps the conversation's message
	// and token counters in the same statement batch.
	AppendMessage(ctx context.Context, message *ChatMessage) error
	Escalate(ctx context.Context, conversationID, reason string) error
	Analytics(ctx context.Context, since time.Time) (*ChatAnalytics, error)
}

// RateLimitRepository tracks message counts per hashed identifier.
type RateLimitRepository interface {
	// Bump atomically increments the identifier's counter, resetting the
	// window first when it is older than the supplied duration. The returned
	// record reflects the post-increment state; counts above the ceiling are
	// recorded but rejected by the caller.
	Bump(ctx context.Context, identifier string, window time.Duration) (*RateLimitRecord, error)
}

// PartnerRepository handles partner organization persistence.
type PartnerRepository interface {
	Create(ctx context.Context, org *PartnerOrganization) error
	GetByAccessKeyID(ctx context.Context, accessKeyID string) (*PartnerOrganization, error)
	List(ctx context.Context) ([]PartnerOrganization, error)
}
