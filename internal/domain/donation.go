package domain

import "time"

// DonationStatus tracks the lifecycle of a donation.
type DonationStatus string

const (
	DonationPending   DonationStatus = "PENDING"
	DonationSucceeded DonationStatus = "SUCCEEDED"
	DonationFailed    DonationStatus = "FAILED"
)

// DonationFrequency enumerates supported giving cadences.
type DonationFrequency string

const (
	FrequencyOneTime DonationFrequency = "ONE_TIME"
	FrequencyMonthly DonationFrequency = "MONTHLY"
)

// Donation represents a supporter contribution. Amounts are stored in cents.
// The checkout flow creates donations PENDING and only the webhook moves
// them to a terminal state; the direct-record flow creates them SUCCEEDED.
type Donation struct {
	ID              string
	DonorID         string
	AmountCents     int64
	Currency        string
	Status          DonationStatus
	Frequency       DonationFrequency
	ProviderSession string
	ProviderPayment string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
