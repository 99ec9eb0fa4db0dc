package domain

import "time"

// NotificationChannel enumerates how a donor wants milestone updates.
type NotificationChannel string

const (
	ChannelEmail    NotificationChannel = "EMAIL"
	ChannelSMS      NotificationChannel = "SMS"
	ChannelWhatsApp NotificationChannel = "WHATSAPP"
	ChannelAll      NotificationChannel = "ALL"
)

// ValidChannels lists the accepted preferredChannel values in request order.
var ValidChannels = []NotificationChannel{ChannelEmail, ChannelSMS, ChannelWhatsApp, ChannelAll}

// IsValidChannel reports whether value names a known notification channel.
func IsValidChannel(value NotificationChannel) bool {
	for _, c := range ValidChannels {
		if c == value {
			return true
		}
	}
	return false
}

// Donor is keyed by email and upserted on every donation attempt.
// DonationCount and TotalDonatedCents move only when a donation reaches
// SUCCEEDED, never when a PENDING record is created.
type Donor struct {
	ID                string
	Email             string
	FullName          string
	Phone             *string
	WhatsAppNumber    *string
	PreferredChannel  NotificationChannel
	DonationCount     int
	TotalDonatedCents int64
	LastDonationAt    *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}
