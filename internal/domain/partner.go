package domain

import "time"

// OrganizationStatus enumerates partner lifecycle states.
type OrganizationStatus string

const (
	OrganizationActive    OrganizationStatus = "ACTIVE"
	OrganizationSuspended OrganizationStatus = "SUSPENDED"
)

// PartnerOrganization holds partner portal credentials. AccessKeyHash is a
// bcrypt hash of the secret; the plaintext secret is returned exactly once
// at creation and never stored.
type PartnerOrganization struct {
	ID            string
	Name          string
	Slug          string
	Status        OrganizationStatus
	AccessKeyID   string
	AccessKeyHash string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
