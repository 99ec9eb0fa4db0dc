package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"greenshillings/internal/domain"
)

// Role tags the capability resolved for a request.
type Role string

const (
	RoleAdmin     Role = "ADMIN"
	RolePartner   Role = "PARTNER"
	RoleAnonymous Role = "ANON"
)

// Header names carrying credentials.
const (
	HeaderAdminKey     = "X-Admin-Key"
	HeaderPartnerKeyID = "X-Partner-Key-Id"
	HeaderPartnerKey   = "X-Partner-Key"
)

// Context is the tagged result of a capability check. OrganizationID is set
// only for RolePartner.
type Context struct {
	Role           Role
	OrganizationID string
}

// IsAdmin reports whether the request carries admin capability.
func (c Context) IsAdmin() bool { return c.Role == RoleAdmin }

// Authenticator resolves request credentials into a capability Context.
// It holds no ambient state; every check goes through Resolve.
type Authenticator struct {
	adminKey string
	partners domain.PartnerRepository
}

// NewAuthenticator builds an Authenticator. An empty adminKey disables the
// admin capability entirely.
func NewAuthenticator(adminKey string, partners domain.PartnerRepository) *Authenticator {
	return &Authenticator{adminKey: strings.TrimSpace(adminKey), partners: partners}
}

// AdminConfigured reports whether an admin key is set.
func (a *Authenticator) AdminConfigured() bool { return a.adminKey != "" }

// Resolve inspects request headers and returns the strongest capability the
// caller proves. Invalid or missing credentials degrade to RoleAnonymous,
// never to an error, so callers decide how much capability they require.
func (a *Authenticator) Resolve(ctx context.Context, r *http.Request) Context {
	if key := strings.TrimSpace(r.Header.Get(HeaderAdminKey)); key != "" && a.adminKey != "" {
		if subtle.ConstantTimeCompare([]byte(key), []byte(a.adminKey)) == 1 {
			return Context{Role: RoleAdmin}
		}
	}

	keyID := strings.TrimSpace(r.Header.Get(HeaderPartnerKeyID))
	secret := strings.TrimSpace(r.Header.Get(HeaderPartnerKey))
	if keyID == "" || secret == "" || a.partners == nil {
		return Context{Role: RoleAnonymous}
	}

	org, err := a.partners.GetByAccessKeyID(ctx, keyID)
	if err != nil {
		return Context{Role: RoleAnonymous}
	}
	if org.Status != domain.OrganizationActive {
		return Context{Role: RoleAnonymous}
	}
	if bcrypt.CompareHashAndPassword([]byte(org.AccessKeyHash), []byte(secret)) != nil {
		return Context{Role: RoleAnonymous}
	}

	return Context{Role: RolePartner, OrganizationID: org.ID}
}

// HashSecret produces a bcrypt hash for a partner access-key secret.
func HashSecret(secret string) (string, error) {
	if secret == "" {
		return "", errors.New("secret is required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
