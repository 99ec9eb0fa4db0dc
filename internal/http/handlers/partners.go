package handlers

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"greenshillings/internal/auth"
	"greenshillings/internal/domain"
)

// PartnersList returns all partner organizations. Key hashes never leave the
// server.
func (a *App) PartnersList(w http.ResponseWriter, r *http.Request) {
	if !a.requireAdmin(w, r) {
		return
	}

	orgs, err := a.Partners.List(r.Context())
	if err != nil {
		a.Logger.Error().Err(err).Msg("partner list query failed")
		a.error(w, http.StatusInternalServerError, "failed to load organizations")
		return
	}

	out := make([]map[string]any, 0, len(orgs))
	for _, org := range orgs {
		out = append(out, map[string]any{
			"id":          org.ID,
			"name":        org.Name,
			"slug":        org.Slug,
			"status":      org.Status,
			"accessKeyId": org.AccessKeyID,
			"createdAt":   org.CreatedAt,
		})
	}
	a.data(w, http.StatusOK, out)
}

// PartnersCreate provisions a partner organization with a fresh key pair.
// The secret appears in this response and nowhere else.
func (a *App) PartnersCreate(w http.ResponseWriter, r *http.Request) {
	if !a.requireAdmin(w, r) {
		return
	}

	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "invalid payload")
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		a.error(w, http.StatusBadRequest, "name is required")
		return
	}

	keyID, secret, err := generateKeyPair()
	if err != nil {
		a.Logger.Error().Err(err).Msg("key pair generation failed")
		a.error(w, http.StatusInternalServerError, "failed to create organization")
		return
	}
	hash, err := auth.HashSecret(secret)
	if err != nil {
		a.Logger.Error().Err(err).Msg("secret hashing failed")
		a.error(w, http.StatusInternalServerError, "failed to create organization")
		return
	}

	org := &domain.PartnerOrganization{
		ID:            uuid.NewString(),
		Name:          name,
		Slug:          slugify(name),
		Status:        domain.OrganizationActive,
		AccessKeyID:   keyID,
		AccessKeyHash: hash,
	}
	if err := a.Partners.Create(r.Context(), org); err != nil {
		if errors.Is(err, domain.ErrDuplicate) {
			a.error(w, http.StatusConflict, "an organization with that name already exists")
			return
		}
		a.Logger.Error().Err(err).Msg("partner creation failed")
		a.error(w, http.StatusInternalServerError, "failed to create organization")
		return
	}

	a.data(w, http.StatusCreated, map[string]any{
		"id":              org.ID,
		"name":            org.Name,
		"slug":            org.Slug,
		"accessKeyId":     org.AccessKeyID,
		"accessKeySecret": secret,
	})
}

// generateKeyPair returns a public key id of the form org_<12 hex> and a
// 48-hex secret.
func generateKeyPair() (string, string, error) {
	var buf [30]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "", "", err
	}
	keyID := "org_" + hex.EncodeToString(buf[:6])
	secret := hex.EncodeToString(buf[6:])
	return keyID, secret, nil
}

func slugify(name string) string {
	var b strings.Builder
	lastHyphen := true
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		case !lastHyphen:
			b.WriteByte('-')
			lastHyphen = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
