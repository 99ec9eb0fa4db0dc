package stripe

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// SignatureHeader is the request header carrying the webhook signature.
const SignatureHeader = "Stripe-Signature"

// DefaultTolerance bounds how far a signed timestamp may drift from now.
const DefaultTolerance = 5 * time.Minute

var (
	ErrMissingSignature = errors.New("stripe: missing signature header")
	ErrInvalidSignature = errors.New("stripe: signature verification failed")
	ErrStaleSignature   = errors.New("stripe: signed timestamp outside tolerance")
)

// Event types the reconciliation flow dispatches on. Everything else is
// acknowledged without action.
const (
	EventCheckoutCompleted = "checkout.session.completed"
	EventCheckoutExpired   = "checkout.session.expired"
	EventPaymentFailed     = "invoice.payment_failed"
)

// Event is the envelope of a webhook delivery.
type Event struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object CheckoutObject `json:"object"`
	} `json:"data"`
}

// CheckoutObject is the checkout session payload carried by checkout events.
type CheckoutObject struct {
	ID            string            `json:"id"`
	CustomerEmail string            `json:"customer_email"`
	PaymentIntent PaymentIntentID   `json:"payment_intent"`
	Metadata      map[string]string `json:"metadata"`
}

// PaymentIntentID decodes Stripe's payment_intent field, which arrives as a
// plain id string or as an expanded object with an "id" key.
type PaymentIntentID string

func (p *PaymentIntentID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*p = PaymentIntentID(s)
		return nil
	}
	var obj struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(data, &obj); err == nil {
		*p = PaymentIntentID(obj.ID)
		return nil
	}
	*p = ""
	return nil
}

// ConstructEvent verifies the signature header against the raw payload and
// returns the decoded event. Verification follows Stripe's v1 scheme: the
// header carries a unix timestamp and one or more HMAC-SHA256 signatures of
// "<timestamp>.<payload>"; comparison is constant time.
func ConstructEvent(payload []byte, header, secret string) (*Event, error) {
	return ConstructEventAt(payload, header, secret, DefaultTolerance, time.Now())
}

// ConstructEventAt is ConstructEvent with an injectable clock and tolerance.
func ConstructEventAt(payload []byte, header, secret string, tolerance time.Duration, now time.Time) (*Event, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return nil, ErrMissingSignature
	}

	var timestamp int64
	var signatures [][]byte
	for _, part := range strings.Split(header, ",") {
		kv := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch kv[0] {
		case "t":
			ts, err := strconv.ParseInt(kv[1], 10, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: bad timestamp", ErrInvalidSignature)
			}
			timestamp = ts
		case "v1":
			sig, err := hex.DecodeString(kv[1])
			if err != nil {
				continue
			}
			signatures = append(signatures, sig)
		}
	}
	if timestamp == 0 || len(signatures) == 0 {
		return nil, ErrInvalidSignature
	}

	if tolerance > 0 {
		signedAt := time.Unix(timestamp, 0)
		if signedAt.Before(now.Add(-tolerance)) || signedAt.After(now.Add(tolerance)) {
			return nil, ErrStaleSignature
		}
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strconv.FormatInt(timestamp, 10)))
	mac.Write([]byte("."))
	mac.Write(payload)
	expected := mac.Sum(nil)

	verified := false
	for _, sig := range signatures {
		if hmac.Equal(expected, sig) {
			verified = true
			break
		}
	}
	if !verified {
		return nil, ErrInvalidSignature
	}

	var event Event
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, fmt.Errorf("stripe: decode event: %w", err)
	}
	return &event, nil
}

// SignPayload produces a valid signature header for the payload. Used by
// tests and local tooling to simulate deliveries.
func SignPayload(payload []byte, secret string, at time.Time) string {
	ts := strconv.FormatInt(at.Unix(), 10)
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(ts))
	mac.Write([]byte("."))
	mac.Write(payload)
	return fmt.Sprintf("t=%s,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}
