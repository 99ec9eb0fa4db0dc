package email

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const defaultBaseURL = "https://api.resend.com"

const defaultTimeout = 10 * time.Second

// ResendOptions configures the Resend mailer.
type ResendOptions struct {
	APIKey     string
	BaseURL    string
	From       string
	HTTPClient *http.Client
}

// Resend delivers email through the Resend REST API.
type Resend struct {
	apiKey  string
	baseURL string
	from    string
	client  *http.Client
}

// NewResend builds a Resend mailer. API key and from address are required.
func NewResend(opts ResendOptions) (*Resend, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, errors.New("resend api key is required")
	}
	if strings.TrimSpace(opts.From) == "" {
		return nil, errors.New("from address is required")
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	return &Resend{
		apiKey:  strings.TrimSpace(opts.APIKey),
		baseURL: baseURL,
		from:    strings.TrimSpace(opts.From),
		client:  client,
	}, nil
}

type resendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

// Send delivers a single message.
func (r *Resend) Send(ctx context.Context, msg Message) error {
	payload := resendRequest{
		From:    r.from,
		To:      []string{msg.To},
		Subject: msg.Subject,
		HTML:    msg.HTML,
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		return fmt.Errorf("resend: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/emails", &buf)
	if err != nil {
		return fmt.Errorf("resend: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+r.apiKey)

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("resend: send email: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("resend: status %d", resp.StatusCode)
	}
	return nil
}

var _ Mailer = (*Resend)(nil)
