package stripe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const defaultBaseURL = "https://api.stripe.com/v1"

const defaultTimeout = 20 * time.Second

// Options configures the checkout client.
type Options struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
}

// Client drives Stripe's hosted-checkout API over its form-encoded REST
// surface. Only the endpoints this service needs are implemented.
type Client struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewClient builds a checkout client. The API key is required.
func NewClient(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, errors.New("stripe api key is required")
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{
		apiKey:  strings.TrimSpace(opts.APIKey),
		baseURL: baseURL,
		client:  client,
	}, nil
}

// CheckoutParams describes a hosted checkout session to create.
type CheckoutParams struct {
	Mode               string // "payment" or "subscription"
	CustomerEmail      string
	AmountCents        int64
	Currency           string
	ProductName        string
	ProductDescription string
	RecurringInterval  string // "month" for subscriptions, empty otherwise
	Metadata           map[string]string
	SuccessURL         string
	CancelURL          string
}

// CheckoutSession is the subset of Stripe's session object the service uses.
type CheckoutSession struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

type apiError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// CreateCheckoutSession creates a hosted checkout session and returns its
// redirect URL.
func (c *Client) CreateCheckoutSession(ctx context.Context, params CheckoutParams) (*CheckoutSession, error) {
	form := url.Values{}
	form.Set("mode", params.Mode)
	form.Set("customer_email", params.CustomerEmail)
	form.Set("success_url", params.SuccessURL)
	form.Set("cancel_url", params.CancelURL)
	form.Set("line_items[0][quantity]", "1")
	form.Set("line_items[0][price_data][currency]", strings.ToLower(params.Currency))
	form.Set("line_items[0][price_data][unit_amount]", strconv.FormatInt(params.AmountCents, 10))
	form.Set("line_items[0][price_data][product_data][name]", params.ProductName)
	if params.ProductDescription != "" {
		form.Set("line_items[0][price_data][product_data][description]", params.ProductDescription)
	}
	if params.RecurringInterval != "" {
		form.Set("line_items[0][price_data][recurring][interval]", params.RecurringInterval)
	}
	for key, value := range params.Metadata {
		form.Set(fmt.Sprintf("metadata[%s]", key), value)
	}

	endpoint := c.baseURL + "/checkout/sessions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("stripe: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("stripe: create checkout session: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= 300 {
		var apiErr apiError
		if decodeErr := json.NewDecoder(resp.Body).Decode(&apiErr); decodeErr == nil && apiErr.Error.Message != "" {
			return nil, fmt.Errorf("stripe: status %d: %s", resp.StatusCode, apiErr.Error.Message)
		}
		return nil, fmt.Errorf("stripe: status %d", resp.StatusCode)
	}

	var session CheckoutSession
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return nil, fmt.Errorf("stripe: decode session: %w", err)
	}
	if session.URL == "" {
		return nil, errors.New("stripe: session has no redirect url")
	}
	return &session, nil
}
