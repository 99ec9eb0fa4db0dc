package assistant

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

// Message is one turn of a conversation, in wire format.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Completion is the assistant's reply plus the token usage reported by the
// provider.
type Completion struct {
	Content    string
	TokensUsed int
}

// Completer produces a reply for a bounded conversation window.
type Completer interface {
	Complete(ctx context.Context, messages []Message) (*Completion, error)
}

const defaultBaseURL = "https://api.openai.com/v1"

const defaultTimeout = 30 * time.Second

const defaultModel = "gpt-4o-mini"

// Sampling parameters are fixed for the assistant: bounded output, moderate
// temperature.
const (
	maxTokens   = 500
	temperature = 0.7
)

// OpenAIOptions configures the completions client.
type OpenAIOptions struct {
	APIKey     string
	Model      string
	BaseURL    string
	HTTPClient *http.Client
}

// OpenAIClient calls the chat-completions endpoint.
type OpenAIClient struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

// NewOpenAIClient builds a completions client. The API key is required;
// callers that find it unconfigured should not construct a client at all and
// serve the offline response instead.
func NewOpenAIClient(opts OpenAIOptions) (*OpenAIClient, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, errors.New("openai api key is required")
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = defaultModel
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	return &OpenAIClient{
		apiKey:  strings.TrimSpace(opts.APIKey),
		model:   model,
		baseURL: baseURL,
		client:  client,
	}, nil
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float64   `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
}

// Complete sends the conversation window and returns the assistant reply.
func (o *OpenAIClient) Complete(ctx context.Context, messages []Message) (*Completion, error) {
	payload := chatRequest{
		Model:       o.model,
		Messages:    messages,
		MaxTokens:   maxTokens,
		Temperature: temperature,
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		return nil, fmt.Errorf("openai: encode request: %w", err)
	}

	endpoint := o.baseURL + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &buf)
	if err != nil {
		return nil, fmt.Errorf("openai: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+o.apiKey)

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("openai: request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("openai: status %d", resp.StatusCode)
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("openai: decode response: %w", err)
	}
	if len(out.Choices) == 0 {
		return nil, errors.New("openai: no choices in response")
	}
	content := strings.TrimSpace(out.Choices[0].Message.Content)
	if content == "" {
		return nil, errors.New("openai: empty completion")
	}
	return &Completion{Content: content, TokensUsed: out.Usage.TotalTokens}, nil
}

var _ Completer = (*OpenAIClient)(nil)
