package chat

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"greenshillings/internal/domain"
	"greenshillings/internal/providers/assistant"
)

// historyWindow bounds how many prior turns are forwarded to the provider.
const historyWindow = 10

// CountryResolver resolves ISO country codes for visitor enrichment.
type CountryResolver interface {
	CountryCode(ip string) (string, error)
}

// Config tunes the relay.
type Config struct {
	RateLimit  int
	RateWindow time.Duration
	HashSalt   string
	Prompt     PromptConfig
}

// Service is the rate-limited assistant relay. A nil completer means the
// provider is unconfigured and every send short-circuits to the offline
// response.
type Service struct {
	completer     assistant.Completer
	conversations domain.ConversationRepository
	limits        domain.RateLimitRepository
	geo           CountryResolver
	logger        zerolog.Logger
	cfg           Config
}

// NewService wires the relay. geo may be nil.
func NewService(completer assistant.Completer, conversations domain.ConversationRepository, limits domain.RateLimitRepository, geo CountryResolver, logger zerolog.Logger, cfg Config) *Service {
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = 3
	}
	if cfg.RateWindow <= 0 {
		cfg.RateWindow = 24 * time.Hour
	}
	return &Service{
		completer:     completer,
		conversations: conversations,
		limits:        limits,
		geo:           geo,
		logger:        logger,
		cfg:           cfg,
	}
}

// Turn is one prior exchange supplied by the client.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// SendRequest carries one visitor message through the relay.
type SendRequest struct {
	Message        string
	History        []Turn
	SessionID      string
	ConversationID string
	IsPartner      bool
	PartnerID      string
	VisitorIP      string
}

// SendResult is the relay outcome. Exactly one of the degraded flags
// (Offline, LimitReached, Failed) is set when the provider was not asked.
type SendResult struct {
	Message        string
	ConversationID string
	TokensUsed     int
	Remaining      int
	Limited        bool // Remaining is meaningful only when set
	LimitReached   bool
	Escalated      bool
	Offline        bool
	Failed         bool
}

// Enabled reports whether a completion provider is configured.
func (s *Service) Enabled() bool { return s.completer != nil }

// Prompt exposes the active prompt configuration.
func (s *Service) Prompt() PromptConfig { return s.cfg.Prompt }

// RateLimit returns the public ceiling and window.
func (s *Service) RateLimit() (int, time.Duration) { return s.cfg.RateLimit, s.cfg.RateWindow }

// HashIdentifier derives the stable opaque identifier stored in place of a
// network address.
func (s *Service) HashIdentifier(ip string) string {
	sum := sha256.Sum256([]byte(ip + s.cfg.HashSalt))
	return hex.EncodeToString(sum[:])[:32]
}

// Send relays one message. Degraded outcomes (offline, limit reached,
// provider failure) are normal results, not errors; errors are reserved for
// storage failures.
func (s *Service) Send(ctx context.Context, req SendRequest) (*SendResult, error) {
	if s.completer == nil {
		return &SendResult{Message: s.cfg.Prompt.OfflineMessage, Offline: true}, nil
	}

	result := &SendResult{ConversationID: req.ConversationID}

	if req.VisitorIP != "" && !req.IsPartner {
		record, err := s.limits.Bump(ctx, s.HashIdentifier(req.VisitorIP), s.cfg.RateWindow)
		if err != nil {
			return nil, err
		}
		if record.MessageCount > s.cfg.RateLimit {
			s.logger.Debug().Str("identifier", record.Identifier).Msg("chat rate limit reached")
			return &SendResult{
				Message:      s.cfg.Prompt.LimitMessage,
				LimitReached: true,
				Limited:      true,
			}, nil
		}
		result.Limited = true
		result.Remaining = s.cfg.RateLimit - record.MessageCount
	}

	if result.ConversationID == "" && req.SessionID != "" {
		id, err := s.resolveConversation(ctx, req)
		if err != nil {
			return nil, err
		}
		result.ConversationID = id
	}

	if s.wantsHuman(req.Message) && result.ConversationID != "" {
		if err := s.conversations.Escalate(ctx, result.ConversationID, req.Message); err != nil {
			return nil, err
		}
		result.Message = s.cfg.Prompt.HandoffMessage
		result.Escalated = true
		return result, nil
	}

	if result.ConversationID != "" {
		if err := s.logMessage(ctx, result.ConversationID, domain.RoleUser, req.Message, nil); err != nil {
			return nil, err
		}
	}

	completion, err := s.completer.Complete(ctx, s.buildWindow(req))
	if err != nil {
		// Provider trouble never reaches the visitor as a raw error.
		s.logger.Error().Err(err).Msg("assistant completion failed")
		result.Message = s.cfg.Prompt.FailureMessage
		result.Failed = true
		return result, nil
	}

	if result.ConversationID != "" {
		tokens := completion.TokensUsed
		if err := s.logMessage(ctx, result.ConversationID, domain.RoleAssistant, completion.Content, &tokens); err != nil {
			return nil, err
		}
	}

	result.Message = completion.Content
	result.TokensUsed = completion.TokensUsed
	return result, nil
}

// Quick answers a one-off question with no session, history or rate counter.
func (s *Service) Quick(ctx context.Context, question string) (*SendResult, error) {
	return s.Send(ctx, SendRequest{Message: question})
}

// Escalate marks a conversation for human follow-up and returns the
// acknowledgment to show the visitor.
func (s *Service) Escalate(ctx context.Context, conversationID, reason string) (string, error) {
	if err := s.conversations.Escalate(ctx, conversationID, reason); err != nil {
		return "", err
	}
	return s.cfg.Prompt.HandoffMessage, nil
}

// Analytics summarizes assistant activity over the trailing number of days.
func (s *Service) Analytics(ctx context.Context, days int) (*domain.ChatAnalytics, error) {
	if days <= 0 {
		days = 30
	}
	since := time.Now().Add(-time.Duration(days) * 24 * time.Hour)
	return s.conversations.Analytics(ctx, since)
}

func (s *Service) resolveConversation(ctx context.Context, req SendRequest) (string, error) {
	cutoff := time.Now().Add(-s.cfg.RateWindow)
	existing, err := s.conversations.FindActiveBySession(ctx, req.SessionID, cutoff)
	if err == nil {
		return existing.ID, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return "", err
	}

	conversation := &domain.ChatConversation{
		ID:        uuid.NewString(),
		SessionID: req.SessionID,
		IsPartner: req.IsPartner,
		StartedAt: time.Now(),
	}
	if req.PartnerID != "" {
		partnerID := req.PartnerID
		conversation.PartnerID = &partnerID
	}
	if req.VisitorIP != "" {
		conversation.VisitorHash = s.HashIdentifier(req.VisitorIP)
		if s.geo != nil {
			if country, err := s.geo.CountryCode(req.VisitorIP); err == nil {
				conversation.VisitorCountry = country
			}
		}
	}
	if err := s.conversations.Create(ctx, conversation); err != nil {
		return "", err
	}
	return conversation.ID, nil
}

func (s *Service) wantsHuman(message string) bool {
	lower := strings.ToLower(message)
	for _, keyword := range s.cfg.Prompt.HandoffKeywords {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}

func (s *Service) buildWindow(req SendRequest) []assistant.Message {
	history := req.History
	if len(history) > historyWindow {
		history = history[len(history)-historyWindow:]
	}
	messages := make([]assistant.Message, 0, len(history)+2)
	messages = append(messages, assistant.Message{Role: "system", Content: s.cfg.Prompt.SystemPrompt})
	for _, turn := range history {
		role := strings.ToLower(turn.Role)
		if role != "user" && role != "assistant" && role != "system" {
			continue
		}
		messages = append(messages, assistant.Message{Role: role, Content: turn.Content})
	}
	return append(messages, assistant.Message{Role: "user", Content: req.Message})
}

func (s *Service) logMessage(ctx context.Context, conversationID string, role domain.ChatRole, content string, tokens *int) error {
	return s.conversations.AppendMessage(ctx, &domain.ChatMessage{
		ID:             uuid.NewString(),
		ConversationID: conversationID,
		Role:           role,
		Content:        content,
		TokensUsed:     tokens,
		CreatedAt:      time.Now(),
	})
}
