package domain

import "time"

// ChatRole enumerates message authorship within a conversation.
type ChatRole string

const (
	RoleUser      ChatRole = "USER"
	RoleAssistant ChatRole = "ASSISTANT"
	RoleSystem    ChatRole = "SYSTEM"
)

// ChatConversation groups the messages of one visitor session. One live
// conversation exists per session per rolling 24-hour window; it is created
// lazily on the first message.
type ChatConversation struct {
	ID               string
	SessionID        string
	VisitorHash      string
	VisitorCountry   string
	IsPartner        bool
	PartnerID        *string
	MessageCount     int
	TokensUsed       int
	StartedAt        time.Time
	LastMessageAt    *time.Time
	EscalatedAt      *time.Time
	EscalationReason *string
}

// ChatMessage is an append-only log entry; never mutated or deleted.
type ChatMessage struct {
	ID             string
	ConversationID string
	Role           ChatRole
	Content        string
	TokensUsed     *int
	CreatedAt      time.Time
}

// RateLimitRecord tracks per-identifier usage inside a rolling window.
// The identifier is a salted hash, never a raw network address.
type RateLimitRecord struct {
	Identifier   string
	MessageCount int
	WindowStart  time.Time
}

// ChatAnalytics summarizes assistant activity over a reporting period.
type ChatAnalytics struct {
	TotalConversations   int
	TotalMessages        int
	Escalations          int
	PartnerConversations int
	PublicConversations  int
}
