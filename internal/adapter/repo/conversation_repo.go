package repo

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"greenshillings/internal/domain"
)

// ConversationRepositoryPG implements domain.ConversationRepository using PostgreSQL.
type ConversationRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewConversationRepository creates a new conversation repo.
func NewConversationRepository(pool *pgxpool.Pool) *ConversationRepositoryPG {
	return &ConversationRepositoryPG{pool: pool}
}

const conversationColumns = `id, session_id, visitor_hash, visitor_country, is_partner, partner_id,
message_count, tokens_used, started_at, last_message_at, escalated_at, escalation_reason`

// FindActiveBySession returns the newest conversation for a session started at
// or after the cutoff.
func (r *ConversationRepositoryPG) FindActiveBySession(ctx context.Context, sessionID string, startedAfter time.Time) (*domain.ChatConversation, error) {
	row := r.pool.QueryRow(ctx, `
SELECT `+conversationColumns+`
FROM chat_conversations
WHERE session_id = $1 AND started_at >= $2
ORDER BY started_at DESC
LIMIT 1;
`, sessionID, startedAfter)
	return scanConversation(row)
}

// Create inserts a new conversation.
func (r *ConversationRepositoryPG) Create(ctx context.Context, c *domain.ChatConversation) error {
	_, err := r.pool.Exec(ctx, `
INSERT INTO chat_conversations (id, session_id, visitor_hash, visitor_country, is_partner, partner_id, started_at)
VALUES ($1, $2, $3, $4, $5, $6, $7);
`, c.ID, c.SessionID, c.VisitorHash, c.VisitorCountry, c.IsPartner, c.PartnerID, c.StartedAt)
	return err
}

// GetByID fetches a conversation by id.
func (r *ConversationRepositoryPG) GetByID(ctx context.Context, id string) (*domain.ChatConversation, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+conversationColumns+` FROM chat_conversations WHERE id = $1`, id)
	return scanConversation(row)
}

// AppendMessage stores the message and bumps the parent conversation's
// counters in the same transaction.
func (r *ConversationRepositoryPG) AppendMessage(ctx context.Context, m *domain.ChatMessage) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
INSERT INTO chat_messages (id, conversation_id, role, content, tokens_used)
VALUES ($1, $2, $3, $4, $5);
`, m.ID, m.ConversationID, m.Role, m.Content, m.TokensUsed)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `
UPDATE chat_conversations
SET message_count = message_count + 1,
    tokens_used = tokens_used + COALESCE($2, 0),
    last_message_at = NOW()
WHERE id = $1;
`, m.ConversationID, m.TokensUsed)
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// Escalate stamps the conversation as handed off to a human.
func (r *ConversationRepositoryPG) Escalate(ctx context.Context, conversationID, reason string) error {
	tag, err := r.pool.Exec(ctx, `
UPDATE chat_conversations
SET escalated_at = NOW(), escalation_reason = $2
WHERE id = $1;
`, conversationID, reason)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Analytics aggregates assistant activity since the given time.
func (r *ConversationRepositoryPG) Analytics(ctx context.Context, since time.Time) (*domain.ChatAnalytics, error) {
	row := r.pool.QueryRow(ctx, `
SELECT COUNT(*),
       COALESCE(SUM(message_count), 0),
       COUNT(*) FILTER (WHERE escalated_at IS NOT NULL),
       COUNT(*) FILTER (WHERE is_partner),
       COUNT(*) FILTER (WHERE NOT is_partner)
FROM chat_conversations
WHERE started_at >= $1;
`, since)

	var a domain.ChatAnalytics
	if err := row.Scan(
		&a.TotalConversations, &a.TotalMessages, &a.Escalations,
		&a.PartnerConversations, &a.PublicConversations,
	); err != nil {
		return nil, err
	}
	return &a, nil
}

func scanConversation(row pgx.Row) (*domain.ChatConversation, error) {
	var c domain.ChatConversation
	if err := row.Scan(
		&c.ID, &c.SessionID, &c.VisitorHash, &c.VisitorCountry, &c.IsPartner, &c.PartnerID,
		&c.MessageCount, &c.TokensUsed, &c.StartedAt, &c.LastMessageAt, &c.EscalatedAt, &c.EscalationReason,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}
