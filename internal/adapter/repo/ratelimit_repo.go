package repo

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"greenshillings/internal/domain"
)

// RateLimitRepositoryPG implements domain.RateLimitRepository using PostgreSQL.
type RateLimitRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewRateLimitRepository creates a new rate limit repo.
func NewRateLimitRepository(pool *pgxpool.Pool) *RateLimitRepositoryPG {
	return &RateLimitRepositoryPG{pool: pool}
}

// Bump increments the identifier's counter in a single upsert. An expired
// window resets to count 1 before applying this call's increment; otherwise
// the stored count grows, so concurrent bumps serialize on the row and never
// both observe the same pre-increment value.
func (r *RateLimitRepositoryPG) Bump(ctx context.Context, identifier string, window time.Duration) (*domain.RateLimitRecord, error) {
	row := r.pool.QueryRow(ctx, `
INSERT INTO chat_rate_limits (identifier, message_count, window_start)
VALUES ($1, 1, NOW())
ON CONFLICT (identifier) DO UPDATE
SET message_count = CASE
        WHEN chat_rate_limits.window_start <= NOW() - make_interval(secs => $2) THEN 1
        ELSE chat_rate_limits.message_count + 1
    END,
    window_start = CASE
        WHEN chat_rate_limits.window_start <= NOW() - make_interval(secs => $2) THEN NOW()
        ELSE chat_rate_limits.window_start
    END
RETURNING identifier, message_count, window_start;
`, identifier, window.Seconds())

	var rec domain.RateLimitRecord
	if err := row.Scan(&rec.Identifier, &rec.MessageCount, &rec.WindowStart); err != nil {
		return nil, err
	}
	return &rec, nil
}
