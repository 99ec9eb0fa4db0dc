package repo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"greenshillings/internal/domain"
)

// PartnerRepositoryPG implements domain.PartnerRepository using PostgreSQL.
type PartnerRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewPartnerRepository creates a new partner repo.
func NewPartnerRepository(pool *pgxpool.Pool) *PartnerRepositoryPG {
	return &PartnerRepositoryPG{pool: pool}
}

const partnerColumns = `id, name, slug, access_key_id, access_key_hash, status, created_at, updated_at`

// Create inserts a new partner organization.
func (r *PartnerRepositoryPG) Create(ctx context.Context, org *domain.PartnerOrganization) error {
	_, err := r.pool.Exec(ctx, `
INSERT INTO partner_organizations (id, name, slug, access_key_id, access_key_hash, status)
VALUES ($1, $2, $3, $4, $5, $6);
`, org.ID, org.Name, org.Slug, org.AccessKeyID, org.AccessKeyHash, org.Status)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.ErrDuplicate
		}
		return err
	}
	return nil
}

// GetByAccessKeyID fetches a partner by its public access key id.
func (r *PartnerRepositoryPG) GetByAccessKeyID(ctx context.Context, accessKeyID string) (*domain.PartnerOrganization, error) {
	row := r.pool.QueryRow(ctx, `
SELECT `+partnerColumns+` FROM partner_organizations WHERE access_key_id = $1`, accessKeyID)
	return scanPartner(row)
}

// List returns all partner organizations, newest first.
func (r *PartnerRepositoryPG) List(ctx context.Context) ([]domain.PartnerOrganization, error) {
	rows, err := r.pool.Query(ctx, `
SELECT `+partnerColumns+` FROM partner_organizations ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.PartnerOrganization
	for rows.Next() {
		var p domain.PartnerOrganization
		if err := rows.Scan(
			&p.ID, &p.Name, &p.Slug, &p.AccessKeyID, &p.AccessKeyHash,
			&p.Status, &p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func scanPartner(row pgx.Row) (*domain.PartnerOrganization, error) {
	var p domain.PartnerOrganization
	if err := row.Scan(
		&p.ID, &p.Name, &p.Slug, &p.AccessKeyID, &p.AccessKeyHash,
		&p.Status, &p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}
