package repo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"greenshillings/internal/domain"
)

// DonorRepositoryPG implements domain.DonorRepository using PostgreSQL.
type DonorRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewDonorRepository creates a new donor repo.
func NewDonorRepository(pool *pgxpool.Pool) *DonorRepositoryPG {
	return &DonorRepositoryPG{pool: pool}
}

const donorColumns = `id, email, full_name, phone, whatsapp_number, preferred_channel,
donation_count, total_donated_cents, last_donation_at, created_at, updated_at`

// UpsertByEmail inserts or refreshes contact details. Aggregate counters are
// never written here; ApplySucceededDonation owns them.
func (r *DonorRepositoryPG) UpsertByEmail(ctx context.Context, donor *domain.Donor) (*domain.Donor, error) {
	row := r.pool.QueryRow(ctx, `
INSERT INTO donors (id, email, full_name, phone, whatsapp_number, preferred_channel)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (email) DO UPDATE
SET full_name = EXCLUDED.full_name,
    phone = COALESCE(EXCLUDED.phone, donors.phone),
    whatsapp_number = COALESCE(EXCLUDED.whatsapp_number, donors.whatsapp_number),
    preferred_channel = EXCLUDED.preferred_channel,
    updated_at = NOW()
RETURNING `+donorColumns+`;
`, donor.ID, donor.Email, donor.FullName, donor.Phone, donor.WhatsAppNumber, donor.PreferredChannel)
	return scanDonor(row)
}

// GetByID fetches a donor by id.
func (r *DonorRepositoryPG) GetByID(ctx context.Context, id string) (*domain.Donor, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+donorColumns+` FROM donors WHERE id = $1`, id)
	return scanDonor(row)
}

// ApplySucceededDonation increments the aggregate counters in one statement.
func (r *DonorRepositoryPG) ApplySucceededDonation(ctx context.Context, donorID string, amountCents int64) (*domain.Donor, error) {
	row := r.pool.QueryRow(ctx, `
UPDATE donors
SET donation_count = donation_count + 1,
    total_donated_cents = total_donated_cents + $2,
    last_donation_at = NOW(),
    updated_at = NOW()
WHERE id = $1
RETURNING `+donorColumns+`;
`, donorID, amountCents)
	return scanDonor(row)
}

// Aggregate returns donor count and the sum of donated totals.
func (r *DonorRepositoryPG) Aggregate(ctx context.Context) (int, int64, error) {
	row := r.pool.QueryRow(ctx, `SELECT COUNT(*), COALESCE(SUM(total_donated_cents), 0) FROM donors`)
	var count int
	var total int64
	if err := row.Scan(&count, &total); err != nil {
		return 0, 0, err
	}
	return count, total, nil
}

func scanDonor(row pgx.Row) (*domain.Donor, error) {
	var d domain.Donor
	if err := row.Scan(
		&d.ID, &d.Email, &d.FullName, &d.Phone, &d.WhatsAppNumber, &d.PreferredChannel,
		&d.DonationCount, &d.TotalDonatedCents, &d.LastDonationAt, &d.CreatedAt, &d.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &d, nil
}
