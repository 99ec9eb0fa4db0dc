package repo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"greenshillings/internal/domain"
)

// DonationRepositoryPG implements domain.DonationRepository using PostgreSQL.
type DonationRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewDonationRepository creates a new donation repo.
func NewDonationRepository(pool *pgxpool.Pool) *DonationRepositoryPG {
	return &DonationRepositoryPG{pool: pool}
}

const donationColumns = `id, donor_id, amount_cents, currency, status, frequency,
provider_session, provider_payment, created_at, updated_at`

// Create inserts a new donation record.
func (r *DonationRepositoryPG) Create(ctx context.Context, donation *domain.Donation) error {
	_, err := r.pool.Exec(ctx, `
INSERT INTO donations (id, donor_id, amount_cents, currency, status, frequency, provider_session, provider_payment)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8);
`, donation.ID, donation.DonorID, donation.AmountCents, donation.Currency,
		donation.Status, donation.Frequency, donation.ProviderSession, donation.ProviderPayment)
	return err
}

// GetByID fetches a donation by id.
func (r *DonationRepositoryPG) GetByID(ctx context.Context, id string) (*domain.Donation, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+donationColumns+` FROM donations WHERE id = $1`, id)
	return scanDonation(row)
}

// MarkSucceeded performs the idempotent success transition as a single
// conditional update. Concurrent deliveries of the same event race on the
// status predicate; at most one sees applied=true.
func (r *DonationRepositoryPG) MarkSucceeded(ctx context.Context, id, providerSession, providerPayment string) (*domain.Donation, bool, error) {
	row := r.pool.QueryRow(ctx, `
UPDATE donations
SET status = 'SUCCEEDED',
    provider_session = $2,
    provider_payment = $3,
    updated_at = NOW()
WHERE id = $1 AND status <> 'SUCCEEDED'
RETURNING `+donationColumns+`;
`, id, providerSession, providerPayment)

	donation, err := scanDonation(row)
	if err == nil {
		return donation, true, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, false, err
	}

	// No row updated: the donation either already succeeded or does not exist.
	donation, err = r.GetByID(ctx, id)
	if err != nil {
		return nil, false, err
	}
	return donation, false, nil
}

// MarkFailed transitions PENDING to FAILED; terminal states are untouched.
func (r *DonationRepositoryPG) MarkFailed(ctx context.Context, id string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
UPDATE donations
SET status = 'FAILED', updated_at = NOW()
WHERE id = $1 AND status = 'PENDING';
`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// ListRecent returns the newest donations, limited by the input value.
func (r *DonationRepositoryPG) ListRecent(ctx context.Context, limit int) ([]domain.Donation, error) {
	rows, err := r.pool.Query(ctx, `
SELECT `+donationColumns+`
FROM donations
ORDER BY created_at DESC
LIMIT $1;
`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.Donation
	for rows.Next() {
		var d domain.Donation
		if err := rows.Scan(
			&d.ID, &d.DonorID, &d.AmountCents, &d.Currency, &d.Status, &d.Frequency,
			&d.ProviderSession, &d.ProviderPayment, &d.CreatedAt, &d.UpdatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func scanDonation(row pgx.Row) (*domain.Donation, error) {
	var d domain.Donation
	if err := row.Scan(
		&d.ID, &d.DonorID, &d.AmountCents, &d.Currency, &d.Status, &d.Frequency,
		&d.ProviderSession, &d.ProviderPayment, &d.CreatedAt, &d.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &d, nil
}
