package repository

import (
	"context"
	"time"

	"indicafacil_backend/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ReferralStats struct {
	TotalReferrals   int   `json:"total_referrals"`
	ActiveReferrals  int   `json:"active_referrals"`
	TotalCommissions int64 `json:"total_commissions"`
	TotalBonus       int64 `json:"total_bonus"`
}

type ReferralRepository struct {
	db *pgxpool.Pool
}

func NewReferralRepository(db *pgxpool.Pool) *ReferralRepository {
	return &ReferralRepository{db: db}
}

// CreateLink records a referrer/referred relationship at signup time.
// A referred account can only ever have one referrer.
func (r *ReferralRepository) CreateLink(ctx context.Context, referrerID, referredID int64) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO referral_links (referrer_id, referred_id, status)
		VALUES ($1, $2, 'pending')
		ON CONFLICT (referred_id) DO NOTHING
	`, referrerID, referredID)
	return err
}

// GetByReferredID finds the link pointing at a referred account
func (r *ReferralRepository) GetByReferredID(ctx context.Context, referredID int64) (*domain.ReferralLink, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, referrer_id, referred_id, status, commission_paid, commission_at, created_at
		FROM referral_links
		WHERE referred_id = $1
	`, referredID)

	return scanReferralLink(row)
}

// GetByReferrer returns all referral links made by a referrer
func (r *ReferralRepository) GetByReferrer(ctx context.Context, referrerID int64) ([]domain.ReferralLink, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, referrer_id, referred_id, status, commission_paid, commission_at, created_at
		FROM referral_links
		WHERE referrer_id = $1
		ORDER BY created_at DESC
	`, referrerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var links []domain.ReferralLink
	for rows.Next() {
		var l domain.ReferralLink
		var commissionAt *time.Time
		if err := rows.Scan(&l.ID, &l.ReferrerID, &l.ReferredID, &l.Status,
			&l.CommissionPaid, &commissionAt, &l.CreatedAt); err != nil {
			return nil, err
		}
		l.CommissionAt = commissionAt
		links = append(links, l)
	}

	return links, rows.Err()
}

// ActivateWithTx flips a pending link to active and records the paid
// commission, inside an existing transaction. The status guard makes the
// fixed commission payable at most once per link.
func (r *ReferralRepository) ActivateWithTx(ctx context.Context, tx pgx.Tx, referredID, commission int64) error {
	result, err := tx.Exec(ctx, `
		UPDATE referral_links
		SET status = 'active', commission_paid = $2, commission_at = $3
		WHERE referred_id = $1 AND status = 'pending'
	`, referredID, commission, time.Now())
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// GetStats aggregates a referrer's earnings from the ledger
func (r *ReferralRepository) GetStats(ctx context.Context, referrerID int64) (*ReferralStats, error) {
	stats := &ReferralStats{}

	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*), COUNT(*) FILTER (WHERE status = 'active')
		FROM referral_links
		WHERE referrer_id = $1
	`, referrerID).Scan(&stats.TotalReferrals, &stats.ActiveReferrals)
	if err != nil {
		return nil, err
	}

	err = r.db.QueryRow(ctx, `
		SELECT
			COALESCE(SUM(amount) FILTER (WHERE type = 'commission'), 0),
			COALESCE(SUM(amount) FILTER (WHERE type = 'bonus'), 0)
		FROM ledger_entries
		WHERE account_id = $1 AND status = 'completed'
	`, referrerID).Scan(&stats.TotalCommissions, &stats.TotalBonus)
	if err != nil {
		return nil, err
	}

	return stats, nil
}

func scanReferralLink(row pgx.Row) (*domain.ReferralLink, error) {
	var l domain.ReferralLink
	var commissionAt *time.Time

	if err := row.Scan(
		&l.ID, &l.ReferrerID, &l.ReferredID, &l.Status,
		&l.CommissionPaid, &commissionAt, &l.CreatedAt,
	); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	l.CommissionAt = commissionAt
	return &l, nil
}
