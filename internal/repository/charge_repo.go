package repository

import (
	"context"
	"time"

	"indicafacil_backend/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ChargeRepository struct {
	db *pgxpool.Pool
}

func NewChargeRepository(db *pgxpool.Pool) *ChargeRepository {
	return &ChargeRepository{db: db}
}

// Create persists a new pending charge
func (r *ChargeRepository) Create(ctx context.Context, c *domain.Charge) error {
	return r.db.QueryRow(ctx, `
		INSERT INTO pix_charges (transaction_id, account_id, package_id, amount, credits, bonus_credits, pay_code, qr_asset, status, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at
	`, c.TransactionID, c.AccountID, c.PackageID, c.Amount, c.Credits, c.BonusCredits,
		c.PayCode, c.QRAsset, c.Status, c.ExpiresAt).Scan(&c.ID, &c.CreatedAt)
}

// GetByTransactionID retrieves a charge by its gateway-correlatable id
func (r *ChargeRepository) GetByTransactionID(ctx context.Context, transactionID string) (*domain.Charge, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, transaction_id, account_id, package_id, amount, credits, bonus_credits,
		       pay_code, qr_asset, status, created_at, expires_at, paid_at
		FROM pix_charges
		WHERE transaction_id = $1
	`, transactionID)

	return scanCharge(row)
}

// GetByAccountID retrieves recent charges for an account
func (r *ChargeRepository) GetByAccountID(ctx context.Context, accountID int64, limit int) ([]domain.Charge, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.Query(ctx, `
		SELECT id, transaction_id, account_id, package_id, amount, credits, bonus_credits,
		       pay_code, qr_asset, status, created_at, expires_at, paid_at
		FROM pix_charges
		WHERE account_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, accountID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanCharges(rows)
}

// FindPendingByAmount is the degraded resolution path for webhooks that
// carry no transaction id: unexpired pending charges with a matching
// amount for the payer's account, newest first. The payer email is
// mandatory; crediting money by amount alone could pick the wrong
// account. LIMIT 2 lets the caller detect ambiguity without counting.
func (r *ChargeRepository) FindPendingByAmount(ctx context.Context, amount int64, customerEmail string) ([]domain.Charge, error) {
	rows, err := r.db.Query(ctx, `
		SELECT c.id, c.transaction_id, c.account_id, c.package_id, c.amount, c.credits, c.bonus_credits,
		       c.pay_code, c.qr_asset, c.status, c.created_at, c.expires_at, c.paid_at
		FROM pix_charges c
		JOIN accounts a ON a.id = c.account_id
		WHERE c.status = 'pending'
		  AND c.amount = $1
		  AND c.expires_at > NOW()
		  AND a.email = $2
		ORDER BY c.created_at DESC
		LIMIT 2
	`, amount, customerEmail)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanCharges(rows)
}

// MarkPaidWithTx transitions pending -> paid inside an existing database
// transaction. The conditional update is the concurrency tie-break: only
// one of two racing deliveries observes RowsAffected()==1; the loser gets
// pgx.ErrNoRows and must re-read the now-terminal status.
func (r *ChargeRepository) MarkPaidWithTx(ctx context.Context, tx pgx.Tx, transactionID string, paidAt time.Time) error {
	result, err := tx.Exec(ctx, `
		UPDATE pix_charges SET status = 'paid', paid_at = $2
		WHERE transaction_id = $1 AND status = 'pending'
	`, transactionID, paidAt)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// MarkCancelled transitions pending -> cancelled
func (r *ChargeRepository) MarkCancelled(ctx context.Context, transactionID string) error {
	result, err := r.db.Exec(ctx, `
		UPDATE pix_charges SET status = 'cancelled'
		WHERE transaction_id = $1 AND status = 'pending'
	`, transactionID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// MarkExpired lazily expires a pending charge whose TTL has passed
func (r *ChargeRepository) MarkExpired(ctx context.Context, transactionID string) error {
	result, err := r.db.Exec(ctx, `
		UPDATE pix_charges SET status = 'expired'
		WHERE transaction_id = $1 AND status = 'pending' AND expires_at <= NOW()
	`, transactionID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func scanCharge(row pgx.Row) (*domain.Charge, error) {
	var c domain.Charge
	var paidAt *time.Time

	if err := row.Scan(
		&c.ID, &c.TransactionID, &c.AccountID, &c.PackageID, &c.Amount, &c.Credits, &c.BonusCredits,
		&c.PayCode, &c.QRAsset, &c.Status, &c.CreatedAt, &c.ExpiresAt, &paidAt,
	); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	c.PaidAt = paidAt
	return &c, nil
}

func scanCharges(rows pgx.Rows) ([]domain.Charge, error) {
	var charges []domain.Charge

	for rows.Next() {
		var c domain.Charge
		var paidAt *time.Time

		if err := rows.Scan(
			&c.ID, &c.TransactionID, &c.AccountID, &c.PackageID, &c.Amount, &c.Credits, &c.BonusCredits,
			&c.PayCode, &c.QRAsset, &c.Status, &c.CreatedAt, &c.ExpiresAt, &paidAt,
		); err != nil {
			return nil, err
		}

		c.PaidAt = paidAt
		charges = append(charges, c)
	}

	return charges, rows.Err()
}
