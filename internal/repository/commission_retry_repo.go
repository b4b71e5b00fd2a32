package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// CommissionRetry is a queued commission cascade that failed after a
// successful recharge commit and is awaiting another attempt.
type CommissionRetry struct {
	ID            int64     `json:"id"`
	AccountID     int64     `json:"account_id"`
	TransactionID string    `json:"transaction_id"`
	Amount        int64     `json:"amount"`
	Attempts      int       `json:"attempts"`
	LastError     string    `json:"last_error,omitempty"`
	NeedsReview   bool      `json:"needs_review"`
	CreatedAt     time.Time `json:"created_at"`
	NextAttemptAt time.Time `json:"next_attempt_at"`
}

type CommissionRetryRepository struct {
	db *pgxpool.Pool
}

func NewCommissionRetryRepository(db *pgxpool.Pool) *CommissionRetryRepository {
	return &CommissionRetryRepository{db: db}
}

// Enqueue records a failed cascade for async retry. Enqueueing the same
// transaction twice is a no-op.
func (r *CommissionRetryRepository) Enqueue(ctx context.Context, accountID int64, transactionID string, amount int64, lastErr string) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO commission_retries (account_id, transaction_id, amount, attempts, last_error)
		VALUES ($1, $2, $3, 0, $4)
		ON CONFLICT (transaction_id) DO NOTHING
	`, accountID, transactionID, amount, lastErr)
	return err
}

// Due returns retries whose backoff has elapsed and that have not been
// escalated to manual review.
func (r *CommissionRetryRepository) Due(ctx context.Context, limit int) ([]CommissionRetry, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.Query(ctx, `
		SELECT id, account_id, transaction_id, amount, attempts, COALESCE(last_error, ''), needs_review, created_at, next_attempt_at
		FROM commission_retries
		WHERE NOT needs_review AND next_attempt_at <= NOW()
		ORDER BY next_attempt_at ASC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var retries []CommissionRetry
	for rows.Next() {
		var cr CommissionRetry
		if err := rows.Scan(&cr.ID, &cr.AccountID, &cr.TransactionID, &cr.Amount,
			&cr.Attempts, &cr.LastError, &cr.NeedsReview, &cr.CreatedAt, &cr.NextAttemptAt); err != nil {
			return nil, err
		}
		retries = append(retries, cr)
	}

	return retries, rows.Err()
}

// RecordFailure bumps the attempt count with exponential backoff and
// escalates to manual review once maxAttempts is reached.
func (r *CommissionRetryRepository) RecordFailure(ctx context.Context, id int64, lastErr string, maxAttempts int) error {
	_, err := r.db.Exec(ctx, `
		UPDATE commission_retries
		SET attempts = attempts + 1,
		    last_error = $2,
		    needs_review = (attempts + 1 >= $3),
		    next_attempt_at = NOW() + (INTERVAL '1 minute' * POWER(2, attempts))
		WHERE id = $1
	`, id, lastErr, maxAttempts)
	return err
}

// Delete removes a retry once the cascade has been applied
func (r *CommissionRetryRepository) Delete(ctx context.Context, id int64) error {
	_, err := r.db.Exec(ctx, `DELETE FROM commission_retries WHERE id = $1`, id)
	return err
}

// GetNeedsReview returns retries escalated for operator attention
func (r *CommissionRetryRepository) GetNeedsReview(ctx context.Context) ([]CommissionRetry, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, account_id, transaction_id, amount, attempts, COALESCE(last_error, ''), needs_review, created_at, next_attempt_at
		FROM commission_retries
		WHERE needs_review
		ORDER BY created_at ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var retries []CommissionRetry
	for rows.Next() {
		var cr CommissionRetry
		if err := rows.Scan(&cr.ID, &cr.AccountID, &cr.TransactionID, &cr.Amount,
			&cr.Attempts, &cr.LastError, &cr.NeedsReview, &cr.CreatedAt, &cr.NextAttemptAt); err != nil {
			return nil, err
		}
		retries = append(retries, cr)
	}

	return retries, rows.Err()
}
