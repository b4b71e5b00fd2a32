package repository

import (
	"context"
	"time"

	"indicafacil_backend/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type WithdrawalRepository struct {
	db *pgxpool.Pool
}

func NewWithdrawalRepository(db *pgxpool.Pool) *WithdrawalRepository {
	return &WithdrawalRepository{db: db}
}

// CreateWithTx inserts a withdrawal request inside an existing transaction
// so the balance pre-debit and the request commit together.
func (r *WithdrawalRepository) CreateWithTx(ctx context.Context, tx pgx.Tx, w *domain.Withdrawal) error {
	return tx.QueryRow(ctx, `
		INSERT INTO withdrawals (account_id, amount, pix_key, fee, net_amount, status, reference)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`, w.AccountID, w.Amount, w.PixKey, w.Fee, w.NetAmount, w.Status, w.Reference).
		Scan(&w.ID, &w.CreatedAt)
}

// GetByID retrieves a withdrawal by ID
func (r *WithdrawalRepository) GetByID(ctx context.Context, id int64) (*domain.Withdrawal, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, account_id, amount, pix_key, fee, net_amount, status, reference,
		       rejection_reason, processed_by, processed_at, created_at
		FROM withdrawals
		WHERE id = $1
	`, id)

	return scanWithdrawal(row)
}

// GetByAccountID retrieves withdrawals for an account, newest first
func (r *WithdrawalRepository) GetByAccountID(ctx context.Context, accountID int64, limit int) ([]domain.Withdrawal, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.Query(ctx, `
		SELECT id, account_id, amount, pix_key, fee, net_amount, status, reference,
		       rejection_reason, processed_by, processed_at, created_at
		FROM withdrawals
		WHERE account_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, accountID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanWithdrawals(rows)
}

// GetPending retrieves all withdrawals awaiting a decision
func (r *WithdrawalRepository) GetPending(ctx context.Context) ([]domain.Withdrawal, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, account_id, amount, pix_key, fee, net_amount, status, reference,
		       rejection_reason, processed_by, processed_at, created_at
		FROM withdrawals
		WHERE status = 'pending'
		ORDER BY created_at ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanWithdrawals(rows)
}

// List retrieves all withdrawals, newest first
func (r *WithdrawalRepository) List(ctx context.Context, limit int) ([]domain.Withdrawal, error) {
	if limit <= 0 {
		limit = 200
	}

	rows, err := r.db.Query(ctx, `
		SELECT id, account_id, amount, pix_key, fee, net_amount, status, reference,
		       rejection_reason, processed_by, processed_at, created_at
		FROM withdrawals
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanWithdrawals(rows)
}

// Approve transitions pending -> completed. Returns pgx.ErrNoRows when the
// withdrawal is not pending, which makes repeated approvals a no-op.
func (r *WithdrawalRepository) Approve(ctx context.Context, id, adminID int64) error {
	result, err := r.db.Exec(ctx, `
		UPDATE withdrawals SET status = 'completed', processed_by = $2, processed_at = $3
		WHERE id = $1 AND status = 'pending'
	`, id, adminID, time.Now())
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// RejectWithTx transitions pending -> rejected inside an existing
// transaction so the refund commits with the status change. The
// conditional update makes a second reject observe pgx.ErrNoRows instead
// of refunding twice.
func (r *WithdrawalRepository) RejectWithTx(ctx context.Context, tx pgx.Tx, id, adminID int64, reason string) error {
	result, err := tx.Exec(ctx, `
		UPDATE withdrawals SET status = 'rejected', processed_by = $2, processed_at = $3, rejection_reason = $4
		WHERE id = $1 AND status = 'pending'
	`, id, adminID, time.Now(), reason)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func scanWithdrawal(row pgx.Row) (*domain.Withdrawal, error) {
	var w domain.Withdrawal
	var rejectionReason *string
	var processedBy *int64
	var processedAt *time.Time

	if err := row.Scan(
		&w.ID, &w.AccountID, &w.Amount, &w.PixKey, &w.Fee, &w.NetAmount, &w.Status,
		&w.Reference, &rejectionReason, &processedBy, &processedAt, &w.CreatedAt,
	); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	if rejectionReason != nil {
		w.RejectionReason = *rejectionReason
	}
	w.ProcessedBy = processedBy
	w.ProcessedAt = processedAt

	return &w, nil
}

func scanWithdrawals(rows pgx.Rows) ([]domain.Withdrawal, error) {
	var withdrawals []domain.Withdrawal

	for rows.Next() {
		var w domain.Withdrawal
		var rejectionReason *string
		var processedBy *int64
		var processedAt *time.Time

		if err := rows.Scan(
			&w.ID, &w.AccountID, &w.Amount, &w.PixKey, &w.Fee, &w.NetAmount, &w.Status,
			&w.Reference, &rejectionReason, &processedBy, &processedAt, &w.CreatedAt,
		); err != nil {
			return nil, err
		}

		if rejectionReason != nil {
			w.RejectionReason = *rejectionReason
		}
		w.ProcessedBy = processedBy
		w.ProcessedAt = processedAt

		withdrawals = append(withdrawals, w)
	}

	return withdrawals, rows.Err()
}
