package repository

import (
	"context"
	"time"

	"indicafacil_backend/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UnmatchedPaymentRepository struct {
	db *pgxpool.Pool
}

func NewUnmatchedPaymentRepository(db *pgxpool.Pool) *UnmatchedPaymentRepository {
	return &UnmatchedPaymentRepository{db: db}
}

// Create records a payment event that could not be matched to a charge
func (r *UnmatchedPaymentRepository) Create(ctx context.Context, u *domain.UnmatchedPayment) error {
	return r.db.QueryRow(ctx, `
		INSERT INTO unmatched_payments (gateway_tx_id, amount, customer, raw_payload, reason)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`, u.GatewayTxID, u.Amount, u.Customer, u.RawPayload, u.Reason).Scan(&u.ID, &u.CreatedAt)
}

// GetOpen returns unresolved unmatched payments, oldest first
func (r *UnmatchedPaymentRepository) GetOpen(ctx context.Context, limit int) ([]domain.UnmatchedPayment, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := r.db.Query(ctx, `
		SELECT id, gateway_tx_id, amount, customer, raw_payload, reason, resolved, resolved_by, created_at, resolved_at
		FROM unmatched_payments
		WHERE NOT resolved
		ORDER BY created_at ASC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []domain.UnmatchedPayment
	for rows.Next() {
		var u domain.UnmatchedPayment
		var resolvedBy *int64
		var resolvedAt *time.Time
		if err := rows.Scan(&u.ID, &u.GatewayTxID, &u.Amount, &u.Customer, &u.RawPayload,
			&u.Reason, &u.Resolved, &resolvedBy, &u.CreatedAt, &resolvedAt); err != nil {
			return nil, err
		}
		u.ResolvedBy = resolvedBy
		u.ResolvedAt = resolvedAt
		payments = append(payments, u)
	}

	return payments, rows.Err()
}

// Resolve marks an unmatched payment as handled by an operator
func (r *UnmatchedPaymentRepository) Resolve(ctx context.Context, id, adminID int64) error {
	result, err := r.db.Exec(ctx, `
		UPDATE unmatched_payments SET resolved = TRUE, resolved_by = $2, resolved_at = $3
		WHERE id = $1 AND NOT resolved
	`, id, adminID, time.Now())
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
