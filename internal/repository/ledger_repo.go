package repository

import (
	"context"
	"encoding/json"

	"indicafacil_backend/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type LedgerRepository struct {
	db *pgxpool.Pool
}

func NewLedgerRepository(db *pgxpool.Pool) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// Create inserts a new ledger entry
func (r *LedgerRepository) Create(ctx context.Context, e *domain.LedgerEntry) error {
	metaJSON, err := json.Marshal(e.Meta)
	if err != nil {
		metaJSON = []byte("{}")
	}

	return r.db.QueryRow(ctx, `
		INSERT INTO ledger_entries (account_id, type, amount, description, reference_id, status, meta)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`, e.AccountID, e.Type, e.Amount, e.Description, e.ReferenceID, e.Status, metaJSON).
		Scan(&e.ID, &e.CreatedAt)
}

// CreateWithTx inserts a ledger entry using an existing database transaction
func (r *LedgerRepository) CreateWithTx(ctx context.Context, tx pgx.Tx, e *domain.LedgerEntry) error {
	metaJSON, err := json.Marshal(e.Meta)
	if err != nil {
		metaJSON = []byte("{}")
	}

	return tx.QueryRow(ctx, `
		INSERT INTO ledger_entries (account_id, type, amount, description, reference_id, status, meta)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`, e.AccountID, e.Type, e.Amount, e.Description, e.ReferenceID, e.Status, metaJSON).
		Scan(&e.ID, &e.CreatedAt)
}

// ExistsCompleted checks the idempotency contract: whether a completed
// entry already exists for this (reference, type) pair.
func (r *LedgerRepository) ExistsCompleted(ctx context.Context, referenceID, entryType string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM ledger_entries
			WHERE reference_id = $1 AND type = $2 AND status = 'completed'
		)
	`, referenceID, entryType).Scan(&exists)
	return exists, err
}

// CountCompletedByType counts completed entries of a type for an account.
// Used to decide between the fixed commission and the residual bonus.
func (r *LedgerRepository) CountCompletedByType(ctx context.Context, accountID int64, entryType string) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM ledger_entries
		WHERE account_id = $1 AND type = $2 AND status = 'completed'
	`, accountID, entryType).Scan(&count)
	return count, err
}

// GetByAccountID returns recent ledger entries for an account
func (r *LedgerRepository) GetByAccountID(ctx context.Context, accountID int64, limit int) ([]*domain.LedgerEntry, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := r.db.Query(ctx, `
		SELECT id, account_id, type, amount, description, reference_id, status, meta, created_at
		FROM ledger_entries
		WHERE account_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, accountID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanLedgerEntries(rows)
}

// GetByReferenceID returns all entries correlated to a charge or withdrawal
func (r *LedgerRepository) GetByReferenceID(ctx context.Context, referenceID string) ([]*domain.LedgerEntry, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, account_id, type, amount, description, reference_id, status, meta, created_at
		FROM ledger_entries
		WHERE reference_id = $1
		ORDER BY created_at ASC
	`, referenceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanLedgerEntries(rows)
}

func scanLedgerEntries(rows pgx.Rows) ([]*domain.LedgerEntry, error) {
	var entries []*domain.LedgerEntry

	for rows.Next() {
		var e domain.LedgerEntry
		var metaJSON []byte

		if err := rows.Scan(&e.ID, &e.AccountID, &e.Type, &e.Amount, &e.Description,
			&e.ReferenceID, &e.Status, &metaJSON, &e.CreatedAt); err != nil {
			return nil, err
		}

		if len(metaJSON) > 0 {
			_ = json.Unmarshal(metaJSON, &e.Meta)
		}

		entries = append(entries, &e)
	}

	return entries, rows.Err()
}
