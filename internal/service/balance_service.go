package service

import (
	"context"
	"errors"

	"indicafacil_backend/internal/domain"
	"indicafacil_backend/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrAccountNotFound   = errors.New("account not found")
	ErrInvalidAmount     = errors.New("invalid amount")
)

// BalanceService is the single mutation primitive for account balances and
// credits. Every path that moves money (recharge credit, commission,
// bonus, withdrawal debit/refund, admin adjustment) goes through here so
// updates are conditional increments in one transaction, never a read
// followed by a blind write.
type BalanceService struct {
	db         *pgxpool.Pool
	ledgerRepo *repository.LedgerRepository
}

// NewBalanceService creates a new balance service
func NewBalanceService(db *pgxpool.Pool) *BalanceService {
	return &BalanceService{
		db:         db,
		ledgerRepo: repository.NewLedgerRepository(db),
	}
}

// GetBalance returns an account's current balance in centavos
func (s *BalanceService) GetBalance(ctx context.Context, accountID int64) (int64, error) {
	var balance int64
	err := s.db.QueryRow(ctx, `SELECT balance FROM accounts WHERE id = $1`, accountID).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrAccountNotFound
		}
		return 0, err
	}
	return balance, nil
}

// Credit adds amount to an account's balance and writes the ledger entry
// in the same transaction.
func (s *BalanceService) Credit(ctx context.Context, accountID, amount int64, entryType, description, referenceID string, meta map[string]interface{}) (newBalance int64, err error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	newBalance, err = s.CreditWithTx(ctx, tx, accountID, amount)
	if err != nil {
		return 0, err
	}

	entry := &domain.LedgerEntry{
		AccountID:   accountID,
		Type:        entryType,
		Amount:      amount,
		Description: description,
		ReferenceID: referenceID,
		Status:      domain.LedgerStatusCompleted,
		Meta:        meta,
	}
	if err = s.ledgerRepo.CreateWithTx(ctx, tx, entry); err != nil {
		return 0, err
	}

	if err = tx.Commit(ctx); err != nil {
		return 0, err
	}

	return newBalance, nil
}

// Debit removes amount from an account's balance and writes the ledger
// entry (negative amount) in the same transaction.
func (s *BalanceService) Debit(ctx context.Context, accountID, amount int64, entryType, description, referenceID string, meta map[string]interface{}) (newBalance int64, err error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	newBalance, err = s.DebitWithTx(ctx, tx, accountID, amount)
	if err != nil {
		return 0, err
	}

	entry := &domain.LedgerEntry{
		AccountID:   accountID,
		Type:        entryType,
		Amount:      -amount,
		Description: description,
		ReferenceID: referenceID,
		Status:      domain.LedgerStatusCompleted,
		Meta:        meta,
	}
	if err = s.ledgerRepo.CreateWithTx(ctx, tx, entry); err != nil {
		return 0, err
	}

	if err = tx.Commit(ctx); err != nil {
		return 0, err
	}

	return newBalance, nil
}

// CreditWithTx adds balance within an existing transaction
func (s *BalanceService) CreditWithTx(ctx context.Context, tx pgx.Tx, accountID, amount int64) (newBalance int64, err error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}

	err = tx.QueryRow(ctx,
		`UPDATE accounts SET balance = balance + $1 WHERE id = $2 RETURNING balance`,
		amount, accountID,
	).Scan(&newBalance)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrAccountNotFound
		}
		return 0, err
	}

	return newBalance, nil
}

// DebitWithTx removes balance within an existing transaction. The
// conditional update enforces balance >= 0 without a separate read.
func (s *BalanceService) DebitWithTx(ctx context.Context, tx pgx.Tx, accountID, amount int64) (newBalance int64, err error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}

	err = tx.QueryRow(ctx,
		`UPDATE accounts SET balance = balance - $1 WHERE id = $2 AND balance >= $1 RETURNING balance`,
		amount, accountID,
	).Scan(&newBalance)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			var exists bool
			_ = tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM accounts WHERE id = $1)`, accountID).Scan(&exists)
			if !exists {
				return 0, ErrAccountNotFound
			}
			return 0, ErrInsufficientFunds
		}
		return 0, err
	}

	return newBalance, nil
}

// AddCreditsWithTx grants referral-link credits within an existing transaction
func (s *BalanceService) AddCreditsWithTx(ctx context.Context, tx pgx.Tx, accountID, credits int64) (newCredits int64, err error) {
	if credits <= 0 {
		return 0, ErrInvalidAmount
	}

	err = tx.QueryRow(ctx,
		`UPDATE accounts SET credits = credits + $1 WHERE id = $2 RETURNING credits`,
		credits, accountID,
	).Scan(&newCredits)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrAccountNotFound
		}
		return 0, err
	}

	return newCredits, nil
}

// SpendCreditsWithTx consumes credits; the guard prevents going negative
func (s *BalanceService) SpendCreditsWithTx(ctx context.Context, tx pgx.Tx, accountID, credits int64) (newCredits int64, err error) {
	if credits <= 0 {
		return 0, ErrInvalidAmount
	}

	err = tx.QueryRow(ctx,
		`UPDATE accounts SET credits = credits - $1 WHERE id = $2 AND credits >= $1 RETURNING credits`,
		credits, accountID,
	).Scan(&newCredits)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			var exists bool
			_ = tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM accounts WHERE id = $1)`, accountID).Scan(&exists)
			if !exists {
				return 0, ErrAccountNotFound
			}
			return 0, ErrInsufficientFunds
		}
		return 0, err
	}

	return newCredits, nil
}

// GetLedgerHistory returns an account's recent ledger entries
func (s *BalanceService) GetLedgerHistory(ctx context.Context, accountID int64, limit int) ([]*domain.LedgerEntry, error) {
	return s.ledgerRepo.GetByAccountID(ctx, accountID, limit)
}
