package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"indicafacil_backend/internal/domain"
	"indicafacil_backend/internal/logger"
	"indicafacil_backend/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrWithdrawalTooSmall = errors.New("withdrawal below minimum amount")
	ErrWithdrawalNotFound = errors.New("withdrawal not found")
	ErrWithdrawalDecided  = errors.New("withdrawal already decided")
)

// WithdrawalService handles Pix payout requests. The gross amount leaves
// the balance when the request is created, so a pending withdrawal can
// never be double-spent; rejection puts it back.
type WithdrawalService struct {
	db         *pgxpool.Pool
	repo       *repository.WithdrawalRepository
	ledgerRepo *repository.LedgerRepository
	balance    *BalanceService
	audit      *AuditService
}

func NewWithdrawalService(db *pgxpool.Pool) *WithdrawalService {
	return &WithdrawalService{
		db:         db,
		repo:       repository.NewWithdrawalRepository(db),
		ledgerRepo: repository.NewLedgerRepository(db),
		balance:    NewBalanceService(db),
		audit:      NewAuditService(db),
	}
}

// Request creates a withdrawal. Debit, request row and ledger entry
// commit in one transaction.
func (s *WithdrawalService) Request(ctx context.Context, accountID, amount int64, pixKey string) (*domain.Withdrawal, error) {
	if amount < domain.MinWithdrawalAmount {
		return nil, ErrWithdrawalTooSmall
	}

	fee := domain.WithdrawalFee(amount)
	w := &domain.Withdrawal{
		AccountID: accountID,
		Amount:    amount,
		PixKey:    pixKey,
		Fee:       fee,
		NetAmount: amount - fee,
		Status:    domain.WithdrawalStatusPending,
		Reference: fmt.Sprintf("WD_%d_%d", accountID, time.Now().UnixMilli()),
	}

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := s.balance.DebitWithTx(ctx, tx, accountID, amount); err != nil {
		return nil, err
	}

	if err := s.repo.CreateWithTx(ctx, tx, w); err != nil {
		return nil, err
	}

	entry := &domain.LedgerEntry{
		AccountID:   accountID,
		Type:        domain.LedgerTypeWithdrawal,
		Amount:      -amount,
		Description: "Solicitação de saque via Pix",
		ReferenceID: w.Reference,
		Status:      domain.LedgerStatusCompleted,
		Meta: map[string]interface{}{
			"fee":        fee,
			"net_amount": w.NetAmount,
			"pix_key":    pixKey,
		},
	}
	if err := s.ledgerRepo.CreateWithTx(ctx, tx, entry); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	logger.Info("withdrawal requested",
		"account_id", accountID, "withdrawal_id", w.ID, "amount", amount, "net_amount", w.NetAmount)
	s.audit.LogWithdrawRequest(ctx, accountID, amount, fee, pixKey)

	return w, nil
}

// Approve marks a pending withdrawal as completed after the operator has
// sent the Pix transfer. Approving twice is a no-op error.
func (s *WithdrawalService) Approve(ctx context.Context, id, adminID int64) (*domain.Withdrawal, error) {
	w, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if w == nil {
		return nil, ErrWithdrawalNotFound
	}

	if err := s.repo.Approve(ctx, id, adminID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrWithdrawalDecided
		}
		return nil, err
	}

	logger.Info("withdrawal approved", "withdrawal_id", id, "admin_id", adminID, "account_id", w.AccountID)
	s.audit.LogWithdrawApprove(ctx, w.AccountID, id, adminID)

	return s.repo.GetByID(ctx, id)
}

// Reject refuses a pending withdrawal and refunds the gross amount. The
// status CAS runs inside the refund transaction, so a repeated reject
// observes the decided state and refunds nothing.
func (s *WithdrawalService) Reject(ctx context.Context, id, adminID int64, reason string) (*domain.Withdrawal, error) {
	w, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if w == nil {
		return nil, ErrWithdrawalNotFound
	}

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := s.repo.RejectWithTx(ctx, tx, id, adminID, reason); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrWithdrawalDecided
		}
		return nil, err
	}

	if _, err := s.balance.CreditWithTx(ctx, tx, w.AccountID, w.Amount); err != nil {
		return nil, err
	}

	entry := &domain.LedgerEntry{
		AccountID:   w.AccountID,
		Type:        domain.LedgerTypeWithdrawal,
		Amount:      w.Amount,
		Description: "Estorno de saque recusado",
		ReferenceID: w.Reference + ":refund",
		Status:      domain.LedgerStatusCompleted,
		Meta: map[string]interface{}{
			"withdrawal_id": id,
			"reason":        reason,
		},
	}
	if err := s.ledgerRepo.CreateWithTx(ctx, tx, entry); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	logger.Info("withdrawal rejected",
		"withdrawal_id", id, "admin_id", adminID, "account_id", w.AccountID, "refunded", w.Amount)
	s.audit.LogWithdrawReject(ctx, w.AccountID, id, adminID, reason)

	return s.repo.GetByID(ctx, id)
}

// History returns an account's withdrawals, newest first.
func (s *WithdrawalService) History(ctx context.Context, accountID int64, limit int) ([]domain.Withdrawal, error) {
	return s.repo.GetByAccountID(ctx, accountID, limit)
}

// Pending returns all withdrawals awaiting a decision, oldest first.
func (s *WithdrawalService) Pending(ctx context.Context) ([]domain.Withdrawal, error) {
	return s.repo.GetPending(ctx)
}

// List returns all withdrawals, newest first.
func (s *WithdrawalService) List(ctx context.Context, limit int) ([]domain.Withdrawal, error) {
	return s.repo.List(ctx, limit)
}
