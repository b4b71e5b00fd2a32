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

const commissionMaxAttempts = 5

// CommissionService pays referrers when their referred accounts complete
// recharges. First completed recharge pays the fixed commission and
// activates the link; every later recharge pays the residual percentage.
type CommissionService struct {
	db           *pgxpool.Pool
	accountRepo  *repository.AccountRepository
	referralRepo *repository.ReferralRepository
	ledgerRepo   *repository.LedgerRepository
	retryRepo    *repository.CommissionRetryRepository
	balance      *BalanceService
	audit        *AuditService
}

func NewCommissionService(db *pgxpool.Pool) *CommissionService {
	return &CommissionService{
		db:           db,
		accountRepo:  repository.NewAccountRepository(db),
		referralRepo: repository.NewReferralRepository(db),
		ledgerRepo:   repository.NewLedgerRepository(db),
		retryRepo:    repository.NewCommissionRetryRepository(db),
		balance:      NewBalanceService(db),
		audit:        NewAuditService(db),
	}
}

// Apply runs the cascade for one completed recharge. It is idempotent:
// calling it again for the same transaction id is a no-op, so retries
// after partial failures are safe.
func (s *CommissionService) Apply(ctx context.Context, paidAccountID int64, transactionID string, amount int64) error {
	link, err := s.referralRepo.GetByReferredID(ctx, paidAccountID)
	if err != nil {
		return fmt.Errorf("load referral link: %w", err)
	}
	if link == nil {
		return nil
	}

	referrer, err := s.accountRepo.GetByID(ctx, link.ReferrerID)
	if err != nil {
		return fmt.Errorf("load referrer: %w", err)
	}
	if referrer == nil {
		// Referrer row gone (manual cleanup). Nothing to pay, and retrying
		// will not bring it back.
		logger.Warn("referral link points at missing account",
			"referrer_id", link.ReferrerID, "referred_id", paidAccountID)
		return nil
	}

	if link.Status == domain.ReferralStatusPending {
		err := s.payFixed(ctx, link, transactionID)
		if err == nil || !errors.Is(err, pgx.ErrNoRows) {
			return err
		}
		// Lost the activation race to a concurrent recharge; this one
		// earns the residual instead.
	}

	return s.payResidual(ctx, link, transactionID, amount)
}

// payFixed activates the link and credits the one-time commission. The
// activation CAS and the balance credit commit together.
func (s *CommissionService) payFixed(ctx context.Context, link *domain.ReferralLink, transactionID string) error {
	refID := transactionID + ":commission"

	done, err := s.ledgerRepo.ExistsCompleted(ctx, refID, domain.LedgerTypeCommission)
	if err != nil {
		return err
	}
	if done {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := s.referralRepo.ActivateWithTx(ctx, tx, link.ReferredID, domain.ReferralCommission); err != nil {
		return err
	}

	if _, err := s.balance.CreditWithTx(ctx, tx, link.ReferrerID, domain.ReferralCommission); err != nil {
		return err
	}

	entry := &domain.LedgerEntry{
		AccountID:   link.ReferrerID,
		Type:        domain.LedgerTypeCommission,
		Amount:      domain.ReferralCommission,
		Description: "Comissão por primeira recarga de indicado",
		ReferenceID: refID,
		Status:      domain.LedgerStatusCompleted,
		Meta: map[string]interface{}{
			"referred_id":    link.ReferredID,
			"transaction_id": transactionID,
		},
	}
	if err := s.ledgerRepo.CreateWithTx(ctx, tx, entry); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	CommissionPayouts.WithLabelValues("commission").Inc()
	logger.Info("referral commission paid",
		"referrer_id", link.ReferrerID,
		"referred_id", link.ReferredID,
		"amount", domain.ReferralCommission,
		"transaction_id", transactionID)

	s.audit.Log(ctx, link.ReferrerID, domain.AuditActionCommissionPaid, domain.AuditCategoryReferral, map[string]interface{}{
		"referred_id":    link.ReferredID,
		"amount":         domain.ReferralCommission,
		"transaction_id": transactionID,
	})

	return nil
}

// payResidual credits the percentage cut for a recharge after the first.
func (s *CommissionService) payResidual(ctx context.Context, link *domain.ReferralLink, transactionID string, amount int64) error {
	bonus := domain.ResidualBonus(amount)
	if bonus <= 0 {
		return nil
	}

	refID := transactionID + ":bonus"

	done, err := s.ledgerRepo.ExistsCompleted(ctx, refID, domain.LedgerTypeBonus)
	if err != nil {
		return err
	}
	if done {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := s.balance.CreditWithTx(ctx, tx, link.ReferrerID, bonus); err != nil {
		return err
	}

	entry := &domain.LedgerEntry{
		AccountID:   link.ReferrerID,
		Type:        domain.LedgerTypeBonus,
		Amount:      bonus,
		Description: "Bônus residual sobre recarga de indicado",
		ReferenceID: refID,
		Status:      domain.LedgerStatusCompleted,
		Meta: map[string]interface{}{
			"referred_id":     link.ReferredID,
			"transaction_id":  transactionID,
			"recharge_amount": amount,
		},
	}
	if err := s.ledgerRepo.CreateWithTx(ctx, tx, entry); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	CommissionPayouts.WithLabelValues("bonus").Inc()
	logger.Info("residual bonus paid",
		"referrer_id", link.ReferrerID,
		"referred_id", link.ReferredID,
		"amount", bonus,
		"transaction_id", transactionID)

	s.audit.Log(ctx, link.ReferrerID, domain.AuditActionResidualBonus, domain.AuditCategoryReferral, map[string]interface{}{
		"referred_id":     link.ReferredID,
		"amount":          bonus,
		"transaction_id":  transactionID,
		"recharge_amount": amount,
	})

	return nil
}

// EnqueueRetry stores a failed cascade for the background worker.
func (s *CommissionService) EnqueueRetry(ctx context.Context, accountID int64, transactionID string, amount int64, cause error) error {
	return s.retryRepo.Enqueue(ctx, accountID, transactionID, amount, cause.Error())
}

// StartRetryWorker drains the retry queue on a fixed interval until ctx
// is cancelled. Entries that keep failing past the attempt limit are
// parked for manual review.
func (s *CommissionService) StartRetryWorker(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.runRetries(ctx)
			}
		}
	}()
}

func (s *CommissionService) runRetries(ctx context.Context) {
	due, err := s.retryRepo.Due(ctx, 50)
	if err != nil {
		logger.Error("failed to load commission retries", "error", err)
		return
	}

	for _, retry := range due {
		if err := s.Apply(ctx, retry.AccountID, retry.TransactionID, retry.Amount); err != nil {
			logger.Warn("commission retry failed",
				"transaction_id", retry.TransactionID, "attempt", retry.Attempts+1, "error", err)
			CommissionRetries.Inc()
			if rErr := s.retryRepo.RecordFailure(ctx, retry.ID, err.Error(), commissionMaxAttempts); rErr != nil {
				logger.Error("failed to record commission retry failure", "id", retry.ID, "error", rErr)
			}
			continue
		}
		if err := s.retryRepo.Delete(ctx, retry.ID); err != nil {
			logger.Error("failed to clear commission retry", "id", retry.ID, "error", err)
		}
	}
}
