package service

import (
	"context"
	"errors"
	"time"

	"indicafacil_backend/internal/domain"
	"indicafacil_backend/internal/logger"
	"indicafacil_backend/internal/pix"
	"indicafacil_backend/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ReconcileOutcome classifies what a webhook delivery did.
type ReconcileOutcome string

const (
	OutcomeApplied   ReconcileOutcome = "applied"
	OutcomeDuplicate ReconcileOutcome = "duplicate"
	OutcomeCancelled ReconcileOutcome = "cancelled"
	OutcomeExpired   ReconcileOutcome = "expired"
	OutcomeUnmatched ReconcileOutcome = "unmatched"
)

// PaymentNotifier pushes charge-status changes to connected clients.
type PaymentNotifier interface {
	NotifyChargePaid(accountID int64, charge *domain.Charge)
}

// ReconcileService applies normalized payment events to charge, account
// and ledger state exactly once. It is invoked per inbound webhook
// request; concurrent deliveries for the same charge are serialized by
// the conditional status transition in the charge repository.
type ReconcileService struct {
	db            *pgxpool.Pool
	chargeRepo    *repository.ChargeRepository
	ledgerRepo    *repository.LedgerRepository
	unmatchedRepo *repository.UnmatchedPaymentRepository
	balance       *BalanceService
	commission    *CommissionService
	notifier      PaymentNotifier
}

// NewReconcileService wires the reconciler to its collaborators. notifier
// may be nil.
func NewReconcileService(db *pgxpool.Pool, commission *CommissionService, notifier PaymentNotifier) *ReconcileService {
	return &ReconcileService{
		db:            db,
		chargeRepo:    repository.NewChargeRepository(db),
		ledgerRepo:    repository.NewLedgerRepository(db),
		unmatchedRepo: repository.NewUnmatchedPaymentRepository(db),
		balance:       NewBalanceService(db),
		commission:    commission,
		notifier:      notifier,
	}
}

// Reconcile applies one normalized event. Errors are
// storage-level only; every business outcome is an Outcome value so the
// webhook handler can always acknowledge with 2xx.
func (s *ReconcileService) Reconcile(ctx context.Context, ev *pix.PaymentEvent) (ReconcileOutcome, error) {
	charge, reason, err := s.resolveCharge(ctx, ev)
	if err != nil {
		return "", err
	}
	if charge == nil {
		if err := s.recordUnmatched(ctx, ev, reason); err != nil {
			return "", err
		}
		WebhookEvents.WithLabelValues(string(OutcomeUnmatched)).Inc()
		return OutcomeUnmatched, nil
	}

	// Duplicate delivery: gateways retry until they see 2xx, so an
	// already-terminal charge is success, not an error.
	if charge.Status.Terminal() {
		WebhookEvents.WithLabelValues(string(OutcomeDuplicate)).Inc()
		return OutcomeDuplicate, nil
	}

	// A success event for a charge past its TTL must not credit anyone,
	// but real money may have moved, so it is kept for operator review.
	if time.Now().After(charge.ExpiresAt) {
		if err := s.chargeRepo.MarkExpired(ctx, charge.TransactionID); err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return "", err
		}
		if ev.Success() {
			if err := s.recordUnmatched(ctx, ev, "success event for expired charge"); err != nil {
				return "", err
			}
		}
		WebhookEvents.WithLabelValues(string(OutcomeExpired)).Inc()
		logger.Warn("event for expired charge", "transaction_id", charge.TransactionID, "status", ev.Status)
		return OutcomeExpired, nil
	}

	if !ev.Success() {
		if err := s.chargeRepo.MarkCancelled(ctx, charge.TransactionID); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				// lost the race to another delivery
				WebhookEvents.WithLabelValues(string(OutcomeDuplicate)).Inc()
				return OutcomeDuplicate, nil
			}
			return "", err
		}
		WebhookEvents.WithLabelValues(string(OutcomeCancelled)).Inc()
		logger.Info("charge cancelled by gateway", "transaction_id", charge.TransactionID, "status", ev.Status)
		return OutcomeCancelled, nil
	}

	outcome, err := s.applyPayment(ctx, charge, ev)
	if err != nil {
		return "", err
	}
	WebhookEvents.WithLabelValues(string(outcome)).Inc()

	if outcome == OutcomeApplied {
		if s.notifier != nil {
			s.notifier.NotifyChargePaid(charge.AccountID, charge)
		}
		// Best-effort follow-up: the payer already has their credits, so a
		// cascade failure is queued for async retry instead of rolling back.
		if err := s.commission.Apply(ctx, charge.AccountID, charge.TransactionID, charge.Amount); err != nil {
			logger.Error("commission cascade failed, queued for retry",
				"transaction_id", charge.TransactionID, "error", err)
			CommissionRetries.Inc()
			if qErr := s.commission.EnqueueRetry(ctx, charge.AccountID, charge.TransactionID, charge.Amount, err); qErr != nil {
				logger.Error("failed to enqueue commission retry", "transaction_id", charge.TransactionID, "error", qErr)
			}
		}
	}

	return outcome, nil
}

// applyPayment commits the atomic triple: charge -> paid, credits
// incremented, recharge ledger entry inserted. One transaction, so a
// partial application cannot be observed.
func (s *ReconcileService) applyPayment(ctx context.Context, charge *domain.Charge, ev *pix.PaymentEvent) (ReconcileOutcome, error) {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return "", err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	paidAt := ev.PaidAt
	if paidAt.IsZero() {
		paidAt = time.Now().UTC()
	}

	if err := s.chargeRepo.MarkPaidWithTx(ctx, tx, charge.TransactionID, paidAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// a concurrent delivery won the transition
			return OutcomeDuplicate, nil
		}
		return "", err
	}

	totalCredits := charge.Credits + charge.BonusCredits
	if _, err := s.balance.AddCreditsWithTx(ctx, tx, charge.AccountID, totalCredits); err != nil {
		return "", err
	}

	entry := &domain.LedgerEntry{
		AccountID:   charge.AccountID,
		Type:        domain.LedgerTypeRecharge,
		Amount:      charge.Amount,
		Description: "Recarga de créditos via Pix",
		ReferenceID: charge.TransactionID,
		Status:      domain.LedgerStatusCompleted,
		Meta: map[string]interface{}{
			"package_id":    charge.PackageID,
			"credits":       charge.Credits,
			"bonus_credits": charge.BonusCredits,
			"paid_at":       paidAt,
		},
	}
	if err := s.ledgerRepo.CreateWithTx(ctx, tx, entry); err != nil {
		return "", err
	}

	if err := tx.Commit(ctx); err != nil {
		return "", err
	}

	charge.Status = domain.ChargeStatusPaid
	charge.PaidAt = &paidAt

	logger.Info("payment applied",
		"transaction_id", charge.TransactionID,
		"account_id", charge.AccountID,
		"credits_added", totalCredits,
		"amount", charge.Amount)

	return OutcomeApplied, nil
}

// resolveCharge finds the target charge: first by transaction id, then by
// (amount, payer email) as a degraded fallback for deliveries that lost
// their id in transit. The fallback only credits an exact single match:
// no payer email, or more than one candidate, and the event goes to the
// unmatched queue with the returned reason instead.
func (s *ReconcileService) resolveCharge(ctx context.Context, ev *pix.PaymentEvent) (*domain.Charge, string, error) {
	if ev.TransactionID != "" {
		charge, err := s.chargeRepo.GetByTransactionID(ctx, ev.TransactionID)
		if err != nil {
			return nil, "", err
		}
		if charge != nil {
			return charge, "", nil
		}
	}

	amount := ev.Amount
	if amount == 0 && ev.ProductID != "" {
		if pkg, ok := domain.PackageByGatewayProduct(ev.ProductID); ok {
			amount = pkg.Price
		}
	}
	if amount == 0 {
		return nil, "no matching charge", nil
	}
	if ev.Customer == "" {
		return nil, "amount-only event without payer email", nil
	}

	matches, err := s.chargeRepo.FindPendingByAmount(ctx, amount, ev.Customer)
	if err != nil {
		return nil, "", err
	}
	switch len(matches) {
	case 1:
		return &matches[0], "", nil
	case 0:
		return nil, "no matching charge", nil
	default:
		return nil, "ambiguous amount match", nil
	}
}

func (s *ReconcileService) recordUnmatched(ctx context.Context, ev *pix.PaymentEvent, reason string) error {
	logger.Warn("unmatched payment event",
		"gateway_tx_id", ev.TransactionID, "amount", ev.Amount, "reason", reason)
	return s.unmatchedRepo.Create(ctx, &domain.UnmatchedPayment{
		GatewayTxID: ev.TransactionID,
		Amount:      ev.Amount,
		Customer:    ev.Customer,
		RawPayload:  ev.Raw,
		Reason:      reason,
	})
}
