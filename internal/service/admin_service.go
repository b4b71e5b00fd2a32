package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"indicafacil_backend/internal/domain"
	"indicafacil_backend/internal/logger"
	"indicafacil_backend/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrUnmatchedDecided = errors.New("unmatched payment already resolved")

// AdminService provides operator statistics and manual interventions
type AdminService struct {
	db            *pgxpool.Pool
	accountRepo   *repository.AccountRepository
	ledgerRepo    *repository.LedgerRepository
	unmatchedRepo *repository.UnmatchedPaymentRepository
	retryRepo     *repository.CommissionRetryRepository
	balance       *BalanceService
	audit         *AuditService
}

// NewAdminService creates a new admin service
func NewAdminService(db *pgxpool.Pool) *AdminService {
	return &AdminService{
		db:            db,
		accountRepo:   repository.NewAccountRepository(db),
		ledgerRepo:    repository.NewLedgerRepository(db),
		unmatchedRepo: repository.NewUnmatchedPaymentRepository(db),
		retryRepo:     repository.NewCommissionRetryRepository(db),
		balance:       NewBalanceService(db),
		audit:         NewAuditService(db),
	}
}

// Stats represents platform statistics
type Stats struct {
	TotalAccounts    int64 `json:"total_accounts"`
	NewAccountsToday int64 `json:"new_accounts_today"`
	NewAccountsWeek  int64 `json:"new_accounts_week"`

	TotalBalance int64 `json:"total_balance"` // Balance in circulation, centavos
	TotalCredits int64 `json:"total_credits"` // Credits in circulation

	ChargesPaidToday   int64 `json:"charges_paid_today"`
	ChargesPaidTotal   int64 `json:"charges_paid_total"`
	RevenueToday       int64 `json:"revenue_today"`        // Paid charges today, centavos
	RevenueTotal       int64 `json:"revenue_total"`        // All-time paid charges, centavos
	PendingCharges     int64 `json:"pending_charges"`

	CommissionsPaid int64 `json:"commissions_paid"` // Total commission + bonus payouts, centavos
	ActiveReferrals int64 `json:"active_referrals"`

	PendingWithdrawals int64 `json:"pending_withdrawals"`
	TotalWithdrawn     int64 `json:"total_withdrawn"` // Completed withdrawals, centavos

	OpenUnmatched     int64 `json:"open_unmatched"`
	CommissionsStuck  int64 `json:"commissions_stuck"` // Retries parked for review
}

// GetStats returns platform statistics
func (s *AdminService) GetStats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}
	today := time.Now().Truncate(24 * time.Hour)
	weekAgo := today.Add(-7 * 24 * time.Hour)

	_ = s.db.QueryRow(ctx, `SELECT COUNT(*) FROM accounts`).Scan(&stats.TotalAccounts)

	_ = s.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM accounts WHERE created_at >= $1
	`, today).Scan(&stats.NewAccountsToday)

	_ = s.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM accounts WHERE created_at >= $1
	`, weekAgo).Scan(&stats.NewAccountsWeek)

	_ = s.db.QueryRow(ctx, `SELECT COALESCE(SUM(balance), 0) FROM accounts`).Scan(&stats.TotalBalance)
	_ = s.db.QueryRow(ctx, `SELECT COALESCE(SUM(credits), 0) FROM accounts`).Scan(&stats.TotalCredits)

	_ = s.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM pix_charges WHERE status = 'paid' AND paid_at >= $1
	`, today).Scan(&stats.ChargesPaidToday)

	_ = s.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM pix_charges WHERE status = 'paid'
	`).Scan(&stats.ChargesPaidTotal)

	_ = s.db.QueryRow(ctx, `
		SELECT COALESCE(SUM(amount), 0) FROM pix_charges WHERE status = 'paid' AND paid_at >= $1
	`, today).Scan(&stats.RevenueToday)

	_ = s.db.QueryRow(ctx, `
		SELECT COALESCE(SUM(amount), 0) FROM pix_charges WHERE status = 'paid'
	`).Scan(&stats.RevenueTotal)

	_ = s.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM pix_charges WHERE status = 'pending'
	`).Scan(&stats.PendingCharges)

	_ = s.db.QueryRow(ctx, `
		SELECT COALESCE(SUM(amount), 0) FROM ledger_entries
		WHERE type IN ('commission', 'bonus') AND status = 'completed'
	`).Scan(&stats.CommissionsPaid)

	_ = s.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM referral_links WHERE status = 'active'
	`).Scan(&stats.ActiveReferrals)

	_ = s.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM withdrawals WHERE status = 'pending'
	`).Scan(&stats.PendingWithdrawals)

	_ = s.db.QueryRow(ctx, `
		SELECT COALESCE(SUM(net_amount), 0) FROM withdrawals WHERE status = 'completed'
	`).Scan(&stats.TotalWithdrawn)

	_ = s.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM unmatched_payments WHERE NOT resolved
	`).Scan(&stats.OpenUnmatched)

	_ = s.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM commission_retries WHERE needs_review
	`).Scan(&stats.CommissionsStuck)

	return stats, nil
}

// AccountInfo represents account details for the admin surface
type AccountInfo struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	Role          string    `json:"role"`
	Credits       int64     `json:"credits"`
	Balance       int64     `json:"balance"`
	ReferralCode  string    `json:"referral_code"`
	ReferredBy    *int64    `json:"referred_by,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	TotalRecharge int64     `json:"total_recharged"`
	ReferralCount int64     `json:"referral_count"`
}

// GetAccount returns account info by ID, email or referral code
func (s *AdminService) GetAccount(ctx context.Context, identifier string) (*AccountInfo, error) {
	var account *domain.Account
	var err error

	if id, pErr := strconv.ParseInt(identifier, 10, 64); pErr == nil {
		account, err = s.accountRepo.GetByID(ctx, id)
	} else if strings.Contains(identifier, "@") {
		account, err = s.accountRepo.GetByEmail(ctx, identifier)
	} else {
		account, err = s.accountRepo.GetByReferralCode(ctx, identifier)
	}
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, nil
	}

	info := &AccountInfo{
		ID:           account.ID,
		Name:         account.Name,
		Email:        account.Email,
		Role:         account.Role,
		Credits:      account.Credits,
		Balance:      account.Balance,
		ReferralCode: account.ReferralCode,
		ReferredBy:   account.ReferredBy,
		CreatedAt:    account.CreatedAt,
	}

	_ = s.db.QueryRow(ctx, `
		SELECT COALESCE(SUM(amount), 0) FROM pix_charges WHERE account_id = $1 AND status = 'paid'
	`, account.ID).Scan(&info.TotalRecharge)
	_ = s.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM referral_links WHERE referrer_id = $1
	`, account.ID).Scan(&info.ReferralCount)

	return info, nil
}

// ListAccounts returns accounts with pagination
func (s *AdminService) ListAccounts(ctx context.Context, limit, offset int) ([]*domain.Account, int64, error) {
	var total int64
	_ = s.db.QueryRow(ctx, `SELECT COUNT(*) FROM accounts`).Scan(&total)

	accounts, err := s.accountRepo.List(ctx, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return accounts, total, nil
}

// AdjustBalance applies a signed manual correction to an account's
// balance. The change lands in the ledger as an adjustment entry, so
// manual money moves audit the same way gateway money does.
func (s *AdminService) AdjustBalance(ctx context.Context, adminID, accountID, delta int64, reason string) (int64, error) {
	ref := fmt.Sprintf("ADJ_%d_%d", accountID, time.Now().UnixMilli())
	meta := map[string]interface{}{"admin_id": adminID, "reason": reason}

	var newBalance int64
	var err error
	if delta >= 0 {
		newBalance, err = s.balance.Credit(ctx, accountID, delta, domain.LedgerTypeAdjustment,
			"Ajuste manual de saldo", ref, meta)
	} else {
		newBalance, err = s.balance.Debit(ctx, accountID, -delta, domain.LedgerTypeAdjustment,
			"Ajuste manual de saldo", ref, meta)
	}
	if err != nil {
		return 0, err
	}

	logger.Info("admin balance adjustment",
		"admin_id", adminID, "account_id", accountID, "delta", delta, "new_balance", newBalance)
	s.audit.LogAdminAction(ctx, adminID, domain.AuditActionAdminAdjustBalance, accountID, map[string]interface{}{
		"delta":  delta,
		"reason": reason,
	})

	return newBalance, nil
}

// AdjustCredits applies a signed manual correction to an account's
// credits.
func (s *AdminService) AdjustCredits(ctx context.Context, adminID, accountID, delta int64, reason string) (int64, error) {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var newCredits int64
	if delta >= 0 {
		newCredits, err = s.balance.AddCreditsWithTx(ctx, tx, accountID, delta)
	} else {
		newCredits, err = s.balance.SpendCreditsWithTx(ctx, tx, accountID, -delta)
	}
	if err != nil {
		return 0, err
	}

	entry := &domain.LedgerEntry{
		AccountID:   accountID,
		Type:        domain.LedgerTypeAdjustment,
		Amount:      0,
		Description: "Ajuste manual de créditos",
		ReferenceID: fmt.Sprintf("ADJC_%d_%d", accountID, time.Now().UnixMilli()),
		Status:      domain.LedgerStatusCompleted,
		Meta: map[string]interface{}{
			"admin_id": adminID,
			"credits":  delta,
			"reason":   reason,
		},
	}
	if err := s.ledgerRepo.CreateWithTx(ctx, tx, entry); err != nil {
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}

	logger.Info("admin credits adjustment",
		"admin_id", adminID, "account_id", accountID, "delta", delta, "new_credits", newCredits)
	s.audit.LogAdminAction(ctx, adminID, domain.AuditActionAdminAdjustCredits, accountID, map[string]interface{}{
		"delta":  delta,
		"reason": reason,
	})

	return newCredits, nil
}

// SetRole promotes or demotes an account
func (s *AdminService) SetRole(ctx context.Context, adminID, accountID int64, role string) error {
	if role != domain.RoleUser && role != domain.RoleAdmin {
		return fmt.Errorf("unknown role %q", role)
	}
	if err := s.accountRepo.SetRole(ctx, accountID, role); err != nil {
		return err
	}
	s.audit.LogAdminAction(ctx, adminID, "set_role", accountID, map[string]interface{}{"role": role})
	return nil
}

// OpenUnmatched returns unresolved unmatched payments for review
func (s *AdminService) OpenUnmatched(ctx context.Context, limit int) ([]domain.UnmatchedPayment, error) {
	return s.unmatchedRepo.GetOpen(ctx, limit)
}

// ResolveUnmatched closes an unmatched payment after manual handling.
// Any balance correction is a separate AdjustBalance call, so the
// resolution itself stays idempotent.
func (s *AdminService) ResolveUnmatched(ctx context.Context, id, adminID int64) error {
	if err := s.unmatchedRepo.Resolve(ctx, id, adminID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrUnmatchedDecided
		}
		return err
	}
	s.audit.Log(ctx, adminID, domain.AuditActionUnmatchedResolved, domain.AuditCategoryAdmin,
		map[string]interface{}{"unmatched_id": id})
	return nil
}

// StuckCommissions returns cascade retries parked for manual review
func (s *AdminService) StuckCommissions(ctx context.Context) ([]repository.CommissionRetry, error) {
	return s.retryRepo.GetNeedsReview(ctx)
}
