package service

import (
	"context"

	"indicafacil_backend/internal/domain"
	"indicafacil_backend/internal/logger"
	"indicafacil_backend/internal/repository"

	"github.com/jackc/pgx/v5/pgxpool"
)

// AuditService handles audit logging
type AuditService struct {
	repo *repository.AuditRepository
}

// NewAuditService creates a new audit service
func NewAuditService(db *pgxpool.Pool) *AuditService {
	return &AuditService{
		repo: repository.NewAuditRepository(db),
	}
}

// Log creates a new audit log entry. Audit writes never fail the caller,
// a lost entry is logged and dropped.
func (s *AuditService) Log(ctx context.Context, accountID int64, action, category string, details map[string]interface{}) {
	log := &domain.AuditLog{
		AccountID: accountID,
		Action:    action,
		Category:  category,
		Details:   details,
	}

	if err := s.repo.Create(ctx, log); err != nil {
		logger.Error("failed to create audit log", "error", err, "action", action, "account_id", accountID)
	}
}

// LogWithRequest creates an audit log with request info (IP, User-Agent)
func (s *AuditService) LogWithRequest(ctx context.Context, accountID int64, action, category, ip, userAgent string, details map[string]interface{}) {
	log := &domain.AuditLog{
		AccountID: accountID,
		Action:    action,
		Category:  category,
		Details:   details,
		IP:        ip,
		UserAgent: userAgent,
	}

	if err := s.repo.Create(ctx, log); err != nil {
		logger.Error("failed to create audit log", "error", err, "action", action, "account_id", accountID)
	}
}

// LogCharge logs a charge lifecycle event
func (s *AuditService) LogCharge(ctx context.Context, accountID int64, action, transactionID string, amount int64) {
	s.Log(ctx, accountID, action, domain.AuditCategoryPayment, map[string]interface{}{
		"transaction_id": transactionID,
		"amount":         amount,
	})
}

// LogWithdrawRequest logs a withdrawal request
func (s *AuditService) LogWithdrawRequest(ctx context.Context, accountID int64, amount, fee int64, pixKey string) {
	s.Log(ctx, accountID, domain.AuditActionWithdrawRequest, domain.AuditCategoryWithdrawal, map[string]interface{}{
		"amount":  amount,
		"fee":     fee,
		"pix_key": pixKey,
	})
}

// LogWithdrawApprove logs a withdrawal approval
func (s *AuditService) LogWithdrawApprove(ctx context.Context, accountID, withdrawalID, adminID int64) {
	s.Log(ctx, accountID, domain.AuditActionWithdrawApprove, domain.AuditCategoryWithdrawal, map[string]interface{}{
		"withdrawal_id": withdrawalID,
		"admin_id":      adminID,
	})
}

// LogWithdrawReject logs a withdrawal rejection with the refund
func (s *AuditService) LogWithdrawReject(ctx context.Context, accountID, withdrawalID, adminID int64, reason string) {
	s.Log(ctx, accountID, domain.AuditActionWithdrawReject, domain.AuditCategoryWithdrawal, map[string]interface{}{
		"withdrawal_id": withdrawalID,
		"admin_id":      adminID,
		"reason":        reason,
	})
}

// LogAdminAction logs an admin action against a target account
func (s *AuditService) LogAdminAction(ctx context.Context, adminID int64, action string, targetAccountID int64, details map[string]interface{}) {
	if details == nil {
		details = make(map[string]interface{})
	}
	details["admin_id"] = adminID
	details["target_account_id"] = targetAccountID

	s.Log(ctx, targetAccountID, action, domain.AuditCategoryAdmin, details)
}

// LogLogin logs an account login
func (s *AuditService) LogLogin(ctx context.Context, accountID int64, ip, userAgent string) {
	s.LogWithRequest(ctx, accountID, domain.AuditActionLogin, domain.AuditCategoryAuth, ip, userAgent, nil)
}

// LogSignup logs a new registration, including the referral code used
func (s *AuditService) LogSignup(ctx context.Context, accountID int64, referralCode, ip, userAgent string) {
	var details map[string]interface{}
	if referralCode != "" {
		details = map[string]interface{}{"referral_code": referralCode}
	}
	s.LogWithRequest(ctx, accountID, domain.AuditActionSignup, domain.AuditCategoryAuth, ip, userAgent, details)
}

// GetAccountAuditLogs returns audit logs for an account
func (s *AuditService) GetAccountAuditLogs(ctx context.Context, accountID int64, limit int) ([]*domain.AuditLog, error) {
	return s.repo.GetByAccountID(ctx, accountID, limit)
}

// GetRecentLogs returns recent audit logs
func (s *AuditService) GetRecentLogs(ctx context.Context, limit int) ([]*domain.AuditLog, error) {
	return s.repo.GetRecent(ctx, limit)
}

// GetLogsByCategory returns logs by category
func (s *AuditService) GetLogsByCategory(ctx context.Context, category string, limit int) ([]*domain.AuditLog, error) {
	return s.repo.GetByCategory(ctx, category, limit)
}
