package domain

import "time"

// AuditLog represents an audit log entry for tracking important actions
type AuditLog struct {
	ID        int64                  `db:"id" json:"id"`
	AccountID int64                  `db:"account_id" json:"account_id"`
	Action    string                 `db:"action" json:"action"`
	Category  string                 `db:"category" json:"category"`
	Details   map[string]interface{} `db:"details" json:"details"`
	IP        string                 `db:"ip" json:"ip,omitempty"`
	UserAgent string                 `db:"user_agent" json:"user_agent,omitempty"`
	CreatedAt time.Time              `db:"created_at" json:"created_at"`
}

// Audit action categories
const (
	AuditCategoryAuth       = "auth"
	AuditCategoryPayment    = "payment"
	AuditCategoryBalance    = "balance"
	AuditCategoryAdmin      = "admin"
	AuditCategoryReferral   = "referral"
	AuditCategoryWithdrawal = "withdrawal"
)

// Audit actions
const (
	AuditActionSignup = "signup"
	AuditActionLogin  = "login"

	AuditActionChargeCreate    = "charge_create"
	AuditActionChargePaid      = "charge_paid"
	AuditActionChargeCancelled = "charge_cancelled"
	AuditActionChargeExpired   = "charge_expired"
	AuditActionCommissionPaid  = "commission_paid"
	AuditActionResidualBonus   = "residual_bonus"

	AuditActionWithdrawRequest = "withdraw_request"
	AuditActionWithdrawApprove = "withdraw_approve"
	AuditActionWithdrawReject  = "withdraw_reject"

	AuditActionAdminAdjustBalance = "admin_adjust_balance"
	AuditActionAdminAdjustCredits = "admin_adjust_credits"
	AuditActionUnmatchedResolved  = "unmatched_resolved"
)
