package domain

import "time"

// WithdrawalStatus represents withdrawal processing status.
type WithdrawalStatus string

const (
	WithdrawalStatusPending   WithdrawalStatus = "pending"
	WithdrawalStatusCompleted WithdrawalStatus = "completed"
	WithdrawalStatusRejected  WithdrawalStatus = "rejected"
)

// Withdrawal fee and limits, centavos.
const (
	WithdrawalFeePercent = 10
	MinWithdrawalAmount  = 100_00
)

// Withdrawal is a Pix payout request. The gross amount is debited from the
// balance when the request is created; rejecting refunds it.
type Withdrawal struct {
	ID              int64            `db:"id" json:"id"`
	AccountID       int64            `db:"account_id" json:"account_id"`
	Amount          int64            `db:"amount" json:"amount"`
	PixKey          string           `db:"pix_key" json:"pix_key"`
	Fee             int64            `db:"fee" json:"fee"`
	NetAmount       int64            `db:"net_amount" json:"net_amount"`
	Status          WithdrawalStatus `db:"status" json:"status"`
	Reference       string           `db:"reference" json:"reference"`
	RejectionReason string           `db:"rejection_reason" json:"rejection_reason,omitempty"`
	ProcessedBy     *int64           `db:"processed_by" json:"processed_by,omitempty"`
	ProcessedAt     *time.Time       `db:"processed_at" json:"processed_at,omitempty"`
	CreatedAt       time.Time        `db:"created_at" json:"created_at"`
}

// WithdrawalFee returns the fee charged on a gross withdrawal amount.
func WithdrawalFee(amount int64) int64 {
	return amount * WithdrawalFeePercent / 100
}
