package domain

import "time"

// ReferralStatus represents the state of a referral link.
type ReferralStatus string

const (
	ReferralStatusPending ReferralStatus = "pending"
	ReferralStatusActive  ReferralStatus = "active"
)

// Referral payout policy, centavos. The fixed commission is paid once, on
// the referred account's first completed recharge; every later recharge
// pays the referrer a percentage of the recharge amount instead.
const (
	ReferralCommission   = 30_00
	ResidualBonusPercent = 15
)

// ReferralLink ties a referred account to its referrer. CommissionPaid
// records the fixed commission amount once it has been paid out.
type ReferralLink struct {
	ID             int64          `db:"id" json:"id"`
	ReferrerID     int64          `db:"referrer_id" json:"referrer_id"`
	ReferredID     int64          `db:"referred_id" json:"referred_id"`
	Status         ReferralStatus `db:"status" json:"status"`
	CommissionPaid int64          `db:"commission_paid" json:"commission_paid"`
	CommissionAt   *time.Time     `db:"commission_at" json:"commission_at,omitempty"`
	CreatedAt      time.Time      `db:"created_at" json:"created_at"`
}

// ResidualBonus returns the referrer's cut of a recharge amount.
func ResidualBonus(rechargeAmount int64) int64 {
	return rechargeAmount * ResidualBonusPercent / 100
}
