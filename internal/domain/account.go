package domain

import "time"

// Account roles
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Account is a user's monetizable state. Credits count usable
// referral-link activations; Balance is withdrawable money in centavos.
type Account struct {
	ID           int64     `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Role         string    `db:"role" json:"role"`
	Credits      int64     `db:"credits" json:"credits"`
	Balance      int64     `db:"balance" json:"balance"`
	ReferralCode string    `db:"referral_code" json:"referral_code"`
	ReferredBy   *int64    `db:"referred_by" json:"referred_by,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

func (a *Account) IsAdmin() bool {
	return a.Role == RoleAdmin
}
