package domain

import "time"

// Ledger entry types
const (
	LedgerTypeRecharge   = "recharge"
	LedgerTypeCommission = "commission"
	LedgerTypeBonus      = "bonus"
	LedgerTypeWithdrawal = "withdrawal"
	LedgerTypeAdjustment = "adjustment"
)

// LedgerEntryStatus represents the state of a ledger entry.
type LedgerEntryStatus string

const (
	LedgerStatusPending   LedgerEntryStatus = "pending"
	LedgerStatusCompleted LedgerEntryStatus = "completed"
	LedgerStatusFailed    LedgerEntryStatus = "failed"
)

// LedgerEntry is one append-only transaction record. Amount is signed
// centavos: positive credits the balance, negative debits it.
//
// The (reference_id, type) pair is unique for completed entries; that
// uniqueness is the idempotency contract for gateway-triggered credits.
type LedgerEntry struct {
	ID          int64                  `db:"id" json:"id"`
	AccountID   int64                  `db:"account_id" json:"account_id"`
	Type        string                 `db:"type" json:"type"`
	Amount      int64                  `db:"amount" json:"amount"`
	Description string                 `db:"description" json:"description"`
	ReferenceID string                 `db:"reference_id" json:"reference_id"`
	Status      LedgerEntryStatus      `db:"status" json:"status"`
	Meta        map[string]interface{} `db:"meta" json:"meta,omitempty"`
	CreatedAt   time.Time              `db:"created_at" json:"created_at"`
}

// UnmatchedPayment is a well-formed gateway event that could not be
// resolved to any charge. Money may be unaccounted, so these are stored
// for manual reconciliation instead of being dropped.
type UnmatchedPayment struct {
	ID         int64      `db:"id" json:"id"`
	GatewayTxID string    `db:"gateway_tx_id" json:"gateway_tx_id"`
	Amount     int64      `db:"amount" json:"amount"`
	Customer   string     `db:"customer" json:"customer,omitempty"`
	RawPayload []byte     `db:"raw_payload" json:"raw_payload,omitempty"`
	Reason     string     `db:"reason" json:"reason"`
	Resolved   bool       `db:"resolved" json:"resolved"`
	ResolvedBy *int64     `db:"resolved_by" json:"resolved_by,omitempty"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
	ResolvedAt *time.Time `db:"resolved_at" json:"resolved_at,omitempty"`
}
