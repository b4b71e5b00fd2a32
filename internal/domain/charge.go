package domain

import "time"

// ChargeStatus represents the lifecycle of a Pix charge.
// pending is the only non-terminal state; transitions are one-way.
type ChargeStatus string

const (
	ChargeStatusPending   ChargeStatus = "pending"
	ChargeStatusPaid      ChargeStatus = "paid"
	ChargeStatusExpired   ChargeStatus = "expired"
	ChargeStatusCancelled ChargeStatus = "cancelled"
)

// Terminal reports whether the status can never change again.
func (s ChargeStatus) Terminal() bool {
	return s == ChargeStatusPaid || s == ChargeStatusExpired || s == ChargeStatusCancelled
}

// Charge is a single requested Pix payment tracked until a terminal outcome.
// Amount is in centavos.
type Charge struct {
	ID            int64        `db:"id" json:"id"`
	TransactionID string       `db:"transaction_id" json:"transaction_id"`
	AccountID     int64        `db:"account_id" json:"account_id"`
	PackageID     int          `db:"package_id" json:"package_id"`
	Amount        int64        `db:"amount" json:"amount"`
	Credits       int64        `db:"credits" json:"credits"`
	BonusCredits  int64        `db:"bonus_credits" json:"bonus_credits"`
	PayCode       string       `db:"pay_code" json:"pay_code"`
	QRAsset       string       `db:"qr_asset" json:"qr_asset,omitempty"`
	Status        ChargeStatus `db:"status" json:"status"`
	CreatedAt     time.Time    `db:"created_at" json:"created_at"`
	ExpiresAt     time.Time    `db:"expires_at" json:"expires_at"`
	PaidAt        *time.Time   `db:"paid_at" json:"paid_at,omitempty"`
}

// CreditPackage is one purchasable recharge option. Price is in centavos.
type CreditPackage struct {
	ID      int    `json:"id"`
	Credits int64  `json:"credits"`
	Price   int64  `json:"price"`
	Bonus   int64  `json:"bonus"`
	Label   string `json:"label"`
}

// TotalCredits is what the buyer receives when the charge is paid.
func (p CreditPackage) TotalCredits() int64 {
	return p.Credits + p.Bonus
}

// ActivationPackageID marks the one-time account activation fee.
const ActivationPackageID = 5

// Packages is the canonical product table. The historical handlers carried
// several inconsistent copies of it; this one is the single source of truth.
var Packages = []CreditPackage{
	{ID: 1, Credits: 10, Price: 10_00, Bonus: 0, Label: "10 créditos"},
	{ID: 2, Credits: 25, Price: 25_00, Bonus: 5, Label: "25 créditos"},
	{ID: 3, Credits: 50, Price: 50_00, Bonus: 10, Label: "50 créditos"},
	{ID: 4, Credits: 100, Price: 100_00, Bonus: 25, Label: "100 créditos"},
	{ID: ActivationPackageID, Credits: 30, Price: 30_00, Bonus: 0, Label: "Taxa de ativação"},
}

// gatewayProducts maps the gateway's opaque product identifiers to package IDs.
var gatewayProducts = map[string]int{
	"BSZDG3NDM3Y2": 2,
	"BSOGNKZJJKMJ": 3,
	"BSMDQWZGNIYJ": 4,
	"BSMZNJMGUWMM": ActivationPackageID,
}

// PackageByID looks up a package by its numeric id.
func PackageByID(id int) (CreditPackage, bool) {
	for _, p := range Packages {
		if p.ID == id {
			return p, true
		}
	}
	return CreditPackage{}, false
}

// PackageByGatewayProduct resolves a gateway product identifier.
func PackageByGatewayProduct(productID string) (CreditPackage, bool) {
	id, ok := gatewayProducts[productID]
	if !ok {
		return CreditPackage{}, false
	}
	return PackageByID(id)
}

// PackageByAmount is the degraded fallback used when a webhook carries
// neither a resolvable transaction nor product id: match by exact price.
func PackageByAmount(amount int64) (CreditPackage, bool) {
	for _, p := range Packages {
		if p.Price == amount {
			return p, true
		}
	}
	return CreditPackage{}, false
}
