package pix

import (
	"encoding/json"
	"strings"
	"time"
)

// PaymentEvent is the canonical shape every webhook payload is reduced to.
// Downstream reconciliation only ever sees this; all gateway format
// guessing stays in this file.
type PaymentEvent struct {
	TransactionID string
	ProductID     string
	Customer      string
	Amount        int64 // centavos; 0 when absent
	Status        string
	PaidAt        time.Time
	Raw           []byte
}

// Success reports whether the event signals a confirmed payment.
func (e *PaymentEvent) Success() bool {
	switch strings.ToLower(e.Status) {
	case "paid", "approved", "confirmed", "completed":
		return true
	}
	return false
}

// rawCallback covers the observed webhook variants: a nested data object
// with an event_type, flat fields with only a status, and mixtures of
// snake_case and camelCase field names.
type rawCallback struct {
	EventType string       `json:"event_type"`
	Data      *callbackData `json:"data"`

	// flat variants
	TransactionID  string      `json:"transaction_id"`
	ID             string      `json:"id"`
	ProductID      string      `json:"product_id"`
	ProductIDCamel string      `json:"productId"`
	CustomerEmail  string      `json:"customer_email"`
	Email          string      `json:"email"`
	Customer       *struct {
		Email string `json:"email"`
	} `json:"customer"`
	Amount      json.Number `json:"amount"`
	Value       json.Number `json:"value"`
	Status      string      `json:"status"`
	PaidAt      string      `json:"paid_at"`
	PaidAtCamel string      `json:"paidAt"`
}

type callbackData struct {
	TransactionID string      `json:"transaction_id"`
	ExternalID    string      `json:"external_id"` // the charge request names it external_id, some callbacks echo that
	ProductID     string      `json:"product_id"`
	CustomerEmail string      `json:"customer_email"`
	Amount        json.Number `json:"amount"`
	Status        string      `json:"status"`
	PaidAt        string      `json:"paid_at"`
}

// NormalizeCallback tolerantly decodes a gateway webhook body into a
// PaymentEvent. It returns nil when the payload carries no resolvable
// identity at all (no transaction id, no product id, no amount): such an
// event can never become applicable, so the caller acknowledges and drops
// it. Amounts arriving as whole currency units are converted to centavos.
func NormalizeCallback(body []byte) *PaymentEvent {
	var raw rawCallback
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil
	}

	ev := &PaymentEvent{Raw: body}

	if raw.EventType != "" && raw.Data != nil {
		// nested format
		ev.TransactionID = firstNonEmpty(raw.Data.TransactionID, raw.Data.ExternalID)
		ev.ProductID = raw.Data.ProductID
		ev.Customer = raw.Data.CustomerEmail
		ev.Amount = toCentavos(raw.Data.Amount)
		ev.Status = raw.Data.Status
		ev.PaidAt = parseTime(raw.Data.PaidAt)
		if ev.Status == "" && strings.EqualFold(raw.EventType, "payment.confirmed") {
			ev.Status = "paid"
		}
	} else {
		// flat format, field names drift between deliveries
		ev.TransactionID = firstNonEmpty(raw.TransactionID, raw.ID)
		ev.ProductID = firstNonEmpty(raw.ProductID, raw.ProductIDCamel)
		ev.Customer = firstNonEmpty(raw.CustomerEmail, raw.Email)
		if ev.Customer == "" && raw.Customer != nil {
			ev.Customer = raw.Customer.Email
		}
		ev.Amount = toCentavos(raw.Amount)
		if ev.Amount == 0 {
			ev.Amount = toCentavos(raw.Value)
		}
		ev.Status = raw.Status
		ev.PaidAt = parseTime(firstNonEmpty(raw.PaidAt, raw.PaidAtCamel))
	}

	if ev.TransactionID == "" && ev.ProductID == "" && ev.Amount == 0 {
		return nil
	}

	if ev.Status == "" {
		ev.Status = "paid"
	}
	if ev.PaidAt.IsZero() {
		ev.PaidAt = time.Now().UTC()
	}

	return ev
}

// toCentavos interprets a JSON number as currency. The gateway sends whole
// reais ("25" or "25.00"); values with a fraction keep their centavos.
func toCentavos(n json.Number) int64 {
	if n == "" {
		return 0
	}
	if i, err := n.Int64(); err == nil {
		return i * 100
	}
	if f, err := n.Float64(); err == nil {
		return int64(f*100 + 0.5)
	}
	return 0
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
