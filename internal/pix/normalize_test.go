package pix

import (
	"encoding/json"
	"testing"
	"time"
)

func TestNormalizeCallback_NestedFormat(t *testing.T) {
	body := []byte(`{
		"event_type": "TRANSACTION_UPDATE",
		"data": {
			"transaction_id": "REC_1700000000000_AB12CD",
			"product_id": "BSOGNKZJJKMJ",
			"customer_email": "payer@example.com",
			"amount": 50.00,
			"status": "PAID",
			"paid_at": "2024-11-14T18:30:00Z"
		}
	}`)

	ev := NormalizeCallback(body)
	if ev == nil {
		t.Fatal("expected event, got nil")
	}
	if ev.TransactionID != "REC_1700000000000_AB12CD" {
		t.Errorf("transaction id = %q", ev.TransactionID)
	}
	if ev.ProductID != "BSOGNKZJJKMJ" {
		t.Errorf("product id = %q", ev.ProductID)
	}
	if ev.Customer != "payer@example.com" {
		t.Errorf("customer = %q", ev.Customer)
	}
	if ev.Amount != 50_00 {
		t.Errorf("amount = %d, want 5000", ev.Amount)
	}
	if !ev.Success() {
		t.Error("PAID should be a success status")
	}
	want := time.Date(2024, 11, 14, 18, 30, 0, 0, time.UTC)
	if !ev.PaidAt.Equal(want) {
		t.Errorf("paid_at = %v, want %v", ev.PaidAt, want)
	}
}

func TestNormalizeCallback_NestedExternalID(t *testing.T) {
	// the create-charge request names the id external_id, and some
	// callbacks echo it back under that name
	body := []byte(`{
		"event_type": "TRANSACTION_UPDATE",
		"data": {
			"external_id": "REC_1700000000003_CAFE00",
			"status": "PAID",
			"amount": 25,
			"paid_at": "2024-11-14T18:30:00Z"
		}
	}`)

	ev := NormalizeCallback(body)
	if ev == nil {
		t.Fatal("expected event, got nil")
	}
	if ev.TransactionID != "REC_1700000000003_CAFE00" {
		t.Errorf("transaction id = %q", ev.TransactionID)
	}
	if ev.Amount != 25_00 {
		t.Errorf("amount = %d, want 2500", ev.Amount)
	}
}

func TestNormalizeCallback_FlatSnakeCase(t *testing.T) {
	body := []byte(`{
		"transaction_id": "REC_1700000000001_FF00AA",
		"status": "approved",
		"amount": 25,
		"customer_email": "someone@example.com"
	}`)

	ev := NormalizeCallback(body)
	if ev == nil {
		t.Fatal("expected event, got nil")
	}
	if ev.TransactionID != "REC_1700000000001_FF00AA" {
		t.Errorf("transaction id = %q", ev.TransactionID)
	}
	// whole reais become centavos
	if ev.Amount != 25_00 {
		t.Errorf("amount = %d, want 2500", ev.Amount)
	}
	if !ev.Success() {
		t.Error("approved should be a success status")
	}
}

func TestNormalizeCallback_FlatCamelCaseMixture(t *testing.T) {
	body := []byte(`{
		"id": "REC_1700000000002_BEEF01",
		"productId": "BSMDQWZGNIYJ",
		"value": 100.00,
		"status": "cancelled",
		"customer": {"email": "c@example.com"},
		"paidAt": "2024-11-14 10:00:00"
	}`)

	ev := NormalizeCallback(body)
	if ev == nil {
		t.Fatal("expected event, got nil")
	}
	if ev.TransactionID != "REC_1700000000002_BEEF01" {
		t.Errorf("transaction id = %q", ev.TransactionID)
	}
	if ev.ProductID != "BSMDQWZGNIYJ" {
		t.Errorf("product id = %q", ev.ProductID)
	}
	if ev.Amount != 100_00 {
		t.Errorf("amount = %d, want 10000", ev.Amount)
	}
	if ev.Customer != "c@example.com" {
		t.Errorf("customer = %q", ev.Customer)
	}
	if ev.Success() {
		t.Error("cancelled must not be a success status")
	}
	if ev.PaidAt.IsZero() {
		t.Error("paidAt with space layout should parse")
	}
}

func TestNormalizeCallback_MissingStatusDefaultsToPaid(t *testing.T) {
	ev := NormalizeCallback([]byte(`{"transaction_id": "REC_1_AA"}`))
	if ev == nil {
		t.Fatal("expected event, got nil")
	}
	if !ev.Success() {
		t.Errorf("status = %q, want paid default", ev.Status)
	}
}

func TestNormalizeCallback_Unresolvable(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"empty object", `{}`},
		{"only status", `{"status": "paid"}`},
		{"not json", `status=paid&id=1`},
		{"empty body", ``},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if ev := NormalizeCallback([]byte(tc.body)); ev != nil {
				t.Errorf("expected nil, got %+v", ev)
			}
		})
	}
}

func TestToCentavos(t *testing.T) {
	cases := []struct {
		in   string
		want int64
	}{
		{"10", 10_00},
		{"25.00", 25_00},
		{"30.50", 30_50},
		{"0.01", 1},
		{"", 0},
	}

	for _, tc := range cases {
		if got := toCentavos(json.Number(tc.in)); got != tc.want {
			t.Errorf("toCentavos(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
}
