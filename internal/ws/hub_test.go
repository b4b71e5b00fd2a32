package ws

import (
	"encoding/json"
	"testing"
	"time"

	"indicafacil_backend/internal/domain"
)

func testClient(hub *Hub, accountID int64) *Client {
	return &Client{
		AccountID: accountID,
		hub:       hub,
		send:      make(chan []byte, 16),
	}
}

func TestHubRegisterUnregister(t *testing.T) {
	hub := NewHub()

	c1 := testClient(hub, 1)
	c2 := testClient(hub, 1)
	hub.register(c1)
	hub.register(c2)

	if got := hub.Connected(1); got != 2 {
		t.Errorf("Connected(1) = %d, want 2", got)
	}

	hub.unregister(c1)
	if got := hub.Connected(1); got != 1 {
		t.Errorf("Connected(1) after unregister = %d, want 1", got)
	}

	// double unregister is safe
	hub.unregister(c1)
	hub.unregister(c2)
	if got := hub.Connected(1); got != 0 {
		t.Errorf("Connected(1) after all gone = %d, want 0", got)
	}
}

func TestNotifyChargePaid(t *testing.T) {
	hub := NewHub()
	c := testClient(hub, 7)
	hub.register(c)

	paidAt := time.Now().UTC()
	charge := &domain.Charge{
		TransactionID: "REC_1_AA",
		Status:        domain.ChargeStatusPaid,
		Credits:       25,
		BonusCredits:  5,
		PaidAt:        &paidAt,
	}
	hub.NotifyChargePaid(7, charge)

	select {
	case msg := <-c.send:
		var ev chargeEvent
		if err := json.Unmarshal(msg, &ev); err != nil {
			t.Fatalf("unmarshal pushed event: %v", err)
		}
		if ev.Type != "charge_paid" {
			t.Errorf("type = %q", ev.Type)
		}
		if ev.TransactionID != "REC_1_AA" || ev.Credits != 25 || ev.BonusCredits != 5 {
			t.Errorf("event = %+v", ev)
		}
	default:
		t.Fatal("expected a pushed event")
	}
}

func TestNotifyChargePaidUnknownAccount(t *testing.T) {
	hub := NewHub()
	// must not panic or block with nobody connected
	hub.NotifyChargePaid(999, &domain.Charge{TransactionID: "REC_2_BB", Status: domain.ChargeStatusPaid})
}

func TestNotifyChargePaidSlowConsumer(t *testing.T) {
	hub := NewHub()
	c := &Client{AccountID: 3, hub: hub, send: make(chan []byte)} // unbuffered, nobody reading
	hub.register(c)

	done := make(chan struct{})
	go func() {
		hub.NotifyChargePaid(3, &domain.Charge{TransactionID: "REC_3_CC", Status: domain.ChargeStatusPaid})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("NotifyChargePaid blocked on a slow consumer")
	}
}
