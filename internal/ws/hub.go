package ws

import (
	"encoding/json"
	"sync"
	"time"

	"indicafacil_backend/internal/domain"
	"indicafacil_backend/internal/logger"
)

// Hub fans payment events out to an account's open websocket
// connections. Clients that fall behind are dropped; the HTTP status
// endpoint remains the source of truth, the push is a latency
// optimization for the recharge screen.
type Hub struct {
	mu      sync.RWMutex
	clients map[int64]map[*Client]struct{}
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[int64]map[*Client]struct{}),
	}
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.clients[c.AccountID] == nil {
		h.clients[c.AccountID] = make(map[*Client]struct{})
	}
	h.clients[c.AccountID][c] = struct{}{}
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conns, ok := h.clients[c.AccountID]
	if !ok {
		return
	}
	if _, ok := conns[c]; !ok {
		return
	}
	delete(conns, c)
	close(c.send)
	if len(conns) == 0 {
		delete(h.clients, c.AccountID)
	}
}

type chargeEvent struct {
	Type          string     `json:"type"`
	TransactionID string     `json:"transaction_id"`
	Status        string     `json:"status"`
	Credits       int64      `json:"credits"`
	BonusCredits  int64      `json:"bonus_credits"`
	PaidAt        *time.Time `json:"paid_at,omitempty"`
}

// NotifyChargePaid pushes a charge_paid event to every connection the
// paying account has open. No-op when the account is not connected.
func (h *Hub) NotifyChargePaid(accountID int64, charge *domain.Charge) {
	msg, err := json.Marshal(chargeEvent{
		Type:          "charge_paid",
		TransactionID: charge.TransactionID,
		Status:        string(charge.Status),
		Credits:       charge.Credits,
		BonusCredits:  charge.BonusCredits,
		PaidAt:        charge.PaidAt,
	})
	if err != nil {
		logger.Error("failed to marshal charge event", "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients[accountID] {
		select {
		case c.send <- msg:
		default:
			// slow consumer, skip rather than block the reconciler
			logger.Warn("dropping charge event for slow websocket", "account_id", accountID)
		}
	}
}

// Connected reports how many connections an account currently holds.
func (h *Hub) Connected(accountID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[accountID])
}
