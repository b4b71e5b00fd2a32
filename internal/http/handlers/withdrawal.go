package handlers

import (
	"errors"
	"net/http"

	"indicafacil_backend/internal/domain"
	"indicafacil_backend/internal/service"

	"github.com/gin-gonic/gin"
)

type WithdrawalRequest struct {
	Amount int64  `json:"amount" binding:"required"`
	PixKey string `json:"pix_key" binding:"required"`
}

// RequestWithdrawal debits the balance and queues a Pix payout
func (h *Handler) RequestWithdrawal(c *gin.Context) {
	accountID, ok := getAccountID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req WithdrawalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "amount and pix_key are required"})
		return
	}

	w, err := h.WithdrawalService.Request(c.Request.Context(), accountID, req.Amount, req.PixKey)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrWithdrawalTooSmall):
			c.JSON(http.StatusBadRequest, gin.H{
				"error":      "amount below minimum",
				"min_amount": domain.MinWithdrawalAmount,
			})
		case errors.Is(err, service.ErrInsufficientFunds):
			c.JSON(http.StatusBadRequest, gin.H{"error": "insufficient balance"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create withdrawal"})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"id":         w.ID,
		"amount":     w.Amount,
		"fee":        w.Fee,
		"net_amount": w.NetAmount,
		"status":     w.Status,
		"reference":  w.Reference,
		"created_at": w.CreatedAt,
	})
}

// MyWithdrawals lists the account's withdrawal requests, newest first
func (h *Handler) MyWithdrawals(c *gin.Context) {
	accountID, ok := getAccountID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	withdrawals, err := h.WithdrawalService.History(c.Request.Context(), accountID, 50)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load withdrawals"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"withdrawals": withdrawals})
}
