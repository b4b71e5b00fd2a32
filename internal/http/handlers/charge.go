package handlers

import (
	"errors"
	"net/http"

	"indicafacil_backend/internal/domain"
	"indicafacil_backend/internal/service"

	"github.com/gin-gonic/gin"
)

// Packages lists the purchasable credit packages
func (h *Handler) Packages(c *gin.Context) {
	type pkg struct {
		ID           int   `json:"id"`
		Credits      int64 `json:"credits"`
		BonusCredits int64 `json:"bonusCredits"`
		Price        int64 `json:"price"`
	}

	out := make([]pkg, 0, len(domain.Packages))
	for _, p := range domain.Packages {
		out = append(out, pkg{ID: p.ID, Credits: p.Credits, BonusCredits: p.Bonus, Price: p.Price})
	}
	c.JSON(http.StatusOK, gin.H{"packages": out})
}

type RechargeRequest struct {
	PackageID int `json:"packageId" binding:"required"`
}

// CreateRecharge creates a pending Pix charge for a credit package
func (h *Handler) CreateRecharge(c *gin.Context) {
	accountID, ok := getAccountID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req RechargeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "packageId is required"})
		return
	}

	ctx := c.Request.Context()
	account, err := h.AccountRepo.GetByID(ctx, accountID)
	if err != nil || account == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "account not found"})
		return
	}

	charge, err := h.ChargeService.CreateCharge(ctx, account, req.PackageID)
	if err != nil {
		if errors.Is(err, service.ErrInvalidPackage) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown package"})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to create charge"})
		return
	}

	h.AuditService.LogCharge(ctx, accountID, domain.AuditActionChargeCreate, charge.TransactionID, charge.Amount)

	c.JSON(http.StatusCreated, gin.H{
		"transactionId": charge.TransactionID,
		"payCode":       charge.PayCode,
		"qrAsset":       charge.QRAsset,
		"amount":        charge.Amount,
		"expiresAt":     charge.ExpiresAt,
	})
}

// RechargeStatus returns the current charge state, lazily expiring it.
// Polling fallback for clients without a websocket.
func (h *Handler) RechargeStatus(c *gin.Context) {
	accountID, ok := getAccountID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	charge, err := h.ChargeService.GetCharge(c.Request.Context(), c.Param("transactionId"))
	if err != nil {
		if errors.Is(err, service.ErrChargeNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "charge not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load charge"})
		return
	}
	if charge.AccountID != accountID {
		c.JSON(http.StatusNotFound, gin.H{"error": "charge not found"})
		return
	}

	resp := gin.H{
		"transactionId": charge.TransactionID,
		"status":        charge.Status,
		"expiresAt":     charge.ExpiresAt,
	}
	// credited totals exist only once the payment has been applied
	if charge.Status == domain.ChargeStatusPaid {
		resp["paidAt"] = charge.PaidAt
		resp["creditsAdded"] = charge.Credits + charge.BonusCredits
	}
	c.JSON(http.StatusOK, resp)
}

// MyRecharges lists the account's charges, newest first
func (h *Handler) MyRecharges(c *gin.Context) {
	accountID, ok := getAccountID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	charges, err := h.ChargeService.ListCharges(c.Request.Context(), accountID, 50)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load charges"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"charges": charges})
}
