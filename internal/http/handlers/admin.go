package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"indicafacil_backend/internal/service"

	"github.com/gin-gonic/gin"
)

func getAdminID(c *gin.Context) int64 {
	id, _ := getAccountID(c)
	return id
}

func parseIDParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

// AdminStats returns platform-wide statistics
func (h *Handler) AdminStats(c *gin.Context) {
	stats, err := h.AdminService.GetStats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load stats"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

// AdminListAccounts returns accounts with pagination
func (h *Handler) AdminListAccounts(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	accounts, total, err := h.AdminService.ListAccounts(c.Request.Context(), limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load accounts"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"accounts": accounts, "total": total})
}

// AdminGetAccount looks up an account by id, email or referral code
func (h *Handler) AdminGetAccount(c *gin.Context) {
	info, err := h.AdminService.GetAccount(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}
	if info == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "account not found"})
		return
	}
	c.JSON(http.StatusOK, info)
}

type AdjustRequest struct {
	Delta  int64  `json:"delta" binding:"required"`
	Reason string `json:"reason" binding:"required"`
}

// AdminAdjustBalance applies a signed manual balance correction
func (h *Handler) AdminAdjustBalance(c *gin.Context) {
	accountID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req AdjustRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "delta and reason are required"})
		return
	}

	newBalance, err := h.AdminService.AdjustBalance(c.Request.Context(), getAdminID(c), accountID, req.Delta, req.Reason)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrAccountNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "account not found"})
		case errors.Is(err, service.ErrInsufficientFunds):
			c.JSON(http.StatusBadRequest, gin.H{"error": "balance would go negative"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "adjustment failed"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"account_id": accountID, "new_balance": newBalance})
}

// AdminAdjustCredits applies a signed manual credits correction
func (h *Handler) AdminAdjustCredits(c *gin.Context) {
	accountID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req AdjustRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "delta and reason are required"})
		return
	}

	newCredits, err := h.AdminService.AdjustCredits(c.Request.Context(), getAdminID(c), accountID, req.Delta, req.Reason)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrAccountNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "account not found"})
		case errors.Is(err, service.ErrInsufficientFunds):
			c.JSON(http.StatusBadRequest, gin.H{"error": "credits would go negative"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "adjustment failed"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"account_id": accountID, "new_credits": newCredits})
}

// AdminPendingWithdrawals lists withdrawals awaiting a decision
func (h *Handler) AdminPendingWithdrawals(c *gin.Context) {
	withdrawals, err := h.WithdrawalService.Pending(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load withdrawals"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"withdrawals": withdrawals})
}

// AdminApproveWithdrawal marks a withdrawal as paid out
func (h *Handler) AdminApproveWithdrawal(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	w, err := h.WithdrawalService.Approve(c.Request.Context(), id, getAdminID(c))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrWithdrawalNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "withdrawal not found"})
		case errors.Is(err, service.ErrWithdrawalDecided):
			c.JSON(http.StatusConflict, gin.H{"error": "withdrawal already decided"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "approval failed"})
		}
		return
	}

	c.JSON(http.StatusOK, w)
}

type RejectWithdrawalRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// AdminRejectWithdrawal refuses a withdrawal and refunds the balance
func (h *Handler) AdminRejectWithdrawal(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req RejectWithdrawalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "reason is required"})
		return
	}

	w, err := h.WithdrawalService.Reject(c.Request.Context(), id, getAdminID(c), req.Reason)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrWithdrawalNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "withdrawal not found"})
		case errors.Is(err, service.ErrWithdrawalDecided):
			c.JSON(http.StatusConflict, gin.H{"error": "withdrawal already decided"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "rejection failed"})
		}
		return
	}

	c.JSON(http.StatusOK, w)
}

// AdminOpenUnmatched lists payment events that matched no charge
func (h *Handler) AdminOpenUnmatched(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))

	payments, err := h.AdminService.OpenUnmatched(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load unmatched payments"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"unmatched": payments})
}

// AdminResolveUnmatched closes an unmatched payment after manual handling
func (h *Handler) AdminResolveUnmatched(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.AdminService.ResolveUnmatched(c.Request.Context(), id, getAdminID(c)); err != nil {
		if errors.Is(err, service.ErrUnmatchedDecided) {
			c.JSON(http.StatusConflict, gin.H{"error": "already resolved"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "resolution failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"resolved": true})
}

// AdminStuckCommissions lists cascade retries parked for manual review
func (h *Handler) AdminStuckCommissions(c *gin.Context) {
	retries, err := h.AdminService.StuckCommissions(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load retries"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"retries": retries})
}

// AdminAuditLogs returns recent audit entries, optionally by category
func (h *Handler) AdminAuditLogs(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))

	var err error
	var logs any
	if category := c.Query("category"); category != "" {
		logs, err = h.AuditService.GetLogsByCategory(c.Request.Context(), category, limit)
	} else {
		logs, err = h.AuditService.GetRecentLogs(c.Request.Context(), limit)
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load audit logs"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"logs": logs})
}
