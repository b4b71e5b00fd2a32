package handlers

import (
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
)

// GetReferralCode returns the account's referral code
func (h *Handler) GetReferralCode(c *gin.Context) {
	accountID, ok := getAccountID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	account, err := h.AccountRepo.GetByID(c.Request.Context(), accountID)
	if err != nil || account == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get referral code"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"code": account.ReferralCode})
}

// GetReferralLink returns the full signup link for sharing
func (h *Handler) GetReferralLink(c *gin.Context) {
	accountID, ok := getAccountID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	account, err := h.AccountRepo.GetByID(c.Request.Context(), accountID)
	if err != nil || account == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get referral code"})
		return
	}

	baseURL := os.Getenv("FRONTEND_URL")
	if baseURL == "" {
		baseURL = "https://indicafacil.app"
	}
	link := baseURL + "/signup?ref=" + account.ReferralCode

	c.JSON(http.StatusOK, gin.H{
		"code": account.ReferralCode,
		"link": link,
	})
}

// GetReferralStats returns the account's referral counts and earnings
func (h *Handler) GetReferralStats(c *gin.Context) {
	accountID, ok := getAccountID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	ctx := c.Request.Context()
	stats, err := h.ReferralRepo.GetStats(ctx, accountID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get stats"})
		return
	}

	links, err := h.ReferralRepo.GetByReferrer(ctx, accountID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get referrals"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"stats":     stats,
		"referrals": links,
	})
}
