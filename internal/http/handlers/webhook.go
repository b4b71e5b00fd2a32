package handlers

import (
	"io"
	"net/http"

	"indicafacil_backend/internal/logger"
	"indicafacil_backend/internal/pix"
	"indicafacil_backend/internal/service"

	"github.com/gin-gonic/gin"
)

const maxWebhookBody = 64 * 1024

// PaymentWebhook ingests gateway payment callbacks. It answers 200 for
// everything it could read, including payloads it cannot act on, so the
// gateway stops retrying; real money state lives in the reconciler.
func (h *Handler) PaymentWebhook(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"received": false})
		return
	}

	event := pix.NormalizeCallback(body)
	if event == nil {
		logger.Warn("unparsable webhook payload", "size", len(body))
		service.WebhookEvents.WithLabelValues("unparsable").Inc()
		c.JSON(http.StatusOK, gin.H{"received": true, "applied": false})
		return
	}

	outcome, err := h.ReconcileService.Reconcile(c.Request.Context(), event)
	if err != nil {
		// Storage failure: this is the one case worth a retry from the
		// gateway side.
		logger.Error("webhook reconcile failed", "transaction_id", event.TransactionID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"received": false})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"received": true,
		"applied":  outcome == service.OutcomeApplied,
		"outcome":  outcome,
	})
}
