package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"fisiocare/services/payment"
	"fisiocare/utils"
)

var PaymentReconciler payment.Reconciler

// PaymentWebhook receives payment gateway notifications. The gateway retries
// on non-2xx, so reconciliation must be idempotent and benign skips still
// acknowledge.
func PaymentWebhook(c *gin.Context) {
	logger := utils.GetLogger()

	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unable to read notification body"})
		return
	}

	payload, err := payment.ParseWebhookPayload(raw)
	if err != nil {
		logger.Warn("Malformed gateway notification", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed notification payload"})
		return
	}

	if err := PaymentReconciler.ProcessPaymentWebhook(c.Request.Context(), payload); err != nil {
		utils.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// InternalWebhook acknowledges deliveries from internal systems. The HMAC
// signature middleware has already authenticated the request.
func InternalWebhook(c *gin.Context) {
	logger := utils.GetLogger()

	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unable to read request body"})
		return
	}

	logger.Info("Internal webhook received",
		zap.String("event", c.GetHeader("X-Event-Type")),
		zap.Int("bytes", len(raw)),
	)
	c.JSON(http.StatusOK, gin.H{"status": "received"})
}
