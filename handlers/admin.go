package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	auditLogRepo "fisiocare/database/repository/auditlog"
	webhookLogRepo "fisiocare/database/repository/webhooklog"
	"fisiocare/models"
	"fisiocare/utils"
)

var (
	AuditLogs   auditLogRepo.AuditLogRepository
	WebhookLogs webhookLogRepo.WebhookLogRepository
)

// AdminTopUpWallet posts a manual credit to a therapist's wallet.
func AdminTopUpWallet(c *gin.Context) {
	var input struct {
		AdminID string `json:"adminId" binding:"required"`
		Amount  int64  `json:"amount" binding:"required"`
		Note    string `json:"note" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	entry, err := WalletService.Adjust(c.Request.Context(), c.Param("therapistID"), input.Amount,
		models.TransactionCredit, models.CategoryTopup, input.AdminID, input.Note)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

// AdminAdjustWallet posts a manual correction in either direction.
func AdminAdjustWallet(c *gin.Context) {
	var input struct {
		AdminID   string `json:"adminId" binding:"required"`
		Amount    int64  `json:"amount" binding:"required"`
		Direction string `json:"direction" binding:"required"`
		Note      string `json:"note" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	entry, err := WalletService.Adjust(c.Request.Context(), c.Param("therapistID"), input.Amount,
		models.TransactionType(input.Direction), models.CategoryAdjustment, input.AdminID, input.Note)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

// AdminForceBookingStatus overrides a booking's status outside the normal
// state machine.
func AdminForceBookingStatus(c *gin.Context) {
	var input struct {
		AdminID string `json:"adminId" binding:"required"`
		Status  string `json:"status" binding:"required"`
		Note    string `json:"note" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	if err := BookingService.ForceStatus(c.Request.Context(), c.Param("bookingID"),
		models.BookingStatus(input.Status), input.AdminID, input.Note); err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "updated"})
}

// AdminMarkRefund records the outcome of a manually executed refund.
func AdminMarkRefund(c *gin.Context) {
	var input struct {
		AdminID   string `json:"adminId" binding:"required"`
		Status    string `json:"status" binding:"required"`
		Reference string `json:"reference"`
		Note      string `json:"note"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	if err := BookingService.MarkRefund(c.Request.Context(), c.Param("bookingID"),
		models.RefundStatus(input.Status), input.Reference, input.Note, input.AdminID); err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "updated"})
}

// AdminTerminateSession cancels a session outright, without compensation.
func AdminTerminateSession(c *gin.Context) {
	var input struct {
		Reason string `json:"reason" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	sess, err := SessionService.Terminate(c.Request.Context(), c.Param("sessionID"), models.CancelledBySystem, input.Reason)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess)
}

// AdminListAuditLogs returns recent privileged actions, newest first.
func AdminListAuditLogs(c *gin.Context) {
	limit, err := strconv.ParseInt(c.DefaultQuery("limit", "100"), 10, 64)
	if err != nil || limit <= 0 || limit > 1000 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and 1000"})
		return
	}

	entries, err := AuditLogs.List(c.Request.Context(), limit)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"actions": entries})
}

// AdminListWebhookLogs returns the raw gateway notifications recorded for one
// payment order.
func AdminListWebhookLogs(c *gin.Context) {
	entries, err := WebhookLogs.ListByOrder(c.Request.Context(), c.Param("orderID"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"webhooks": entries})
}
