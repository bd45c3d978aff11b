package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"fisiocare/services/wallet"
	"fisiocare/utils"
)

var WalletService wallet.LedgerService

// GetTherapistWallet returns the therapist's wallet, creating an empty one on
// first access.
func GetTherapistWallet(c *gin.Context) {
	w, err := WalletService.GetByTherapist(c.Request.Context(), c.Param("therapistID"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, w)
}

// ListWalletTransactions returns the therapist's ledger entries, newest first.
func ListWalletTransactions(c *gin.Context) {
	limit, err := strconv.ParseInt(c.DefaultQuery("limit", "50"), 10, 64)
	if err != nil || limit <= 0 || limit > 500 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and 500"})
		return
	}

	entries, err := WalletService.ListTransactions(c.Request.Context(), c.Param("therapistID"), limit)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transactions": entries})
}
