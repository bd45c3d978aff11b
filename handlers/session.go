package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"fisiocare/models"
	"fisiocare/services/session"
	"fisiocare/utils"
)

var SessionService session.StateMachineService

const busySlotsCacheTTL = 2 * time.Minute

// ScheduleSession books a concrete visit time for a pending session.
func ScheduleSession(c *gin.Context) {
	var input struct {
		ScheduledAt time.Time `json:"scheduledAt" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	sess, err := SessionService.Schedule(c.Request.Context(), c.Param("sessionID"), input.ScheduledAt)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	invalidateBusySlots(c, sess.TherapistID)
	c.JSON(http.StatusOK, sess)
}

// CompleteSession records the therapist's visit report and releases the
// session's payout.
func CompleteSession(c *gin.Context) {
	var input struct {
		TherapistID        string `json:"therapistId" binding:"required"`
		TherapistNotes     string `json:"therapistNotes" binding:"required"`
		CompletionPhotoURL string `json:"completionPhotoUrl"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	sess, err := SessionService.Complete(c.Request.Context(), c.Param("sessionID"), input.TherapistID, input.TherapistNotes, input.CompletionPhotoURL)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	invalidateBusySlots(c, sess.TherapistID)
	c.JSON(http.StatusOK, sess)
}

// CancelSession cancels or releases a visit. Close to the visit time the
// therapist is still compensated.
func CancelSession(c *gin.Context) {
	var input struct {
		CancelledBy string `json:"cancelledBy" binding:"required"`
		Reason      string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	sess, err := SessionService.Cancel(c.Request.Context(), c.Param("sessionID"), models.CancelActor(input.CancelledBy), input.Reason)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	invalidateBusySlots(c, sess.TherapistID)
	c.JSON(http.StatusOK, sess)
}

// GetSession returns one session by id.
func GetSession(c *gin.Context) {
	sess, err := SessionService.GetByID(c.Request.Context(), c.Param("sessionID"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess)
}

// ListBookingSessions returns the booking's sessions in sequence order.
func ListBookingSessions(c *gin.Context) {
	sessions, err := SessionService.ListByBooking(c.Request.Context(), c.Param("bookingID"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessions": sessions})
}

// TherapistBusySlots returns the therapist's occupied visit times for the
// requested day, cached briefly in Redis.
func TherapistBusySlots(c *gin.Context) {
	therapistID := c.Param("therapistID")
	day := c.DefaultQuery("date", time.Now().Format("2006-01-02"))

	from, err := time.Parse("2006-01-02", day)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date, expected YYYY-MM-DD"})
		return
	}
	to := from.Add(24 * time.Hour)

	ctx := c.Request.Context()
	cacheKey := busySlotsCacheKey(therapistID, day)
	cache := utils.GetCacheClient()

	if cached, err := cache.Get(ctx, cacheKey).Result(); err == nil {
		var slots []time.Time
		if json.Unmarshal([]byte(cached), &slots) == nil {
			c.JSON(http.StatusOK, gin.H{"busySlots": slots, "cached": true})
			return
		}
	}

	slots, err := SessionService.BusySlots(ctx, therapistID, from, to)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	if data, err := json.Marshal(slots); err == nil {
		cache.Set(ctx, cacheKey, data, busySlotsCacheTTL)
	}
	c.JSON(http.StatusOK, gin.H{"busySlots": slots})
}

func busySlotsCacheKey(therapistID, day string) string {
	return fmt.Sprintf("busy_slots:%s:%s", therapistID, day)
}

func invalidateBusySlots(c *gin.Context, therapistID string) {
	cache := utils.GetCacheClient()
	ctx := c.Request.Context()
	iter := cache.Scan(ctx, 0, fmt.Sprintf("busy_slots:%s:*", therapistID), 50).Iterator()
	for iter.Next(ctx) {
		cache.Del(ctx, iter.Val())
	}
}
