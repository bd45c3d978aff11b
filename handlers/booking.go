package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"fisiocare/models"
	"fisiocare/services/booking"
	"fisiocare/utils"
)

var BookingService booking.LifecycleService

// CreateBooking purchases a package and returns the booking together with the
// gateway payment instructions.
func CreateBooking(c *gin.Context) {
	var input struct {
		PatientID       string         `json:"patientId" binding:"required"`
		TherapistID     string         `json:"therapistId" binding:"required"`
		PackageID       string         `json:"packageId" binding:"required"`
		Address         string         `json:"address" binding:"required"`
		Latitude        float64        `json:"latitude"`
		Longitude       float64        `json:"longitude"`
		ScheduledAtHint *time.Time     `json:"scheduledAtHint"`
		BookingType     string         `json:"bookingType" binding:"required"`
		Consent         models.Consent `json:"consent"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	created, err := BookingService.Create(c.Request.Context(), booking.CreateBookingInput{
		PatientID:       input.PatientID,
		TherapistID:     input.TherapistID,
		PackageID:       input.PackageID,
		Address:         input.Address,
		Latitude:        input.Latitude,
		Longitude:       input.Longitude,
		ScheduledAtHint: input.ScheduledAtHint,
		BookingType:     models.BookingType(input.BookingType),
		Consent:         input.Consent,
	})
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, created)
}

// GetBooking returns one booking by id.
func GetBooking(c *gin.Context) {
	bk, err := BookingService.GetByID(c.Request.Context(), c.Param("bookingID"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, bk)
}

// AcceptBooking records the therapist's acceptance before the response
// deadline.
func AcceptBooking(c *gin.Context) {
	var input struct {
		TherapistID string `json:"therapistId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	bk, err := BookingService.Accept(c.Request.Context(), c.Param("bookingID"), input.TherapistID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, bk)
}

// ListPatientBookings returns the patient's bookings, newest first.
func ListPatientBookings(c *gin.Context) {
	bookings, err := BookingService.ListByPatient(c.Request.Context(), c.Param("patientID"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookings": bookings})
}

// ListTherapistBookings returns the therapist's bookings, newest first.
func ListTherapistBookings(c *gin.Context) {
	bookings, err := BookingService.ListByTherapist(c.Request.Context(), c.Param("therapistID"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookings": bookings})
}

// CloseBookingChat locks the booking's chat thread once the booking is done.
func CloseBookingChat(c *gin.Context) {
	if err := BookingService.CloseChat(c.Request.Context(), c.Param("bookingID")); err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "chat closed"})
}
