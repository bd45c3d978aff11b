package routes

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"fisiocare/config"
	"fisiocare/handlers"
	"fisiocare/middleware"
)

// RegisterBookingRoutes sets up the booking lifecycle endpoints.
func RegisterBookingRoutes(r *gin.Engine) {
	api := r.Group("/api/bookings")
	{
		api.POST("", handlers.CreateBooking)
		api.GET("/:bookingID", handlers.GetBooking)
		api.POST("/:bookingID/accept", handlers.AcceptBooking)
		api.POST("/:bookingID/close-chat", handlers.CloseBookingChat)
		api.GET("/:bookingID/sessions", handlers.ListBookingSessions)
	}
	r.GET("/api/patients/:patientID/bookings", handlers.ListPatientBookings)
	r.GET("/api/therapists/:therapistID/bookings", handlers.ListTherapistBookings)
}

// RegisterSessionRoutes sets up the per-visit endpoints.
func RegisterSessionRoutes(r *gin.Engine) {
	api := r.Group("/api/sessions")
	{
		api.GET("/:sessionID", handlers.GetSession)
		api.POST("/:sessionID/schedule", handlers.ScheduleSession)
		api.POST("/:sessionID/complete", handlers.CompleteSession)
		api.POST("/:sessionID/cancel", handlers.CancelSession)
	}
	r.GET("/api/therapists/:therapistID/busy-slots", handlers.TherapistBusySlots)
}

// RegisterWalletRoutes sets up the therapist wallet endpoints.
func RegisterWalletRoutes(r *gin.Engine) {
	api := r.Group("/api/therapists/:therapistID/wallet")
	{
		api.GET("", handlers.GetTherapistWallet)
		api.GET("/transactions", handlers.ListWalletTransactions)
	}
}

// RegisterWebhookRoutes sets up the inbound notification endpoints. The
// payment gateway authenticates via the payload signature; internal webhooks
// via the HMAC header middleware.
func RegisterWebhookRoutes(r *gin.Engine) {
	api := r.Group("/api/webhooks")
	{
		api.POST("/payment", handlers.PaymentWebhook)
		api.POST("/internal",
			middleware.WebhookSignatureMiddleware(config.AppConfig.InternalWebhookSecret),
			handlers.InternalWebhook)
	}
}

// RegisterAdminRoutes sets up the back-office endpoints.
func RegisterAdminRoutes(r *gin.Engine) {
	api := r.Group("/api/admin")
	{
		api.Use(middleware.AdminAuthMiddleware())
		api.POST("/wallets/:therapistID/topup", handlers.AdminTopUpWallet)
		api.POST("/wallets/:therapistID/adjust", handlers.AdminAdjustWallet)
		api.POST("/bookings/:bookingID/force-status", handlers.AdminForceBookingStatus)
		api.POST("/bookings/:bookingID/refund", handlers.AdminMarkRefund)
		api.POST("/sessions/:sessionID/terminate", handlers.AdminTerminateSession)
		api.GET("/audit-logs", handlers.AdminListAuditLogs)
		api.GET("/webhook-logs/:orderID", handlers.AdminListWebhookLogs)
	}
}

// RegisterHealthRoute registers a health-check endpoint.
func RegisterHealthRoute(r *gin.Engine) {
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "Hi, I'm Fisiocare"})
	})
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type", "X-Signature", "X-Timestamp"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	RegisterHealthRoute(r)
	RegisterBookingRoutes(r)
	RegisterSessionRoutes(r)
	RegisterWalletRoutes(r)
	RegisterWebhookRoutes(r)
	RegisterAdminRoutes(r)
}
