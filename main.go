// File: fisiocare/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fisiocare/config"
	"fisiocare/cron"
	"fisiocare/database"
	auditLogRepo "fisiocare/database/repository/auditlog"
	bookingRepoPkg "fisiocare/database/repository/booking"
	catalogRepo "fisiocare/database/repository/catalog"
	sessionRepoPkg "fisiocare/database/repository/session"
	walletRepoPkg "fisiocare/database/repository/wallet"
	webhookLogRepo "fisiocare/database/repository/webhooklog"
	"fisiocare/handlers"
	"fisiocare/middleware"
	"fisiocare/routes"
	"fisiocare/services/booking"
	"fisiocare/services/payment"
	"fisiocare/services/session"
	"fisiocare/services/wallet"
	"fisiocare/utils"

	"github.com/gin-gonic/gin"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()

	database.InitDB()
	utils.InitCache()

	// Create the Gin router.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())
	router.Use(middleware.RateLimitMiddleware())

	// repositories.
	bookingRepo := bookingRepoPkg.NewMongoBookingRepo()
	sessionRepo := sessionRepoPkg.NewMongoSessionRepo()
	walletRepo := walletRepoPkg.NewMongoWalletRepo()
	webhookLogs := webhookLogRepo.NewMongoWebhookLogRepo()
	auditLogs := auditLogRepo.NewMongoAuditLogRepo()
	catalog := catalogRepo.NewMongoCatalogRepo()
	txnRunner := database.NewMongoTxnRunner()

	// services.
	gateway := payment.NewHTTPGateway(payment.GatewayConfig{
		BaseURL:   config.AppConfig.GatewayBaseURL,
		ServerKey: config.AppConfig.GatewayServerKey,
		ClientKey: config.AppConfig.GatewayClientKey,
		Provider:  config.AppConfig.GatewayProvider,
	}, logger)

	ledgerService := &wallet.DefaultLedgerService{
		Repo:   walletRepo,
		Audit:  auditLogs,
		Txn:    txnRunner,
		Logger: logger,
	}

	bookingService := &booking.DefaultLifecycleService{
		Bookings: bookingRepo,
		Sessions: sessionRepo,
		Catalog:  catalog,
		Audit:    auditLogs,
		Gateway:  gateway,
		Txn:      txnRunner,
		Logger:   logger,
	}

	sessionService := &session.DefaultStateMachineService{
		Sessions:  sessionRepo,
		Bookings:  bookingRepo,
		Ledger:    ledgerService,
		Lifecycle: bookingService,
		Txn:       txnRunner,
		Logger:    logger,
	}

	reconciler := &payment.DefaultReconciler{
		Gateway:  gateway,
		Bookings: bookingRepo,
		Logs:     webhookLogs,
		Txn:      txnRunner,
		Logger:   logger,
	}

	// handlers.
	handlers.BookingService = bookingService
	handlers.SessionService = sessionService
	handlers.WalletService = ledgerService
	handlers.PaymentReconciler = reconciler
	handlers.AuditLogs = auditLogs
	handlers.WebhookLogs = webhookLogs

	routes.RegisterRoutes(router)

	// Background sweeps for response deadlines and stale visits.
	cron.InitSweepWorker(bookingService, sessionService)

	// Start the HTTP server.
	port := config.AppConfig.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar().Fatalf("main: server forced to shutdown: %v", err)
	}

	logger.Sugar().Info("main: server stopped gracefully")
}
