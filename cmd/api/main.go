package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-contrib/gzip"
	_ "github.com/joho/godotenv/autoload"

	"github.com/prestaflow/prestaflow-api/internal/config"
	"github.com/prestaflow/prestaflow-api/internal/database"
	"github.com/prestaflow/prestaflow-api/internal/handlers"
	"github.com/prestaflow/prestaflow-api/internal/jobs"
	"github.com/prestaflow/prestaflow-api/internal/middleware"
	"github.com/prestaflow/prestaflow-api/internal/repository"
	"github.com/prestaflow/prestaflow-api/internal/services"
	"github.com/prestaflow/prestaflow-api/internal/storage"
	"github.com/prestaflow/prestaflow-api/pkg/logger"

	"github.com/gin-gonic/gin"
)

// @title PrestaFlow API
// @version 1.0
// @description REST API for multi-tenant personal loan management
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Setup(cfg.Environment)

	// Initialize Sentry (GlitchTip) when DSN is configured
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			TracesSampleRate: 0.2,
			Environment:      cfg.Environment,
		}); err != nil {
			logger.Error("Sentry initialization failed", "error", err)
		} else {
			logger.Info("Sentry initialized")
		}
	}

	// Set Gin mode
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Connect to database
	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	logger.Info("Connected to database")

	if err := database.Migrate(db); err != nil {
		logger.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}
	logger.Info("Migrations applied")

	// Initialize storage for payment vouchers
	store, err := storage.NewLocalStorage(cfg.StoragePath)
	if err != nil {
		logger.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}
	logger.Info("Initialized local storage")

	// Initialize repositories
	repos := repository.NewRepositories(db)

	// Initialize background worker
	worker := jobs.NewWorker(cfg.WorkerCount)
	logger.Info("Started background worker", "goroutines", cfg.WorkerCount)

	// Initialize services
	svcs := services.NewServices(repos, worker, db)

	// Schedule recurring jobs
	scheduleJobs(worker, svcs, cfg)

	// Initialize handlers
	h := handlers.NewHandlers(svcs, store)

	// Setup router
	router := setupRouter(h, cfg)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Failed to start server", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	// Create context with timeout for shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Shutdown HTTP server
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	// Shutdown background worker
	worker.Shutdown()
	logger.Info("Background worker stopped")

	// Flush Sentry events before exit
	if cfg.SentryDSN != "" {
		sentry.Flush(5 * time.Second)
	}

	logger.Info("Server exited gracefully")
}

func setupRouter(h *handlers.Handlers, cfg *config.Config) *gin.Engine {
	router := gin.New()

	// Global middleware
	if cfg.SentryDSN != "" {
		router.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	}
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.CORS(cfg.AllowedOrigins))
	router.Use(gzip.Gzip(gzip.DefaultCompression))

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Health check (public)
		v1.GET("/health", h.Health.Index)

		// Protected routes (requires authentication)
		protected := v1.Group("")
		protected.Use(middleware.Auth(cfg.JWTSecret))
		{
			// Admin-only routes
			admin := protected.Group("")
			admin.Use(middleware.RequireAdmin())
			{
				// Financiera policy management
				admin.PUT("/financiera/policies", h.Financiera.UpdatePolicies)

				// Loan lifecycle decisions
				admin.POST("/loans/:loan_id/approve", h.Loan.Approve)
				admin.POST("/loans/:loan_id/cancel", h.Loan.Cancel)
				admin.POST("/loans/:loan_id/installments/:installment_id/waive", h.Loan.WaiveInstallment)

				// Payment reversal
				admin.POST("/payments/:payment_id/void", h.Payment.Void)

				// Borrower removal
				admin.DELETE("/borrowers/:borrower_id", h.Borrower.Delete)

				// Audit trail
				admin.GET("/audits", h.Audit.Index)

				// Background job status
				admin.GET("/jobs/status", h.Job.Status)
			}

			// Gestor + Admin routes (origination and portfolio management)
			gestorAdmin := protected.Group("")
			gestorAdmin.Use(middleware.RequireRole("admin", "gestor"))
			{
				gestorAdmin.POST("/borrowers", h.Borrower.Create)
				gestorAdmin.PUT("/borrowers/:borrower_id", h.Borrower.Update)

				gestorAdmin.POST("/loans", h.Loan.Create)
				gestorAdmin.POST("/loans/:loan_id/schedule", h.Loan.GenerateSchedule)
				gestorAdmin.POST("/loans/:loan_id/activate", h.Loan.Activate)
			}

			// All authenticated roles (admin, gestor, cobrador)
			protected.GET("/financiera", h.Financiera.Show)

			protected.GET("/borrowers", h.Borrower.Index)
			protected.GET("/borrowers/:borrower_id", h.Borrower.Show)

			protected.GET("/loans", h.Loan.Index)
			protected.GET("/loans/stats", h.Loan.Stats)
			protected.POST("/loans/simulate", h.Loan.Simulate)
			protected.GET("/loans/:loan_id", h.Loan.Show)
			protected.GET("/installments/overdue", h.Loan.OverdueInstallments)
			protected.GET("/loans/:loan_id/installments", h.Loan.Installments)
			protected.POST("/loans/:loan_id/installments/:installment_id/refresh_mora", h.Loan.RefreshInstallmentMora)
			protected.GET("/loans/:loan_id/payoff", h.Loan.Payoff)
			protected.GET("/loans/:loan_id/schedule.csv", h.Loan.ScheduleCSV)
			protected.GET("/loans/:loan_id/schedule.xlsx", h.Loan.ScheduleXLSX)

			// Collection (cobradores register payments in the field)
			protected.POST("/loans/:loan_id/installments/:installment_id/payments", h.Payment.Register)
			protected.GET("/payments", h.Payment.Index)
			protected.GET("/payments/daily_summary", h.Payment.DailySummary)
			protected.GET("/payments/daily_summary.pdf", h.Payment.DailySummaryPDF)
			protected.GET("/payments/:payment_id", h.Payment.Show)
			protected.GET("/payments/:payment_id/receipt.pdf", h.Payment.ReceiptPDF)
			protected.POST("/payments/:payment_id/voucher", h.Payment.UploadVoucher)
			protected.GET("/payments/:payment_id/voucher", h.Payment.DownloadVoucher)

			// Notifications (users manage their own)
			// Static route first so "mark_all_as_read" is not matched as :notification_id
			notifications := protected.Group("/notifications")
			{
				notifications.GET("", h.Notification.Index)
				notifications.POST("/mark_all_as_read", h.Notification.MarkAllAsRead)
				notifications.POST("/:notification_id/mark_as_read", h.Notification.Update)
			}
		}
	}

	return router
}

func scheduleJobs(worker *jobs.Worker, svcs *services.Services, cfg *config.Config) {
	accrualInterval := time.Duration(cfg.AccrualIntervalMinutes) * time.Minute

	// Accrue late fees and refresh delinquency across all tenants. Runs once
	// at startup so a restarted process catches up immediately.
	worker.ScheduleEveryImmediate(accrualInterval, func(ctx context.Context) error {
		logger.Info("[Job] Accruing late fees...")
		now := time.Now()
		if err := svcs.Loan.AccrueLateFees(ctx, 0, now); err != nil {
			logger.Error("Error accruing late fees", "error", err)
		}
		return svcs.Loan.RefreshDelinquency(ctx, 0, now)
	})

	// Remind collectors of installments coming due
	worker.ScheduleEvery(24*time.Hour, func(ctx context.Context) error {
		logger.Info("[Job] Sending due installment reminders...")
		return svcs.Loan.NotifyUpcomingInstallments(ctx, time.Now())
	})

	logger.Info("Scheduled recurring jobs")
}
