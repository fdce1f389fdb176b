package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/havano/pos-backend/internal/application/pos"
	"github.com/havano/pos-backend/internal/infrastructure/accounts"
	"github.com/havano/pos-backend/internal/infrastructure/config"
	"github.com/havano/pos-backend/internal/infrastructure/exchange"
	"github.com/havano/pos-backend/internal/infrastructure/logger"
	"github.com/havano/pos-backend/internal/infrastructure/persistence"
	"github.com/havano/pos-backend/internal/infrastructure/queue"
	"github.com/havano/pos-backend/internal/interfaces/http/handler"
	"github.com/havano/pos-backend/internal/interfaces/http/middleware"
	"github.com/havano/pos-backend/internal/interfaces/http/router"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting POS backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Initialize database connection
	db, err := persistence.NewDatabase(&cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	if err := db.AutoMigrate(); err != nil {
		log.Fatal("Failed to run migrations", zap.Error(err))
	}

	// Redis backs the exchange rate cache and the settlement queue.
	// The connection is lazy; a missing Redis degrades both features
	// instead of blocking startup.
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer func() {
		_ = redisClient.Close()
	}()

	// Initialize repositories
	orderRepo := persistence.NewGormOrderRepository(db.DB)
	tableRepo := persistence.NewGormTableRepository(db.DB)
	menuRepo := persistence.NewGormMenuItemRepository(db.DB)
	customerRepo := persistence.NewGormCustomerRepository(db.DB)
	invoiceRepo := persistence.NewGormInvoiceRepository(db.DB)
	quotationRepo := persistence.NewGormQuotationRepository(db.DB)
	accountRepo := persistence.NewGormAccountRepository(db.DB)
	modeRepo := persistence.NewGormModeOfPaymentRepository(db.DB)
	paymentRepo := persistence.NewGormPaymentEntryRepository(db.DB, accountRepo)

	txManager := persistence.NewGormTxManager(db)

	// Initialize infrastructure services
	resolver := accounts.NewResolver(accountRepo, modeRepo, &cfg.Company, log)
	rates := exchange.NewClient(&cfg.Exchange, redisClient, log)

	var enqueuer queue.JobEnqueuer
	if cfg.Queue.Enabled {
		client := queue.NewEnqueuer(&cfg.Redis, &cfg.Queue, log)
		defer func() {
			_ = client.Close()
		}()
		enqueuer = client
		log.Info("Background settlement queue enabled",
			zap.String("redis", cfg.Redis.Addr()),
		)
	} else {
		log.Info("Background settlement queue disabled, payments settle inline")
	}

	// Initialize application services
	customerService := pos.NewCustomerService(customerRepo, &cfg.Company, log)
	invoiceService := pos.NewInvoiceService(invoiceRepo, menuRepo, &cfg.Company, log)
	settlementService := pos.NewSettlementService(invoiceRepo, paymentRepo, resolver, rates, txManager, &cfg.Company, log)
	orderService := pos.NewOrderService(orderRepo, tableRepo, invoiceRepo, invoiceService, settlementService, customerService, txManager, &cfg.Company, log)
	orchestrator := pos.NewOrchestrator(
		orderRepo, invoiceRepo, paymentRepo, quotationRepo,
		orderService, invoiceService, settlementService, customerService,
		resolver, rates, enqueuer, txManager, &cfg.Company, log,
	)

	// Initialize handlers
	orderHandler := handler.NewOrderHandler(orderService, orchestrator)
	paymentHandler := handler.NewPaymentHandler(orchestrator)
	customerHandler := handler.NewCustomerHandler(customerService)
	billingHandler := handler.NewBillingHandler(invoiceRepo, paymentRepo, menuRepo)

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()

	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	engine.Use(middleware.RequestID())
	engine.Use(middleware.Recovery(log))
	engine.Use(middleware.RequestLogger(log))

	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	engine.Use(middleware.CORSWithConfig(corsConfig))

	// Health check endpoint (outside API versioning)
	engine.GET("/health", healthHandler(db))

	router.NewRouter(engine).
		Register(orderHandler).
		Register(paymentHandler).
		Register(customerHandler).
		Register(billingHandler).
		Setup()

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// healthHandler reports liveness and database reachability
func healthHandler(db *persistence.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"database": "unreachable",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"database": "connected",
		})
	}
}
