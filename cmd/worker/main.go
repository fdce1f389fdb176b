package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/havano/pos-backend/internal/application/pos"
	"github.com/havano/pos-backend/internal/infrastructure/accounts"
	"github.com/havano/pos-backend/internal/infrastructure/config"
	"github.com/havano/pos-backend/internal/infrastructure/exchange"
	"github.com/havano/pos-backend/internal/infrastructure/logger"
	"github.com/havano/pos-backend/internal/infrastructure/persistence"
	"github.com/havano/pos-backend/internal/infrastructure/queue"
)

// The worker drains the background settlement queue. It shares the
// database and settlement logic with the API server but never serves
// HTTP; running it is only useful when queue.enabled is true.
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

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

	log.Info("Starting settlement worker",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.Int("concurrency", cfg.Queue.Concurrency),
	)

	db, err := persistence.NewDatabase(&cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer func() {
		_ = redisClient.Close()
	}()

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
	resolver := accounts.NewResolver(accountRepo, modeRepo, &cfg.Company, log)
	rates := exchange.NewClient(&cfg.Exchange, redisClient, log)

	customerService := pos.NewCustomerService(customerRepo, &cfg.Company, log)
	invoiceService := pos.NewInvoiceService(invoiceRepo, menuRepo, &cfg.Company, log)
	settlementService := pos.NewSettlementService(invoiceRepo, paymentRepo, resolver, rates, txManager, &cfg.Company, log)
	orderService := pos.NewOrderService(orderRepo, tableRepo, invoiceRepo, invoiceService, settlementService, customerService, txManager, &cfg.Company, log)

	// The orchestrator is the task handler; tasks are settled with the
	// same code path the API uses for inline settlement, so redelivery
	// after an inline success is a no-op.
	orchestrator := pos.NewOrchestrator(
		orderRepo, invoiceRepo, paymentRepo, quotationRepo,
		orderService, invoiceService, settlementService, customerService,
		resolver, rates, nil, txManager, &cfg.Company, log,
	)

	worker := queue.NewWorker(&cfg.Redis, &cfg.Queue, orchestrator, log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		log.Info("Shutting down worker...")
		worker.Shutdown()
	}()

	if err := worker.Run(ctx); err != nil {
		log.Fatal("Worker stopped with error", zap.Error(err))
	}

	log.Info("Worker exited gracefully")
}
