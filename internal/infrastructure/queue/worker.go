package queue

import (
	"context"
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/havano/pos-backend/internal/infrastructure/config"
)

// Settler processes a settlement payload. The application layer
// provides the implementation; the worker only handles transport.
type Settler interface {
	Settle(ctx context.Context, payload SettlePaymentPayload) error
}

// Worker consumes settlement tasks from the background queue
type Worker struct {
	server   *asynq.Server
	mux      *asynq.ServeMux
	redisCfg config.RedisConfig
	logger   *zap.Logger
}

// NewWorker creates a settlement worker
func NewWorker(redisCfg *config.RedisConfig, queueCfg *config.QueueConfig, settler Settler, logger *zap.Logger) *Worker {
	workerLogger := logger.Named("worker")

	server := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     redisCfg.Addr(),
			Password: redisCfg.Password,
			DB:       redisCfg.DB,
		},
		asynq.Config{
			Concurrency: queueCfg.Concurrency,
			Queues: map[string]int{
				SettlementQueue: 1,
			},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(TypePaymentSettle, handleSettleTask(settler, workerLogger))

	return &Worker{
		server:   server,
		mux:      mux,
		redisCfg: *redisCfg,
		logger:   workerLogger,
	}
}

// Run starts the worker and blocks until it stops
func (w *Worker) Run(ctx context.Context) error {
	go w.monitorRedis(ctx)
	w.logger.Info("starting settlement worker")
	return w.server.Run(w.mux)
}

// Shutdown stops the worker gracefully
func (w *Worker) Shutdown() {
	w.server.Shutdown()
}

func handleSettleTask(settler Settler, logger *zap.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var payload SettlePaymentPayload
		if err := json.Unmarshal(task.Payload(), &payload); err != nil {
			logger.Error("invalid settlement payload", zap.Error(err))
			return err
		}
		if err := payload.Validate(); err != nil {
			logger.Error("settlement payload failed validation",
				zap.String("invoice_id", payload.InvoiceID.String()),
				zap.Error(err))
			return err
		}

		if err := settler.Settle(ctx, payload); err != nil {
			logger.Error("settlement task failed",
				zap.String("invoice_id", payload.InvoiceID.String()),
				zap.Error(err))
			return err
		}
		logger.Info("settlement task completed",
			zap.String("invoice_id", payload.InvoiceID.String()))
		return nil
	}
}

// monitorRedis pings Redis periodically to surface connection failures
// in the logs while the worker is running.
func (w *Worker) monitorRedis(ctx context.Context) {
	client := redis.NewClient(&redis.Options{
		Addr:     w.redisCfg.Addr(),
		Password: w.redisCfg.Password,
		DB:       w.redisCfg.DB,
	})
	defer client.Close()

	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := client.Ping(ctx).Err(); err != nil {
				w.logger.Warn("redis connection lost", zap.Error(err))
			}
		}
	}
}
