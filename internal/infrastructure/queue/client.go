package queue

import (
	"context"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/havano/pos-backend/internal/infrastructure/config"
)

// SettlementQueue is the asynq queue settlement tasks land on
const SettlementQueue = "settlements"

// Enqueuer publishes settlement tasks to the background queue
type Enqueuer struct {
	client   *asynq.Client
	maxRetry int
	timeout  time.Duration
	logger   *zap.Logger
}

// NewEnqueuer creates an enqueuer backed by Redis
func NewEnqueuer(redisCfg *config.RedisConfig, queueCfg *config.QueueConfig, logger *zap.Logger) *Enqueuer {
	client := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     redisCfg.Addr(),
		Password: redisCfg.Password,
		DB:       redisCfg.DB,
	})
	return &Enqueuer{
		client:   client,
		maxRetry: queueCfg.MaxRetry,
		timeout:  queueCfg.TaskTimeout,
		logger:   logger.Named("queue"),
	}
}

// Enqueue publishes a settlement task and returns the job identifier
func (e *Enqueuer) Enqueue(ctx context.Context, payload SettlePaymentPayload) (string, error) {
	task, err := NewSettlePaymentTask(payload)
	if err != nil {
		return "", err
	}
	info, err := e.client.EnqueueContext(ctx, task,
		asynq.Queue(SettlementQueue),
		asynq.MaxRetry(e.maxRetry),
		asynq.Timeout(e.timeout),
	)
	if err != nil {
		return "", err
	}
	e.logger.Info("enqueued settlement task",
		zap.String("task_id", info.ID),
		zap.String("invoice_id", payload.InvoiceID.String()))
	return info.ID, nil
}

// Close releases the underlying Redis connection
func (e *Enqueuer) Close() error {
	return e.client.Close()
}

// JobEnqueuer publishes settlement payloads. Satisfied by *Enqueuer;
// callers that run without Redis pass nil.
type JobEnqueuer interface {
	Enqueue(ctx context.Context, payload SettlePaymentPayload) (string, error)
}

// TryAsyncElseInline attempts to enqueue the payload; when the queue is
// unavailable the settlement runs synchronously instead. The caller's
// request never fails just because Redis is down. Returns the job
// identifier when the task was queued, or an empty string when it ran
// inline.
func TryAsyncElseInline(ctx context.Context, enqueuer JobEnqueuer, payload SettlePaymentPayload, inline func(context.Context) error, logger *zap.Logger) (string, error) {
	if enqueuer != nil {
		jobID, err := enqueuer.Enqueue(ctx, payload)
		if err == nil {
			return jobID, nil
		}
		logger.Warn("queue unavailable, settling inline",
			zap.String("invoice_id", payload.InvoiceID.String()),
			zap.Error(err))
	}
	return "", inline(ctx)
}
