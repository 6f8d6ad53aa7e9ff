// Package queue builds the asynq client, server and scheduler that carry
// account emails and housekeeping between the API and the worker.
package queue

import (
	"context"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/hugh/go-crm/pkg/config"
)

// Queue weights. Emails a user is waiting on go to critical; periodic
// maintenance goes to low.
var Queues = map[string]int{
	"critical": 6,
	"default":  3,
	"low":      1,
}

func redisOpt(cfg *config.RedisConfig) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
	}
}

func NewClient(cfg *config.RedisConfig) *asynq.Client {
	return asynq.NewClient(redisOpt(cfg))
}

func NewServer(cfg *config.RedisConfig, concurrency int, logger *slog.Logger) *asynq.Server {
	if concurrency <= 0 {
		concurrency = 10
	}

	return asynq.NewServer(
		redisOpt(cfg),
		asynq.Config{
			Concurrency: concurrency,
			Queues:      Queues,
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				retried, _ := asynq.GetRetryCount(ctx)
				maxRetry, _ := asynq.GetMaxRetry(ctx)
				logger.Error("task failed",
					"type", task.Type(),
					"retry", retried,
					"max_retry", maxRetry,
					"error", err,
				)
			}),
		},
	)
}

// NewScheduler creates a UTC scheduler that logs every enqueue failure.
func NewScheduler(cfg *config.RedisConfig, logger *slog.Logger) *asynq.Scheduler {
	return asynq.NewScheduler(redisOpt(cfg), &asynq.SchedulerOpts{
		Location: time.UTC,
		PostEnqueueFunc: func(info *asynq.TaskInfo, err error) {
			if err != nil {
				logger.Error("failed to enqueue scheduled task", "error", err)
				return
			}
			logger.Debug("scheduled task enqueued", "type", info.Type, "id", info.ID)
		},
	})
}
