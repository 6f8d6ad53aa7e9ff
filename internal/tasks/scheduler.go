package tasks

import (
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/hugh/go-crm/pkg/util"
)

// Registrar is the part of *asynq.Scheduler used to add periodic tasks.
type Registrar interface {
	Register(cronspec string, task *asynq.Task, opts ...asynq.Option) (string, error)
}

// RegisterPeriodic schedules housekeeping on cronExpr and returns the entry id.
func RegisterPeriodic(s Registrar, cronExpr string) (string, error) {
	if err := util.ValidateCronExpr(cronExpr); err != nil {
		return "", fmt.Errorf("housekeeping schedule: %w", err)
	}
	id, err := s.Register(cronExpr, NewHousekeepingTask(), asynq.Queue(QueueLow), asynq.MaxRetry(1))
	if err != nil {
		return "", fmt.Errorf("registering housekeeping: %w", err)
	}
	return id, nil
}
