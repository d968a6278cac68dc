package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeGrantSweep deactivates user permission grants whose expiry
	// timestamp has passed.
	TaskTypeGrantSweep = "rbac:sweep_expired"
)

// GrantSweepPayload carries the reference time for a sweep run. A zero value
// means "now" at processing time.
type GrantSweepPayload struct {
	RequestedAt time.Time `json:"requested_at"`
}

// GrantSweeper is implemented by the permission service.
type GrantSweeper interface {
	SweepExpired(ctx context.Context) (int64, error)
}

// NewGrantSweepTask constructs the periodic sweep task.
func NewGrantSweepTask() (*asynq.Task, error) {
	data, err := json.Marshal(GrantSweepPayload{RequestedAt: time.Now().UTC()})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeGrantSweep, data), nil
}

// NewGrantSweepHandler returns the asynq handler for TaskTypeGrantSweep.
func NewGrantSweepHandler(sweeper GrantSweeper, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload GrantSweepPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		swept, err := sweeper.SweepExpired(ctx)
		if err != nil {
			logger.Error("grant sweep", slog.Any("error", err))
			return err
		}
		if swept > 0 {
			logger.Info("grant sweep completed", slog.Int64("deactivated", swept))
		}
		return nil
	}
}
