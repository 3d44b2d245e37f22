package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskUsersSnapshotWarmup reloads the users snapshot into the cache.
	TaskUsersSnapshotWarmup = "users:snapshot:warmup"

	warmupUniqueWindow = 10 * time.Second
)

// UsersWarmupPayload describes why a snapshot warmup was requested. It
// carries no per-request data so asynq.Unique can match duplicates.
type UsersWarmupPayload struct {
	Reason string `json:"reason"`
}

// NewUsersWarmupTask constructs an Asynq task.
func NewUsersWarmupTask(payload UsersWarmupPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskUsersSnapshotWarmup, data, asynq.MaxRetry(3), asynq.Timeout(time.Minute)), nil
}
