package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/odyssey-erp/useradmin/internal/jobs"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// SnapshotWarmer reloads the users snapshot into the cache.
type SnapshotWarmer interface {
	WarmSnapshot(ctx context.Context) (int, error)
}

// UsersWarmupJob refreshes the cached users snapshot after mutations and on
// the cron schedule.
type UsersWarmupJob struct {
	Warmer  SnapshotWarmer
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	Timeout time.Duration
}

// NewUsersWarmupJob wires dependencies for the warmup handler.
func NewUsersWarmupJob(warmer SnapshotWarmer, logger *slog.Logger, metrics *jobmetrics.Metrics) *UsersWarmupJob {
	return &UsersWarmupJob{Warmer: warmer, Logger: logger, Metrics: metrics, Timeout: 30 * time.Second}
}

// Handle processes snapshot warmup tasks.
func (j *UsersWarmupJob) Handle(ctx context.Context, t *asynq.Task) (resultErr error) {
	if j == nil || j.Warmer == nil {
		return errors.New("users warmup: handler not configured")
	}
	var payload UsersWarmupPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
	}

	tracker := j.metrics().Track(TaskUsersSnapshotWarmup)
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger().With(slog.String("reason", payload.Reason))
	start := time.Now()

	timeout := j.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	warmCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	count, err := j.Warmer.WarmSnapshot(warmCtx)
	if err != nil {
		logger.Error("warm users snapshot", slog.Any("error", err))
		return err
	}
	j.metrics().SetSnapshotRecords(count)
	logger.Info("users snapshot warmed", slog.Int("records", count), slog.Duration("duration", time.Since(start)))
	return nil
}

func (j *UsersWarmupJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskUsersSnapshotWarmup))
	}
	return slog.Default().With(slog.String("job", TaskUsersSnapshotWarmup))
}

func (j *UsersWarmupJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}
