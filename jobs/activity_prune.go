package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/odyssey-erp/taskhub/internal/jobs"
)

// Pruner removes activity log entries older than a retention window.
type Pruner interface {
	Prune(ctx context.Context, retention time.Duration) (int64, error)
}

// ActivityPruneJob enforces activity log retention.
type ActivityPruneJob struct {
	Pruner    Pruner
	Retention time.Duration
	Logger    *slog.Logger
	Metrics   *jobmetrics.Metrics
}

// NewActivityPruneJob initialises the prune handler with the default window.
func NewActivityPruneJob(pruner Pruner, retention time.Duration, logger *slog.Logger, metrics *jobmetrics.Metrics) *ActivityPruneJob {
	return &ActivityPruneJob{Pruner: pruner, Retention: retention, Logger: logger, Metrics: metrics}
}

// Handle executes one prune pass.
func (j *ActivityPruneJob) Handle(ctx context.Context, t *asynq.Task) (err error) {
	if j == nil || j.Pruner == nil {
		return errors.New("activity prune: handler not configured")
	}
	var payload ActivityPrunePayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
	}
	retention := payload.Retention()
	if retention <= 0 {
		retention = j.Retention
	}
	if retention <= 0 {
		j.logger().Info("activity retention disabled, skipping prune")
		return nil
	}

	tracker := j.metrics().Track(TaskActivityPrune)
	defer func() {
		err = tracker.End(err)
	}()

	logger := j.logger().With(slog.Duration("retention", retention))
	removed, err := j.Pruner.Prune(ctx, retention)
	if err != nil {
		logger.Error("prune activity log", slog.Any("error", err))
		return err
	}
	j.metrics().AddPruned(removed)
	logger.Info("activity log pruned", slog.Int64("removed", removed))
	return nil
}

func (j *ActivityPruneJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}

func (j *ActivityPruneJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return jobmetrics.NewMetrics(nil)
}
