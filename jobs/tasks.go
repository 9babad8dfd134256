package jobs

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskActivityPrune deletes activity log entries past the retention window.
	TaskActivityPrune = "activity:prune"
)

// ActivityPrunePayload carries the retention window. A zero window means the
// worker's configured retention applies.
type ActivityPrunePayload struct {
	RetentionSeconds int64 `json:"retention_seconds"`
}

// Retention returns the payload window as a duration.
func (p ActivityPrunePayload) Retention() time.Duration {
	return time.Duration(p.RetentionSeconds) * time.Second
}

// NewActivityPruneTask constructs an Asynq task for TaskActivityPrune.
func NewActivityPruneTask(retention time.Duration) (*asynq.Task, error) {
	if retention < 0 {
		return nil, fmt.Errorf("activity prune: negative retention %s", retention)
	}
	data, err := json.Marshal(ActivityPrunePayload{RetentionSeconds: int64(retention / time.Second)})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskActivityPrune, data), nil
}
