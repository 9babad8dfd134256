package jobs

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jobmetrics "github.com/odyssey-erp/taskhub/internal/jobs"
)

type stubPruner struct {
	got     time.Duration
	removed int64
	err     error
	calls   int
}

func (s *stubPruner) Prune(ctx context.Context, retention time.Duration) (int64, error) {
	s.calls++
	s.got = retention
	return s.removed, s.err
}

func TestActivityPruneUsesPayloadWindow(t *testing.T) {
	reg := prometheus.NewRegistry()
	pruner := &stubPruner{removed: 4}
	job := NewActivityPruneJob(pruner, 24*time.Hour, nil, jobmetrics.NewMetrics(reg))

	task, err := NewActivityPruneTask(72 * time.Hour)
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))
	assert.Equal(t, 72*time.Hour, pruner.got)

	expected := `
# HELP taskhub_activity_pruned_total Activity log entries deleted by the retention job.
# TYPE taskhub_activity_pruned_total counter
taskhub_activity_pruned_total 4
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "taskhub_activity_pruned_total"))
}

func TestActivityPruneFallsBackToConfiguredWindow(t *testing.T) {
	pruner := &stubPruner{}
	job := NewActivityPruneJob(pruner, 24*time.Hour, nil, jobmetrics.NewMetrics(prometheus.NewRegistry()))

	require.NoError(t, job.Handle(context.Background(), asynq.NewTask(TaskActivityPrune, nil)))
	assert.Equal(t, 24*time.Hour, pruner.got)
}

func TestActivityPruneDisabled(t *testing.T) {
	pruner := &stubPruner{}
	job := NewActivityPruneJob(pruner, 0, nil, jobmetrics.NewMetrics(prometheus.NewRegistry()))
	require.NoError(t, job.Handle(context.Background(), asynq.NewTask(TaskActivityPrune, nil)))
	if pruner.calls != 0 {
		t.Fatalf("expected no prune call, got %d", pruner.calls)
	}
}

func TestActivityPruneErrors(t *testing.T) {
	pruner := &stubPruner{err: errors.New("db down")}
	job := NewActivityPruneJob(pruner, time.Hour, nil, jobmetrics.NewMetrics(prometheus.NewRegistry()))
	require.Error(t, job.Handle(context.Background(), asynq.NewTask(TaskActivityPrune, nil)))

	err := job.Handle(context.Background(), asynq.NewTask(TaskActivityPrune, []byte("{")))
	assert.ErrorIs(t, err, asynq.SkipRetry)

	_, err = NewActivityPruneTask(-time.Second)
	assert.Error(t, err)
}

func TestTriggerRejectsUnknownJob(t *testing.T) {
	c := &Client{client: asynq.NewClient(asynq.RedisClientOpt{Addr: "127.0.0.1:0"})}
	defer c.client.Close()
	_, err := c.Trigger(context.Background(), "mail:send", 0)
	var unsupported *UnsupportedJobError
	require.ErrorAs(t, err, &unsupported)
	assert.Equal(t, "mail:send", unsupported.Name)
}
