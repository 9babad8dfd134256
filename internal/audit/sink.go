package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/odyssey-erp/taskhub/internal/shared"
)

const defaultWriteTimeout = 5 * time.Second

// Writer persists a single audit entry.
type Writer interface {
	Insert(ctx context.Context, entry shared.AuditEntry) error
}

// Recorder is the shared.Auditor used by domain services. A failed write is
// logged and counted, never returned.
type Recorder struct {
	writer   Writer
	logger   *slog.Logger
	failures prometheus.Counter
	timeout  time.Duration
}

var _ shared.Auditor = (*Recorder)(nil)

// RecorderOption customises a Recorder.
type RecorderOption func(*Recorder)

// WithWriteTimeout bounds each write. Non-positive values keep the default.
func WithWriteTimeout(d time.Duration) RecorderOption {
	return func(r *Recorder) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// NewRecorder builds a Recorder. The failure counter is registered on reg when
// reg is non-nil.
func NewRecorder(writer Writer, logger *slog.Logger, reg prometheus.Registerer, opts ...RecorderOption) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	failures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "taskhub_audit_write_failures_total",
		Help: "Activity log writes that failed and were dropped.",
	})
	if reg != nil {
		reg.MustRegister(failures)
	}
	r := &Recorder{writer: writer, logger: logger, failures: failures, timeout: defaultWriteTimeout}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Record writes entry on a context detached from the caller's cancellation and
// bounded by the write timeout.
func (r *Recorder) Record(ctx context.Context, entry shared.AuditEntry) {
	if r == nil || r.writer == nil {
		return
	}
	if entry.Severity == "" {
		entry.Severity = shared.SeverityInfo
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
	defer cancel()
	if err := r.writer.Insert(ctx, entry); err != nil {
		r.failures.Inc()
		r.logger.Error("audit write failed",
			slog.String("action", entry.Action),
			slog.Any("error", err),
		)
	}
}
