package queue

import (
	"context"
	"log/slog"
	"strings"

	"github.com/fieldserve/jobrunner/internal/jobs"
	"github.com/fieldserve/jobrunner/internal/notify"
)

// PushQueue is the push delivery mode: each enqueue performs exactly one
// outbound call to the external dispatcher and persists nothing.
// Delivery is at-most-once; a transport failure is logged, not raised to
// the caller, and nothing retries it here.
type PushQueue struct {
	notifier notify.Notifier
	logger   *slog.Logger
}

func NewPushQueue(notifier notify.Notifier, logger *slog.Logger) *PushQueue {
	return &PushQueue{notifier: notifier, logger: logger}
}

var _ Queue = (*PushQueue)(nil)

func (q *PushQueue) Enqueue(ctx context.Context, p jobs.JobPayload) error {
	if strings.TrimSpace(p.OrgID) == "" {
		return ErrMissingOrgID
	}

	normalized := p.Normalized()
	if err := q.notifier.Dispatch(ctx, normalized); err != nil {
		q.logger.Error("dispatch failed",
			slog.String("org_id", normalized.OrgID),
			slog.String("job_type", normalized.Type),
			slog.String("error", err.Error()),
		)
	}
	return nil
}

// Dequeue always reports no work: there is nothing to poll in push mode.
func (q *PushQueue) Dequeue(context.Context) *jobs.QueuedJob {
	return nil
}

func (q *PushQueue) MarkComplete(context.Context, uint) error {
	return nil
}

func (q *PushQueue) MarkFailed(context.Context, uint, string) error {
	return nil
}

func (q *PushQueue) Discard(context.Context, uint, string) error {
	return nil
}
