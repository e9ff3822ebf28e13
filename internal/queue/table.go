package queue

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/fieldserve/jobrunner/internal/jobs"
)

// TableQueue is the durable delivery mode: every enqueue is a row, every
// claim is one atomic conditional update in the store.
//
// Retried rows keep their original created_at and come back with no
// backoff, so a persistently failing job at the head of the queue is
// retried before anything behind it until it exhausts maxAttempts.
type TableQueue struct {
	store       Store
	maxAttempts int
	logger      *slog.Logger
}

func NewTableQueue(store Store, maxAttempts int, logger *slog.Logger) *TableQueue {
	return &TableQueue{store: store, maxAttempts: maxAttempts, logger: logger}
}

var _ Queue = (*TableQueue)(nil)

func (q *TableQueue) Enqueue(ctx context.Context, p jobs.JobPayload) error {
	if strings.TrimSpace(p.OrgID) == "" {
		return ErrMissingOrgID
	}
	return q.store.Insert(ctx, p.Normalized())
}

func (q *TableQueue) Dequeue(ctx context.Context) *jobs.QueuedJob {
	job, err := q.store.ClaimNext(ctx)
	if err != nil {
		q.logger.Error("dequeue failed", slog.String("error", err.Error()))
		return nil
	}
	return job
}

func (q *TableQueue) MarkComplete(ctx context.Context, id uint) error {
	return q.store.Delete(ctx, id)
}

func (q *TableQueue) MarkFailed(ctx context.Context, id uint, errMsg string) error {
	purged, err := q.store.Fail(ctx, id, q.maxAttempts)
	if err != nil {
		return err
	}
	if purged {
		q.logger.Warn("job purged after max attempts",
			slog.Uint64("job_row_id", uint64(id)),
			slog.Int("max_attempts", q.maxAttempts),
			slog.String("last_error", errMsg),
		)
	}
	return nil
}

func (q *TableQueue) Discard(ctx context.Context, id uint, reason string) error {
	q.logger.Warn("job discarded",
		slog.Uint64("job_row_id", uint64(id)),
		slog.String("reason", reason),
	)
	return q.store.Delete(ctx, id)
}

// ReleaseStuck frees rows whose lock has outlived olderThan. A crashed
// executor leaves its claimed row locked forever otherwise; the reaper
// in the executor calls this on an interval when a lock TTL is
// configured.
func (q *TableQueue) ReleaseStuck(ctx context.Context, olderThan time.Duration) (int64, error) {
	return q.store.ReleaseStuck(ctx, olderThan)
}
