// Package queue is the delivery transport for pending work. Table mode
// persists rows in the durable queue table and supports polling; push
// mode forwards each payload to an external dispatcher over HTTP and
// persists nothing.
package queue

import (
	"context"
	"errors"
	"time"

	"github.com/fieldserve/jobrunner/internal/jobs"
)

// ErrMissingOrgID is returned by Enqueue when the payload carries no
// tenant. This is a caller error, not a retryable condition.
var ErrMissingOrgID = errors.New("job payload missing orgId")

// Queue owns claim, retry, and purge semantics for pending work.
//
// Dequeue deliberately returns no error: both "no work" and a transient
// storage error yield nil, with the error logged, so a poll loop can
// never be taken down by a flaky read.
type Queue interface {
	// Enqueue validates and normalizes the payload, then persists or
	// forwards it depending on delivery mode.
	Enqueue(ctx context.Context, p jobs.JobPayload) error

	// Dequeue claims the oldest available job, or returns nil.
	Dequeue(ctx context.Context) *jobs.QueuedJob

	// MarkComplete acks a claimed job out of the queue. Idempotent.
	MarkComplete(ctx context.Context, id uint) error

	// MarkFailed releases a claimed job for retry, or purges it for
	// good once its attempts are exhausted.
	MarkFailed(ctx context.Context, id uint, errMsg string) error

	// Discard permanently removes a claimed job that must never be
	// retried, such as one with no tenant or no registered handler.
	Discard(ctx context.Context, id uint, reason string) error
}

// Store is the row-level persistence contract TableQueue runs on,
// implemented by the postgres repository.
type Store interface {
	Insert(ctx context.Context, p jobs.JobPayload) error
	ClaimNext(ctx context.Context) (*jobs.QueuedJob, error)
	Delete(ctx context.Context, id uint) error
	Fail(ctx context.Context, id uint, maxAttempts int) (purged bool, err error)
	ReleaseStuck(ctx context.Context, olderThan time.Duration) (int64, error)
}
