// Package runstore tracks which logical jobs have already executed,
// keyed by the content-derived job id.
package runstore

import (
	"context"

	"github.com/fieldserve/jobrunner/internal/jobs"
)

// RunStore is the idempotency record. The durable implementation is a
// table keyed uniquely on the job id (internal/storage/postgres); the
// in-memory one below is for tests. The caller picks one explicitly.
type RunStore interface {
	HasRunBefore(ctx context.Context, jobID string) (bool, error)
	MarkRun(ctx context.Context, jobID, orgID string, result jobs.JobResult) error
}
