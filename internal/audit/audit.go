// Package audit defines the two narrow logging interfaces the job
// subsystem emits into. The durable implementations live with the rest
// of the storage layer; this package only owns the contract and an
// slog-backed fallback for processes without a database handle.
package audit

import "context"

// Actions emitted on the audit stream for job lifecycle transitions.
const (
	ActionJobStart     = "job_start"
	ActionJobCompleted = "job_completed"
	ActionJobFailed    = "job_failed"
	ActionJobDuplicate = "job_duplicate"
)

// Security event types for jobs the executor refuses to run.
const (
	EventMissingOrgID   = "missing_org_id"
	EventMissingHandler = "job_missing_handler"
)

// EntityTypeJob is the entity type recorded for queue rows.
const EntityTypeJob = "job"

// ActionEntry is one audit record.
type ActionEntry struct {
	OrgID      string
	Action     string
	EntityType string
	EntityID   string
	Metadata   map[string]any
}

// SecurityEvent is one security record.
type SecurityEvent struct {
	OrgID    string
	Type     string
	Source   string
	Metadata map[string]any
}

// ActionLogger receives job lifecycle transitions. Implementations own
// their failure handling; the executor never fails a job over a logging
// problem.
type ActionLogger interface {
	LogAction(ctx context.Context, entry ActionEntry)
}

// SecurityLogger receives anomalies.
type SecurityLogger interface {
	LogSecurityEvent(ctx context.Context, event SecurityEvent)
}
