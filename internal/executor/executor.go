// Package executor orchestrates claim, dedup check, handler dispatch,
// outcome recording, and audit logging for queued jobs.
package executor

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/fieldserve/jobrunner/internal/audit"
	"github.com/fieldserve/jobrunner/internal/jobs"
	"github.com/fieldserve/jobrunner/internal/queue"
	"github.com/fieldserve/jobrunner/internal/runstore"
	"github.com/google/uuid"
)

// Disposition is the terminal classification of one physical claim.
type Disposition string

const (
	// Completed: the handler ran and reported success; row deleted.
	Completed Disposition = "completed"
	// Duplicate: the logical job already ran; row acked without
	// invoking a handler. Treated as a success.
	Duplicate Disposition = "duplicate"
	// Skipped: the payload had no tenant; discarded, never retried.
	Skipped Disposition = "skipped"
	// Failed: see the Reason for whether the queue will retry it.
	Failed Disposition = "failed"
)

// FailureReason qualifies a Failed disposition.
type FailureReason string

const (
	ReasonMissingHandler FailureReason = "missing_handler"
	ReasonHandlerError   FailureReason = "handler_error"
	ReasonJobFailed      FailureReason = "job_failed"
)

// ProcessResult is the tagged outcome of ProcessJob. ProcessJob never
// returns an error; every path maps to a disposition.
type ProcessResult struct {
	Disposition Disposition
	Reason      FailureReason
	Error       string
}

// StuckReleaser is implemented by queues that can free rows orphaned by
// a crashed executor.
type StuckReleaser interface {
	ReleaseStuck(ctx context.Context, olderThan time.Duration) (int64, error)
}

// Executor processes one job per poll tick, synchronously. Horizontal
// scaling is more executor processes, not goroutines in this one; with
// several processes polling, correctness rests on the queue's claim
// being a single atomic conditional update.
//
// Known limitation: a handler has no deadline. A hung handler blocks
// this process's next tick indefinitely.
type Executor struct {
	queue      queue.Queue
	registry   *jobs.Registry
	runs       runstore.RunStore
	actions    audit.ActionLogger
	security   audit.SecurityLogger
	logger     *slog.Logger
	instanceID string

	pollInterval time.Duration
	lockTTL      time.Duration
}

func New(
	q queue.Queue,
	registry *jobs.Registry,
	runs runstore.RunStore,
	actions audit.ActionLogger,
	security audit.SecurityLogger,
	logger *slog.Logger,
	pollInterval time.Duration,
	lockTTL time.Duration,
) *Executor {
	return &Executor{
		queue:        q,
		registry:     registry,
		runs:         runs,
		actions:      actions,
		security:     security,
		logger:       logger,
		instanceID:   "executor-" + uuid.NewString(),
		pollInterval: pollInterval,
		lockTTL:      lockTTL,
	}
}

// ProcessJob runs the state machine for one claimed job.
func (e *Executor) ProcessJob(ctx context.Context, job *jobs.QueuedJob) ProcessResult {
	payload := job.Payload.Normalized()
	rowID := fmt.Sprintf("%d", job.ID)

	// A missing tenant cannot become valid on a later attempt, so the
	// row is discarded rather than released for retry.
	if strings.TrimSpace(payload.OrgID) == "" {
		if err := e.queue.Discard(ctx, job.ID, "missing orgId on payload"); err != nil {
			e.logger.Error("discard failed", slog.Uint64("job_row_id", uint64(job.ID)), slog.String("error", err.Error()))
		}
		e.security.LogSecurityEvent(ctx, audit.SecurityEvent{
			Type:   audit.EventMissingOrgID,
			Source: e.instanceID,
			Metadata: map[string]any{
				"jobRowId": rowID,
				"jobType":  payload.Type,
			},
		})
		return ProcessResult{Disposition: Skipped}
	}

	jobID := jobs.JobID(payload)

	ran, err := e.runs.HasRunBefore(ctx, jobID)
	if err != nil {
		// Fail open: with at-least-once delivery a rare re-run beats
		// stalling the queue on a flaky dedup read.
		e.logger.Error("run-log lookup failed", slog.String("job_id", jobID), slog.String("error", err.Error()))
		ran = false
	}
	if ran {
		if err := e.queue.MarkComplete(ctx, job.ID); err != nil {
			e.logger.Error("ack of duplicate failed", slog.Uint64("job_row_id", uint64(job.ID)), slog.String("error", err.Error()))
		}
		e.actions.LogAction(ctx, audit.ActionEntry{
			OrgID:      payload.OrgID,
			Action:     audit.ActionJobDuplicate,
			EntityType: audit.EntityTypeJob,
			EntityID:   jobID,
			Metadata:   map[string]any{"jobRowId": rowID, "jobType": payload.Type},
		})
		return ProcessResult{Disposition: Duplicate}
	}

	handler, ok := e.registry.Get(payload.Type)
	if !ok {
		// Re-attempting cannot make a handler appear.
		if err := e.queue.Discard(ctx, job.ID, "no handler registered for type "+payload.Type); err != nil {
			e.logger.Error("discard failed", slog.Uint64("job_row_id", uint64(job.ID)), slog.String("error", err.Error()))
		}
		e.security.LogSecurityEvent(ctx, audit.SecurityEvent{
			OrgID:  payload.OrgID,
			Type:   audit.EventMissingHandler,
			Source: e.instanceID,
			Metadata: map[string]any{
				"jobRowId": rowID,
				"jobType":  payload.Type,
			},
		})
		return ProcessResult{Disposition: Failed, Reason: ReasonMissingHandler}
	}

	e.actions.LogAction(ctx, audit.ActionEntry{
		OrgID:      payload.OrgID,
		Action:     audit.ActionJobStart,
		EntityType: audit.EntityTypeJob,
		EntityID:   jobID,
		Metadata: map[string]any{
			"jobRowId": rowID,
			"jobType":  payload.Type,
			"attempt":  job.Attempts,
		},
	})

	result, handlerErr := e.invoke(ctx, handler, payload)
	if handlerErr != nil {
		if err := e.queue.MarkFailed(ctx, job.ID, handlerErr.Error()); err != nil {
			e.logger.Error("mark failed errored", slog.Uint64("job_row_id", uint64(job.ID)), slog.String("error", err.Error()))
		}
		e.actions.LogAction(ctx, audit.ActionEntry{
			OrgID:      payload.OrgID,
			Action:     audit.ActionJobFailed,
			EntityType: audit.EntityTypeJob,
			EntityID:   jobID,
			Metadata: map[string]any{
				"jobRowId": rowID,
				"jobType":  payload.Type,
				"attempt":  job.Attempts,
				"error":    handlerErr.Error(),
			},
		})
		return ProcessResult{Disposition: Failed, Reason: ReasonHandlerError, Error: handlerErr.Error()}
	}

	// The handler ran to completion, success or not, so the logical job
	// is recorded as executed once. The queue may still retry a
	// reported failure via attempts, but the run log will collapse that
	// retry into a duplicate.
	if err := e.runs.MarkRun(ctx, jobID, payload.OrgID, result); err != nil {
		e.logger.Error("run-log write failed", slog.String("job_id", jobID), slog.String("error", err.Error()))
	}

	if result.Success {
		if err := e.queue.MarkComplete(ctx, job.ID); err != nil {
			e.logger.Error("mark complete failed", slog.Uint64("job_row_id", uint64(job.ID)), slog.String("error", err.Error()))
		}
		e.actions.LogAction(ctx, audit.ActionEntry{
			OrgID:      payload.OrgID,
			Action:     audit.ActionJobCompleted,
			EntityType: audit.EntityTypeJob,
			EntityID:   jobID,
			Metadata: map[string]any{
				"jobRowId": rowID,
				"jobType":  payload.Type,
				"attempt":  job.Attempts,
			},
		})
		return ProcessResult{Disposition: Completed}
	}

	if err := e.queue.MarkFailed(ctx, job.ID, result.Error); err != nil {
		e.logger.Error("mark failed errored", slog.Uint64("job_row_id", uint64(job.ID)), slog.String("error", err.Error()))
	}
	e.actions.LogAction(ctx, audit.ActionEntry{
		OrgID:      payload.OrgID,
		Action:     audit.ActionJobFailed,
		EntityType: audit.EntityTypeJob,
		EntityID:   jobID,
		Metadata: map[string]any{
			"jobRowId": rowID,
			"jobType":  payload.Type,
			"attempt":  job.Attempts,
			"error":    result.Error,
		},
	})
	return ProcessResult{Disposition: Failed, Reason: ReasonJobFailed, Error: result.Error}
}

// invoke calls the handler, converting a panic into a retryable error.
func (e *Executor) invoke(ctx context.Context, handler jobs.HandlerFunc, payload jobs.JobPayload) (result jobs.JobResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return handler(ctx, payload)
}

// ProcessNextJob claims and processes at most one job. Returns nil when
// the queue had no claimable work.
func (e *Executor) ProcessNextJob(ctx context.Context) *ProcessResult {
	job := e.queue.Dequeue(ctx)
	if job == nil {
		return nil
	}
	res := e.ProcessJob(ctx, job)
	return &res
}

// Run polls until ctx is done, one job per tick. No single job outcome
// or transient store error ever terminates the loop. When a lock TTL is
// configured and the queue supports it, a reaper goroutine releases
// rows orphaned by crashed executors.
func (e *Executor) Run(ctx context.Context) {
	e.logger.Info("executor started",
		slog.String("instance_id", e.instanceID),
		slog.Duration("poll_interval", e.pollInterval),
		slog.Any("job_types", e.registry.Types()),
	)

	if releaser, ok := e.queue.(StuckReleaser); ok && e.lockTTL > 0 {
		go e.reapStuck(ctx, releaser)
	}

	ticker := time.NewTicker(e.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			e.logger.Info("executor stopped", slog.String("instance_id", e.instanceID))
			return
		case <-ticker.C:
			if res := e.ProcessNextJob(ctx); res != nil {
				e.logger.Debug("job processed",
					slog.String("disposition", string(res.Disposition)),
					slog.String("reason", string(res.Reason)),
				)
			}
		}
	}
}

func (e *Executor) reapStuck(ctx context.Context, releaser StuckReleaser) {
	ticker := time.NewTicker(e.lockTTL)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			released, err := releaser.ReleaseStuck(ctx, e.lockTTL)
			if err != nil {
				e.logger.Error("stuck-lock release failed", slog.String("error", err.Error()))
				continue
			}
			if released > 0 {
				e.logger.Warn("released stuck jobs", slog.Int64("count", released))
			}
		}
	}
}
