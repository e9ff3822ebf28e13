package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/fieldserve/jobrunner/internal/jobs"
	"github.com/fieldserve/jobrunner/internal/models"
	"github.com/fieldserve/jobrunner/internal/queue"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// QueueRepository owns the durable queue rows. Claiming is a single
// conditional UPDATE with RETURNING - never a read followed by a
// separate lock write - which is what keeps multiple executor processes
// from running the same row.
type QueueRepository struct {
	db *gorm.DB
}

func NewQueueRepository(db *gorm.DB) *QueueRepository {
	return &QueueRepository{db: db}
}

var _ queue.Store = (*QueueRepository)(nil)

// Insert appends a new unlocked row for the payload with zero attempts.
func (r *QueueRepository) Insert(ctx context.Context, p jobs.JobPayload) error {
	data, err := json.Marshal(p.Data)
	if err != nil {
		return fmt.Errorf("marshal job data: %w", err)
	}

	row := models.QueuedJob{
		OrgID: p.OrgID,
		Type:  p.Type,
		Data:  datatypes.JSON(data),
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("insert job: %w", err)
	}
	return nil
}

// Postgres re-evaluates the row after a blocked lock acquisition, so the
// outer locked_at IS NULL guard plus SKIP LOCKED makes concurrent claims
// pick distinct rows. The sqlite variant drops the locking clause; its
// single-writer model makes the statement atomic on its own.
const (
	claimPostgres = `
UPDATE queued_jobs
SET locked_at = ?, attempts = attempts + 1
WHERE locked_at IS NULL AND id = (
	SELECT id FROM queued_jobs
	WHERE locked_at IS NULL
	ORDER BY created_at ASC, id ASC
	LIMIT 1
	FOR UPDATE SKIP LOCKED
)
RETURNING id, org_id, type, data, attempts, created_at`

	claimGeneric = `
UPDATE queued_jobs
SET locked_at = ?, attempts = attempts + 1
WHERE locked_at IS NULL AND id = (
	SELECT id FROM queued_jobs
	WHERE locked_at IS NULL
	ORDER BY created_at ASC, id ASC
	LIMIT 1
)
RETURNING id, org_id, type, data, attempts, created_at`
)

type claimedRow struct {
	ID        uint
	OrgID     string
	Type      string
	Data      datatypes.JSON
	Attempts  int
	CreatedAt time.Time
}

// ClaimNext atomically locks the oldest unlocked row, increments its
// attempt counter, and returns it. Returns (nil, nil) when the queue has
// no claimable work.
func (r *QueueRepository) ClaimNext(ctx context.Context) (*jobs.QueuedJob, error) {
	sql := claimGeneric
	if r.db.Dialector.Name() == "postgres" {
		sql = claimPostgres
	}

	var rows []claimedRow
	if err := r.db.WithContext(ctx).Raw(sql, time.Now().UTC()).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("claim job: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	row := rows[0]
	data := map[string]any{}
	if len(row.Data) > 0 {
		if err := json.Unmarshal(row.Data, &data); err != nil {
			return nil, fmt.Errorf("unmarshal job data for row %d: %w", row.ID, err)
		}
	}

	return &jobs.QueuedJob{
		ID: row.ID,
		Payload: jobs.JobPayload{
			OrgID: row.OrgID,
			Type:  row.Type,
			Data:  data,
		},
		Attempts:  row.Attempts,
		CreatedAt: row.CreatedAt,
	}, nil
}

// Delete removes a row. Deleting a missing id is not an error, so acks
// after a duplicate delivery stay idempotent.
func (r *QueueRepository) Delete(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).Delete(&models.QueuedJob{}, id).Error; err != nil {
		return fmt.Errorf("delete job %d: %w", id, err)
	}
	return nil
}

// Fail handles a failed attempt for a row the caller has claimed. Once
// attempts reaches maxAttempts the row is purged for good; otherwise the
// lock is cleared and created_at left untouched, so the row re-enters
// the queue at its original FIFO position with no backoff. The read
// before the branch is safe because the row is still locked by us.
func (r *QueueRepository) Fail(ctx context.Context, id uint, maxAttempts int) (purged bool, err error) {
	var row models.QueuedJob
	if err := r.db.WithContext(ctx).First(&row, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("load job %d: %w", id, err)
	}

	if row.Attempts >= maxAttempts {
		if err := r.db.WithContext(ctx).Delete(&models.QueuedJob{}, id).Error; err != nil {
			return false, fmt.Errorf("purge job %d: %w", id, err)
		}
		return true, nil
	}

	if err := r.db.WithContext(ctx).Model(&models.QueuedJob{}).
		Where("id = ?", id).
		Update("locked_at", nil).Error; err != nil {
		return false, fmt.Errorf("unlock job %d: %w", id, err)
	}
	return false, nil
}

// ReleaseStuck clears locks older than olderThan so rows orphaned by a
// crashed executor become claimable again. Returns how many rows were
// released.
func (r *QueueRepository) ReleaseStuck(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-olderThan)
	res := r.db.WithContext(ctx).Model(&models.QueuedJob{}).
		Where("locked_at IS NOT NULL AND locked_at < ?", cutoff).
		Update("locked_at", nil)
	if res.Error != nil {
		return 0, fmt.Errorf("release stuck jobs: %w", res.Error)
	}
	return res.RowsAffected, nil
}
