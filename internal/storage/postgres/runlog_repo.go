package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/fieldserve/jobrunner/internal/jobs"
	"github.com/fieldserve/jobrunner/internal/models"
	"github.com/fieldserve/jobrunner/internal/runstore"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RunLogRepository is the durable idempotency record: one row per
// logical job id, written once, never updated.
type RunLogRepository struct {
	db *gorm.DB
}

func NewRunLogRepository(db *gorm.DB) *RunLogRepository {
	return &RunLogRepository{db: db}
}

var _ runstore.RunStore = (*RunLogRepository)(nil)

func (r *RunLogRepository) HasRunBefore(ctx context.Context, jobID string) (bool, error) {
	var run models.JobRun
	err := r.db.WithContext(ctx).
		Select("job_id").
		First(&run, "job_id = ?", jobID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("lookup job run: %w", err)
	}
	return true, nil
}

// MarkRun records the result for jobID. A conflicting insert from a
// concurrent executor is ignored - first writer wins, which is exactly
// the once-per-logical-job semantics the run log exists for.
func (r *RunLogRepository) MarkRun(ctx context.Context, jobID, orgID string, result jobs.JobResult) error {
	raw, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal job result: %w", err)
	}

	run := models.JobRun{
		JobID:  jobID,
		OrgID:  orgID,
		Result: datatypes.JSON(raw),
	}
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&run).Error; err != nil {
		return fmt.Errorf("record job run: %w", err)
	}
	return nil
}
