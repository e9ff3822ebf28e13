package models

import (
	"time"

	"gorm.io/datatypes"
)

// QueuedJob is one row of the durable job queue. LockedAt is non-null
// only while an executor holds the claim; CreatedAt never changes after
// insert, so a retried row keeps its FIFO position.
type QueuedJob struct {
	ID        uint           `gorm:"primaryKey;autoIncrement"`
	OrgID     string         `gorm:"type:varchar(64);not null;index"`
	Type      string         `gorm:"type:varchar(255);not null"`
	Data      datatypes.JSON `gorm:"type:jsonb"`
	Attempts  int            `gorm:"default:0;not null"`
	LockedAt  *time.Time     `gorm:"index:idx_queued_jobs_claim,priority:1"`
	CreatedAt time.Time      `gorm:"autoCreateTime;index:idx_queued_jobs_claim,priority:2"`
}

// JobRun records that a logical job (keyed by its content-derived id)
// has executed once. Written exactly once per job id; never updated or
// deleted by this subsystem.
type JobRun struct {
	JobID       string         `gorm:"type:char(64);primaryKey"`
	OrgID       string         `gorm:"type:varchar(64);not null;index"`
	ProcessedAt time.Time      `gorm:"autoCreateTime"`
	Result      datatypes.JSON `gorm:"type:jsonb"`
}
