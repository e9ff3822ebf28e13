package models

import (
	"time"

	"gorm.io/datatypes"
)

// AuditLog is an append-only record of a job lifecycle transition.
type AuditLog struct {
	ID         uint           `gorm:"primaryKey;autoIncrement"`
	OrgID      string         `gorm:"type:varchar(64);not null;index"`
	Action     string         `gorm:"type:varchar(64);not null"`
	EntityType string         `gorm:"type:varchar(64);not null"`
	EntityID   string         `gorm:"type:varchar(128);not null"`
	Metadata   datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt  time.Time      `gorm:"autoCreateTime"`
}

// SecurityEvent records an anomaly the queue refused to process, such as
// a payload with no tenant or a job type with no registered handler.
type SecurityEvent struct {
	ID        uint           `gorm:"primaryKey;autoIncrement"`
	OrgID     string         `gorm:"type:varchar(64);index"`
	Type      string         `gorm:"type:varchar(64);not null"`
	Source    string         `gorm:"type:varchar(128);not null"`
	Metadata  datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt time.Time      `gorm:"autoCreateTime"`
}
