package postgres

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/fieldserve/jobrunner/internal/audit"
	"github.com/fieldserve/jobrunner/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AuditRepository persists audit and security entries to their
// append-only tables. Write failures are logged and swallowed: the audit
// trail must never take a job down with it.
type AuditRepository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewAuditRepository(db *gorm.DB, logger *slog.Logger) *AuditRepository {
	return &AuditRepository{db: db, logger: logger}
}

var (
	_ audit.ActionLogger   = (*AuditRepository)(nil)
	_ audit.SecurityLogger = (*AuditRepository)(nil)
)

func (r *AuditRepository) LogAction(ctx context.Context, entry audit.ActionEntry) {
	row := models.AuditLog{
		OrgID:      entry.OrgID,
		Action:     entry.Action,
		EntityType: entry.EntityType,
		EntityID:   entry.EntityID,
		Metadata:   marshalMetadata(entry.Metadata),
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		r.logger.Error("audit log write failed",
			slog.String("action", entry.Action),
			slog.String("error", err.Error()),
		)
	}
}

func (r *AuditRepository) LogSecurityEvent(ctx context.Context, event audit.SecurityEvent) {
	row := models.SecurityEvent{
		OrgID:    event.OrgID,
		Type:     event.Type,
		Source:   event.Source,
		Metadata: marshalMetadata(event.Metadata),
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		r.logger.Error("security event write failed",
			slog.String("type", event.Type),
			slog.String("error", err.Error()),
		)
	}
}

func marshalMetadata(m map[string]any) datatypes.JSON {
	if m == nil {
		m = map[string]any{}
	}
	raw, err := json.Marshal(m)
	if err != nil {
		return datatypes.JSON(`{}`)
	}
	return datatypes.JSON(raw)
}
