package audit

import (
	"context"
	"log/slog"
)

// SlogLogger writes audit and security entries to a structured logger.
// Used where no durable audit store is wired in.
type SlogLogger struct {
	logger *slog.Logger
}

func NewSlogLogger(logger *slog.Logger) *SlogLogger {
	return &SlogLogger{logger: logger}
}

var (
	_ ActionLogger   = (*SlogLogger)(nil)
	_ SecurityLogger = (*SlogLogger)(nil)
)

func (l *SlogLogger) LogAction(ctx context.Context, entry ActionEntry) {
	l.logger.InfoContext(ctx, "audit",
		slog.String("org_id", entry.OrgID),
		slog.String("action", entry.Action),
		slog.String("entity_type", entry.EntityType),
		slog.String("entity_id", entry.EntityID),
		slog.Any("metadata", entry.Metadata),
	)
}

func (l *SlogLogger) LogSecurityEvent(ctx context.Context, event SecurityEvent) {
	l.logger.WarnContext(ctx, "security event",
		slog.String("org_id", event.OrgID),
		slog.String("type", event.Type),
		slog.String("source", event.Source),
		slog.Any("metadata", event.Metadata),
	)
}
