package services

import (
	"context"
	"time"

	"synq/backend/internal/auth"
	"synq/backend/internal/constants"
	"synq/backend/internal/logging"
)

func utcNow() time.Time {
	return time.Now().UTC()
}

// AuditRecorder appends lifecycle and moderation events. Recording happens
// after the domain write commits and never fails the request.
type AuditRecorder interface {
	Record(ctx context.Context, actorID *int64, action, targetType string, targetID int64, data map[string]interface{}) error
}

// NoopAuditRecorder drops every event.
type NoopAuditRecorder struct{}

func (NoopAuditRecorder) Record(context.Context, *int64, string, string, int64, map[string]interface{}) error {
	return nil
}

func recordAudit(ctx context.Context, audit AuditRecorder, action, targetType string, targetID int64, data map[string]interface{}) {
	if audit == nil {
		return
	}
	if err := audit.Record(ctx, auth.ActorID(ctx), action, targetType, targetID, data); err != nil {
		logging.Warn("Failed to record audit log",
			"action", action,
			"target_type", targetType,
			"target_id", targetID,
			"error", err,
		)
	}
}

// pageBounds turns a zero-based page and a size into offset and limit,
// applying the default and the cap.
func pageBounds(page, size, maxSize int) (offset, limit int) {
	if page < 0 {
		page = 0
	}
	if size <= 0 {
		size = constants.DefaultPageSize
	}
	if size > maxSize {
		size = maxSize
	}
	return page * size, size
}
