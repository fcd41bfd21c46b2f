package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"synq/backend/internal/constants"
	"synq/backend/internal/models/entities"
)

// AuditLogRepository appends to and reads audit_logs with sqlx. It is kept
// outside the GORM store so audit writes never join a domain transaction.
type AuditLogRepository struct {
	db  *sqlx.DB
	now func() time.Time
}

func NewAuditLogRepository(db *sqlx.DB) *AuditLogRepository {
	return &AuditLogRepository{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}
}

// Record appends one entry. data is marshalled to JSON; nil is stored as NULL.
func (r *AuditLogRepository) Record(ctx context.Context, actorID *int64, action, targetType string, targetID int64, data map[string]interface{}) error {
	var payload interface{}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return fmt.Errorf("failed to encode audit data: %w", err)
		}
		payload = string(raw)
	}

	_, err := r.db.ExecContext(ctx, r.db.Rebind(constants.InsertAuditLog),
		actorID, action, targetType, targetID, payload, r.now())
	if err != nil {
		return fmt.Errorf("failed to insert audit log: %w", err)
	}
	return nil
}

// ListByTarget returns the newest entries for one target first.
func (r *AuditLogRepository) ListByTarget(ctx context.Context, targetType string, targetID int64, limit int) ([]entities.AuditLog, error) {
	logs := []entities.AuditLog{}
	err := r.db.SelectContext(ctx, &logs, r.db.Rebind(constants.ListAuditLogsByTarget), targetType, targetID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit logs: %w", err)
	}
	return logs, nil
}
