package entities

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// AuditLog is an append-only record of a lifecycle or moderation action.
type AuditLog struct {
	ID         int64          `db:"id" json:"id"`
	ActorID    *int64         `db:"actor_id" json:"actorId,omitempty"`
	ActionType string         `db:"action_type" json:"actionType"`
	TargetType string         `db:"target_type" json:"targetType"`
	TargetID   int64          `db:"target_id" json:"targetId"`
	Data       types.JSONText `db:"data" json:"data,omitempty"`
	CreatedAt  time.Time      `db:"created_at" json:"createdAt"`
}

const (
	AuditTargetUser       = "USER"
	AuditTargetFrequency  = "FREQUENCY"
	AuditTargetMembership = "MEMBERSHIP"
	AuditTargetInvite     = "INVITE"
	AuditTargetMessage    = "MESSAGE"
)
