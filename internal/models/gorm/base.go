package gorm

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BaseModel is embedded by every persisted entity. ID is the durable key
// used for joins; ExternalID is the opaque identifier handed to clients.
type BaseModel struct {
	ID         int64     `gorm:"column:id;primaryKey;autoIncrement"`
	ExternalID string    `gorm:"column:external_id;type:varchar(36);uniqueIndex;not null"`
	CreatedAt  time.Time `gorm:"column:created_at;not null"`
	UpdatedAt  time.Time `gorm:"column:updated_at;not null"`
	Version    int64     `gorm:"column:version;not null;default:0"`
	Active     bool      `gorm:"column:active;not null;default:true"`
}

func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.ExternalID == "" {
		b.ExternalID = uuid.NewString()
	}
	b.Active = true
	return nil
}

// CurrentVersion returns the version the row had when it was loaded.
func (b *BaseModel) CurrentVersion() int64 {
	return b.Version
}

// BumpVersion advances the version for an optimistic update and returns the
// previous value to guard the WHERE clause with.
func (b *BaseModel) BumpVersion() int64 {
	prev := b.Version
	b.Version++
	return prev
}
