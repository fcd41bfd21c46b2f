package gorm

import (
	"time"

	"gorm.io/datatypes"

	"synq/backend/internal/constants"
)

// Message is soft deleted through DeletedAt. The column is a plain
// timestamp rather than gorm.DeletedAt so lookups by ID still see deleted
// rows; listing queries filter it explicitly.
type Message struct {
	BaseModel
	FrequencyID int64                 `gorm:"column:frequency_id;not null;index"`
	AuthorID    int64                 `gorm:"column:author_id;not null;index"`
	Content     string                `gorm:"column:content;type:text;not null"`
	Type        constants.MessageType `gorm:"column:type;type:varchar(16);not null"`
	ReplyToID   *int64                `gorm:"column:reply_to_id;index"`
	EditedAt    *time.Time            `gorm:"column:edited_at"`
	DeletedAt   *time.Time            `gorm:"column:deleted_at"`
	Metadata    datatypes.JSONMap     `gorm:"column:metadata"`

	// Relationships
	Attachments []Attachment `gorm:"foreignKey:MessageID"`
	Author      *User        `gorm:"foreignKey:AuthorID"`
	Frequency   *Frequency   `gorm:"foreignKey:FrequencyID"`
	ReplyTo     *Message     `gorm:"foreignKey:ReplyToID"`
}

// TableName specifies the table name for GORM
func (Message) TableName() string {
	return "messages"
}

func (m *Message) IsDeleted() bool {
	return m.DeletedAt != nil
}

type Attachment struct {
	BaseModel
	MessageID    int64  `gorm:"column:message_id;not null;index"`
	UploaderID   int64  `gorm:"column:uploader_id;not null"`
	FileURL      string `gorm:"column:file_url;not null"`
	MimeType     string `gorm:"column:mime_type;type:varchar(128)"`
	SizeBytes    int64  `gorm:"column:size_bytes"`
	StorageKey   string `gorm:"column:storage_key"`
	ThumbnailURL string `gorm:"column:thumbnail_url"`
}

// TableName specifies the table name for GORM
func (Attachment) TableName() string {
	return "attachments"
}

// AllModels lists every GORM model, in dependency order, for AutoMigrate.
func AllModels() []interface{} {
	return []interface{}{
		&Role{},
		&User{},
		&Frequency{},
		&Membership{},
		&Invite{},
		&Message{},
		&Attachment{},
	}
}
