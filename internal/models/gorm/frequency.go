package gorm

import (
	"time"

	"gorm.io/datatypes"

	"synq/backend/internal/constants"
)

type Frequency struct {
	BaseModel
	Name            string            `gorm:"column:name;type:varchar(128);not null"`
	Slug            string            `gorm:"column:slug;type:varchar(128);uniqueIndex;not null"`
	Description     string            `gorm:"column:description;type:text"`
	IsPrivate       bool              `gorm:"column:is_private;not null;default:false"`
	OwnerID         int64             `gorm:"column:owner_id;not null;index"`
	Settings        datatypes.JSONMap `gorm:"column:settings"`
	CoverImageURL   string            `gorm:"column:cover_image_url"`
	MaxParticipants int               `gorm:"column:max_participants;not null"`
}

// TableName specifies the table name for GORM
func (Frequency) TableName() string {
	return "frequencies"
}

type Membership struct {
	BaseModel
	UserID      int64                    `gorm:"column:user_id;not null;uniqueIndex:idx_memberships_user_frequency"`
	FrequencyID int64                    `gorm:"column:frequency_id;not null;uniqueIndex:idx_memberships_user_frequency;index:idx_memberships_frequency"`
	Role        constants.MembershipRole `gorm:"column:role;type:varchar(16);not null"`
	JoinedAt    time.Time                `gorm:"column:joined_at;not null"`
	MutedUntil  *time.Time               `gorm:"column:muted_until"`
	Banned      bool                     `gorm:"column:banned;not null;default:false"`
	Nickname    *string                  `gorm:"column:nickname;type:varchar(64)"`

	// Relationships
	User *User `gorm:"foreignKey:UserID"`
}

// TableName specifies the table name for GORM
func (Membership) TableName() string {
	return "memberships"
}

// IsMuted reports whether the mute window is still open at now.
func (m *Membership) IsMuted(now time.Time) bool {
	return m.MutedUntil != nil && now.Before(*m.MutedUntil)
}

type Invite struct {
	BaseModel
	Token       string                   `gorm:"column:token;type:varchar(32);uniqueIndex;not null"`
	FrequencyID int64                    `gorm:"column:frequency_id;not null;index"`
	InviterID   int64                    `gorm:"column:inviter_id;not null;index"`
	ExpiresAt   time.Time                `gorm:"column:expires_at;not null"`
	MaxUses     int                      `gorm:"column:max_uses;not null"`
	UsesCount   int                      `gorm:"column:uses_count;not null;default:0"`
	RoleOnJoin  constants.MembershipRole `gorm:"column:role_on_join;type:varchar(16);not null"`
}

// TableName specifies the table name for GORM
func (Invite) TableName() string {
	return "invites"
}

// IsValidAt is true while the invite is unexpired and has uses left.
func (i *Invite) IsValidAt(now time.Time) bool {
	return now.Before(i.ExpiresAt) && i.UsesCount < i.MaxUses
}
