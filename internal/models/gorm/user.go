package gorm

import (
	"time"

	"gorm.io/datatypes"

	"synq/backend/internal/constants"
)

type User struct {
	BaseModel
	Username           string               `gorm:"column:username;type:varchar(64);uniqueIndex;not null"`
	Email              string               `gorm:"column:email;type:varchar(255);uniqueIndex;not null"`
	DisplayName        string               `gorm:"column:display_name;type:varchar(128)"`
	AvatarURL          string               `gorm:"column:avatar_url"`
	EmailVerified      bool                 `gorm:"column:email_verified;not null;default:false"`
	Status             constants.UserStatus `gorm:"column:status;type:varchar(16);not null"`
	ExternalIdentityID *string              `gorm:"column:external_identity_id;type:varchar(64);uniqueIndex"`
	Metadata           datatypes.JSONMap    `gorm:"column:metadata"`
	LastLoginAt        *time.Time           `gorm:"column:last_login_at"`

	// Relationships
	Roles []Role `gorm:"many2many:user_roles;"`
}

// TableName specifies the table name for GORM
func (User) TableName() string {
	return "users"
}

// HasRole reports whether the user carries the system role.
func (u *User) HasRole(role constants.UserRole) bool {
	for _, r := range u.Roles {
		if r.Name == role {
			return true
		}
	}
	return false
}

// RoleNames flattens the loaded roles.
func (u *User) RoleNames() []constants.UserRole {
	names := make([]constants.UserRole, 0, len(u.Roles))
	for _, r := range u.Roles {
		names = append(names, r.Name)
	}
	return names
}

type Role struct {
	BaseModel
	Name        constants.UserRole `gorm:"column:name;type:varchar(32);uniqueIndex;not null"`
	Description string             `gorm:"column:description"`
}

// TableName specifies the table name for GORM
func (Role) TableName() string {
	return "roles"
}
