package responses

import (
	"time"

	"synq/backend/internal/constants"
	models "synq/backend/internal/models/gorm"
)

type RoleResponse struct {
	Name        constants.UserRole `json:"name"`
	Description string             `json:"description"`
}

type UserResponse struct {
	ID            string                 `json:"id"`
	Username      string                 `json:"username"`
	Email         string                 `json:"email"`
	DisplayName   string                 `json:"displayName,omitempty"`
	AvatarURL     string                 `json:"avatarUrl,omitempty"`
	EmailVerified bool                   `json:"emailVerified"`
	Status        constants.UserStatus   `json:"status"`
	Roles         []constants.UserRole   `json:"roles"`
	Metadata      map[string]interface{} `json:"metadata,omitempty"`
	LastLoginAt   *time.Time             `json:"lastLoginAt,omitempty"`
	CreatedAt     time.Time              `json:"createdAt"`
	UpdatedAt     time.Time              `json:"updatedAt"`
}

// UserSummary is embedded in member and message listings.
type UserSummary struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"displayName,omitempty"`
	AvatarURL   string `json:"avatarUrl,omitempty"`
}

func FromUser(u *models.User) UserResponse {
	return UserResponse{
		ID:            u.ExternalID,
		Username:      u.Username,
		Email:         u.Email,
		DisplayName:   u.DisplayName,
		AvatarURL:     u.AvatarURL,
		EmailVerified: u.EmailVerified,
		Status:        u.Status,
		Roles:         u.RoleNames(),
		Metadata:      u.Metadata,
		LastLoginAt:   u.LastLoginAt,
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
	}
}

func FromUsers(users []models.User) []UserResponse {
	out := make([]UserResponse, 0, len(users))
	for i := range users {
		out = append(out, FromUser(&users[i]))
	}
	return out
}

func SummarizeUser(u *models.User) *UserSummary {
	if u == nil {
		return nil
	}
	return &UserSummary{
		ID:          u.ExternalID,
		Username:    u.Username,
		DisplayName: u.DisplayName,
		AvatarURL:   u.AvatarURL,
	}
}

func FromRoles(roles []models.Role) []RoleResponse {
	out := make([]RoleResponse, 0, len(roles))
	for _, r := range roles {
		out = append(out, RoleResponse{Name: r.Name, Description: r.Description})
	}
	return out
}
