package requests

import (
	"net/mail"
	"strings"

	"synq/backend/internal/constants"
	"synq/backend/internal/domainerr"
)

type CreateUserRequest struct {
	Username    string                 `json:"username"`
	Email       string                 `json:"email"`
	Password    string                 `json:"password,omitempty"`
	DisplayName string                 `json:"displayName,omitempty"`
	AvatarURL   string                 `json:"avatarUrl,omitempty"`
	Roles       []constants.UserRole   `json:"roles,omitempty"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}

func (r *CreateUserRequest) Validate() error {
	r.Username = strings.TrimSpace(r.Username)
	r.Email = strings.TrimSpace(r.Email)

	if n := len(r.Username); n < 3 || n > 64 {
		return domainerr.BadRequest("username must be between 3 and 64 characters")
	}
	if _, err := mail.ParseAddress(r.Email); err != nil {
		return domainerr.BadRequest("email is not a valid address")
	}
	return validateRoles(r.Roles)
}

// UpdateUserRequest carries a partial update; nil fields are left alone.
type UpdateUserRequest struct {
	Email         *string                `json:"email,omitempty"`
	DisplayName   *string                `json:"displayName,omitempty"`
	AvatarURL     *string                `json:"avatarUrl,omitempty"`
	EmailVerified *bool                  `json:"emailVerified,omitempty"`
	Status        *constants.UserStatus  `json:"status,omitempty"`
	Roles         []constants.UserRole   `json:"roles,omitempty"`
	Metadata      map[string]interface{} `json:"metadata,omitempty"`
}

func (r *UpdateUserRequest) Validate() error {
	if r.Email != nil {
		if _, err := mail.ParseAddress(*r.Email); err != nil {
			return domainerr.BadRequest("email is not a valid address")
		}
	}
	if r.Status != nil && !r.Status.IsValid() {
		return domainerr.BadRequest("status must be ACTIVE, INACTIVE or SUSPENDED")
	}
	return validateRoles(r.Roles)
}

func validateRoles(roles []constants.UserRole) error {
	for _, role := range roles {
		if !role.IsValid() {
			return domainerr.BadRequest("unknown role " + string(role))
		}
	}
	return nil
}
