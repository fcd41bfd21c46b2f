package auth

import (
	"synq/backend/internal/constants"
	models "synq/backend/internal/models/gorm"
)

// MakePrincipal builds the principal for a resolved local user.
func MakePrincipal(user *models.User, source constants.RequestSource) *Principal {
	p := &Principal{
		UserID:      user.ID,
		ExternalID:  user.ExternalID,
		Username:    user.Username,
		SystemRoles: user.RoleNames(),
		Source:      source,
	}
	return p
}
