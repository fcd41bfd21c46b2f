package services

import (
	"context"

	"synq/backend/internal/constants"
	"synq/backend/internal/db/repositories"
	"synq/backend/internal/logging"
	models "synq/backend/internal/models/gorm"
)

type RoleService struct {
	store *repositories.Store
}

func NewRoleService(store *repositories.Store) *RoleService {
	return &RoleService{store: store}
}

// EnsureDefaultRoles creates any missing system role and returns how many
// were created. Running it again is a no-op.
func (s *RoleService) EnsureDefaultRoles(ctx context.Context) (int, error) {
	created := 0
	for _, role := range constants.AllUserRoles {
		ok, err := s.store.Roles.EnsureRole(ctx, role, role.Description())
		if err != nil {
			return created, err
		}
		if ok {
			logging.Info("Created system role", "role", role)
			created++
		}
	}
	return created, nil
}

func (s *RoleService) ListRoles(ctx context.Context) ([]models.Role, error) {
	return s.store.Roles.List(ctx)
}
