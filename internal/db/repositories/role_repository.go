package repositories

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"synq/backend/internal/constants"
	"synq/backend/internal/domainerr"
	models "synq/backend/internal/models/gorm"
)

type RoleRepository struct {
	db *gorm.DB
}

func NewRoleRepository(db *gorm.DB) *RoleRepository {
	return &RoleRepository{db: db}
}

func (r *RoleRepository) GetByName(ctx context.Context, name constants.UserRole) (*models.Role, error) {
	var role models.Role
	err := r.db.WithContext(ctx).Where("name = ?", name).First(&role).Error
	if err != nil {
		return nil, mapNotFound(err, constants.MsgRoleNotFound, "failed to fetch role")
	}
	return &role, nil
}

// GetByNames returns the roles matching names; unknown names are skipped.
func (r *RoleRepository) GetByNames(ctx context.Context, names []constants.UserRole) ([]models.Role, error) {
	var roles []models.Role
	if len(names) == 0 {
		return roles, nil
	}
	err := r.db.WithContext(ctx).Where("name IN ?", names).Order("name ASC").Find(&roles).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch roles: %w", err)
	}
	return roles, nil
}

func (r *RoleRepository) List(ctx context.Context) ([]models.Role, error) {
	var roles []models.Role
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&roles).Error; err != nil {
		return nil, fmt.Errorf("failed to list roles: %w", err)
	}
	return roles, nil
}

// EnsureRole creates the role if it does not exist yet and reports whether
// it did. A concurrent creator winning the race counts as already present.
func (r *RoleRepository) EnsureRole(ctx context.Context, name constants.UserRole, description string) (bool, error) {
	_, err := r.GetByName(ctx, name)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, domainerr.ErrNotFound) {
		return false, err
	}

	role := models.Role{Name: name, Description: description}
	if err := r.db.WithContext(ctx).Create(&role).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return false, nil
		}
		return false, fmt.Errorf("failed to create role %s: %w", name, err)
	}
	return true, nil
}
