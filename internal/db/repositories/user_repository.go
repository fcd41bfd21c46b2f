package repositories

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"synq/backend/internal/constants"
	"synq/backend/internal/domainerr"
	models "synq/backend/internal/models/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new GORM-based user repository
func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts the user together with its role links.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return mapDuplicate(err, constants.MsgUserExists, "failed to create user")
	}
	return nil
}

// GetByID retrieves a user with roles preloaded
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return r.first(ctx, "id = ?", id)
}

// GetByExternalID retrieves a user by its public identifier
func (r *UserRepository) GetByExternalID(ctx context.Context, externalID string) (*models.User, error) {
	return r.first(ctx, "external_id = ?", externalID)
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.first(ctx, "username = ?", username)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.first(ctx, "email = ?", email)
}

// GetByIdentityID retrieves a user by the identity provider's subject
func (r *UserRepository) GetByIdentityID(ctx context.Context, identityID string) (*models.User, error) {
	return r.first(ctx, "external_identity_id = ?", identityID)
}

func (r *UserRepository) first(ctx context.Context, query string, args ...interface{}) (*models.User, error) {
	var user models.User

	err := r.db.WithContext(ctx).
		Preload("Roles").
		Where(query, args...).
		First(&user).Error
	if err != nil {
		return nil, mapNotFound(err, constants.MsgUserNotFound, "failed to fetch user")
	}

	return &user, nil
}

func (r *UserRepository) Exists(ctx context.Context, id int64) (bool, error) {
	return r.exists(ctx, "id = ?", id)
}

func (r *UserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	return r.exists(ctx, "username = ?", username)
}

func (r *UserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, "email = ?", email)
}

func (r *UserRepository) exists(ctx context.Context, query string, args ...interface{}) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where(query, args...).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check user existence: %w", err)
	}
	return count > 0, nil
}

// List returns one page of users ordered by username, plus the total count.
func (r *UserRepository) List(ctx context.Context, offset, limit int) ([]models.User, int64, error) {
	var (
		users []models.User
		total int64
	)

	if err := r.db.WithContext(ctx).Model(&models.User{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	err := r.db.WithContext(ctx).
		Preload("Roles").
		Order("username ASC").
		Offset(offset).
		Limit(limit).
		Find(&users).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}

	return users, total, nil
}

// Update writes the user's columns. Role links are changed with ReplaceRoles.
func (r *UserRepository) Update(ctx context.Context, user *models.User) error {
	if err := updateVersioned(r.db.WithContext(ctx), user, &user.BaseModel); err != nil {
		return mapDuplicate(err, constants.MsgUserExists, "failed to update user")
	}
	return nil
}

func (r *UserRepository) ReplaceRoles(ctx context.Context, user *models.User, roles []models.Role) error {
	if err := r.db.WithContext(ctx).Model(user).Association("Roles").Replace(roles); err != nil {
		return fmt.Errorf("failed to replace user roles: %w", err)
	}
	user.Roles = roles
	return nil
}

// TouchLastLogin stamps the login time without going through the version
// guard; concurrent logins are last-writer-wins.
func (r *UserRepository) TouchLastLogin(ctx context.Context, id int64, at time.Time) error {
	err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		UpdateColumns(map[string]interface{}{
			"last_login_at": at,
			"version":       gorm.Expr("version + 1"),
		}).Error
	if err != nil {
		return fmt.Errorf("failed to update last login: %w", err)
	}
	return nil
}

// Delete removes the user's role links and the user row.
func (r *UserRepository) Delete(ctx context.Context, user *models.User) error {
	db := r.db.WithContext(ctx)
	if err := db.Model(user).Association("Roles").Clear(); err != nil {
		return fmt.Errorf("failed to clear user roles: %w", err)
	}
	res := db.Delete(&models.User{}, user.ID)
	if res.Error != nil {
		return fmt.Errorf("failed to delete user: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domainerr.NotFound(constants.MsgUserNotFound)
	}
	return nil
}
