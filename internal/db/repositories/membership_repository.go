package repositories

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"synq/backend/internal/constants"
	models "synq/backend/internal/models/gorm"
)

// MembershipRepository manages the user to frequency relation with GORM
type MembershipRepository struct {
	db *gorm.DB
}

func NewMembershipRepository(db *gorm.DB) *MembershipRepository {
	return &MembershipRepository{db: db}
}

// Create inserts a membership. The (user_id, frequency_id) unique index is
// the final arbiter when two joins race.
func (r *MembershipRepository) Create(ctx context.Context, m *models.Membership) error {
	if err := r.db.WithContext(ctx).Omit("User").Create(m).Error; err != nil {
		return mapDuplicate(err, constants.MsgAlreadyMember, "failed to create membership")
	}
	return nil
}

// Get retrieves the membership of a user in a frequency
func (r *MembershipRepository) Get(ctx context.Context, userID, frequencyID int64) (*models.Membership, error) {
	var m models.Membership

	err := r.db.WithContext(ctx).
		Preload("User").
		Where("user_id = ? AND frequency_id = ?", userID, frequencyID).
		First(&m).Error
	if err != nil {
		return nil, mapNotFound(err, constants.MsgMembershipNotFound, "failed to fetch membership")
	}

	return &m, nil
}

// ListByUser retrieves every membership of a user, oldest first
func (r *MembershipRepository) ListByUser(ctx context.Context, userID int64) ([]models.Membership, error) {
	var ms []models.Membership

	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("joined_at ASC").
		Order("id ASC").
		Find(&ms).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user memberships: %w", err)
	}

	return ms, nil
}

// ListByFrequency retrieves every member of a frequency with user details
func (r *MembershipRepository) ListByFrequency(ctx context.Context, frequencyID int64) ([]models.Membership, error) {
	var ms []models.Membership

	err := r.db.WithContext(ctx).
		Preload("User").
		Where("frequency_id = ?", frequencyID).
		Order("joined_at ASC").
		Order("id ASC").
		Find(&ms).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch frequency members: %w", err)
	}

	return ms, nil
}

func (r *MembershipRepository) Exists(ctx context.Context, userID, frequencyID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Membership{}).
		Where("user_id = ? AND frequency_id = ?", userID, frequencyID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check membership: %w", err)
	}
	return count > 0, nil
}

func (r *MembershipRepository) CountByFrequency(ctx context.Context, frequencyID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Membership{}).
		Where("frequency_id = ?", frequencyID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count members: %w", err)
	}
	return count, nil
}

func (r *MembershipRepository) CountByRole(ctx context.Context, frequencyID int64, role constants.MembershipRole) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Membership{}).
		Where("frequency_id = ? AND role = ?", frequencyID, role).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count members by role: %w", err)
	}
	return count, nil
}

// FirstWithRoleExcept returns the longest-standing member holding role,
// skipping userID.
func (r *MembershipRepository) FirstWithRoleExcept(ctx context.Context, frequencyID int64, role constants.MembershipRole, userID int64) (*models.Membership, error) {
	var m models.Membership

	err := r.db.WithContext(ctx).
		Where("frequency_id = ? AND role = ? AND user_id <> ?", frequencyID, role, userID).
		Order("joined_at ASC").
		Order("id ASC").
		First(&m).Error
	if err != nil {
		return nil, mapNotFound(err, constants.MsgMembershipNotFound, "failed to fetch membership")
	}

	return &m, nil
}

func (r *MembershipRepository) Update(ctx context.Context, m *models.Membership) error {
	if err := updateVersioned(r.db.WithContext(ctx), m, &m.BaseModel); err != nil {
		return mapDuplicate(err, constants.MsgAlreadyMember, "failed to update membership")
	}
	return nil
}

func (r *MembershipRepository) Delete(ctx context.Context, id int64) error {
	if err := r.db.WithContext(ctx).Delete(&models.Membership{}, id).Error; err != nil {
		return fmt.Errorf("failed to delete membership: %w", err)
	}
	return nil
}

// DeleteByUser removes every membership a user holds
func (r *MembershipRepository) DeleteByUser(ctx context.Context, userID int64) error {
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.Membership{}).Error; err != nil {
		return fmt.Errorf("failed to delete user memberships: %w", err)
	}
	return nil
}
