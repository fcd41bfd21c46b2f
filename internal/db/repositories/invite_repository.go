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

type InviteRepository struct {
	db *gorm.DB
}

func NewInviteRepository(db *gorm.DB) *InviteRepository {
	return &InviteRepository{db: db}
}

func (r *InviteRepository) Create(ctx context.Context, invite *models.Invite) error {
	if err := r.db.WithContext(ctx).Create(invite).Error; err != nil {
		return mapDuplicate(err, constants.MsgInviteInvalid, "failed to create invite")
	}
	return nil
}

func (r *InviteRepository) GetByID(ctx context.Context, id int64) (*models.Invite, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *InviteRepository) GetByExternalID(ctx context.Context, externalID string) (*models.Invite, error) {
	return r.first(ctx, "external_id = ?", externalID)
}

func (r *InviteRepository) GetByToken(ctx context.Context, token string) (*models.Invite, error) {
	return r.first(ctx, "token = ?", token)
}

func (r *InviteRepository) first(ctx context.Context, query string, args ...interface{}) (*models.Invite, error) {
	var invite models.Invite
	if err := r.db.WithContext(ctx).Where(query, args...).First(&invite).Error; err != nil {
		return nil, mapNotFound(err, constants.MsgInviteNotFound, "failed to fetch invite")
	}
	return &invite, nil
}

func (r *InviteRepository) ExistsByToken(ctx context.Context, token string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Invite{}).
		Where("token = ?", token).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check invite token: %w", err)
	}
	return count > 0, nil
}

func (r *InviteRepository) ListByFrequency(ctx context.Context, frequencyID int64) ([]models.Invite, error) {
	var invites []models.Invite
	err := r.db.WithContext(ctx).
		Where("frequency_id = ?", frequencyID).
		Order("created_at DESC").
		Find(&invites).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list invites: %w", err)
	}
	return invites, nil
}

// IncrementUses adds one use in a single guarded statement, so the counter
// can never pass max_uses. It reports false when the invite was already
// exhausted by the time the statement ran.
func (r *InviteRepository) IncrementUses(ctx context.Context, id int64, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Invite{}).
		Where("id = ? AND uses_count < max_uses", id).
		UpdateColumns(map[string]interface{}{
			"uses_count": gorm.Expr("uses_count + 1"),
			"version":    gorm.Expr("version + 1"),
			"updated_at": at,
		})
	if res.Error != nil {
		return false, fmt.Errorf("failed to increment invite uses: %w", res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (r *InviteRepository) Delete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Delete(&models.Invite{}, id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete invite: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domainerr.NotFound(constants.MsgInviteNotFound)
	}
	return nil
}

// DeleteByInviter removes every invite issued by a user
func (r *InviteRepository) DeleteByInviter(ctx context.Context, inviterID int64) error {
	if err := r.db.WithContext(ctx).Where("inviter_id = ?", inviterID).Delete(&models.Invite{}).Error; err != nil {
		return fmt.Errorf("failed to delete user invites: %w", err)
	}
	return nil
}
