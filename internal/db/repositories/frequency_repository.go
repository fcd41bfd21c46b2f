package repositories

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"synq/backend/internal/constants"
	"synq/backend/internal/domainerr"
	models "synq/backend/internal/models/gorm"
)

// FrequencyRepository manages frequency rows with GORM
type FrequencyRepository struct {
	db *gorm.DB
}

func NewFrequencyRepository(db *gorm.DB) *FrequencyRepository {
	return &FrequencyRepository{db: db}
}

func (r *FrequencyRepository) Create(ctx context.Context, freq *models.Frequency) error {
	if err := r.db.WithContext(ctx).Create(freq).Error; err != nil {
		return mapDuplicate(err, constants.MsgSlugTaken, "failed to create frequency")
	}
	return nil
}

func (r *FrequencyRepository) GetByID(ctx context.Context, id int64) (*models.Frequency, error) {
	return r.first(r.db.WithContext(ctx), "id = ?", id)
}

func (r *FrequencyRepository) GetByExternalID(ctx context.Context, externalID string) (*models.Frequency, error) {
	return r.first(r.db.WithContext(ctx), "external_id = ?", externalID)
}

func (r *FrequencyRepository) GetBySlug(ctx context.Context, slug string) (*models.Frequency, error) {
	return r.first(r.db.WithContext(ctx), "slug = ?", slug)
}

// GetForUpdate loads the frequency and, on Postgres, holds its row lock
// until the surrounding transaction ends. Joins use it to serialize the
// capacity check per frequency. SQLite already serializes writers.
func (r *FrequencyRepository) GetForUpdate(ctx context.Context, id int64) (*models.Frequency, error) {
	q := r.db.WithContext(ctx)
	if isPostgres(q) {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return r.first(q, "id = ?", id)
}

func (r *FrequencyRepository) first(q *gorm.DB, query string, args ...interface{}) (*models.Frequency, error) {
	var freq models.Frequency
	if err := q.Where(query, args...).First(&freq).Error; err != nil {
		return nil, mapNotFound(err, constants.MsgFrequencyNotFound, "failed to fetch frequency")
	}
	return &freq, nil
}

func (r *FrequencyRepository) ExistsBySlug(ctx context.Context, slug string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Frequency{}).
		Where("slug = ?", slug).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check slug: %w", err)
	}
	return count > 0, nil
}

// Update writes every column except the slug, which is immutable.
func (r *FrequencyRepository) Update(ctx context.Context, freq *models.Frequency) error {
	prev := freq.BumpVersion()
	res := r.db.WithContext(ctx).
		Model(freq).
		Where("version = ?", prev).
		Select("*").
		Omit("id", "external_id", "created_at", "slug").
		Updates(freq)
	if res.Error != nil {
		freq.Version = prev
		return fmt.Errorf("failed to update frequency: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		freq.Version = prev
		return domainerr.Conflict(constants.MsgStaleWrite)
	}
	return nil
}

// ListPublic returns one page of non-private frequencies, newest first.
func (r *FrequencyRepository) ListPublic(ctx context.Context, offset, limit int) ([]models.Frequency, int64, error) {
	var (
		freqs []models.Frequency
		total int64
	)

	base := r.db.WithContext(ctx).Model(&models.Frequency{}).Where("is_private = ?", false)
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count frequencies: %w", err)
	}

	err := r.db.WithContext(ctx).
		Where("is_private = ?", false).
		Order("created_at DESC").
		Order("id DESC").
		Offset(offset).
		Limit(limit).
		Find(&freqs).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list frequencies: %w", err)
	}
	return freqs, total, nil
}

func (r *FrequencyRepository) ListByOwner(ctx context.Context, ownerID int64) ([]models.Frequency, error) {
	var freqs []models.Frequency
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at ASC").
		Find(&freqs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list frequencies by owner: %w", err)
	}
	return freqs, nil
}

// SetOwner repoints owner_id. Ownership itself lives in OWNER memberships;
// the column only records who is accountable for the frequency.
func (r *FrequencyRepository) SetOwner(ctx context.Context, freq *models.Frequency, ownerID int64) error {
	prev := freq.OwnerID
	freq.OwnerID = ownerID
	if err := r.Update(ctx, freq); err != nil {
		freq.OwnerID = prev
		return err
	}
	return nil
}

// DeleteCascade removes a frequency and everything it owns as one unit:
// attachments, messages, invites, memberships and then the frequency.
func (r *FrequencyRepository) DeleteCascade(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := r.first(tx, "id = ?", id); err != nil {
			return err
		}

		messageIDs := tx.Model(&models.Message{}).Select("id").Where("frequency_id = ?", id)
		if err := tx.Where("message_id IN (?)", messageIDs).Delete(&models.Attachment{}).Error; err != nil {
			return fmt.Errorf("failed to delete attachments: %w", err)
		}
		if err := tx.Where("frequency_id = ?", id).Delete(&models.Message{}).Error; err != nil {
			return fmt.Errorf("failed to delete messages: %w", err)
		}
		if err := tx.Where("frequency_id = ?", id).Delete(&models.Invite{}).Error; err != nil {
			return fmt.Errorf("failed to delete invites: %w", err)
		}
		if err := tx.Where("frequency_id = ?", id).Delete(&models.Membership{}).Error; err != nil {
			return fmt.Errorf("failed to delete memberships: %w", err)
		}
		if err := tx.Delete(&models.Frequency{}, id).Error; err != nil {
			return fmt.Errorf("failed to delete frequency: %w", err)
		}
		return nil
	})
}
