package repositories

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"synq/backend/internal/constants"
	models "synq/backend/internal/models/gorm"
)

// MessageRepository manages messages and their attachments with GORM.
// Listing queries never return soft-deleted rows; GetByID does.
type MessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// Create inserts the message and any attachments set on it.
func (r *MessageRepository) Create(ctx context.Context, msg *models.Message) error {
	if err := r.db.WithContext(ctx).Create(msg).Error; err != nil {
		return fmt.Errorf("failed to create message: %w", err)
	}
	return nil
}

func (r *MessageRepository) GetByID(ctx context.Context, id int64) (*models.Message, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *MessageRepository) GetByExternalID(ctx context.Context, externalID string) (*models.Message, error) {
	return r.first(ctx, "external_id = ?", externalID)
}

func (r *MessageRepository) first(ctx context.Context, query string, args ...interface{}) (*models.Message, error) {
	var msg models.Message
	err := withRefs(r.db.WithContext(ctx)).
		Where(query, args...).
		First(&msg).Error
	if err != nil {
		return nil, mapNotFound(err, constants.MsgMessageNotFound, "failed to fetch message")
	}
	return &msg, nil
}

func (r *MessageRepository) Update(ctx context.Context, msg *models.Message) error {
	if err := updateVersioned(r.db.WithContext(ctx), msg, &msg.BaseModel); err != nil {
		return mapDuplicate(err, constants.MsgStaleWrite, "failed to update message")
	}
	return nil
}

// withRefs preloads attachments and the public IDs of the rows a message
// points at.
func withRefs(q *gorm.DB) *gorm.DB {
	idOnly := func(db *gorm.DB) *gorm.DB { return db.Select("id", "external_id") }
	return q.
		Preload("Attachments").
		Preload("Author").
		Preload("Frequency", idOnly).
		Preload("ReplyTo", idOnly)
}

func (r *MessageRepository) visible(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Where("deleted_at IS NULL")
}

// ListByFrequency returns one page of live messages, newest first, and the
// total count of live messages.
func (r *MessageRepository) ListByFrequency(ctx context.Context, frequencyID int64, offset, limit int) ([]models.Message, int64, error) {
	var (
		msgs  []models.Message
		total int64
	)

	err := r.visible(ctx).
		Model(&models.Message{}).
		Where("frequency_id = ?", frequencyID).
		Count(&total).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count messages: %w", err)
	}

	err = withRefs(r.visible(ctx)).
		Where("frequency_id = ?", frequencyID).
		Order("created_at DESC").
		Order("id DESC").
		Offset(offset).
		Limit(limit).
		Find(&msgs).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list messages: %w", err)
	}
	return msgs, total, nil
}

// ListBefore returns at most limit live messages created strictly before
// the cursor, newest first.
func (r *MessageRepository) ListBefore(ctx context.Context, frequencyID int64, before time.Time, limit int) ([]models.Message, error) {
	var msgs []models.Message

	err := withRefs(r.visible(ctx)).
		Where("frequency_id = ? AND created_at < ?", frequencyID, before).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&msgs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list messages before cursor: %w", err)
	}
	return msgs, nil
}

// ListReplies returns the live direct replies of a message, oldest first.
func (r *MessageRepository) ListReplies(ctx context.Context, parentID int64) ([]models.Message, error) {
	var msgs []models.Message

	err := withRefs(r.visible(ctx)).
		Where("reply_to_id = ?", parentID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&msgs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list replies: %w", err)
	}
	return msgs, nil
}

// ThreadIDsByAuthor collects the IDs of every message written by the author
// plus, level by level, every reply beneath them regardless of author.
func (r *MessageRepository) ThreadIDsByAuthor(ctx context.Context, authorID int64) ([]int64, error) {
	var frontier []int64
	err := r.db.WithContext(ctx).
		Model(&models.Message{}).
		Where("author_id = ?", authorID).
		Pluck("id", &frontier).Error
	if err != nil {
		return nil, fmt.Errorf("failed to collect authored messages: %w", err)
	}

	seen := make(map[int64]struct{}, len(frontier))
	all := make([]int64, 0, len(frontier))
	for _, id := range frontier {
		seen[id] = struct{}{}
		all = append(all, id)
	}

	for len(frontier) > 0 {
		var children []int64
		err := r.db.WithContext(ctx).
			Model(&models.Message{}).
			Where("reply_to_id IN ?", frontier).
			Pluck("id", &children).Error
		if err != nil {
			return nil, fmt.Errorf("failed to collect replies: %w", err)
		}

		frontier = frontier[:0]
		for _, id := range children {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			all = append(all, id)
			frontier = append(frontier, id)
		}
	}
	return all, nil
}

// DeleteByIDs hard-deletes the messages and their attachments.
func (r *MessageRepository) DeleteByIDs(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	db := r.db.WithContext(ctx)
	if err := db.Where("message_id IN ?", ids).Delete(&models.Attachment{}).Error; err != nil {
		return fmt.Errorf("failed to delete attachments: %w", err)
	}
	if err := db.Where("id IN ?", ids).Delete(&models.Message{}).Error; err != nil {
		return fmt.Errorf("failed to delete messages: %w", err)
	}
	return nil
}

// DeleteAttachmentsByUploader removes attachments a user added anywhere.
func (r *MessageRepository) DeleteAttachmentsByUploader(ctx context.Context, uploaderID int64) error {
	if err := r.db.WithContext(ctx).Where("uploader_id = ?", uploaderID).Delete(&models.Attachment{}).Error; err != nil {
		return fmt.Errorf("failed to delete uploaded attachments: %w", err)
	}
	return nil
}
