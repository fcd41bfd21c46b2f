package services

import (
	"context"
	"time"

	"synq/backend/internal/constants"
	"synq/backend/internal/db/repositories"
	"synq/backend/internal/domainerr"
	"synq/backend/internal/logging"
	"synq/backend/internal/metrics"
	"synq/backend/internal/models/entities"
	models "synq/backend/internal/models/gorm"
)

type AttachmentInput struct {
	FileURL      string
	MimeType     string
	SizeBytes    int64
	StorageKey   string
	ThumbnailURL string
}

// PostMessageInput carries an optional internal parent id in ReplyToID.
type PostMessageInput struct {
	FrequencyID int64
	AuthorID    int64
	Content     string
	Type        *constants.MessageType
	ReplyToID   *int64
	Metadata    map[string]interface{}
	Attachments []AttachmentInput
}

type MessageService struct {
	store       *repositories.Store
	memberships *MembershipService
	audit       AuditRecorder
	metrics     *metrics.MetricsRegistry
	now         func() time.Time
}

func NewMessageService(store *repositories.Store, memberships *MembershipService, audit AuditRecorder, m *metrics.MetricsRegistry) *MessageService {
	return &MessageService{
		store:       store,
		memberships: memberships,
		audit:       audit,
		metrics:     m,
		now:         utcNow,
	}
}

// PostMessage stores a message from a member. A reply must point at a
// message in the same frequency.
func (s *MessageService) PostMessage(ctx context.Context, in PostMessageInput) (*models.Message, error) {
	logging.Debug("Posting message", "frequency_id", in.FrequencyID, "author_id", in.AuthorID)

	authorExists, err := s.store.Users.Exists(ctx, in.AuthorID)
	if err != nil {
		return nil, err
	}
	if !authorExists {
		return nil, domainerr.NotFound(constants.MsgAuthorNotFound)
	}
	if _, err := s.store.Frequencies.GetByID(ctx, in.FrequencyID); err != nil {
		return nil, err
	}

	member, err := s.memberships.IsMember(ctx, in.AuthorID, in.FrequencyID)
	if err != nil {
		return nil, err
	}
	if !member {
		return nil, domainerr.Forbidden(constants.MsgNotMember)
	}

	if in.ReplyToID != nil {
		parent, err := s.store.Messages.GetByID(ctx, *in.ReplyToID)
		if err != nil || parent.FrequencyID != in.FrequencyID {
			if err != nil && domainerr.KindOf(err) != domainerr.KindNotFound {
				return nil, err
			}
			return nil, domainerr.NotFound(constants.MsgReplyTargetNotFound)
		}
	}

	msgType := constants.MessageTypeText
	if in.Type != nil {
		if !in.Type.IsValid() {
			return nil, domainerr.DomainInvalid("Unknown message type")
		}
		msgType = *in.Type
	}

	now := s.now()
	msg := &models.Message{
		FrequencyID: in.FrequencyID,
		AuthorID:    in.AuthorID,
		Content:     in.Content,
		Type:        msgType,
		ReplyToID:   in.ReplyToID,
		Metadata:    in.Metadata,
	}
	msg.CreatedAt = now
	msg.UpdatedAt = now
	for _, a := range in.Attachments {
		msg.Attachments = append(msg.Attachments, models.Attachment{
			UploaderID:   in.AuthorID,
			FileURL:      a.FileURL,
			MimeType:     a.MimeType,
			SizeBytes:    a.SizeBytes,
			StorageKey:   a.StorageKey,
			ThumbnailURL: a.ThumbnailURL,
		})
	}

	if err := s.store.Messages.Create(ctx, msg); err != nil {
		return nil, err
	}
	s.metrics.MessagesPostedTotal.WithLabelValues(string(msgType)).Inc()
	logging.Info("Message posted", "message_id", msg.ID, "frequency_id", in.FrequencyID)

	// reload for author and parent references
	return s.store.Messages.GetByID(ctx, msg.ID)
}

// UpdateMessage lets the author edit a live message. Nil content and
// metadata are left unchanged.
func (s *MessageService) UpdateMessage(ctx context.Context, id, authorID int64, content *string, metadata map[string]interface{}) (*models.Message, error) {
	msg, err := s.store.Messages.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if msg.AuthorID != authorID {
		return nil, domainerr.Forbidden(constants.MsgOnlyAuthorEdit)
	}
	if msg.IsDeleted() {
		return nil, domainerr.DomainInvalid(constants.MsgEditDeleted)
	}

	if content != nil {
		msg.Content = *content
	}
	if metadata != nil {
		msg.Metadata = metadata
	}
	editedAt := s.now()
	msg.EditedAt = &editedAt

	if err := s.store.Messages.Update(ctx, msg); err != nil {
		return nil, err
	}
	logging.Info("Message updated", "message_id", id)
	return msg, nil
}

// DeleteMessage soft deletes; the row and its content stay in storage.
// Deleting twice keeps the first timestamp.
func (s *MessageService) DeleteMessage(ctx context.Context, id, authorID int64) error {
	logging.Debug("Deleting message", "message_id", id, "author_id", authorID)

	msg, err := s.store.Messages.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if msg.AuthorID != authorID {
		return domainerr.Forbidden(constants.MsgOnlyAuthorDelete)
	}
	if msg.IsDeleted() {
		return nil
	}

	deletedAt := s.now()
	msg.DeletedAt = &deletedAt
	if err := s.store.Messages.Update(ctx, msg); err != nil {
		return err
	}

	recordAudit(ctx, s.audit, constants.AuditMessageDeleted, entities.AuditTargetMessage, id, map[string]interface{}{
		"frequency_id": msg.FrequencyID,
	})
	logging.Info("Message soft-deleted", "message_id", id)
	return nil
}

// GetMessagesByFrequency pages live messages newest first. size is capped
// at the message page size.
func (s *MessageService) GetMessagesByFrequency(ctx context.Context, frequencyID int64, page, size int) ([]models.Message, int64, error) {
	if _, err := s.store.Frequencies.GetByID(ctx, frequencyID); err != nil {
		return nil, 0, err
	}
	offset, limit := pageBounds(page, size, constants.MessagePageSize)
	return s.store.Messages.ListByFrequency(ctx, frequencyID, offset, limit)
}

// GetMessagesByFrequencyCursor returns up to one page of live messages
// created strictly before the cursor, newest first. A nil cursor means now.
func (s *MessageService) GetMessagesByFrequencyCursor(ctx context.Context, frequencyID int64, before *time.Time) ([]models.Message, error) {
	if _, err := s.store.Frequencies.GetByID(ctx, frequencyID); err != nil {
		return nil, err
	}
	cursor := s.now()
	if before != nil {
		cursor = before.UTC()
	}
	return s.store.Messages.ListBefore(ctx, frequencyID, cursor, constants.MessagePageSize)
}

// GetReplies lists the live direct replies, oldest first.
func (s *MessageService) GetReplies(ctx context.Context, messageID int64) ([]models.Message, error) {
	if _, err := s.store.Messages.GetByID(ctx, messageID); err != nil {
		return nil, err
	}
	return s.store.Messages.ListReplies(ctx, messageID)
}

func (s *MessageService) GetMessage(ctx context.Context, id int64) (*models.Message, error) {
	return s.store.Messages.GetByID(ctx, id)
}

func (s *MessageService) GetMessageByExternalID(ctx context.Context, externalID string) (*models.Message, error) {
	return s.store.Messages.GetByExternalID(ctx, externalID)
}

// CanAccessMessage follows the access rule of the message's frequency.
func (s *MessageService) CanAccessMessage(ctx context.Context, userID, messageID int64) (bool, error) {
	msg, err := s.store.Messages.GetByID(ctx, messageID)
	if err != nil {
		return false, err
	}
	freq, err := s.store.Frequencies.GetByID(ctx, msg.FrequencyID)
	if err != nil {
		return false, err
	}
	if !freq.IsPrivate {
		return true, nil
	}
	return s.memberships.IsMember(ctx, userID, msg.FrequencyID)
}
