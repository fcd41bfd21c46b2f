package responses

import (
	"time"

	"synq/backend/internal/constants"
	models "synq/backend/internal/models/gorm"
)

type AttachmentResponse struct {
	ID           string `json:"id"`
	FileURL      string `json:"fileUrl"`
	MimeType     string `json:"mimeType,omitempty"`
	SizeBytes    int64  `json:"sizeBytes,omitempty"`
	ThumbnailURL string `json:"thumbnailUrl,omitempty"`
}

type MessageResponse struct {
	ID          string                 `json:"id"`
	FrequencyID string                 `json:"frequencyId,omitempty"`
	Author      *UserSummary           `json:"author,omitempty"`
	Content     string                 `json:"content"`
	Type        constants.MessageType  `json:"type"`
	ReplyToID   string                 `json:"replyToId,omitempty"`
	EditedAt    *time.Time             `json:"editedAt,omitempty"`
	DeletedAt   *time.Time             `json:"deletedAt,omitempty"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
	Attachments []AttachmentResponse   `json:"attachments"`
	CreatedAt   time.Time              `json:"createdAt"`
}

// FromMessage maps a message. Soft-deleted messages keep their row but are
// returned without content, metadata or attachments.
func FromMessage(m *models.Message) MessageResponse {
	resp := MessageResponse{
		ID:          m.ExternalID,
		Author:      SummarizeUser(m.Author),
		Content:     m.Content,
		Type:        m.Type,
		EditedAt:    m.EditedAt,
		DeletedAt:   m.DeletedAt,
		Metadata:    m.Metadata,
		Attachments: []AttachmentResponse{},
		CreatedAt:   m.CreatedAt,
	}
	if m.Frequency != nil {
		resp.FrequencyID = m.Frequency.ExternalID
	}
	if m.ReplyTo != nil {
		resp.ReplyToID = m.ReplyTo.ExternalID
	}

	if m.IsDeleted() {
		resp.Content = ""
		resp.Metadata = nil
		return resp
	}

	for _, a := range m.Attachments {
		resp.Attachments = append(resp.Attachments, AttachmentResponse{
			ID:           a.ExternalID,
			FileURL:      a.FileURL,
			MimeType:     a.MimeType,
			SizeBytes:    a.SizeBytes,
			ThumbnailURL: a.ThumbnailURL,
		})
	}
	return resp
}

func FromMessages(msgs []models.Message) []MessageResponse {
	out := make([]MessageResponse, 0, len(msgs))
	for i := range msgs {
		out = append(out, FromMessage(&msgs[i]))
	}
	return out
}
