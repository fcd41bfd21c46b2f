package requests

import (
	"strings"

	"synq/backend/internal/constants"
	"synq/backend/internal/domainerr"
)

const maxContentLength = 4000

type AttachmentRequest struct {
	FileURL      string `json:"fileUrl"`
	MimeType     string `json:"mimeType,omitempty"`
	SizeBytes    int64  `json:"sizeBytes,omitempty"`
	StorageKey   string `json:"storageKey,omitempty"`
	ThumbnailURL string `json:"thumbnailUrl,omitempty"`
}

type PostMessageRequest struct {
	Content     string                 `json:"content"`
	Type        *constants.MessageType `json:"type,omitempty"`
	ReplyToID   string                 `json:"replyToId,omitempty"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
	Attachments []AttachmentRequest    `json:"attachments,omitempty"`
}

func (r *PostMessageRequest) Validate() error {
	if strings.TrimSpace(r.Content) == "" && len(r.Attachments) == 0 {
		return domainerr.BadRequest("content or attachments are required")
	}
	if len(r.Content) > maxContentLength {
		return domainerr.BadRequest("content is too long")
	}
	if r.Type != nil && !r.Type.IsValid() {
		return domainerr.BadRequest("type must be TEXT, IMAGE, AUDIO, VIDEO or SYSTEM")
	}
	for _, a := range r.Attachments {
		if a.FileURL == "" {
			return domainerr.BadRequest("attachment fileUrl is required")
		}
	}
	return nil
}

type UpdateMessageRequest struct {
	Content  *string                `json:"content,omitempty"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

func (r *UpdateMessageRequest) Validate() error {
	if r.Content != nil {
		if strings.TrimSpace(*r.Content) == "" {
			return domainerr.BadRequest("content must not be empty")
		}
		if len(*r.Content) > maxContentLength {
			return domainerr.BadRequest("content is too long")
		}
	}
	return nil
}
