package api

import (
	"context"
	"net/http"
	"time"

	"synq/backend/internal/common"
	"synq/backend/internal/constants"
	"synq/backend/internal/domainerr"
	"synq/backend/internal/models/dtos"
	"synq/backend/internal/models/dtos/requests"
	"synq/backend/internal/models/dtos/responses"
	models "synq/backend/internal/models/gorm"
	"synq/backend/internal/services"
)

// PostMessage handles POST /api/v1/frequencies/{id}/messages
//
// @Summary      Post a message
// @Description  Posts a message, optionally as a reply to a message of the same frequency. Members only.
// @Tags         Messages
// @Accept       json
// @Produce      json
// @Param        id     path  string                       true  "Frequency ID"
// @Param        input  body  requests.PostMessageRequest  true  "Message"
// @Success      201  {object}  dtos.APIResponse
// @Failure      403  {object}  dtos.APIResponse
// @Failure      404  {object}  dtos.APIResponse
// @Router       /api/v1/frequencies/{id}/messages [post]
func (h *Handlers) PostMessage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()
		p, ok := principal(w, r, initTime)
		if !ok {
			return
		}

		var req requests.PostMessageRequest
		if err := decodeRequest(r, &req); err != nil {
			common.RespondError(w, initTime, err, "Invalid message payload")
			return
		}

		freq, err := h.frequencyParam(r)
		if err != nil {
			common.RespondError(w, initTime, err, "Failed to post message")
			return
		}

		replyTo, err := h.replyTarget(r.Context(), req.ReplyToID)
		if err != nil {
			common.RespondError(w, initTime, err, "Failed to post message")
			return
		}

		attachments := make([]services.AttachmentInput, 0, len(req.Attachments))
		for _, a := range req.Attachments {
			attachments = append(attachments, services.AttachmentInput{
				FileURL:      a.FileURL,
				MimeType:     a.MimeType,
				SizeBytes:    a.SizeBytes,
				StorageKey:   a.StorageKey,
				ThumbnailURL: a.ThumbnailURL,
			})
		}

		msg, err := h.deps.Services.Messages.PostMessage(r.Context(), services.PostMessageInput{
			FrequencyID: freq.ID,
			AuthorID:    p.UserID,
			Content:     req.Content,
			Type:        req.Type,
			ReplyToID:   replyTo,
			Metadata:    req.Metadata,
			Attachments: attachments,
		})
		if err != nil {
			common.RespondError(w, initTime, err, "Failed to post message")
			return
		}

		common.RespondSuccess(w, initTime, "Message posted", responses.FromMessage(msg), http.StatusCreated)
	}
}

// replyTarget resolves a public parent id. An unknown parent is reported
// the same way as a parent in another frequency.
func (h *Handlers) replyTarget(ctx context.Context, externalID string) (*int64, error) {
	if externalID == "" {
		return nil, nil
	}
	parent, err := h.deps.Services.Messages.GetMessageByExternalID(ctx, externalID)
	if err != nil {
		if domainerr.KindOf(err) == domainerr.KindNotFound {
			return nil, domainerr.NotFound(constants.MsgReplyTargetNotFound)
		}
		return nil, err
	}
	return &parent.ID, nil
}

// ListMessages handles GET /api/v1/frequencies/{id}/messages
//
// Pages with page and size by default. With before=<RFC3339 time> it
// returns the messages preceding that instant and a nextCursor for the
// following call while more may exist.
func (h *Handlers) ListMessages() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()
		p, ok := principal(w, r, initTime)
		if !ok {
			return
		}

		freq, err := h.frequencyParam(r)
		if err == nil {
			err = h.ensureFrequencyAccess(r.Context(), p.UserID, freq.ID)
		}
		if err != nil {
			common.RespondError(w, initTime, err, "Failed to list messages")
			return
		}

		if raw := r.URL.Query().Get("before"); raw != "" {
			before, err := time.Parse(time.RFC3339Nano, raw)
			if err != nil {
				common.RespondError(w, initTime, domainerr.BadRequest("before must be an RFC3339 timestamp"), "Invalid cursor")
				return
			}

			msgs, err := h.deps.Services.Messages.GetMessagesByFrequencyCursor(r.Context(), freq.ID, &before)
			if err != nil {
				common.RespondError(w, initTime, err, "Failed to list messages")
				return
			}

			page := &dtos.PaginationDTO{PageSize: constants.MessagePageSize, TotalElements: int64(len(msgs))}
			if len(msgs) == constants.MessagePageSize {
				page.NextCursor = msgs[len(msgs)-1].CreatedAt.UTC().Format(time.RFC3339Nano)
			} else {
				page.IsLastPage = true
			}
			common.RespondPage(w, initTime, "Messages fetched", responses.FromMessages(msgs), page)
			return
		}

		page, size := pageParams(r, constants.MessagePageSize)
		msgs, total, err := h.deps.Services.Messages.GetMessagesByFrequency(r.Context(), freq.ID, page, size)
		if err != nil {
			common.RespondError(w, initTime, err, "Failed to list messages")
			return
		}

		common.RespondPage(w, initTime, "Messages fetched", responses.FromMessages(msgs), dtos.NewPagination(page, size, total))
	}
}

// accessibleMessage resolves {id} and checks the caller may read it.
func (h *Handlers) accessibleMessage(r *http.Request, userID int64) (*models.Message, error) {
	msg, err := h.messageParam(r)
	if err != nil {
		return nil, err
	}
	ok, err := h.deps.Services.Messages.CanAccessMessage(r.Context(), userID, msg.ID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domainerr.Forbidden(constants.MsgNotMember)
	}
	return msg, nil
}

// GetMessage handles GET /api/v1/messages/{id}
func (h *Handlers) GetMessage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()
		p, ok := principal(w, r, initTime)
		if !ok {
			return
		}

		msg, err := h.accessibleMessage(r, p.UserID)
		if err != nil {
			common.RespondError(w, initTime, err, "Failed to fetch message")
			return
		}

		common.RespondSuccess(w, initTime, "Message fetched", responses.FromMessage(msg))
	}
}

// GetReplies handles GET /api/v1/messages/{id}/replies
func (h *Handlers) GetReplies() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()
		p, ok := principal(w, r, initTime)
		if !ok {
			return
		}

		msg, err := h.accessibleMessage(r, p.UserID)
		if err != nil {
			common.RespondError(w, initTime, err, "Failed to fetch replies")
			return
		}

		replies, err := h.deps.Services.Messages.GetReplies(r.Context(), msg.ID)
		if err != nil {
			common.RespondError(w, initTime, err, "Failed to fetch replies")
			return
		}

		common.RespondSuccess(w, initTime, "Replies fetched", responses.FromMessages(replies))
	}
}

// UpdateMessage handles PUT /api/v1/messages/{id}. Authors only.
func (h *Handlers) UpdateMessage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()
		p, ok := principal(w, r, initTime)
		if !ok {
			return
		}

		var req requests.UpdateMessageRequest
		if err := decodeRequest(r, &req); err != nil {
			common.RespondError(w, initTime, err, "Invalid message payload")
			return
		}

		msg, err := h.messageParam(r)
		if err == nil {
			msg, err = h.deps.Services.Messages.UpdateMessage(r.Context(), msg.ID, p.UserID, req.Content, req.Metadata)
		}
		if err != nil {
			common.RespondError(w, initTime, err, "Failed to update message")
			return
		}

		common.RespondSuccess(w, initTime, "Message updated", responses.FromMessage(msg))
	}
}

// DeleteMessage handles DELETE /api/v1/messages/{id}. Authors only; the
// message is soft deleted.
func (h *Handlers) DeleteMessage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()
		p, ok := principal(w, r, initTime)
		if !ok {
			return
		}

		msg, err := h.messageParam(r)
		if err == nil {
			err = h.deps.Services.Messages.DeleteMessage(r.Context(), msg.ID, p.UserID)
		}
		if err != nil {
			common.RespondError(w, initTime, err, "Failed to delete message")
			return
		}

		common.RespondSuccess(w, initTime, "Message deleted", nil)
	}
}
