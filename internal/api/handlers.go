package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"synq/backend/internal/auth"
	"synq/backend/internal/common"
	"synq/backend/internal/constants"
	"synq/backend/internal/domainerr"
	models "synq/backend/internal/models/gorm"
)

type Handlers struct {
	deps *Dependencies
}

// NewHandlers creates a new handlers instance with injected dependencies
func NewHandlers(deps *Dependencies) *Handlers {
	return &Handlers{
		deps: deps,
	}
}

type validator interface {
	Validate() error
}

// decodeJSON reads the request body into dst.
func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return domainerr.BadRequest("Invalid request body")
	}
	return nil
}

// decodeRequest reads and validates the request body.
func decodeRequest(r *http.Request, dst validator) error {
	if err := decodeJSON(r, dst); err != nil {
		return err
	}
	return dst.Validate()
}

// principal returns the authenticated caller or answers 401 itself.
func principal(w http.ResponseWriter, r *http.Request, initTime time.Time) (*auth.Principal, bool) {
	p := auth.GetPrincipal(r.Context())
	if p == nil {
		common.RespondError(w, initTime, domainerr.Unauthorized(constants.MsgUnauthorized), constants.MsgUnauthorized)
		return nil, false
	}
	return p, true
}

// pageParams reads page and size, clamping size to max so the pagination
// block matches what the service returns.
func pageParams(r *http.Request, max int) (int, int) {
	page, size := common.GetPageParams(r, constants.DefaultPageSize)
	if size > max {
		size = max
	}
	return page, size
}

func (h *Handlers) frequencyParam(r *http.Request) (*models.Frequency, error) {
	return h.deps.Services.Frequencies.GetFrequencyByExternalID(r.Context(), chi.URLParam(r, "id"))
}

func (h *Handlers) userParam(r *http.Request, key string) (*models.User, error) {
	return h.deps.Services.Users.GetUserByExternalID(r.Context(), chi.URLParam(r, key))
}

func (h *Handlers) messageParam(r *http.Request) (*models.Message, error) {
	return h.deps.Services.Messages.GetMessageByExternalID(r.Context(), chi.URLParam(r, "id"))
}

// ensureFrequencyAccess fails with Forbidden unless the frequency is public
// or the user is a member.
func (h *Handlers) ensureFrequencyAccess(ctx context.Context, userID, frequencyID int64) error {
	ok, err := h.deps.Services.Frequencies.CanAccessFrequency(ctx, userID, frequencyID)
	if err != nil {
		return err
	}
	if !ok {
		return domainerr.Forbidden(constants.MsgNotMember)
	}
	return nil
}
