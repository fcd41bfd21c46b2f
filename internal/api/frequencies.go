package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"synq/backend/internal/common"
	"synq/backend/internal/constants"
	"synq/backend/internal/models/dtos"
	"synq/backend/internal/models/dtos/requests"
	"synq/backend/internal/models/dtos/responses"
	"synq/backend/internal/services"
)

// CreateFrequency handles POST /api/v1/frequencies
//
// @Summary      Create a frequency
// @Description  Creates a frequency owned by the caller. The caller becomes its first OWNER.
// @Tags         Frequencies
// @Accept       json
// @Produce      json
// @Param        input  body  requests.CreateFrequencyRequest  true  "Frequency"
// @Success      201  {object}  dtos.APIResponse
// @Failure      400  {object}  dtos.APIResponse
// @Failure      409  {object}  dtos.APIResponse
// @Router       /api/v1/frequencies [post]
func (h *Handlers) CreateFrequency() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()
		p, ok := principal(w, r, initTime)
		if !ok {
			return
		}

		var req requests.CreateFrequencyRequest
		if err := decodeRequest(r, &req); err != nil {
			common.RespondError(w, initTime, err, "Invalid frequency payload")
			return
		}

		freq, err := h.deps.Services.Frequencies.CreateFrequency(r.Context(), services.CreateFrequencyInput{
			Name:            req.Name,
			Slug:            req.Slug,
			Description:     req.Description,
			IsPrivate:       req.IsPrivate,
			MaxParticipants: req.MaxParticipants,
			CoverImageURL:   req.CoverImageURL,
			Settings:        req.Settings,
		}, p.UserID)
		if err != nil {
			common.RespondError(w, initTime, err, "Failed to create frequency")
			return
		}

		common.RespondSuccess(w, initTime, "Frequency created", responses.FromFrequency(freq), http.StatusCreated)
	}
}

// ListFrequencies handles GET /api/v1/frequencies
//
// Without parameters it pages through public frequencies. owner=me lists
// every frequency the caller owns instead.
func (h *Handlers) ListFrequencies() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()
		p, ok := principal(w, r, initTime)
		if !ok {
			return
		}

		if r.URL.Query().Get("owner") == "me" {
			freqs, err := h.deps.Services.Frequencies.ListFrequenciesByOwner(r.Context(), p.UserID)
			if err != nil {
				common.RespondError(w, initTime, err, "Failed to list frequencies")
				return
			}
			common.RespondSuccess(w, initTime, "Frequencies fetched", responses.FromFrequencies(freqs))
			return
		}

		page, size := pageParams(r, constants.MaxPageSize)
		freqs, total, err := h.deps.Services.Frequencies.ListPublicFrequencies(r.Context(), page, size)
		if err != nil {
			common.RespondError(w, initTime, err, "Failed to list frequencies")
			return
		}

		common.RespondPage(w, initTime, "Frequencies fetched", responses.FromFrequencies(freqs), dtos.NewPagination(page, size, total))
	}
}

// GetFrequency handles GET /api/v1/frequencies/{id}
func (h *Handlers) GetFrequency() http.HandlerFunc {
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
			common.RespondError(w, initTime, err, "Failed to fetch frequency")
			return
		}

		common.RespondSuccess(w, initTime, "Frequency fetched", responses.FromFrequency(freq))
	}
}

// GetFrequencyBySlug handles GET /api/v1/frequencies/slug/{slug}
func (h *Handlers) GetFrequencyBySlug() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()
		p, ok := principal(w, r, initTime)
		if !ok {
			return
		}

		freq, err := h.deps.Services.Frequencies.GetFrequencyBySlug(r.Context(), chi.URLParam(r, "slug"))
		if err == nil {
			err = h.ensureFrequencyAccess(r.Context(), p.UserID, freq.ID)
		}
		if err != nil {
			common.RespondError(w, initTime, err, "Failed to fetch frequency")
			return
		}

		common.RespondSuccess(w, initTime, "Frequency fetched", responses.FromFrequency(freq))
	}
}

// UpdateFrequency handles PUT /api/v1/frequencies/{id}. Owners only.
func (h *Handlers) UpdateFrequency() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()
		p, ok := principal(w, r, initTime)
		if !ok {
			return
		}

		freq, err := h.frequencyParam(r)
		if err == nil {
			_, err = h.deps.Services.Memberships.RequireRole(r.Context(), p.UserID, freq.ID, constants.MembershipOwner)
		}
		if err != nil {
			common.RespondError(w, initTime, err, "Failed to update frequency")
			return
		}

		var req requests.UpdateFrequencyRequest
		if err := decodeRequest(r, &req); err != nil {
			common.RespondError(w, initTime, err, "Invalid frequency payload")
			return
		}

		updated, err := h.deps.Services.Frequencies.UpdateFrequency(r.Context(), freq.ID, services.UpdateFrequencyInput{
			Name:            req.Name,
			Description:     req.Description,
			IsPrivate:       req.IsPrivate,
			MaxParticipants: req.MaxParticipants,
			CoverImageURL:   req.CoverImageURL,
			Settings:        req.Settings,
		})
		if err != nil {
			common.RespondError(w, initTime, err, "Failed to update frequency")
			return
		}

		common.RespondSuccess(w, initTime, "Frequency updated", responses.FromFrequency(updated))
	}
}

// DeleteFrequency handles DELETE /api/v1/frequencies/{id}. Owners only.
func (h *Handlers) DeleteFrequency() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()
		p, ok := principal(w, r, initTime)
		if !ok {
			return
		}

		freq, err := h.frequencyParam(r)
		if err == nil {
			_, err = h.deps.Services.Memberships.RequireRole(r.Context(), p.UserID, freq.ID, constants.MembershipOwner)
		}
		if err == nil {
			err = h.deps.Services.Frequencies.DeleteFrequency(r.Context(), freq.ID)
		}
		if err != nil {
			common.RespondError(w, initTime, err, "Failed to delete frequency")
			return
		}

		common.RespondSuccess(w, initTime, "Frequency deleted", nil)
	}
}
