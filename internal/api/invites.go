package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"synq/backend/internal/common"
	"synq/backend/internal/constants"
	"synq/backend/internal/domainerr"
	"synq/backend/internal/models/dtos/requests"
	"synq/backend/internal/models/dtos/responses"
	"synq/backend/internal/services"
)

// CreateInvite handles POST /api/v1/frequencies/{id}/invites
//
// @Summary      Create an invite
// @Description  Any member can invite; the granted role cannot exceed the inviter's own.
// @Tags         Invites
// @Accept       json
// @Produce      json
// @Param        id     path  string                        true   "Frequency ID"
// @Param        input  body  requests.CreateInviteRequest  false  "Invite options"
// @Success      201  {object}  dtos.APIResponse
// @Failure      403  {object}  dtos.APIResponse
// @Router       /api/v1/frequencies/{id}/invites [post]
func (h *Handlers) CreateInvite() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()
		p, ok := principal(w, r, initTime)
		if !ok {
			return
		}

		var req requests.CreateInviteRequest
		if r.ContentLength != 0 {
			if err := decodeRequest(r, &req); err != nil {
				common.RespondError(w, initTime, err, "Invalid invite payload")
				return
			}
		}

		freq, err := h.frequencyParam(r)
		if err != nil {
			common.RespondError(w, initTime, err, "Failed to create invite")
			return
		}

		if req.RoleOnJoin != nil {
			inviter, err := h.deps.Services.Memberships.RequireRole(r.Context(), p.UserID, freq.ID, constants.MembershipGuest)
			if err != nil {
				common.RespondError(w, initTime, err, "Failed to create invite")
				return
			}
			if req.RoleOnJoin.Outranks(inviter.Role) {
				common.RespondError(w, initTime, domainerr.Forbidden(constants.MsgInsufficientRole), "Forbidden")
				return
			}
		}

		invite, err := h.deps.Services.Invites.CreateInvite(r.Context(), services.CreateInviteInput{
			FrequencyID: freq.ID,
			InviterID:   p.UserID,
			ExpiresAt:   req.ExpiresAt,
			MaxUses:     req.MaxUses,
			RoleOnJoin:  req.RoleOnJoin,
		})
		if err != nil {
			common.RespondError(w, initTime, err, "Failed to create invite")
			return
		}

		common.RespondSuccess(w, initTime, "Invite created", responses.FromInvite(invite), http.StatusCreated)
	}
}

// ListInvites handles GET /api/v1/frequencies/{id}/invites. Moderators and
// owners only.
func (h *Handlers) ListInvites() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()
		p, ok := principal(w, r, initTime)
		if !ok {
			return
		}

		freq, err := h.frequencyParam(r)
		if err == nil {
			_, err = h.deps.Services.Memberships.RequireRole(r.Context(), p.UserID, freq.ID, constants.MembershipModerator)
		}
		if err != nil {
			common.RespondError(w, initTime, err, "Failed to list invites")
			return
		}

		invites, err := h.deps.Services.Invites.ListInvitesByFrequency(r.Context(), freq.ID)
		if err != nil {
			common.RespondError(w, initTime, err, "Failed to list invites")
			return
		}

		common.RespondSuccess(w, initTime, "Invites fetched", responses.FromInvites(invites))
	}
}

// RedeemInvite handles POST /api/v1/invites/{token}/redeem
//
// @Summary      Redeem an invite
// @Description  Joins the caller to the invite's frequency with the invite's role.
// @Tags         Invites
// @Produce      json
// @Param        token  path  string  true  "Invite token"
// @Success      201  {object}  dtos.APIResponse
// @Failure      400  {object}  dtos.APIResponse
// @Failure      409  {object}  dtos.APIResponse
// @Failure      429  {object}  dtos.APIResponse
// @Router       /api/v1/invites/{token}/redeem [post]
func (h *Handlers) RedeemInvite() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()
		p, ok := principal(w, r, initTime)
		if !ok {
			return
		}

		membership, err := h.deps.Services.Invites.RedeemInvite(r.Context(), chi.URLParam(r, "token"), p.UserID)
		if err != nil {
			common.RespondError(w, initTime, err, "Failed to redeem invite")
			return
		}

		common.RespondSuccess(w, initTime, "Invite redeemed", responses.FromMembership(membership), http.StatusCreated)
	}
}

// DeleteInvite handles DELETE /api/v1/invites/{id}. The inviter can always
// revoke their invite; anyone else needs to moderate the frequency.
func (h *Handlers) DeleteInvite() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()
		p, ok := principal(w, r, initTime)
		if !ok {
			return
		}

		invite, err := h.deps.Services.Invites.GetInviteByExternalID(r.Context(), chi.URLParam(r, "id"))
		if err == nil && invite.InviterID != p.UserID {
			_, err = h.deps.Services.Memberships.RequireRole(r.Context(), p.UserID, invite.FrequencyID, constants.MembershipModerator)
		}
		if err == nil {
			err = h.deps.Services.Invites.DeleteInvite(r.Context(), invite.ID)
		}
		if err != nil {
			common.RespondError(w, initTime, err, "Failed to delete invite")
			return
		}

		common.RespondSuccess(w, initTime, "Invite deleted", nil)
	}
}
