package api

import (
	"context"
	"net/http"
	"time"

	"synq/backend/internal/common"
	"synq/backend/internal/constants"
	"synq/backend/internal/domainerr"
	"synq/backend/internal/models/dtos/requests"
	"synq/backend/internal/models/dtos/responses"
	models "synq/backend/internal/models/gorm"
)

const msgInviteRequired = "Private frequencies can only be joined with an invite"

// JoinFrequency handles POST /api/v1/frequencies/{id}/members
//
// @Summary      Join a frequency or add a member
// @Description  Without userId the caller joins as MEMBER; private frequencies need an invite.
// @Description  With userId a moderator or owner adds that user, granting at most their own role.
// @Tags         Members
// @Accept       json
// @Produce      json
// @Param        id     path  string                         true  "Frequency ID"
// @Param        input  body  requests.JoinFrequencyRequest  false "Join options"
// @Success      201  {object}  dtos.APIResponse
// @Failure      403  {object}  dtos.APIResponse
// @Failure      409  {object}  dtos.APIResponse
// @Router       /api/v1/frequencies/{id}/members [post]
func (h *Handlers) JoinFrequency() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()
		p, ok := principal(w, r, initTime)
		if !ok {
			return
		}

		freq, err := h.frequencyParam(r)
		if err != nil {
			common.RespondError(w, initTime, err, "Failed to join frequency")
			return
		}

		var req requests.JoinFrequencyRequest
		if r.ContentLength != 0 {
			if err := decodeRequest(r, &req); err != nil {
				common.RespondError(w, initTime, err, "Invalid join payload")
				return
			}
		}

		userID := p.UserID
		role := req.Role

		if req.UserID == "" || req.UserID == p.ExternalID {
			if freq.IsPrivate {
				common.RespondError(w, initTime, domainerr.Forbidden(msgInviteRequired), "Forbidden")
				return
			}
			role = nil
		} else {
			target, err := h.addableUser(r.Context(), p.UserID, freq.ID, req)
			if err != nil {
				common.RespondError(w, initTime, err, "Failed to add member")
				return
			}
			userID = target.ID
		}

		membership, err := h.deps.Services.Memberships.JoinFrequency(r.Context(), userID, freq.ID, role, req.Nickname)
		if err != nil {
			common.RespondError(w, initTime, err, "Failed to join frequency")
			return
		}

		common.RespondSuccess(w, initTime, "Joined frequency", responses.FromMembership(membership), http.StatusCreated)
	}
}

// addableUser checks that the actor may add req.UserID with req.Role and
// resolves the user.
func (h *Handlers) addableUser(ctx context.Context, actorID, frequencyID int64, req requests.JoinFrequencyRequest) (*models.User, error) {
	actor, err := h.deps.Services.Memberships.RequireRole(ctx, actorID, frequencyID, constants.MembershipModerator)
	if err != nil {
		return nil, err
	}
	if req.Role != nil && req.Role.Outranks(actor.Role) {
		return nil, domainerr.Forbidden(constants.MsgInsufficientRole)
	}
	return h.deps.Services.Users.GetUserByExternalID(ctx, req.UserID)
}

// ListMembers handles GET /api/v1/frequencies/{id}/members
func (h *Handlers) ListMembers() http.HandlerFunc {
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
			common.RespondError(w, initTime, err, "Failed to list members")
			return
		}

		members, err := h.deps.Services.Memberships.ListByFrequency(r.Context(), freq.ID)
		if err != nil {
			common.RespondError(w, initTime, err, "Failed to list members")
			return
		}

		common.RespondSuccess(w, initTime, "Members fetched", responses.FromMemberships(members))
	}
}

// LeaveFrequency handles DELETE /api/v1/frequencies/{id}/members/me
func (h *Handlers) LeaveFrequency() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()
		p, ok := principal(w, r, initTime)
		if !ok {
			return
		}

		freq, err := h.frequencyParam(r)
		if err == nil {
			err = h.deps.Services.Memberships.LeaveFrequency(r.Context(), p.UserID, freq.ID)
		}
		if err != nil {
			common.RespondError(w, initTime, err, "Failed to leave frequency")
			return
		}

		common.RespondSuccess(w, initTime, "Left frequency", nil)
	}
}

// UpdateMemberRole handles PUT /api/v1/frequencies/{id}/members/{userID}/role.
// Owners only.
func (h *Handlers) UpdateMemberRole() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()
		p, ok := principal(w, r, initTime)
		if !ok {
			return
		}

		var req requests.UpdateRoleRequest
		if err := decodeRequest(r, &req); err != nil {
			common.RespondError(w, initTime, err, "Invalid role payload")
			return
		}

		freq, err := h.frequencyParam(r)
		if err == nil {
			_, err = h.deps.Services.Memberships.RequireRole(r.Context(), p.UserID, freq.ID, constants.MembershipOwner)
		}
		if err != nil {
			common.RespondError(w, initTime, err, "Failed to change role")
			return
		}

		target, err := h.userParam(r, "userID")
		if err != nil {
			common.RespondError(w, initTime, err, "Failed to change role")
			return
		}

		membership, err := h.deps.Services.Memberships.UpdateMembershipRole(r.Context(), target.ID, freq.ID, req.Role)
		if err != nil {
			common.RespondError(w, initTime, err, "Failed to change role")
			return
		}

		common.RespondSuccess(w, initTime, "Role updated", responses.FromMembership(membership))
	}
}

// BanMember handles PUT /api/v1/frequencies/{id}/members/{userID}/ban
func (h *Handlers) BanMember() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()

		var req requests.BanRequest
		if err := decodeJSON(r, &req); err != nil {
			common.RespondError(w, initTime, err, "Invalid ban payload")
			return
		}

		h.moderate(w, r, initTime, func(ctx context.Context, userID, frequencyID int64) (*models.Membership, error) {
			return h.deps.Services.Memberships.ToggleBan(ctx, userID, frequencyID, req.Banned)
		})
	}
}

// MuteMember handles PUT /api/v1/frequencies/{id}/members/{userID}/mute.
// A null until lifts the mute.
func (h *Handlers) MuteMember() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()

		var req requests.MuteRequest
		if err := decodeJSON(r, &req); err != nil {
			common.RespondError(w, initTime, err, "Invalid mute payload")
			return
		}

		h.moderate(w, r, initTime, func(ctx context.Context, userID, frequencyID int64) (*models.Membership, error) {
			return h.deps.Services.Memberships.MuteMember(ctx, userID, frequencyID, req.Until)
		})
	}
}

// moderate runs a moderation action after checking that the caller is at
// least a moderator and strictly outranks the target member.
func (h *Handlers) moderate(w http.ResponseWriter, r *http.Request, initTime time.Time,
	action func(ctx context.Context, userID, frequencyID int64) (*models.Membership, error)) {
	p, ok := principal(w, r, initTime)
	if !ok {
		return
	}
	ctx := r.Context()

	freq, err := h.frequencyParam(r)
	if err != nil {
		common.RespondError(w, initTime, err, "Failed to moderate member")
		return
	}

	actor, err := h.deps.Services.Memberships.RequireRole(ctx, p.UserID, freq.ID, constants.MembershipModerator)
	if err != nil {
		common.RespondError(w, initTime, err, "Failed to moderate member")
		return
	}

	target, err := h.userParam(r, "userID")
	if err != nil {
		common.RespondError(w, initTime, err, "Failed to moderate member")
		return
	}

	targetMembership, err := h.deps.Services.Memberships.GetMembership(ctx, target.ID, freq.ID)
	if err != nil {
		common.RespondError(w, initTime, err, "Failed to moderate member")
		return
	}
	if !actor.Role.Outranks(targetMembership.Role) {
		common.RespondError(w, initTime, domainerr.Forbidden(constants.MsgInsufficientRole), "Forbidden")
		return
	}

	membership, err := action(ctx, target.ID, freq.ID)
	if err != nil {
		common.RespondError(w, initTime, err, "Failed to moderate member")
		return
	}

	common.RespondSuccess(w, initTime, "Member updated", responses.FromMembership(membership))
}
