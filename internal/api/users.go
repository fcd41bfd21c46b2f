package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"synq/backend/internal/auth"
	"synq/backend/internal/common"
	"synq/backend/internal/constants"
	"synq/backend/internal/domainerr"
	"synq/backend/internal/models/dtos"
	"synq/backend/internal/models/dtos/requests"
	"synq/backend/internal/models/dtos/responses"
	models "synq/backend/internal/models/gorm"
	"synq/backend/internal/services"
)

// userView returns the full profile to the user themself and to admins,
// and only the public summary to everyone else.
func userView(p *auth.Principal, u *models.User) any {
	if p.UserID == u.ID || p.IsAdmin() {
		return responses.FromUser(u)
	}
	return responses.SummarizeUser(u)
}

// selfOrAdmin resolves {id} and fails unless it is the caller or the caller
// is an administrator.
func (h *Handlers) selfOrAdmin(r *http.Request, p *auth.Principal) (*models.User, error) {
	user, err := h.userParam(r, "id")
	if err != nil {
		return nil, err
	}
	if user.ID != p.UserID && !p.IsAdmin() {
		return nil, domainerr.Forbidden("Only the user or an administrator can do this")
	}
	return user, nil
}

// CreateUser handles POST /api/v1/users
//
// @Summary      Create a user
// @Description  Creates a local user and mirrors it to the identity provider. Administrators only.
// @Tags         Users
// @Accept       json
// @Produce      json
// @Param        input  body  requests.CreateUserRequest  true  "User"
// @Success      201  {object}  dtos.APIResponse
// @Failure      400  {object}  dtos.APIResponse
// @Failure      409  {object}  dtos.APIResponse
// @Router       /api/v1/users [post]
func (h *Handlers) CreateUser() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()

		var req requests.CreateUserRequest
		if err := decodeRequest(r, &req); err != nil {
			common.RespondError(w, initTime, err, "Invalid user payload")
			return
		}

		user, err := h.deps.Services.Users.CreateUser(r.Context(), services.CreateUserInput{
			Username:    req.Username,
			Email:       req.Email,
			Password:    req.Password,
			DisplayName: req.DisplayName,
			AvatarURL:   req.AvatarURL,
			Roles:       req.Roles,
			Metadata:    req.Metadata,
		})
		if err != nil {
			common.RespondError(w, initTime, err, "Failed to create user")
			return
		}

		common.RespondSuccess(w, initTime, "User created", responses.FromUser(user), http.StatusCreated)
	}
}

// ListUsers handles GET /api/v1/users?page=&size=
//
// @Summary      List users
// @Tags         Users
// @Produce      json
// @Success      200  {object}  dtos.APIResponse
// @Router       /api/v1/users [get]
func (h *Handlers) ListUsers() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()
		page, size := pageParams(r, constants.MaxPageSize)

		users, total, err := h.deps.Services.Users.ListUsers(r.Context(), page, size)
		if err != nil {
			common.RespondError(w, initTime, err, "Failed to list users")
			return
		}

		common.RespondPage(w, initTime, "Users fetched", responses.FromUsers(users), dtos.NewPagination(page, size, total))
	}
}

// GetMe handles GET /api/v1/users/me
func (h *Handlers) GetMe() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()
		p, ok := principal(w, r, initTime)
		if !ok {
			return
		}

		user, err := h.deps.Services.Users.GetUser(r.Context(), p.UserID)
		if err != nil {
			common.RespondError(w, initTime, err, "Failed to fetch user")
			return
		}

		common.RespondSuccess(w, initTime, "User fetched", responses.FromUser(user))
	}
}

// GetUser handles GET /api/v1/users/{id}
func (h *Handlers) GetUser() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()
		p, ok := principal(w, r, initTime)
		if !ok {
			return
		}

		user, err := h.userParam(r, "id")
		if err != nil {
			common.RespondError(w, initTime, err, "Failed to fetch user")
			return
		}

		common.RespondSuccess(w, initTime, "User fetched", userView(p, user))
	}
}

// GetUserByUsername handles GET /api/v1/users/username/{username}
func (h *Handlers) GetUserByUsername() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()
		p, ok := principal(w, r, initTime)
		if !ok {
			return
		}

		user, err := h.deps.Services.Users.GetUserByUsername(r.Context(), chi.URLParam(r, "username"))
		if err != nil {
			common.RespondError(w, initTime, err, "Failed to fetch user")
			return
		}

		common.RespondSuccess(w, initTime, "User fetched", userView(p, user))
	}
}

// UpdateUser handles PUT /api/v1/users/{id}
//
// @Summary      Update a user
// @Description  Partial update. Roles, status and email verification can only be changed by administrators.
// @Tags         Users
// @Accept       json
// @Produce      json
// @Param        id     path  string                      true  "User ID"
// @Param        input  body  requests.UpdateUserRequest  true  "Changes"
// @Success      200  {object}  dtos.APIResponse
// @Failure      403  {object}  dtos.APIResponse
// @Router       /api/v1/users/{id} [put]
func (h *Handlers) UpdateUser() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()
		p, ok := principal(w, r, initTime)
		if !ok {
			return
		}

		target, err := h.selfOrAdmin(r, p)
		if err != nil {
			common.RespondError(w, initTime, err, "Failed to update user")
			return
		}

		var req requests.UpdateUserRequest
		if err := decodeRequest(r, &req); err != nil {
			common.RespondError(w, initTime, err, "Invalid user payload")
			return
		}

		privileged := req.Roles != nil || req.Status != nil || req.EmailVerified != nil
		if privileged && !p.IsAdmin() {
			common.RespondError(w, initTime, domainerr.Forbidden("Only administrators can change roles or status"), "Forbidden")
			return
		}

		user, err := h.deps.Services.Users.UpdateUser(r.Context(), target.ID, services.UpdateUserInput{
			Email:         req.Email,
			DisplayName:   req.DisplayName,
			AvatarURL:     req.AvatarURL,
			EmailVerified: req.EmailVerified,
			Status:        req.Status,
			Roles:         req.Roles,
			Metadata:      req.Metadata,
		})
		if err != nil {
			common.RespondError(w, initTime, err, "Failed to update user")
			return
		}

		common.RespondSuccess(w, initTime, "User updated", responses.FromUser(user))
	}
}

// DeleteUser handles DELETE /api/v1/users/{id}
func (h *Handlers) DeleteUser() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()
		p, ok := principal(w, r, initTime)
		if !ok {
			return
		}

		target, err := h.selfOrAdmin(r, p)
		if err != nil {
			common.RespondError(w, initTime, err, "Failed to delete user")
			return
		}

		if err := h.deps.Services.Users.DeleteUser(r.Context(), target.ID); err != nil {
			common.RespondError(w, initTime, err, "Failed to delete user")
			return
		}

		common.RespondSuccess(w, initTime, "User deleted", nil)
	}
}

// ListRoles handles GET /api/v1/roles
func (h *Handlers) ListRoles() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()

		roles, err := h.deps.Services.Roles.ListRoles(r.Context())
		if err != nil {
			common.RespondError(w, initTime, err, "Failed to list roles")
			return
		}

		common.RespondSuccess(w, initTime, "Roles fetched", responses.FromRoles(roles))
	}
}
