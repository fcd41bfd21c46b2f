package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"synq/backend/internal/auth"
	"synq/backend/internal/common"
	"synq/backend/internal/config"
	"synq/backend/internal/constants"
	"synq/backend/internal/domainerr"
	"synq/backend/internal/logging"
	models "synq/backend/internal/models/gorm"
)

// lastLoginInterval limits last-login writes to one per user per interval.
const lastLoginInterval = time.Hour

// UserResolver is what authentication needs from the user registry.
type UserResolver interface {
	ProvisionFromExternalIdentity(ctx context.Context, externalID, username, email string) (*models.User, error)
	GetUserByExternalID(ctx context.Context, externalID string) (*models.User, error)
	UpdateLastLogin(ctx context.Context, id int64) error
}

// KeyChecker looks up service API keys.
type KeyChecker interface {
	IsActive(ctx context.Context, key string) (bool, error)
}

// AuthMiddleware resolves the caller into an auth.Principal. End users send
// a bearer token and are provisioned on first sight; trusted services send
// X-API-Key and act for the user named by X-User-ID.
func AuthMiddleware(cfg config.AuthConfig, users UserResolver, keys KeyChecker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			authHeader := r.Header.Get("Authorization")
			apiKey := r.Header.Get("X-API-Key")

			var principal *auth.Principal

			switch {
			case strings.HasPrefix(authHeader, "Bearer "):
				claims, err := auth.ParseBearerToken(strings.TrimPrefix(authHeader, "Bearer "), cfg)
				if err != nil {
					logging.Debug("Rejected bearer token", "error", err)
					common.RespondError(w, start, domainerr.Unauthorized("Unauthorized. Invalid token"), constants.MsgUnauthorized)
					return
				}

				user, err := users.ProvisionFromExternalIdentity(r.Context(), claims.Subject, claims.PreferredUsername, claims.Email)
				if err != nil {
					common.RespondError(w, start, err, constants.MsgInternal)
					return
				}
				touchLastLogin(r.Context(), users, user)
				principal = auth.MakePrincipal(user, constants.RequestSourceJWT)

			case apiKey != "":
				active, err := keys.IsActive(r.Context(), apiKey)
				if err != nil {
					common.RespondError(w, start, err, constants.MsgInternal)
					return
				}
				if !active {
					common.RespondError(w, start, domainerr.Unauthorized("Unauthorized. Invalid API Key"), constants.MsgUnauthorized)
					return
				}

				userID := r.Header.Get("X-User-ID")
				if userID == "" {
					common.RespondError(w, start, domainerr.Unauthorized("Unauthorized. Missing X-User-ID"), constants.MsgUnauthorized)
					return
				}
				user, err := users.GetUserByExternalID(r.Context(), userID)
				if err != nil {
					if errors.Is(err, domainerr.ErrNotFound) {
						err = domainerr.Unauthorized("Unauthorized. Unknown user")
					}
					common.RespondError(w, start, err, constants.MsgUnauthorized)
					return
				}
				principal = auth.MakePrincipal(user, constants.RequestSourceAPIKey)

			default:
				common.RespondError(w, start, domainerr.Unauthorized("Unauthorized. Missing credentials"), constants.MsgUnauthorized)
				return
			}

			ctx := auth.SetPrincipal(r.Context(), principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func touchLastLogin(ctx context.Context, users UserResolver, user *models.User) {
	if user.LastLoginAt != nil && time.Since(*user.LastLoginAt) < lastLoginInterval {
		return
	}
	if err := users.UpdateLastLogin(ctx, user.ID); err != nil {
		logging.Warn("Failed to update last login", "user_id", user.ID, "error", err)
	}
}
