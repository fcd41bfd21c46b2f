package middleware

import (
	"net/http"
	"time"

	"synq/backend/internal/auth"
	"synq/backend/internal/common"
	"synq/backend/internal/constants"
	"synq/backend/internal/domainerr"
)

// RequireSystemRole lets the request through when the principal carries any
// of the given system roles.
func RequireSystemRole(roles ...constants.UserRole) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal := auth.GetPrincipal(r.Context())
			if principal == nil {
				common.RespondError(w, time.Now(), domainerr.Unauthorized(constants.MsgUnauthorized), constants.MsgUnauthorized)
				return
			}

			for _, role := range roles {
				if principal.HasSystemRole(role) {
					next.ServeHTTP(w, r)
					return
				}
			}
			common.RespondError(w, time.Now(), domainerr.Forbidden("Forbidden. Missing system role"), constants.MsgUnauthorized)
		})
	}
}
