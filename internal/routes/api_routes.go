package routes

import (
	"github.com/go-chi/chi/v5"

	"synq/backend/internal/api"
	"synq/backend/internal/config"
	"synq/backend/internal/constants"
	"synq/backend/internal/middleware"
)

// RegisterAPIRoutes registers all API v1 routes and handlers
func RegisterAPIRoutes(r chi.Router, authCfg config.AuthConfig, deps *api.Dependencies, handlers *api.Handlers, redeemLimiter *middleware.IPRateLimiter) {

	r.Route("/api/v1", func(v1 chi.Router) {
		v1.Use(middleware.AuthMiddleware(authCfg, deps.Services.Users, deps.Repo.Keys)) // global: all routes must be authenticated

		v1.Get("/roles", handlers.ListRoles())

		v1.Route("/users", func(users chi.Router) {
			// Admin-only group
			users.Group(func(admin chi.Router) {
				admin.Use(middleware.RequireSystemRole(constants.UserRoleAdmin))
				admin.Post("/", handlers.CreateUser())
				admin.Get("/", handlers.ListUsers())
			})

			users.Get("/me", handlers.GetMe())
			users.Get("/username/{username}", handlers.GetUserByUsername())
			users.Get("/{id}", handlers.GetUser())
			users.Put("/{id}", handlers.UpdateUser())
			users.Delete("/{id}", handlers.DeleteUser())
		})

		v1.Route("/frequencies", func(freqs chi.Router) {
			freqs.Post("/", handlers.CreateFrequency())
			freqs.Get("/", handlers.ListFrequencies())
			freqs.Get("/slug/{slug}", handlers.GetFrequencyBySlug())

			freqs.Route("/{id}", func(freq chi.Router) {
				freq.Get("/", handlers.GetFrequency())
				freq.Put("/", handlers.UpdateFrequency())
				freq.Delete("/", handlers.DeleteFrequency())

				freq.Post("/members", handlers.JoinFrequency())
				freq.Get("/members", handlers.ListMembers())
				freq.Delete("/members/me", handlers.LeaveFrequency())
				freq.Put("/members/{userID}/role", handlers.UpdateMemberRole())
				freq.Put("/members/{userID}/ban", handlers.BanMember())
				freq.Put("/members/{userID}/mute", handlers.MuteMember())

				freq.Post("/messages", handlers.PostMessage())
				freq.Get("/messages", handlers.ListMessages())

				freq.Post("/invites", handlers.CreateInvite())
				freq.Get("/invites", handlers.ListInvites())
			})
		})

		v1.Route("/messages/{id}", func(msg chi.Router) {
			msg.Get("/", handlers.GetMessage())
			msg.Put("/", handlers.UpdateMessage())
			msg.Delete("/", handlers.DeleteMessage())
			msg.Get("/replies", handlers.GetReplies())
		})

		v1.With(redeemLimiter.Middleware).Post("/invites/{token}/redeem", handlers.RedeemInvite())
		v1.Delete("/invites/{id}", handlers.DeleteInvite())
	})
}
