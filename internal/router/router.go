// Package router wires handlers to routes. Session resolution and the
// CSRF check run on every request; RequireAuth guards the groups that
// need a bound user, and the rate limiter sits on the credential
// endpoints only.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/yeojw/kampung/internal/config"
	"github.com/yeojw/kampung/internal/handler"
	"github.com/yeojw/kampung/internal/middleware"
	"github.com/yeojw/kampung/internal/session"
)

// Handlers bundles every handler the API mounts.
type Handlers struct {
	Auth          *handler.AuthHandler
	Register      *handler.RegisterHandler
	Password      *handler.PasswordHandler
	Profile       *handler.ProfileHandler
	Social        *handler.SocialHandler
	Notifications *handler.NotificationHandler
	Messages      *handler.MessageHandler
	Search        *handler.SearchHandler
	Geocode       *handler.GeocodeHandler
}

// Register mounts all routes on e.
func Register(e *echo.Echo, h Handlers, cfg config.Config, rl config.RateLimitConfig, sessions *session.Manager, rdb *redis.Client) {
	e.GET("/healthz", handler.Health)
	e.Static("/uploads", cfg.UploadDir)

	v1 := e.Group("/v1")
	v1.Use(middleware.WithSession(sessions, cfg.SecureCookies))
	v1.Use(middleware.CSRF())

	limited := middleware.RateLimit(rl, rdb)

	// Anonymous surface: login, signup wizard, password reset.
	v1.POST("/auth/login", h.Auth.Login, limited)
	v1.POST("/auth/logout", h.Auth.Logout)
	v1.GET("/me", h.Auth.Me)

	v1.GET("/register", h.Register.State)
	v1.POST("/register", h.Register.Submit, limited)
	v1.POST("/register/avatar", h.Profile.UploadAvatar)

	v1.POST("/password/forgot", h.Password.Forgot, limited)
	v1.POST("/password/reset", h.Password.ResetPassword, limited)

	// Public reads: profiles, search, geocode, hobby catalogue.
	v1.GET("/users/:username", h.Profile.View)
	v1.GET("/users/:username/followers", h.Social.Followers)
	v1.GET("/users/:username/following", h.Social.Following)
	v1.GET("/search/users", h.Search.SearchUsers)
	v1.GET("/geocode/search", h.Geocode.Search)
	v1.GET("/hobbies", h.Profile.ListHobbies)

	// Everything below needs a bound user.
	auth := v1.Group("", middleware.RequireAuth())
	auth.PUT("/profile", h.Profile.Update)
	auth.POST("/profile/avatar", h.Profile.UploadAvatar)
	auth.POST("/profile/delete", h.Profile.DeleteAccount)
	auth.POST("/password/change", h.Password.Change)

	auth.POST("/users/:username/follow", h.Social.Follow)
	auth.DELETE("/users/:username/follow", h.Social.Unfollow)
	auth.GET("/users/:username/mutuals", h.Social.Mutuals)

	auth.POST("/users/:username/messages", h.Messages.Send)
	auth.GET("/users/:username/messages", h.Messages.Conversation)

	auth.GET("/notifications", h.Notifications.List)
	auth.POST("/notifications/read", h.Notifications.MarkAllRead)
}
