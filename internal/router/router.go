// Package router defines how HTTP routes are registered for the API.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/mindscribe/journal-api/internal/config"
	"github.com/mindscribe/journal-api/internal/handler"
	"github.com/mindscribe/journal-api/internal/middleware"
)

// RegisterRoutes registers routes that do not require authentication.
// Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the account endpoints. Register and login are
// unauthenticated and rate-limited; everything else lives behind the
// JWT middleware under /v1.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, rlCfg config.RateLimitConfig, rdb *redis.Client, jwtSecret string) {
	limited := middleware.NewAuthRateLimit(rlCfg, rdb)

	g := e.Group("/v1/auth")
	g.POST("/register", a.Register, limited)
	g.POST("/login", a.Login, limited)
	g.POST("/refresh", a.Refresh)

	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.POST("/auth/logout", a.Logout)
	auth.GET("/me", a.Me)
}

// RegisterSession registers the page-state endpoints: reading the
// current context, the passcode gates, and navigation. The security
// check shares the auth rate limit since it guards a credential.
func RegisterSession(e *echo.Echo, s *handler.SessionHandler, rlCfg config.RateLimitConfig, rdb *redis.Client, jwtSecret string) {
	limited := middleware.NewAuthRateLimit(rlCfg, rdb)

	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.GET("/session", s.Get)
	auth.POST("/session/advance", s.Advance)
	auth.POST("/session/back", s.Back)
	auth.POST("/security-key", s.SetPasscode)
	auth.POST("/security-key/skip", s.SkipPasscode)
	auth.POST("/security-check", s.CheckPasscode, limited)
}

// RegisterJournal registers the entry and streak endpoints.
func RegisterJournal(e *echo.Echo, j *handler.JournalHandler, jwtSecret string) {
	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.POST("/entries", j.Create)
	auth.GET("/entries", j.List)
	auth.GET("/entries/dates", j.Dates)
	auth.DELETE("/entries/:id", j.Delete)
	auth.GET("/streak", j.Streak)
}
