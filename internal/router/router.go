// Package router wires handlers and middleware onto the echo instance.
// Routes are grouped by audience: public reads, signed-in users and
// admins.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/cinema-booking/internal/config"
	"github.com/iliyamo/cinema-booking/internal/handler"
	"github.com/iliyamo/cinema-booking/internal/middleware"
)

// Handlers bundles every HTTP handler the router mounts.
type Handlers struct {
	Health       *handler.HealthHandler
	Auth         *handler.AuthHandler
	Catalog      *handler.CatalogHandler
	Sessions     *handler.SessionHandler
	Purchases    *handler.PurchaseHandler
	Users        *handler.UserHandler
	Transactions *handler.TransactionHandler
	Statistics   *handler.StatisticsHandler
}

// New builds the echo instance with global middleware and every route.
// rdb may be nil, in which case caching and rate limiting are off.
func New(cfg *config.Config, h Handlers, rdb *redis.Client) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()

	e.Use(middleware.RequestLogger())

	// the rate limiter is mounted per group, after the token is read
	RegisterRoutes(e, h.Health)
	RegisterAuth(e, h.Auth, cfg, rdb)
	RegisterPublic(e, h, cfg, rdb)
	RegisterUser(e, h, cfg, rdb)
	RegisterAdmin(e, h, cfg, rdb)
	return e
}

// RegisterRoutes registers routes that do not touch the domain.
func RegisterRoutes(e *echo.Echo, hh *handler.HealthHandler) {
	e.GET("/healthz", hh.Health)
}

// RegisterAuth registers token issuance under /v1/auth and the
// authenticated profile endpoint.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, cfg *config.Config, rdb *redis.Client) {
	limit := middleware.NewTokenBucket(cfg.RateLimit, rdb)
	g := e.Group("/v1/auth", limit)
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh) // rotates the refresh token
	g.POST("/refresh-access", a.RefreshAccess)
	g.POST("/logout", a.Logout)

	e.GET("/v1/me", a.Me, middleware.JWTAuth(cfg.JWTSecret), limit)
}
