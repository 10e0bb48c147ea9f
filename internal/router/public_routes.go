package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/cinema-booking/internal/config"
	"github.com/iliyamo/cinema-booking/internal/middleware"
)

// RegisterPublic registers browse endpoints. No token is required; a
// valid one identifies the caller so admins can see rooms under
// maintenance. Responses go through the Redis cache.
func RegisterPublic(e *echo.Echo, h Handlers, cfg *config.Config, rdb *redis.Client) {
	g := e.Group("/v1",
		middleware.OptionalJWT(cfg.JWTSecret),
		middleware.NewTokenBucket(cfg.RateLimit, rdb),
		middleware.NewRedisCache(cfg.Cache, rdb),
	)
	g.GET("/rooms", h.Catalog.ListRooms)
	g.GET("/rooms/:id", h.Catalog.GetRoom)
	g.GET("/movies", h.Catalog.ListMovies)
	g.GET("/movies/:id", h.Catalog.GetMovie)
	g.GET("/sessions", h.Sessions.List)
	g.GET("/sessions/:id", h.Sessions.Get)
}
