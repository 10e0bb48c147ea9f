package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/cinema-booking/internal/config"
	"github.com/iliyamo/cinema-booking/internal/middleware"
	"github.com/iliyamo/cinema-booking/internal/service"
)

// RegisterUser registers endpoints for any signed-in user. Handlers
// check ownership for the /users/:id routes; admins pass those checks
// for every account.
func RegisterUser(e *echo.Echo, h Handlers, cfg *config.Config, rdb *redis.Client) {
	g := e.Group("/v1", middleware.JWTAuth(cfg.JWTSecret), middleware.NewTokenBucket(cfg.RateLimit, rdb))
	purge := middleware.PurgeCacheOnWrite(cfg.Cache, rdb)

	// purchases change seat availability shown by the cached listings
	g.POST("/sessions/:id/buy", h.Purchases.BuyForSession, purge)
	g.POST("/tickets", h.Purchases.BuyTicket, purge)
	g.POST("/supertickets", h.Purchases.BuySuperticket)
	g.POST("/transactions", h.Transactions.Create)

	g.GET("/users/:id", h.Users.Get)
	g.PATCH("/users/:id", h.Users.Update)
	g.DELETE("/users/:id", h.Users.Delete, purge)
	g.GET("/users/:id/tickets", h.Purchases.ListTickets)
	g.GET("/users/:id/superticket", h.Purchases.GetSuperticket)
	g.GET("/users/:id/transactions", h.Transactions.ListForUser)

	// role changes are checked again by the service for SUPERADMIN
	g.PATCH("/users/:id/role", h.Users.SetRole, middleware.RequireCapability(service.ResUsers, service.ActSetRole))
}
