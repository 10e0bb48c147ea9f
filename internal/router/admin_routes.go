package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/cinema-booking/internal/config"
	"github.com/iliyamo/cinema-booking/internal/middleware"
	"github.com/iliyamo/cinema-booking/internal/service"
)

// RegisterAdmin registers catalog writes, scheduling and back-office
// reads. Each route names the capability it needs.
func RegisterAdmin(e *echo.Echo, h Handlers, cfg *config.Config, rdb *redis.Client) {
	g := e.Group("/v1", middleware.JWTAuth(cfg.JWTSecret), middleware.NewTokenBucket(cfg.RateLimit, rdb))
	purge := middleware.PurgeCacheOnWrite(cfg.Cache, rdb)
	can := middleware.RequireCapability

	// ---- Rooms ----
	g.POST("/rooms", h.Catalog.CreateRoom, can(service.ResRooms, service.ActCreate), purge)
	g.PATCH("/rooms/:id", h.Catalog.UpdateRoom, can(service.ResRooms, service.ActUpdate), purge)
	g.DELETE("/rooms/:id", h.Catalog.DeleteRoom, can(service.ResRooms, service.ActDelete), purge)

	// ---- Movies ----
	g.POST("/movies", h.Catalog.CreateMovie, can(service.ResMovies, service.ActCreate), purge)
	g.PATCH("/movies/:id", h.Catalog.UpdateMovie, can(service.ResMovies, service.ActUpdate), purge)
	g.DELETE("/movies/:id", h.Catalog.DeleteMovie, can(service.ResMovies, service.ActDelete), purge)

	// ---- Sessions ----
	g.POST("/sessions", h.Sessions.Create, can(service.ResSessions, service.ActCreate), purge)
	g.PATCH("/sessions/:id", h.Sessions.Update, can(service.ResSessions, service.ActUpdate), purge)
	g.DELETE("/sessions/:id", h.Sessions.Delete, can(service.ResSessions, service.ActDelete), purge)

	// ---- Back office ----
	g.GET("/users", h.Users.List, can(service.ResUsers, service.ActList))
	g.GET("/transactions", h.Transactions.List, can(service.ResTransactions, service.ActList))
	g.GET("/users/:id/ledger/verify", h.Transactions.Verify, can(service.ResTransactions, service.ActVerify))
	g.GET("/statistics", h.Statistics.Totals, can(service.ResStatistics, service.ActRead))
	g.GET("/statistics/realtime", h.Statistics.Realtime, can(service.ResStatistics, service.ActRead))
}
