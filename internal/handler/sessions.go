package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-booking/internal/middleware"
	"github.com/iliyamo/cinema-booking/internal/model"
	"github.com/iliyamo/cinema-booking/internal/repository"
	"github.com/iliyamo/cinema-booking/internal/service"
)

// SessionHandler exposes the session scheduler.
type SessionHandler struct {
	Scheduler *service.Scheduler
}

func NewSessionHandler(s *service.Scheduler) *SessionHandler {
	return &SessionHandler{Scheduler: s}
}

type createSessionReq struct {
	RoomID  string      `json:"room_id"`
	MovieID string      `json:"movie_id"`
	Start   string      `json:"start"`
	Price   model.Money `json:"price"`
}

type updateSessionReq struct {
	RoomID  *string      `json:"room_id"`
	MovieID *string      `json:"movie_id"`
	Start   *string      `json:"start"`
	Price   *model.Money `json:"price"`
}

// List handles GET /v1/sessions.
// time: "upcoming" (default), "active" (ends_at >= now), "any" (no time filter).
// Sessions in rooms under maintenance are hidden unless an admin asks
// for them with include_maintenance=true.
func (h *SessionHandler) List(c echo.Context) error {
	timeFilter := strings.ToLower(strings.TrimSpace(c.QueryParam("time")))
	if timeFilter == "" {
		timeFilter = "upcoming"
	}

	page, _ := strconv.Atoi(c.QueryParam("page"))
	if page < 1 {
		page = 1
	}
	ps, _ := strconv.Atoi(c.QueryParam("page_size"))
	if ps < 1 {
		ps = 20
	}
	if ps > 100 {
		ps = 100
	}

	q := repository.SessionSearchQuery{
		RoomID:     strings.TrimSpace(c.QueryParam("room_id")),
		MovieID:    strings.TrimSpace(c.QueryParam("movie_id")),
		Movie:      strings.TrimSpace(c.QueryParam("movie")),
		TimeFilter: timeFilter,
		Page:       page,
		PageSize:   ps,
	}
	if c.QueryParam("include_maintenance") == "true" && service.Can(middleware.Role(c), service.ResRooms, service.ActUpdate) {
		q.IncludeMaintenance = true
	}

	items, total, err := h.Scheduler.List(c.Request().Context(), q)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"data":      items,
		"total":     total,
		"page":      page,
		"page_size": ps,
	})
}

// Get handles GET /v1/sessions/:id.
func (h *SessionHandler) Get(c echo.Context) error {
	row, err := h.Scheduler.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, row)
}

// Create handles POST /v1/sessions.
func (h *SessionHandler) Create(c echo.Context) error {
	var req createSessionReq
	if err := bind(c, &req); err != nil {
		return fail(c, err)
	}
	if req.RoomID == "" || req.MovieID == "" {
		return badRequest(c, "room_id and movie_id are required")
	}
	row, err := h.Scheduler.Create(c.Request().Context(), service.CreateSessionInput{
		RoomID:  req.RoomID,
		MovieID: req.MovieID,
		Start:   req.Start,
		Price:   req.Price,
	})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, row)
}

// Update handles PATCH /v1/sessions/:id.
func (h *SessionHandler) Update(c echo.Context) error {
	var req updateSessionReq
	if err := bind(c, &req); err != nil {
		return fail(c, err)
	}
	row, err := h.Scheduler.Update(c.Request().Context(), c.Param("id"), service.UpdateSessionInput{
		RoomID:  req.RoomID,
		MovieID: req.MovieID,
		Start:   req.Start,
		Price:   req.Price,
	})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, row)
}

// Delete handles DELETE /v1/sessions/:id.
func (h *SessionHandler) Delete(c echo.Context) error {
	if err := h.Scheduler.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
