package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-booking/internal/repository"
)

// StatisticsHandler serves the admin dashboards.
type StatisticsHandler struct {
	Stats *repository.StatsRepo
}

func NewStatisticsHandler(s *repository.StatsRepo) *StatisticsHandler {
	return &StatisticsHandler{Stats: s}
}

// parseBound accepts an RFC 3339 timestamp or a plain date. Empty means
// unbounded.
func parseBound(raw string) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, true
	}
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t.UTC(), true
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t.UTC(), true
	}
	return time.Time{}, false
}

// Totals handles GET /v1/statistics?start_date=&end_date=.
// A plain end_date covers the whole day.
func (h *StatisticsHandler) Totals(c echo.Context) error {
	from, ok := parseBound(c.QueryParam("start_date"))
	if !ok {
		return badRequest(c, "start_date must be a date or ISO-8601 timestamp")
	}
	rawEnd := c.QueryParam("end_date")
	to, ok := parseBound(rawEnd)
	if !ok {
		return badRequest(c, "end_date must be a date or ISO-8601 timestamp")
	}
	if len(rawEnd) == len("2006-01-02") {
		to = to.Add(24*time.Hour - time.Nanosecond)
	}
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		return badRequest(c, "end_date is before start_date")
	}
	out, err := h.Stats.Totals(c.Request().Context(), from, to)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

// Realtime handles GET /v1/statistics/realtime.
func (h *StatisticsHandler) Realtime(c echo.Context) error {
	out, err := h.Stats.Realtime(c.Request().Context(), time.Now())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
