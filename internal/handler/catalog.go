package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-booking/internal/service"
)

// CatalogHandler serves rooms and movies. Reads are public; writes are
// restricted to admins by the router.
type CatalogHandler struct {
	Catalog *service.Catalog
}

func NewCatalogHandler(c *service.Catalog) *CatalogHandler {
	return &CatalogHandler{Catalog: c}
}

// ListRooms handles GET /v1/rooms.
func (h *CatalogHandler) ListRooms(c echo.Context) error {
	rooms, err := h.Catalog.Rooms(c.Request().Context())
	if err != nil {
		return fail(c, err)
	}
	out := make([]roomResp, 0, len(rooms))
	for i := range rooms {
		out = append(out, toRoom(&rooms[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"data": out})
}

// GetRoom handles GET /v1/rooms/:id.
func (h *CatalogHandler) GetRoom(c echo.Context) error {
	rm, err := h.Catalog.Room(c.Request().Context(), c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, toRoom(rm))
}

// CreateRoom handles POST /v1/rooms.
func (h *CatalogHandler) CreateRoom(c echo.Context) error {
	var req service.RoomInput
	if err := bind(c, &req); err != nil {
		return fail(c, err)
	}
	rm, err := h.Catalog.CreateRoom(c.Request().Context(), req)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, toRoom(rm))
}

// UpdateRoom handles PATCH /v1/rooms/:id.
func (h *CatalogHandler) UpdateRoom(c echo.Context) error {
	var req service.RoomPatch
	if err := bind(c, &req); err != nil {
		return fail(c, err)
	}
	rm, err := h.Catalog.UpdateRoom(c.Request().Context(), c.Param("id"), req)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, toRoom(rm))
}

// DeleteRoom handles DELETE /v1/rooms/:id.
func (h *CatalogHandler) DeleteRoom(c echo.Context) error {
	if err := h.Catalog.DeleteRoom(c.Request().Context(), c.Param("id")); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ListMovies handles GET /v1/movies.
func (h *CatalogHandler) ListMovies(c echo.Context) error {
	movies, err := h.Catalog.Movies(c.Request().Context())
	if err != nil {
		return fail(c, err)
	}
	out := make([]movieResp, 0, len(movies))
	for i := range movies {
		out = append(out, toMovie(&movies[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"data": out})
}

// GetMovie handles GET /v1/movies/:id.
func (h *CatalogHandler) GetMovie(c echo.Context) error {
	m, err := h.Catalog.Movie(c.Request().Context(), c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, toMovie(m))
}

// CreateMovie handles POST /v1/movies.
func (h *CatalogHandler) CreateMovie(c echo.Context) error {
	var req service.MovieInput
	if err := bind(c, &req); err != nil {
		return fail(c, err)
	}
	m, err := h.Catalog.CreateMovie(c.Request().Context(), req)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, toMovie(m))
}

// UpdateMovie handles PATCH /v1/movies/:id.
func (h *CatalogHandler) UpdateMovie(c echo.Context) error {
	var req service.MoviePatch
	if err := bind(c, &req); err != nil {
		return fail(c, err)
	}
	m, err := h.Catalog.UpdateMovie(c.Request().Context(), c.Param("id"), req)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, toMovie(m))
}

// DeleteMovie handles DELETE /v1/movies/:id.
func (h *CatalogHandler) DeleteMovie(c echo.Context) error {
	if err := h.Catalog.DeleteMovie(c.Request().Context(), c.Param("id")); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
