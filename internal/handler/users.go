package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-booking/internal/middleware"
	"github.com/iliyamo/cinema-booking/internal/model"
	"github.com/iliyamo/cinema-booking/internal/service"
)

// UserHandler manages accounts. Users act on themselves; admins on anyone.
type UserHandler struct {
	Users *service.Users
}

func NewUserHandler(u *service.Users) *UserHandler {
	return &UserHandler{Users: u}
}

type roleReq struct {
	Role model.Role `json:"role"`
}

// List handles GET /v1/users.
func (h *UserHandler) List(c echo.Context) error {
	users, err := h.Users.List(c.Request().Context())
	if err != nil {
		return fail(c, err)
	}
	out := make([]userResp, 0, len(users))
	for i := range users {
		out = append(out, toUser(&users[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"data": out})
}

// Get handles GET /v1/users/:id.
func (h *UserHandler) Get(c echo.Context) error {
	id := c.Param("id")
	if err := service.Authorize(middleware.CurrentActor(c), service.ResUsers, service.ActRead, id); err != nil {
		return fail(c, err)
	}
	u, err := h.Users.Get(c.Request().Context(), id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, toUser(u))
}

// Update handles PATCH /v1/users/:id.
func (h *UserHandler) Update(c echo.Context) error {
	id := c.Param("id")
	if err := service.Authorize(middleware.CurrentActor(c), service.ResUsers, service.ActUpdate, id); err != nil {
		return fail(c, err)
	}
	var req service.UserPatch
	if err := bind(c, &req); err != nil {
		return fail(c, err)
	}
	u, err := h.Users.Update(c.Request().Context(), id, req)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, toUser(u))
}

// SetRole handles PATCH /v1/users/:id/role.
func (h *UserHandler) SetRole(c echo.Context) error {
	var req roleReq
	if err := bind(c, &req); err != nil {
		return fail(c, err)
	}
	u, err := h.Users.ChangeRole(c.Request().Context(), middleware.CurrentActor(c), c.Param("id"), req.Role)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, toUser(u))
}

// Delete handles DELETE /v1/users/:id.
func (h *UserHandler) Delete(c echo.Context) error {
	id := c.Param("id")
	if err := service.Authorize(middleware.CurrentActor(c), service.ResUsers, service.ActDelete, id); err != nil {
		return fail(c, err)
	}
	if err := h.Users.Delete(c.Request().Context(), id); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
