package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-booking/internal/model"
	"github.com/iliyamo/cinema-booking/internal/service"
)

// context keys set by JWTAuth
const (
	ctxUserID = "user_id"
	ctxRole   = "role"
)

// UserID returns the authenticated user's ID, or "" for anonymous calls.
func UserID(c echo.Context) string {
	s, _ := c.Get(ctxUserID).(string)
	return s
}

// Role returns the authenticated user's role, or "" for anonymous calls.
func Role(c echo.Context) model.Role {
	s, _ := c.Get(ctxRole).(string)
	return model.Role(s)
}

// CurrentActor bundles the caller identity for authorization checks.
func CurrentActor(c echo.Context) service.Actor {
	return service.Actor{ID: UserID(c), Role: Role(c)}
}

// RequireCapability rejects callers whose role may not perform act on
// res. Ownership-dependent checks happen in handlers via
// service.Authorize; routes using this middleware are role-only.
func RequireCapability(res service.Resource, act service.Action) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !service.Can(Role(c), res, act) {
				return c.JSON(http.StatusForbidden, echo.Map{"error": echo.Map{
					"code":    service.ErrForbidden.Code,
					"message": service.ErrForbidden.Message,
				}})
			}
			return next(c)
		}
	}
}
