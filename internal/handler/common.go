package handler // handler defines http handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"github.com/iliyamo/cinema-booking/internal/model"
	"github.com/iliyamo/cinema-booking/internal/service"
)

// errorBody is the JSON envelope for every rejection.
type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	SessionID string `json:"session_id,omitempty"`
}

func statusFor(k service.Kind) int {
	switch k {
	case service.KindNotFound:
		return http.StatusNotFound
	case service.KindForbidden:
		return http.StatusForbidden
	case service.KindUnexpected:
		return http.StatusInternalServerError
	}
	return http.StatusBadRequest
}

// fail renders err. Business-rule rejections keep their code and
// message; anything else is logged and rendered as INTERNAL.
func fail(c echo.Context, err error) error {
	var se *service.Error
	if errors.As(err, &se) {
		return c.JSON(statusFor(se.Kind), errorBody{Error: errorDetail{Code: se.Code, Message: se.Message, SessionID: se.SessionID}})
	}
	log.WithError(err).WithFields(log.Fields{
		"method": c.Request().Method,
		"path":   c.Path(),
	}).Error("unexpected error")
	return c.JSON(http.StatusInternalServerError, errorBody{Error: errorDetail{Code: "INTERNAL", Message: "internal server error"}})
}

func badRequest(c echo.Context, msg string) error {
	return fail(c, service.Invalid(msg))
}

func unauthorized(c echo.Context, msg string) error {
	return c.JSON(http.StatusUnauthorized, errorBody{Error: errorDetail{Code: "UNAUTHORIZED", Message: msg}})
}

// bind decodes the request body into dst and rejects malformed JSON,
// including money fields with more than two decimals.
func bind(c echo.Context, dst any) error {
	if err := c.Bind(dst); err != nil {
		var he *echo.HTTPError
		if errors.As(err, &he) && errors.Is(he.Internal, model.ErrInvalidMoney) {
			return service.ErrInvalidAmount
		}
		if errors.Is(err, model.ErrInvalidMoney) {
			return service.ErrInvalidAmount
		}
		return service.Invalid("invalid request body")
	}
	return nil
}

// Validator plugs the service layer's struct validation into
// echo.Validator so handlers and services report failures alike.
type Validator struct{}

func NewValidator() *Validator { return &Validator{} }

func (Validator) Validate(i any) error { return service.Check(i) }

// ----- response DTOs -----

type roomResp struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Capacity    int       `json:"capacity"`
	Type        string    `json:"type"`
	Disabled    bool      `json:"disabled"`
	Maintenance bool      `json:"maintenance"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toRoom(r *model.Room) roomResp {
	return roomResp{
		ID:          r.ID,
		Name:        r.Name,
		Capacity:    r.Capacity,
		Type:        r.Type,
		Disabled:    r.Disabled,
		Maintenance: r.Maintenance,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

type movieResp struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Duration  int       `json:"duration"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toMovie(m *model.Movie) movieResp {
	return movieResp{ID: m.ID, Name: m.Name, Duration: m.Duration, CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt}
}

type userResp struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Forname   string      `json:"forname"`
	Email     string      `json:"email"`
	Role      model.Role  `json:"role"`
	Balance   model.Money `json:"balance"`
	CreatedAt time.Time   `json:"created_at"`
}

func toUser(u *model.User) userResp {
	return userResp{
		ID:        u.ID,
		Name:      u.Name,
		Forname:   u.Forname,
		Email:     u.Email,
		Role:      u.Role,
		Balance:   u.Balance,
		CreatedAt: u.CreatedAt,
	}
}

type transactionResp struct {
	ID        string                `json:"id"`
	UserID    string                `json:"user_id"`
	Type      model.TransactionType `json:"type"`
	Amount    model.Money           `json:"amount"`
	Balance   model.Money           `json:"balance"`
	CreatedAt time.Time             `json:"created_at"`
}

func toTransaction(t *model.Transaction) transactionResp {
	return transactionResp{ID: t.ID, UserID: t.UserID, Type: t.Type, Amount: t.Amount, Balance: t.Balance, CreatedAt: t.CreatedAt}
}

func toTransactions(ts []model.Transaction) []transactionResp {
	out := make([]transactionResp, 0, len(ts))
	for i := range ts {
		out = append(out, toTransaction(&ts[i]))
	}
	return out
}

type superticketResp struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	RemainingUses int       `json:"remaining_uses"`
	TransactionID string    `json:"transaction_id"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func toSuperticket(s *model.Superticket) superticketResp {
	return superticketResp{ID: s.ID, UserID: s.UserID, RemainingUses: s.RemainingUses, TransactionID: s.TransactionID, UpdatedAt: s.UpdatedAt}
}
