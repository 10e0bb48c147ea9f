package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-booking/internal/middleware"
	"github.com/iliyamo/cinema-booking/internal/model"
	"github.com/iliyamo/cinema-booking/internal/service"
)

// TransactionHandler exposes the wallet ledger.
type TransactionHandler struct {
	Ledger *service.Ledger
}

func NewTransactionHandler(l *service.Ledger) *TransactionHandler {
	return &TransactionHandler{Ledger: l}
}

type transactReq struct {
	Type   model.TransactionType `json:"type"`
	Amount model.Money           `json:"amount"`
}

// Create handles POST /v1/transactions. Only DEPOSIT and WITHDRAW can be
// requested directly; ticket entries are written by the settlement.
func (h *TransactionHandler) Create(c echo.Context) error {
	var req transactReq
	if err := bind(c, &req); err != nil {
		return fail(c, err)
	}
	actor := middleware.CurrentActor(c)
	if err := service.Authorize(actor, service.ResTransactions, service.ActCreate, actor.ID); err != nil {
		return fail(c, err)
	}
	typ := model.TransactionType(strings.ToUpper(strings.TrimSpace(string(req.Type))))
	t, err := h.Ledger.Transact(c.Request().Context(), actor.ID, typ, req.Amount)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, toTransaction(t))
}

// List handles GET /v1/transactions.
func (h *TransactionHandler) List(c echo.Context) error {
	ts, err := h.Ledger.ListAll(c.Request().Context())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": toTransactions(ts)})
}

// ListForUser handles GET /v1/users/:id/transactions.
func (h *TransactionHandler) ListForUser(c echo.Context) error {
	id := c.Param("id")
	if err := service.Authorize(middleware.CurrentActor(c), service.ResTransactions, service.ActRead, id); err != nil {
		return fail(c, err)
	}
	ts, err := h.Ledger.History(c.Request().Context(), id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": toTransactions(ts)})
}

// Verify handles GET /v1/users/:id/ledger/verify.
func (h *TransactionHandler) Verify(c echo.Context) error {
	v, err := h.Ledger.Verify(c.Request().Context(), c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, v)
}
