package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-booking/internal/middleware"
	"github.com/iliyamo/cinema-booking/internal/repository"
	"github.com/iliyamo/cinema-booking/internal/service"
)

// PurchaseHandler sells tickets and supertickets. Both ticket endpoints
// run the same settlement.
type PurchaseHandler struct {
	Settlement *service.Settlement
	Ledger     *service.Ledger
}

func NewPurchaseHandler(s *service.Settlement, l *service.Ledger) *PurchaseHandler {
	return &PurchaseHandler{Settlement: s, Ledger: l}
}

type buyReq struct {
	SessionID   string `json:"session_id"`
	SuperTicket bool   `json:"super_ticket"`
}

type purchaseResp struct {
	UserID        string                `json:"user_id"`
	SessionID     string                `json:"session_id"`
	TransactionID string                `json:"transaction_id"`
	SuperticketID *string               `json:"superticket_id"`
	RemainingUses *int                  `json:"remaining_uses,omitempty"`
	CreatedAt     time.Time             `json:"created_at"`
	Session       repository.SessionRow `json:"session"`
	Transaction   transactionResp       `json:"transaction"`
}

func toPurchase(p *service.Purchase) purchaseResp {
	return purchaseResp{
		UserID:        p.Ticket.UserID,
		SessionID:     p.Ticket.SessionID,
		TransactionID: p.Ticket.TransactionID,
		SuperticketID: p.Ticket.SuperticketID,
		RemainingUses: p.RemainingUses,
		CreatedAt:     p.Ticket.CreatedAt,
		Session:       p.Session,
		Transaction:   toTransaction(&p.Transaction),
	}
}

func (h *PurchaseHandler) buy(c echo.Context, sessionID string, super bool) error {
	if sessionID == "" {
		return badRequest(c, "session_id is required")
	}
	actor := middleware.CurrentActor(c)
	if err := service.Authorize(actor, service.ResTickets, service.ActCreate, actor.ID); err != nil {
		return fail(c, err)
	}
	p, err := h.Settlement.Buy(c.Request().Context(), service.BuyInput{
		SessionID:      sessionID,
		UserID:         actor.ID,
		UseSuperticket: super,
	})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, toPurchase(p))
}

// BuyForSession handles POST /v1/sessions/:id/buy.
func (h *PurchaseHandler) BuyForSession(c echo.Context) error {
	var req buyReq
	if err := bind(c, &req); err != nil {
		return fail(c, err)
	}
	return h.buy(c, c.Param("id"), req.SuperTicket)
}

// BuyTicket handles POST /v1/tickets.
func (h *PurchaseHandler) BuyTicket(c echo.Context) error {
	var req buyReq
	if err := bind(c, &req); err != nil {
		return fail(c, err)
	}
	return h.buy(c, req.SessionID, req.SuperTicket)
}

// ListTickets handles GET /v1/users/:id/tickets.
func (h *PurchaseHandler) ListTickets(c echo.Context) error {
	id := c.Param("id")
	if err := service.Authorize(middleware.CurrentActor(c), service.ResTickets, service.ActRead, id); err != nil {
		return fail(c, err)
	}
	items, err := h.Settlement.Tickets(c.Request().Context(), id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": items})
}

// BuySuperticket handles POST /v1/supertickets.
func (h *PurchaseHandler) BuySuperticket(c echo.Context) error {
	actor := middleware.CurrentActor(c)
	if err := service.Authorize(actor, service.ResSupertickets, service.ActCreate, actor.ID); err != nil {
		return fail(c, err)
	}
	st, err := h.Ledger.BuySuperticket(c.Request().Context(), actor.ID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, toSuperticket(st))
}

// GetSuperticket handles GET /v1/users/:id/superticket.
func (h *PurchaseHandler) GetSuperticket(c echo.Context) error {
	id := c.Param("id")
	if err := service.Authorize(middleware.CurrentActor(c), service.ResSupertickets, service.ActRead, id); err != nil {
		return fail(c, err)
	}
	st, err := h.Ledger.Superticket(c.Request().Context(), id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, toSuperticket(st))
}

