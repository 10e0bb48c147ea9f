// Package queue defines message payloads exchanged over the message broker.
package queue

import "github.com/iliyamo/cinema-booking/internal/model"

// TicketPurchasedQueue is the durable queue purchase events are routed to.
const TicketPurchasedQueue = "ticket.purchased"

// TicketPurchasedEvent is published when a ticket purchase commits.
// It contains enough information for downstream consumers to log, notify, or
// trigger analytics without querying the primary database.
type TicketPurchasedEvent struct {
	UserID        string      `json:"user_id"`
	SessionID     string      `json:"session_id"`
	TransactionID string      `json:"transaction_id"`
	RoomName      string      `json:"room_name"`
	MovieName     string      `json:"movie_name"`
	StartsAt      string      `json:"starts_at"`
	Amount        model.Money `json:"amount"`
	Superticket   bool        `json:"superticket"`
	PurchasedAt   string      `json:"purchased_at"`
}
