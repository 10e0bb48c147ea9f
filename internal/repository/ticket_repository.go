package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/cinema-booking/internal/database"
	"github.com/iliyamo/cinema-booking/internal/model"
)

// TicketRepo stores the (user, session) admission records. The composite
// primary key means a user holds at most one ticket per session.
type TicketRepo struct {
	db *database.DB
}

// NewTicketRepo returns a new TicketRepo bound to the given database.
func NewTicketRepo(db *database.DB) *TicketRepo { return &TicketRepo{db: db} }

// TicketDetail is a ticket joined with its session, movie and room, as
// shown to the ticket holder.
type TicketDetail struct {
	SessionID     string      `json:"session_id"`
	MovieID       string      `json:"movie_id"`
	MovieName     string      `json:"movie_name"`
	RoomID        string      `json:"room_id"`
	RoomName      string      `json:"room_name"`
	StartsAt      time.Time   `json:"start"`
	EndsAt        time.Time   `json:"end"`
	Price         model.Money `json:"price"`
	TransactionID string      `json:"transaction_id"`
	Superticket   bool        `json:"superticket"`
	PurchasedAt   time.Time   `json:"purchased_at"`
}

// ExistsTx reports whether userID already holds a ticket for sessionID.
func (r *TicketRepo) ExistsTx(ctx context.Context, tx *sql.Tx, userID, sessionID string) (bool, error) {
	var n int
	err := tx.QueryRowContext(ctx,
		r.db.Rebind(`SELECT COUNT(*) FROM tickets WHERE user_id = ? AND session_id = ?`),
		userID, sessionID).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// CreateTx inserts t within the scope of an existing transaction. A
// second ticket for the same pair yields ErrTicketExists.
func (r *TicketRepo) CreateTx(ctx context.Context, tx *sql.Tx, t *model.Ticket) error {
	t.CreatedAt = now()
	var superID sql.NullString
	if t.SuperticketID != nil {
		superID = sql.NullString{String: *t.SuperticketID, Valid: true}
	}
	_, err := tx.ExecContext(ctx,
		r.db.Rebind(`INSERT INTO tickets (user_id, session_id, transaction_id, superticket_id, created_at) VALUES (?, ?, ?, ?, ?)`),
		t.UserID, t.SessionID, t.TransactionID, superID, t.CreatedAt)
	if err != nil {
		if database.IsDuplicate(err) {
			return ErrTicketExists
		}
		return err
	}
	return nil
}

// ListByUser returns the user's tickets, soonest session first.
func (r *TicketRepo) ListByUser(ctx context.Context, userID string) ([]TicketDetail, error) {
	const q = `SELECT t.session_id, s.movie_id, m.name, s.room_id, r.name,
                      s.starts_at, s.ends_at, s.price_cents,
                      t.transaction_id, t.superticket_id, t.created_at
               FROM tickets t
               JOIN sessions s ON s.id = t.session_id
               JOIN movies m   ON m.id = s.movie_id
               JOIN rooms r    ON r.id = s.room_id
               WHERE t.user_id = ?
               ORDER BY s.starts_at ASC, t.session_id ASC`
	rows, err := r.db.QueryContext(ctx, r.db.Rebind(q), userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]TicketDetail, 0)
	for rows.Next() {
		var (
			d       TicketDetail
			superID sql.NullString
		)
		if err := rows.Scan(&d.SessionID, &d.MovieID, &d.MovieName, &d.RoomID, &d.RoomName,
			&d.StartsAt, &d.EndsAt, &d.Price, &d.TransactionID, &superID, &d.PurchasedAt); err != nil {
			return nil, err
		}
		d.StartsAt = d.StartsAt.UTC()
		d.EndsAt = d.EndsAt.UTC()
		d.PurchasedAt = d.PurchasedAt.UTC()
		d.Superticket = superID.Valid
		out = append(out, d)
	}
	return out, rows.Err()
}
