// Package repository contains data access logic for sessions. A session
// is a scheduled screening of a movie in a room; its window is stored
// as UTC timestamps and its tickets_sold column is the capacity counter.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/cinema-booking/internal/database"
	"github.com/iliyamo/cinema-booking/internal/model"
)

const sessionColumns = `id, room_id, movie_id, starts_at, ends_at, price_cents, tickets_sold, created_at, updated_at`

// OverlapScope selects which foreign key an overlap query is keyed on.
type OverlapScope string

const (
	ScopeRoom  OverlapScope = "room_id"
	ScopeMovie OverlapScope = "movie_id"
)

// SessionRepo manages persistence for sessions.
type SessionRepo struct {
	db *database.DB
}

// NewSessionRepo constructs a SessionRepo with the given DB handle.
func NewSessionRepo(db *database.DB) *SessionRepo {
	return &SessionRepo{db: db}
}

func scanSession(row interface{ Scan(...any) error }, s *model.Session) error {
	if err := row.Scan(&s.ID, &s.RoomID, &s.MovieID, &s.StartsAt, &s.EndsAt, &s.Price, &s.TicketsSold, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return err
	}
	s.StartsAt = s.StartsAt.UTC()
	s.EndsAt = s.EndsAt.UTC()
	s.CreatedAt = s.CreatedAt.UTC()
	s.UpdatedAt = s.UpdatedAt.UTC()
	return nil
}

// CreateTx inserts a new session using the provided transaction. The
// generated ID and timestamps are set on s.
func (r *SessionRepo) CreateTx(ctx context.Context, tx *sql.Tx, s *model.Session) error {
	s.ID = uuid.NewString()
	s.CreatedAt = now()
	s.UpdatedAt = s.CreatedAt
	s.TicketsSold = 0
	q := r.db.Rebind(`INSERT INTO sessions (` + sessionColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err := tx.ExecContext(ctx, q, s.ID, s.RoomID, s.MovieID, s.StartsAt.UTC(), s.EndsAt.UTC(), s.Price, s.TicketsSold, s.CreatedAt, s.UpdatedAt)
	return err
}

// UpdateTx writes the schedule, references and price of s.
func (r *SessionRepo) UpdateTx(ctx context.Context, tx *sql.Tx, s *model.Session) error {
	s.UpdatedAt = now()
	q := r.db.Rebind(`UPDATE sessions SET room_id = ?, movie_id = ?, starts_at = ?, ends_at = ?, price_cents = ?, updated_at = ? WHERE id = ?`)
	res, err := tx.ExecContext(ctx, q, s.RoomID, s.MovieID, s.StartsAt.UTC(), s.EndsAt.UTC(), s.Price, s.UpdatedAt, s.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// GetByID retrieves a session by its ID or ErrSessionNotFound.
func (r *SessionRepo) GetByID(ctx context.Context, id string) (*model.Session, error) {
	return r.get(ctx, r.db, id, "")
}

// LockTx reads a session inside tx and holds its row lock.
func (r *SessionRepo) LockTx(ctx context.Context, tx *sql.Tx, id string) (*model.Session, error) {
	return r.get(ctx, tx, id, r.db.ForUpdate())
}

func (r *SessionRepo) get(ctx context.Context, q Querier, id, suffix string) (*model.Session, error) {
	var s model.Session
	err := scanSession(q.QueryRowContext(ctx, r.db.Rebind(`SELECT `+sessionColumns+` FROM sessions WHERE id = ?`+suffix), id), &s)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return &s, nil
}

// FirstOverlapping returns the earliest session sharing scope's key whose
// closed window [starts_at, ends_at] intersects [start, end], ignoring
// excludeID. A nil session means no overlap. The test is inclusive on
// both ends, so a session starting exactly when another ends overlaps.
func (r *SessionRepo) FirstOverlapping(ctx context.Context, q Querier, scope OverlapScope, refID, excludeID string, start, end time.Time) (*model.Session, error) {
	var col string
	switch scope {
	case ScopeRoom, ScopeMovie:
		col = string(scope)
	default:
		return nil, errors.New("unknown overlap scope")
	}
	query := r.db.Rebind(`SELECT ` + sessionColumns + `
               FROM sessions
               WHERE ` + col + ` = ? AND id <> ? AND starts_at <= ? AND ends_at >= ?
               ORDER BY starts_at ASC
               LIMIT 1`)
	var s model.Session
	err := scanSession(q.QueryRowContext(ctx, query, refID, excludeID, end.UTC(), start.UTC()), &s)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

// ReserveSeatTx increments tickets_sold when the session's room still has
// room for one more ticket. It reports false when the session is full.
// The conditional update is atomic, so two buyers racing for the last
// seat cannot both succeed.
func (r *SessionRepo) ReserveSeatTx(ctx context.Context, tx *sql.Tx, sessionID string) (bool, error) {
	const q = `UPDATE sessions
               SET tickets_sold = tickets_sold + 1
               WHERE id = ?
                 AND tickets_sold < (SELECT capacity FROM rooms WHERE rooms.id = sessions.room_id)`
	res, err := tx.ExecContext(ctx, r.db.Rebind(q), sessionID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// ReleaseSeatsForUserTx gives back the seats held by userID's tickets.
// It must run before the tickets themselves are removed.
func (r *SessionRepo) ReleaseSeatsForUserTx(ctx context.Context, tx *sql.Tx, userID string) error {
	const q = `UPDATE sessions
               SET tickets_sold = tickets_sold - 1
               WHERE tickets_sold > 0
                 AND id IN (SELECT session_id FROM tickets WHERE user_id = ?)`
	_, err := tx.ExecContext(ctx, r.db.Rebind(q), userID)
	return err
}

// Delete removes a session that has not sold any ticket. It returns
// ErrSessionNotFound or ErrInUse.
func (r *SessionRepo) Delete(ctx context.Context, id string) error {
	return r.db.InTx(ctx, func(tx *sql.Tx) error {
		s, err := r.LockTx(ctx, tx, id)
		if err != nil {
			return err
		}
		if s.TicketsSold > 0 {
			return ErrInUse
		}
		var n int
		if err := tx.QueryRowContext(ctx, r.db.Rebind(`SELECT COUNT(*) FROM tickets WHERE session_id = ?`), id).Scan(&n); err != nil {
			return err
		}
		if n > 0 {
			return ErrInUse
		}
		_, err = tx.ExecContext(ctx, r.db.Rebind(`DELETE FROM sessions WHERE id = ?`), id)
		return err
	})
}
