package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/cinema-booking/internal/model"
)

// SessionSearchQuery defines filters & pagination for listing sessions.
type SessionSearchQuery struct {
	RoomID             string
	MovieID            string
	Movie              string // case-insensitive substring of the movie name
	TimeFilter         string // upcoming (default) | active | any
	IncludeMaintenance bool
	Page               int
	PageSize           int
}

// SessionRow is a session joined with its room and movie.
type SessionRow struct {
	ID          string      `json:"id"`
	RoomID      string      `json:"room_id"`
	RoomName    string      `json:"room_name"`
	RoomType    string      `json:"room_type"`
	Capacity    int         `json:"capacity"`
	MovieID     string      `json:"movie_id"`
	MovieName   string      `json:"movie_name"`
	Duration    int         `json:"duration"`
	StartsAt    time.Time   `json:"start"`
	EndsAt      time.Time   `json:"end"`
	Price       model.Money `json:"price"`
	TicketsSold int         `json:"tickets_sold"`
	Available   int         `json:"available"`
}

const sessionRowSelect = `SELECT
			s.id,
			s.room_id,
			r.name AS room_name,
			r.type AS room_type,
			r.capacity,
			s.movie_id,
			m.name AS movie_name,
			m.duration,
			s.starts_at,
			s.ends_at,
			s.price_cents,
			s.tickets_sold
		FROM sessions s
		JOIN rooms r  ON r.id = s.room_id
		JOIN movies m ON m.id = s.movie_id`

func scanSessionRow(row interface{ Scan(...any) error }, d *SessionRow) error {
	if err := row.Scan(
		&d.ID,
		&d.RoomID,
		&d.RoomName,
		&d.RoomType,
		&d.Capacity,
		&d.MovieID,
		&d.MovieName,
		&d.Duration,
		&d.StartsAt,
		&d.EndsAt,
		&d.Price,
		&d.TicketsSold,
	); err != nil {
		return err
	}
	d.StartsAt = d.StartsAt.UTC()
	d.EndsAt = d.EndsAt.UTC()
	d.Available = d.Capacity - d.TicketsSold
	if d.Available < 0 {
		d.Available = 0
	}
	return nil
}

// GetRow returns one session with room and movie context.
func (r *SessionRepo) GetRow(ctx context.Context, id string) (*SessionRow, error) {
	return r.getRow(ctx, r.db, id)
}

// GetRowTx is GetRow inside a transaction.
func (r *SessionRepo) GetRowTx(ctx context.Context, tx *sql.Tx, id string) (*SessionRow, error) {
	return r.getRow(ctx, tx, id)
}

func (r *SessionRepo) getRow(ctx context.Context, q Querier, id string) (*SessionRow, error) {
	var d SessionRow
	if err := scanSessionRow(q.QueryRowContext(ctx, r.db.Rebind(sessionRowSelect+` WHERE s.id = ?`), id), &d); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return &d, nil
}

// Search lists sessions matching q ordered by start time together with
// the total number of matches.
func (r *SessionRepo) Search(ctx context.Context, q SessionSearchQuery, at time.Time) ([]SessionRow, int64, error) {
	where := []string{}
	args := []any{}

	switch strings.ToLower(q.TimeFilter) {
	case "any":
	case "active":
		where = append(where, "s.ends_at >= ?")
		args = append(args, at.UTC())
	default:
		where = append(where, "s.starts_at >= ?")
		args = append(args, at.UTC())
	}

	if !q.IncludeMaintenance {
		where = append(where, "r.maintenance = ?")
		args = append(args, false)
	}
	if q.RoomID != "" {
		where = append(where, "s.room_id = ?")
		args = append(args, q.RoomID)
	}
	if q.MovieID != "" {
		where = append(where, "s.movie_id = ?")
		args = append(args, q.MovieID)
	}
	if q.Movie != "" {
		where = append(where, "LOWER(m.name) LIKE ?")
		args = append(args, "%"+strings.ToLower(q.Movie)+"%")
	}

	cond := "1=1"
	if len(where) > 0 {
		cond = strings.Join(where, " AND ")
	}

	var total int64
	countSQL := `SELECT COUNT(*)
		FROM sessions s
		JOIN rooms r  ON r.id = s.room_id
		JOIN movies m ON m.id = s.movie_id
		WHERE ` + cond
	if err := r.db.QueryRowContext(ctx, r.db.Rebind(countSQL), args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	if q.PageSize <= 0 {
		q.PageSize = 20
	}
	if q.Page <= 0 {
		q.Page = 1
	}
	limit := q.PageSize
	offset := (q.Page - 1) * q.PageSize

	dataSQL := sessionRowSelect + `
		WHERE ` + cond + `
		ORDER BY s.starts_at ASC, s.id ASC
		LIMIT ? OFFSET ?`

	argsData := append(append([]any{}, args...), limit, offset)

	rows, err := r.db.QueryContext(ctx, r.db.Rebind(dataSQL), argsData...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]SessionRow, 0, limit)
	for rows.Next() {
		var d SessionRow
		if err := scanSessionRow(rows, &d); err != nil {
			return nil, 0, err
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}
