package repository

import (
	"context"
	"strings"
	"time"

	"github.com/iliyamo/cinema-booking/internal/database"
	"github.com/iliyamo/cinema-booking/internal/model"
)

// StatsRepo runs the aggregate queries behind the statistics endpoints.
type StatsRepo struct{ db *database.DB }

func NewStatsRepo(db *database.DB) *StatsRepo { return &StatsRepo{db: db} }

// GroupStat counts sessions and tickets for one movie or room.
type GroupStat struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Sessions    int64  `json:"sessions"`
	TicketsSold int64  `json:"tickets_sold"`
}

// Totals is the overall booking summary for a period.
type Totals struct {
	Sessions    int64       `json:"total_sessions"`
	TicketsSold int64       `json:"total_tickets_sold"`
	Revenue     model.Money `json:"revenue"`
	Movies      []GroupStat `json:"movies"`
	Rooms       []GroupStat `json:"rooms"`
}

// Realtime is a snapshot of current activity.
type Realtime struct {
	Rooms          int64 `json:"total_rooms"`
	ActiveSessions int64 `json:"active_sessions"`
	TicketsSold    int64 `json:"total_tickets_sold"`
	RecentTickets  int64 `json:"tickets_last_hour"`
}

// Totals aggregates sessions starting at or after from and ending at or
// before to. Zero times leave that side open.
func (r *StatsRepo) Totals(ctx context.Context, from, to time.Time) (*Totals, error) {
	where := []string{"1=1"}
	args := []any{}
	if !from.IsZero() {
		where = append(where, "s.starts_at >= ?")
		args = append(args, from.UTC())
	}
	if !to.IsZero() {
		where = append(where, "s.ends_at <= ?")
		args = append(args, to.UTC())
	}
	cond := strings.Join(where, " AND ")

	out := &Totals{}
	var revenue int64
	q := `SELECT COUNT(*), COALESCE(SUM(s.tickets_sold), 0) FROM sessions s WHERE ` + cond
	if err := r.db.QueryRowContext(ctx, r.db.Rebind(q), args...).Scan(&out.Sessions, &out.TicketsSold); err != nil {
		return nil, err
	}
	// cash actually taken for tickets in those sessions; superticket
	// redemptions carry a zero amount
	q = `SELECT COALESCE(SUM(-t.amount_cents), 0)
	     FROM tickets k
	     JOIN transactions t ON t.id = k.transaction_id
	     JOIN sessions s ON s.id = k.session_id
	     WHERE ` + cond
	if err := r.db.QueryRowContext(ctx, r.db.Rebind(q), args...).Scan(&revenue); err != nil {
		return nil, err
	}
	out.Revenue = model.Money(revenue)

	var err error
	if out.Movies, err = r.groupBy(ctx, "movies", "movie_id", cond, args); err != nil {
		return nil, err
	}
	if out.Rooms, err = r.groupBy(ctx, "rooms", "room_id", cond, args); err != nil {
		return nil, err
	}
	return out, nil
}

// groupBy counts sessions and tickets per row of table, including rows
// without any session in the period.
func (r *StatsRepo) groupBy(ctx context.Context, table, fk, cond string, args []any) ([]GroupStat, error) {
	q := `SELECT g.id, g.name, COUNT(s.id), COALESCE(SUM(s.tickets_sold), 0)
	      FROM ` + table + ` g
	      LEFT JOIN sessions s ON s.` + fk + ` = g.id AND ` + cond + `
	      GROUP BY g.id, g.name
	      ORDER BY g.name ASC`
	rows, err := r.db.QueryContext(ctx, r.db.Rebind(q), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []GroupStat{}
	for rows.Next() {
		var g GroupStat
		if err := rows.Scan(&g.ID, &g.Name, &g.Sessions, &g.TicketsSold); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// Realtime reports the state of the cinema at the given instant.
func (r *StatsRepo) Realtime(ctx context.Context, at time.Time) (*Realtime, error) {
	at = at.UTC()
	out := &Realtime{}
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM rooms`).Scan(&out.Rooms); err != nil {
		return nil, err
	}
	if err := r.db.QueryRowContext(ctx,
		r.db.Rebind(`SELECT COUNT(*) FROM sessions WHERE starts_at <= ? AND ends_at >= ?`), at, at).Scan(&out.ActiveSessions); err != nil {
		return nil, err
	}
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tickets`).Scan(&out.TicketsSold); err != nil {
		return nil, err
	}
	if err := r.db.QueryRowContext(ctx,
		r.db.Rebind(`SELECT COUNT(*) FROM tickets WHERE created_at >= ?`), at.Add(-time.Hour)).Scan(&out.RecentTickets); err != nil {
		return nil, err
	}
	return out, nil
}
