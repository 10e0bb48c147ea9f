package model

import "time"

// TurnaroundBuffer is the cleanup gap added after a movie's runtime
// before its room is considered free again.
const TurnaroundBuffer = 30 * time.Minute

// Session represents a scheduled screening of a movie in a room.
// EndsAt is always StartsAt plus the movie duration plus the
// turnaround buffer. TicketsSold is the capacity counter kept in
// lockstep with the tickets table.
//
// Fields:
//  ID          – UUID primary key.
//  RoomID      – room hosting the screening.
//  MovieID     – movie being screened.
//  StartsAt    – start of the window (UTC).
//  EndsAt      – end of the window (UTC).
//  Price       – ticket price.
//  TicketsSold – tickets issued so far.
type Session struct {
	ID          string    // sessions.id
	RoomID      string    // sessions.room_id
	MovieID     string    // sessions.movie_id
	StartsAt    time.Time // sessions.starts_at
	EndsAt      time.Time // sessions.ends_at
	Price       Money     // sessions.price_cents
	TicketsSold int       // sessions.tickets_sold
	CreatedAt   time.Time // sessions.created_at
	UpdatedAt   time.Time // sessions.updated_at
}

// SessionEnd computes the end of a session window.
func SessionEnd(start time.Time, durationMin int) time.Time {
	return start.Add(time.Duration(durationMin)*time.Minute + TurnaroundBuffer)
}
