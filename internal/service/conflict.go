package service

import (
	"context"
	"time"

	"github.com/iliyamo/cinema-booking/internal/repository"
)

// Window is a closed time interval [Start, End].
type Window struct {
	Start time.Time
	End   time.Time
}

// Overlaps reports whether the two closed windows share at least one
// instant. Touching endpoints count as overlap.
func (w Window) Overlaps(o Window) bool {
	return !w.Start.After(o.End) && !o.Start.After(w.End)
}

// Candidate is a proposed session placement to be checked.
type Candidate struct {
	RoomID  string
	MovieID string
	Window
	// ExcludeID skips the session being updated.
	ExcludeID string
}

// ConflictChecker finds existing sessions that would collide with a
// candidate placement.
type ConflictChecker struct {
	sessions *repository.SessionRepo
}

func NewConflictChecker(sessions *repository.SessionRepo) *ConflictChecker {
	return &ConflictChecker{sessions: sessions}
}

// Check returns nil when c fits, a ROOM_CONFLICT when another session
// occupies the room, or a MOVIE_CONFLICT when the movie is screening
// elsewhere during the window. The room is checked first and the first
// offender is reported. q is normally the scheduler's transaction.
func (cc *ConflictChecker) Check(ctx context.Context, q repository.Querier, c Candidate) error {
	s, err := cc.sessions.FirstOverlapping(ctx, q, repository.ScopeRoom, c.RoomID, c.ExcludeID, c.Start, c.End)
	if err != nil {
		return err
	}
	if s != nil {
		return conflictWith(ErrRoomConflict, s.ID)
	}
	s, err = cc.sessions.FirstOverlapping(ctx, q, repository.ScopeMovie, c.MovieID, c.ExcludeID, c.Start, c.End)
	if err != nil {
		return err
	}
	if s != nil {
		return conflictWith(ErrMovieConflict, s.ID)
	}
	return nil
}
