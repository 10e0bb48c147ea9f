package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/iliyamo/cinema-booking/internal/database"
	"github.com/iliyamo/cinema-booking/internal/model"
	"github.com/iliyamo/cinema-booking/internal/repository"
)

// CreateSessionInput describes a new screening. Start is an RFC 3339
// timestamp such as 2025-05-23T18:30:00.000Z.
type CreateSessionInput struct {
	RoomID  string
	MovieID string
	Start   string
	Price   model.Money
}

// UpdateSessionInput patches a session. Nil fields are left unchanged.
type UpdateSessionInput struct {
	RoomID  *string
	MovieID *string
	Start   *string
	Price   *model.Money
}

// Scheduler creates and reschedules sessions. Every write runs in one
// transaction that locks the referenced room and movie rows, so two
// requests racing for the same room or movie are serialized and cannot
// both pass the conflict check.
type Scheduler struct {
	db       *database.DB
	rooms    *repository.RoomRepo
	movies   *repository.MovieRepo
	sessions *repository.SessionRepo
	checker  *ConflictChecker
}

func NewScheduler(db *database.DB, rooms *repository.RoomRepo, movies *repository.MovieRepo, sessions *repository.SessionRepo) *Scheduler {
	return &Scheduler{
		db:       db,
		rooms:    rooms,
		movies:   movies,
		sessions: sessions,
		checker:  NewConflictChecker(sessions),
	}
}

// ParseStart parses a session start timestamp and normalizes it to UTC.
func ParseStart(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, ErrInvalidTimestamp
	}
	return t.UTC(), nil
}

// Create validates and persists a new session.
func (s *Scheduler) Create(ctx context.Context, in CreateSessionInput) (*repository.SessionRow, error) {
	if in.Price <= 0 {
		return nil, Invalid("price must be positive")
	}
	var row *repository.SessionRow
	err := s.db.InTx(ctx, func(tx *sql.Tx) error {
		if _, err := s.lockRoom(ctx, tx, in.RoomID); err != nil {
			return err
		}
		movie, err := s.movies.LockTx(ctx, tx, in.MovieID)
		if err != nil {
			return fromRepo(err)
		}
		start, err := ParseStart(in.Start)
		if err != nil {
			return err
		}
		sess := &model.Session{
			RoomID:   in.RoomID,
			MovieID:  in.MovieID,
			StartsAt: start,
			EndsAt:   model.SessionEnd(start, movie.Duration),
			Price:    in.Price,
		}
		if err := s.checker.Check(ctx, tx, Candidate{
			RoomID:  sess.RoomID,
			MovieID: sess.MovieID,
			Window:  Window{Start: sess.StartsAt, End: sess.EndsAt},
		}); err != nil {
			return err
		}
		if err := s.sessions.CreateTx(ctx, tx, sess); err != nil {
			return err
		}
		row, err = s.sessions.GetRowTx(ctx, tx, sess.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	log.WithFields(log.Fields{"session_id": row.ID, "room_id": row.RoomID, "movie_id": row.MovieID}).Info("session scheduled")
	return row, nil
}

// Update applies a patch. Any change of start, room or movie locks the
// session's room and movie, recomputes the window and checks it again.
// A price-only patch never touches the schedule.
func (s *Scheduler) Update(ctx context.Context, id string, in UpdateSessionInput) (*repository.SessionRow, error) {
	if in.Price != nil && *in.Price <= 0 {
		return nil, Invalid("price must be positive")
	}
	var row *repository.SessionRow
	err := s.db.InTx(ctx, func(tx *sql.Tx) error {
		sess, err := s.sessions.LockTx(ctx, tx, id)
		if err != nil {
			return fromRepo(err)
		}
		roomChanged := in.RoomID != nil && *in.RoomID != sess.RoomID
		movieChanged := in.MovieID != nil && *in.MovieID != sess.MovieID
		if roomChanged || movieChanged || in.Start != nil {
			// room before movie, the same order Create locks them in
			if roomChanged {
				sess.RoomID = *in.RoomID
			}
			room, err := s.lockRoom(ctx, tx, sess.RoomID)
			if err != nil {
				return err
			}
			if roomChanged && sess.TicketsSold > room.Capacity {
				return Invalid("target room is smaller than the tickets already sold")
			}
			if movieChanged {
				sess.MovieID = *in.MovieID
			}
			movie, err := s.movies.LockTx(ctx, tx, sess.MovieID)
			if err != nil {
				return fromRepo(err)
			}
			if in.Start != nil {
				if sess.StartsAt, err = ParseStart(*in.Start); err != nil {
					return err
				}
			}
			sess.EndsAt = model.SessionEnd(sess.StartsAt, movie.Duration)
			if err := s.checker.Check(ctx, tx, Candidate{
				RoomID:    sess.RoomID,
				MovieID:   sess.MovieID,
				Window:    Window{Start: sess.StartsAt, End: sess.EndsAt},
				ExcludeID: sess.ID,
			}); err != nil {
				return err
			}
		}
		if in.Price != nil {
			sess.Price = *in.Price
		}
		if err := s.sessions.UpdateTx(ctx, tx, sess); err != nil {
			return fromRepo(err)
		}
		row, err = s.sessions.GetRowTx(ctx, tx, sess.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	log.WithField("session_id", id).Info("session updated")
	return row, nil
}

// Get returns one session with its room and movie.
func (s *Scheduler) Get(ctx context.Context, id string) (*repository.SessionRow, error) {
	row, err := s.sessions.GetRow(ctx, id)
	if err != nil {
		return nil, fromRepo(err)
	}
	return row, nil
}

// List searches sessions relative to the current time.
func (s *Scheduler) List(ctx context.Context, q repository.SessionSearchQuery) ([]repository.SessionRow, int64, error) {
	return s.sessions.Search(ctx, q, time.Now())
}

// Delete removes a session that has not sold any ticket.
func (s *Scheduler) Delete(ctx context.Context, id string) error {
	err := s.sessions.Delete(ctx, id)
	if errors.Is(err, repository.ErrInUse) {
		return ErrSessionHasTickets
	}
	if err != nil {
		return fromRepo(err)
	}
	log.WithField("session_id", id).Info("session deleted")
	return nil
}

func (s *Scheduler) lockRoom(ctx context.Context, tx *sql.Tx, id string) (*model.Room, error) {
	room, err := s.rooms.LockTx(ctx, tx, id)
	if err != nil {
		return nil, fromRepo(err)
	}
	if room.Maintenance {
		return nil, ErrRoomUnavailable
	}
	return room, nil
}
