package service

import (
	"context"
	"database/sql"
	"errors"

	log "github.com/sirupsen/logrus"

	"github.com/iliyamo/cinema-booking/internal/database"
	"github.com/iliyamo/cinema-booking/internal/model"
	"github.com/iliyamo/cinema-booking/internal/repository"
)

// RoomInput is the full set of room attributes.
type RoomInput struct {
	Name        string `json:"name" validate:"required,min=3,max=255"`
	Capacity    int    `json:"capacity" validate:"required,min=15,max=30"`
	Type        string `json:"type" validate:"required,oneof=2D 3D 4D"`
	Disabled    bool   `json:"disabled"`
	Maintenance bool   `json:"maintenance"`
}

// RoomPatch updates the non-nil attributes of a room.
type RoomPatch struct {
	Name        *string `json:"name" validate:"omitempty,min=3,max=255"`
	Capacity    *int    `json:"capacity" validate:"omitempty,min=15,max=30"`
	Type        *string `json:"type" validate:"omitempty,oneof=2D 3D 4D"`
	Disabled    *bool   `json:"disabled"`
	Maintenance *bool   `json:"maintenance"`
}

// MovieInput is the full set of movie attributes.
type MovieInput struct {
	Name     string `json:"name" validate:"required,min=1,max=255"`
	Duration int    `json:"duration" validate:"required,min=1,max=500"`
}

// MoviePatch updates the non-nil attributes of a movie.
type MoviePatch struct {
	Name     *string `json:"name" validate:"omitempty,min=1,max=255"`
	Duration *int    `json:"duration" validate:"omitempty,min=1,max=500"`
}

// Catalog manages rooms and movies.
type Catalog struct {
	db     *database.DB
	rooms  *repository.RoomRepo
	movies *repository.MovieRepo
}

func NewCatalog(db *database.DB, rooms *repository.RoomRepo, movies *repository.MovieRepo) *Catalog {
	return &Catalog{db: db, rooms: rooms, movies: movies}
}

func (c *Catalog) CreateRoom(ctx context.Context, in RoomInput) (*model.Room, error) {
	if err := Check(in); err != nil {
		return nil, err
	}
	rm := &model.Room{
		Name:        in.Name,
		Capacity:    in.Capacity,
		Type:        in.Type,
		Disabled:    in.Disabled,
		Maintenance: in.Maintenance,
	}
	if err := c.rooms.Create(ctx, rm); err != nil {
		return nil, err
	}
	log.WithField("room_id", rm.ID).Info("room created")
	return rm, nil
}

func (c *Catalog) Room(ctx context.Context, id string) (*model.Room, error) {
	rm, err := c.rooms.GetByID(ctx, id)
	if err != nil {
		return nil, fromRepo(err)
	}
	return rm, nil
}

func (c *Catalog) Rooms(ctx context.Context) ([]model.Room, error) {
	return c.rooms.List(ctx)
}

// UpdateRoom applies p. Capacity cannot drop below the number of tickets
// any of the room's sessions already sold; the room stays locked while
// that is checked so purchases in flight are counted.
func (c *Catalog) UpdateRoom(ctx context.Context, id string, p RoomPatch) (*model.Room, error) {
	if err := Check(p); err != nil {
		return nil, err
	}
	var rm *model.Room
	err := c.db.InTx(ctx, func(tx *sql.Tx) error {
		var err error
		if rm, err = c.rooms.LockTx(ctx, tx, id); err != nil {
			return fromRepo(err)
		}
		if p.Name != nil {
			rm.Name = *p.Name
		}
		if p.Capacity != nil && *p.Capacity != rm.Capacity {
			sold, err := c.rooms.MaxTicketsSoldTx(ctx, tx, id)
			if err != nil {
				return err
			}
			if *p.Capacity < sold {
				return Invalid("capacity is below tickets already sold for a session in this room")
			}
			rm.Capacity = *p.Capacity
		}
		if p.Type != nil {
			rm.Type = *p.Type
		}
		if p.Disabled != nil {
			rm.Disabled = *p.Disabled
		}
		if p.Maintenance != nil {
			rm.Maintenance = *p.Maintenance
		}
		return fromRepo(c.rooms.UpdateTx(ctx, tx, rm))
	})
	if err != nil {
		return nil, err
	}
	return rm, nil
}

func (c *Catalog) DeleteRoom(ctx context.Context, id string) error {
	err := c.rooms.Delete(ctx, id)
	if errors.Is(err, repository.ErrInUse) {
		return ErrRoomInUse
	}
	return fromRepo(err)
}

func (c *Catalog) CreateMovie(ctx context.Context, in MovieInput) (*model.Movie, error) {
	if err := Check(in); err != nil {
		return nil, err
	}
	m := &model.Movie{Name: in.Name, Duration: in.Duration}
	if err := c.movies.Create(ctx, m); err != nil {
		return nil, fromRepo(err)
	}
	log.WithField("movie_id", m.ID).Info("movie created")
	return m, nil
}

func (c *Catalog) Movie(ctx context.Context, id string) (*model.Movie, error) {
	m, err := c.movies.GetByID(ctx, id)
	if err != nil {
		return nil, fromRepo(err)
	}
	return m, nil
}

func (c *Catalog) Movies(ctx context.Context) ([]model.Movie, error) {
	return c.movies.List(ctx)
}

// UpdateMovie applies p. Sessions already scheduled keep their window;
// a new duration applies to sessions created or rescheduled afterwards.
func (c *Catalog) UpdateMovie(ctx context.Context, id string, p MoviePatch) (*model.Movie, error) {
	if err := Check(p); err != nil {
		return nil, err
	}
	m, err := c.movies.GetByID(ctx, id)
	if err != nil {
		return nil, fromRepo(err)
	}
	if p.Name != nil {
		m.Name = *p.Name
	}
	if p.Duration != nil {
		m.Duration = *p.Duration
	}
	if err := c.movies.Update(ctx, m); err != nil {
		return nil, fromRepo(err)
	}
	return m, nil
}

func (c *Catalog) DeleteMovie(ctx context.Context, id string) error {
	err := c.movies.Delete(ctx, id)
	if errors.Is(err, repository.ErrInUse) {
		return ErrMovieInUse
	}
	return fromRepo(err)
}
