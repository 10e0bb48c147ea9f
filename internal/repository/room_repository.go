package repository // repository holds data access logic for domain entities

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/iliyamo/cinema-booking/internal/database"
	"github.com/iliyamo/cinema-booking/internal/model"
)

const roomColumns = `id, name, capacity, type, disabled, maintenance, created_at, updated_at`

// RoomRepo provides methods to create, retrieve and update rooms.
type RoomRepo struct {
	db *database.DB
}

// NewRoomRepo constructs a RoomRepo with the given DB handle.
func NewRoomRepo(db *database.DB) *RoomRepo {
	return &RoomRepo{db: db}
}

func scanRoom(row interface{ Scan(...any) error }, rm *model.Room) error {
	if err := row.Scan(&rm.ID, &rm.Name, &rm.Capacity, &rm.Type, &rm.Disabled, &rm.Maintenance, &rm.CreatedAt, &rm.UpdatedAt); err != nil {
		return err
	}
	rm.CreatedAt = rm.CreatedAt.UTC()
	rm.UpdatedAt = rm.UpdatedAt.UTC()
	return nil
}

// Create inserts a new room and assigns its ID and timestamps.
func (r *RoomRepo) Create(ctx context.Context, rm *model.Room) error {
	rm.ID = uuid.NewString()
	rm.CreatedAt = now()
	rm.UpdatedAt = rm.CreatedAt
	q := r.db.Rebind(`INSERT INTO rooms (` + roomColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err := r.db.ExecContext(ctx, q, rm.ID, rm.Name, rm.Capacity, rm.Type, rm.Disabled, rm.Maintenance, rm.CreatedAt, rm.UpdatedAt)
	return err
}

// GetByID retrieves a room by its ID. It returns ErrRoomNotFound when no
// row is found.
func (r *RoomRepo) GetByID(ctx context.Context, id string) (*model.Room, error) {
	return r.get(ctx, r.db, id, "")
}

// ShareLockTx loads a room inside tx under a shared lock. Ticket
// purchases hold it so a capacity change waits for them to finish.
func (r *RoomRepo) ShareLockTx(ctx context.Context, tx *sql.Tx, id string) (*model.Room, error) {
	return r.get(ctx, tx, id, r.db.ForShare())
}

// LockTx loads a room inside tx and holds its row lock until the
// transaction ends. Concurrent schedulers targeting the same room wait
// here.
func (r *RoomRepo) LockTx(ctx context.Context, tx *sql.Tx, id string) (*model.Room, error) {
	return r.get(ctx, tx, id, r.db.ForUpdate())
}

func (r *RoomRepo) get(ctx context.Context, q Querier, id, suffix string) (*model.Room, error) {
	var rm model.Room
	err := scanRoom(q.QueryRowContext(ctx, r.db.Rebind(`SELECT `+roomColumns+` FROM rooms WHERE id = ?`+suffix), id), &rm)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}
	return &rm, nil
}

// List returns every room ordered by name.
func (r *RoomRepo) List(ctx context.Context) ([]model.Room, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+roomColumns+` FROM rooms ORDER BY name ASC, id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Room{}
	for rows.Next() {
		var rm model.Room
		if err := scanRoom(rows, &rm); err != nil {
			return nil, err
		}
		out = append(out, rm)
	}
	return out, rows.Err()
}

// UpdateTx writes all mutable columns of the room.
func (r *RoomRepo) UpdateTx(ctx context.Context, tx *sql.Tx, rm *model.Room) error {
	rm.UpdatedAt = now()
	q := r.db.Rebind(`UPDATE rooms SET name = ?, capacity = ?, type = ?, disabled = ?, maintenance = ?, updated_at = ? WHERE id = ?`)
	res, err := tx.ExecContext(ctx, q, rm.Name, rm.Capacity, rm.Type, rm.Disabled, rm.Maintenance, rm.UpdatedAt, rm.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrRoomNotFound
	}
	return nil
}

// MaxTicketsSoldTx returns the highest tickets_sold among the room's
// sessions, or zero.
func (r *RoomRepo) MaxTicketsSoldTx(ctx context.Context, tx *sql.Tx, id string) (int, error) {
	var n int
	err := tx.QueryRowContext(ctx,
		r.db.Rebind(`SELECT COALESCE(MAX(tickets_sold), 0) FROM sessions WHERE room_id = ?`), id).Scan(&n)
	return n, err
}

// Delete removes a room that no session references. It returns ErrInUse
// when sessions still point at it.
func (r *RoomRepo) Delete(ctx context.Context, id string) error {
	return r.db.InTx(ctx, func(tx *sql.Tx) error {
		if _, err := r.LockTx(ctx, tx, id); err != nil {
			return err
		}
		var n int
		if err := tx.QueryRowContext(ctx, r.db.Rebind(`SELECT COUNT(*) FROM sessions WHERE room_id = ?`), id).Scan(&n); err != nil {
			return err
		}
		if n > 0 {
			return ErrInUse
		}
		_, err := tx.ExecContext(ctx, r.db.Rebind(`DELETE FROM rooms WHERE id = ?`), id)
		return err
	})
}
