package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/iliyamo/cinema-booking/internal/database"
	"github.com/iliyamo/cinema-booking/internal/model"
)

const movieColumns = `id, name, duration, created_at, updated_at`

// MovieRepo manages persistence for movies.
type MovieRepo struct {
	db *database.DB
}

// NewMovieRepo constructs a MovieRepo with the given DB handle.
func NewMovieRepo(db *database.DB) *MovieRepo {
	return &MovieRepo{db: db}
}

func scanMovie(row interface{ Scan(...any) error }, m *model.Movie) error {
	if err := row.Scan(&m.ID, &m.Name, &m.Duration, &m.CreatedAt, &m.UpdatedAt); err != nil {
		return err
	}
	m.CreatedAt = m.CreatedAt.UTC()
	m.UpdatedAt = m.UpdatedAt.UTC()
	return nil
}

// Create inserts a movie. A taken name yields ErrNameExists.
func (r *MovieRepo) Create(ctx context.Context, m *model.Movie) error {
	m.ID = uuid.NewString()
	m.CreatedAt = now()
	m.UpdatedAt = m.CreatedAt
	q := r.db.Rebind(`INSERT INTO movies (` + movieColumns + `) VALUES (?, ?, ?, ?, ?)`)
	if _, err := r.db.ExecContext(ctx, q, m.ID, m.Name, m.Duration, m.CreatedAt, m.UpdatedAt); err != nil {
		if database.IsDuplicate(err) {
			return ErrNameExists
		}
		return err
	}
	return nil
}

// GetByID retrieves a movie or ErrMovieNotFound.
func (r *MovieRepo) GetByID(ctx context.Context, id string) (*model.Movie, error) {
	return r.get(ctx, r.db, id, "")
}

// LockTx loads a movie inside tx holding its row lock.
func (r *MovieRepo) LockTx(ctx context.Context, tx *sql.Tx, id string) (*model.Movie, error) {
	return r.get(ctx, tx, id, r.db.ForUpdate())
}

func (r *MovieRepo) get(ctx context.Context, q Querier, id, suffix string) (*model.Movie, error) {
	var m model.Movie
	err := scanMovie(q.QueryRowContext(ctx, r.db.Rebind(`SELECT `+movieColumns+` FROM movies WHERE id = ?`+suffix), id), &m)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMovieNotFound
		}
		return nil, err
	}
	return &m, nil
}

// List returns all movies ordered by name.
func (r *MovieRepo) List(ctx context.Context) ([]model.Movie, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+movieColumns+` FROM movies ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Movie{}
	for rows.Next() {
		var m model.Movie
		if err := scanMovie(rows, &m); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// Update writes the name and duration. Sessions already scheduled keep
// their stored window.
func (r *MovieRepo) Update(ctx context.Context, m *model.Movie) error {
	m.UpdatedAt = now()
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`UPDATE movies SET name = ?, duration = ?, updated_at = ? WHERE id = ?`),
		m.Name, m.Duration, m.UpdatedAt, m.ID)
	if err != nil {
		if database.IsDuplicate(err) {
			return ErrNameExists
		}
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrMovieNotFound
	}
	return nil
}

// Delete removes a movie with no sessions; ErrInUse otherwise.
func (r *MovieRepo) Delete(ctx context.Context, id string) error {
	return r.db.InTx(ctx, func(tx *sql.Tx) error {
		if _, err := r.LockTx(ctx, tx, id); err != nil {
			return err
		}
		var n int
		if err := tx.QueryRowContext(ctx, r.db.Rebind(`SELECT COUNT(*) FROM sessions WHERE movie_id = ?`), id).Scan(&n); err != nil {
			return err
		}
		if n > 0 {
			return ErrInUse
		}
		_, err := tx.ExecContext(ctx, r.db.Rebind(`DELETE FROM movies WHERE id = ?`), id)
		return err
	})
}
