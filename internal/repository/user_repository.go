package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/iliyamo/cinema-booking/internal/database"
	"github.com/iliyamo/cinema-booking/internal/model"
	"github.com/iliyamo/cinema-booking/internal/utils"
)

const userColumns = `id, name, forname, email, password_hash, role, balance_cents, created_at, updated_at`

// UserRepo persists users. Balances are only changed through
// AdjustBalanceTx so each change can be paired with a ledger row.
type UserRepo struct{ db *database.DB }

func NewUserRepo(db *database.DB) *UserRepo { return &UserRepo{db: db} }

func scanUser(row interface{ Scan(...any) error }, u *model.User) error {
	if err := row.Scan(&u.ID, &u.Name, &u.Forname, &u.Email, &u.PasswordHash, &u.Role, &u.Balance, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return err
	}
	u.CreatedAt = u.CreatedAt.UTC()
	u.UpdatedAt = u.UpdatedAt.UTC()
	return nil
}

// Create hashes password, inserts u with a zero balance and sets its ID.
func (r *UserRepo) Create(ctx context.Context, u *model.User, password string, cost int) error {
	u.Email = normalizeEmail(u.Email)
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return err
	}
	u.ID = uuid.NewString()
	u.PasswordHash = hash
	u.Balance = 0
	if u.Role == "" {
		u.Role = model.RoleUser
	}
	u.CreatedAt = now()
	u.UpdatedAt = u.CreatedAt
	_, err = r.db.ExecContext(ctx,
		r.db.Rebind(`INSERT INTO users (`+userColumns+`) VALUES (?,?,?,?,?,?,?,?,?)`),
		u.ID, u.Name, u.Forname, u.Email, u.PasswordHash, u.Role, u.Balance, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		if database.IsDuplicate(err) {
			return ErrEmailExists
		}
		return err
	}
	return nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var u model.User
	err := scanUser(r.db.QueryRowContext(ctx,
		r.db.Rebind(`SELECT `+userColumns+` FROM users WHERE email = ? LIMIT 1`), normalizeEmail(email)), &u)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	return r.get(ctx, r.db, id)
}

// GetByIDTx fetches a user inside tx, seeing the transaction's own writes.
func (r *UserRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id string) (*model.User, error) {
	return r.get(ctx, tx, id)
}

func (r *UserRepo) get(ctx context.Context, q Querier, id string) (*model.User, error) {
	var u model.User
	err := scanUser(q.QueryRowContext(ctx, r.db.Rebind(`SELECT `+userColumns+` FROM users WHERE id = ? LIMIT 1`), id), &u)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

// List returns all users ordered by email.
func (r *UserRepo) List(ctx context.Context) ([]model.User, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY email ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.User{}
	for rows.Next() {
		var u model.User
		if err := scanUser(rows, &u); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// UpdateProfile writes name, forname, email and password hash.
func (r *UserRepo) UpdateProfile(ctx context.Context, u *model.User) error {
	u.Email = normalizeEmail(u.Email)
	u.UpdatedAt = now()
	res, err := r.db.ExecContext(ctx,
		r.db.Rebind(`UPDATE users SET name = ?, forname = ?, email = ?, password_hash = ?, updated_at = ? WHERE id = ?`),
		u.Name, u.Forname, u.Email, u.PasswordHash, u.UpdatedAt, u.ID)
	if err != nil {
		if database.IsDuplicate(err) {
			return ErrEmailExists
		}
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrUserNotFound
	}
	return nil
}

// UpdateRole changes a user's role.
func (r *UserRepo) UpdateRole(ctx context.Context, id string, role model.Role) error {
	res, err := r.db.ExecContext(ctx,
		r.db.Rebind(`UPDATE users SET role = ?, updated_at = ? WHERE id = ?`), role, now(), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrUserNotFound
	}
	return nil
}

// AdjustBalanceTx adds delta to the user's balance inside tx. When guard
// is set the update only applies if the result stays non-negative, and
// false is returned otherwise. The check and the write are one
// statement, so concurrent debits cannot overdraw the wallet.
func (r *UserRepo) AdjustBalanceTx(ctx context.Context, tx *sql.Tx, id string, delta model.Money, guard bool) (bool, error) {
	q := `UPDATE users SET balance_cents = balance_cents + ?, updated_at = ? WHERE id = ?`
	args := []any{delta, now(), id}
	if guard {
		q += ` AND balance_cents + ? >= 0`
		args = append(args, delta)
	}
	res, err := tx.ExecContext(ctx, r.db.Rebind(q), args...)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// BalanceTx reads the current balance inside tx.
func (r *UserRepo) BalanceTx(ctx context.Context, tx *sql.Tx, id string) (model.Money, error) {
	var b model.Money
	err := tx.QueryRowContext(ctx, r.db.Rebind(`SELECT balance_cents FROM users WHERE id = ?`), id).Scan(&b)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrUserNotFound
	}
	return b, err
}

// Delete removes a user. Seats held by the user's tickets are released
// first; tickets, transactions, supertickets and refresh tokens cascade.
func (r *UserRepo) Delete(ctx context.Context, id string, sessions *SessionRepo) error {
	return r.db.InTx(ctx, func(tx *sql.Tx) error {
		if _, err := r.get(ctx, tx, id); err != nil {
			return err
		}
		if err := sessions.ReleaseSeatsForUserTx(ctx, tx, id); err != nil {
			return err
		}
		// tickets reference transactions, so drop them before the user row
		if _, err := tx.ExecContext(ctx, r.db.Rebind(`DELETE FROM tickets WHERE user_id = ?`), id); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, r.db.Rebind(`DELETE FROM users WHERE id = ?`), id)
		return err
	})
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
