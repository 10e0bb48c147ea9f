package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/iliyamo/cinema-booking/internal/database"
	"github.com/iliyamo/cinema-booking/internal/model"
)

const superticketColumns = `id, user_id, remaining_uses, transaction_id, created_at, updated_at`

// SuperticketRepo manages the single superticket record a user may hold.
type SuperticketRepo struct{ db *database.DB }

func NewSuperticketRepo(db *database.DB) *SuperticketRepo { return &SuperticketRepo{db: db} }

func scanSuperticket(row interface{ Scan(...any) error }, s *model.Superticket) error {
	if err := row.Scan(&s.ID, &s.UserID, &s.RemainingUses, &s.TransactionID, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return err
	}
	s.CreatedAt = s.CreatedAt.UTC()
	s.UpdatedAt = s.UpdatedAt.UTC()
	return nil
}

// GetByUser returns the user's superticket or ErrSuperticketNotFound.
func (r *SuperticketRepo) GetByUser(ctx context.Context, userID string) (*model.Superticket, error) {
	return r.get(ctx, r.db, userID)
}

// GetByUserTx is GetByUser inside tx.
func (r *SuperticketRepo) GetByUserTx(ctx context.Context, tx *sql.Tx, userID string) (*model.Superticket, error) {
	return r.get(ctx, tx, userID)
}

func (r *SuperticketRepo) get(ctx context.Context, q Querier, userID string) (*model.Superticket, error) {
	var s model.Superticket
	err := scanSuperticket(q.QueryRowContext(ctx,
		r.db.Rebind(`SELECT `+superticketColumns+` FROM supertickets WHERE user_id = ?`), userID), &s)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSuperticketNotFound
		}
		return nil, err
	}
	return &s, nil
}

// CreateTx inserts a superticket for s.UserID and assigns its ID.
func (r *SuperticketRepo) CreateTx(ctx context.Context, tx *sql.Tx, s *model.Superticket) error {
	s.ID = uuid.NewString()
	s.CreatedAt = now()
	s.UpdatedAt = s.CreatedAt
	_, err := tx.ExecContext(ctx,
		r.db.Rebind(`INSERT INTO supertickets (`+superticketColumns+`) VALUES (?,?,?,?,?,?)`),
		s.ID, s.UserID, s.RemainingUses, s.TransactionID, s.CreatedAt, s.UpdatedAt)
	return err
}

// AddUsesTx tops up an existing superticket and points it at the
// purchase transaction that paid for the new uses.
func (r *SuperticketRepo) AddUsesTx(ctx context.Context, tx *sql.Tx, id string, uses int, transactionID string) error {
	res, err := tx.ExecContext(ctx,
		r.db.Rebind(`UPDATE supertickets SET remaining_uses = remaining_uses + ?, transaction_id = ?, updated_at = ? WHERE id = ?`),
		uses, transactionID, now(), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrSuperticketNotFound
	}
	return nil
}

// ConsumeUseTx takes one use from superticket id. It reports false when
// no use is left; the decrement is conditional so concurrent
// redemptions cannot drive remaining_uses below zero.
func (r *SuperticketRepo) ConsumeUseTx(ctx context.Context, tx *sql.Tx, id string) (bool, error) {
	res, err := tx.ExecContext(ctx,
		r.db.Rebind(`UPDATE supertickets SET remaining_uses = remaining_uses - 1, updated_at = ? WHERE id = ? AND remaining_uses > 0`),
		now(), id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}
