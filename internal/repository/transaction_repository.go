package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/iliyamo/cinema-booking/internal/database"
	"github.com/iliyamo/cinema-booking/internal/model"
)

const transactionColumns = `id, user_id, type, amount_cents, balance_cents, created_at`

// TransactionRepo appends and reads ledger entries. Rows are never
// updated; seq gives the order in which they were applied.
type TransactionRepo struct{ db *database.DB }

func NewTransactionRepo(db *database.DB) *TransactionRepo { return &TransactionRepo{db: db} }

func scanTransaction(row interface{ Scan(...any) error }, t *model.Transaction) error {
	if err := row.Scan(&t.ID, &t.UserID, &t.Type, &t.Amount, &t.Balance, &t.CreatedAt); err != nil {
		return err
	}
	t.CreatedAt = t.CreatedAt.UTC()
	return nil
}

// CreateTx appends t inside tx and assigns its ID and timestamp.
func (r *TransactionRepo) CreateTx(ctx context.Context, tx *sql.Tx, t *model.Transaction) error {
	t.ID = uuid.NewString()
	t.CreatedAt = now()
	_, err := tx.ExecContext(ctx,
		r.db.Rebind(`INSERT INTO transactions (`+transactionColumns+`) VALUES (?,?,?,?,?,?)`),
		t.ID, t.UserID, t.Type, t.Amount, t.Balance, t.CreatedAt)
	return err
}

// ListByUser returns a user's entries in the order they were applied.
func (r *TransactionRepo) ListByUser(ctx context.Context, userID string) ([]model.Transaction, error) {
	return r.list(ctx, r.db, r.db.Rebind(`SELECT `+transactionColumns+` FROM transactions WHERE user_id = ? ORDER BY seq ASC`), userID)
}

// ListByUserTx is ListByUser inside tx.
func (r *TransactionRepo) ListByUserTx(ctx context.Context, tx *sql.Tx, userID string) ([]model.Transaction, error) {
	return r.list(ctx, tx, r.db.Rebind(`SELECT `+transactionColumns+` FROM transactions WHERE user_id = ? ORDER BY seq ASC`), userID)
}

// List returns every entry, oldest first.
func (r *TransactionRepo) List(ctx context.Context) ([]model.Transaction, error) {
	return r.list(ctx, r.db, `SELECT `+transactionColumns+` FROM transactions ORDER BY seq ASC`)
}

func (r *TransactionRepo) list(ctx context.Context, q Querier, query string, args ...any) ([]model.Transaction, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Transaction{}
	for rows.Next() {
		var t model.Transaction
		if err := scanTransaction(rows, &t); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
