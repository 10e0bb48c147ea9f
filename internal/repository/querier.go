package repository

import (
	"context"
	"database/sql"
	"time"
)

// Querier is satisfied by *sql.DB, *database.DB and *sql.Tx, so read
// helpers can run either standalone or inside a caller's transaction.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// now is the single clock used for created_at/updated_at columns.
var now = func() time.Time { return time.Now().UTC() }
