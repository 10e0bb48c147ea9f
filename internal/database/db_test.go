package database

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRebind(t *testing.T) {
	pg := &DB{Driver: Postgres}
	assert.Equal(t,
		"SELECT id FROM users WHERE email = $1 AND role <> 'a?b' AND id = $2",
		pg.Rebind("SELECT id FROM users WHERE email = ? AND role <> 'a?b' AND id = ?"))

	my := &DB{Driver: MySQL}
	assert.Equal(t, "SELECT ? FROM t", my.Rebind("SELECT ? FROM t"))
}

func TestForUpdate(t *testing.T) {
	assert.Equal(t, " FOR UPDATE", (&DB{Driver: MySQL}).ForUpdate())
	assert.Equal(t, " FOR UPDATE", (&DB{Driver: Postgres}).ForUpdate())
	assert.Equal(t, "", (&DB{Driver: SQLite}).ForUpdate())
}

func TestForShare(t *testing.T) {
	assert.Equal(t, " LOCK IN SHARE MODE", (&DB{Driver: MySQL}).ForShare())
	assert.Equal(t, " FOR SHARE", (&DB{Driver: Postgres}).ForShare())
	assert.Equal(t, "", (&DB{Driver: SQLite}).ForShare())
}

func openTemp(t *testing.T) *DB {
	t.Helper()
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestMigrateIsIdempotent(t *testing.T) {
	db := openTemp(t)
	ctx := context.Background()
	require.NoError(t, Migrate(ctx, db))
	require.NoError(t, Migrate(ctx, db))

	var n int
	require.NoError(t, db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name IN
		 ('rooms','movies','users','refresh_tokens','sessions','transactions','supertickets','tickets')`).Scan(&n))
	assert.Equal(t, 8, n)
}

func TestInTxRollsBackOnError(t *testing.T) {
	db := openTemp(t)
	ctx := context.Background()
	_, err := db.ExecContext(ctx, `CREATE TABLE kv (k TEXT PRIMARY KEY)`)
	require.NoError(t, err)

	boom := errors.New("boom")
	err = db.InTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `INSERT INTO kv (k) VALUES ('a')`); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	var n int
	require.NoError(t, db.QueryRowContext(ctx, `SELECT COUNT(*) FROM kv`).Scan(&n))
	assert.Zero(t, n)

	require.NoError(t, db.InTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `INSERT INTO kv (k) VALUES ('b')`)
		return err
	}))
	require.NoError(t, db.QueryRowContext(ctx, `SELECT COUNT(*) FROM kv`).Scan(&n))
	assert.Equal(t, 1, n)
}

func TestIsDuplicate(t *testing.T) {
	db := openTemp(t)
	ctx := context.Background()
	_, err := db.ExecContext(ctx, `CREATE TABLE kv (k TEXT PRIMARY KEY)`)
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, `INSERT INTO kv (k) VALUES ('a')`)
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, `INSERT INTO kv (k) VALUES ('a')`)
	require.Error(t, err)
	assert.True(t, IsDuplicate(err))
	assert.False(t, IsDuplicate(errors.New("connection refused")))
	assert.False(t, IsDuplicate(nil))
}
