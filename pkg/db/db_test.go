// pkg/db/db_test.go
package db

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestSQLite(t *testing.T) Config {
	t.Helper()
	return Config{
		Driver:      DriverSQLite,
		SQLitePath:  filepath.Join(t.TempDir(), "ledger.db"),
		AutoMigrate: true,
	}
}

func TestOpenSQLiteAndMigrate(t *testing.T) {
	conn, err := Open(openTestSQLite(t))
	require.NoError(t, err)
	defer conn.Close()

	// Migrating twice is a no-op.
	require.NoError(t, Migrate(conn))

	var tables []string
	err = conn.Select(&tables, `SELECT name FROM sqlite_master WHERE type = 'table' AND name IN ('wallets', 'transactions') ORDER BY name`)
	require.NoError(t, err)
	assert.Equal(t, []string{"transactions", "wallets"}, tables)
}

func TestOpenUnsupportedDriver(t *testing.T) {
	_, err := Open(Config{Driver: "mysql"})
	assert.ErrorContains(t, err, "unsupported DB_DRIVER")
}

func TestUniqueViolationDetection(t *testing.T) {
	conn, err := Open(openTestSQLite(t))
	require.NoError(t, err)
	defer conn.Close()

	now := time.Now().UTC()
	res, err := conn.Exec(`INSERT INTO wallets (user_id, balance, created_at, updated_at) VALUES (?, '0', ?, ?)`, 1, now, now)
	require.NoError(t, err)
	walletID, err := res.LastInsertId()
	require.NoError(t, err)

	insert := `INSERT INTO transactions (id, wallet_id, amount, status, type, reference_id, is_deleted, created_at, updated_at)
		VALUES (?, ?, '1', 'COMPLETED', 'DEPOSIT', 'ref1', ?, ?, ?)`
	_, err = conn.Exec(insert, "a", walletID, false, now, now)
	require.NoError(t, err)

	_, err = conn.Exec(insert, "b", walletID, false, now, now)
	require.Error(t, err)
	assert.True(t, IsUniqueViolation(err))
	assert.Equal(t, "2067", ErrorCode(err)) // SQLITE_CONSTRAINT_UNIQUE

	// A soft-deleted row does not hold the reference.
	_, err = conn.Exec(`UPDATE transactions SET is_deleted = TRUE WHERE id = 'a'`)
	require.NoError(t, err)
	_, err = conn.Exec(insert, "c", walletID, false, now, now)
	assert.NoError(t, err)
}

func TestPostgresErrorInspection(t *testing.T) {
	err := &pq.Error{Code: "23505", Message: "duplicate key value violates unique constraint"}
	assert.True(t, IsUniqueViolation(err))
	assert.Equal(t, "23505", ErrorCode(err))

	assert.False(t, IsUniqueViolation(&pq.Error{Code: "23514"}))
	assert.False(t, IsUniqueViolation(errors.New("plain")))
	assert.Equal(t, "", ErrorCode(errors.New("plain")))
}

func TestTransactionHelpers(t *testing.T) {
	conn, err := Open(openTestSQLite(t))
	require.NoError(t, err)
	defer conn.Close()

	tx, err := BeginTx(context.Background(), conn)
	require.NoError(t, err)
	require.NoError(t, CommitTx(tx))

	// Rollback after commit is tolerated.
	RollbackTx(tx)
}
