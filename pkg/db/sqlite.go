// pkg/db/sqlite.go
package db

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// NewSQLiteDB opens a SQLite database file. Transactions begin with
// BEGIN IMMEDIATE so that concurrent writers queue on the busy timeout
// instead of failing on lock upgrade.
func NewSQLiteDB(path string) (*sqlx.DB, error) {
	if path == "" {
		path = "ledger.db"
	}
	dsn := fmt.Sprintf("file:%s?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=10000&_txlock=immediate", path)

	conn, err := sqlx.Connect(DriverSQLite, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database %s: %w", path, err)
	}
	applyPool(conn, 8, 4)
	return conn, nil
}
