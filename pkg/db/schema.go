// pkg/db/schema.go
package db

import (
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Money columns are NUMERIC(20, 4) in PostgreSQL. SQLite stores them as TEXT:
// NUMERIC affinity would coerce decimals into binary floats.
var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS wallets (
		id         BIGSERIAL PRIMARY KEY,
		user_id    BIGINT NOT NULL,
		balance    NUMERIC(20, 4) NOT NULL DEFAULT 0 CHECK (balance >= 0),
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_wallets_user_id ON wallets (user_id)`,
	`CREATE TABLE IF NOT EXISTS transactions (
		id           TEXT PRIMARY KEY,
		wallet_id    BIGINT NOT NULL REFERENCES wallets (id),
		amount       NUMERIC(20, 4) NOT NULL CHECK (amount >= 0),
		status       TEXT NOT NULL,
		type         TEXT NOT NULL,
		reference_id TEXT,
		is_deleted   BOOLEAN NOT NULL DEFAULT FALSE,
		created_at   TIMESTAMPTZ NOT NULL,
		updated_at   TIMESTAMPTZ NOT NULL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_transactions_reference_type
		ON transactions (reference_id, type)
		WHERE is_deleted = FALSE AND reference_id IS NOT NULL`,
	`CREATE INDEX IF NOT EXISTS idx_transactions_wallet_created ON transactions (wallet_id, created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_transactions_created ON transactions (created_at)`,
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS wallets (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id    INTEGER NOT NULL,
		balance    TEXT NOT NULL DEFAULT '0',
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_wallets_user_id ON wallets (user_id)`,
	`CREATE TABLE IF NOT EXISTS transactions (
		id           TEXT PRIMARY KEY,
		wallet_id    INTEGER NOT NULL REFERENCES wallets (id),
		amount       TEXT NOT NULL,
		status       TEXT NOT NULL,
		type         TEXT NOT NULL,
		reference_id TEXT,
		is_deleted   BOOLEAN NOT NULL DEFAULT FALSE,
		created_at   TIMESTAMP NOT NULL,
		updated_at   TIMESTAMP NOT NULL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_transactions_reference_type
		ON transactions (reference_id, type)
		WHERE is_deleted = FALSE AND reference_id IS NOT NULL`,
	`CREATE INDEX IF NOT EXISTS idx_transactions_wallet_created ON transactions (wallet_id, created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_transactions_created ON transactions (created_at)`,
}

// Migrate creates the ledger tables and indexes for the connection's dialect.
// It is idempotent.
func Migrate(conn *sqlx.DB) error {
	statements := postgresSchema
	if conn.DriverName() == DriverSQLite {
		statements = sqliteSchema
	}
	for _, stmt := range statements {
		if _, err := conn.Exec(stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}
