// internal/repository/sqlstore/wallet_store.go
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"campaign-wallet/internal/domain"
	"campaign-wallet/internal/repository"
	"campaign-wallet/internal/util"
	"campaign-wallet/pkg/db"

	"github.com/shopspring/decimal"
)

// WalletRepository implements repository.WalletRepository on sqlx.
type WalletRepository struct{}

// NewWalletRepository creates a new WalletRepository.
func NewWalletRepository() repository.WalletRepository {
	return &WalletRepository{}
}

// walletRow scans the balance as text so a corrupt value surfaces as InvalidData
// instead of a generic scan failure.
type walletRow struct {
	ID        int64     `db:"id"`
	UserID    int64     `db:"user_id"`
	Balance   string    `db:"balance"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (r walletRow) toDomain() (*domain.Wallet, error) {
	balance, err := domain.ParseMoney("balance", r.Balance)
	if err != nil {
		return nil, fmt.Errorf("wallet %d: %w", r.ID, err)
	}
	return &domain.Wallet{
		ID:        r.ID,
		UserID:    r.UserID,
		Balance:   balance,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}, nil
}

const selectWallet = `SELECT id, user_id, balance, created_at, updated_at FROM wallets WHERE id = ?`

// CreateWallet inserts a new wallet into the database using the provided DBExecutor.
func (r *WalletRepository) CreateWallet(ctx context.Context, q repository.DBExecutor, wallet *domain.Wallet) error {
	if q.DriverName() == db.DriverPostgres {
		query := `INSERT INTO wallets (user_id, balance, created_at, updated_at)
		          VALUES ($1, $2, $3, $4) RETURNING id`
		err := q.QueryRowContext(ctx, query, wallet.UserID, wallet.Balance, wallet.CreatedAt, wallet.UpdatedAt).Scan(&wallet.ID)
		if err != nil {
			return fmt.Errorf("failed to create wallet: %w", err)
		}
		return nil
	}

	query := q.Rebind(`INSERT INTO wallets (user_id, balance, created_at, updated_at) VALUES (?, ?, ?, ?)`)
	result, err := q.ExecContext(ctx, query, wallet.UserID, wallet.Balance, wallet.CreatedAt, wallet.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create wallet: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read new wallet id: %w", err)
	}
	wallet.ID = id
	return nil
}

// GetWalletByID retrieves a wallet by its ID using the provided DBExecutor.
func (r *WalletRepository) GetWalletByID(ctx context.Context, q repository.DBExecutor, id int64) (*domain.Wallet, error) {
	return r.getWallet(ctx, q, q.Rebind(selectWallet), id)
}

// GetWalletForUpdate retrieves a wallet and locks its row for the rest of the
// transaction. SQLite has no row locks; its write transactions are already
// exclusive because the connection begins them IMMEDIATE.
func (r *WalletRepository) GetWalletForUpdate(ctx context.Context, q repository.DBExecutor, id int64) (*domain.Wallet, error) {
	query := selectWallet
	if q.DriverName() == db.DriverPostgres {
		query += " FOR UPDATE"
	}
	return r.getWallet(ctx, q, q.Rebind(query), id)
}

func (r *WalletRepository) getWallet(ctx context.Context, q repository.DBExecutor, query string, id int64) (*domain.Wallet, error) {
	var row walletRow
	if err := q.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, util.NewError(util.KindNotFound, "wallet %d not found", id)
		}
		return nil, fmt.Errorf("failed to get wallet by ID %d: %w", id, err)
	}
	return row.toDomain()
}

// UpdateWalletBalance sets the balance of a specific wallet using the provided DBExecutor.
func (r *WalletRepository) UpdateWalletBalance(ctx context.Context, q repository.DBExecutor, walletID int64, balance decimal.Decimal, updatedAt time.Time) error {
	query := q.Rebind(`UPDATE wallets SET balance = ?, updated_at = ? WHERE id = ?`)
	result, err := q.ExecContext(ctx, query, balance, updatedAt, walletID)
	if err != nil {
		return fmt.Errorf("failed to update wallet balance for ID %d: %w", walletID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected after updating wallet balance for ID %d: %w", walletID, err)
	}
	if rowsAffected == 0 {
		return util.NewError(util.KindNotFound, "wallet %d not found", walletID)
	}
	return nil
}
