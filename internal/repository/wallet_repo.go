// internal/repository/wallet_repo.go
package repository

import (
	"context"
	"time"

	"campaign-wallet/internal/domain"

	"github.com/shopspring/decimal"
)

// WalletRepository defines the interface for wallet data operations.
type WalletRepository interface {
	// CreateWallet adds a new wallet and fills in its ID.
	CreateWallet(ctx context.Context, q DBExecutor, wallet *domain.Wallet) error
	// GetWalletByID retrieves a wallet by its ID without locking it.
	GetWalletByID(ctx context.Context, q DBExecutor, id int64) (*domain.Wallet, error)
	// GetWalletForUpdate retrieves a wallet and locks its row until q's transaction ends.
	GetWalletForUpdate(ctx context.Context, q DBExecutor, id int64) (*domain.Wallet, error)
	// UpdateWalletBalance stores the new absolute balance of a wallet.
	UpdateWalletBalance(ctx context.Context, q DBExecutor, walletID int64, balance decimal.Decimal, updatedAt time.Time) error
}
