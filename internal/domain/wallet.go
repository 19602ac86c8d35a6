// internal/domain/wallet.go
package domain

import (
	"time"

	"github.com/shopspring/decimal" // For precise monetary calculations
)

// Wallet holds the spendable balance of a user. The balance is only ever
// changed by the ledger engine and is never negative after a commit.
type Wallet struct {
	ID        int64           `db:"id" json:"id"`                 // Primary key, BIGSERIAL in DB
	UserID    int64           `db:"user_id" json:"user_id"`       // Owning user
	Balance   decimal.Decimal `db:"balance" json:"balance"`       // NUMERIC(20, 4) in DB
	CreatedAt time.Time       `db:"created_at" json:"created_at"` // Timestamp of creation
	UpdatedAt time.Time       `db:"updated_at" json:"updated_at"` // Timestamp of last balance change
}

// NewWallet creates a new Wallet instance with a zero balance.
func NewWallet(userID int64) *Wallet {
	now := time.Now().UTC()
	return &Wallet{
		UserID:    userID,
		Balance:   decimal.Zero,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
