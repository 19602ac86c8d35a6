// internal/domain/transaction.go
package domain

import (
	"time"

	"github.com/shopspring/decimal" // For precise monetary calculations
)

// TransactionType defines the kind of balance movement. Direction is implied by
// the type; amounts are always non-negative magnitudes.
type TransactionType string

const (
	TransactionTypeDeposit       TransactionType = "DEPOSIT"
	TransactionTypePayService    TransactionType = "PAY_SERVICE"
	TransactionTypeRefundService TransactionType = "REFUND_SERVICE"
	TransactionTypeWithdraw      TransactionType = "WITHDRAW"
	TransactionTypeAdjustment    TransactionType = "ADJUSTMENT"
)

// Direction says how a transaction type moves a wallet balance.
type Direction int

const (
	DirectionNone Direction = iota
	DirectionDebit
	DirectionCredit
)

// Direction returns the balance direction of the type. Types the ledger engine
// does not post (WITHDRAW, ADJUSTMENT, unknown) return DirectionNone.
func (t TransactionType) Direction() Direction {
	switch t {
	case TransactionTypePayService:
		return DirectionDebit
	case TransactionTypeDeposit, TransactionTypeRefundService:
		return DirectionCredit
	default:
		return DirectionNone
	}
}

// Known reports whether t is one of the recognized transaction types.
func (t TransactionType) Known() bool {
	switch t {
	case TransactionTypeDeposit, TransactionTypePayService, TransactionTypeRefundService,
		TransactionTypeWithdraw, TransactionTypeAdjustment:
		return true
	}
	return false
}

// TransactionStatus defines the lifecycle tag of a ledger entry.
type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "PENDING"
	TransactionStatusCompleted TransactionStatus = "COMPLETED"
	TransactionStatusFailed    TransactionStatus = "FAILED"
)

// Known reports whether s is one of the recognized statuses.
func (s TransactionStatus) Known() bool {
	switch s {
	case TransactionStatusPending, TransactionStatusCompleted, TransactionStatusFailed:
		return true
	}
	return false
}

// Transaction is an immutable ledger entry. Only IsDeleted may change after creation.
type Transaction struct {
	ID          string            `db:"id" json:"id"`                     // ULID, sortable by creation time
	WalletID    int64             `db:"wallet_id" json:"wallet_id"`       // Foreign key to Wallet
	Amount      decimal.Decimal   `db:"amount" json:"amount"`             // Magnitude, NUMERIC(20, 4) in DB
	Status      TransactionStatus `db:"status" json:"status"`             // PENDING, COMPLETED, FAILED
	Type        TransactionType   `db:"type" json:"type"`                 // DEPOSIT, PAY_SERVICE, REFUND_SERVICE, ...
	ReferenceID *string           `db:"reference_id" json:"reference_id"` // Optional external idempotency key
	IsDeleted   bool              `db:"is_deleted" json:"is_deleted"`     // Soft-delete flag
	CreatedAt   time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time         `db:"updated_at" json:"updated_at"`
}

// NewTransaction creates a new Transaction with a fresh time-ordered id.
func NewTransaction(
	walletID int64,
	amount decimal.Decimal,
	status TransactionStatus,
	txType TransactionType,
	referenceID *string,
	now time.Time,
) *Transaction {
	now = now.UTC()
	return &Transaction{
		ID:          NewTransactionID(now),
		WalletID:    walletID,
		Amount:      amount,
		Status:      status,
		Type:        txType,
		ReferenceID: referenceID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// TransactionFilter narrows ListTransactions. Nil fields do not filter.
// StartDate and EndDate are inclusive bounds on CreatedAt.
// Pagination applies only when both Page and Limit are positive.
type TransactionFilter struct {
	WalletID  *int64
	Status    *TransactionStatus
	Type      *TransactionType
	StartDate *time.Time
	EndDate   *time.Time
	Page      int
	Limit     int
}

// Paginated reports whether the filter selects a page window.
func (f TransactionFilter) Paginated() bool {
	return f.Page > 0 && f.Limit > 0
}

// Offset returns the number of rows skipped for the selected page.
func (f TransactionFilter) Offset() int {
	if !f.Paginated() {
		return 0
	}
	return (f.Page - 1) * f.Limit
}

// TransactionPage is the result of ListTransactions. Total counts the whole
// filtered set, independent of the page window.
type TransactionPage struct {
	Transactions []Transaction `json:"transactions"`
	Total        int64         `json:"total"`
	Page         int           `json:"page,omitempty"`
	Limit        int           `json:"limit,omitempty"`
}
