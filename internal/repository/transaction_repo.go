// internal/repository/transaction_repo.go
package repository

import (
	"context"

	"campaign-wallet/internal/domain"
)

// TransactionRepository defines the interface for ledger entry operations.
// There is no update method: ledger entries are immutable.
type TransactionRepository interface {
	// CreateTransaction appends a ledger entry. A lost race on (reference_id, type)
	// is reported as a DuplicateTransaction error.
	CreateTransaction(ctx context.Context, q DBExecutor, transaction *domain.Transaction) error
	// FindActiveByReference returns the non-deleted entry for (referenceID, txType),
	// or a NotFound error.
	FindActiveByReference(ctx context.Context, q DBExecutor, referenceID string, txType domain.TransactionType) (*domain.Transaction, error)
	// GetTransactionByID retrieves an entry by ID, deleted or not.
	GetTransactionByID(ctx context.Context, q DBExecutor, id string) (*domain.Transaction, error)
	// ListTransactions returns the filtered page and the size of the whole filtered set.
	ListTransactions(ctx context.Context, q DBExecutor, filter domain.TransactionFilter) ([]domain.Transaction, int64, error)
}
