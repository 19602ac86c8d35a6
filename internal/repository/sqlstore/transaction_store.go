// internal/repository/sqlstore/transaction_store.go
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"campaign-wallet/internal/domain"
	"campaign-wallet/internal/repository"
	"campaign-wallet/internal/util"
	"campaign-wallet/pkg/db"
)

// TransactionRepository implements repository.TransactionRepository on sqlx.
type TransactionRepository struct{}

// NewTransactionRepository creates a new TransactionRepository.
func NewTransactionRepository() repository.TransactionRepository {
	return &TransactionRepository{}
}

const transactionColumns = `id, wallet_id, amount, status, type, reference_id, is_deleted, created_at, updated_at`

// CreateTransaction inserts a new ledger entry using the provided DBExecutor.
func (r *TransactionRepository) CreateTransaction(ctx context.Context, q repository.DBExecutor, transaction *domain.Transaction) error {
	query := q.Rebind(`INSERT INTO transactions (` + transactionColumns + `)
	          VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)

	_, err := q.ExecContext(ctx, query,
		transaction.ID,
		transaction.WalletID,
		transaction.Amount,
		transaction.Status,
		transaction.Type,
		transaction.ReferenceID,
		transaction.IsDeleted,
		transaction.CreatedAt,
		transaction.UpdatedAt,
	)
	if err != nil {
		if db.IsUniqueViolation(err) && transaction.ReferenceID != nil {
			return &util.LedgerError{
				Kind:    util.KindDuplicateTransaction,
				Message: fmt.Sprintf("reference %q already recorded for type %s", *transaction.ReferenceID, transaction.Type),
				Code:    db.ErrorCode(err),
				Err:     err,
			}
		}
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	return nil
}

// FindActiveByReference looks up the non-deleted entry for (referenceID, txType).
func (r *TransactionRepository) FindActiveByReference(ctx context.Context, q repository.DBExecutor, referenceID string, txType domain.TransactionType) (*domain.Transaction, error) {
	var transaction domain.Transaction
	query := q.Rebind(`SELECT ` + transactionColumns + ` FROM transactions
		WHERE reference_id = ? AND type = ? AND is_deleted = FALSE`)
	err := q.GetContext(ctx, &transaction, query, referenceID, txType)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, util.NewError(util.KindNotFound, "no transaction for reference %q", referenceID)
		}
		return nil, fmt.Errorf("failed to look up reference %q: %w", referenceID, err)
	}
	return &transaction, nil
}

// GetTransactionByID retrieves a ledger entry by its ID.
func (r *TransactionRepository) GetTransactionByID(ctx context.Context, q repository.DBExecutor, id string) (*domain.Transaction, error) {
	var transaction domain.Transaction
	query := q.Rebind(`SELECT ` + transactionColumns + ` FROM transactions WHERE id = ?`)
	err := q.GetContext(ctx, &transaction, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, util.NewError(util.KindNotFound, "transaction %s not found", id)
		}
		return nil, fmt.Errorf("failed to get transaction %s: %w", id, err)
	}
	return &transaction, nil
}

// ListTransactions retrieves the filtered ledger entries, newest first.
// It performs two queries: one for the total count and one for the page.
func (r *TransactionRepository) ListTransactions(ctx context.Context, q repository.DBExecutor, filter domain.TransactionFilter) ([]domain.Transaction, int64, error) {
	where, args := buildTransactionFilter(filter)

	var total int64
	countQuery := q.Rebind(`SELECT COUNT(*) FROM transactions WHERE ` + where)
	if err := q.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count transactions: %w", err)
	}

	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE ` + where +
		` ORDER BY created_at DESC, id DESC`
	if filter.Paginated() {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, filter.Limit, filter.Offset())
	}

	transactions := []domain.Transaction{}
	if err := q.SelectContext(ctx, &transactions, q.Rebind(query), args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list transactions: %w", err)
	}
	return transactions, total, nil
}

func buildTransactionFilter(f domain.TransactionFilter) (string, []interface{}) {
	clauses := []string{"is_deleted = FALSE"}
	var args []interface{}

	if f.WalletID != nil {
		clauses = append(clauses, "wallet_id = ?")
		args = append(args, *f.WalletID)
	}
	if f.Status != nil {
		clauses = append(clauses, "status = ?")
		args = append(args, *f.Status)
	}
	if f.Type != nil {
		clauses = append(clauses, "type = ?")
		args = append(args, *f.Type)
	}
	if f.StartDate != nil {
		clauses = append(clauses, "created_at >= ?")
		args = append(args, f.StartDate.UTC())
	}
	if f.EndDate != nil {
		clauses = append(clauses, "created_at <= ?")
		args = append(args, f.EndDate.UTC())
	}
	return strings.Join(clauses, " AND "), args
}
