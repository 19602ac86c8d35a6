// internal/service/transaction_query.go
package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"campaign-wallet/internal/domain"
	"campaign-wallet/internal/repository"
	"campaign-wallet/internal/util"
)

// TransactionQueryService is the read-only view of the ledger. It never runs
// inside a unit of work.
type TransactionQueryService interface {
	ListTransactions(ctx context.Context, filter domain.TransactionFilter) (*domain.TransactionPage, error)
	GetTransactionByID(ctx context.Context, id string) (*domain.Transaction, error)
}

type transactionQueryService struct {
	dbExecutor      repository.DBExecutor
	transactionRepo repository.TransactionRepository
}

// NewTransactionQueryService creates a new TransactionQueryService.
func NewTransactionQueryService(dbExecutor repository.DBExecutor, transactionRepo repository.TransactionRepository) TransactionQueryService {
	return &transactionQueryService{
		dbExecutor:      dbExecutor,
		transactionRepo: transactionRepo,
	}
}

// ListTransactions returns non-deleted entries matching filter, newest first.
// Total is the size of the filtered set before pagination.
func (s *transactionQueryService) ListTransactions(ctx context.Context, filter domain.TransactionFilter) (*domain.TransactionPage, error) {
	if filter.StartDate != nil && filter.EndDate != nil && filter.EndDate.Before(*filter.StartDate) {
		return nil, util.NewError(util.KindInvalidData, "end_date %s is before start_date %s",
			filter.EndDate.Format(time.RFC3339), filter.StartDate.Format(time.RFC3339))
	}

	transactions, total, err := s.transactionRepo.ListTransactions(ctx, s.dbExecutor, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve transactions: %w", err)
	}

	page := &domain.TransactionPage{
		Transactions: transactions,
		Total:        total,
	}
	if filter.Paginated() {
		page.Page = filter.Page
		page.Limit = filter.Limit
	}
	return page, nil
}

// GetTransactionByID returns one entry. Soft-deleted entries are returned with
// IsDeleted set so the caller can decide how to treat them.
func (s *transactionQueryService) GetTransactionByID(ctx context.Context, id string) (*domain.Transaction, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, util.NewError(util.KindInvalidData, "transaction id is required")
	}
	transaction, err := s.transactionRepo.GetTransactionByID(ctx, s.dbExecutor, id)
	if err != nil {
		return nil, fmt.Errorf("get transaction: %w", err)
	}
	return transaction, nil
}
