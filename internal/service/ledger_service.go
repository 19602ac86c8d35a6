// internal/service/ledger_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"campaign-wallet/internal/domain"
	"campaign-wallet/internal/repository"
	"campaign-wallet/internal/util"
	"campaign-wallet/pkg/db"

	"github.com/shopspring/decimal"
)

// LedgerService is the wallet ledger: the only code path that changes a wallet
// balance, always together with appending a ledger entry.
type LedgerService interface {
	// RecordTransaction validates the input, appends a ledger entry and moves the
	// wallet balance as one atomic step inside uow.
	RecordTransaction(ctx context.Context, in RecordTransactionInput, uow UnitOfWork) (*domain.Transaction, error)
	// BeginUnitOfWork opens a transaction for callers that want to compose
	// several ledger calls and own the commit themselves.
	BeginUnitOfWork(ctx context.Context) (db.TxController, error)
	// WithUnitOfWork runs fn in one transaction, commits if fn succeeds and rolls
	// back otherwise. Ledger events are published only after the commit.
	WithUnitOfWork(ctx context.Context, fn func(uow UnitOfWork) error) error
	// CreateWallet provisions an empty wallet for a user.
	CreateWallet(ctx context.Context, userID int64) (*domain.Wallet, error)
	// GetWallet reads a wallet outside any unit of work.
	GetWallet(ctx context.Context, walletID int64) (*domain.Wallet, error)
}

// RecordTransactionInput is the request to post one ledger entry.
type RecordTransactionInput struct {
	WalletID int64
	// Amount is the decimal magnitude as text, e.g. "30.00". Direction comes from Type.
	Amount string
	// Status defaults to COMPLETED when empty.
	Status domain.TransactionStatus
	Type   domain.TransactionType
	// ReferenceID is the external idempotency key; nil or blank means none.
	ReferenceID *string
}

// EventPublisher announces committed ledger entries to other services.
type EventPublisher interface {
	PublishTransactionRecorded(ctx context.Context, transaction *domain.Transaction, balanceAfter decimal.Decimal) error
}

// Recorder observes the outcome of every RecordTransaction call.
type Recorder interface {
	ObserveRecord(txType domain.TransactionType, outcome string, elapsed time.Duration)
}

// Outcomes reported to the Recorder besides the error kinds.
const (
	OutcomeCommitted = "committed" // ledger committed its own unit of work
	OutcomeRecorded  = "recorded"  // written inside a caller-owned unit of work
)

// Option customizes a ledger service.
type Option func(*ledgerService)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *ledgerService) { s.logger = logger }
}

// WithPublisher sets the publisher for committed ledger entries.
func WithPublisher(p EventPublisher) Option {
	return func(s *ledgerService) { s.publisher = p }
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(s *ledgerService) { s.recorder = r }
}

// WithClock replaces time.Now for entry and balance timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *ledgerService) { s.now = now }
}

// ledgerService implements the LedgerService interface.
type ledgerService struct {
	dbBeginner      db.DBTxBeginner       // For starting transactions (e.g., *sqlx.DB)
	dbExecutor      repository.DBExecutor // For non-transactional reads (e.g., *sqlx.DB)
	walletRepo      repository.WalletRepository
	transactionRepo repository.TransactionRepository
	beginTx         db.BeginTxFunc
	commitTx        db.CommitTxFunc
	rollbackTx      db.RollbackTxFunc

	logger    *slog.Logger
	publisher EventPublisher
	recorder  Recorder
	now       func() time.Time
}

// NewLedgerService creates a new instance of LedgerService.
func NewLedgerService(
	dbBeginner db.DBTxBeginner,
	dbExecutor repository.DBExecutor,
	walletRepo repository.WalletRepository,
	transactionRepo repository.TransactionRepository,
	beginTx db.BeginTxFunc,
	commitTx db.CommitTxFunc,
	rollbackTx db.RollbackTxFunc,
	opts ...Option,
) LedgerService {
	s := &ledgerService{
		dbBeginner:      dbBeginner,
		dbExecutor:      dbExecutor,
		walletRepo:      walletRepo,
		transactionRepo: transactionRepo,
		beginTx:         beginTx,
		commitTx:        commitTx,
		rollbackTx:      rollbackTx,
		logger:          slog.Default(),
		publisher:       noopPublisher{},
		recorder:        noopRecorder{},
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// recordCommand is a validated RecordTransactionInput.
type recordCommand struct {
	walletID    int64
	amount      decimal.Decimal
	status      domain.TransactionStatus
	txType      domain.TransactionType
	referenceID *string
}

func validateRecordInput(in RecordTransactionInput) (recordCommand, error) {
	amount, err := domain.ParseMoney("amount", in.Amount)
	if err != nil {
		return recordCommand{}, err
	}
	if amount.IsNegative() {
		return recordCommand{}, util.NewError(util.KindInvalidAmount, "amount must not be negative, got %s", amount)
	}
	if in.Type.Direction() == domain.DirectionNone {
		return recordCommand{}, util.NewError(util.KindInvalidType, "transaction type %q cannot be recorded by the ledger", in.Type)
	}

	status := in.Status
	if status == "" {
		status = domain.TransactionStatusCompleted
	}
	if !status.Known() {
		return recordCommand{}, util.NewError(util.KindInvalidData, "unknown transaction status %q", in.Status)
	}

	var referenceID *string
	if in.ReferenceID != nil {
		if ref := strings.TrimSpace(*in.ReferenceID); ref != "" {
			referenceID = &ref
		}
	}

	return recordCommand{
		walletID:    in.WalletID,
		amount:      amount,
		status:      status,
		txType:      in.Type,
		referenceID: referenceID,
	}, nil
}

// RecordTransaction posts one ledger entry. Input is validated before any unit
// of work is opened; the wallet row is locked before the duplicate and funds
// checks so that concurrent calls on the same wallet are serialized.
func (s *ledgerService) RecordTransaction(ctx context.Context, in RecordTransactionInput, uow UnitOfWork) (transaction *domain.Transaction, err error) {
	started := time.Now()
	defer func() {
		s.recorder.ObserveRecord(in.Type, outcomeOf(err, uow), time.Since(started))
	}()

	cmd, err := validateRecordInput(in)
	if err != nil {
		s.logger.Warn("Ledger input rejected", "kind", util.KindOf(err), "wallet_id", in.WalletID, "error", err)
		return nil, err
	}

	txController := uow.tx
	if uow.owner == OwnedByLedger {
		txController, err = s.beginTx(ctx, s.dbBeginner)
		if err != nil {
			return nil, s.fail(cmd, fmt.Errorf("record transaction: failed to begin transaction: %w", err))
		}
		defer s.rollbackTx(txController)
	}

	txExecutor, ok := txController.(repository.DBExecutor)
	if !ok {
		return nil, s.fail(cmd, errors.New("record transaction: unit of work does not implement DBExecutor"))
	}

	transaction, balanceAfter, err := s.post(ctx, txExecutor, cmd)
	if err != nil {
		return nil, s.fail(cmd, err)
	}

	if uow.owner == OwnedByLedger {
		if err := s.commitTx(txController); err != nil {
			return nil, s.fail(cmd, fmt.Errorf("record transaction: failed to commit transaction: %w", err))
		}
		s.publish(ctx, transaction, balanceAfter)
	} else if uow.hooks != nil {
		uow.hooks.add(func(ctx context.Context) { s.publish(ctx, transaction, balanceAfter) })
	}

	s.logger.Info("Ledger transaction recorded",
		"transaction_id", transaction.ID,
		"wallet_id", transaction.WalletID,
		"type", transaction.Type,
		"amount", transaction.Amount.String(),
		"balance_after", balanceAfter.String(),
		"owned_unit_of_work", uow.owner == OwnedByLedger,
	)
	return transaction, nil
}

// post runs the read-check-write sequence on q. Every business rule is checked
// before the first write, so a rejected call leaves q untouched.
func (s *ledgerService) post(ctx context.Context, q repository.DBExecutor, cmd recordCommand) (*domain.Transaction, decimal.Decimal, error) {
	wallet, err := s.walletRepo.GetWalletForUpdate(ctx, q, cmd.walletID)
	if err != nil {
		return nil, decimal.Zero, fmt.Errorf("record transaction: failed to get wallet %d: %w", cmd.walletID, err)
	}

	if cmd.referenceID != nil {
		existing, err := s.transactionRepo.FindActiveByReference(ctx, q, *cmd.referenceID, cmd.txType)
		if err == nil {
			return nil, decimal.Zero, util.NewError(util.KindDuplicateTransaction,
				"reference %q already recorded for type %s as transaction %s", *cmd.referenceID, cmd.txType, existing.ID)
		}
		if !errors.Is(err, util.ErrNotFound) {
			return nil, decimal.Zero, fmt.Errorf("record transaction: failed to check reference %q: %w", *cmd.referenceID, err)
		}
	}

	var balanceAfter decimal.Decimal
	switch cmd.txType.Direction() {
	case domain.DirectionDebit:
		if wallet.Balance.LessThan(cmd.amount) {
			return nil, decimal.Zero, util.NewError(util.KindInsufficientFunds,
				"wallet %d balance %s is less than %s", wallet.ID, wallet.Balance.StringFixed(2), cmd.amount.StringFixed(2))
		}
		balanceAfter = wallet.Balance.Sub(cmd.amount)
	case domain.DirectionCredit:
		balanceAfter = wallet.Balance.Add(cmd.amount)
	default:
		return nil, decimal.Zero, util.NewError(util.KindInvalidType, "transaction type %q cannot be recorded by the ledger", cmd.txType)
	}

	now := s.now().UTC()
	transaction := domain.NewTransaction(wallet.ID, cmd.amount, cmd.status, cmd.txType, cmd.referenceID, now)
	if err := s.transactionRepo.CreateTransaction(ctx, q, transaction); err != nil {
		return nil, decimal.Zero, fmt.Errorf("record transaction: failed to create transaction: %w", err)
	}

	if err := s.walletRepo.UpdateWalletBalance(ctx, q, wallet.ID, balanceAfter, now); err != nil {
		return nil, decimal.Zero, fmt.Errorf("record transaction: failed to update wallet balance: %w", err)
	}

	return transaction, balanceAfter, nil
}

// fail logs err and returns it as a typed ledger error. Business rejections keep
// their kind; anything else becomes a TransactionCreationError carrying the
// driver code.
func (s *ledgerService) fail(cmd recordCommand, err error) error {
	typed := util.WrapTransactionCreationError(err, db.ErrorCode(err))
	kind := util.KindOf(typed)
	if kind == util.KindTransactionCreationError {
		s.logger.Error("Ledger transaction failed", "wallet_id", cmd.walletID, "type", cmd.txType, "error", err)
	} else {
		s.logger.Warn("Ledger transaction rejected", "kind", kind, "wallet_id", cmd.walletID,
			"type", cmd.txType, "reference_id", derefString(cmd.referenceID), "error", err)
	}
	return typed
}

func (s *ledgerService) publish(ctx context.Context, transaction *domain.Transaction, balanceAfter decimal.Decimal) {
	if err := s.publisher.PublishTransactionRecorded(ctx, transaction, balanceAfter); err != nil {
		s.logger.Warn("Failed to publish ledger event", "transaction_id", transaction.ID, "error", err)
	}
}

// BeginUnitOfWork opens a transaction owned by the caller.
func (s *ledgerService) BeginUnitOfWork(ctx context.Context) (db.TxController, error) {
	tx, err := s.beginTx(ctx, s.dbBeginner)
	if err != nil {
		return nil, util.WrapTransactionCreationError(fmt.Errorf("begin unit of work: %w", err), db.ErrorCode(err))
	}
	return tx, nil
}

// WithUnitOfWork runs fn inside one transaction.
func (s *ledgerService) WithUnitOfWork(ctx context.Context, fn func(uow UnitOfWork) error) error {
	txController, err := s.BeginUnitOfWork(ctx)
	if err != nil {
		return err
	}
	defer s.rollbackTx(txController)

	uow := JoinUnitOfWork(txController)
	uow.hooks = &commitHooks{}
	if err := fn(uow); err != nil {
		return err
	}

	if err := s.commitTx(txController); err != nil {
		return util.WrapTransactionCreationError(fmt.Errorf("unit of work: failed to commit transaction: %w", err), db.ErrorCode(err))
	}
	uow.hooks.run(ctx)
	return nil
}

// CreateWallet provisions an empty wallet for userID.
func (s *ledgerService) CreateWallet(ctx context.Context, userID int64) (*domain.Wallet, error) {
	if userID <= 0 {
		return nil, util.NewError(util.KindInvalidData, "user id must be positive, got %d", userID)
	}
	wallet := domain.NewWallet(userID)
	wallet.CreatedAt = s.now().UTC()
	wallet.UpdatedAt = wallet.CreatedAt
	if err := s.walletRepo.CreateWallet(ctx, s.dbExecutor, wallet); err != nil {
		return nil, util.WrapTransactionCreationError(fmt.Errorf("create wallet: %w", err), db.ErrorCode(err))
	}
	s.logger.Info("Wallet created", "wallet_id", wallet.ID, "user_id", userID)
	return wallet, nil
}

// GetWallet reads a wallet outside any unit of work.
func (s *ledgerService) GetWallet(ctx context.Context, walletID int64) (*domain.Wallet, error) {
	wallet, err := s.walletRepo.GetWalletByID(ctx, s.dbExecutor, walletID)
	if err != nil {
		return nil, fmt.Errorf("get wallet: %w", err)
	}
	return wallet, nil
}

func outcomeOf(err error, uow UnitOfWork) string {
	if err == nil {
		if uow.owner == OwnedByLedger {
			return OutcomeCommitted
		}
		return OutcomeRecorded
	}
	if kind := util.KindOf(err); kind != "" {
		return string(kind)
	}
	return string(util.KindTransactionCreationError)
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

type noopPublisher struct{}

func (noopPublisher) PublishTransactionRecorded(context.Context, *domain.Transaction, decimal.Decimal) error {
	return nil
}

type noopRecorder struct{}

func (noopRecorder) ObserveRecord(domain.TransactionType, string, time.Duration) {}
