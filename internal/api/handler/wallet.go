// internal/api/handler/wallet.go
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"campaign-wallet/internal/api/types"
	"campaign-wallet/internal/domain"
	"campaign-wallet/internal/service"
	"campaign-wallet/internal/util" // For custom errors
)

// DefaultTimeout bounds every request, including the time spent waiting for a wallet lock.
const DefaultTimeout = 30 * time.Second

// IdempotencyKeyHeader carries the reference id when the request body has none.
const IdempotencyKeyHeader = "Idempotency-Key"

// LedgerHandler handles HTTP requests for wallets and their ledger entries.
type LedgerHandler struct {
	ledger service.LedgerService
	query  service.TransactionQueryService
	logger *slog.Logger
}

// NewLedgerHandler creates a new LedgerHandler.
func NewLedgerHandler(ledger service.LedgerService, query service.TransactionQueryService, logger *slog.Logger) *LedgerHandler {
	return &LedgerHandler{
		ledger: ledger,
		query:  query,
		logger: logger,
	}
}

// Helper function to send JSON responses.
func (h *LedgerHandler) respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error("Failed to marshal JSON response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(response)
}

// Helper function to send error responses.
func (h *LedgerHandler) respondWithError(w http.ResponseWriter, err error) {
	var le *util.LedgerError
	if !errors.As(err, &le) {
		le = &util.LedgerError{Kind: util.KindTransactionCreationError, Message: err.Error()}
	}

	statusCode := http.StatusInternalServerError
	message := le.Message

	switch le.Kind {
	case util.KindInvalidData, util.KindInvalidAmount, util.KindInvalidType:
		statusCode = http.StatusBadRequest
	case util.KindNotFound:
		statusCode = http.StatusNotFound
	case util.KindDuplicateTransaction, util.KindInsufficientFunds:
		statusCode = http.StatusConflict
	default:
		h.logger.Error("Unhandled service error", "error", err)
		message = "Internal server error"
	}

	h.respondWithJSON(w, statusCode, types.ErrorResponse{Error: types.ErrorBody{
		Kind:    string(le.Kind),
		Message: message,
		Code:    le.Code,
	}})
}

func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, util.NewError(util.KindInvalidData, "%s must be a positive integer", name)
	}
	return id, nil
}

func decodeBody(r *http.Request, dest interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		return util.NewError(util.KindInvalidData, "malformed request body: %v", err)
	}
	return nil
}

// CreateWallet handles the create wallet request.
// POST /wallets
func (h *LedgerHandler) CreateWallet(w http.ResponseWriter, r *http.Request) {
	var req types.CreateWalletRequest
	if err := decodeBody(r, &req); err != nil {
		h.respondWithError(w, err)
		return
	}

	wallet, err := h.ledger.CreateWallet(r.Context(), req.UserID)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusCreated, wallet)
}

// GetWallet handles the get wallet request.
// GET /wallets/{walletID}
func (h *LedgerHandler) GetWallet(w http.ResponseWriter, r *http.Request) {
	walletID, err := pathID(r, "walletID")
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	wallet, err := h.ledger.GetWallet(r.Context(), walletID)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, wallet)
}

// RecordTransaction posts one ledger entry against a wallet.
// POST /wallets/{walletID}/transactions
func (h *LedgerHandler) RecordTransaction(w http.ResponseWriter, r *http.Request) {
	walletID, err := pathID(r, "walletID")
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	var req types.RecordTransactionRequest
	if err := decodeBody(r, &req); err != nil {
		h.respondWithError(w, err)
		return
	}
	if req.ReferenceID == nil {
		if key := r.Header.Get(IdempotencyKeyHeader); key != "" {
			req.ReferenceID = &key
		}
	}

	transaction, err := h.ledger.RecordTransaction(r.Context(), service.RecordTransactionInput{
		WalletID:    walletID,
		Amount:      req.Amount.String(),
		Status:      domain.TransactionStatus(req.Status),
		Type:        domain.TransactionType(req.Type),
		ReferenceID: req.ReferenceID,
	}, service.OwnUnitOfWork())
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusCreated, transaction)
}
