// internal/api/handler/transaction.go
package handler

import (
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"campaign-wallet/internal/domain"
	"campaign-wallet/internal/util"
)

const dateOnly = "2006-01-02"

// ListTransactions handles the transaction search request.
// GET /transactions?wallet_id=&status=&type=&start_date=&end_date=&page=&limit=
func (h *LedgerHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	filter, err := parseTransactionFilter(r.URL.Query())
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	page, err := h.query.ListTransactions(r.Context(), filter)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, page)
}

// GetTransaction handles the get transaction request.
// GET /transactions/{transactionID}
func (h *LedgerHandler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	transaction, err := h.query.GetTransactionByID(r.Context(), chi.URLParam(r, "transactionID"))
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, transaction)
}

func parseTransactionFilter(q url.Values) (domain.TransactionFilter, error) {
	var filter domain.TransactionFilter

	if raw := q.Get("wallet_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return filter, util.NewError(util.KindInvalidData, "wallet_id %q is not an integer", raw)
		}
		filter.WalletID = &id
	}
	if raw := q.Get("status"); raw != "" {
		status := domain.TransactionStatus(raw)
		if !status.Known() {
			return filter, util.NewError(util.KindInvalidData, "unknown status %q", raw)
		}
		filter.Status = &status
	}
	if raw := q.Get("type"); raw != "" {
		txType := domain.TransactionType(raw)
		if !txType.Known() {
			return filter, util.NewError(util.KindInvalidType, "unknown transaction type %q", raw)
		}
		filter.Type = &txType
	}

	var err error
	if filter.StartDate, err = parseDate("start_date", q.Get("start_date"), false); err != nil {
		return filter, err
	}
	if filter.EndDate, err = parseDate("end_date", q.Get("end_date"), true); err != nil {
		return filter, err
	}
	if filter.Page, err = parseNonNegative("page", q.Get("page")); err != nil {
		return filter, err
	}
	if filter.Limit, err = parseNonNegative("limit", q.Get("limit")); err != nil {
		return filter, err
	}
	return filter, nil
}

// parseDate accepts RFC 3339 or a bare date. A bare end date covers the whole day.
func parseDate(name, raw string, endOfDay bool) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	t, err := time.Parse(dateOnly, raw)
	if err != nil {
		return nil, util.NewError(util.KindInvalidData, "%s %q must be RFC 3339 or YYYY-MM-DD", name, raw)
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}

func parseNonNegative(name, raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, util.NewError(util.KindInvalidData, "%s must be a non-negative integer", name)
	}
	return v, nil
}
