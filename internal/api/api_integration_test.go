// internal/api/api_integration_test.go
package api_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	app "campaign-wallet/internal"
	"campaign-wallet/internal/domain"
)

// testApp is the global application instance for testing.
var testApp *app.Application

// testServer is the httptest server.
var testServer *httptest.Server

// TestMain is the special entry point for Go tests, executed once before all tests.
func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "ledger-api-test")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create temp dir: %v\n", err)
		os.Exit(1)
	}

	// 1. Point the application at a throwaway SQLite database.
	setupEnvVars(filepath.Join(dir, "ledger.db"))

	// 2. Initialize the application.
	testApp = app.NewApplication()
	if err := testApp.Initialize(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize test application: %v\n", err)
		os.Exit(1) // Exit tests if initialization fails
	}

	// 3. Start an httptest server to test the HTTP handling layer.
	testServer = httptest.NewServer(testApp.HTTPHandler)

	// 4. Run all tests.
	code := m.Run()

	// 5. Shut down application resources after tests (e.g., database connections).
	testServer.Close()
	if err := testApp.Shutdown(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to shutdown test application: %v\n", err)
		code = 1
	}
	_ = os.RemoveAll(dir)

	os.Exit(code)
}

func setupEnvVars(sqlitePath string) {
	os.Setenv("DB_DRIVER", "sqlite3")
	os.Setenv("SQLITE_PATH", sqlitePath)
	os.Setenv("DB_AUTO_MIGRATE", "true")
	os.Setenv("REDIS_ADDR", "")
	os.Setenv("LOG_LEVEL", "error")
}

// clearDatabase removes all ledger rows so each test starts clean.
func clearDatabase(t *testing.T) {
	// Order is important due to foreign key dependencies.
	for _, table := range []string{"transactions", "wallets"} {
		_, err := testApp.DB.Exec("DELETE FROM " + table)
		require.NoError(t, err, "Failed to clear table %s", table)
	}
}

// makeRequest helper function: sends an HTTP request to the test server.
func makeRequest(t *testing.T, method, path string, body io.Reader, headers ...string) (*http.Response, string) {
	req, err := http.NewRequest(method, testServer.URL+path, body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(respBody)
}

func createWallet(t *testing.T, userID int64) int64 {
	resp, body := makeRequest(t, "POST", "/wallets", strings.NewReader(fmt.Sprintf(`{"user_id": %d}`, userID)))
	require.Equal(t, http.StatusCreated, resp.StatusCode, body)

	var wallet domain.Wallet
	require.NoError(t, json.Unmarshal([]byte(body), &wallet))
	return wallet.ID
}

func postTransaction(t *testing.T, walletID int64, body string, headers ...string) (*http.Response, string) {
	return makeRequest(t, "POST", fmt.Sprintf("/wallets/%d/transactions", walletID), strings.NewReader(body), headers...)
}

func walletBalance(t *testing.T, walletID int64) decimal.Decimal {
	resp, body := makeRequest(t, "GET", fmt.Sprintf("/wallets/%d", walletID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, body)

	var wallet domain.Wallet
	require.NoError(t, json.Unmarshal([]byte(body), &wallet))
	return wallet.Balance
}

func errorKind(t *testing.T, body string) string {
	var payload struct {
		Error struct {
			Kind string `json:"kind"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &payload))
	return payload.Error.Kind
}

// TestRecordTransactionIntegration walks a wallet through the ledger rules over HTTP.
func TestRecordTransactionIntegration(t *testing.T) {
	clearDatabase(t)
	walletID := createWallet(t, 7)

	t.Run("Deposit", func(t *testing.T) {
		resp, body := postTransaction(t, walletID, `{"amount": "100.00", "type": "DEPOSIT"}`)
		assert.Equal(t, http.StatusCreated, resp.StatusCode, body)

		var tx domain.Transaction
		require.NoError(t, json.Unmarshal([]byte(body), &tx))
		assert.NotEmpty(t, tx.ID)
		assert.Equal(t, domain.TransactionStatusCompleted, tx.Status)
		assert.True(t, decimal.NewFromInt(100).Equal(walletBalance(t, walletID)))
	})

	t.Run("PayService", func(t *testing.T) {
		resp, body := postTransaction(t, walletID, `{"amount": 30, "type": "PAY_SERVICE", "reference_id": "ref1"}`)
		assert.Equal(t, http.StatusCreated, resp.StatusCode, body)
		assert.True(t, decimal.NewFromInt(70).Equal(walletBalance(t, walletID)))
	})

	t.Run("DuplicateReference", func(t *testing.T) {
		resp, body := postTransaction(t, walletID, `{"amount": "30", "type": "PAY_SERVICE", "reference_id": "ref1"}`)
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
		assert.Equal(t, "DuplicateTransaction", errorKind(t, body))
		assert.True(t, decimal.NewFromInt(70).Equal(walletBalance(t, walletID)))
	})

	t.Run("IdempotencyKeyHeader", func(t *testing.T) {
		resp, body := postTransaction(t, walletID, `{"amount": "5", "type": "PAY_SERVICE"}`, "Idempotency-Key", "ref-h")
		assert.Equal(t, http.StatusCreated, resp.StatusCode, body)

		resp, body = postTransaction(t, walletID, `{"amount": "5", "type": "PAY_SERVICE"}`, "Idempotency-Key", "ref-h")
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
		assert.Equal(t, "DuplicateTransaction", errorKind(t, body))
		assert.True(t, decimal.NewFromInt(65).Equal(walletBalance(t, walletID)))
	})

	t.Run("InsufficientFunds", func(t *testing.T) {
		resp, body := postTransaction(t, walletID, `{"amount": "200", "type": "PAY_SERVICE", "reference_id": "ref2"}`)
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
		assert.Equal(t, "InsufficientFunds", errorKind(t, body))
	})

	t.Run("InvalidAmount", func(t *testing.T) {
		resp, body := postTransaction(t, walletID, `{"amount": "-5", "type": "DEPOSIT"}`)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "InvalidAmount", errorKind(t, body))
	})

	t.Run("InvalidType", func(t *testing.T) {
		resp, body := postTransaction(t, walletID, `{"amount": "5", "type": "WITHDRAW"}`)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "InvalidType", errorKind(t, body))
	})

	t.Run("MalformedBody", func(t *testing.T) {
		resp, body := postTransaction(t, walletID, `{"amount": `)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "InvalidData", errorKind(t, body))
	})

	t.Run("WalletNotFound", func(t *testing.T) {
		resp, body := postTransaction(t, 9999, `{"amount": "5", "type": "DEPOSIT"}`)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "NotFound", errorKind(t, body))
	})
}

// TestConcurrentRequestsIntegration fires the same idempotent payment in parallel.
func TestConcurrentRequestsIntegration(t *testing.T) {
	clearDatabase(t)
	walletID := createWallet(t, 8)
	resp, body := postTransaction(t, walletID, `{"amount": "50", "type": "DEPOSIT"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode, body)

	const callers = 8
	var wg sync.WaitGroup
	codes := make([]int, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			resp, _ := postTransaction(t, walletID, `{"amount": "10", "type": "PAY_SERVICE", "reference_id": "campaign-1"}`)
			codes[i] = resp.StatusCode
		}(i)
	}
	wg.Wait()

	created := 0
	for _, code := range codes {
		if code == http.StatusCreated {
			created++
		} else {
			assert.Equal(t, http.StatusConflict, code)
		}
	}
	assert.Equal(t, 1, created)
	assert.True(t, decimal.NewFromInt(40).Equal(walletBalance(t, walletID)))
}

// TestTransactionHistoryAndBalanceConsistency checks that the ledger explains the balance.
func TestTransactionHistoryAndBalanceConsistency(t *testing.T) {
	clearDatabase(t)
	walletID := createWallet(t, 9)

	for _, body := range []string{
		`{"amount": "500.00", "type": "DEPOSIT"}`,
		`{"amount": "150.00", "type": "PAY_SERVICE", "reference_id": "c-1"}`,
		`{"amount": "20.50", "type": "REFUND_SERVICE", "reference_id": "c-1"}`,
		`{"amount": "200.00", "type": "DEPOSIT", "status": "PENDING"}`,
	} {
		resp, respBody := postTransaction(t, walletID, body)
		require.Equal(t, http.StatusCreated, resp.StatusCode, respBody)
	}

	// 0 + 500 - 150 + 20.50 + 200
	expectedFinalBalance := decimal.RequireFromString("570.50")
	currentBalance := walletBalance(t, walletID)
	assert.True(t, expectedFinalBalance.Equal(currentBalance), "balance = %s", currentBalance)

	resp, body := makeRequest(t, "GET", fmt.Sprintf("/transactions?wallet_id=%d", walletID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	var page domain.TransactionPage
	require.NoError(t, json.Unmarshal([]byte(body), &page))
	require.Len(t, page.Transactions, 4)
	assert.Equal(t, int64(4), page.Total)

	calculated := decimal.Zero
	for _, tx := range page.Transactions {
		switch tx.Type.Direction() {
		case domain.DirectionCredit:
			calculated = calculated.Add(tx.Amount)
		case domain.DirectionDebit:
			calculated = calculated.Sub(tx.Amount)
		}
	}
	assert.True(t, currentBalance.Equal(calculated), "ledger sum %s != balance %s", calculated, currentBalance)

	t.Run("FilterAndPaginate", func(t *testing.T) {
		resp, body := makeRequest(t, "GET", fmt.Sprintf("/transactions?wallet_id=%d&type=DEPOSIT&page=1&limit=1", walletID), nil)
		require.Equal(t, http.StatusOK, resp.StatusCode, body)
		var page domain.TransactionPage
		require.NoError(t, json.Unmarshal([]byte(body), &page))
		assert.Equal(t, int64(2), page.Total)
		assert.Len(t, page.Transactions, 1)
		assert.Equal(t, 1, page.Page)
		assert.Equal(t, 1, page.Limit)

		resp, body = makeRequest(t, "GET", "/transactions?status=PENDING", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode, body)
		require.NoError(t, json.Unmarshal([]byte(body), &page))
		assert.Equal(t, int64(1), page.Total)
	})

	t.Run("DateRange", func(t *testing.T) {
		resp, body := makeRequest(t, "GET", "/transactions?start_date=2000-01-01&end_date=2000-12-31", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode, body)
		var page domain.TransactionPage
		require.NoError(t, json.Unmarshal([]byte(body), &page))
		assert.Zero(t, page.Total)

		resp, body = makeRequest(t, "GET", "/transactions?start_date=2001-01-01&end_date=2000-01-01", nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "InvalidData", errorKind(t, body))
	})

	t.Run("GetTransaction", func(t *testing.T) {
		id := page.Transactions[0].ID
		resp, body := makeRequest(t, "GET", "/transactions/"+id, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode, body)
		var tx domain.Transaction
		require.NoError(t, json.Unmarshal([]byte(body), &tx))
		assert.Equal(t, id, tx.ID)

		resp, body = makeRequest(t, "GET", "/transactions/01ARZ3NDEKTSV4RRFFQ69G5FAV", nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "NotFound", errorKind(t, body))
	})
}

func TestHealthAndMetrics(t *testing.T) {
	walletID := createWallet(t, 10)
	_, _ = postTransaction(t, walletID, `{"amount": "1", "type": "DEPOSIT"}`)

	resp, body := makeRequest(t, "GET", "/health", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "OK", body)

	resp, body = makeRequest(t, "GET", "/metrics", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "ledger_record_total")
}
