// internal/api/router.go
package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"campaign-wallet/internal/api/handler"
	"campaign-wallet/internal/metrics"
)

// NewRouter sets up and returns a new HTTP router.
func NewRouter(ledgerHandler *handler.LedgerHandler, logger *slog.Logger, allowedOrigins []string) http.Handler {
	r := chi.NewRouter()

	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}

	// Global middlewares
	r.Use(middleware.RequestID) // Add a request ID to the context
	r.Use(middleware.RealIP)    // Use the real IP address
	r.Use(middleware.Logger)    // Log HTTP requests
	r.Use(middleware.Recoverer) // Recover from panics and return 500
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", handler.IdempotencyKeyHeader},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(middleware.Timeout(handler.DefaultTimeout))

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/wallets", func(r chi.Router) {
		r.Post("/", ledgerHandler.CreateWallet)
		r.Get("/{walletID}", ledgerHandler.GetWallet)
		r.Post("/{walletID}/transactions", ledgerHandler.RecordTransaction)
	})

	r.Route("/transactions", func(r chi.Router) {
		r.Get("/", ledgerHandler.ListTransactions)
		r.Get("/{transactionID}", ledgerHandler.GetTransaction)
	})

	logger.Debug("HTTP routes registered")
	return r
}
