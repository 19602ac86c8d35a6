// internal/app.go
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	router "campaign-wallet/internal/api"
	"campaign-wallet/internal/api/handler"
	"campaign-wallet/internal/config"
	"campaign-wallet/internal/events"
	"campaign-wallet/internal/metrics"
	"campaign-wallet/internal/repository"
	"campaign-wallet/internal/repository/sqlstore"
	"campaign-wallet/internal/service"
	"campaign-wallet/internal/util"
	"campaign-wallet/pkg/db"
)

// Application holds all the initialized components of the application.
type Application struct {
	Config *config.AppConfig
	Logger *slog.Logger
	DB     *sqlx.DB
	Redis  *redis.Client

	// Repositories
	WalletRepository      repository.WalletRepository
	TransactionRepository repository.TransactionRepository

	// Services
	LedgerService service.LedgerService
	QueryService  service.TransactionQueryService

	// HTTP API
	HTTPHandler http.Handler
}

// NewApplication creates a new Application instance.
func NewApplication() *Application {
	return &Application{Logger: slog.Default()}
}

// Initialize initializes all application components.
func (app *Application) Initialize(ctx context.Context) error {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	app.Config = cfg

	// 2. Initialize Logger
	util.InitLogger(cfg.LogLevel)
	app.Logger = util.GetLogger()
	app.Logger.Info("Application configuration loaded successfully.", "db_driver", cfg.DB.Driver)

	// 3. Connect to Database
	database, err := db.Open(cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	app.DB = database
	app.Logger.Info("Database connection established.", "auto_migrate", cfg.DB.AutoMigrate)

	// 4. Initialize Repositories
	app.WalletRepository = sqlstore.NewWalletRepository()
	app.TransactionRepository = sqlstore.NewTransactionRepository()

	// 5. Initialize Services
	opts := []service.Option{
		service.WithLogger(app.Logger),
		service.WithRecorder(metrics.NewLedgerRecorder()),
	}
	if cfg.Redis.Enabled() {
		rdb, err := events.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return err
		}
		app.Redis = rdb
		opts = append(opts, service.WithPublisher(events.NewTransactionEventPublisher(rdb, cfg.Redis.Channel, app.Logger)))
		app.Logger.Info("Ledger events enabled.", "channel", cfg.Redis.Channel)
	}

	// Pass the concrete db.BeginTx, db.CommitTx, db.RollbackTx functions from pkg/db
	app.LedgerService = service.NewLedgerService(
		app.DB, // This is the DBTxBeginner
		app.DB, // This is the DBExecutor
		app.WalletRepository,
		app.TransactionRepository,
		db.BeginTx,
		db.CommitTx,
		db.RollbackTx,
		opts...,
	)
	app.QueryService = service.NewTransactionQueryService(app.DB, app.TransactionRepository)
	app.Logger.Info("Services initialized.")

	// 6. Initialize HTTP Handlers and Router
	ledgerHandler := handler.NewLedgerHandler(app.LedgerService, app.QueryService, app.Logger)
	app.HTTPHandler = router.NewRouter(ledgerHandler, app.Logger, cfg.CORSAllowedOrigins)
	app.Logger.Info("HTTP router and handlers initialized.")

	return nil
}

// Shutdown gracefully shuts down application resources.
func (app *Application) Shutdown(ctx context.Context) error {
	app.Logger.Info("Shutting down application...")
	if app.Redis != nil {
		if err := app.Redis.Close(); err != nil {
			app.Logger.Error("Failed to close redis connection", "error", err)
		}
	}
	if app.DB != nil {
		if err := app.DB.Close(); err != nil {
			app.Logger.Error("Failed to close database connection", "error", err)
			return fmt.Errorf("failed to close database connection: %w", err)
		}
		app.Logger.Info("Database connection closed.")
	}
	app.Logger.Info("Application shut down gracefully.")
	return nil
}
