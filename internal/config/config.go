// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"campaign-wallet/pkg/db" // Import db package for its Config struct
)

// AppConfig holds all application-wide configurations.
type AppConfig struct {
	ServerPort         string
	LogLevel           string
	CORSAllowedOrigins []string
	DB                 db.Config
	Redis              RedisConfig
}

// RedisConfig configures ledger event publishing. An empty Addr disables it.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Channel  string
}

// Enabled reports whether ledger events should be published.
func (c RedisConfig) Enabled() bool {
	return c.Addr != ""
}

// LoadConfig loads configuration from environment variables, after reading an
// optional .env file from the working directory. Variables already set in the
// environment win over the file.
// It returns an AppConfig instance or an error if any variable is invalid.
func LoadConfig() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env file: %w", err)
	}

	dbPort, err := getEnvAsInt("DB_PORT", 5432)
	if err != nil {
		return nil, err
	}
	maxOpen, err := getEnvAsInt("DB_MAX_OPEN_CONNS", 25)
	if err != nil {
		return nil, err
	}
	maxIdle, err := getEnvAsInt("DB_MAX_IDLE_CONNS", 10)
	if err != nil {
		return nil, err
	}
	autoMigrate, err := getEnvAsBool("DB_AUTO_MIGRATE", true)
	if err != nil {
		return nil, err
	}
	redisDB, err := getEnvAsInt("REDIS_DB", 0)
	if err != nil {
		return nil, err
	}

	driver := getEnv("DB_DRIVER", db.DriverPostgres)
	if driver != db.DriverPostgres && driver != db.DriverSQLite {
		return nil, fmt.Errorf("invalid DB_DRIVER %q: want %s or %s", driver, db.DriverPostgres, db.DriverSQLite)
	}

	return &AppConfig{
		ServerPort:         getEnv("SERVER_PORT", "8080"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		CORSAllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		DB: db.Config{
			Driver:       driver,
			Host:         getEnv("DB_HOST", "localhost"), // Default to localhost for local development
			Port:         dbPort,
			User:         getEnv("DB_USER", "user"),
			Password:     getEnv("DB_PASSWORD", "password"),
			DBName:       getEnv("DB_NAME", "walletdb"),
			SSLMode:      getEnv("DB_SSLMODE", "disable"),
			SQLitePath:   getEnv("SQLITE_PATH", "ledger.db"),
			MaxOpenConns: maxOpen,
			MaxIdleConns: maxIdle,
			AutoMigrate:  autoMigrate,
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
			Channel:  getEnv("LEDGER_EVENTS_CHANNEL", "ledger_events"),
		},
	}, nil
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) (int, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func getEnvAsBool(key string, fallback bool) (bool, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
