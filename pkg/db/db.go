// pkg/db/db.go
package db

import (
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// Supported driver names, as registered with database/sql.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"
)

// Config holds database connection configuration.
type Config struct {
	Driver       string
	Host         string
	Port         int
	User         string
	Password     string
	DBName       string
	SSLMode      string
	SQLitePath   string
	MaxOpenConns int
	MaxIdleConns int
	AutoMigrate  bool
}

// Open connects to the configured database and, if requested, applies the schema.
func Open(cfg Config) (*sqlx.DB, error) {
	var (
		conn *sqlx.DB
		err  error
	)
	switch cfg.Driver {
	case DriverPostgres, "":
		conn, err = NewPostgresDB(cfg)
	case DriverSQLite:
		conn, err = NewSQLiteDB(cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}

	if cfg.AutoMigrate {
		if err := Migrate(conn); err != nil {
			_ = conn.Close()
			return nil, err
		}
	}
	return conn, nil
}

func applyPool(conn *sqlx.DB, maxOpen, maxIdle int) {
	if maxOpen <= 0 {
		maxOpen = 25
	}
	if maxIdle <= 0 {
		maxIdle = 10
	}
	conn.SetMaxOpenConns(maxOpen)
	conn.SetMaxIdleConns(maxIdle)
	conn.SetConnMaxLifetime(5 * time.Minute)
}
