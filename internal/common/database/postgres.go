// internal/common/database/postgres.go
// PostgreSQL connection and pool configuration

package database

import (
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL driver
)

// PostgresConfig holds database configuration
type PostgresConfig struct {
	URL            string
	MaxOpenConns   int
	MaxIdleConns   int
	MaxLifetime    time.Duration
	ConnectTimeout time.Duration
}

// NewPostgresDB creates a new PostgreSQL connection pool
func NewPostgresDB(config *PostgresConfig) (*sqlx.DB, error) {
	dsn := config.URL
	if config.ConnectTimeout > 0 {
		sep := "?"
		for _, c := range dsn {
			if c == '?' {
				sep = "&"
				break
			}
		}
		dsn = fmt.Sprintf("%s%sconnect_timeout=%d", dsn, sep, int(config.ConnectTimeout.Seconds()))
	}

	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	maxOpen := config.MaxOpenConns
	if maxOpen <= 0 {
		maxOpen = 20
	}
	maxIdle := config.MaxIdleConns
	if maxIdle <= 0 {
		maxIdle = 5
	}
	lifetime := config.MaxLifetime
	if lifetime <= 0 {
		lifetime = 5 * time.Minute
	}

	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
	db.SetConnMaxLifetime(lifetime)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// NewPostgresDBFromURL creates a connection pool with default settings
func NewPostgresDBFromURL(databaseURL string) (*sqlx.DB, error) {
	return NewPostgresDB(&PostgresConfig{
		URL:            databaseURL,
		MaxOpenConns:   20,
		MaxIdleConns:   5,
		MaxLifetime:    5 * time.Minute,
		ConnectTimeout: 2 * time.Second,
	})
}
