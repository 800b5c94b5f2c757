// Package destdb provides Postgres connection management for sheetmigrate.
package destdb

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // Postgres driver

	"github.com/sheetwise/sheetmigrate/internal/config"
)

// Manager handles the destination database connection.
type Manager struct {
	DB     *sql.DB
	config *config.DestinationConfig
}

// NewManager creates a new database manager from configuration.
func NewManager(cfg *config.DestinationConfig) *Manager {
	return &Manager{config: cfg}
}

// Connect establishes the destination connection, retrying transient
// failures with exponential backoff.
func (m *Manager) Connect(ctx context.Context) error {
	var db *sql.DB
	var err error

	maxRetries := 3
	backoff := time.Second

	for i := 0; i < maxRetries; i++ {
		db, err = m.open()
		if err == nil {
			if pingErr := db.PingContext(ctx); pingErr == nil {
				m.DB = db
				return nil
			} else {
				db.Close()
				err = pingErr
			}
		}

		if i < maxRetries-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
				backoff *= 2 // Exponential backoff
			}
		}
	}

	return fmt.Errorf("failed to connect to destination after %d retries: %w", maxRetries, err)
}

// open creates the database handle and configures its pool.
func (m *Manager) open() (*sql.DB, error) {
	db, err := sql.Open("pgx", BuildDSN(m.config))
	if err != nil {
		return nil, err
	}

	if m.config.MaxConnections > 0 {
		db.SetMaxOpenConns(m.config.MaxConnections)
	}
	if m.config.MaxIdleConnections > 0 {
		db.SetMaxIdleConns(m.config.MaxIdleConnections)
	}
	db.SetConnMaxLifetime(10 * time.Minute)

	return db, nil
}

// BuildDSN constructs a Postgres DSN from configuration.
func BuildDSN(cfg *config.DestinationConfig) string {
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "prefer"
	}

	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.Database,
		sslMode,
	)
}

// Close closes the destination connection gracefully.
func (m *Manager) Close() error {
	if m.DB == nil {
		return nil
	}
	if err := m.DB.Close(); err != nil {
		return fmt.Errorf("destination close: %w", err)
	}
	return nil
}

// Ping verifies the connection is alive.
func (m *Manager) Ping(ctx context.Context) error {
	if m.DB == nil {
		return fmt.Errorf("not connected")
	}
	if err := m.DB.PingContext(ctx); err != nil {
		return fmt.Errorf("destination ping failed: %w", err)
	}
	return nil
}
