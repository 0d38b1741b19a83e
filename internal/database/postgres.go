package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
)

// Config holds database configuration
type Config struct {
	Host     string
	Port     int
	Database string
	User     string
	Password string
	SSLMode  string
}

// Postgres represents a PostgreSQL connection
type Postgres struct {
	db *sql.DB
}

// NewPostgres creates a new PostgreSQL connection
func NewPostgres(cfg Config) (*Postgres, error) {
	if cfg.SSLMode == "" {
		cfg.SSLMode = "disable"
	}

	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, cfg.SSLMode)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	return &Postgres{db: db}, nil
}

// DB exposes the underlying connection for the stores.
func (p *Postgres) DB() *sql.DB {
	return p.db
}

// Close closes the database connection
func (p *Postgres) Close() error {
	return p.db.Close()
}

// Ping verifies the database connection
func (p *Postgres) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

// CreateTables creates the necessary database tables
func (p *Postgres) CreateTables(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS medications (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			dosage TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS schedules (
			id BIGSERIAL PRIMARY KEY,
			medication_id TEXT NOT NULL REFERENCES medications(id) ON DELETE CASCADE,
			clock_time TEXT NOT NULL,
			position INT NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS dose_history (
			id TEXT PRIMARY KEY,
			medication_id TEXT NOT NULL,
			scheduled_time TIMESTAMPTZ NOT NULL,
			actual_time TIMESTAMPTZ,
			status TEXT NOT NULL,
			delay_minutes INT NOT NULL DEFAULT 0,
			recorded_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_dose_history_scheduled
			ON dose_history(scheduled_time)`,
		`CREATE INDEX IF NOT EXISTS idx_dose_history_medication
			ON dose_history(medication_id, scheduled_time)`,
		`CREATE TABLE IF NOT EXISTS model_snapshots (
			id BIGSERIAL PRIMARY KEY,
			weights DOUBLE PRECISION[] NOT NULL,
			bias DOUBLE PRECISION NOT NULL,
			trained_at TIMESTAMPTZ NOT NULL,
			sample_count INT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
	}

	for _, query := range queries {
		if _, err := p.db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("create tables: %w", err)
		}
	}
	return nil
}
