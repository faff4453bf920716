package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/skyops/briefhub/pkg/config"
)

//go:embed schema.sql
var schemaSQL embed.FS

// DB wraps a database connection with helper methods.
type DB struct {
	*sql.DB
	config config.DatabaseConfig
}

// Connect establishes a connection to the PostgreSQL database.
func Connect(cfg config.DatabaseConfig) (*DB, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host,
		cfg.Port,
		cfg.Username,
		cfg.Password,
		cfg.Database,
		cfg.SSLMode,
	)

	sqlDB, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Hour)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db := &DB{
		DB:     sqlDB,
		config: cfg,
	}

	return db, nil
}

// InitSchema creates or updates the database schema.
// This should be called once at application startup.
func (db *DB) InitSchema(ctx context.Context) error {
	schemaBytes, err := schemaSQL.ReadFile("schema.sql")
	if err != nil {
		return fmt.Errorf("failed to read schema file: %w", err)
	}

	if _, err := db.ExecContext(ctx, string(schemaBytes)); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	return nil
}

// CleanupOldData removes lookup and fetch history older than maxAge.
// Should be called periodically to prevent unbounded growth.
func (db *DB) CleanupOldData(ctx context.Context, maxAge time.Duration) error {
	cutoff := time.Now().UTC().Add(-maxAge)

	_, err := db.ExecContext(ctx,
		`DELETE FROM cdm_lookups WHERE looked_up_at < $1`,
		cutoff,
	)
	if err != nil {
		return fmt.Errorf("failed to delete old lookups: %w", err)
	}

	_, err = db.ExecContext(ctx,
		`DELETE FROM ofp_fetches WHERE fetched_at < $1`,
		cutoff,
	)
	if err != nil {
		return fmt.Errorf("failed to delete old fetches: %w", err)
	}

	return nil
}

// GetStats returns database statistics.
func (db *DB) GetStats(ctx context.Context) (map[string]interface{}, error) {
	stats := make(map[string]interface{})

	var lookupCount int64
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM cdm_lookups`,
	).Scan(&lookupCount)
	if err != nil {
		return nil, err
	}
	stats["cdm_lookups"] = lookupCount

	var successCount int64
	err = db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM cdm_lookups WHERE status = 'Success'`,
	).Scan(&successCount)
	if err != nil {
		return nil, err
	}
	stats["cdm_lookups_success"] = successCount

	var fetchCount int64
	err = db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM ofp_fetches`,
	).Scan(&fetchCount)
	if err != nil {
		return nil, err
	}
	stats["ofp_fetches"] = fetchCount

	return stats, nil
}
