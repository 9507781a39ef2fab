// Package db opens the PostgreSQL pool shared by every stage of a run.
package db

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"sentiment-labeler/internal/config"

	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	parsePoolConfig = pgxpool.ParseConfig
	newPool         = pgxpool.NewWithConfig
	pingPool        = func(ctx context.Context, pool *pgxpool.Pool) error { return pool.Ping(ctx) }
)

// BuildConnString builds a PostgreSQL connection string from config.
func BuildConnString(cfg config.DBConfig) string {
	// URL-encode password to handle special characters
	escapedPassword := url.QueryEscape(cfg.Password)

	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "prefer"
	}

	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.User,
		escapedPassword,
		cfg.Host,
		cfg.Port,
		cfg.Name,
		sslMode,
	)
}

// DSN returns DATABASE_URL when set, otherwise a DSN assembled from the DB_* settings.
func DSN(cfg *config.Config) string {
	if dsn := strings.TrimSpace(cfg.DatabaseURL); dsn != "" {
		return dsn
	}
	return BuildConnString(cfg.DB)
}

// Connect creates the connection pool and verifies it with a ping.
func Connect(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	poolCfg, err := parsePoolConfig(DSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}
	if cfg.DB.MaxConns > 0 {
		poolCfg.MaxConns = int32(cfg.DB.MaxConns)
	}

	pool, err := newPool(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pingPool(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}
