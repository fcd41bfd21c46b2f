package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"synq/backend/internal/config"
)

// InitPostgres opens the sqlx pool used by the audit log, API keys and the
// health check. Postgres may still be starting, so the connect is retried.
func InitPostgres(ctx context.Context, cfg config.DBConfig) (*sqlx.DB, error) {
	var (
		conn *sqlx.DB
		err  error
	)

	for i := 0; i < 10; i++ {
		conn, err = sqlx.ConnectContext(ctx, "postgres", cfg.DSN())
		if err == nil {
			conn.SetMaxIdleConns(cfg.MaxIdleConns)
			conn.SetMaxOpenConns(cfg.MaxOpenConns)
			conn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
			return conn, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(500 * time.Millisecond):
		}
	}
	return nil, fmt.Errorf("failed to connect to postgres (sqlx): %w", err)
}
