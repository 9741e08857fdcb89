package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Hopenghu/hopenghucc-sub004/internal/common/config"

	_ "github.com/lib/pq"
)

const postgresConnLifetime = 5 * time.Minute

// PostgresClient holds the pooled connection used by the profile store.
type PostgresClient struct {
	DB   *sql.DB
	host string
}

// NewPostgres opens the pool without dialing. Callers Ping before use.
func NewPostgres(cfg config.PostgresConfig) (*PostgresClient, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("postgres host is required")
	}
	db, err := sql.Open("postgres", cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("open postgres %s: %w", cfg.Host, err)
	}

	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetMaxIdleConns(cfg.MaxIdle)
	db.SetConnMaxLifetime(postgresConnLifetime)
	db.SetConnMaxIdleTime(postgresConnLifetime)

	return &PostgresClient{DB: db, host: cfg.Host}, nil
}

func (c *PostgresClient) Ping(ctx context.Context) error {
	if err := c.DB.PingContext(ctx); err != nil {
		return fmt.Errorf("postgres %s unreachable: %w", c.host, err)
	}
	return nil
}

// PoolStats reports pool usage for the health endpoint.
func (c *PostgresClient) PoolStats() map[string]interface{} {
	s := c.DB.Stats()
	return map[string]interface{}{
		"open":    s.OpenConnections,
		"inUse":   s.InUse,
		"idle":    s.Idle,
		"waitFor": s.WaitDuration.String(),
	}
}

func (c *PostgresClient) Close() error {
	if c.DB == nil {
		return nil
	}
	return c.DB.Close()
}
