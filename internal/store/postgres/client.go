// Package postgres implements store.Store on PostgreSQL through pgxpool, for
// canons shared by several engines or served next to other services.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"livingcanon/internal/store"
)

var _ store.Store = (*Client)(nil)

// applicationName tags engine sessions in pg_stat_activity.
const applicationName = "livingcanon"

type Client struct {
	pool *pgxpool.Pool
}

// New connects to the canon database named by a postgres:// DSN.
func New(ctx context.Context, dsn string) (*Client, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parsing canon store DSN: %w", err)
	}
	if _, ok := cfg.ConnConfig.RuntimeParams["application_name"]; !ok {
		cfg.ConnConfig.RuntimeParams["application_name"] = applicationName
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connecting to canon store: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("reaching canon store at %s: %w", cfg.ConnConfig.Host, err)
	}
	return &Client{pool: pool}, nil
}

func (c *Client) Close(ctx context.Context) error {
	c.pool.Close()
	return nil
}
