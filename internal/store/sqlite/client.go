// Package sqlite implements store.Store on a single SQLite file, holding the
// ingested sources, their FTS5 index and the engine's checkpoint log.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"livingcanon/internal/store"

	_ "modernc.org/sqlite"
)

var _ store.Store = (*Client)(nil)

const openTimeout = 30 * time.Second

// connPragmas apply to the one pooled connection.
var connPragmas = []string{
	"PRAGMA busy_timeout = 30000;",
	"PRAGMA journal_mode = WAL;",
	"PRAGMA foreign_keys = ON;",
}

type Client struct {
	db *sql.DB
}

// New opens the canon database named by a sqlite:// DSN.
func New(ctx context.Context, dsn string) (*Client, error) {
	path, err := parseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("opening canon store: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening canon store %s: %w", path, err)
	}
	// :memory: databases live on this single connection.
	db.SetMaxOpenConns(1)

	ctx, cancel := context.WithTimeout(ctx, openTimeout)
	defer cancel()

	if err := prepare(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("opening canon store %s: %w", path, err)
	}
	return &Client{db: db}, nil
}

func prepare(ctx context.Context, db *sql.DB) error {
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	for _, pragma := range connPragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			return fmt.Errorf("%s: %w", pragma, err)
		}
	}
	return nil
}

func (c *Client) Close(ctx context.Context) error {
	return c.db.Close()
}
