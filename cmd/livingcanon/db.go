package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"livingcanon/internal/config"
	"livingcanon/internal/store"
	"livingcanon/internal/store/postgres"
	"livingcanon/internal/store/sqlite"
)

// openDB opens the configured store and ensures its schema. It returns nil
// when no database is configured.
func openDB(ctx context.Context, cfg *config.ProjectConfig) (store.Store, error) {
	dsn := strings.TrimSpace(cfg.Database.DSN)
	if dsn == "" {
		return nil, nil
	}

	var db store.Store
	var err error
	switch {
	case strings.HasPrefix(dsn, "sqlite://"):
		db, err = sqlite.New(ctx, resolveSQLitePath(cfg, dsn))
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		db, err = postgres.New(ctx, dsn)
	default:
		return nil, fmt.Errorf("unsupported database dsn: %s", dsn)
	}
	if err != nil {
		return nil, err
	}

	if err := db.EnsureSchema(ctx); err != nil {
		db.Close(ctx)
		return nil, err
	}
	return db, nil
}

// requireDB is openDB for commands that cannot run memory only.
func requireDB(ctx context.Context, cfg *config.ProjectConfig) (store.Store, error) {
	db, err := openDB(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if db == nil {
		return nil, fmt.Errorf("database.dsn is not configured")
	}
	return db, nil
}

// resolveSQLitePath anchors a relative sqlite path at the config directory.
func resolveSQLitePath(cfg *config.ProjectConfig, dsn string) string {
	rest := strings.TrimPrefix(dsn, "sqlite://")
	path, query, hasQuery := strings.Cut(rest, "?")
	if path == "" || path == ":memory:" || filepath.IsAbs(path) {
		return dsn
	}
	resolved := "sqlite://" + cfg.Resolve(path)
	if hasQuery {
		resolved += "?" + query
	}
	return resolved
}
