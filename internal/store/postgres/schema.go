package postgres

import (
	"context"
	"fmt"
)

func (c *Client) EnsureSchema(ctx context.Context) error {
	// All statements run in one implicit transaction.
	ddl := `
CREATE TABLE IF NOT EXISTS sources (
    id                TEXT PRIMARY KEY,
    figure            TEXT NOT NULL,
    figure_normalized TEXT NOT NULL,
    source_type       TEXT NOT NULL DEFAULT '',
    authentic_text    TEXT NOT NULL,
    tags              TEXT[] DEFAULT '{}',
    entry             JSONB NOT NULL,
    body              TEXT DEFAULT '',
    source_file       TEXT,
    source_hash       TEXT,
    last_ingested     TIMESTAMPTZ DEFAULT now(),
    search_vector     TSVECTOR
);

CREATE TABLE IF NOT EXISTS story_state (
    id         INTEGER PRIMARY KEY CHECK (id = 1),
    state      JSONB NOT NULL,
    creations  INTEGER NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS narrative_entries (
    sequence         INTEGER PRIMARY KEY,
    id               TEXT NOT NULL UNIQUE,
    recorded_at      TIMESTAMPTZ NOT NULL,
    act              JSONB NOT NULL,
    effect           JSONB NOT NULL,
    figures          JSONB NOT NULL DEFAULT '[]',
    responses        JSONB NOT NULL DEFAULT '[]',
    narrative_impact DOUBLE PRECISION NOT NULL,
    provenance       JSONB NOT NULL DEFAULT '[]',
    transition       JSONB
);

CREATE INDEX IF NOT EXISTS idx_sources_search ON sources USING GIN (search_vector);
CREATE INDEX IF NOT EXISTS idx_sources_figure ON sources (figure_normalized);
CREATE INDEX IF NOT EXISTS idx_sources_type ON sources (source_type);
CREATE INDEX IF NOT EXISTS idx_sources_source_file ON sources (source_file);
CREATE INDEX IF NOT EXISTS idx_sources_tags ON sources USING GIN (tags);
CREATE INDEX IF NOT EXISTS idx_entries_figures ON narrative_entries USING GIN (figures);
`
	_, err := c.pool.Exec(ctx, ddl)
	if err != nil {
		return fmt.Errorf("ensuring schema: %w", err)
	}
	return nil
}
