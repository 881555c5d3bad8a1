package sqlite

import (
	"context"
	"fmt"
	"strings"
)

func (c *Client) EnsureSchema(ctx context.Context) error {
	ddl := `
	CREATE TABLE IF NOT EXISTS sources (
		id                TEXT PRIMARY KEY,
		figure            TEXT NOT NULL,
		figure_normalized TEXT NOT NULL,
		source_type       TEXT DEFAULT '',
		authentic_text    TEXT DEFAULT '',
		tags              TEXT DEFAULT '[]',
		entry             TEXT NOT NULL,
		body              TEXT DEFAULT '',
		source_file       TEXT,
		source_hash       TEXT,
		last_ingested     TEXT DEFAULT (datetime('now'))
	);

	CREATE TABLE IF NOT EXISTS story_state (
		id         INTEGER PRIMARY KEY CHECK (id = 1),
		state      TEXT NOT NULL,
		creations  INTEGER NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS narrative_entries (
		sequence         INTEGER PRIMARY KEY,
		id               TEXT NOT NULL UNIQUE,
		recorded_at      TEXT NOT NULL,
		act              TEXT NOT NULL,
		effect           TEXT NOT NULL,
		figures          TEXT NOT NULL DEFAULT '[]',
		responses        TEXT NOT NULL DEFAULT '[]',
		narrative_impact REAL NOT NULL DEFAULT 0,
		provenance       TEXT NOT NULL DEFAULT '[]',
		transition       TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_sources_figure ON sources (figure_normalized);
	CREATE INDEX IF NOT EXISTS idx_sources_type ON sources (source_type);
	CREATE INDEX IF NOT EXISTS idx_sources_source_file ON sources (source_file);

	CREATE VIRTUAL TABLE IF NOT EXISTS sources_fts USING fts5(
		figure,
		tags,
		authentic_text,
		body,
		content=sources,
		content_rowid=rowid
	);

	CREATE TRIGGER IF NOT EXISTS sources_ai AFTER INSERT ON sources BEGIN
		INSERT INTO sources_fts(rowid, figure, tags, authentic_text, body)
		VALUES (new.rowid, new.figure, new.tags, new.authentic_text, new.body);
	END;

	CREATE TRIGGER IF NOT EXISTS sources_ad AFTER DELETE ON sources BEGIN
		INSERT INTO sources_fts(sources_fts, rowid, figure, tags, authentic_text, body)
		VALUES ('delete', old.rowid, old.figure, old.tags, old.authentic_text, old.body);
	END;

	CREATE TRIGGER IF NOT EXISTS sources_au AFTER UPDATE ON sources BEGIN
		INSERT INTO sources_fts(sources_fts, rowid, figure, tags, authentic_text, body)
		VALUES ('delete', old.rowid, old.figure, old.tags, old.authentic_text, old.body);
		INSERT INTO sources_fts(rowid, figure, tags, authentic_text, body)
		VALUES (new.rowid, new.figure, new.tags, new.authentic_text, new.body);
	END;
	`

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range splitStatements(ddl) {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("executing DDL: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing schema transaction: %w", err)
	}
	return nil
}

// splitStatements splits ddl on trailing semicolons. Trigger bodies end with
// END; so their inner statements stay attached to the CREATE TRIGGER.
func splitStatements(ddl string) []string {
	var statements []string
	var current strings.Builder
	inTrigger := false

	for _, line := range strings.Split(ddl, "\n") {
		stripped := strings.TrimSpace(line)
		if strings.HasPrefix(stripped, "--") {
			continue
		}
		upper := strings.ToUpper(stripped)
		if strings.HasPrefix(upper, "CREATE TRIGGER") {
			inTrigger = true
		}
		current.WriteString(line)
		current.WriteString("\n")

		if !strings.HasSuffix(stripped, ";") {
			continue
		}
		if inTrigger && upper != "END;" {
			continue
		}
		inTrigger = false
		statements = append(statements, current.String())
		current.Reset()
	}

	if strings.TrimSpace(current.String()) != "" {
		statements = append(statements, current.String())
	}
	return statements
}
