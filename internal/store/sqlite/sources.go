package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"livingcanon/internal/canon"
	"livingcanon/internal/store"
)

func (c *Client) UpsertSource(ctx context.Context, s store.SourceInput) error {
	entry := s.Entry
	if strings.TrimSpace(entry.ID) == "" {
		return fmt.Errorf("source id is required")
	}

	entryJSON, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshaling source: %w", err)
	}
	tagsJSON, err := json.Marshal(store.SourceTags(entry))
	if err != nil {
		return fmt.Errorf("marshaling tags: %w", err)
	}

	query := `
	INSERT INTO sources (id, figure, figure_normalized, source_type, authentic_text, tags, entry, body, source_file, source_hash, last_ingested)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, datetime('now'))
	ON CONFLICT (id) DO UPDATE SET
		figure = excluded.figure,
		figure_normalized = excluded.figure_normalized,
		source_type = excluded.source_type,
		authentic_text = excluded.authentic_text,
		tags = excluded.tags,
		entry = excluded.entry,
		body = excluded.body,
		source_file = excluded.source_file,
		source_hash = excluded.source_hash,
		last_ingested = datetime('now')
	`

	_, err = c.db.ExecContext(ctx, query,
		entry.ID,
		entry.Figure,
		canon.NormalizeFigure(entry.Figure),
		entry.SourceType,
		entry.AuthenticText,
		string(tagsJSON),
		string(entryJSON),
		s.Body,
		s.SourceFile,
		s.SourceHash,
	)
	if err != nil {
		return fmt.Errorf("upserting source: %w", err)
	}
	return nil
}

func (c *Client) ListSources(ctx context.Context, filter store.SourceFilter) ([]canon.PrimarySourceEntry, error) {
	figure := canon.NormalizeFigure(filter.Figure)

	query := `
	SELECT entry
	FROM sources
	WHERE (? = '' OR figure_normalized = ?)
	  AND (? = '' OR source_type = ?)
	ORDER BY figure_normalized, id
	`

	rows, err := c.db.QueryContext(ctx, query, figure, figure, filter.SourceType, filter.SourceType)
	if err != nil {
		return nil, fmt.Errorf("listing sources: %w", err)
	}
	defer rows.Close()

	entries := []canon.PrimarySourceEntry{}
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scanning source: %w", err)
		}
		var entry canon.PrimarySourceEntry
		if err := json.Unmarshal(raw, &entry); err != nil {
			return nil, fmt.Errorf("unmarshaling source: %w", err)
		}
		if filter.Tag != "" && !store.HasTag(entry, filter.Tag) {
			continue
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating sources: %w", err)
	}
	return entries, nil
}

func (c *Client) RemoveStaleSources(ctx context.Context, currentSourceFiles []string) (int64, error) {
	query := `
	DELETE FROM sources
	WHERE source_file IS NOT NULL
	  AND source_file <> ''
	`
	args := make([]any, 0, len(currentSourceFiles))
	if len(currentSourceFiles) > 0 {
		placeholders := make([]string, len(currentSourceFiles))
		for i, f := range currentSourceFiles {
			placeholders[i] = "?"
			args = append(args, f)
		}
		query += fmt.Sprintf("  AND source_file NOT IN (%s)\n", strings.Join(placeholders, ", "))
	}

	result, err := c.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("removing stale sources: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("getting rows affected: %w", err)
	}
	return affected, nil
}

func (c *Client) GetSourceHashes(ctx context.Context) (map[string]string, error) {
	query := `
	SELECT source_file, source_hash FROM sources
	WHERE source_file IS NOT NULL
	  AND source_file <> ''
	`

	rows, err := c.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query source hashes: %w", err)
	}
	defer rows.Close()

	hashes := make(map[string]string)
	for rows.Next() {
		var sourceFile, sourceHash string
		if err := rows.Scan(&sourceFile, &sourceHash); err != nil {
			return nil, fmt.Errorf("scanning source hash: %w", err)
		}
		hashes[sourceFile] = sourceHash
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating source hashes: %w", err)
	}
	return hashes, nil
}
