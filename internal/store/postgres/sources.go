package postgres

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

	tags := store.SourceTags(entry)
	if len(tags) == 0 {
		tags = nil
	}

	query := `
INSERT INTO sources (id, figure, figure_normalized, source_type, authentic_text, tags, entry, body, source_file, source_hash, last_ingested, search_vector)
VALUES ($1, $2, $3, $4, $5, COALESCE($6, '{}'::text[]), $7, $8, $9, $10, now(),
    setweight(to_tsvector('english', coalesce($5, '')), 'A') ||
    setweight(to_tsvector('english', coalesce(array_to_string(COALESCE($6, '{}'::text[]), ' '), '')), 'B') ||
    setweight(to_tsvector('simple', coalesce($2, '')), 'C') ||
    setweight(to_tsvector('english', coalesce($8, '')), 'D')
)
ON CONFLICT (id) DO UPDATE SET
    figure = EXCLUDED.figure,
    figure_normalized = EXCLUDED.figure_normalized,
    source_type = EXCLUDED.source_type,
    authentic_text = EXCLUDED.authentic_text,
    tags = EXCLUDED.tags,
    entry = EXCLUDED.entry,
    body = EXCLUDED.body,
    source_file = EXCLUDED.source_file,
    source_hash = EXCLUDED.source_hash,
    last_ingested = now(),
    search_vector = EXCLUDED.search_vector
`

	_, err = c.pool.Exec(ctx, query,
		entry.ID,
		entry.Figure,
		canon.NormalizeFigure(entry.Figure),
		entry.SourceType,
		entry.AuthenticText,
		tags,
		entryJSON,
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
WHERE ($1 = '' OR figure_normalized = $1)
  AND ($2 = '' OR source_type = $2)
ORDER BY figure_normalized, id
`

	rows, err := c.pool.Query(ctx, query, figure, filter.SourceType)
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
	if currentSourceFiles == nil {
		currentSourceFiles = []string{}
	}

	query := `
DELETE FROM sources
WHERE source_file IS NOT NULL
  AND source_file <> ''
  AND NOT (source_file = ANY($1))
`

	tag, err := c.pool.Exec(ctx, query, currentSourceFiles)
	if err != nil {
		return 0, fmt.Errorf("removing stale sources: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (c *Client) GetSourceHashes(ctx context.Context) (map[string]string, error) {
	query := `
SELECT source_file, source_hash FROM sources
WHERE source_file IS NOT NULL
  AND source_file <> ''
`

	rows, err := c.pool.Query(ctx, query)
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
