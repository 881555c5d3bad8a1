package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"livingcanon/internal/canon"
	"livingcanon/internal/narrative"
	"livingcanon/internal/store"
)

func (c *Client) SaveCreation(ctx context.Context, state narrative.StoryState, entry narrative.Entry) error {
	stateJSON, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshaling state: %w", err)
	}
	cols, err := store.EncodeEntry(entry)
	if err != nil {
		return err
	}

	tx, err := c.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var transition any
	if cols.Transition != nil {
		transition = string(cols.Transition)
	}
	_, err = tx.Exec(ctx, `
INSERT INTO narrative_entries (sequence, id, recorded_at, act, effect, figures, responses, narrative_impact, provenance, transition)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10::jsonb)
`,
		entry.Sequence,
		entry.ID,
		entry.Timestamp.UTC(),
		cols.Act,
		cols.Effect,
		cols.Figures,
		cols.Responses,
		entry.NarrativeImpact,
		cols.Provenance,
		transition,
	)
	if err != nil {
		return fmt.Errorf("inserting narrative entry %d: %w", entry.Sequence, err)
	}

	_, err = tx.Exec(ctx, `
INSERT INTO story_state (id, state, creations, updated_at)
VALUES (1, $1, $2, $3)
ON CONFLICT (id) DO UPDATE SET
    state = EXCLUDED.state,
    creations = EXCLUDED.creations,
    updated_at = EXCLUDED.updated_at
`, stateJSON, state.Creations, entry.Timestamp.UTC())
	if err != nil {
		return fmt.Errorf("saving story state: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing creation: %w", err)
	}
	return nil
}

func (c *Client) LoadCheckpoint(ctx context.Context) (narrative.StoryState, []narrative.Entry, bool, error) {
	var raw []byte
	err := c.pool.QueryRow(ctx, `SELECT state FROM story_state WHERE id = 1`).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return narrative.StoryState{}, nil, false, nil
	}
	if err != nil {
		return narrative.StoryState{}, nil, false, fmt.Errorf("loading story state: %w", err)
	}

	var state narrative.StoryState
	if err := json.Unmarshal(raw, &state); err != nil {
		return narrative.StoryState{}, nil, false, fmt.Errorf("unmarshaling story state: %w", err)
	}

	entries, err := c.ListEntries(ctx, store.EntryFilter{})
	if err != nil {
		return narrative.StoryState{}, nil, false, err
	}
	return state, entries, true, nil
}

func (c *Client) ListEntries(ctx context.Context, filter store.EntryFilter) ([]narrative.Entry, error) {
	figure := canon.NormalizeFigure(filter.Figure)
	var limit *int
	if filter.Limit > 0 {
		limit = &filter.Limit
	}

	query := `
SELECT sequence, id, recorded_at, act, effect, figures, responses, narrative_impact, provenance, transition
FROM narrative_entries
WHERE sequence > $1
  AND ($2 = '' OR EXISTS (
      SELECT 1 FROM jsonb_array_elements_text(narrative_entries.figures) f
      WHERE lower(trim(f)) = $2
  ))
ORDER BY sequence ASC
LIMIT $3
`

	rows, err := c.pool.Query(ctx, query, filter.Since, figure, limit)
	if err != nil {
		return nil, fmt.Errorf("listing narrative entries: %w", err)
	}
	defer rows.Close()

	entries := []narrative.Entry{}
	for rows.Next() {
		var entry narrative.Entry
		var cols store.EntryColumns
		err := rows.Scan(
			&entry.Sequence,
			&entry.ID,
			&entry.Timestamp,
			&cols.Act,
			&cols.Effect,
			&cols.Figures,
			&cols.Responses,
			&entry.NarrativeImpact,
			&cols.Provenance,
			&cols.Transition,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning narrative entry: %w", err)
		}
		entry.Timestamp = entry.Timestamp.UTC()
		if err := store.DecodeEntry(&entry, cols); err != nil {
			return nil, fmt.Errorf("decoding entry %d: %w", entry.Sequence, err)
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating narrative entries: %w", err)
	}
	return entries, nil
}
