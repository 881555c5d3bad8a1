package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

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

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var transition any
	if cols.Transition != nil {
		transition = string(cols.Transition)
	}
	_, err = tx.ExecContext(ctx, `
	INSERT INTO narrative_entries (sequence, id, recorded_at, act, effect, figures, responses, narrative_impact, provenance, transition)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		entry.Sequence,
		entry.ID,
		entry.Timestamp.UTC().Format(time.RFC3339Nano),
		string(cols.Act),
		string(cols.Effect),
		string(cols.Figures),
		string(cols.Responses),
		entry.NarrativeImpact,
		string(cols.Provenance),
		transition,
	)
	if err != nil {
		return fmt.Errorf("inserting narrative entry %d: %w", entry.Sequence, err)
	}

	_, err = tx.ExecContext(ctx, `
	INSERT INTO story_state (id, state, creations, updated_at)
	VALUES (1, ?, ?, ?)
	ON CONFLICT (id) DO UPDATE SET
		state = excluded.state,
		creations = excluded.creations,
		updated_at = excluded.updated_at
	`, string(stateJSON), state.Creations, entry.Timestamp.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("saving story state: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing creation: %w", err)
	}
	return nil
}

func (c *Client) LoadCheckpoint(ctx context.Context) (narrative.StoryState, []narrative.Entry, bool, error) {
	var raw []byte
	err := c.db.QueryRowContext(ctx, `SELECT state FROM story_state WHERE id = 1`).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
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
	limit := filter.Limit
	if limit <= 0 {
		limit = -1
	}

	query := `
	SELECT sequence, id, recorded_at, act, effect, figures, responses, narrative_impact, provenance, transition
	FROM narrative_entries
	WHERE sequence > ?
	  AND (? = '' OR EXISTS (
		  SELECT 1 FROM json_each(narrative_entries.figures) f
		  WHERE lower(trim(f.value)) = ?
	  ))
	ORDER BY sequence ASC
	LIMIT ?
	`

	rows, err := c.db.QueryContext(ctx, query, filter.Since, figure, figure, limit)
	if err != nil {
		return nil, fmt.Errorf("listing narrative entries: %w", err)
	}
	defer rows.Close()

	entries := []narrative.Entry{}
	for rows.Next() {
		var entry narrative.Entry
		var recordedAt string
		var cols store.EntryColumns
		var transition sql.NullString
		err := rows.Scan(
			&entry.Sequence,
			&entry.ID,
			&recordedAt,
			&cols.Act,
			&cols.Effect,
			&cols.Figures,
			&cols.Responses,
			&entry.NarrativeImpact,
			&cols.Provenance,
			&transition,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning narrative entry: %w", err)
		}
		if transition.Valid {
			cols.Transition = []byte(transition.String)
		}
		if entry.Timestamp, err = time.Parse(time.RFC3339Nano, recordedAt); err != nil {
			return nil, fmt.Errorf("parsing timestamp of entry %d: %w", entry.Sequence, err)
		}
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
