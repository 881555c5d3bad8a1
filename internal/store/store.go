// Package store persists ingested primary sources and engine checkpoints.
package store

import (
	"context"

	"livingcanon/internal/canon"
	"livingcanon/internal/narrative"
)

type Store interface {
	Close(ctx context.Context) error
	EnsureSchema(ctx context.Context) error

	UpsertSource(ctx context.Context, s SourceInput) error
	RemoveStaleSources(ctx context.Context, currentSourceFiles []string) (int64, error)
	GetSourceHashes(ctx context.Context) (map[string]string, error)
	ListSources(ctx context.Context, filter SourceFilter) ([]canon.PrimarySourceEntry, error)
	SearchSources(ctx context.Context, query, figure string) ([]SearchResult, error)

	// SaveCreation writes the new state and its narrative entry in one transaction.
	SaveCreation(ctx context.Context, state narrative.StoryState, entry narrative.Entry) error
	LoadCheckpoint(ctx context.Context) (narrative.StoryState, []narrative.Entry, bool, error)
	ListEntries(ctx context.Context, filter EntryFilter) ([]narrative.Entry, error)

	RunSQL(ctx context.Context, query string, params map[string]any) ([]map[string]any, error)
}
