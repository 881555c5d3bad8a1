package ingest

import (
	"context"

	"livingcanon/internal/canon"
	"livingcanon/internal/store"
)

// Store is the subset of store.Store ingestion writes through.
type Store interface {
	EnsureSchema(ctx context.Context) error
	UpsertSource(ctx context.Context, s store.SourceInput) error
	RemoveStaleSources(ctx context.Context, currentSourceFiles []string) (int64, error)
	GetSourceHashes(ctx context.Context) (map[string]string, error)
}

type Result struct {
	SourcesUpserted int
	SourcesRemoved  int
	FilesSkipped    int
	// Entries holds every source parsed during this run.
	Entries []canon.PrimarySourceEntry
	Errors  []error
}

type Options struct {
	Full bool
}
