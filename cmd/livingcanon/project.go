package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"livingcanon/internal/canon"
	"livingcanon/internal/config"
	"livingcanon/internal/engine"
	"livingcanon/internal/ingest"
	"livingcanon/internal/narrative"
	"livingcanon/internal/store"
)

type project struct {
	cfg    *config.ProjectConfig
	schema *config.Schema
	canon  *canon.Canon
	logger *slog.Logger
}

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func loadProject() (*project, error) {
	cfg, err := config.LoadProjectConfig(configPath)
	if err != nil {
		return nil, err
	}

	schema, err := config.DefaultSchema()
	if cfg.Schema != "" {
		schema, err = config.LoadSchema(cfg.Resolve(cfg.Schema))
	}
	if err != nil {
		return nil, err
	}

	c, err := canon.Default()
	if cfg.Canon != "" {
		c, err = canon.Load(cfg.Resolve(cfg.Canon))
	}
	if err != nil {
		return nil, err
	}

	return &project{cfg: cfg, schema: schema, canon: c, logger: newLogger()}, nil
}

// extraSources returns the ingested sources from db, or parses the configured
// source files directly when there is no database or it is still empty.
func (p *project) extraSources(ctx context.Context, db store.Store) ([]canon.PrimarySourceEntry, error) {
	if db != nil {
		entries, err := db.ListSources(ctx, store.SourceFilter{})
		if err != nil {
			return nil, err
		}
		if len(entries) > 0 {
			return entries, nil
		}
	}
	if len(p.cfg.Sources.Paths) == 0 {
		return nil, nil
	}

	result, err := ingest.Collect(ctx, p.cfg, p.schema)
	if err != nil {
		return nil, err
	}
	for _, item := range result.Errors {
		p.logger.Warn("skipping source", "error", item)
	}
	return result.Entries, nil
}

// buildEngine wires the canon, the ingested sources and the checkpoint store
// into an engine restored to its latest checkpoint.
func (p *project) buildEngine(ctx context.Context, db store.Store, onResponse func(narrative.NPCResponse)) (*engine.Engine, error) {
	extra, err := p.extraSources(ctx, db)
	if err != nil {
		return nil, err
	}

	opts := engine.Options{
		Settings:     engineSettings(p.cfg.Engine),
		ExtraSources: extra,
		Logger:       p.logger,
		OnResponse:   onResponse,
		Store:        db,
	}

	eng, err := engine.New(p.canon, opts)
	if err != nil {
		return nil, err
	}
	if db != nil {
		if _, err := eng.Restore(ctx, db); err != nil {
			return nil, err
		}
	}
	return eng, nil
}

func engineSettings(cfg config.EngineConfig) *engine.Settings {
	settings := engine.DefaultSettings()
	if cfg.AuthenticityThreshold != nil {
		settings.AuthenticityThreshold = *cfg.AuthenticityThreshold
	}
	if cfg.FallbackFigurePower != nil {
		settings.FallbackFigurePower = *cfg.FallbackFigurePower
	}
	if cfg.ArcThreshold != nil {
		settings.ArcThreshold = *cfg.ArcThreshold
	}
	if cfg.ArcJump > 0 {
		settings.ArcJump = cfg.ArcJump
	}
	if cfg.ArcEvolution != "" {
		settings.ArcEvolution = narrative.ArcMode(cfg.ArcEvolution)
	}
	return &settings
}

func printJSON(value any) error {
	payload, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding result: %w", err)
	}
	fmt.Fprintln(os.Stdout, string(payload))
	return nil
}
