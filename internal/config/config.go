package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const EnvPrefix = "LIVINGCANON_"

type ProjectConfig struct {
	Project  string         `yaml:"project" env:"PROJECT"`
	Version  int            `yaml:"version"`
	Canon    string         `yaml:"canon" env:"CANON"`
	Schema   string         `yaml:"schema" env:"SCHEMA"`
	Sources  SourcesConfig  `yaml:"sources" envPrefix:"SOURCES_"`
	Database DatabaseConfig `yaml:"database" envPrefix:"DATABASE_"`
	Engine   EngineConfig   `yaml:"engine" envPrefix:"ENGINE_"`

	// Dir is the directory holding the config file. Relative paths resolve against it.
	Dir string `yaml:"-"`
}

type SourcesConfig struct {
	Paths   []string `yaml:"paths" env:"PATHS"`
	Exclude []string `yaml:"exclude" env:"EXCLUDE"`
}

type DatabaseConfig struct {
	DSN string `yaml:"dsn" env:"DSN"`
}

// EngineConfig holds engine tunables. A nil threshold or power selects the
// engine default; an explicit 0 is kept. A zero ArcJump or an empty
// ArcEvolution selects the default.
type EngineConfig struct {
	AuthenticityThreshold *float64 `yaml:"authenticity_threshold" env:"AUTHENTICITY_THRESHOLD"`
	FallbackFigurePower   *float64 `yaml:"fallback_figure_power" env:"FALLBACK_FIGURE_POWER"`
	ArcThreshold          *float64 `yaml:"arc_threshold" env:"ARC_THRESHOLD"`
	ArcJump               int      `yaml:"arc_jump" env:"ARC_JUMP"`
	ArcEvolution          string   `yaml:"arc_evolution" env:"ARC_EVOLUTION"`
}

// LoadProjectConfig reads the YAML config at path, loads a .env file next to
// it when present and applies LIVINGCANON_* environment overrides.
func LoadProjectConfig(path string) (*ProjectConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading project config: %w", err)
	}

	var cfg ProjectConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("loading project config: %w", err)
	}
	cfg.Dir = filepath.Dir(path)

	if err := loadDotEnv(filepath.Join(cfg.Dir, ".env")); err != nil {
		return nil, fmt.Errorf("loading project config: %w", err)
	}
	if err := ApplyEnv(&cfg); err != nil {
		return nil, fmt.Errorf("loading project config: %w", err)
	}

	if err := validateProjectConfig(&cfg); err != nil {
		return nil, fmt.Errorf("loading project config: %w", err)
	}

	return &cfg, nil
}

// ApplyEnv overrides fields of cfg whose LIVINGCANON_* variable is set.
func ApplyEnv(cfg *ProjectConfig) error {
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// loadDotEnv never overrides variables already present in the environment.
func loadDotEnv(path string) error {
	err := godotenv.Load(path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("reading %s: %w", path, err)
}

func validateProjectConfig(cfg *ProjectConfig) error {
	if strings.TrimSpace(cfg.Project) == "" {
		return fmt.Errorf("project name is required")
	}
	if cfg.Version != 1 {
		return fmt.Errorf("unsupported version: %d", cfg.Version)
	}

	for i, p := range cfg.Sources.Paths {
		if strings.TrimSpace(p) == "" {
			return fmt.Errorf("sources path %d is empty", i)
		}
	}

	if dsn := strings.TrimSpace(cfg.Database.DSN); dsn != "" {
		scheme, _, ok := strings.Cut(dsn, "://")
		if !ok {
			return fmt.Errorf("database dsn must include a scheme")
		}
		switch scheme {
		case "sqlite", "postgres", "postgresql":
		default:
			return fmt.Errorf("unsupported database scheme: %s", scheme)
		}
	}

	e := cfg.Engine
	if t := e.AuthenticityThreshold; t != nil && (*t < 0 || *t > 1) {
		return fmt.Errorf("engine authenticity_threshold must be within [0, 1], got %v", *t)
	}
	if e.FallbackFigurePower != nil && *e.FallbackFigurePower < 0 {
		return fmt.Errorf("engine fallback_figure_power must not be negative")
	}
	if e.ArcThreshold != nil && *e.ArcThreshold < 0 {
		return fmt.Errorf("engine arc_threshold must not be negative")
	}
	if e.ArcJump < 0 {
		return fmt.Errorf("engine arc_jump must not be negative")
	}
	switch e.ArcEvolution {
	case "", "crossing", "continuous":
	default:
		return fmt.Errorf("unsupported engine arc_evolution: %s", e.ArcEvolution)
	}

	return nil
}

// Resolve returns p relative to the config directory unless it is absolute.
func (c *ProjectConfig) Resolve(p string) string {
	if p == "" || filepath.IsAbs(p) || c.Dir == "" {
		return p
	}
	return filepath.Join(c.Dir, p)
}
