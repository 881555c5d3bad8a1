package config

import (
	"os"
	"path/filepath"
	"testing"
)

const validConfig = `project: hermetic-salon
version: 1
canon: ./canon.yaml
sources:
  paths: [./sources]
  exclude: [./sources/drafts]
database:
  dsn: sqlite://./canon.db
engine:
  authenticity_threshold: 0.75
  arc_evolution: continuous
`

func TestLoadProjectConfig(t *testing.T) {
	t.Run("valid config loads", func(t *testing.T) {
		path := writeTempConfig(t, validConfig)
		cfg, err := LoadProjectConfig(path)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if cfg.Project != "hermetic-salon" {
			t.Fatalf("expected project name, got %q", cfg.Project)
		}
		if !floatIs(cfg.Engine.AuthenticityThreshold, 0.75) || cfg.Engine.ArcEvolution != "continuous" {
			t.Fatalf("unexpected engine config: %+v", cfg.Engine)
		}
		if cfg.Dir != filepath.Dir(path) {
			t.Fatalf("expected dir %q, got %q", filepath.Dir(path), cfg.Dir)
		}
		if got := cfg.Resolve(cfg.Canon); got != filepath.Join(cfg.Dir, "canon.yaml") {
			t.Fatalf("unexpected resolved canon path %q", got)
		}
	})

	t.Run("minimal config loads", func(t *testing.T) {
		path := writeTempConfig(t, "project: test\nversion: 1\n")
		cfg, err := LoadProjectConfig(path)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if cfg.Database.DSN != "" || len(cfg.Sources.Paths) != 0 {
			t.Fatalf("expected empty optional sections, got %+v", cfg)
		}
		if cfg.Engine.AuthenticityThreshold != nil || cfg.Engine.FallbackFigurePower != nil || cfg.Engine.ArcThreshold != nil {
			t.Fatalf("expected unset engine tunables, got %+v", cfg.Engine)
		}
	})

	t.Run("explicit zero tunables are kept", func(t *testing.T) {
		path := writeTempConfig(t, "project: test\nversion: 1\nengine:\n  authenticity_threshold: 0\n  fallback_figure_power: 0\n  arc_threshold: 0\n")
		cfg, err := LoadProjectConfig(path)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		e := cfg.Engine
		if !floatIs(e.AuthenticityThreshold, 0) || !floatIs(e.FallbackFigurePower, 0) || !floatIs(e.ArcThreshold, 0) {
			t.Fatalf("expected explicit zeros, got %+v", e)
		}
	})

	invalid := []struct {
		name     string
		contents string
	}{
		{name: "missing project name", contents: "version: 1\n"},
		{name: "unsupported version", contents: "project: test\nversion: 2\n"},
		{name: "empty source path", contents: "project: test\nversion: 1\nsources:\n  paths: ['']\n"},
		{name: "dsn without scheme", contents: "project: test\nversion: 1\ndatabase:\n  dsn: canon.db\n"},
		{name: "unknown dsn scheme", contents: "project: test\nversion: 1\ndatabase:\n  dsn: bolt://localhost:7687\n"},
		{name: "threshold above one", contents: "project: test\nversion: 1\nengine:\n  authenticity_threshold: 1.5\n"},
		{name: "negative fallback power", contents: "project: test\nversion: 1\nengine:\n  fallback_figure_power: -2\n"},
		{name: "negative arc jump", contents: "project: test\nversion: 1\nengine:\n  arc_jump: -1\n"},
		{name: "unknown arc evolution", contents: "project: test\nversion: 1\nengine:\n  arc_evolution: spiral\n"},
		{name: "invalid yaml", contents: "project: [\n"},
	}
	for _, tc := range invalid {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := LoadProjectConfig(writeTempConfig(t, tc.contents)); err == nil {
				t.Fatalf("expected error")
			}
		})
	}

	t.Run("file not found", func(t *testing.T) {
		if _, err := LoadProjectConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
			t.Fatalf("expected error")
		}
	})
}

func TestLoadProjectConfig_EnvOverrides(t *testing.T) {
	t.Setenv("LIVINGCANON_DATABASE_DSN", "postgres://localhost/canon")
	t.Setenv("LIVINGCANON_ENGINE_ARC_THRESHOLD", "0.6")
	t.Setenv("LIVINGCANON_SOURCES_PATHS", "./a,./b")

	cfg, err := LoadProjectConfig(writeTempConfig(t, validConfig))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.Database.DSN != "postgres://localhost/canon" {
		t.Fatalf("expected dsn override, got %q", cfg.Database.DSN)
	}
	if !floatIs(cfg.Engine.ArcThreshold, 0.6) {
		t.Fatalf("expected arc threshold override, got %v", cfg.Engine.ArcThreshold)
	}
	if len(cfg.Sources.Paths) != 2 || cfg.Sources.Paths[1] != "./b" {
		t.Fatalf("expected sources override, got %v", cfg.Sources.Paths)
	}
	if !floatIs(cfg.Engine.AuthenticityThreshold, 0.75) {
		t.Fatalf("expected yaml value to survive, got %v", cfg.Engine.AuthenticityThreshold)
	}
}

func TestLoadProjectConfig_DotEnv(t *testing.T) {
	path := writeTempConfig(t, validConfig)
	dotenv := filepath.Join(filepath.Dir(path), ".env")
	if err := os.WriteFile(dotenv, []byte("LIVINGCANON_ENGINE_ARC_JUMP=3\n"), 0o600); err != nil {
		t.Fatalf("writing .env: %v", err)
	}
	t.Cleanup(func() { os.Unsetenv("LIVINGCANON_ENGINE_ARC_JUMP") })

	cfg, err := LoadProjectConfig(path)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.Engine.ArcJump != 3 {
		t.Fatalf("expected arc jump from .env, got %d", cfg.Engine.ArcJump)
	}
}

func TestLoadProjectConfig_InvalidEnv(t *testing.T) {
	t.Setenv("LIVINGCANON_ENGINE_ARC_JUMP", "five")
	if _, err := LoadProjectConfig(writeTempConfig(t, validConfig)); err == nil {
		t.Fatalf("expected error for unparsable override")
	}
}

func floatIs(got *float64, want float64) bool {
	return got != nil && *got == want
}

func writeTempConfig(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "livingcanon.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("writing temp config: %v", err)
	}
	return path
}
