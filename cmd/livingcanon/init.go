package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"livingcanon/internal/canon"
	"livingcanon/internal/config"
)

func initCmd() *cobra.Command {
	var projectName string
	var withSchema bool
	var withCanon bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Scaffold a new livingcanon project",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(projectName) == "" {
				return fmt.Errorf("--name is required")
			}
			return runInit(projectName, withSchema, withCanon)
		},
	}
	cmd.Flags().StringVar(&projectName, "name", "", "Project name")
	cmd.Flags().BoolVar(&withSchema, "schema", false, "Write the default source schema to schema.yaml")
	cmd.Flags().BoolVar(&withCanon, "canon", false, "Write the default canon to canon.yaml")
	return cmd
}

func runInit(projectName string, withSchema, withCanon bool) error {
	dir := filepath.Dir(configPath)
	files := map[string][]byte{}
	var schemaLine, canonLine string
	if withSchema {
		files[filepath.Join(dir, "schema.yaml")] = config.DefaultSchemaYAML()
		schemaLine = "schema: ./schema.yaml\n"
	}
	if withCanon {
		files[filepath.Join(dir, "canon.yaml")] = canon.DefaultYAML()
		canonLine = "canon: ./canon.yaml\n"
	}
	files[configPath] = []byte(fmt.Sprintf("project: %s\nversion: 1\n%s%s\nsources:\n  paths:\n    - ./sources/\n  exclude:\n    - ./sources/drafts/\n\ndatabase:\n  dsn: sqlite://./livingcanon.db\n\nengine:\n  authenticity_threshold: 0.8\n  arc_evolution: crossing\n", projectName, canonLine, schemaLine))

	for path := range files {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists", path)
		}
	}
	if err := os.MkdirAll(filepath.Join(dir, "sources"), 0o755); err != nil {
		return fmt.Errorf("creating sources directory: %w", err)
	}
	for path, contents := range files {
		if err := os.WriteFile(path, contents, 0o600); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
	}

	return nil
}
