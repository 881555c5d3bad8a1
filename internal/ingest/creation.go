package ingest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"livingcanon/internal/narrative"
	"livingcanon/internal/parser"
)

const CreationType = "creation"

// LoadCreation reads a creation act from a markdown, YAML or JSON file.
// Markdown acts carry the act in frontmatter with type: creation.
func LoadCreation(path string) (narrative.CreationInput, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		doc, err := parser.ParseFile(path)
		if err != nil {
			return narrative.CreationInput{}, fmt.Errorf("parsing %s: %w", path, err)
		}
		return CreationFromDocument(doc)
	case ".yaml", ".yml":
		data, err := os.ReadFile(path)
		if err != nil {
			return narrative.CreationInput{}, err
		}
		var input narrative.CreationInput
		if err := yaml.Unmarshal(data, &input); err != nil {
			return narrative.CreationInput{}, fmt.Errorf("parsing %s: %w", path, err)
		}
		return input, nil
	case ".json":
		data, err := os.ReadFile(path)
		if err != nil {
			return narrative.CreationInput{}, err
		}
		var input narrative.CreationInput
		if err := json.Unmarshal(data, &input); err != nil {
			return narrative.CreationInput{}, fmt.Errorf("parsing %s: %w", path, err)
		}
		return input, nil
	default:
		return narrative.CreationInput{}, fmt.Errorf("unsupported creation file type: %s", filepath.Ext(path))
	}
}

func CreationFromDocument(doc *parser.Document) (narrative.CreationInput, error) {
	if !strings.EqualFold(doc.Type, CreationType) {
		return narrative.CreationInput{}, fmt.Errorf("expected type %s, got %s", CreationType, doc.Type)
	}

	input := narrative.CreationInput{
		PlayerName: doc.String("player"),
		Intent:     doc.String("intent"),
	}
	if input.Intent == "" {
		input.Intent = doc.Title
	}

	switch v := doc.Frontmatter["materials"].(type) {
	case nil:
	case []any:
		input.MaterialsUsed = v
	default:
		input.MaterialsUsed = []any{v}
	}

	tags, err := doc.Strings("archetype_tags")
	if err != nil {
		return narrative.CreationInput{}, err
	}
	input.ArchetypeTags = append(tags, doc.Tags...)

	level, _, err := doc.Float("consciousness_level")
	if err != nil {
		return narrative.CreationInput{}, err
	}
	input.ConsciousnessLevel = level
	return input, nil
}
