package config

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Entry list fields a frontmatter field can be mapped onto.
const (
	TargetThemes          = "themes"
	TargetLinkedFigures   = "linked_figures"
	TargetArchetypeTags   = "archetype_tags"
	TargetIntegrationTags = "integration_tags"
)

//go:embed default_schema.yaml
var defaultSchema []byte

// DefaultSchemaYAML returns the raw embedded schema document.
func DefaultSchemaYAML() []byte {
	return append([]byte(nil), defaultSchema...)
}

// Schema describes the primary source documents accepted by ingestion.
type Schema struct {
	Version     int          `yaml:"version"`
	SourceTypes []SourceType `yaml:"source_types"`

	typeIndex map[string]*SourceType
}

type SourceType struct {
	Name          string         `yaml:"name"`
	Properties    []Property     `yaml:"properties"`
	FieldMappings []FieldMapping `yaml:"field_mappings"`
}

type Property struct {
	Name     string   `yaml:"name"`
	Type     string   `yaml:"type"`
	Values   []string `yaml:"values"`
	Default  string   `yaml:"default"`
	Required bool     `yaml:"required"`
}

// FieldMapping copies a frontmatter list field into one of the entry list fields.
type FieldMapping struct {
	Field  string `yaml:"field"`
	Target string `yaml:"target"`
}

func DefaultSchema() (*Schema, error) {
	schema, err := ParseSchema(defaultSchema)
	if err != nil {
		return nil, fmt.Errorf("loading default schema: %w", err)
	}
	return schema, nil
}

func LoadSchema(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading schema: %w", err)
	}
	schema, err := ParseSchema(data)
	if err != nil {
		return nil, fmt.Errorf("loading schema: %w", err)
	}
	return schema, nil
}

func ParseSchema(data []byte) (*Schema, error) {
	var schema Schema
	if err := yaml.Unmarshal(data, &schema); err != nil {
		return nil, err
	}

	if err := validateSchema(&schema); err != nil {
		return nil, err
	}

	schema.typeIndex = make(map[string]*SourceType)
	for i := range schema.SourceTypes {
		st := &schema.SourceTypes[i]
		schema.typeIndex[strings.ToLower(st.Name)] = st
	}

	return &schema, nil
}

func validateSchema(s *Schema) error {
	if s.Version != 1 {
		return fmt.Errorf("unsupported version: %d", s.Version)
	}
	if len(s.SourceTypes) == 0 {
		return fmt.Errorf("at least one source type is required")
	}

	typeNames := make(map[string]struct{})
	for i, st := range s.SourceTypes {
		if strings.TrimSpace(st.Name) == "" {
			return fmt.Errorf("source type %d name is required", i)
		}
		key := strings.ToLower(st.Name)
		if _, exists := typeNames[key]; exists {
			return fmt.Errorf("duplicate source type name: %s", st.Name)
		}
		typeNames[key] = struct{}{}

		propNames := make(map[string]struct{})
		for _, prop := range st.Properties {
			name := strings.ToLower(strings.TrimSpace(prop.Name))
			if name == "" {
				return fmt.Errorf("source type %s has property with empty name", st.Name)
			}
			if _, exists := propNames[name]; exists {
				return fmt.Errorf("source type %s has duplicate property: %s", st.Name, prop.Name)
			}
			propNames[name] = struct{}{}
			if strings.EqualFold(prop.Type, "enum") && len(prop.Values) == 0 {
				return fmt.Errorf("source type %s property %s enum has no values", st.Name, prop.Name)
			}
		}

		for _, mapping := range st.FieldMappings {
			if strings.TrimSpace(mapping.Field) == "" {
				return fmt.Errorf("source type %s has field mapping with empty field", st.Name)
			}
			switch mapping.Target {
			case TargetThemes, TargetLinkedFigures, TargetArchetypeTags, TargetIntegrationTags:
			default:
				return fmt.Errorf("source type %s field mapping %s has unknown target: %q", st.Name, mapping.Field, mapping.Target)
			}
		}
	}

	return nil
}

func (s *Schema) SourceTypeByName(name string) (*SourceType, bool) {
	if s == nil {
		return nil, false
	}
	st, ok := s.typeIndex[strings.ToLower(name)]
	return st, ok
}

func (s *Schema) IsValidSourceType(name string) bool {
	_, ok := s.SourceTypeByName(name)
	return ok
}

// SourceTypeNames lists the declared source types in schema order.
func (s *Schema) SourceTypeNames() []string {
	if s == nil {
		return nil
	}
	names := make([]string, 0, len(s.SourceTypes))
	for _, st := range s.SourceTypes {
		names = append(names, st.Name)
	}
	return names
}
