// Package parser reads markdown documents with YAML frontmatter.
package parser

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type Document struct {
	Frontmatter map[string]any
	Title       string
	Type        string
	Tags        []string
	Body        string
	SourceFile  string
}

var (
	ErrNoFrontmatter = errors.New("no frontmatter found")
	ErrInvalidYAML   = errors.New("invalid YAML in frontmatter")
	ErrMissingTitle  = errors.New("frontmatter missing required 'title' field")
	ErrMissingType   = errors.New("frontmatter missing required 'type' field")
)

func ParseFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	doc, err := Parse(data)
	if err != nil {
		return nil, err
	}
	doc.SourceFile = path
	return doc, nil
}

func Parse(content []byte) (*Document, error) {
	content = bytes.ReplaceAll(content, []byte("\r\n"), []byte("\n"))
	trimmed := bytes.TrimLeft(content, "\ufeff\n\r\t ")
	if !bytes.HasPrefix(trimmed, []byte("---\n")) {
		return nil, ErrNoFrontmatter
	}

	rest := trimmed[len("---\n"):]
	var yamlBytes []byte
	var body string
	switch {
	case bytes.HasPrefix(rest, []byte("---\n")):
		body = string(rest[len("---\n"):])
	default:
		end := bytes.Index(rest, []byte("\n---\n"))
		if end == -1 {
			if !bytes.HasSuffix(rest, []byte("\n---")) {
				return nil, ErrNoFrontmatter
			}
			end = len(rest) - len("\n---")
			yamlBytes = rest[:end]
			break
		}
		yamlBytes = rest[:end]
		body = string(rest[end+len("\n---\n"):])
	}

	var frontmatter map[string]any
	if err := yaml.Unmarshal(yamlBytes, &frontmatter); err != nil {
		return nil, ErrInvalidYAML
	}
	if frontmatter == nil {
		frontmatter = map[string]any{}
	}

	title, ok := frontmatter["title"].(string)
	if !ok || strings.TrimSpace(title) == "" {
		return nil, ErrMissingTitle
	}

	docType, ok := frontmatter["type"].(string)
	if !ok || strings.TrimSpace(docType) == "" {
		return nil, ErrMissingType
	}

	tags, err := StringList(frontmatter["tags"])
	if err != nil {
		return nil, fmt.Errorf("tags: %w", err)
	}

	return &Document{
		Frontmatter: frontmatter,
		Title:       title,
		Type:        docType,
		Tags:        tags,
		Body:        body,
	}, nil
}

// String returns the frontmatter value of key as a trimmed string. Scalars
// other than strings are formatted.
func (d *Document) String(key string) string {
	switch v := d.Frontmatter[key].(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

func (d *Document) Strings(key string) ([]string, error) {
	values, err := StringList(d.Frontmatter[key])
	if err != nil {
		return nil, fmt.Errorf("%s: %w", key, err)
	}
	return values, nil
}

// Float returns the numeric frontmatter value of key. ok is false when the
// key is absent.
func (d *Document) Float(key string) (value float64, ok bool, err error) {
	switch v := d.Frontmatter[key].(type) {
	case nil:
		return 0, false, nil
	case int:
		return float64(v), true, nil
	case float64:
		return v, true, nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, false, fmt.Errorf("%s must be a number", key)
		}
		return f, true, nil
	default:
		return 0, false, fmt.Errorf("%s must be a number", key)
	}
}

// StringList accepts a single string or a list of strings. Blank items are dropped.
func StringList(value any) ([]string, error) {
	if value == nil {
		return nil, nil
	}
	switch v := value.(type) {
	case string:
		if strings.TrimSpace(v) == "" {
			return nil, nil
		}
		return []string{v}, nil
	case []any:
		items := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("must be strings")
			}
			if strings.TrimSpace(s) == "" {
				continue
			}
			items = append(items, s)
		}
		if len(items) == 0 {
			return nil, nil
		}
		return items, nil
	default:
		return nil, fmt.Errorf("must be string or list of strings")
	}
}
