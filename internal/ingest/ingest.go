// Package ingest turns markdown primary source documents into canon entries.
package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"livingcanon/internal/canon"
	"livingcanon/internal/config"
	"livingcanon/internal/parser"
	"livingcanon/internal/store"
)

// DefaultAuthenticity scores a document whose frontmatter carries none.
const DefaultAuthenticity = 0.85

var errSkip = errors.New("skipped")

// Run synchronises db with the configured source directories. Unchanged
// files are skipped unless options.Full is set; sources whose file is gone
// are removed.
func Run(ctx context.Context, cfg *config.ProjectConfig, schema *config.Schema, db Store, options Options) (*Result, error) {
	if err := db.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	var existingHashes map[string]string
	if !options.Full {
		var err error
		existingHashes, err = db.GetSourceHashes(ctx)
		if err != nil {
			return nil, fmt.Errorf("get source hashes: %w", err)
		}
	}

	files, err := walkMarkdownFiles(resolveAll(cfg, cfg.Sources.Paths), resolveAll(cfg, cfg.Sources.Exclude))
	if err != nil {
		return nil, fmt.Errorf("walking source files: %w", err)
	}

	result := &Result{}
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		hash, err := computeHash(path)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("hashing %s: %w", path, err))
			continue
		}
		if existing, ok := existingHashes[path]; ok && existing == hash {
			result.FilesSkipped++
			continue
		}

		doc, entry, err := parseSource(path, schema)
		if errors.Is(err, errSkip) {
			result.FilesSkipped++
			continue
		}
		if err != nil {
			result.Errors = append(result.Errors, err)
			continue
		}

		input := store.SourceInput{
			Entry:      entry,
			SourceFile: path,
			SourceHash: hash,
			Body:       doc.Body,
		}
		if err := db.UpsertSource(ctx, input); err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("upserting %s: %w", path, err))
			continue
		}
		result.SourcesUpserted++
		result.Entries = append(result.Entries, entry)
	}

	deleted, err := db.RemoveStaleSources(ctx, files)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Errorf("removing stale sources: %w", err))
	} else {
		result.SourcesRemoved = int(deleted)
	}

	return result, nil
}

// Collect parses every configured source without a store.
func Collect(ctx context.Context, cfg *config.ProjectConfig, schema *config.Schema) (*Result, error) {
	files, err := walkMarkdownFiles(resolveAll(cfg, cfg.Sources.Paths), resolveAll(cfg, cfg.Sources.Exclude))
	if err != nil {
		return nil, fmt.Errorf("walking source files: %w", err)
	}

	result := &Result{}
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		_, entry, err := parseSource(path, schema)
		if errors.Is(err, errSkip) {
			result.FilesSkipped++
			continue
		}
		if err != nil {
			result.Errors = append(result.Errors, err)
			continue
		}
		result.Entries = append(result.Entries, entry)
	}
	return result, nil
}

func parseSource(path string, schema *config.Schema) (*parser.Document, canon.PrimarySourceEntry, error) {
	doc, err := parser.ParseFile(path)
	if err != nil {
		if errors.Is(err, parser.ErrNoFrontmatter) || errors.Is(err, parser.ErrMissingType) {
			return nil, canon.PrimarySourceEntry{}, errSkip
		}
		return nil, canon.PrimarySourceEntry{}, fmt.Errorf("parsing %s: %w", path, err)
	}

	sourceType, ok := schema.SourceTypeByName(doc.Type)
	if !ok {
		return nil, canon.PrimarySourceEntry{}, errSkip
	}

	entry, err := EntryFromDocument(doc, sourceType)
	if err != nil {
		return nil, canon.PrimarySourceEntry{}, fmt.Errorf("building source from %s: %w", path, err)
	}
	return doc, entry, nil
}

// EntryFromDocument maps frontmatter onto a primary source entry. The
// authentic text comes from the authentic_text field or, failing that, the body.
func EntryFromDocument(doc *parser.Document, sourceType *config.SourceType) (canon.PrimarySourceEntry, error) {
	if err := checkProperties(doc, sourceType); err != nil {
		return canon.PrimarySourceEntry{}, err
	}

	figure := doc.String("figure")
	if figure == "" {
		return canon.PrimarySourceEntry{}, fmt.Errorf("figure is required")
	}

	text := doc.String("authentic_text")
	if text == "" {
		text = strings.TrimSpace(doc.Body)
	}
	if text == "" {
		return canon.PrimarySourceEntry{}, fmt.Errorf("authentic text is required")
	}

	authenticity, ok, err := doc.Float("authenticity")
	if err != nil {
		return canon.PrimarySourceEntry{}, err
	}
	if !ok {
		authenticity = DefaultAuthenticity
	}
	if authenticity < 0 || authenticity > 1 {
		return canon.PrimarySourceEntry{}, fmt.Errorf("authenticity out of range: %v", authenticity)
	}

	entry := canon.PrimarySourceEntry{
		ID:                doc.String("id"),
		Figure:            figure,
		SourceType:        strings.ToLower(sourceType.Name),
		AuthenticText:     text,
		HistoricalContext: doc.String("historical_context"),
		Date:              doc.String("date"),
		SoundRhythm:       doc.String("sound_rhythm"),
		Provenance:        doc.String("provenance"),
		Authenticity:      authenticity,
	}
	if entry.ID == "" {
		entry.ID = slug(figure) + "_" + slug(doc.Title)
	}

	lists := map[string]*[]string{
		config.TargetThemes:          &entry.Themes,
		config.TargetLinkedFigures:   &entry.LinkedFigures,
		config.TargetArchetypeTags:   &entry.ArchetypeTags,
		config.TargetIntegrationTags: &entry.IntegrationTags,
	}
	for field, target := range lists {
		values, err := doc.Strings(field)
		if err != nil {
			return canon.PrimarySourceEntry{}, err
		}
		*target = append(*target, values...)
	}
	entry.Themes = append(entry.Themes, doc.Tags...)
	for _, mapping := range sourceType.FieldMappings {
		values, err := doc.Strings(mapping.Field)
		if err != nil {
			return canon.PrimarySourceEntry{}, err
		}
		target := lists[mapping.Target]
		*target = append(*target, values...)
	}

	entry.Themes = canon.NormalizeTags(entry.Themes)
	entry.ArchetypeTags = canon.NormalizeTags(entry.ArchetypeTags)
	entry.IntegrationTags = canon.NormalizeTags(entry.IntegrationTags)
	entry.LinkedFigures = dedupe(entry.LinkedFigures)
	return entry, nil
}

func checkProperties(doc *parser.Document, sourceType *config.SourceType) error {
	for _, prop := range sourceType.Properties {
		value := doc.String(prop.Name)
		if value == "" {
			if prop.Required && prop.Default == "" {
				return fmt.Errorf("property %s is required for %s", prop.Name, sourceType.Name)
			}
			continue
		}
		if strings.EqualFold(prop.Type, "enum") && !containsFold(prop.Values, value) {
			return fmt.Errorf("property %s must be one of %v, got %q", prop.Name, prop.Values, value)
		}
	}
	return nil
}

func walkMarkdownFiles(roots []string, excludes []string) ([]string, error) {
	excluded := make([]string, 0, len(excludes))
	for _, path := range excludes {
		if path == "" {
			continue
		}
		excluded = append(excluded, filepath.Clean(path))
	}

	var files []string
	for _, root := range roots {
		if root == "" {
			continue
		}
		root = filepath.Clean(root)
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() && isExcluded(path, excluded) {
				return filepath.SkipDir
			}
			if d.IsDir() {
				return nil
			}
			if !strings.HasSuffix(strings.ToLower(d.Name()), ".md") {
				return nil
			}
			if isExcluded(path, excluded) {
				return nil
			}
			files = append(files, path)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return files, nil
}

func isExcluded(path string, excludes []string) bool {
	clean := filepath.Clean(path)
	for _, exclude := range excludes {
		if exclude == clean || strings.HasPrefix(clean, exclude+string(os.PathSeparator)) {
			return true
		}
	}
	return false
}

func resolveAll(cfg *config.ProjectConfig, paths []string) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		out = append(out, cfg.Resolve(p))
	}
	return out
}

func computeHash(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

func slug(s string) string {
	var b strings.Builder
	underscore := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			underscore = false
		case b.Len() > 0 && !underscore:
			b.WriteByte('_')
			underscore = true
		}
	}
	return strings.TrimSuffix(b.String(), "_")
}

func dedupe(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		key := canon.NormalizeFigure(v)
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, v)
	}
	return out
}

func containsFold(values []string, value string) bool {
	for _, v := range values {
		if strings.EqualFold(v, value) {
			return true
		}
	}
	return false
}
