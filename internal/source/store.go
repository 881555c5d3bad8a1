// Package source holds citable primary-source fragments and scores the
// provenance of caller-supplied citations.
package source

import (
	"fmt"
	"sort"
	"strings"

	"livingcanon/internal/canon"
)

// ThemeAll matches every entry of a figure in QuotesForFigure.
const ThemeAll = "all"

const (
	StatusValidated    = "validated"
	StatusPending      = "pending"
	StatusUnrecognized = "unrecognized"
)

// Store is read-only after construction.
type Store struct {
	byFigure map[string][]canon.PrimarySourceEntry
	byID     map[string]canon.PrimarySourceEntry
	figures  []string
}

type Statistics struct {
	TotalSources        int
	FigureCount         int
	AverageAuthenticity float64
	SourcesByType       map[string]int
}

func New(entries []canon.PrimarySourceEntry) (*Store, error) {
	s := &Store{
		byFigure: make(map[string][]canon.PrimarySourceEntry),
		byID:     make(map[string]canon.PrimarySourceEntry, len(entries)),
	}
	for i, entry := range entries {
		if strings.TrimSpace(entry.ID) == "" {
			return nil, fmt.Errorf("source %d id is required", i)
		}
		if _, exists := s.byID[entry.ID]; exists {
			return nil, fmt.Errorf("duplicate source id: %s", entry.ID)
		}
		key := canon.NormalizeFigure(entry.Figure)
		if key == "" {
			return nil, fmt.Errorf("source %s figure is required", entry.ID)
		}
		entry = entry.Clone()
		entry.Themes = canon.NormalizeTags(entry.Themes)
		entry.ArchetypeTags = canon.NormalizeTags(entry.ArchetypeTags)
		entry.IntegrationTags = canon.NormalizeTags(entry.IntegrationTags)
		s.byID[entry.ID] = entry
		if _, seen := s.byFigure[key]; !seen {
			s.figures = append(s.figures, entry.Figure)
		}
		s.byFigure[key] = append(s.byFigure[key], entry)
	}
	return s, nil
}

// QuotesForFigure returns the figure's entries whose themes, archetype tags or
// integration tags contain theme. An empty theme or ThemeAll returns every
// entry. No match yields an empty slice.
func (s *Store) QuotesForFigure(figure, theme string) []canon.PrimarySourceEntry {
	entries := s.byFigure[canon.NormalizeFigure(figure)]
	want := canon.NormalizeTag(theme)

	out := make([]canon.PrimarySourceEntry, 0, len(entries))
	for _, entry := range entries {
		if want == "" || want == ThemeAll || entryHasTag(entry, want) {
			out = append(out, entry.Clone())
		}
	}
	return out
}

func (s *Store) SourceByID(id string) (canon.PrimarySourceEntry, bool) {
	entry, ok := s.byID[strings.TrimSpace(id)]
	if !ok {
		return canon.PrimarySourceEntry{}, false
	}
	return entry.Clone(), true
}

// Search matches query case-insensitively against text, themes and archetype
// tags. Results are ordered by id.
func (s *Store) Search(query string) []canon.PrimarySourceEntry {
	needle := strings.ToLower(strings.TrimSpace(query))
	if needle == "" {
		return []canon.PrimarySourceEntry{}
	}
	out := make([]canon.PrimarySourceEntry, 0)
	for _, entry := range s.byID {
		if strings.Contains(strings.ToLower(entry.AuthenticText), needle) ||
			containsSubstring(entry.Themes, needle) ||
			containsSubstring(entry.ArchetypeTags, needle) {
			out = append(out, entry.Clone())
		}
	}
	sortByID(out)
	return out
}

func (s *Store) SourcesByArchetype(tag string) []canon.PrimarySourceEntry {
	want := canon.NormalizeTag(tag)
	out := make([]canon.PrimarySourceEntry, 0)
	for _, entry := range s.byID {
		if containsTag(entry.ArchetypeTags, want) {
			out = append(out, entry.Clone())
		}
	}
	sortByID(out)
	return out
}

// Figures lists the figures with at least one entry, in load order.
func (s *Store) Figures() []string {
	return append([]string(nil), s.figures...)
}

func (s *Store) Len() int {
	return len(s.byID)
}

func (s *Store) Statistics() Statistics {
	stats := Statistics{
		TotalSources:  len(s.byID),
		FigureCount:   len(s.figures),
		SourcesByType: make(map[string]int),
	}
	// Summed in load order so the average is stable across runs.
	var total float64
	for _, figure := range s.figures {
		for _, entry := range s.byFigure[canon.NormalizeFigure(figure)] {
			stats.SourcesByType[entry.SourceType]++
			total += entry.Authenticity
		}
	}
	if stats.TotalSources > 0 {
		stats.AverageAuthenticity = total / float64(stats.TotalSources)
	}
	return stats
}

func entryHasTag(entry canon.PrimarySourceEntry, tag string) bool {
	return containsTag(entry.Themes, tag) ||
		containsTag(entry.ArchetypeTags, tag) ||
		containsTag(entry.IntegrationTags, tag)
}

func containsTag(tags []string, want string) bool {
	for _, tag := range tags {
		if tag == want {
			return true
		}
	}
	return false
}

func containsSubstring(values []string, needle string) bool {
	for _, value := range values {
		if strings.Contains(strings.ToLower(value), needle) {
			return true
		}
	}
	return false
}

func sortByID(entries []canon.PrimarySourceEntry) {
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].ID < entries[j].ID
	})
}
