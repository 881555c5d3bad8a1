package store

import (
	"encoding/json"
	"fmt"
	"strings"

	"livingcanon/internal/canon"
	"livingcanon/internal/narrative"
)

type SourceInput struct {
	Entry      canon.PrimarySourceEntry
	SourceFile string
	SourceHash string
	Body       string
}

type SourceFilter struct {
	Figure     string
	SourceType string
	Tag        string
}

type SearchResult struct {
	ID         string
	Figure     string
	SourceType string
	Score      float64
	Snippet    string
}

// EntryFilter selects narrative entries. Zero values match everything.
type EntryFilter struct {
	Figure string
	Since  int
	Limit  int
}

// Match reports whether entry passes the figure filter.
func (f EntryFilter) Match(entry narrative.Entry) bool {
	if strings.TrimSpace(f.Figure) == "" {
		return true
	}
	key := canon.NormalizeFigure(f.Figure)
	for _, figure := range entry.Figures {
		if canon.NormalizeFigure(figure) == key {
			return true
		}
	}
	return false
}

// EntryColumns holds the JSON encodings shared by every backend.
type EntryColumns struct {
	Act        []byte
	Effect     []byte
	Figures    []byte
	Responses  []byte
	Provenance []byte
	Transition []byte
}

func EncodeEntry(entry narrative.Entry) (EntryColumns, error) {
	var cols EntryColumns
	var err error
	if cols.Act, err = json.Marshal(entry.Act); err != nil {
		return cols, fmt.Errorf("marshaling act: %w", err)
	}
	if cols.Effect, err = json.Marshal(entry.Effect); err != nil {
		return cols, fmt.Errorf("marshaling effect: %w", err)
	}
	if cols.Figures, err = json.Marshal(nonNil(entry.Figures)); err != nil {
		return cols, fmt.Errorf("marshaling figures: %w", err)
	}
	responses := entry.Responses
	if responses == nil {
		responses = []narrative.NPCResponse{}
	}
	if cols.Responses, err = json.Marshal(responses); err != nil {
		return cols, fmt.Errorf("marshaling responses: %w", err)
	}
	if cols.Provenance, err = json.Marshal(entry.Provenance); err != nil {
		return cols, fmt.Errorf("marshaling provenance: %w", err)
	}
	if entry.Transition != nil {
		if cols.Transition, err = json.Marshal(entry.Transition); err != nil {
			return cols, fmt.Errorf("marshaling transition: %w", err)
		}
	}
	return cols, nil
}

// DecodeEntry fills the JSON columns of entry from cols.
func DecodeEntry(entry *narrative.Entry, cols EntryColumns) error {
	if err := json.Unmarshal(cols.Act, &entry.Act); err != nil {
		return fmt.Errorf("unmarshaling act: %w", err)
	}
	if err := json.Unmarshal(cols.Effect, &entry.Effect); err != nil {
		return fmt.Errorf("unmarshaling effect: %w", err)
	}
	if err := json.Unmarshal(cols.Figures, &entry.Figures); err != nil {
		return fmt.Errorf("unmarshaling figures: %w", err)
	}
	if len(cols.Responses) > 0 {
		if err := json.Unmarshal(cols.Responses, &entry.Responses); err != nil {
			return fmt.Errorf("unmarshaling responses: %w", err)
		}
	}
	if len(cols.Provenance) > 0 {
		if err := json.Unmarshal(cols.Provenance, &entry.Provenance); err != nil {
			return fmt.Errorf("unmarshaling provenance: %w", err)
		}
	}
	if len(cols.Transition) > 0 && string(cols.Transition) != "null" {
		var t narrative.ArcTransition
		if err := json.Unmarshal(cols.Transition, &t); err != nil {
			return fmt.Errorf("unmarshaling transition: %w", err)
		}
		entry.Transition = &t
	}
	return nil
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

// SourceTags joins the searchable tags of an entry.
func SourceTags(entry canon.PrimarySourceEntry) []string {
	tags := make([]string, 0, len(entry.Themes)+len(entry.ArchetypeTags)+len(entry.IntegrationTags))
	tags = append(tags, entry.Themes...)
	tags = append(tags, entry.ArchetypeTags...)
	tags = append(tags, entry.IntegrationTags...)
	return tags
}

func HasTag(entry canon.PrimarySourceEntry, tag string) bool {
	want := canon.NormalizeTag(tag)
	for _, t := range SourceTags(entry) {
		if canon.NormalizeTag(t) == want {
			return true
		}
	}
	return false
}
