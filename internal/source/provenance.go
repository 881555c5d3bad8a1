package source

import (
	"strings"

	"livingcanon/internal/canon"
)

const (
	provenanceGenerated    = "generated_content"
	provenanceUnrecognized = "unrecognized_material"
	generatedContext       = "Generated content based on archetype patterns"
)

// Generated material is scored in tenths to keep threshold comparisons exact.
const (
	generatedBase         = 5
	generatedTagBonus     = 1
	generatedContextBonus = 2
	generatedThemeBonus   = 1
	generatedFiguralBonus = 1
	generatedCap          = 9
)

type ProvenanceRecord struct {
	SourceID          string  `json:"source_id,omitempty"`
	Source            string  `json:"source"`
	AuthenticityScore float64 `json:"authenticity_score"`
	ValidationStatus  string  `json:"validation_status"`
	HistoricalContext string  `json:"historical_context"`
}

type AuthenticityReport struct {
	Score   float64            `json:"score"`
	Records []ProvenanceRecord `json:"records"`
}

// ValidateSource scores a citation of any shape. Known source ids return the
// recorded provenance; other citation objects are scored from the fields they
// carry; anything else scores zero.
func (s *Store) ValidateSource(material any) ProvenanceRecord {
	switch m := material.(type) {
	case nil:
		return unrecognized("")
	case string:
		return s.validateByID(m)
	case canon.PrimarySourceEntry:
		return s.validateMap(entryFields(m))
	case *canon.PrimarySourceEntry:
		if m == nil {
			return unrecognized("")
		}
		return s.validateMap(entryFields(*m))
	case map[string]any:
		return s.validateMap(m)
	case map[string]string:
		fields := make(map[string]any, len(m))
		for k, v := range m {
			fields[k] = v
		}
		return s.validateMap(fields)
	default:
		return unrecognized("")
	}
}

// ValidateAuthenticity averages the per-material scores. No evidence scores 0.
func (s *Store) ValidateAuthenticity(materials []any) AuthenticityReport {
	report := AuthenticityReport{Records: make([]ProvenanceRecord, 0, len(materials))}
	if len(materials) == 0 {
		return report
	}
	var total float64
	for _, material := range materials {
		record := s.ValidateSource(material)
		report.Records = append(report.Records, record)
		total += record.AuthenticityScore
	}
	report.Score = total / float64(len(materials))
	return report
}

func (s *Store) validateByID(id string) ProvenanceRecord {
	entry, ok := s.byID[strings.TrimSpace(id)]
	if !ok {
		return unrecognized(id)
	}
	return recordFor(entry)
}

func (s *Store) validateMap(fields map[string]any) ProvenanceRecord {
	id := toString(fields["id"])
	if entry, ok := s.byID[id]; ok && id != "" {
		return recordFor(entry)
	}

	score := generatedBase
	if len(toStrings(fields["archetype_tags"])) > 0 {
		score += generatedTagBonus
	}
	if toString(fields["historical_context"]) != "" {
		score += generatedContextBonus
	}
	if len(toStrings(fields["themes"])) > 0 {
		score += generatedThemeBonus
	}
	if truthy(fields["figural_alignment"]) {
		score += generatedFiguralBonus
	}
	if score > generatedCap {
		score = generatedCap
	}
	return ProvenanceRecord{
		SourceID:          id,
		Source:            provenanceGenerated,
		AuthenticityScore: float64(score) / 10,
		ValidationStatus:  StatusPending,
		HistoricalContext: generatedContext,
	}
}

func recordFor(entry canon.PrimarySourceEntry) ProvenanceRecord {
	source := entry.Provenance
	if source == "" {
		source = "primary_source"
	}
	return ProvenanceRecord{
		SourceID:          entry.ID,
		Source:            source,
		AuthenticityScore: entry.Authenticity,
		ValidationStatus:  StatusValidated,
		HistoricalContext: entry.HistoricalContext,
	}
}

func unrecognized(id string) ProvenanceRecord {
	return ProvenanceRecord{
		SourceID:         strings.TrimSpace(id),
		Source:           provenanceUnrecognized,
		ValidationStatus: StatusUnrecognized,
	}
}

func entryFields(entry canon.PrimarySourceEntry) map[string]any {
	return map[string]any{
		"id":                 entry.ID,
		"archetype_tags":     entry.ArchetypeTags,
		"historical_context": entry.HistoricalContext,
		"themes":             entry.Themes,
	}
}

func toString(value any) string {
	if s, ok := value.(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}

func toStrings(value any) []string {
	switch v := value.(type) {
	case string:
		if strings.TrimSpace(v) == "" {
			return nil
		}
		return []string{v}
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

func truthy(value any) bool {
	switch v := value.(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		return strings.TrimSpace(v) != ""
	case float64:
		return v != 0
	case int:
		return v != 0
	case []any:
		return len(v) > 0
	case []string:
		return len(v) > 0
	case map[string]any:
		return len(v) > 0
	default:
		return true
	}
}
