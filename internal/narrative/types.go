package narrative

import (
	"time"

	"livingcanon/internal/source"
)

// CreationInput is a caller-submitted creative act. MaterialsUsed holds
// citations of any shape; the source store decides how authentic they are.
type CreationInput struct {
	PlayerName         string   `json:"player_name" yaml:"player"`
	MaterialsUsed      []any    `json:"materials_used" yaml:"materials"`
	ArchetypeTags      []string `json:"archetype_tags" yaml:"archetype_tags"`
	Intent             string   `json:"intent" yaml:"intent"`
	ConsciousnessLevel float64  `json:"consciousness_level" yaml:"consciousness_level"`
}

type WorldEffect struct {
	ID                      string        `json:"id"`
	Name                    string        `json:"name"`
	Description             string        `json:"description"`
	PowerLevel              float64       `json:"power_level"`
	Duration                time.Duration `json:"duration"`
	FiguresInvolved         []string      `json:"figures_involved"`
	RegionsAffected         []string      `json:"regions_affected"`
	AccessibilityCompliance bool          `json:"accessibility_compliance"`
	HealingPotential        float64       `json:"healing_potential"`
	AuthenticityScore       float64       `json:"authenticity_score"`
}

type InteractionType string

const (
	InteractionGuidance      InteractionType = "guidance"
	InteractionCollaboration InteractionType = "collaboration"
	InteractionChallenge     InteractionType = "challenge"
)

func (t InteractionType) Valid() bool {
	switch t {
	case InteractionGuidance, InteractionCollaboration, InteractionChallenge:
		return true
	}
	return false
}

type PlayerContext struct {
	Theme              string  `json:"theme"`
	ConsciousnessLevel float64 `json:"consciousness_level"`
	CurrentRegion      string  `json:"current_region"`
	ArcPosition        float64 `json:"arc_position"`
}

type NPCResponse struct {
	Figure                  string          `json:"figure"`
	Interaction             InteractionType `json:"interaction"`
	Dialogue                string          `json:"dialogue"`
	Action                  string          `json:"action"`
	EmotionalState          string          `json:"emotional_state"`
	AuthenticMaterialQuoted string          `json:"authentic_material_quoted"`
	SourceID                string          `json:"source_id,omitempty"`
}

// ArcTransition records an arc evolution triggered while folding an effect.
type ArcTransition struct {
	FromArchetype int    `json:"from_archetype"`
	ToArchetype   int    `json:"to_archetype"`
	FromRegion    string `json:"from_region"`
	ToRegion      string `json:"to_region"`
}

// Entry is one canonical event of the narrative log.
type Entry struct {
	Sequence        int                       `json:"sequence"`
	ID              string                    `json:"id"`
	Timestamp       time.Time                 `json:"timestamp"`
	Act             CreationInput             `json:"act"`
	Effect          WorldEffect               `json:"effect"`
	Figures         []string                  `json:"figures"`
	Responses       []NPCResponse             `json:"responses"`
	NarrativeImpact float64                   `json:"narrative_impact"`
	Provenance      []source.ProvenanceRecord `json:"provenance"`
	Transition      *ArcTransition            `json:"transition,omitempty"`
}
