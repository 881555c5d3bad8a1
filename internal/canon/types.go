package canon

type CollisionType string

const (
	CollisionCollaboration CollisionType = "collaboration"
	CollisionRivalry       CollisionType = "rivalry"
	CollisionInspiration   CollisionType = "inspiration"
	CollisionSynthesis     CollisionType = "synthesis"
)

func (t CollisionType) Valid() bool {
	switch t {
	case CollisionCollaboration, CollisionRivalry, CollisionInspiration, CollisionSynthesis:
		return true
	}
	return false
}

type ConnectionType string

const (
	ConnectionDirect      ConnectionType = "direct"
	ConnectionInfluence   ConnectionType = "influence"
	ConnectionCoincidence ConnectionType = "coincidence"
	ConnectionSynthesis   ConnectionType = "synthesis"
	ConnectionRivalry     ConnectionType = "rivalry"
)

func (t ConnectionType) Valid() bool {
	switch t {
	case ConnectionDirect, ConnectionInfluence, ConnectionCoincidence, ConnectionSynthesis, ConnectionRivalry:
		return true
	}
	return false
}

// PrimarySourceEntry is a citable fragment attributed to a figure. Entries are
// treated as immutable once loaded.
type PrimarySourceEntry struct {
	ID                string   `yaml:"id" json:"id"`
	Figure            string   `yaml:"figure" json:"figure"`
	SourceType        string   `yaml:"source_type" json:"source_type"`
	AuthenticText     string   `yaml:"authentic_text" json:"authentic_text"`
	HistoricalContext string   `yaml:"historical_context" json:"historical_context"`
	Date              string   `yaml:"date" json:"date"`
	Themes            []string `yaml:"themes" json:"themes"`
	LinkedFigures     []string `yaml:"linked_figures" json:"linked_figures"`
	ArchetypeTags     []string `yaml:"archetype_tags" json:"archetype_tags"`
	IntegrationTags   []string `yaml:"integration_tags" json:"integration_tags,omitempty"`
	SoundRhythm       string   `yaml:"sound_rhythm" json:"sound_rhythm,omitempty"`
	Provenance        string   `yaml:"provenance" json:"provenance,omitempty"`
	Authenticity      float64  `yaml:"authenticity" json:"authenticity"`
}

// Clone returns a copy that shares no slices with e.
func (e PrimarySourceEntry) Clone() PrimarySourceEntry {
	out := e
	out.Themes = cloneStrings(e.Themes)
	out.LinkedFigures = cloneStrings(e.LinkedFigures)
	out.ArchetypeTags = cloneStrings(e.ArchetypeTags)
	out.IntegrationTags = cloneStrings(e.IntegrationTags)
	return out
}

type CollisionPotential struct {
	WithFigure    string        `yaml:"with_figure" json:"with_figure"`
	CollisionType CollisionType `yaml:"collision_type" json:"collision_type"`
	Scenario      string        `yaml:"scenario" json:"scenario"`
	DynamismScore int           `yaml:"dynamism_score" json:"dynamism_score"`
	SourceIDs     []string      `yaml:"supporting_sources" json:"-"`

	// SupportingSources is resolved from SourceIDs when the canon is loaded.
	SupportingSources []PrimarySourceEntry `yaml:"-" json:"supporting_sources"`
}

type SoundSpellConfig struct {
	FrequencySignature float64 `yaml:"frequency_signature" json:"frequency_signature"`
	Rhythm             string  `yaml:"rhythm" json:"rhythm"`
	EmotionalImpact    string  `yaml:"emotional_impact" json:"emotional_impact"`
}

type CreativeOutput struct {
	Figure               string           `yaml:"figure" json:"figure"`
	WorkType             string           `yaml:"work_type" json:"work_type"`
	AuthenticMaterial    string           `yaml:"authentic_material" json:"authentic_material"`
	ArchetypeTags        []string         `yaml:"archetype_tags" json:"archetype_tags"`
	CreationDate         string           `yaml:"creation_date" json:"creation_date"`
	IntegrationPotential int              `yaml:"integration_potential" json:"integration_potential"`
	SoundSpell           SoundSpellConfig `yaml:"sound_spell" json:"sound_spell"`
}

type HistoricalThread struct {
	Figure1          string         `yaml:"figure1" json:"figure1"`
	Figure2          string         `yaml:"figure2" json:"figure2"`
	ConnectionType   ConnectionType `yaml:"connection_type" json:"connection_type"`
	ThreadStrength   int            `yaml:"thread_strength" json:"thread_strength"`
	CrossPollination []string       `yaml:"cross_pollination" json:"cross_pollination"`
	NarrativeHooks   []string       `yaml:"narrative_hooks" json:"narrative_hooks"`
}

// ArchetypeFunction is one archetypal role. Its id is the arcana number and
// doubles as the ordering key of the registry.
type ArchetypeFunction struct {
	ID                  int                  `yaml:"id" json:"id"`
	Name                string               `yaml:"name" json:"name"`
	Description         string               `yaml:"description" json:"description"`
	Tags                []string             `yaml:"tags" json:"tags"`
	Figures             []string             `yaml:"figures" json:"figures"`
	SoundMotifs         []string             `yaml:"sound_motifs" json:"sound_motifs"`
	NarrativeArc        string               `yaml:"narrative_arc" json:"narrative_arc"`
	CollisionPotential  []CollisionPotential `yaml:"collision_potential" json:"collision_potential"`
	CreativeOutput      []CreativeOutput     `yaml:"creative_output" json:"creative_output"`
	HistoricalThreading []HistoricalThread   `yaml:"historical_threading" json:"historical_threading"`
}

// Clone returns a deep copy of a.
func (a ArchetypeFunction) Clone() ArchetypeFunction {
	out := a
	out.Tags = cloneStrings(a.Tags)
	out.Figures = cloneStrings(a.Figures)
	out.SoundMotifs = cloneStrings(a.SoundMotifs)
	if a.CollisionPotential != nil {
		out.CollisionPotential = make([]CollisionPotential, len(a.CollisionPotential))
		for i, c := range a.CollisionPotential {
			c.SourceIDs = cloneStrings(c.SourceIDs)
			if c.SupportingSources != nil {
				sources := make([]PrimarySourceEntry, len(c.SupportingSources))
				for j, s := range c.SupportingSources {
					sources[j] = s.Clone()
				}
				c.SupportingSources = sources
			}
			out.CollisionPotential[i] = c
		}
	}
	if a.CreativeOutput != nil {
		out.CreativeOutput = make([]CreativeOutput, len(a.CreativeOutput))
		for i, c := range a.CreativeOutput {
			c.ArchetypeTags = cloneStrings(c.ArchetypeTags)
			out.CreativeOutput[i] = c
		}
	}
	if a.HistoricalThreading != nil {
		out.HistoricalThreading = make([]HistoricalThread, len(a.HistoricalThreading))
		for i, h := range a.HistoricalThreading {
			h.CrossPollination = cloneStrings(h.CrossPollination)
			h.NarrativeHooks = cloneStrings(h.NarrativeHooks)
			out.HistoricalThreading[i] = h
		}
	}
	return out
}

type Portal struct {
	Destination           string `yaml:"destination" json:"destination"`
	Symbol                string `yaml:"symbol" json:"symbol"`
	ActivationRequirement string `yaml:"activation_requirement" json:"activation_requirement"`
	ArchetypeResonance    []int  `yaml:"archetype_resonance" json:"archetype_resonance"`
}

type Accessibility struct {
	TraumaSafe     bool     `yaml:"trauma_safe" json:"trauma_safe"`
	GentleDefaults bool     `yaml:"gentle_defaults" json:"gentle_defaults"`
	ExitPoints     []string `yaml:"exit_points" json:"exit_points"`
}

type WorldRegion struct {
	ID                string        `yaml:"id" json:"id"`
	Name              string        `yaml:"name" json:"name"`
	PrimaryArchetype  int           `yaml:"primary_archetype" json:"primary_archetype"`
	HistoricalSetting string        `yaml:"historical_setting" json:"historical_setting"`
	Manifestations    []string      `yaml:"manifestations" json:"manifestations"`
	Portals           []Portal      `yaml:"portals" json:"portals"`
	SoundAtmosphere   []string      `yaml:"sound_atmosphere" json:"sound_atmosphere"`
	Accessibility     Accessibility `yaml:"accessibility" json:"accessibility"`
}

// Clone returns a deep copy of r.
func (r WorldRegion) Clone() WorldRegion {
	out := r
	out.Manifestations = cloneStrings(r.Manifestations)
	out.SoundAtmosphere = cloneStrings(r.SoundAtmosphere)
	out.Accessibility.ExitPoints = cloneStrings(r.Accessibility.ExitPoints)
	if r.Portals != nil {
		out.Portals = make([]Portal, len(r.Portals))
		for i, p := range r.Portals {
			if p.ArchetypeResonance != nil {
				p.ArchetypeResonance = append([]int(nil), p.ArchetypeResonance...)
			}
			out.Portals[i] = p
		}
	}
	return out
}

// FigureSoundProfile is the fixed audio signature of a figure used by the
// sound-spell mixer.
type FigureSoundProfile struct {
	Figure                 string    `yaml:"figure" json:"figure"`
	BaseFrequency          float64   `yaml:"base_frequency" json:"base_frequency"`
	RhythmPattern          string    `yaml:"rhythm_pattern" json:"rhythm_pattern"`
	HarmonicSeries         []float64 `yaml:"harmonic_series" json:"harmonic_series"`
	CreativeMotif          string    `yaml:"creative_motif" json:"creative_motif"`
	EmotionalResonance     string    `yaml:"emotional_resonance" json:"emotional_resonance"`
	HistoricalAuthenticity float64   `yaml:"historical_authenticity" json:"historical_authenticity"`
}

type StartingState struct {
	Region             string   `yaml:"region"`
	ActiveFigures      []string `yaml:"active_figures"`
	ArcProgress        float64  `yaml:"arc_progress"`
	WorldStability     float64  `yaml:"world_stability"`
	ConsciousnessLevel float64  `yaml:"consciousness_level"`
}

// Canon is the full content set the engine is constructed from.
type Canon struct {
	Version       int                  `yaml:"version"`
	Start         StartingState        `yaml:"start"`
	FigurePower   map[string]float64   `yaml:"figure_power"`
	Archetypes    []ArchetypeFunction  `yaml:"archetypes"`
	Regions       []WorldRegion        `yaml:"regions"`
	Sources       []PrimarySourceEntry `yaml:"sources"`
	SoundProfiles []FigureSoundProfile `yaml:"sound_profiles"`
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	return append([]string(nil), in...)
}
