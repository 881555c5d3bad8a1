package narrative

import (
	"livingcanon/internal/canon"
)

type ArcMode string

const (
	// ArcCrossing evolves once each time progress passes the next multiple of the threshold.
	ArcCrossing ArcMode = "crossing"
	// ArcContinuous evolves on every effect applied while progress is above the threshold.
	ArcContinuous ArcMode = "continuous"
)

func (m ArcMode) Valid() bool {
	return m == ArcCrossing || m == ArcContinuous
}

const (
	ProgressPerPower  = 0.01
	StabilityPerHeal  = 0.1 / 1000
	DefaultArcTrigger = 0.8
	DefaultArcJump    = 5
)

// Rules parameterise how an effect is folded into story state.
type Rules struct {
	// ArcThreshold of zero evolves on any progress; a negative one selects
	// DefaultArcTrigger.
	ArcThreshold float64
	ArcJump      int
	MaxArchetype int
	Mode         ArcMode
	// RegionFor resolves the region an evolved archetype moves the story to.
	RegionFor func(archetype int) (string, bool)
}

// StoryState is the single mutable record of the world. Values are copied
// in and out; callers never share slices with the engine.
type StoryState struct {
	CurrentRegionID      string         `json:"current_region_id"`
	ActiveFigures        []string       `json:"active_figures"`
	NarrativeArcProgress float64        `json:"narrative_arc_progress"`
	WorldStability       float64        `json:"world_stability"`
	ConsciousnessLevel   float64        `json:"consciousness_level"`
	DominantArchetype    int            `json:"dominant_archetype"`
	ArcEvolutions        int            `json:"arc_evolutions"`
	Creations            int            `json:"creations"`
	LastCreationAct      *CreationInput `json:"last_creation_act,omitempty"`
}

func (s StoryState) Clone() StoryState {
	out := s
	out.ActiveFigures = append([]string(nil), s.ActiveFigures...)
	if s.LastCreationAct != nil {
		act := s.LastCreationAct.Clone()
		out.LastCreationAct = &act
	}
	return out
}

func (in CreationInput) Clone() CreationInput {
	out := in
	if in.MaterialsUsed != nil {
		out.MaterialsUsed = append([]any(nil), in.MaterialsUsed...)
	}
	if in.ArchetypeTags != nil {
		out.ArchetypeTags = append([]string(nil), in.ArchetypeTags...)
	}
	return out
}

// HasActiveFigure reports whether figure has been manifested.
func (s StoryState) HasActiveFigure(figure string) bool {
	key := canon.NormalizeFigure(figure)
	for _, f := range s.ActiveFigures {
		if canon.NormalizeFigure(f) == key {
			return true
		}
	}
	return false
}

// ApplyEffect returns the state after folding in one accepted creation. The
// receiver is left untouched.
func (s StoryState) ApplyEffect(input CreationInput, effect WorldEffect, rules Rules) (StoryState, *ArcTransition) {
	next := s.Clone()
	next.NarrativeArcProgress += effect.PowerLevel * ProgressPerPower
	next.WorldStability += effect.HealingPotential * StabilityPerHeal
	next.ConsciousnessLevel = input.ConsciousnessLevel
	next.Creations++
	act := input.Clone()
	next.LastCreationAct = &act

	for _, figure := range effect.FiguresInvolved {
		if !next.HasActiveFigure(figure) {
			next.ActiveFigures = append(next.ActiveFigures, figure)
		}
	}

	if !shouldEvolve(next, rules) {
		return next, nil
	}
	return next.evolve(rules)
}

func shouldEvolve(s StoryState, rules Rules) bool {
	threshold := rules.ArcThreshold
	if threshold < 0 {
		threshold = DefaultArcTrigger
	}
	if rules.Mode == ArcContinuous {
		return s.NarrativeArcProgress > threshold
	}
	return s.NarrativeArcProgress > threshold*float64(s.ArcEvolutions+1)
}

func (s StoryState) evolve(rules Rules) (StoryState, *ArcTransition) {
	jump := rules.ArcJump
	if jump <= 0 {
		jump = DefaultArcJump
	}
	ceiling := rules.MaxArchetype
	if ceiling <= 0 {
		ceiling = canon.MaxArchetypeID
	}
	next := s.DominantArchetype + jump
	if next > ceiling {
		next = ceiling
	}

	transition := &ArcTransition{
		FromArchetype: s.DominantArchetype,
		ToArchetype:   next,
		FromRegion:    s.CurrentRegionID,
		ToRegion:      s.CurrentRegionID,
	}
	s.DominantArchetype = next
	s.ArcEvolutions++
	if rules.RegionFor != nil {
		if regionID, ok := rules.RegionFor(next); ok {
			s.CurrentRegionID = regionID
			transition.ToRegion = regionID
		}
	}
	return s, transition
}
