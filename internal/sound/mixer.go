// Package sound blends the fixed audio profiles of figures into composite
// sound spells.
package sound

import (
	"errors"
	"fmt"
	"hash/fnv"
	"math"
	"strings"

	"livingcanon/internal/canon"
	"livingcanon/internal/source"
)

// MinFigures is the number of resolvable profiles a mix needs.
const MinFigures = 2

var ErrInsufficientFigures = errors.New("insufficient figures for sound spell")

// InsufficientFiguresError reports how many of the requested figures had a
// profile. It matches ErrInsufficientFigures.
type InsufficientFiguresError struct {
	Requested []string
	Resolved  int
}

func (e *InsufficientFiguresError) Error() string {
	return fmt.Sprintf("need at least %d figures with sound profiles, resolved %d of %d", MinFigures, e.Resolved, len(e.Requested))
}

func (e *InsufficientFiguresError) Is(target error) bool {
	return target == ErrInsufficientFigures
}

// Sources is the slice of the primary source store the mixer reads.
type Sources interface {
	QuotesForFigure(figure, theme string) []canon.PrimarySourceEntry
	ValidateAuthenticity(materials []any) source.AuthenticityReport
}

type Result struct {
	Figures              []string                   `json:"figures"`
	Intent               string                     `json:"intent"`
	FrequencySignature   []float64                  `json:"frequency_signature"`
	Rhythms              []string                   `json:"rhythms"`
	EmotionalImpact      float64                    `json:"emotional_impact"`
	HistoricalResonance  float64                    `json:"historical_resonance"`
	WorldEffectPotential float64                    `json:"world_effect_potential"`
	AuthenticMaterial    []canon.PrimarySourceEntry `json:"authentic_material_integrated"`
}

// Fusion describes the consciousness that emerges from blending figures.
type Fusion struct {
	FiguresInvolved        []string `json:"figures_involved"`
	NewArchetypeEmergence  string   `json:"new_archetype_emergence"`
	CreativeSynthesis      string   `json:"creative_synthesis"`
	HealingPotential       float64  `json:"healing_potential"`
	WorldChangingPotential float64  `json:"world_changing_potential"`
}

type Mixer struct {
	profiles map[string]canon.FigureSoundProfile
	sources  Sources
}

// NewMixer indexes profiles by normalized figure name. sources may be nil, in
// which case results carry no authentic material.
func NewMixer(profiles []canon.FigureSoundProfile, sources Sources) *Mixer {
	m := &Mixer{
		profiles: make(map[string]canon.FigureSoundProfile, len(profiles)),
		sources:  sources,
	}
	for _, profile := range profiles {
		profile.HarmonicSeries = append([]float64(nil), profile.HarmonicSeries...)
		m.profiles[canon.NormalizeFigure(profile.Figure)] = profile
	}
	return m
}

func (m *Mixer) Profile(figure string) (canon.FigureSoundProfile, bool) {
	profile, ok := m.profiles[canon.NormalizeFigure(figure)]
	if !ok {
		return canon.FigureSoundProfile{}, false
	}
	profile.HarmonicSeries = append([]float64(nil), profile.HarmonicSeries...)
	return profile, true
}

// resolve returns the profiles for figureIDs in request order, skipping
// unknown and repeated figures.
func (m *Mixer) resolve(figureIDs []string) ([]canon.FigureSoundProfile, error) {
	seen := make(map[string]struct{}, len(figureIDs))
	var out []canon.FigureSoundProfile
	for _, id := range figureIDs {
		key := canon.NormalizeFigure(id)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		if profile, ok := m.profiles[key]; ok {
			out = append(out, profile)
		}
	}
	if len(out) < MinFigures {
		return nil, &InsufficientFiguresError{
			Requested: append([]string(nil), figureIDs...),
			Resolved:  len(out),
		}
	}
	return out, nil
}

// Mix blends the profiles of figureIDs under intent. The result depends only
// on the arguments and the loaded profiles.
func (m *Mixer) Mix(figureIDs []string, intent string) (Result, error) {
	profiles, err := m.resolve(figureIDs)
	if err != nil {
		return Result{}, err
	}

	intent = strings.TrimSpace(intent)
	modulation := intentModulation(intent)

	width := 0
	for _, p := range profiles {
		if len(p.HarmonicSeries) > width {
			width = len(p.HarmonicSeries)
		}
	}
	signature := make([]float64, width)
	for i := range signature {
		var sum float64
		var n int
		for _, p := range profiles {
			if i < len(p.HarmonicSeries) {
				sum += p.BaseFrequency * p.HarmonicSeries[i]
				n++
			}
		}
		signature[i] = round(sum/float64(n)*modulation, 2)
	}

	result := Result{
		Intent:             intent,
		FrequencySignature: signature,
	}
	var authenticity, baseSum float64
	for _, p := range profiles {
		result.Figures = append(result.Figures, p.Figure)
		result.Rhythms = append(result.Rhythms, p.RhythmPattern)
		authenticity += p.HistoricalAuthenticity
		baseSum += p.BaseFrequency
	}
	resonance := authenticity / float64(len(profiles))

	result.HistoricalResonance = round(resonance, 3)
	result.EmotionalImpact = round(0.5*consonance(profiles)+0.5*resonance, 3)
	result.WorldEffectPotential = round(baseSum/100*resonance*modulation, 2)
	result.AuthenticMaterial = m.material(result.Figures, intent)
	return result, nil
}

// Authenticity scores the material a mix integrated.
func (m *Mixer) Authenticity(result Result) source.AuthenticityReport {
	if m.sources == nil {
		return source.AuthenticityReport{Records: []source.ProvenanceRecord{}}
	}
	materials := make([]any, 0, len(result.AuthenticMaterial))
	for _, entry := range result.AuthenticMaterial {
		materials = append(materials, entry.ID)
	}
	return m.sources.ValidateAuthenticity(materials)
}

// FuseConsciousness describes the archetype that emerges from figureIDs.
func (m *Mixer) FuseConsciousness(figureIDs []string) (Fusion, error) {
	profiles, err := m.resolve(figureIDs)
	if err != nil {
		return Fusion{}, err
	}
	names := make([]string, 0, len(profiles))
	motifs := make([]string, 0, len(profiles))
	var authenticity float64
	for _, p := range profiles {
		names = append(names, p.Figure)
		if p.CreativeMotif != "" {
			motifs = append(motifs, p.CreativeMotif)
		}
		authenticity += p.HistoricalAuthenticity
	}
	resonance := authenticity / float64(len(profiles))

	emergence := make([]string, 0, len(profiles))
	for _, name := range names {
		if parts := strings.Fields(name); len(parts) > 0 {
			emergence = append(emergence, parts[len(parts)-1])
		}
	}

	return Fusion{
		FiguresInvolved:        names,
		NewArchetypeEmergence:  "The " + strings.Join(emergence, "-") + " Synthesis",
		CreativeSynthesis:      strings.Join(motifs, " meets "),
		HealingPotential:       round(resonance*10, 2),
		WorldChangingPotential: round(float64(len(profiles))*resonance*consonance(profiles)*10, 2),
	}, nil
}

func (m *Mixer) material(figures []string, intent string) []canon.PrimarySourceEntry {
	out := make([]canon.PrimarySourceEntry, 0, len(figures))
	if m.sources == nil {
		return out
	}
	for _, figure := range figures {
		quotes := m.sources.QuotesForFigure(figure, intent)
		if len(quotes) == 0 {
			quotes = m.sources.QuotesForFigure(figure, source.ThemeAll)
		}
		if len(quotes) > 0 {
			out = append(out, quotes[0])
		}
	}
	return out
}

// consonance is the ratio of the lowest to the highest base frequency.
func consonance(profiles []canon.FigureSoundProfile) float64 {
	low, high := math.Inf(1), 0.0
	for _, p := range profiles {
		low = math.Min(low, p.BaseFrequency)
		high = math.Max(high, p.BaseFrequency)
	}
	if high == 0 {
		return 0
	}
	return low / high
}

// intentModulation maps intent onto a factor in [1.00, 1.04].
func intentModulation(intent string) float64 {
	if intent == "" {
		return 1
	}
	h := fnv.New32a()
	h.Write([]byte(strings.ToLower(intent)))
	return 1 + float64(h.Sum32()%41)/1000
}

func round(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}
