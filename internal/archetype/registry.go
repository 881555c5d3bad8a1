// Package archetype answers which archetypal roles and figures a creation
// touches, and how much power they bring to it.
package archetype

import (
	"fmt"
	"sort"
	"strings"

	"livingcanon/internal/canon"
)

// DefaultFallbackPower is the weight of a figure missing from the power table.
const DefaultFallbackPower = 5.0

// MaxConsciousness is the top of the consciousness scale impact is normalised by.
const MaxConsciousness = 21.0

type Registry struct {
	archetypes []canon.ArchetypeFunction
	byID       map[int]int
	tags       [][]string
	power      map[string]float64
	fallback   float64
	figureOf   map[string]string
}

type Option func(*Registry)

// WithFallbackPower sets the weight used for figures missing from the power table.
func WithFallbackPower(power float64) Option {
	return func(r *Registry) {
		if power >= 0 {
			r.fallback = power
		}
	}
}

// New builds a registry ordered by archetype id. Ids must be unique.
func New(archetypes []canon.ArchetypeFunction, power map[string]float64, opts ...Option) (*Registry, error) {
	if len(archetypes) == 0 {
		return nil, fmt.Errorf("at least one archetype is required")
	}

	sorted := make([]canon.ArchetypeFunction, 0, len(archetypes))
	for _, a := range archetypes {
		sorted = append(sorted, a.Clone())
	}
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	r := &Registry{
		archetypes: sorted,
		byID:       make(map[int]int, len(sorted)),
		tags:       make([][]string, len(sorted)),
		power:      make(map[string]float64, len(power)),
		fallback:   DefaultFallbackPower,
		figureOf:   make(map[string]string),
	}
	for i, a := range sorted {
		if _, exists := r.byID[a.ID]; exists {
			return nil, fmt.Errorf("duplicate archetype id: %d", a.ID)
		}
		r.byID[a.ID] = i
		r.tags[i] = implicitTags(a)
		for _, figure := range a.Figures {
			key := canon.NormalizeFigure(figure)
			if _, seen := r.figureOf[key]; !seen {
				r.figureOf[key] = figure
			}
		}
	}
	for figure, weight := range power {
		r.power[canon.NormalizeFigure(figure)] = weight
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// IdentifyRelevantFigures returns each figure whose archetype's tag set
// intersects tags, once, in archetype id then declaration order.
func (r *Registry) IdentifyRelevantFigures(tags []string) []string {
	want := make(map[string]struct{}, len(tags))
	for _, tag := range canon.NormalizeTags(tags) {
		want[tag] = struct{}{}
	}

	figures := make([]string, 0)
	if len(want) == 0 {
		return figures
	}
	seen := make(map[string]struct{})
	for i, a := range r.archetypes {
		if !intersects(r.tags[i], want) {
			continue
		}
		for _, figure := range a.Figures {
			key := canon.NormalizeFigure(figure)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			figures = append(figures, figure)
		}
	}
	return figures
}

// CalculateArchetypalImpact sums figure power scaled by consciousness out of 21.
func (r *Registry) CalculateArchetypalImpact(figures []string, consciousness float64) float64 {
	var total float64
	for _, figure := range figures {
		total += r.FigurePower(figure)
	}
	return total * (consciousness / MaxConsciousness)
}

func (r *Registry) FigurePower(figure string) float64 {
	if weight, ok := r.power[canon.NormalizeFigure(figure)]; ok {
		return weight
	}
	return r.fallback
}

func (r *Registry) FallbackPower() float64 {
	return r.fallback
}

// HasFigure reports whether figure belongs to any archetype.
func (r *Registry) HasFigure(figure string) bool {
	_, ok := r.figureOf[canon.NormalizeFigure(figure)]
	return ok
}

func (r *Registry) Archetype(id int) (canon.ArchetypeFunction, bool) {
	i, ok := r.byID[id]
	if !ok {
		return canon.ArchetypeFunction{}, false
	}
	return r.archetypes[i].Clone(), true
}

func (r *Registry) Archetypes() []canon.ArchetypeFunction {
	out := make([]canon.ArchetypeFunction, 0, len(r.archetypes))
	for _, a := range r.archetypes {
		out = append(out, a.Clone())
	}
	return out
}

// Tags returns the implicit tag set of an archetype.
func (r *Registry) Tags(id int) ([]string, bool) {
	i, ok := r.byID[id]
	if !ok {
		return nil, false
	}
	return append([]string(nil), r.tags[i]...), true
}

func (r *Registry) MaxID() int {
	return r.archetypes[len(r.archetypes)-1].ID
}

// ArchetypesForFigure lists the ids of every archetype the figure belongs to.
func (r *Registry) ArchetypesForFigure(figure string) []int {
	key := canon.NormalizeFigure(figure)
	ids := make([]int, 0)
	for _, a := range r.archetypes {
		for _, f := range a.Figures {
			if canon.NormalizeFigure(f) == key {
				ids = append(ids, a.ID)
				break
			}
		}
	}
	return ids
}

// Collisions returns the collision scenarios involving figure, either as the
// named partner or as a member of the archetype that declares them.
func (r *Registry) Collisions(figure string) []canon.CollisionPotential {
	key := canon.NormalizeFigure(figure)
	out := make([]canon.CollisionPotential, 0)
	for _, a := range r.archetypes {
		member := false
		for _, f := range a.Figures {
			if canon.NormalizeFigure(f) == key {
				member = true
				break
			}
		}
		for _, c := range a.CollisionPotential {
			if member || canon.NormalizeFigure(c.WithFigure) == key {
				out = append(out, c)
			}
		}
	}
	return out
}

// implicitTags is the archetype's name split on "/" plus its declared tags and
// the archetype tags of its creative output and supporting sources.
func implicitTags(a canon.ArchetypeFunction) []string {
	tags := strings.Split(a.Name, "/")
	tags = append(tags, a.Tags...)
	for _, output := range a.CreativeOutput {
		tags = append(tags, output.ArchetypeTags...)
	}
	for _, collision := range a.CollisionPotential {
		for _, entry := range collision.SupportingSources {
			tags = append(tags, entry.ArchetypeTags...)
		}
	}
	return canon.NormalizeTags(tags)
}

func intersects(tags []string, want map[string]struct{}) bool {
	for _, tag := range tags {
		if _, ok := want[tag]; ok {
			return true
		}
	}
	return false
}
