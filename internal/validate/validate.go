// Package validate reports consistency issues across a loaded canon.
package validate

import (
	"fmt"
	"sort"
	"strings"

	"livingcanon/internal/archetype"
	"livingcanon/internal/canon"
	"livingcanon/internal/config"
)

type Severity string

const (
	SeverityError Severity = "error"
	SeverityWarn  Severity = "warning"
)

const (
	codeUnknownSourceType     = "unknown_source_type"
	codeUnknownResonance      = "unknown_portal_resonance"
	codeUnreachableRegion     = "unreachable_region"
	codeRegionNotTraumaSafe   = "region_not_trauma_safe"
	codeUnpoweredFigure       = "figure_without_power"
	codeFigureWithoutSources  = "figure_without_sources"
	codeFigureWithoutSound    = "figure_without_sound_profile"
	codeUnknownFigure         = "unknown_figure"
	codeUnknownArchetypeTag   = "unknown_archetype_tag"
	codeUnsupportedCollision  = "collision_without_sources"
	codeUnknownStartingFigure = "unknown_starting_figure"
)

type Issue struct {
	Severity Severity
	Code     string
	Message  string
	// Subject names what the issue is about: an archetype, region, source or figure.
	Subject string
}

type Report struct {
	Issues []Issue
}

func (r *Report) Count(severity Severity) int {
	n := 0
	for _, issue := range r.Issues {
		if issue.Severity == severity {
			n++
		}
	}
	return n
}

func (r *Report) HasErrors() bool {
	return r.Count(SeverityError) > 0
}

// Run checks referential integrity between archetypes, regions, primary
// sources and sound profiles. A nil schema skips source type checks.
func Run(c *canon.Canon, schema *config.Schema) (*Report, error) {
	if c == nil {
		return nil, fmt.Errorf("canon is required")
	}

	registry, err := archetype.New(c.Archetypes, c.FigurePower)
	if err != nil {
		return nil, fmt.Errorf("building archetype registry: %w", err)
	}

	v := newIndex(c, registry)
	issues := make([]Issue, 0)
	issues = append(issues, v.checkFigures(c)...)
	issues = append(issues, v.checkArchetypes(c)...)
	issues = append(issues, v.checkRegions(c)...)
	issues = append(issues, v.checkSources(c, schema)...)
	issues = append(issues, v.checkSoundProfiles(c)...)

	return &Report{Issues: issues}, nil
}

type index struct {
	figures       map[string]struct{}
	figureOrder   []string
	archetypeIDs  map[int]struct{}
	archetypeTags map[string]struct{}
	sourceFigures map[string]struct{}
	sound         map[string]struct{}
	power         map[string]struct{}
}

func newIndex(c *canon.Canon, registry *archetype.Registry) *index {
	v := &index{
		figures:       make(map[string]struct{}),
		archetypeIDs:  make(map[int]struct{}),
		archetypeTags: make(map[string]struct{}),
		sourceFigures: make(map[string]struct{}),
		sound:         make(map[string]struct{}),
		power:         make(map[string]struct{}),
	}
	for _, a := range c.Archetypes {
		v.archetypeIDs[a.ID] = struct{}{}
		tags, _ := registry.Tags(a.ID)
		for _, tag := range tags {
			v.archetypeTags[tag] = struct{}{}
		}
		for _, figure := range a.Figures {
			key := canon.NormalizeFigure(figure)
			if _, ok := v.figures[key]; !ok {
				v.figures[key] = struct{}{}
				v.figureOrder = append(v.figureOrder, figure)
			}
		}
	}
	for _, entry := range c.Sources {
		v.sourceFigures[canon.NormalizeFigure(entry.Figure)] = struct{}{}
	}
	for _, profile := range c.SoundProfiles {
		v.sound[canon.NormalizeFigure(profile.Figure)] = struct{}{}
	}
	for figure := range c.FigurePower {
		v.power[canon.NormalizeFigure(figure)] = struct{}{}
	}
	return v
}

func (v *index) known(figure string) bool {
	_, ok := v.figures[canon.NormalizeFigure(figure)]
	return ok
}

func (v *index) checkFigures(c *canon.Canon) []Issue {
	var issues []Issue
	for _, figure := range v.figureOrder {
		key := canon.NormalizeFigure(figure)
		if _, ok := v.power[key]; !ok {
			issues = append(issues, Issue{
				Severity: SeverityWarn,
				Code:     codeUnpoweredFigure,
				Message:  fmt.Sprintf("figure %s has no power entry and uses the fallback weight", figure),
				Subject:  figure,
			})
		}
		if _, ok := v.sourceFigures[key]; !ok {
			issues = append(issues, Issue{
				Severity: SeverityWarn,
				Code:     codeFigureWithoutSources,
				Message:  fmt.Sprintf("figure %s has no primary sources", figure),
				Subject:  figure,
			})
		}
		if _, ok := v.sound[key]; !ok {
			issues = append(issues, Issue{
				Severity: SeverityWarn,
				Code:     codeFigureWithoutSound,
				Message:  fmt.Sprintf("figure %s has no sound profile", figure),
				Subject:  figure,
			})
		}
	}
	for _, figure := range c.Start.ActiveFigures {
		if !v.known(figure) {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Code:     codeUnknownStartingFigure,
				Message:  fmt.Sprintf("starting figure %s belongs to no archetype", figure),
				Subject:  figure,
			})
		}
	}
	return issues
}

func (v *index) checkArchetypes(c *canon.Canon) []Issue {
	var issues []Issue
	for _, a := range c.Archetypes {
		for _, collision := range a.CollisionPotential {
			if !v.known(collision.WithFigure) {
				issues = append(issues, Issue{
					Severity: SeverityWarn,
					Code:     codeUnknownFigure,
					Message:  fmt.Sprintf("archetype %s collides with unknown figure %s", a.Name, collision.WithFigure),
					Subject:  a.Name,
				})
			}
			if len(collision.SourceIDs) == 0 {
				issues = append(issues, Issue{
					Severity: SeverityWarn,
					Code:     codeUnsupportedCollision,
					Message:  fmt.Sprintf("archetype %s collision with %s cites no sources", a.Name, collision.WithFigure),
					Subject:  a.Name,
				})
			}
		}
		for _, thread := range a.HistoricalThreading {
			for _, figure := range []string{thread.Figure1, thread.Figure2} {
				if !v.known(figure) {
					issues = append(issues, Issue{
						Severity: SeverityWarn,
						Code:     codeUnknownFigure,
						Message:  fmt.Sprintf("archetype %s threads unknown figure %s", a.Name, figure),
						Subject:  a.Name,
					})
				}
			}
		}
	}
	return issues
}

func (v *index) checkRegions(c *canon.Canon) []Issue {
	var issues []Issue
	portals := make(map[string][]string, len(c.Regions))
	for _, region := range c.Regions {
		for _, portal := range region.Portals {
			portals[region.ID] = append(portals[region.ID], portal.Destination)
			for _, id := range portal.ArchetypeResonance {
				if _, ok := v.archetypeIDs[id]; !ok {
					issues = append(issues, Issue{
						Severity: SeverityError,
						Code:     codeUnknownResonance,
						Message:  fmt.Sprintf("portal %s -> %s resonates with unknown archetype %d", region.ID, portal.Destination, id),
						Subject:  region.ID,
					})
				}
			}
		}
		if !region.Accessibility.TraumaSafe {
			issues = append(issues, Issue{
				Severity: SeverityWarn,
				Code:     codeRegionNotTraumaSafe,
				Message:  fmt.Sprintf("region %s is not marked trauma safe", region.ID),
				Subject:  region.ID,
			})
		}
	}

	reached := map[string]struct{}{c.Start.Region: {}}
	queue := []string{c.Start.Region}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, next := range portals[current] {
			if _, ok := reached[next]; ok {
				continue
			}
			reached[next] = struct{}{}
			queue = append(queue, next)
		}
	}
	for _, region := range c.Regions {
		if _, ok := reached[region.ID]; !ok {
			issues = append(issues, Issue{
				Severity: SeverityWarn,
				Code:     codeUnreachableRegion,
				Message:  fmt.Sprintf("region %s cannot be reached from %s through portals", region.ID, c.Start.Region),
				Subject:  region.ID,
			})
		}
	}
	return issues
}

func (v *index) checkSources(c *canon.Canon, schema *config.Schema) []Issue {
	var issues []Issue
	for _, entry := range c.Sources {
		if schema != nil && !schema.IsValidSourceType(entry.SourceType) {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Code:     codeUnknownSourceType,
				Message:  fmt.Sprintf("source %s has unknown type %q (known: %s)", entry.ID, entry.SourceType, strings.Join(schema.SourceTypeNames(), ", ")),
				Subject:  entry.ID,
			})
		}
		if !v.known(entry.Figure) {
			issues = append(issues, Issue{
				Severity: SeverityWarn,
				Code:     codeUnknownFigure,
				Message:  fmt.Sprintf("source %s is attributed to %s, who belongs to no archetype", entry.ID, entry.Figure),
				Subject:  entry.ID,
			})
		}
		var unknownTags []string
		for _, tag := range entry.ArchetypeTags {
			if _, ok := v.archetypeTags[canon.NormalizeTag(tag)]; !ok {
				unknownTags = append(unknownTags, tag)
			}
		}
		if len(unknownTags) > 0 {
			sort.Strings(unknownTags)
			issues = append(issues, Issue{
				Severity: SeverityWarn,
				Code:     codeUnknownArchetypeTag,
				Message:  fmt.Sprintf("source %s carries archetype tags no archetype declares: %s", entry.ID, strings.Join(unknownTags, ", ")),
				Subject:  entry.ID,
			})
		}
	}
	return issues
}

func (v *index) checkSoundProfiles(c *canon.Canon) []Issue {
	var issues []Issue
	for _, profile := range c.SoundProfiles {
		if !v.known(profile.Figure) {
			issues = append(issues, Issue{
				Severity: SeverityWarn,
				Code:     codeUnknownFigure,
				Message:  fmt.Sprintf("sound profile for %s, who belongs to no archetype", profile.Figure),
				Subject:  profile.Figure,
			})
		}
	}
	return issues
}
