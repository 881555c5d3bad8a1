package canon

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	MinArchetypes  = 5
	MaxArchetypes  = 22
	MaxArchetypeID = 21
)

//go:embed default.yaml
var defaultCanon []byte

func DefaultYAML() []byte {
	return append([]byte(nil), defaultCanon...)
}

// Default returns the canon shipped with the binary.
func Default() (*Canon, error) {
	c, err := Parse(defaultCanon)
	if err != nil {
		return nil, fmt.Errorf("loading default canon: %w", err)
	}
	return c, nil
}

func Load(path string) (*Canon, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading canon: %w", err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("loading canon %s: %w", path, err)
	}
	return c, nil
}

func Parse(data []byte) (*Canon, error) {
	var c Canon
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parsing canon: %w", err)
	}
	normalize(&c)
	if err := validateCanon(&c); err != nil {
		return nil, err
	}
	if err := resolveSupportingSources(&c); err != nil {
		return nil, err
	}
	return &c, nil
}

// WithSources returns a copy of c whose source list also holds extra. The
// combined list is validated again so ids stay unique.
func (c *Canon) WithSources(extra []PrimarySourceEntry) (*Canon, error) {
	out := *c
	out.Sources = make([]PrimarySourceEntry, 0, len(c.Sources)+len(extra))
	for _, entry := range c.Sources {
		out.Sources = append(out.Sources, entry.Clone())
	}
	for _, entry := range extra {
		entry = entry.Clone()
		normalizeSource(&entry)
		out.Sources = append(out.Sources, entry)
	}
	if err := validateSources(out.Sources); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Canon) SoundProfile(figure string) (FigureSoundProfile, bool) {
	key := NormalizeFigure(figure)
	for _, profile := range c.SoundProfiles {
		if NormalizeFigure(profile.Figure) == key {
			return profile, true
		}
	}
	return FigureSoundProfile{}, false
}

// NormalizeFigure is the comparison key for figure names.
func NormalizeFigure(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// NormalizeTag is the comparison key for theme and archetype tags.
func NormalizeTag(tag string) string {
	return strings.ToLower(strings.TrimSpace(tag))
}

// NormalizeTags lowercases, trims and dedupes tags, keeping first-seen order.
func NormalizeTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		key := NormalizeTag(tag)
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, key)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func normalize(c *Canon) {
	for i := range c.Archetypes {
		a := &c.Archetypes[i]
		a.Tags = NormalizeTags(a.Tags)
		for j := range a.CreativeOutput {
			a.CreativeOutput[j].ArchetypeTags = NormalizeTags(a.CreativeOutput[j].ArchetypeTags)
		}
	}
	for i := range c.Sources {
		normalizeSource(&c.Sources[i])
	}
}

func normalizeSource(entry *PrimarySourceEntry) {
	entry.ID = strings.TrimSpace(entry.ID)
	entry.Figure = strings.TrimSpace(entry.Figure)
	entry.Themes = NormalizeTags(entry.Themes)
	entry.ArchetypeTags = NormalizeTags(entry.ArchetypeTags)
	entry.IntegrationTags = NormalizeTags(entry.IntegrationTags)
}

func validateCanon(c *Canon) error {
	if c.Version != 1 {
		return fmt.Errorf("unsupported version: %d", c.Version)
	}
	if err := validateArchetypes(c.Archetypes); err != nil {
		return err
	}
	if err := validateSources(c.Sources); err != nil {
		return err
	}

	archetypeIDs := make(map[int]struct{}, len(c.Archetypes))
	for _, a := range c.Archetypes {
		archetypeIDs[a.ID] = struct{}{}
	}

	if len(c.Regions) == 0 {
		return fmt.Errorf("at least one region is required")
	}
	regionIDs := make(map[string]struct{}, len(c.Regions))
	for i, region := range c.Regions {
		if strings.TrimSpace(region.ID) == "" {
			return fmt.Errorf("region %d id is required", i)
		}
		if _, exists := regionIDs[region.ID]; exists {
			return fmt.Errorf("duplicate region id: %s", region.ID)
		}
		regionIDs[region.ID] = struct{}{}
		if _, ok := archetypeIDs[region.PrimaryArchetype]; !ok {
			return fmt.Errorf("region %s references unknown archetype: %d", region.ID, region.PrimaryArchetype)
		}
	}
	for _, region := range c.Regions {
		for _, portal := range region.Portals {
			if _, ok := regionIDs[portal.Destination]; !ok {
				return fmt.Errorf("region %s portal leads to unknown region: %s", region.ID, portal.Destination)
			}
		}
	}
	if _, ok := regionIDs[c.Start.Region]; !ok {
		return fmt.Errorf("starting region %q is not defined", c.Start.Region)
	}

	profiles := make(map[string]struct{}, len(c.SoundProfiles))
	for i, profile := range c.SoundProfiles {
		key := NormalizeFigure(profile.Figure)
		if key == "" {
			return fmt.Errorf("sound profile %d figure is required", i)
		}
		if _, exists := profiles[key]; exists {
			return fmt.Errorf("duplicate sound profile for figure: %s", profile.Figure)
		}
		profiles[key] = struct{}{}
		if profile.BaseFrequency <= 0 {
			return fmt.Errorf("sound profile %s base frequency must be positive", profile.Figure)
		}
		if len(profile.HarmonicSeries) == 0 {
			return fmt.Errorf("sound profile %s has no harmonic series", profile.Figure)
		}
		if profile.HistoricalAuthenticity < 0 || profile.HistoricalAuthenticity > 1 {
			return fmt.Errorf("sound profile %s authenticity out of range: %v", profile.Figure, profile.HistoricalAuthenticity)
		}
	}

	for figure, power := range c.FigurePower {
		if power < 0 {
			return fmt.Errorf("figure power for %s must not be negative", figure)
		}
	}
	return nil
}

func validateArchetypes(archetypes []ArchetypeFunction) error {
	if len(archetypes) < MinArchetypes || len(archetypes) > MaxArchetypes {
		return fmt.Errorf("archetype count must be between %d and %d, got %d", MinArchetypes, MaxArchetypes, len(archetypes))
	}
	ids := make(map[int]struct{}, len(archetypes))
	for i, a := range archetypes {
		if a.ID < 0 || a.ID > MaxArchetypeID {
			return fmt.Errorf("archetype %d id out of range: %d", i, a.ID)
		}
		if _, exists := ids[a.ID]; exists {
			return fmt.Errorf("duplicate archetype id: %d", a.ID)
		}
		ids[a.ID] = struct{}{}
		if strings.TrimSpace(a.Name) == "" {
			return fmt.Errorf("archetype %d name is required", a.ID)
		}
		if len(a.Figures) == 0 {
			return fmt.Errorf("archetype %s has no figures", a.Name)
		}
		for _, collision := range a.CollisionPotential {
			if !collision.CollisionType.Valid() {
				return fmt.Errorf("archetype %s has invalid collision type: %s", a.Name, collision.CollisionType)
			}
			if collision.DynamismScore < 1 || collision.DynamismScore > 10 {
				return fmt.Errorf("archetype %s collision with %s dynamism out of range: %d", a.Name, collision.WithFigure, collision.DynamismScore)
			}
		}
		for _, thread := range a.HistoricalThreading {
			if !thread.ConnectionType.Valid() {
				return fmt.Errorf("archetype %s has invalid connection type: %s", a.Name, thread.ConnectionType)
			}
			if thread.ThreadStrength < 1 || thread.ThreadStrength > 10 {
				return fmt.Errorf("archetype %s thread %s/%s strength out of range: %d", a.Name, thread.Figure1, thread.Figure2, thread.ThreadStrength)
			}
		}
	}
	return nil
}

func validateSources(sources []PrimarySourceEntry) error {
	ids := make(map[string]struct{}, len(sources))
	for i, entry := range sources {
		if entry.ID == "" {
			return fmt.Errorf("source %d id is required", i)
		}
		if _, exists := ids[entry.ID]; exists {
			return fmt.Errorf("duplicate source id: %s", entry.ID)
		}
		ids[entry.ID] = struct{}{}
		if entry.Figure == "" {
			return fmt.Errorf("source %s figure is required", entry.ID)
		}
		if entry.Authenticity < 0 || entry.Authenticity > 1 {
			return fmt.Errorf("source %s authenticity out of range: %v", entry.ID, entry.Authenticity)
		}
	}
	return nil
}

func resolveSupportingSources(c *Canon) error {
	byID := make(map[string]PrimarySourceEntry, len(c.Sources))
	for _, entry := range c.Sources {
		byID[entry.ID] = entry
	}
	for i := range c.Archetypes {
		a := &c.Archetypes[i]
		for j := range a.CollisionPotential {
			collision := &a.CollisionPotential[j]
			collision.SupportingSources = nil
			for _, id := range collision.SourceIDs {
				entry, ok := byID[id]
				if !ok {
					return fmt.Errorf("archetype %s collision with %s cites unknown source: %s", a.Name, collision.WithFigure, id)
				}
				collision.SupportingSources = append(collision.SupportingSources, entry.Clone())
			}
		}
	}
	return nil
}
