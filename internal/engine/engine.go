// Package engine drives creation acts through validation, scoring, effect
// synthesis and NPC reaction, and owns the story state they evolve.
package engine

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"livingcanon/internal/archetype"
	"livingcanon/internal/canon"
	"livingcanon/internal/narrative"
	"livingcanon/internal/region"
	"livingcanon/internal/sound"
	"livingcanon/internal/source"
)

type (
	CreationInput   = narrative.CreationInput
	WorldEffect     = narrative.WorldEffect
	StoryState      = narrative.StoryState
	PlayerContext   = narrative.PlayerContext
	NPCResponse     = narrative.NPCResponse
	InteractionType = narrative.InteractionType
)

const (
	DefaultAuthenticityThreshold = 0.8
	// DurationPerPower and HealingPerPower convert effect power into effect size.
	DurationPerPower = 5000 * time.Millisecond
	HealingPerPower  = 10.0
	ImpactPerFigure  = 0.1
	DefaultTheme     = "exploration"
)

// Settings tune the engine. Zero is a meaningful value for the thresholds and
// the fallback power: a zero AuthenticityThreshold accepts every creation. A
// zero ArcJump or an empty ArcEvolution selects its default.
type Settings struct {
	AuthenticityThreshold float64
	FallbackFigurePower   float64
	ArcThreshold          float64
	ArcJump               int
	ArcEvolution          narrative.ArcMode
}

func DefaultSettings() Settings {
	return Settings{
		AuthenticityThreshold: DefaultAuthenticityThreshold,
		FallbackFigurePower:   archetype.DefaultFallbackPower,
		ArcThreshold:          narrative.DefaultArcTrigger,
		ArcJump:               narrative.DefaultArcJump,
		ArcEvolution:          narrative.ArcCrossing,
	}
}

// Checkpointer persists an accepted creation. The state and entry must be
// stored together or not at all.
type Checkpointer interface {
	SaveCreation(ctx context.Context, state narrative.StoryState, entry narrative.Entry) error
}

// CheckpointLoader returns the latest stored state and the full narrative log.
type CheckpointLoader interface {
	LoadCheckpoint(ctx context.Context) (narrative.StoryState, []narrative.Entry, bool, error)
}

type Options struct {
	// Settings is used as given. Nil selects DefaultSettings.
	Settings     *Settings
	ExtraSources []canon.PrimarySourceEntry
	Store        Checkpointer
	Logger       *slog.Logger
	// OnResponse receives every NPC response of an accepted creation, in figure order.
	OnResponse func(NPCResponse)
	Now        func() time.Time
	NewID      func() string
}

type Engine struct {
	mu sync.Mutex

	settings Settings
	rules    narrative.Rules
	sources  *source.Store
	registry *archetype.Registry
	regions  *region.Map
	mixer    *sound.Mixer
	graph    *narrative.Graph
	initial  narrative.StoryState
	state    narrative.StoryState

	store      Checkpointer
	logger     *slog.Logger
	onResponse func(NPCResponse)
	now        func() time.Time
	newID      func() string
}

// New builds an engine over c. A nil canon uses the embedded default.
func New(c *canon.Canon, opts Options) (*Engine, error) {
	if c == nil {
		def, err := canon.Default()
		if err != nil {
			return nil, err
		}
		c = def
	}
	if len(opts.ExtraSources) > 0 {
		extended, err := c.WithSources(opts.ExtraSources)
		if err != nil {
			return nil, fmt.Errorf("adding sources: %w", err)
		}
		c = extended
	}

	settings := DefaultSettings()
	if opts.Settings != nil {
		settings = withDefaults(*opts.Settings)
	}
	if err := settings.validate(); err != nil {
		return nil, err
	}

	sources, err := source.New(c.Sources)
	if err != nil {
		return nil, fmt.Errorf("building source store: %w", err)
	}
	registry, err := archetype.New(c.Archetypes, c.FigurePower, archetype.WithFallbackPower(settings.FallbackFigurePower))
	if err != nil {
		return nil, fmt.Errorf("building archetype registry: %w", err)
	}
	regions, err := region.New(c.Regions)
	if err != nil {
		return nil, fmt.Errorf("building region map: %w", err)
	}
	start, ok := regions.Region(c.Start.Region)
	if !ok {
		return nil, fmt.Errorf("starting region %q is not defined", c.Start.Region)
	}

	e := &Engine{
		settings:   settings,
		sources:    sources,
		registry:   registry,
		regions:    regions,
		mixer:      sound.NewMixer(c.SoundProfiles, sources),
		graph:      narrative.NewGraph(),
		store:      opts.Store,
		logger:     opts.Logger,
		onResponse: opts.OnResponse,
		now:        opts.Now,
		newID:      opts.NewID,
	}
	if e.logger == nil {
		e.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if e.now == nil {
		e.now = time.Now
	}
	if e.newID == nil {
		e.newID = uuid.NewString
	}
	e.rules = narrative.Rules{
		ArcThreshold: settings.ArcThreshold,
		ArcJump:      settings.ArcJump,
		MaxArchetype: registry.MaxID(),
		Mode:         settings.ArcEvolution,
		RegionFor: func(id int) (string, bool) {
			r, ok := regions.ForArchetype(id)
			return r.ID, ok
		},
	}
	e.initial = narrative.StoryState{
		CurrentRegionID:      start.ID,
		ActiveFigures:        append([]string(nil), c.Start.ActiveFigures...),
		NarrativeArcProgress: c.Start.ArcProgress,
		WorldStability:       c.Start.WorldStability,
		ConsciousnessLevel:   c.Start.ConsciousnessLevel,
		DominantArchetype:    start.PrimaryArchetype,
	}
	e.state = e.initial.Clone()
	return e, nil
}

func withDefaults(s Settings) Settings {
	def := DefaultSettings()
	if s.ArcJump <= 0 {
		s.ArcJump = def.ArcJump
	}
	if s.ArcEvolution == "" {
		s.ArcEvolution = def.ArcEvolution
	}
	return s
}

func (s Settings) validate() error {
	if s.AuthenticityThreshold < 0 || s.AuthenticityThreshold > 1 {
		return fmt.Errorf("authenticity threshold must be within [0, 1], got %v", s.AuthenticityThreshold)
	}
	if s.FallbackFigurePower < 0 {
		return fmt.Errorf("fallback figure power must not be negative, got %v", s.FallbackFigurePower)
	}
	if s.ArcThreshold < 0 {
		return fmt.Errorf("arc threshold must not be negative, got %v", s.ArcThreshold)
	}
	if !s.ArcEvolution.Valid() {
		return fmt.Errorf("invalid arc evolution mode: %s", s.ArcEvolution)
	}
	return nil
}

// ProcessPlayerCreation validates, scores and applies one creation act. A
// rejected or failed call leaves the story state and narrative log untouched.
func (e *Engine) ProcessPlayerCreation(ctx context.Context, input CreationInput) (*WorldEffect, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	input = normalizeInput(input)

	e.mu.Lock()
	defer e.mu.Unlock()

	report := e.sources.ValidateAuthenticity(input.MaterialsUsed)
	if report.Score < e.settings.AuthenticityThreshold {
		e.logger.Warn("creation rejected",
			"player", input.PlayerName,
			"authenticity", report.Score,
			"threshold", e.settings.AuthenticityThreshold,
		)
		return nil, &AuthenticityRejectedError{
			Score:     report.Score,
			Threshold: e.settings.AuthenticityThreshold,
			Records:   report.Records,
		}
	}

	figures := e.registry.IdentifyRelevantFigures(input.ArchetypeTags)
	impact := e.registry.CalculateArchetypalImpact(figures, input.ConsciousnessLevel)
	effect := e.synthesizeEffect(input, figures, impact*report.Score, report.Score)

	pc := PlayerContext{
		Theme:              themeFor(input.Intent),
		ConsciousnessLevel: input.ConsciousnessLevel,
		CurrentRegion:      e.state.CurrentRegionID,
		ArcPosition:        e.state.NarrativeArcProgress,
	}
	responses := make([]NPCResponse, 0, len(figures))
	for _, figure := range figures {
		responses = append(responses, e.respond(figure, pc, narrative.InteractionCollaboration))
	}

	next, transition := e.state.ApplyEffect(input, effect, e.rules)
	entry := narrative.Entry{
		Sequence:        e.graph.NextSequence(),
		ID:              e.newID(),
		Timestamp:       e.now().UTC(),
		Act:             input,
		Effect:          effect,
		Figures:         figures,
		Responses:       responses,
		NarrativeImpact: float64(len(figures)) * input.ConsciousnessLevel * ImpactPerFigure,
		Provenance:      report.Records,
		Transition:      transition,
	}

	if e.store != nil {
		if err := e.store.SaveCreation(ctx, next, entry); err != nil {
			return nil, fmt.Errorf("checkpointing creation: %w", err)
		}
	}
	e.state = next
	e.graph.Append(entry)

	e.logger.Info("creation accepted",
		"player", input.PlayerName,
		"effect", effect.Name,
		"power", effect.PowerLevel,
		"figures", len(figures),
		"arc_progress", next.NarrativeArcProgress,
	)
	for _, response := range responses {
		e.logger.Info("npc response", "figure", response.Figure, "dialogue", response.Dialogue)
		if e.onResponse != nil {
			e.onResponse(response)
		}
	}
	if transition != nil {
		e.logger.Info("arc evolved",
			"from", transition.FromArchetype,
			"to", transition.ToArchetype,
			"region", transition.ToRegion,
		)
	}

	out := effect
	out.FiguresInvolved = append([]string(nil), effect.FiguresInvolved...)
	out.RegionsAffected = append([]string(nil), effect.RegionsAffected...)
	return &out, nil
}

func (e *Engine) synthesizeEffect(input CreationInput, figures []string, power, authenticity float64) WorldEffect {
	current, _ := e.regions.Region(e.state.CurrentRegionID)
	name := "Creative Manifestation"
	if input.Intent != "" {
		name = input.Intent + " Manifestation"
	}
	player := input.PlayerName
	if player == "" {
		player = "an unnamed creator"
	}
	return WorldEffect{
		ID:                      "effect_" + e.newID(),
		Name:                    name,
		Description:             "World-changing effect created by " + player,
		PowerLevel:              power,
		Duration:                time.Duration(power * float64(DurationPerPower)),
		FiguresInvolved:         figures,
		RegionsAffected:         []string{e.state.CurrentRegionID},
		AccessibilityCompliance: current.Accessibility.TraumaSafe,
		HealingPotential:        power * HealingPerPower,
		AuthenticityScore:       authenticity,
	}
}

func normalizeInput(in CreationInput) CreationInput {
	out := in.Clone()
	out.PlayerName = strings.TrimSpace(in.PlayerName)
	out.Intent = strings.TrimSpace(in.Intent)
	out.ArchetypeTags = canon.NormalizeTags(in.ArchetypeTags)
	if math.IsNaN(out.ConsciousnessLevel) || out.ConsciousnessLevel < 0 {
		out.ConsciousnessLevel = 0
	}
	if out.ConsciousnessLevel > archetype.MaxConsciousness {
		out.ConsciousnessLevel = archetype.MaxConsciousness
	}
	return out
}

func themeFor(intent string) string {
	if strings.TrimSpace(intent) == "" {
		return DefaultTheme
	}
	return intent
}

// Restore replaces the story state and narrative log with the latest
// checkpoint. It reports whether a checkpoint existed.
func (e *Engine) Restore(ctx context.Context, loader CheckpointLoader) (bool, error) {
	state, entries, ok, err := loader.LoadCheckpoint(ctx)
	if err != nil {
		return false, fmt.Errorf("loading checkpoint: %w", err)
	}
	if !ok {
		return false, nil
	}

	graph := narrative.NewGraph(entries...)
	replayed := graph.Replay(e.initial, e.rules)
	if replayed.Creations != state.Creations ||
		replayed.NarrativeArcProgress != state.NarrativeArcProgress ||
		replayed.WorldStability != state.WorldStability {
		return false, fmt.Errorf("%w: %d creations in log, %d in state", ErrCheckpointMismatch, replayed.Creations, state.Creations)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.state = state.Clone()
	e.graph = graph
	e.logger.Info("restored checkpoint", "creations", state.Creations, "region", state.CurrentRegionID)
	return true, nil
}

// State returns a copy of the current story state.
func (e *Engine) State() StoryState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Clone()
}

func (e *Engine) ActiveFigures() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string{}, e.state.ActiveFigures...)
}

// CurrentWorldRegion returns the region the story is in, or false if the
// region id has no definition.
func (e *Engine) CurrentWorldRegion() (canon.WorldRegion, bool) {
	e.mu.Lock()
	id := e.state.CurrentRegionID
	e.mu.Unlock()
	return e.regions.Region(id)
}

// PlayerContext is the context NPCs see between creations.
func (e *Engine) PlayerContext() PlayerContext {
	e.mu.Lock()
	defer e.mu.Unlock()
	theme := DefaultTheme
	if act := e.state.LastCreationAct; act != nil {
		theme = themeFor(act.Intent)
	}
	return PlayerContext{
		Theme:              theme,
		ConsciousnessLevel: e.state.ConsciousnessLevel,
		CurrentRegion:      e.state.CurrentRegionID,
		ArcPosition:        e.state.NarrativeArcProgress,
	}
}

func (e *Engine) NarrativeGraph() *narrative.Graph {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.graph
}

func (e *Engine) Archetype(id int) (canon.ArchetypeFunction, bool) {
	return e.registry.Archetype(id)
}

// MixSoundSpells blends the sound profiles of figureIDs under intent.
func (e *Engine) MixSoundSpells(figureIDs []string, intent string) (sound.Result, error) {
	return e.mixer.Mix(figureIDs, intent)
}

func (e *Engine) FuseConsciousness(figureIDs []string) (sound.Fusion, error) {
	return e.mixer.FuseConsciousness(figureIDs)
}

func (e *Engine) Settings() Settings {
	return e.settings
}

func (e *Engine) Registry() *archetype.Registry { return e.registry }
func (e *Engine) Sources() *source.Store        { return e.sources }
func (e *Engine) Regions() *region.Map          { return e.regions }
func (e *Engine) Mixer() *sound.Mixer           { return e.mixer }
