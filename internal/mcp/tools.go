package mcp

import (
	"context"
	"fmt"
	"strings"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"livingcanon/internal/canon"
	"livingcanon/internal/narrative"
	"livingcanon/internal/sound"
	"livingcanon/internal/source"
	"livingcanon/internal/store"
)

type ProcessCreationInput struct {
	Player             string   `json:"player_name,omitempty" jsonschema:"name of the creating player"`
	Materials          []any    `json:"materials_used" jsonschema:"source ids or citation objects the creation draws on"`
	ArchetypeTags      []string `json:"archetype_tags,omitempty" jsonschema:"archetype tags that summon figures"`
	Intent             string   `json:"intent,omitempty" jsonschema:"what the creation is meant to do"`
	ConsciousnessLevel float64  `json:"consciousness_level,omitempty" jsonschema:"consciousness level from 0 to 21"`
}

type NPCInteractionInput struct {
	Figure      string `json:"figure" jsonschema:"historical figure to speak with"`
	Interaction string `json:"interaction,omitempty" jsonschema:"guidance, collaboration, or challenge"`
	Theme       string `json:"theme,omitempty" jsonschema:"theme the figure should quote on"`
}

type MixSoundSpellsInput struct {
	Figures []string `json:"figures" jsonschema:"figures whose sound profiles are blended"`
	Intent  string   `json:"intent,omitempty" jsonschema:"intent of the spell"`
}

type FuseConsciousnessInput struct {
	Figures []string `json:"figures" jsonschema:"figures whose consciousness is fused"`
}

type CheckAuthenticityInput struct {
	Materials []any `json:"materials_used" jsonschema:"source ids or citation objects to score"`
}

type GetStateInput struct{}

type GetNarrativeInput struct {
	Figure string `json:"figure,omitempty" jsonschema:"only entries that manifested this figure"`
	Since  int    `json:"since,omitempty" jsonschema:"only entries after this sequence number"`
	Limit  int    `json:"limit,omitempty" jsonschema:"maximum number of entries"`
}

type GetRegionInput struct {
	ID string `json:"id,omitempty" jsonschema:"region id, defaults to the current region"`
}

type ListArchetypesInput struct {
	Figure string `json:"figure,omitempty" jsonschema:"only archetypes embodied by this figure"`
}

type SearchSourcesInput struct {
	Query  string `json:"query" jsonschema:"search terms"`
	Figure string `json:"figure,omitempty" jsonschema:"restrict to a figure"`
}

type GetStatisticsInput struct{}

type CreationOutput struct {
	Effect     narrative.WorldEffect     `json:"effect"`
	Responses  []narrative.NPCResponse   `json:"responses"`
	Sequence   int                       `json:"sequence"`
	Transition *narrative.ArcTransition  `json:"transition,omitempty"`
	State      narrative.StoryState      `json:"state"`
	Provenance []source.ProvenanceRecord `json:"provenance"`
}

type MixOutput struct {
	Spell        sound.Result `json:"spell"`
	Authenticity float64      `json:"authenticity"`
}

type AuthenticityOutput struct {
	Score     float64                   `json:"score"`
	Threshold float64                   `json:"threshold"`
	Accepted  bool                      `json:"accepted"`
	Records   []source.ProvenanceRecord `json:"records"`
}

type StateOutput struct {
	State         narrative.StoryState    `json:"state"`
	RegionName    string                  `json:"region_name"`
	PlayerContext narrative.PlayerContext `json:"player_context"`
}

type NarrativeOutput struct {
	Entries []narrative.Entry `json:"entries"`
}

type RegionOutput struct {
	Region       canon.WorldRegion `json:"region"`
	Current      bool              `json:"current"`
	Destinations []string          `json:"destinations"`
}

type ArchetypeSummaryOutput struct {
	ID           int      `json:"id"`
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	NarrativeArc string   `json:"narrative_arc"`
	Tags         []string `json:"tags"`
	Figures      []string `json:"figures"`
}

type ListArchetypesOutput struct {
	Archetypes []ArchetypeSummaryOutput `json:"archetypes"`
}

type SourceResultOutput struct {
	ID         string  `json:"id"`
	Figure     string  `json:"figure"`
	SourceType string  `json:"source_type"`
	Score      float64 `json:"score"`
	Snippet    string  `json:"snippet"`
}

type SearchSourcesOutput struct {
	Results []SourceResultOutput `json:"results"`
}

type StatisticsOutput struct {
	TotalSources        int            `json:"total_sources"`
	FigureCount         int            `json:"figure_count"`
	AverageAuthenticity float64        `json:"average_authenticity"`
	SourcesByType       map[string]int `json:"sources_by_type"`
	Archetypes          int            `json:"archetypes"`
	Regions             int            `json:"regions"`
	NarrativeEntries    int            `json:"narrative_entries"`
}

func (s *Server) registerTools() {
	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "process_creation",
		Description: "Submit a creative act built from primary sources and apply its world effect",
	}, s.handleProcessCreation)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "npc_interaction",
		Description: "Ask a historical figure to respond in the current player context",
	}, s.handleNPCInteraction)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "mix_sound_spells",
		Description: "Blend the sound profiles of two or more figures",
	}, s.handleMixSoundSpells)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "fuse_consciousness",
		Description: "Describe the consciousness emerging from two or more figures",
	}, s.handleFuseConsciousness)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "check_authenticity",
		Description: "Score citations against the primary source store without creating anything",
	}, s.handleCheckAuthenticity)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "get_state",
		Description: "Return the current story state",
	}, s.handleGetState)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "get_narrative",
		Description: "List canonical events from the narrative log",
	}, s.handleGetNarrative)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "get_region",
		Description: "Retrieve a world region and its portal destinations",
	}, s.handleGetRegion)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "list_archetypes",
		Description: "List archetypal functions with their tags and figures",
	}, s.handleListArchetypes)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "search_sources",
		Description: "Search primary sources by text, themes, and tags",
	}, s.handleSearchSources)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "get_statistics",
		Description: "Summarize the loaded canon and narrative log",
	}, s.handleGetStatistics)
}

func (s *Server) handleProcessCreation(ctx context.Context, req *sdk.CallToolRequest, input ProcessCreationInput) (*sdk.CallToolResult, CreationOutput, error) {
	effect, err := s.engine.ProcessPlayerCreation(ctx, narrative.CreationInput{
		PlayerName:         input.Player,
		MaterialsUsed:      input.Materials,
		ArchetypeTags:      input.ArchetypeTags,
		Intent:             input.Intent,
		ConsciousnessLevel: input.ConsciousnessLevel,
	})
	if err != nil {
		return nil, CreationOutput{}, err
	}

	output := CreationOutput{
		Effect:     *effect,
		Responses:  []narrative.NPCResponse{},
		Provenance: []source.ProvenanceRecord{},
		State:      s.engine.State(),
	}
	if entry, ok := entryForEffect(s.engine.NarrativeGraph(), effect.ID); ok {
		output.Responses = entry.Responses
		output.Sequence = entry.Sequence
		output.Transition = entry.Transition
		output.Provenance = entry.Provenance
	}
	return nil, output, nil
}

func entryForEffect(g *narrative.Graph, effectID string) (narrative.Entry, bool) {
	entries := g.Entries()
	for i := len(entries) - 1; i >= 0; i-- {
		if entries[i].Effect.ID == effectID {
			return entries[i], true
		}
	}
	return narrative.Entry{}, false
}

func (s *Server) handleNPCInteraction(ctx context.Context, req *sdk.CallToolRequest, input NPCInteractionInput) (*sdk.CallToolResult, narrative.NPCResponse, error) {
	if strings.TrimSpace(input.Figure) == "" {
		return nil, narrative.NPCResponse{}, fmt.Errorf("figure is required")
	}
	interaction := narrative.InteractionType(strings.ToLower(strings.TrimSpace(input.Interaction)))
	if interaction == "" {
		interaction = narrative.InteractionGuidance
	}
	pc := s.engine.PlayerContext()
	if input.Theme != "" {
		pc.Theme = input.Theme
	}
	response, err := s.engine.GenerateNPCInteraction(ctx, input.Figure, pc, interaction)
	if err != nil {
		return nil, narrative.NPCResponse{}, err
	}
	return nil, response, nil
}

func (s *Server) handleMixSoundSpells(ctx context.Context, req *sdk.CallToolRequest, input MixSoundSpellsInput) (*sdk.CallToolResult, MixOutput, error) {
	result, err := s.engine.MixSoundSpells(input.Figures, input.Intent)
	if err != nil {
		return nil, MixOutput{}, err
	}
	return nil, MixOutput{
		Spell:        result,
		Authenticity: s.engine.Mixer().Authenticity(result).Score,
	}, nil
}

func (s *Server) handleFuseConsciousness(ctx context.Context, req *sdk.CallToolRequest, input FuseConsciousnessInput) (*sdk.CallToolResult, sound.Fusion, error) {
	fusion, err := s.engine.FuseConsciousness(input.Figures)
	if err != nil {
		return nil, sound.Fusion{}, err
	}
	return nil, fusion, nil
}

func (s *Server) handleCheckAuthenticity(ctx context.Context, req *sdk.CallToolRequest, input CheckAuthenticityInput) (*sdk.CallToolResult, AuthenticityOutput, error) {
	report := s.engine.Sources().ValidateAuthenticity(input.Materials)
	threshold := s.engine.Settings().AuthenticityThreshold
	records := report.Records
	if records == nil {
		records = []source.ProvenanceRecord{}
	}
	return nil, AuthenticityOutput{
		Score:     report.Score,
		Threshold: threshold,
		Accepted:  report.Score >= threshold,
		Records:   records,
	}, nil
}

func (s *Server) handleGetState(ctx context.Context, req *sdk.CallToolRequest, input GetStateInput) (*sdk.CallToolResult, StateOutput, error) {
	output := StateOutput{
		State:         s.engine.State(),
		PlayerContext: s.engine.PlayerContext(),
	}
	if region, ok := s.engine.CurrentWorldRegion(); ok {
		output.RegionName = region.Name
	}
	return nil, output, nil
}

func (s *Server) handleGetNarrative(ctx context.Context, req *sdk.CallToolRequest, input GetNarrativeInput) (*sdk.CallToolResult, NarrativeOutput, error) {
	filter := store.EntryFilter{Figure: input.Figure, Since: input.Since, Limit: input.Limit}
	entries := make([]narrative.Entry, 0)
	for _, entry := range s.engine.NarrativeGraph().Since(filter.Since) {
		if !filter.Match(entry) {
			continue
		}
		entries = append(entries, entry)
		if filter.Limit > 0 && len(entries) == filter.Limit {
			break
		}
	}
	return nil, NarrativeOutput{Entries: entries}, nil
}

func (s *Server) handleGetRegion(ctx context.Context, req *sdk.CallToolRequest, input GetRegionInput) (*sdk.CallToolResult, RegionOutput, error) {
	current := s.engine.State().CurrentRegionID
	id := strings.TrimSpace(input.ID)
	if id == "" {
		id = current
	}
	region, ok := s.engine.Regions().Region(id)
	if !ok {
		return nil, RegionOutput{}, fmt.Errorf("region not found: %s", id)
	}
	return nil, RegionOutput{
		Region:       region,
		Current:      region.ID == current,
		Destinations: s.engine.Regions().Destinations(region.ID),
	}, nil
}

func (s *Server) handleListArchetypes(ctx context.Context, req *sdk.CallToolRequest, input ListArchetypesInput) (*sdk.CallToolResult, ListArchetypesOutput, error) {
	registry := s.engine.Registry()
	archetypes := registry.Archetypes()
	if input.Figure != "" {
		wanted := make(map[int]bool)
		for _, id := range registry.ArchetypesForFigure(input.Figure) {
			wanted[id] = true
		}
		filtered := archetypes[:0]
		for _, a := range archetypes {
			if wanted[a.ID] {
				filtered = append(filtered, a)
			}
		}
		archetypes = filtered
	}

	output := make([]ArchetypeSummaryOutput, 0, len(archetypes))
	for _, a := range archetypes {
		tags, _ := registry.Tags(a.ID)
		output = append(output, ArchetypeSummaryOutput{
			ID:           a.ID,
			Name:         a.Name,
			Description:  a.Description,
			NarrativeArc: a.NarrativeArc,
			Tags:         tags,
			Figures:      append([]string{}, a.Figures...),
		})
	}
	return nil, ListArchetypesOutput{Archetypes: output}, nil
}

func (s *Server) handleSearchSources(ctx context.Context, req *sdk.CallToolRequest, input SearchSourcesInput) (*sdk.CallToolResult, SearchSourcesOutput, error) {
	if strings.TrimSpace(input.Query) == "" {
		return nil, SearchSourcesOutput{}, fmt.Errorf("query is required")
	}

	output := make([]SourceResultOutput, 0)
	if s.search != nil {
		results, err := s.search.SearchSources(ctx, input.Query, input.Figure)
		if err != nil {
			return nil, SearchSourcesOutput{}, err
		}
		for _, result := range results {
			output = append(output, SourceResultOutput{
				ID:         result.ID,
				Figure:     result.Figure,
				SourceType: result.SourceType,
				Score:      result.Score,
				Snippet:    result.Snippet,
			})
		}
		return nil, SearchSourcesOutput{Results: output}, nil
	}

	figure := canon.NormalizeFigure(input.Figure)
	for _, entry := range s.engine.Sources().Search(input.Query) {
		if figure != "" && canon.NormalizeFigure(entry.Figure) != figure {
			continue
		}
		output = append(output, SourceResultOutput{
			ID:         entry.ID,
			Figure:     entry.Figure,
			SourceType: entry.SourceType,
			Score:      entry.Authenticity,
			Snippet:    entry.AuthenticText,
		})
	}
	return nil, SearchSourcesOutput{Results: output}, nil
}

func (s *Server) handleGetStatistics(ctx context.Context, req *sdk.CallToolRequest, input GetStatisticsInput) (*sdk.CallToolResult, StatisticsOutput, error) {
	stats := s.engine.Sources().Statistics()
	return nil, StatisticsOutput{
		TotalSources:        stats.TotalSources,
		FigureCount:         stats.FigureCount,
		AverageAuthenticity: stats.AverageAuthenticity,
		SourcesByType:       stats.SourcesByType,
		Archetypes:          len(s.engine.Registry().Archetypes()),
		Regions:             s.engine.Regions().Len(),
		NarrativeEntries:    s.engine.NarrativeGraph().Len(),
	}, nil
}
