package engine

import (
	"context"
	"fmt"

	"livingcanon/internal/canon"
	"livingcanon/internal/narrative"
	"livingcanon/internal/source"
)

type interactionStyle struct {
	action  string
	emotion string
	// format takes the quote and the theme.
	format string
}

var interactionStyles = map[narrative.InteractionType]interactionStyle{
	narrative.InteractionGuidance: {
		action:  "offers guidance",
		emotion: "compassionate",
		format:  "I once wrote: %q. Let it guide your %s.",
	},
	narrative.InteractionCollaboration: {
		action:  "joins the creation",
		emotion: "inspired",
		format:  "%q. Let us weave this into your %s together.",
	},
	narrative.InteractionChallenge: {
		action:  "poses a challenge",
		emotion: "provocative",
		format:  "%q. Can your %s stand against that?",
	},
}

// GenerateNPCInteraction composes a figure's reply from its authentic
// material. It only fails for an unsupported interaction type and never
// touches the story state.
func (e *Engine) GenerateNPCInteraction(ctx context.Context, figure string, pc PlayerContext, interaction InteractionType) (NPCResponse, error) {
	if err := ctx.Err(); err != nil {
		return NPCResponse{}, err
	}
	if !interaction.Valid() {
		return NPCResponse{}, fmt.Errorf("%w: %q", ErrUnsupportedInteraction, interaction)
	}
	if pc.Theme == "" {
		pc.Theme = DefaultTheme
	}
	response := e.respond(figure, pc, interaction)
	e.logger.Debug("npc interaction", "figure", response.Figure, "interaction", interaction, "source", response.SourceID)
	return response, nil
}

func (e *Engine) respond(figure string, pc PlayerContext, interaction narrative.InteractionType) NPCResponse {
	style := interactionStyles[interaction]
	response := NPCResponse{
		Figure:         figure,
		Interaction:    interaction,
		Action:         style.action,
		EmotionalState: style.emotion,
	}

	quote, ok := e.quoteFor(figure, pc.Theme)
	if !ok {
		response.Dialogue = fmt.Sprintf("My words on %s are lost to the archive, but I am here with you.", pc.Theme)
		return response
	}
	response.Figure = quote.Figure
	response.SourceID = quote.ID
	response.AuthenticMaterialQuoted = quote.AuthenticText
	response.Dialogue = fmt.Sprintf(style.format, quote.AuthenticText, pc.Theme)
	return response
}

// quoteFor picks the first entry matching theme, falling back to any entry of
// the figure.
func (e *Engine) quoteFor(figure, theme string) (canon.PrimarySourceEntry, bool) {
	quotes := e.sources.QuotesForFigure(figure, theme)
	if len(quotes) == 0 {
		quotes = e.sources.QuotesForFigure(figure, source.ThemeAll)
	}
	if len(quotes) == 0 {
		return canon.PrimarySourceEntry{}, false
	}
	return quotes[0], true
}
