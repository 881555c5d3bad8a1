package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"livingcanon/internal/narrative"
)

func npcCmd() *cobra.Command {
	var interaction string
	var theme string
	cmd := &cobra.Command{
		Use:   "npc <figure>",
		Short: "Ask a historical figure to respond in the current story context",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNPC(strings.Join(args, " "), interaction, theme)
		},
	}
	cmd.Flags().StringVar(&interaction, "interaction", string(narrative.InteractionGuidance), "guidance, collaboration, or challenge")
	cmd.Flags().StringVar(&theme, "theme", "", "Theme to quote on (defaults to the last creation intent)")
	return cmd
}

func runNPC(figure, interaction, theme string) error {
	ctx := context.Background()

	p, err := loadProject()
	if err != nil {
		return err
	}

	db, err := openDB(ctx, p.cfg)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close(ctx)
	}

	eng, err := p.buildEngine(ctx, db, nil)
	if err != nil {
		return err
	}

	pc := eng.PlayerContext()
	if theme != "" {
		pc.Theme = theme
	}
	response, err := eng.GenerateNPCInteraction(ctx, figure, pc, narrative.InteractionType(strings.ToLower(interaction)))
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "%s %s (%s)\n", response.Figure, response.Action, response.EmotionalState)
	fmt.Fprintf(os.Stdout, "  %s\n", response.Dialogue)
	if response.SourceID != "" {
		fmt.Fprintf(os.Stdout, "  Source: %s\n", response.SourceID)
	}
	return nil
}
