package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"livingcanon/internal/engine"
	"livingcanon/internal/ingest"
	"livingcanon/internal/narrative"
)

func createCmd() *cobra.Command {
	var player string
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "create <act.md|act.yaml|act.json>",
		Short: "Submit a creation act and apply its world effect",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCreate(args[0], player, asJSON)
		},
	}
	cmd.Flags().StringVar(&player, "player", "", "Override the player name of the act")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the world effect as JSON")
	return cmd
}

func runCreate(path, player string, asJSON bool) error {
	ctx := context.Background()

	input, err := ingest.LoadCreation(path)
	if err != nil {
		return err
	}
	if strings.TrimSpace(player) != "" {
		input.PlayerName = player
	}

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
	} else {
		p.logger.Warn("no database configured, the creation will not be persisted")
	}

	var responses []narrative.NPCResponse
	eng, err := p.buildEngine(ctx, db, func(r narrative.NPCResponse) {
		responses = append(responses, r)
	})
	if err != nil {
		return err
	}

	effect, err := eng.ProcessPlayerCreation(ctx, input)
	var rejected *engine.AuthenticityRejectedError
	if errors.As(err, &rejected) {
		fmt.Fprintf(os.Stdout, "Creation rejected: authenticity %.2f is below %.2f.\n", rejected.Score, rejected.Threshold)
		for _, record := range rejected.Records {
			fmt.Fprintf(os.Stdout, "  - %s: %.2f (%s)\n", record.Source, record.AuthenticityScore, record.ValidationStatus)
		}
		return err
	}
	if err != nil {
		return err
	}

	if asJSON {
		return printJSON(effect)
	}

	state := eng.State()
	fmt.Fprintf(os.Stdout, "%s\n", effect.Name)
	fmt.Fprintf(os.Stdout, "  %s\n", effect.Description)
	fmt.Fprintf(os.Stdout, "  Power:        %.2f\n", effect.PowerLevel)
	fmt.Fprintf(os.Stdout, "  Duration:     %s\n", effect.Duration)
	fmt.Fprintf(os.Stdout, "  Healing:      %.2f\n", effect.HealingPotential)
	fmt.Fprintf(os.Stdout, "  Authenticity: %.2f\n", effect.AuthenticityScore)
	fmt.Fprintf(os.Stdout, "  Trauma safe:  %t\n", effect.AccessibilityCompliance)
	if len(effect.FiguresInvolved) > 0 {
		fmt.Fprintf(os.Stdout, "  Figures:      %s\n", strings.Join(effect.FiguresInvolved, ", "))
	}
	fmt.Fprintf(os.Stdout, "  Regions:      %s\n", strings.Join(effect.RegionsAffected, ", "))

	if len(responses) > 0 {
		fmt.Fprintln(os.Stdout, "")
		for _, response := range responses {
			fmt.Fprintf(os.Stdout, "%s %s: %s\n", response.Figure, response.Action, response.Dialogue)
		}
	}

	fmt.Fprintln(os.Stdout, "")
	fmt.Fprintf(os.Stdout, "Arc progress %.3f, stability %.4f, region %s\n", state.NarrativeArcProgress, state.WorldStability, state.CurrentRegionID)
	return nil
}
