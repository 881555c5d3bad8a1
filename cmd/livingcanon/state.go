package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

func stateCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "state",
		Short: "Show the current story state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runState(asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the state as JSON")
	return cmd
}

func runState(asJSON bool) error {
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

	state := eng.State()
	if asJSON {
		return printJSON(state)
	}

	regionName := state.CurrentRegionID
	if region, ok := eng.CurrentWorldRegion(); ok {
		regionName = fmt.Sprintf("%s (%s)", region.Name, region.ID)
	}
	archetypeName := fmt.Sprintf("%d", state.DominantArchetype)
	if a, ok := eng.Archetype(state.DominantArchetype); ok {
		archetypeName = fmt.Sprintf("%d %s", a.ID, a.Name)
	}

	fmt.Fprintf(os.Stdout, "Region:         %s\n", regionName)
	fmt.Fprintf(os.Stdout, "Archetype:      %s\n", archetypeName)
	fmt.Fprintf(os.Stdout, "Arc progress:   %.3f\n", state.NarrativeArcProgress)
	fmt.Fprintf(os.Stdout, "Stability:      %.4f\n", state.WorldStability)
	fmt.Fprintf(os.Stdout, "Consciousness:  %.1f\n", state.ConsciousnessLevel)
	fmt.Fprintf(os.Stdout, "Creations:      %d\n", state.Creations)
	fmt.Fprintf(os.Stdout, "Arc evolutions: %d\n", state.ArcEvolutions)
	if len(state.ActiveFigures) > 0 {
		fmt.Fprintf(os.Stdout, "Active figures: %s\n", strings.Join(state.ActiveFigures, ", "))
	}
	return nil
}
