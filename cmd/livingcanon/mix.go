package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

func mixCmd() *cobra.Command {
	var intent string
	var fuse bool
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "mix <figure>...",
		Short: "Blend the sound profiles of two or more figures",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMix(args, intent, fuse, asJSON)
		},
	}
	cmd.Flags().StringVar(&intent, "intent", "", "Intent of the sound spell")
	cmd.Flags().BoolVar(&fuse, "fuse", false, "Describe the fused consciousness instead of the spell")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the result as JSON")
	return cmd
}

func runMix(figures []string, intent string, fuse, asJSON bool) error {
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

	if fuse {
		fusion, err := eng.FuseConsciousness(figures)
		if err != nil {
			return err
		}
		if asJSON {
			return printJSON(fusion)
		}
		fmt.Fprintln(os.Stdout, fusion.NewArchetypeEmergence)
		fmt.Fprintf(os.Stdout, "  %s\n", fusion.CreativeSynthesis)
		fmt.Fprintf(os.Stdout, "  Healing:        %.2f\n", fusion.HealingPotential)
		fmt.Fprintf(os.Stdout, "  World changing: %.2f\n", fusion.WorldChangingPotential)
		return nil
	}

	result, err := eng.MixSoundSpells(figures, intent)
	if err != nil {
		return err
	}
	if asJSON {
		return printJSON(result)
	}

	fmt.Fprintf(os.Stdout, "Sound spell of %s\n", strings.Join(result.Figures, ", "))
	if result.Intent != "" {
		fmt.Fprintf(os.Stdout, "  Intent:     %s\n", result.Intent)
	}
	fmt.Fprintf(os.Stdout, "  Frequency:  %v\n", result.FrequencySignature)
	fmt.Fprintf(os.Stdout, "  Rhythms:    %s\n", strings.Join(result.Rhythms, " | "))
	fmt.Fprintf(os.Stdout, "  Emotional:  %.2f\n", result.EmotionalImpact)
	fmt.Fprintf(os.Stdout, "  Resonance:  %.2f\n", result.HistoricalResonance)
	fmt.Fprintf(os.Stdout, "  Potential:  %.2f\n", result.WorldEffectPotential)
	for _, entry := range result.AuthenticMaterial {
		fmt.Fprintf(os.Stdout, "  - %s: %q\n", entry.Figure, entry.AuthenticText)
	}
	return nil
}
