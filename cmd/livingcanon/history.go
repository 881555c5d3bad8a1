package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"livingcanon/internal/store"
)

func historyCmd() *cobra.Command {
	var filter store.EntryFilter
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List canonical events from the narrative log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(filter, asJSON)
		},
	}
	cmd.Flags().StringVar(&filter.Figure, "figure", "", "Only events that manifested this figure")
	cmd.Flags().IntVar(&filter.Since, "since", 0, "Only events after this sequence number")
	cmd.Flags().IntVar(&filter.Limit, "limit", 0, "Maximum number of events")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the events as JSON")
	return cmd
}

func runHistory(filter store.EntryFilter, asJSON bool) error {
	ctx := context.Background()

	p, err := loadProject()
	if err != nil {
		return err
	}

	db, err := requireDB(ctx, p.cfg)
	if err != nil {
		return err
	}
	defer db.Close(ctx)

	entries, err := db.ListEntries(ctx, filter)
	if err != nil {
		return err
	}
	if asJSON {
		return printJSON(entries)
	}
	if len(entries) == 0 {
		fmt.Fprintln(os.Stdout, "No events found.")
		return nil
	}

	for _, entry := range entries {
		fmt.Fprintf(os.Stdout, "[%d] %s %s power=%.2f\n", entry.Sequence, entry.Timestamp.Format("2006-01-02 15:04"), entry.Effect.Name, entry.Effect.PowerLevel)
		if entry.Act.PlayerName != "" {
			fmt.Fprintf(os.Stdout, "    Player: %s\n", entry.Act.PlayerName)
		}
		if len(entry.Figures) > 0 {
			fmt.Fprintf(os.Stdout, "    Figures: %s\n", strings.Join(entry.Figures, ", "))
		}
		if t := entry.Transition; t != nil {
			fmt.Fprintf(os.Stdout, "    Arc evolved %d -> %d (%s -> %s)\n", t.FromArchetype, t.ToArchetype, t.FromRegion, t.ToRegion)
		}
	}
	return nil
}
