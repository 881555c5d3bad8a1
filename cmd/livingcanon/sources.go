package main

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"livingcanon/internal/canon"
	"livingcanon/internal/source"
	"livingcanon/internal/store"
)

func sourcesCmd() *cobra.Command {
	var figure string
	var tag string
	var search string
	var stats bool
	cmd := &cobra.Command{
		Use:   "sources",
		Short: "List, search, or summarize primary sources",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if stats {
				return runSourceStats()
			}
			if search != "" {
				return runSourceSearch(search, figure)
			}
			return runSourceList(figure, tag)
		},
	}
	cmd.Flags().StringVar(&figure, "figure", "", "Figure to filter")
	cmd.Flags().StringVar(&tag, "tag", "", "Theme or archetype tag to filter")
	cmd.Flags().StringVar(&search, "search", "", "Full-text search query")
	cmd.Flags().BoolVar(&stats, "stats", false, "Print source statistics")
	return cmd
}

func runSourceList(figure, tag string) error {
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

	want := canon.NormalizeFigure(figure)
	var entries []canon.PrimarySourceEntry
	for _, name := range eng.Sources().Figures() {
		if want != "" && canon.NormalizeFigure(name) != want {
			continue
		}
		for _, entry := range eng.Sources().QuotesForFigure(name, source.ThemeAll) {
			if tag != "" && !store.HasTag(entry, tag) {
				continue
			}
			entries = append(entries, entry)
		}
	}
	if len(entries) == 0 {
		fmt.Fprintln(os.Stdout, "No sources found.")
		return nil
	}

	for _, entry := range entries {
		fmt.Fprintf(os.Stdout, "%s (%s) [%s] authenticity=%.2f\n", entry.ID, entry.Figure, entry.SourceType, entry.Authenticity)
		fmt.Fprintf(os.Stdout, "    %q\n", entry.AuthenticText)
	}
	return nil
}

func runSourceSearch(query, figure string) error {
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

	results, err := db.SearchSources(ctx, query, figure)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		fmt.Fprintln(os.Stdout, "No matches found.")
		return nil
	}

	for _, result := range results {
		fmt.Fprintf(os.Stdout, "%s (%s) [%s] score=%.2f\n", result.ID, result.Figure, result.SourceType, result.Score)
		if result.Snippet != "" {
			fmt.Fprintf(os.Stdout, "    %s\n", result.Snippet)
		}
	}
	return nil
}

func runSourceStats() error {
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

	stats := eng.Sources().Statistics()
	fmt.Fprintf(os.Stdout, "Sources:              %d\n", stats.TotalSources)
	fmt.Fprintf(os.Stdout, "Figures:              %d\n", stats.FigureCount)
	fmt.Fprintf(os.Stdout, "Average authenticity: %.3f\n", stats.AverageAuthenticity)

	types := make([]string, 0, len(stats.SourcesByType))
	for name := range stats.SourcesByType {
		types = append(types, name)
	}
	sort.Strings(types)
	for _, name := range types {
		fmt.Fprintf(os.Stdout, "  %s: %d\n", name, stats.SourcesByType[name])
	}
	return nil
}
