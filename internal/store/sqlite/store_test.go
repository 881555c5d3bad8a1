package sqlite

import (
	"context"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"livingcanon/internal/canon"
	"livingcanon/internal/narrative"
	"livingcanon/internal/source"
	"livingcanon/internal/store"
)

func openTestClient(t *testing.T) *Client {
	t.Helper()
	ctx := context.Background()
	dsn := "sqlite://" + filepath.Join(t.TempDir(), "canon.db")
	c, err := New(ctx, dsn)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { c.Close(ctx) })
	if err := c.EnsureSchema(ctx); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}
	// EnsureSchema is idempotent.
	if err := c.EnsureSchema(ctx); err != nil {
		t.Fatalf("ensure schema twice: %v", err)
	}
	return c
}

func testEntry(sequence int, figures ...string) narrative.Entry {
	return narrative.Entry{
		Sequence:  sequence,
		ID:        "entry-" + string(rune('a'+sequence)),
		Timestamp: time.Date(2024, 3, sequence, 12, 0, 0, 0, time.UTC),
		Act: narrative.CreationInput{
			PlayerName:         "Remedios",
			MaterialsUsed:      []any{"carrington_dream_01"},
			ArchetypeTags:      []string{"genesis"},
			Intent:             "vision",
			ConsciousnessLevel: 10,
		},
		Effect: narrative.WorldEffect{
			ID:              "effect-1",
			Name:            "vision Manifestation",
			PowerLevel:      8.595238095238095,
			Duration:        42 * time.Second,
			FiguresInvolved: figures,
			RegionsAffected: []string{"carrington_asylum"},
		},
		Figures:         figures,
		Responses:       []narrative.NPCResponse{{Figure: figures[0], Interaction: narrative.InteractionCollaboration, Dialogue: "hello"}},
		NarrativeImpact: 3,
		Provenance:      []source.ProvenanceRecord{{SourceID: "carrington_dream_01", AuthenticityScore: 0.95, ValidationStatus: source.StatusValidated}},
	}
}

func TestCheckpointRoundTrip(t *testing.T) {
	ctx := context.Background()
	c := openTestClient(t)

	if _, _, ok, err := c.LoadCheckpoint(ctx); err != nil || ok {
		t.Fatalf("expected empty checkpoint, got %v, %v", ok, err)
	}

	first := testEntry(1, "Leonora Carrington", "Max Ernst")
	second := testEntry(2, "John Dee")
	second.Transition = &narrative.ArcTransition{FromArchetype: 0, ToArchetype: 5, FromRegion: "carrington_asylum", ToRegion: "theosophical_society"}

	state := narrative.StoryState{
		CurrentRegionID:      "theosophical_society",
		ActiveFigures:        []string{"Leonora Carrington", "Max Ernst", "John Dee"},
		NarrativeArcProgress: 0.8721428571428571,
		WorldStability:       0.8667,
		ConsciousnessLevel:   10,
		DominantArchetype:    5,
		ArcEvolutions:        1,
		Creations:            2,
	}

	if err := c.SaveCreation(ctx, narrative.StoryState{Creations: 1}, first); err != nil {
		t.Fatalf("save first: %v", err)
	}
	if err := c.SaveCreation(ctx, state, second); err != nil {
		t.Fatalf("save second: %v", err)
	}
	if err := c.SaveCreation(ctx, state, second); err == nil {
		t.Fatalf("expected duplicate sequence to fail")
	}

	loaded, entries, ok, err := c.LoadCheckpoint(ctx)
	if err != nil || !ok {
		t.Fatalf("load: %v, %v", ok, err)
	}
	if !reflect.DeepEqual(loaded, state) {
		t.Fatalf("state mismatch:\nwant %+v\ngot  %+v", state, loaded)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}

	got := entries[1]
	if got.Sequence != 2 || got.ID != second.ID || !got.Timestamp.Equal(second.Timestamp) {
		t.Fatalf("unexpected entry header: %+v", got)
	}
	if got.Effect.PowerLevel != second.Effect.PowerLevel || got.Effect.Duration != second.Effect.Duration {
		t.Fatalf("effect did not round-trip: %+v", got.Effect)
	}
	if !reflect.DeepEqual(got.Act.MaterialsUsed, []any{"carrington_dream_01"}) {
		t.Fatalf("materials did not round-trip: %v", got.Act.MaterialsUsed)
	}
	if got.Transition == nil || *got.Transition != *second.Transition {
		t.Fatalf("transition did not round-trip: %+v", got.Transition)
	}
	if entries[0].Transition != nil {
		t.Fatalf("expected no transition on first entry")
	}
	if !reflect.DeepEqual(got.Provenance, second.Provenance) || !reflect.DeepEqual(got.Responses, second.Responses) {
		t.Fatalf("records did not round-trip: %+v", got)
	}
}

func TestListEntries(t *testing.T) {
	ctx := context.Background()
	c := openTestClient(t)
	for i, figures := range [][]string{{"Leonora Carrington"}, {"John Dee"}, {"Leonora Carrington", "John Dee"}} {
		if err := c.SaveCreation(ctx, narrative.StoryState{Creations: i + 1}, testEntry(i+1, figures...)); err != nil {
			t.Fatalf("save: %v", err)
		}
	}

	tests := []struct {
		name   string
		filter store.EntryFilter
		want   []int
	}{
		{name: "all", filter: store.EntryFilter{}, want: []int{1, 2, 3}},
		{name: "figure", filter: store.EntryFilter{Figure: "john dee"}, want: []int{2, 3}},
		{name: "since", filter: store.EntryFilter{Since: 1}, want: []int{2, 3}},
		{name: "limit", filter: store.EntryFilter{Limit: 1}, want: []int{1}},
		{name: "figure and since", filter: store.EntryFilter{Figure: "Leonora Carrington", Since: 1}, want: []int{3}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			entries, err := c.ListEntries(ctx, tc.filter)
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			got := make([]int, 0, len(entries))
			for _, entry := range entries {
				got = append(got, entry.Sequence)
				if !tc.filter.Match(entry) {
					t.Fatalf("entry %d does not match filter", entry.Sequence)
				}
			}
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestSources(t *testing.T) {
	ctx := context.Background()
	c := openTestClient(t)

	inputs := []store.SourceInput{
		{
			Entry: canon.PrimarySourceEntry{
				ID:            "dee_monas_01",
				Figure:        "John Dee",
				SourceType:    "manuscript",
				AuthenticText: "The angelic tongues contain the mathematical principles of the universe",
				Themes:        []string{"mathematics"},
				Authenticity:  0.92,
			},
			SourceFile: "sources/dee.md",
			SourceHash: "hash-dee",
		},
		{
			Entry: canon.PrimarySourceEntry{
				ID:            "artaud_theater_01",
				Figure:        "Antonin Artaud",
				SourceType:    "manifesto",
				AuthenticText: "The theater of cruelty means a theater difficult and cruel for myself first of all",
				ArchetypeTags: []string{"tower"},
				Authenticity:  0.9,
			},
			SourceFile: "sources/artaud.md",
			SourceHash: "hash-artaud",
		},
	}
	for _, input := range inputs {
		if err := c.UpsertSource(ctx, input); err != nil {
			t.Fatalf("upsert: %v", err)
		}
	}
	updated := inputs[0]
	updated.SourceHash = "hash-dee-2"
	if err := c.UpsertSource(ctx, updated); err != nil {
		t.Fatalf("upsert again: %v", err)
	}

	all, err := c.ListSources(ctx, store.SourceFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 2 || all[0].ID != "artaud_theater_01" {
		t.Fatalf("unexpected sources: %+v", all)
	}
	if !reflect.DeepEqual(all[1], inputs[0].Entry) {
		t.Fatalf("source did not round-trip:\nwant %+v\ngot  %+v", inputs[0].Entry, all[1])
	}

	tagged, err := c.ListSources(ctx, store.SourceFilter{Tag: "Tower"})
	if err != nil || len(tagged) != 1 || tagged[0].ID != "artaud_theater_01" {
		t.Fatalf("unexpected tag filter result: %+v, %v", tagged, err)
	}

	hashes, err := c.GetSourceHashes(ctx)
	if err != nil {
		t.Fatalf("hashes: %v", err)
	}
	if hashes["sources/dee.md"] != "hash-dee-2" {
		t.Fatalf("unexpected hashes: %v", hashes)
	}

	results, err := c.SearchSources(ctx, "angelic tongues", "")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 1 || results[0].ID != "dee_monas_01" || results[0].Score <= 0 {
		t.Fatalf("unexpected search results: %+v", results)
	}
	if results, err := c.SearchSources(ctx, "theater", "John Dee"); err != nil || len(results) != 0 {
		t.Fatalf("expected figure filter to exclude artaud: %+v, %v", results, err)
	}

	removed, err := c.RemoveStaleSources(ctx, []string{"sources/dee.md"})
	if err != nil || removed != 1 {
		t.Fatalf("expected one stale source removed, got %d, %v", removed, err)
	}
	if results, err := c.SearchSources(ctx, "theater", ""); err != nil || len(results) != 0 {
		t.Fatalf("expected removed source gone from index: %+v, %v", results, err)
	}
}

func TestRunSQL(t *testing.T) {
	ctx := context.Background()
	c := openTestClient(t)
	if err := c.SaveCreation(ctx, narrative.StoryState{Creations: 1}, testEntry(1, "John Dee")); err != nil {
		t.Fatalf("save: %v", err)
	}

	rows, err := c.RunSQL(ctx, "SELECT id, sequence FROM narrative_entries WHERE sequence = ?", map[string]any{"1": 1})
	if err != nil {
		t.Fatalf("run sql: %v", err)
	}
	if len(rows) != 1 || rows[0]["id"] != "entry-b" {
		t.Fatalf("unexpected rows: %+v", rows)
	}

	if _, err := c.RunSQL(ctx, "DELETE FROM narrative_entries", nil); err == nil {
		t.Fatalf("expected write statement to be rejected")
	}
}

func TestRunSQL_WriteInsideCTE(t *testing.T) {
	ctx := context.Background()
	c := openTestClient(t)
	if err := c.SaveCreation(ctx, narrative.StoryState{Creations: 1}, testEntry(1, "John Dee")); err != nil {
		t.Fatalf("save: %v", err)
	}

	writes := []string{
		"WITH x AS (SELECT 1) DELETE FROM narrative_entries",
		"WITH x AS (SELECT 1) UPDATE story_state SET creations = 7",
	}
	for _, query := range writes {
		if _, err := c.RunSQL(ctx, query, nil); err == nil {
			t.Fatalf("expected %q to be rejected", query)
		}
	}

	state, entries, ok, err := c.LoadCheckpoint(ctx)
	if err != nil || !ok {
		t.Fatalf("load: %v, %v", ok, err)
	}
	if state.Creations != 1 || len(entries) != 1 {
		t.Fatalf("checkpoint changed: %+v, %d entries", state, len(entries))
	}

	// the connection is writable again once the query is done
	if err := c.SaveCreation(ctx, narrative.StoryState{Creations: 2}, testEntry(2, "John Dee")); err != nil {
		t.Fatalf("save after query: %v", err)
	}
}

func TestNew_InvalidDSN(t *testing.T) {
	for _, dsn := range []string{"canon.db", "sqlite://", "postgres://localhost/canon"} {
		if _, err := New(context.Background(), dsn); err == nil {
			t.Fatalf("expected error for %q", dsn)
		}
	}
}
