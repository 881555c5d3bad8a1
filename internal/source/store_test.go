package source

import (
	"testing"

	"livingcanon/internal/canon"
)

func testEntries() []canon.PrimarySourceEntry {
	return []canon.PrimarySourceEntry{
		{
			ID:                "carrington_dream_01",
			Figure:            "Leonora Carrington",
			SourceType:        "letter",
			AuthenticText:     "We must paint what cannot be painted",
			HistoricalContext: "Correspondence with Max Ernst, 1937",
			Themes:            []string{"vision", "imagination"},
			ArchetypeTags:     []string{"genesis", "fool"},
			IntegrationTags:   []string{"dream_portal"},
			Provenance:        "authenticated_primary_source",
			Authenticity:      0.95,
		},
		{
			ID:            "carrington_asylum_01",
			Figure:        "Leonora Carrington",
			SourceType:    "memoir",
			AuthenticText: "In the asylum, I found the freedom to paint the impossible",
			Themes:        []string{"healing"},
			ArchetypeTags: []string{"guardian"},
			Authenticity:  0.95,
		},
		{
			ID:            "dee_monas_01",
			Figure:        "John Dee",
			SourceType:    "letter",
			AuthenticText: "The angelic tongues contain the mathematical principles of the universe",
			Themes:        []string{"mathematics"},
			ArchetypeTags: []string{"magus"},
			Authenticity:  0.92,
		},
	}
}

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(testEntries())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return s
}

func TestNew(t *testing.T) {
	t.Run("duplicate id", func(t *testing.T) {
		entries := testEntries()
		entries[1].ID = entries[0].ID
		if _, err := New(entries); err == nil {
			t.Fatalf("expected error")
		}
	})

	t.Run("missing figure", func(t *testing.T) {
		entries := testEntries()
		entries[0].Figure = " "
		if _, err := New(entries); err == nil {
			t.Fatalf("expected error")
		}
	})
}

func TestQuotesForFigure(t *testing.T) {
	s := testStore(t)

	tests := []struct {
		name   string
		figure string
		theme  string
		want   []string
	}{
		{name: "theme match", figure: "Leonora Carrington", theme: "vision", want: []string{"carrington_dream_01"}},
		{name: "archetype tag match", figure: "Leonora Carrington", theme: "guardian", want: []string{"carrington_asylum_01"}},
		{name: "integration tag match", figure: "Leonora Carrington", theme: "DREAM_PORTAL", want: []string{"carrington_dream_01"}},
		{name: "all", figure: "leonora carrington", theme: ThemeAll, want: []string{"carrington_dream_01", "carrington_asylum_01"}},
		{name: "empty theme", figure: "John Dee", theme: "", want: []string{"dee_monas_01"}},
		{name: "no theme match", figure: "John Dee", theme: "cruelty", want: nil},
		{name: "unknown figure", figure: "Nobody", theme: ThemeAll, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.QuotesForFigure(tt.figure, tt.theme)
			if got == nil {
				t.Fatalf("expected non-nil slice")
			}
			if len(got) != len(tt.want) {
				t.Fatalf("expected %d quotes, got %d", len(tt.want), len(got))
			}
			for i, id := range tt.want {
				if got[i].ID != id {
					t.Fatalf("quote %d: expected %s, got %s", i, id, got[i].ID)
				}
			}
		})
	}
}

func TestQuotesForFigure_ReturnsCopies(t *testing.T) {
	s := testStore(t)
	quotes := s.QuotesForFigure("John Dee", ThemeAll)
	quotes[0].Themes[0] = "mutated"

	again := s.QuotesForFigure("John Dee", ThemeAll)
	if again[0].Themes[0] != "mathematics" {
		t.Fatalf("store entry was mutated through a returned quote")
	}
}

func TestValidateSource(t *testing.T) {
	s := testStore(t)

	tests := []struct {
		name       string
		material   any
		wantScore  float64
		wantStatus string
	}{
		{name: "known id string", material: "dee_monas_01", wantScore: 0.92, wantStatus: StatusValidated},
		{name: "known id object", material: map[string]any{"id": "carrington_dream_01"}, wantScore: 0.95, wantStatus: StatusValidated},
		{name: "entry value", material: testEntries()[0], wantScore: 0.95, wantStatus: StatusValidated},
		{name: "bare object", material: map[string]any{"quote": "something"}, wantScore: 0.5, wantStatus: StatusPending},
		{
			name: "context and themes",
			material: map[string]any{
				"historical_context": "A letter",
				"themes":             []any{"vision"},
			},
			wantScore:  0.8,
			wantStatus: StatusPending,
		},
		{
			name: "fully described generated material is capped",
			material: map[string]string{
				"historical_context": "A letter",
				"themes":             "vision",
				"archetype_tags":     "fool",
				"figural_alignment":  "Leonora Carrington",
			},
			wantScore:  0.9,
			wantStatus: StatusPending,
		},
		{name: "unknown id string", material: "missing_01", wantScore: 0, wantStatus: StatusUnrecognized},
		{name: "number", material: 42, wantScore: 0, wantStatus: StatusUnrecognized},
		{name: "nil", material: nil, wantScore: 0, wantStatus: StatusUnrecognized},
		{name: "list", material: []any{"a", "b"}, wantScore: 0, wantStatus: StatusUnrecognized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record := s.ValidateSource(tt.material)
			if record.AuthenticityScore != tt.wantScore {
				t.Fatalf("expected score %v, got %v", tt.wantScore, record.AuthenticityScore)
			}
			if record.ValidationStatus != tt.wantStatus {
				t.Fatalf("expected status %s, got %s", tt.wantStatus, record.ValidationStatus)
			}
		})
	}
}

func TestValidateAuthenticity(t *testing.T) {
	s := testStore(t)

	t.Run("empty evidence scores zero", func(t *testing.T) {
		report := s.ValidateAuthenticity(nil)
		if report.Score != 0 {
			t.Fatalf("expected 0, got %v", report.Score)
		}
		if len(report.Records) != 0 {
			t.Fatalf("expected no records")
		}
	})

	t.Run("mean of materials", func(t *testing.T) {
		report := s.ValidateAuthenticity([]any{"carrington_dream_01", 7})
		if report.Score != 0.475 {
			t.Fatalf("expected 0.475, got %v", report.Score)
		}
		if len(report.Records) != 2 {
			t.Fatalf("expected 2 records, got %d", len(report.Records))
		}
	})
}

func TestSearchAndArchetype(t *testing.T) {
	s := testStore(t)

	results := s.Search("PAINT")
	if len(results) != 2 || results[0].ID != "carrington_asylum_01" || results[1].ID != "carrington_dream_01" {
		t.Fatalf("unexpected search results: %+v", results)
	}
	if got := s.Search("  "); len(got) != 0 {
		t.Fatalf("expected empty search for blank query")
	}

	magus := s.SourcesByArchetype("Magus")
	if len(magus) != 1 || magus[0].ID != "dee_monas_01" {
		t.Fatalf("unexpected archetype results: %+v", magus)
	}

	if _, ok := s.SourceByID("dee_monas_01"); !ok {
		t.Fatalf("expected source by id")
	}
	if _, ok := s.SourceByID("nope"); ok {
		t.Fatalf("expected missing source")
	}
}

func TestStatistics(t *testing.T) {
	stats := testStore(t).Statistics()
	if stats.TotalSources != 3 || stats.FigureCount != 2 {
		t.Fatalf("unexpected counts: %+v", stats)
	}
	if stats.SourcesByType["letter"] != 2 || stats.SourcesByType["memoir"] != 1 {
		t.Fatalf("unexpected type counts: %+v", stats.SourcesByType)
	}
	if stats.AverageAuthenticity < 0.939 || stats.AverageAuthenticity > 0.941 {
		t.Fatalf("unexpected average: %v", stats.AverageAuthenticity)
	}
}

func TestStatistics_StableAverage(t *testing.T) {
	// Values whose float sum depends on addition order.
	values := []float64{0.1, 0.7, 0.2, 0.3, 0.6, 0.9, 0.4}
	entries := make([]canon.PrimarySourceEntry, 0, len(values))
	var want float64
	for i, v := range values {
		entries = append(entries, canon.PrimarySourceEntry{
			ID:           "src_" + string(rune('a'+i)),
			Figure:       []string{"John Dee", "Dion Fortune", "Leonora Carrington"}[i%3],
			SourceType:   "letter",
			Authenticity: v,
		})
	}
	// load order grouped by figure
	for f := 0; f < 3; f++ {
		for i := f; i < len(values); i += 3 {
			want += values[i]
		}
	}
	want /= float64(len(values))

	s, err := New(entries)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	for i := 0; i < 50; i++ {
		if got := s.Statistics().AverageAuthenticity; got != want {
			t.Fatalf("run %d: expected average %v, got %v", i, want, got)
		}
	}
}
