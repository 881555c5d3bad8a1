package sound

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"

	"livingcanon/internal/canon"
	"livingcanon/internal/source"
)

func testProfiles() []canon.FigureSoundProfile {
	return []canon.FigureSoundProfile{
		{
			Figure:                 "Leonora Carrington",
			BaseFrequency:          528,
			RhythmPattern:          "dream-logic syncopation",
			HarmonicSeries:         []float64{1, 1.5, 2},
			CreativeMotif:          "alchemical dream",
			HistoricalAuthenticity: 0.95,
		},
		{
			Figure:                 "John Dee",
			BaseFrequency:          396,
			RhythmPattern:          "enochian cadence",
			HarmonicSeries:         []float64{1, 2},
			CreativeMotif:          "angelic geometry",
			HistoricalAuthenticity: 0.92,
		},
	}
}

func testSources(t *testing.T) *source.Store {
	t.Helper()
	store, err := source.New([]canon.PrimarySourceEntry{
		{ID: "carrington_dream_01", Figure: "Leonora Carrington", Themes: []string{"vision"}, Authenticity: 0.95},
		{ID: "dee_monas_01", Figure: "John Dee", Themes: []string{"mathematics"}, Authenticity: 0.92},
	})
	if err != nil {
		t.Fatalf("source store: %v", err)
	}
	return store
}

func TestMix(t *testing.T) {
	m := NewMixer(testProfiles(), testSources(t))

	result, err := m.Mix([]string{"Leonora Carrington", "john dee"}, "")
	if err != nil {
		t.Fatalf("mix: %v", err)
	}
	// index 0: (528+396)/2, index 1: (792+792)/2, index 2: 1056 alone
	if !reflect.DeepEqual(result.FrequencySignature, []float64{462, 792, 1056}) {
		t.Fatalf("unexpected signature: %v", result.FrequencySignature)
	}
	if result.HistoricalResonance != 0.935 {
		t.Fatalf("unexpected resonance: %v", result.HistoricalResonance)
	}
	if !reflect.DeepEqual(result.Figures, []string{"Leonora Carrington", "John Dee"}) {
		t.Fatalf("unexpected figures: %v", result.Figures)
	}
	if len(result.AuthenticMaterial) != 2 {
		t.Fatalf("expected one quote per figure, got %d", len(result.AuthenticMaterial))
	}

	report := m.Authenticity(result)
	if len(report.Records) != 2 || report.Score < 0.9 {
		t.Fatalf("unexpected authenticity report: %+v", report)
	}
}

func TestMix_Deterministic(t *testing.T) {
	m := NewMixer(testProfiles(), testSources(t))
	figures := []string{"John Dee", "Leonora Carrington"}

	first, err := m.Mix(figures, "angelic vision")
	if err != nil {
		t.Fatalf("mix: %v", err)
	}
	second, err := m.Mix(figures, "angelic vision")
	if err != nil {
		t.Fatalf("mix: %v", err)
	}

	a, _ := json.Marshal(first)
	b, _ := json.Marshal(second)
	if string(a) != string(b) {
		t.Fatalf("expected identical output:\n%s\n%s", a, b)
	}
}

func TestMix_InsufficientFigures(t *testing.T) {
	m := NewMixer(testProfiles(), nil)

	tests := []struct {
		name     string
		figures  []string
		resolved int
	}{
		{name: "single figure", figures: []string{"John Dee"}, resolved: 1},
		{name: "repeated figure", figures: []string{"John Dee", "JOHN DEE"}, resolved: 1},
		{name: "unknown figures", figures: []string{"Hilma af Klint", "Nobody"}, resolved: 0},
		{name: "empty", figures: nil, resolved: 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := m.Mix(tc.figures, "vision")
			if !errors.Is(err, ErrInsufficientFigures) {
				t.Fatalf("expected ErrInsufficientFigures, got %v", err)
			}
			var insufficient *InsufficientFiguresError
			if !errors.As(err, &insufficient) {
				t.Fatalf("expected *InsufficientFiguresError, got %T", err)
			}
			if insufficient.Resolved != tc.resolved {
				t.Fatalf("expected %d resolved, got %d", tc.resolved, insufficient.Resolved)
			}
		})
	}
}

func TestMix_WithoutSources(t *testing.T) {
	m := NewMixer(testProfiles(), nil)
	result, err := m.Mix([]string{"Leonora Carrington", "John Dee"}, "vision")
	if err != nil {
		t.Fatalf("mix: %v", err)
	}
	if result.AuthenticMaterial == nil || len(result.AuthenticMaterial) != 0 {
		t.Fatalf("expected empty material, got %v", result.AuthenticMaterial)
	}
	if report := m.Authenticity(result); report.Score != 0 {
		t.Fatalf("expected zero score, got %v", report.Score)
	}
}

func TestFuseConsciousness(t *testing.T) {
	m := NewMixer(testProfiles(), nil)

	fusion, err := m.FuseConsciousness([]string{"Leonora Carrington", "John Dee"})
	if err != nil {
		t.Fatalf("fuse: %v", err)
	}
	if fusion.NewArchetypeEmergence != "The Carrington-Dee Synthesis" {
		t.Fatalf("unexpected emergence: %q", fusion.NewArchetypeEmergence)
	}
	if fusion.CreativeSynthesis != "alchemical dream meets angelic geometry" {
		t.Fatalf("unexpected synthesis: %q", fusion.CreativeSynthesis)
	}
	if fusion.HealingPotential != 9.35 {
		t.Fatalf("unexpected healing potential: %v", fusion.HealingPotential)
	}

	if _, err := m.FuseConsciousness([]string{"John Dee"}); !errors.Is(err, ErrInsufficientFigures) {
		t.Fatalf("expected ErrInsufficientFigures, got %v", err)
	}
}

func TestProfile(t *testing.T) {
	m := NewMixer(testProfiles(), nil)
	profile, ok := m.Profile(" JOHN DEE")
	if !ok || profile.BaseFrequency != 396 {
		t.Fatalf("unexpected profile: %+v", profile)
	}
	profile.HarmonicSeries[0] = 99
	again, _ := m.Profile("John Dee")
	if again.HarmonicSeries[0] != 1 {
		t.Fatalf("mixer was mutated through a returned profile")
	}
}
