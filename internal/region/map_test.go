package region

import (
	"reflect"
	"testing"

	"livingcanon/internal/canon"
)

func testRegions() []canon.WorldRegion {
	return []canon.WorldRegion{
		{
			ID:               "asylum",
			Name:             "The Sanctuary of Lost Thoughts",
			PrimaryArchetype: 0,
			Portals:          []canon.Portal{{Destination: "atelier", ArchetypeResonance: []int{0, 1}}},
			Accessibility:    canon.Accessibility{TraumaSafe: true, ExitPoints: []string{"The egg portal"}},
		},
		{
			ID:               "atelier",
			PrimaryArchetype: 0,
			Portals:          []canon.Portal{{Destination: "mortlake"}},
		},
		{ID: "mortlake", PrimaryArchetype: 1},
		{ID: "island", PrimaryArchetype: 5},
	}
}

func testMap(t *testing.T) *Map {
	t.Helper()
	m, err := New(testRegions())
	if err != nil {
		t.Fatalf("new map: %v", err)
	}
	return m
}

func TestNew(t *testing.T) {
	t.Run("duplicate id", func(t *testing.T) {
		regions := testRegions()
		regions[1].ID = "asylum"
		if _, err := New(regions); err == nil {
			t.Fatalf("expected error")
		}
	})

	t.Run("unknown portal destination", func(t *testing.T) {
		regions := testRegions()
		regions[2].Portals = []canon.Portal{{Destination: "nowhere"}}
		if _, err := New(regions); err == nil {
			t.Fatalf("expected error")
		}
	})
}

func TestRegion(t *testing.T) {
	m := testMap(t)

	first, ok := m.Region("asylum")
	if !ok {
		t.Fatalf("expected region")
	}
	first.Accessibility.ExitPoints[0] = "mutated"
	first.Portals[0].ArchetypeResonance[0] = 99

	second, _ := m.Region("asylum")
	if second.Accessibility.ExitPoints[0] != "The egg portal" || second.Portals[0].ArchetypeResonance[0] != 0 {
		t.Fatalf("map was mutated through a returned region")
	}

	again, _ := m.Region("asylum")
	if !reflect.DeepEqual(second, again) {
		t.Fatalf("expected repeated lookups to be equal")
	}

	if _, ok := m.Region("missing"); ok {
		t.Fatalf("expected unknown region")
	}
}

func TestForArchetype(t *testing.T) {
	m := testMap(t)
	r, ok := m.ForArchetype(0)
	if !ok || r.ID != "asylum" {
		t.Fatalf("expected first declared region, got %+v", r)
	}
	if _, ok := m.ForArchetype(16); ok {
		t.Fatalf("expected no region")
	}
}

func TestReachable(t *testing.T) {
	m := testMap(t)
	if !m.Reachable("asylum", "mortlake") {
		t.Fatalf("expected mortlake reachable")
	}
	if m.Reachable("mortlake", "asylum") {
		t.Fatalf("expected asylum unreachable from mortlake")
	}
	if m.Reachable("asylum", "island") {
		t.Fatalf("expected island unreachable")
	}
	if !reflect.DeepEqual(m.Destinations("asylum"), []string{"atelier"}) {
		t.Fatalf("unexpected destinations")
	}
}
