package narrative

import (
	"math"
	"reflect"
	"testing"
)

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func testRules() Rules {
	return Rules{
		ArcThreshold: 0.8,
		ArcJump:      5,
		MaxArchetype: 21,
		Mode:         ArcCrossing,
		RegionFor: func(archetype int) (string, bool) {
			if archetype == 5 {
				return "lodge", true
			}
			return "", false
		},
	}
}

func baseState() StoryState {
	return StoryState{
		CurrentRegionID:      "asylum",
		ActiveFigures:        []string{"Leonora Carrington"},
		NarrativeArcProgress: 0.15,
		WorldStability:       0.85,
		ConsciousnessLevel:   3,
	}
}

func effectWithPower(power float64, figures ...string) WorldEffect {
	return WorldEffect{
		PowerLevel:       power,
		HealingPotential: power * 10,
		FiguresInvolved:  figures,
	}
}

func TestApplyEffect(t *testing.T) {
	before := baseState()
	input := CreationInput{PlayerName: "p", Intent: "vision", ConsciousnessLevel: 10, ArchetypeTags: []string{"fool"}}

	after, transition := before.ApplyEffect(input, effectWithPower(10, "Leonora Carrington", "Max Ernst"), testRules())

	if transition != nil {
		t.Fatalf("unexpected transition: %+v", transition)
	}
	if got, want := after.NarrativeArcProgress, 0.25; !approx(got, want) {
		t.Fatalf("expected progress %v, got %v", want, got)
	}
	if got, want := after.WorldStability, 0.86; !approx(got, want) {
		t.Fatalf("expected stability %v, got %v", want, got)
	}
	if !reflect.DeepEqual(after.ActiveFigures, []string{"Leonora Carrington", "Max Ernst"}) {
		t.Fatalf("unexpected active figures: %v", after.ActiveFigures)
	}
	if after.ConsciousnessLevel != 10 || after.Creations != 1 {
		t.Fatalf("unexpected counters: %+v", after)
	}
	if after.LastCreationAct == nil || after.LastCreationAct.Intent != "vision" {
		t.Fatalf("expected last creation act to be recorded")
	}

	if before.NarrativeArcProgress != 0.15 || len(before.ActiveFigures) != 1 || before.LastCreationAct != nil {
		t.Fatalf("receiver was mutated: %+v", before)
	}

	input.ArchetypeTags[0] = "mutated"
	if after.LastCreationAct.ArchetypeTags[0] != "fool" {
		t.Fatalf("state shares slices with the input")
	}
}

func TestApplyEffect_ArcEvolution(t *testing.T) {
	t.Run("crossing evolves once per threshold", func(t *testing.T) {
		state := baseState()
		var transitions []*ArcTransition
		for i := 0; i < 4; i++ {
			var transition *ArcTransition
			state, transition = state.ApplyEffect(CreationInput{}, effectWithPower(30), testRules())
			transitions = append(transitions, transition)
		}
		// progress: 0.45, 0.75, 1.05, 1.35
		if transitions[0] != nil || transitions[1] != nil || transitions[3] != nil {
			t.Fatalf("unexpected transitions: %+v", transitions)
		}
		if transitions[2] == nil {
			t.Fatalf("expected evolution when crossing 0.8")
		}
		if transitions[2].FromArchetype != 0 || transitions[2].ToArchetype != 5 || transitions[2].ToRegion != "lodge" {
			t.Fatalf("unexpected transition: %+v", transitions[2])
		}
		if state.DominantArchetype != 5 || state.ArcEvolutions != 1 || state.CurrentRegionID != "lodge" {
			t.Fatalf("unexpected state: %+v", state)
		}
	})

	t.Run("continuous re-evolves and caps at max", func(t *testing.T) {
		rules := testRules()
		rules.Mode = ArcContinuous
		state := baseState()
		state.NarrativeArcProgress = 0.9
		state.DominantArchetype = 15

		state, first := state.ApplyEffect(CreationInput{}, effectWithPower(1), rules)
		state, second := state.ApplyEffect(CreationInput{}, effectWithPower(1), rules)
		if first == nil || second == nil {
			t.Fatalf("expected evolution on every call")
		}
		if first.ToArchetype != 20 || second.ToArchetype != 21 {
			t.Fatalf("unexpected targets: %d, %d", first.ToArchetype, second.ToArchetype)
		}
		if state.CurrentRegionID != "asylum" {
			t.Fatalf("region should not move without a matching region")
		}
	})
}

func TestGraph(t *testing.T) {
	g := NewGraph()
	first := g.Append(Entry{ID: "a", Figures: []string{"Leonora Carrington"}})
	second := g.Append(Entry{ID: "b", Figures: []string{"John Dee"}, Sequence: 99})

	if first.Sequence != 1 || second.Sequence != 2 {
		t.Fatalf("unexpected sequences: %d, %d", first.Sequence, second.Sequence)
	}
	if g.Len() != 2 || g.NextSequence() != 3 {
		t.Fatalf("unexpected length")
	}

	entries := g.Entries()
	entries[0].Figures[0] = "mutated"
	if got, _ := g.Entry(1); got.Figures[0] != "Leonora Carrington" {
		t.Fatalf("log was mutated through a returned entry")
	}

	if got := g.ForFigure("john dee"); len(got) != 1 || got[0].ID != "b" {
		t.Fatalf("unexpected figure entries: %+v", got)
	}
	if got := g.Since(1); len(got) != 1 || got[0].ID != "b" {
		t.Fatalf("unexpected since entries: %+v", got)
	}
	if _, ok := g.Entry(3); ok {
		t.Fatalf("expected missing entry")
	}
}

func TestGraph_Replay(t *testing.T) {
	rules := testRules()
	live := baseState()
	g := NewGraph()
	for _, power := range []float64{20, 30, 15} {
		input := CreationInput{Intent: "vision", ConsciousnessLevel: 7}
		effect := effectWithPower(power, "Max Ernst")
		live, _ = live.ApplyEffect(input, effect, rules)
		g.Append(Entry{Act: input, Effect: effect, Figures: effect.FiguresInvolved})
	}

	replayed := g.Replay(baseState(), rules)
	if !reflect.DeepEqual(replayed, live) {
		t.Fatalf("replay diverged:\nlive     %+v\nreplayed %+v", live, replayed)
	}
}
