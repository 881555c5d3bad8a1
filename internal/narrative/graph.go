package narrative

import (
	"sync"

	"livingcanon/internal/canon"
)

// Graph is the append-only log of canonical events. Reads are safe from any
// goroutine; appends are expected from a single writer.
type Graph struct {
	mu      sync.RWMutex
	entries []Entry
}

// NewGraph seeds the log with previously recorded entries, renumbering them
// in the order given.
func NewGraph(entries ...Entry) *Graph {
	g := &Graph{}
	for _, entry := range entries {
		g.Append(entry)
	}
	return g
}

// Append stores entry with the next sequence number and returns it.
func (g *Graph) Append(entry Entry) Entry {
	g.mu.Lock()
	defer g.mu.Unlock()
	entry = entry.clone()
	entry.Sequence = len(g.entries) + 1
	g.entries = append(g.entries, entry)
	return entry.clone()
}

// NextSequence is the sequence number the next Append will assign.
func (g *Graph) NextSequence() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.entries) + 1
}

func (g *Graph) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.entries)
}

func (g *Graph) Entries() []Entry {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]Entry, 0, len(g.entries))
	for _, entry := range g.entries {
		out = append(out, entry.clone())
	}
	return out
}

func (g *Graph) Entry(sequence int) (Entry, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if sequence < 1 || sequence > len(g.entries) {
		return Entry{}, false
	}
	return g.entries[sequence-1].clone(), true
}

// Since returns the entries recorded after sequence.
func (g *Graph) Since(sequence int) []Entry {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if sequence < 0 {
		sequence = 0
	}
	out := make([]Entry, 0)
	for i := sequence; i < len(g.entries); i++ {
		out = append(out, g.entries[i].clone())
	}
	return out
}

// ForFigure returns the entries in which figure was manifested.
func (g *Graph) ForFigure(figure string) []Entry {
	key := canon.NormalizeFigure(figure)
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]Entry, 0)
	for _, entry := range g.entries {
		for _, f := range entry.Figures {
			if canon.NormalizeFigure(f) == key {
				out = append(out, entry.clone())
				break
			}
		}
	}
	return out
}

// Replay folds every entry into initial with the same rule the engine uses.
func (g *Graph) Replay(initial StoryState, rules Rules) StoryState {
	state := initial.Clone()
	for _, entry := range g.Entries() {
		state, _ = state.ApplyEffect(entry.Act, entry.Effect, rules)
	}
	return state
}

func (e Entry) clone() Entry {
	out := e
	out.Act = e.Act.Clone()
	out.Effect.FiguresInvolved = append([]string(nil), e.Effect.FiguresInvolved...)
	out.Effect.RegionsAffected = append([]string(nil), e.Effect.RegionsAffected...)
	out.Figures = append([]string(nil), e.Figures...)
	if e.Responses != nil {
		out.Responses = append(out.Responses[:0:0], e.Responses...)
	}
	if e.Provenance != nil {
		out.Provenance = append(out.Provenance[:0:0], e.Provenance...)
	}
	if e.Transition != nil {
		t := *e.Transition
		out.Transition = &t
	}
	return out
}
