// Package region holds the named locations of the world. The map is built
// once and never mutated.
package region

import (
	"fmt"
	"strings"

	"livingcanon/internal/canon"
)

type Map struct {
	regions map[string]canon.WorldRegion
	order   []string
}

func New(regions []canon.WorldRegion) (*Map, error) {
	m := &Map{regions: make(map[string]canon.WorldRegion, len(regions))}
	for i, r := range regions {
		id := strings.TrimSpace(r.ID)
		if id == "" {
			return nil, fmt.Errorf("region %d id is required", i)
		}
		if _, exists := m.regions[id]; exists {
			return nil, fmt.Errorf("duplicate region id: %s", id)
		}
		m.regions[id] = r.Clone()
		m.order = append(m.order, id)
	}
	for _, id := range m.order {
		for _, portal := range m.regions[id].Portals {
			if _, ok := m.regions[portal.Destination]; !ok {
				return nil, fmt.Errorf("region %s portal leads to unknown region: %s", id, portal.Destination)
			}
		}
	}
	return m, nil
}

// Region returns a copy of the region, or false when the id is unknown.
func (m *Map) Region(id string) (canon.WorldRegion, bool) {
	r, ok := m.regions[id]
	if !ok {
		return canon.WorldRegion{}, false
	}
	return r.Clone(), true
}

func (m *Map) Regions() []canon.WorldRegion {
	out := make([]canon.WorldRegion, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.regions[id].Clone())
	}
	return out
}

// ForArchetype returns the first declared region whose primary archetype is id.
func (m *Map) ForArchetype(id int) (canon.WorldRegion, bool) {
	for _, regionID := range m.order {
		if r := m.regions[regionID]; r.PrimaryArchetype == id {
			return r.Clone(), true
		}
	}
	return canon.WorldRegion{}, false
}

// Destinations lists the regions reachable through from's portals.
func (m *Map) Destinations(from string) []string {
	r, ok := m.regions[from]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(r.Portals))
	for _, portal := range r.Portals {
		out = append(out, portal.Destination)
	}
	return out
}

// Reachable reports whether to can be reached from from by following portals.
func (m *Map) Reachable(from, to string) bool {
	if _, ok := m.regions[from]; !ok {
		return false
	}
	if from == to {
		return true
	}
	visited := map[string]bool{from: true}
	queue := []string{from}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, next := range m.Destinations(current) {
			if next == to {
				return true
			}
			if !visited[next] {
				visited[next] = true
				queue = append(queue, next)
			}
		}
	}
	return false
}

func (m *Map) Len() int {
	return len(m.order)
}
