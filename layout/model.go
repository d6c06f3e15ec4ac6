package layout

import (
	"context"
	"math"
	"sort"

	"github.com/pflow-xyz/biopetri/model"
)

// Graph extracts the layout view of a model: one Node per place and
// transition with its role-derived mass, plus the arc list as Edges.
// Node order is deterministic (places then transitions, each sorted by id).
func Graph(m *model.Model) ([]*Node, []Edge) {
	edges := make([]Edge, 0, len(m.Arcs))
	for _, a := range m.Arcs {
		edges = append(edges, Edge{Source: a.Source, Target: a.Target, Weight: a.Weight})
	}

	ids := make([]string, 0, len(m.Places)+len(m.Transitions))
	for id := range m.Places {
		ids = append(ids, id)
	}
	for id := range m.Transitions {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	sccs := FindSCCs(ids, edges)
	masses := ClassifyRoles(m, sccs)

	nodes := make([]*Node, 0, len(ids))
	for _, id := range ids {
		n := &Node{ID: id, Mass: masses[id]}
		if p, ok := m.Places[id]; ok {
			n.X, n.Y = p.X, p.Y
		} else if t, ok := m.Transitions[id]; ok {
			n.X, n.Y = t.X, t.Y
		}
		nodes = append(nodes, n)
	}
	return nodes, edges
}

// Arrange lays out the whole model: it builds the layout graph, seeds
// positions if the model has none, runs the force simulation, and writes
// the final coordinates back onto places and transitions. On cancellation
// the model is left untouched and the context error is returned.
func Arrange(ctx context.Context, m *model.Model, opts Options) (*Result, error) {
	nodes, edges := Graph(m)
	if len(nodes) == 0 {
		return &Result{}, nil
	}

	ids := make([]string, len(nodes))
	for i, n := range nodes {
		ids[i] = n.ID
	}
	sccs := FindSCCs(ids, edges)

	eng := NewEngine(nodes, edges, sccs, opts)
	seedPositions(nodes, eng.rng)

	res, err := eng.Run(ctx)
	if err != nil {
		return nil, err
	}

	for _, n := range nodes {
		if p, ok := m.Places[n.ID]; ok {
			p.X, p.Y = n.X, n.Y
		} else if t, ok := m.Transitions[n.ID]; ok {
			t.X, t.Y = n.X, n.Y
		}
	}
	return res, nil
}

// seedPositions scatters nodes on a circle when every position is still at
// the origin; stacked nodes would otherwise only separate through the
// minimum-distance floor.
func seedPositions(nodes []*Node, rng interface{ Float64() float64 }) {
	for _, n := range nodes {
		if n.X != 0 || n.Y != 0 {
			return
		}
	}
	const radius = 300.0
	for i, n := range nodes {
		angle := 2 * math.Pi * float64(i) / float64(len(nodes))
		r := radius * (0.5 + 0.5*rng.Float64())
		n.X = r * math.Cos(angle)
		n.Y = r * math.Sin(angle)
	}
}
