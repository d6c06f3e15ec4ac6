// Package layout implements the force-directed, SCC-centered layout
// engine: places and transitions are physical particles, arcs pull them
// toward an equilibrium distance, and strongly connected components act
// as gravitational centers that hub nodes orbit.
package layout

import "github.com/pflow-xyz/biopetri/model"

// Node mass classes. Mass decides force magnitudes, not physics.
const (
	MassSCCMember  = 1000.0
	MassSuperHub   = 300.0
	MassMajorHub   = 200.0
	MassMinorHub   = 100.0
	MassPlace      = 100.0
	MassTransition = 50.0
)

// Hub degree thresholds used by ClassifyRoles to distinguish super/major/
// minor hubs among non-SCC nodes, in the absence of an explicit role.
const (
	superHubDegree = 8
	majorHubDegree = 4
)

// Node is one physical particle in the simulation: a place or transition
// id carrying mass and the Velocity-Verlet state the Engine mutates.
type Node struct {
	ID   string
	Mass float64
	X, Y float64
	VX   float64
	VY   float64
}

// Edge is a layout-level arc: endpoints by node id plus a weight used
// only to compute equilibrium distance, never force magnitude.
type Edge struct {
	Source string
	Target string
	Weight int
}

// SCC is one strongly connected component found by FindSCCs.
type SCC struct {
	Members []string
	IsCycle bool // true when |Members| > 1, or a single node with a self-loop
}

// ClassifyRoles assigns a mass to every place and transition in m based on
// SCC membership and arc degree: SCC members get the black-hole mass
// regardless of degree; non-SCC nodes are classified as super/major/minor
// hub by total arc degree, falling back to the plain place/transition
// mass for low-degree nodes.
func ClassifyRoles(m *model.Model, sccs []SCC) map[string]float64 {
	inSCC := make(map[string]bool)
	for _, scc := range sccs {
		if !scc.IsCycle {
			continue
		}
		for _, id := range scc.Members {
			inSCC[id] = true
		}
	}

	degree := make(map[string]int)
	for _, a := range m.Arcs {
		degree[a.Source]++
		degree[a.Target]++
	}

	masses := make(map[string]float64, len(m.Places)+len(m.Transitions))
	for id := range m.Places {
		masses[id] = classify(id, inSCC, degree, MassPlace)
	}
	for id := range m.Transitions {
		masses[id] = classify(id, inSCC, degree, MassTransition)
	}
	return masses
}

func classify(id string, inSCC map[string]bool, degree map[string]int, base float64) float64 {
	if inSCC[id] {
		return MassSCCMember
	}
	switch {
	case degree[id] >= superHubDegree:
		return MassSuperHub
	case degree[id] >= majorHubDegree:
		return MassMajorHub
	case base == MassPlace && degree[id] >= 2:
		return MassMinorHub
	default:
		return base
	}
}
