package layout

import "math"

// vec is a 2D force or position accumulator.
type vec struct {
	x, y float64
}

func (v vec) norm() float64 { return math.Sqrt(v.x*v.x + v.y*v.y) }

// calculateForces computes the total force on every node for one iteration,
// combining arc oscillation, proximity repulsion, hub-group repulsion, SCC
// cohesion, SCC gravity with the whirlwind term, and pulsation noise.
func (e *Engine) calculateForces() {
	for i := range e.forces {
		e.forces[i] = vec{}
	}
	e.refreshCentroids()

	if e.opts.EnableOscillatory {
		e.oscillatoryForces()
	}
	if e.opts.EnableProximity {
		e.proximityRepulsion()
		e.hubGroupRepulsion()
		e.sccCohesion()
	}
	e.sccGravity()
	if e.opts.PulsationEnabled {
		e.pulsationForces()
	}

	// Per-node clamp keeps one overloaded node from destabilizing the
	// whole integration step.
	for i := range e.forces {
		if mag := e.forces[i].norm(); mag > MaxForce {
			scale := MaxForce / mag
			e.forces[i].x *= scale
			e.forces[i].y *= scale
		}
	}
}

// refreshCentroids recomputes each cycle SCC's mass-weighted centroid and
// total mass for this iteration.
func (e *Engine) refreshCentroids() {
	e.centroids = e.centroids[:0]
	e.sccMasses = e.sccMasses[:0]
	for _, scc := range e.sccs {
		var total, wx, wy float64
		for _, id := range scc.Members {
			i, ok := e.index[id]
			if !ok {
				continue
			}
			n := e.nodes[i]
			total += n.Mass
			wx += n.Mass * n.X
			wy += n.Mass * n.Y
		}
		if total == 0 {
			e.centroids = append(e.centroids, vec{})
			e.sccMasses = append(e.sccMasses, 0)
			continue
		}
		e.centroids = append(e.centroids, vec{wx / total, wy / total})
		e.sccMasses = append(e.sccMasses, total)
	}
}

// equilibriumDistance computes an arc's rest length from the endpoint
// masses and the arc weight: heavier pairs sit farther apart, heavier
// weights pull closer. A small random factor keeps satellites from
// stacking at identical radii.
func (e *Engine) equilibriumDistance(m1, m2 float64, weight int) float64 {
	massFactor := math.Pow(m1+m2, MassExponent)
	weightFactor := math.Pow(float64(weight), ArcWeightExponent)
	jitter := 0.8 + 0.4*e.rng.Float64()
	return EquilibriumScale * massFactor * weightFactor * jitter
}

// oscillatoryForce is attractive (inverse-square) beyond the equilibrium
// distance and a linear spring repulsion inside it. Arc weight affects
// only the equilibrium distance, never the force magnitude.
func oscillatoryForce(distance, req, m1, m2 float64) float64 {
	if distance > req {
		return (GravityConstant * m1 * m2) / (distance * distance)
	}
	return -SpringConstant * (req - distance)
}

// oscillatoryForces applies the arc force to every consolidated arc.
// Arcs connecting an SCC member to a hub are attenuated so hubs settle
// farther out; arcs from an SCC member to a low-mass place keep full
// strength so places can orbit the cycle closely.
func (e *Engine) oscillatoryForces() {
	for _, edge := range e.edges {
		si, ok1 := e.index[edge.Source]
		ti, ok2 := e.index[edge.Target]
		if !ok1 || !ok2 {
			continue
		}
		src, dst := e.nodes[si], e.nodes[ti]

		dx := dst.X - src.X
		dy := dst.Y - src.Y
		distance := math.Sqrt(dx*dx + dy*dy)
		if distance < MinDistance {
			distance = MinDistance
		}

		strength := 1.0
		if srcIn, dstIn := e.inSCC[edge.Source], e.inSCC[edge.Target]; srcIn || dstIn {
			otherMass := dst.Mass
			if dstIn {
				otherMass = src.Mass
			}
			if otherMass >= HubMassThreshold {
				strength = SCCArcWeakeningFactor
			}
		}

		req := e.equilibriumDistance(src.Mass, dst.Mass, edge.Weight)
		mag := oscillatoryForce(distance, req, src.Mass, dst.Mass) * strength

		fx := (dx / distance) * mag
		fy := (dy / distance) * mag
		e.forces[si].x += fx
		e.forces[si].y += fy
		e.forces[ti].x -= fx
		e.forces[ti].y -= fy
	}
}

// dampingField reduces repulsion near SCC centroids: the average of the
// two nodes' distances to the nearest centroid, mapped through a parabola
// from 0.1 at the center to 1.0 at DampingFieldMaxDistance and beyond.
func (e *Engine) dampingField(a, b *Node) float64 {
	if len(e.centroids) == 0 {
		return 1.0
	}
	avg := (e.nearestCentroidDistance(a) + e.nearestCentroidDistance(b)) / 2
	if avg >= DampingFieldMaxDistance {
		return 1.0
	}
	ratio := avg / DampingFieldMaxDistance
	return DampingFieldMin + (1.0-DampingFieldMin)*ratio*ratio
}

func (e *Engine) nearestCentroidDistance(n *Node) float64 {
	best := math.MaxFloat64
	for _, c := range e.centroids {
		dx := n.X - c.x
		dy := n.Y - c.y
		if d := math.Sqrt(dx*dx + dy*dy); d < best {
			best = d
		}
	}
	return best
}

// proximityRepulsion pushes every pair of nodes apart: a universal weak
// ambient-spacing term for all pairs (gated by EnableAmbient), plus a
// Coulomb-like term when both nodes are hubs. Both terms are damped near
// SCC centroids so the cycle packs tightly.
func (e *Engine) proximityRepulsion() {
	for i := range e.nodes {
		for j := i + 1; j < len(e.nodes); j++ {
			a, b := e.nodes[i], e.nodes[j]
			dx := b.X - a.X
			dy := b.Y - a.Y
			distance := math.Sqrt(dx*dx + dy*dy)
			if distance < MinDistance {
				distance = MinDistance
			}

			base := 0.0
			if e.opts.EnableAmbient {
				base = (AmbientConstant * UniversalRepulsionMultiplier) / (distance * distance)
			}
			extra := 0.0
			if a.Mass >= HubMassThreshold && b.Mass >= HubMassThreshold {
				extra = (ProximityConstant * a.Mass * b.Mass) / (distance * distance)
			}
			mag := (base + extra) * e.dampingField(a, b)

			fx := -(dx / distance) * mag
			fy := -(dy / distance) * mag
			e.forces[i].x += fx
			e.forces[i].y += fy
			e.forces[j].x -= fx
			e.forces[j].y -= fy
		}
	}
}

// hubGroup is a hub plus every low-mass node directly connected to it.
type hubGroup struct {
	members []int // node indexes, hub first
	center  vec
	mass    float64
}

// hubGroups builds one aggregate per hub from the consolidated arc list.
func (e *Engine) hubGroups() []hubGroup {
	var groups []hubGroup
	for i, n := range e.nodes {
		if n.Mass < HubMassThreshold {
			continue
		}
		members := []int{i}
		seen := map[int]bool{i: true}
		for _, edge := range e.edges {
			var otherID string
			switch n.ID {
			case edge.Source:
				otherID = edge.Target
			case edge.Target:
				otherID = edge.Source
			default:
				continue
			}
			j, ok := e.index[otherID]
			if !ok || seen[j] || e.nodes[j].Mass >= HubMassThreshold {
				continue
			}
			seen[j] = true
			members = append(members, j)
		}

		var total, wx, wy float64
		for _, j := range members {
			m := e.nodes[j]
			total += m.Mass
			wx += m.Mass * m.X
			wy += m.Mass * m.Y
		}
		if total == 0 {
			continue
		}
		groups = append(groups, hubGroup{
			members: members,
			center:  vec{wx / total, wy / total},
			mass:    total,
		})
	}
	return groups
}

// hubGroupRepulsion treats each hub with its satellites as one aggregate
// mass and repels aggregate centers, distributing the force across group
// members proportional to their mass.
func (e *Engine) hubGroupRepulsion() {
	groups := e.hubGroups()
	if len(groups) < 2 {
		return
	}
	for gi := range groups {
		for gj := gi + 1; gj < len(groups); gj++ {
			g1, g2 := &groups[gi], &groups[gj]
			dx := g2.center.x - g1.center.x
			dy := g2.center.y - g1.center.y
			distance := math.Sqrt(dx*dx + dy*dy)
			if distance < MinDistance {
				distance = MinDistance
			}

			raw := (HubGroupConstant * g1.mass * g2.mass) / (distance * distance)
			mag := raw * e.dampingField(e.nodes[g1.members[0]], e.nodes[g2.members[0]])

			fx := -(dx / distance) * mag
			fy := -(dy / distance) * mag
			for _, j := range g1.members {
				frac := e.nodes[j].Mass / g1.mass
				e.forces[j].x += fx * frac
				e.forces[j].y += fy * frac
			}
			for _, j := range g2.members {
				frac := e.nodes[j].Mass / g2.mass
				e.forces[j].x -= fx * frac
				e.forces[j].y -= fy * frac
			}
		}
	}
}

// sccCohesion pulls each cycle's members toward its centroid with a spring
// that engages only beyond the target radius, keeping the cycle a compact
// ring rather than a point.
func (e *Engine) sccCohesion() {
	for si, scc := range e.sccs {
		if len(scc.Members) < 2 {
			continue
		}
		centroid := e.centroids[si]
		for _, id := range scc.Members {
			i, ok := e.index[id]
			if !ok {
				continue
			}
			n := e.nodes[i]
			dx := centroid.x - n.X
			dy := centroid.y - n.Y
			distance := math.Sqrt(dx*dx + dy*dy)
			if distance < MinDistance {
				continue
			}
			displacement := distance - SCCTargetRadius
			if displacement < 0 {
				displacement = 0
			}
			mag := SCCCohesionStrength * displacement
			e.forces[i].x += (dx / distance) * mag
			e.forces[i].y += (dy / distance) * mag
		}
	}
}

// sccGravity attracts hub-class nodes toward each cycle centroid with a
// Newton-like law over the cycle's total mass, and adds the whirlwind
// tangential component that turns radial infall into spiral orbits.
func (e *Engine) sccGravity() {
	for si := range e.sccs {
		centroid := e.centroids[si]
		sccMass := e.sccMasses[si]
		if sccMass == 0 {
			continue
		}
		for i, n := range e.nodes {
			if e.inSCC[n.ID] || n.Mass < SCCGravityMinMass {
				continue
			}
			dx := centroid.x - n.X
			dy := centroid.y - n.Y
			distance := math.Sqrt(dx*dx + dy*dy)
			if distance < MinDistance {
				continue
			}

			mag := (SCCGravityConstant * n.Mass * sccMass) / (distance * distance)
			fx := (dx / distance) * mag
			fy := (dy / distance) * mag

			if e.opts.WhirlwindEnabled {
				// Bell-curved tangential force, strongest at medium
				// radii where orbits form, fading both at the center
				// and past the damping-field horizon.
				ratio := distance / DampingFieldMaxDistance
				if ratio > 1.0 {
					ratio = 1.0
				}
				intensity := 4.0 * ratio * (1.0 - ratio)
				tangential := SCCWhirlwindStrength * n.Mass * intensity
				fx += (-dy / distance) * tangential * e.opts.WhirlwindDirection
				fy += (dx / distance) * tangential * e.opts.WhirlwindDirection
			}

			e.forces[i].x += fx
			e.forces[i].y += fy
		}
	}
}

// pulsationForces injects Gaussian noise scaled by the current annealing
// temperature and by sqrt(mass), so heavy nodes jitter less. Without a
// cycle there is no singularity to pulse.
func (e *Engine) pulsationForces() {
	if len(e.sccs) == 0 {
		return
	}
	for i, n := range e.nodes {
		scale := e.temperature * math.Sqrt(n.Mass)
		e.forces[i].x += e.rng.NormFloat64() * scale
		e.forces[i].y += e.rng.NormFloat64() * scale
	}
}
