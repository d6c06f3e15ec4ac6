package layout

import (
	"context"
	"math/rand/v2"
	"sort"
)

// Engine runs the multi-force simulation over one set of nodes. It owns
// only scratch state; callers read the final positions off the nodes they
// passed in after Run returns successfully.
type Engine struct {
	opts Options
	rng  *rand.Rand

	nodes []*Node
	index map[string]int // node id -> slice index
	edges []Edge         // consolidated
	sccs  []SCC          // cycles only
	inSCC map[string]bool

	forces    []vec
	centroids []vec
	sccMasses []float64

	varianceHist []float64
	temperature  float64
	stabilized   bool
}

// NewEngine prepares a simulation over nodes connected by arcs, with sccs
// acting as gravitational centers. Parallel arcs are consolidated into one
// arc with the accumulated weight; non-cycle SCCs are ignored.
func NewEngine(nodes []*Node, arcs []Edge, sccs []SCC, opts Options) *Engine {
	e := &Engine{
		opts:        opts,
		rng:         opts.Rand,
		nodes:       nodes,
		index:       make(map[string]int, len(nodes)),
		edges:       ConsolidateParallelArcs(arcs),
		sccs:        CycleSCCs(sccs),
		inSCC:       make(map[string]bool),
		forces:      make([]vec, len(nodes)),
		temperature: PulsationStrength,
	}
	if e.rng == nil {
		e.rng = rand.New(rand.NewPCG(42, 42))
	}
	for i, n := range nodes {
		e.index[n.ID] = i
	}
	for _, scc := range e.sccs {
		for _, id := range scc.Members {
			e.inSCC[id] = true
		}
	}
	return e
}

// Run iterates the force simulation for the configured iteration budget.
// Every 10 iterations it samples variance, decays the annealing
// temperature, invokes the progress callback, and checks ctx; on
// cancellation the error is returned and the caller should discard the
// node positions. Once variance stabilizes the run keeps going at the
// floor temperature — dynamic equilibrium, not a freeze.
func (e *Engine) Run(ctx context.Context) (*Result, error) {
	iterations := e.opts.Iterations
	if iterations <= 0 {
		iterations = DefaultOptions().Iterations
	}

	e.varianceHist = e.varianceHist[:0]
	e.temperature = PulsationStrength
	e.stabilized = false

	iter := 0
	for ; iter < iterations; iter++ {
		if iter%convergenceSampleInterval == 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			default:
			}

			e.sampleVariance()
			if e.opts.Progress != nil {
				e.opts.Progress(iter, iterations)
			}
		}

		e.calculateForces()
		e.integrate()
	}

	var last float64
	if len(e.varianceHist) > 0 {
		last = e.varianceHist[len(e.varianceHist)-1]
	}
	return &Result{
		Iterations:  iter,
		Converged:   e.stabilized,
		Variance:    last,
		Temperature: e.temperature,
	}, nil
}

// integrate advances every node one Velocity-Verlet step with velocity
// damping.
func (e *Engine) integrate() {
	for i, n := range e.nodes {
		if n.Mass == 0 {
			continue
		}
		n.VX = (n.VX + (e.forces[i].x/n.Mass)*TimeStep) * VelocityDamping
		n.VY = (n.VY + (e.forces[i].y/n.Mass)*TimeStep) * VelocityDamping
		n.X += n.VX * TimeStep
		n.Y += n.VY * TimeStep
	}
}

// sampleVariance appends the current position variance to the rolling
// window, decays the annealing temperature, and flags stabilization when
// the window's spread drops below the threshold. Once stabilized the
// temperature is floored at a fraction of its initial strength so the
// system keeps micro-rearranging instead of freezing.
func (e *Engine) sampleVariance() {
	e.varianceHist = append(e.varianceHist, e.positionVariance())
	e.temperature *= PulsationDecay

	if len(e.varianceHist) > VarianceWindow {
		recent := e.varianceHist[len(e.varianceHist)-VarianceWindow:]
		lo, hi := recent[0], recent[0]
		var mean float64
		for _, v := range recent {
			if v < lo {
				lo = v
			}
			if v > hi {
				hi = v
			}
			mean += v
		}
		mean /= float64(len(recent))
		// Spread is judged relative to the window mean so the same
		// threshold works for nets laid out at any scale; tiny nets
		// sitting near zero variance pass on the absolute spread.
		if hi-lo < VarianceThreshold || (mean > 0 && (hi-lo)/mean < VarianceThreshold) {
			e.stabilized = true
		}
	}
	if e.stabilized {
		if floor := PulsationStrength * PulsationFloor; e.temperature < floor {
			e.temperature = floor
		}
	}
}

// positionVariance is the mean squared distance of nodes from their
// unweighted centroid.
func (e *Engine) positionVariance() float64 {
	if len(e.nodes) == 0 {
		return 0
	}
	var cx, cy float64
	for _, n := range e.nodes {
		cx += n.X
		cy += n.Y
	}
	cx /= float64(len(e.nodes))
	cy /= float64(len(e.nodes))

	var sum float64
	for _, n := range e.nodes {
		dx := n.X - cx
		dy := n.Y - cy
		sum += dx*dx + dy*dy
	}
	return sum / float64(len(e.nodes))
}

// ConsolidateParallelArcs merges arcs sharing the same (source, target)
// pair into one arc carrying the accumulated weight, so parallel arcs
// exert exactly the force a single summed arc would.
func ConsolidateParallelArcs(arcs []Edge) []Edge {
	type pair struct{ s, t string }
	sums := make(map[pair]int)
	var order []pair
	for _, a := range arcs {
		key := pair{a.Source, a.Target}
		if _, seen := sums[key]; !seen {
			order = append(order, key)
		}
		sums[key] += a.Weight
	}
	sort.Slice(order, func(i, j int) bool {
		if order[i].s != order[j].s {
			return order[i].s < order[j].s
		}
		return order[i].t < order[j].t
	})
	out := make([]Edge, 0, len(order))
	for _, key := range order {
		out = append(out, Edge{Source: key.s, Target: key.t, Weight: sums[key]})
	}
	return out
}
