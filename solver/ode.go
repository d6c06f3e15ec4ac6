// Package solver implements explicit and implicit ODE integrators over
// map-keyed state vectors, used for the continuous-transition flow of a
// simulation step. The derivative function is supplied by the caller (the
// simulation controller evaluates rate-function expressions against the
// current marking); the solver itself is agnostic to where the state comes
// from.
package solver

import "math"

// ODEFunc computes the derivative du/dt given time t and state u. u is a
// map from state label (place id) to value (token count/concentration).
type ODEFunc func(t float64, u map[string]float64) map[string]float64

// Problem is an ODE initial value problem.
type Problem struct {
	U0          map[string]float64 // Initial state
	Tspan       [2]float64         // Time span [t0, tf]
	F           ODEFunc            // Derivative function
	stateLabels []string           // Ordered list of state variable labels
}

// NewProblem creates an initial value problem from a derivative function,
// an initial state, and a time span.
func NewProblem(f ODEFunc, u0 map[string]float64, tspan [2]float64) *Problem {
	prob := &Problem{
		U0:    u0,
		Tspan: tspan,
		F:     f,
	}
	prob.stateLabels = make([]string, 0, len(u0))
	for k := range u0 {
		prob.stateLabels = append(prob.stateLabels, k)
	}
	return prob
}

// Solution represents the solution to an ODE problem.
type Solution struct {
	T           []float64            // Time points
	U           []map[string]float64 // State at each time point
	StateLabels []string             // Ordered list of state variable labels
}

// GetVariable extracts the time series for a specific state variable.
// index can be either an int (index into StateLabels) or a string (label).
func (s *Solution) GetVariable(index interface{}) []float64 {
	var label string
	switch t := index.(type) {
	case int:
		if t < 0 || t >= len(s.StateLabels) {
			return nil
		}
		label = s.StateLabels[t]
	case string:
		label = t
	default:
		return nil
	}
	out := make([]float64, 0, len(s.U))
	for _, st := range s.U {
		out = append(out, st[label])
	}
	return out
}

// GetFinalState returns the final state of the system.
func (s *Solution) GetFinalState() map[string]float64 {
	if len(s.U) == 0 {
		return nil
	}
	return s.U[len(s.U)-1]
}

// GetState returns the state at a specific time point index.
func (s *Solution) GetState(i int) map[string]float64 {
	if i < 0 || i >= len(s.U) {
		return nil
	}
	return s.U[i]
}

// Options contains solver configuration parameters.
type Options struct {
	Dt       float64 // Initial time step
	Dtmin    float64 // Minimum time step
	Dtmax    float64 // Maximum time step
	Abstol   float64 // Absolute error tolerance
	Reltol   float64 // Relative error tolerance
	Maxiters int     // Maximum number of iterations
	Adaptive bool    // Use adaptive step size control
}

// DefaultOptions returns default solver options.
func DefaultOptions() *Options {
	return &Options{
		Dt:       0.01,
		Dtmin:    1e-6,
		Dtmax:    0.1,
		Abstol:   1e-6,
		Reltol:   1e-3,
		Maxiters: 100000,
		Adaptive: true,
	}
}

// Solver represents an ODE solver method as its Runge-Kutta tableau.
type Solver struct {
	Name  string
	Order int
	C     []float64   // Runge-Kutta nodes
	A     [][]float64 // Runge-Kutta matrix
	B     []float64   // Solution weights
	Bhat  []float64   // Error estimate weights
}

// Solve integrates the ODE problem using the given solver and options.
func Solve(prob *Problem, solver *Solver, opts *Options) *Solution {
	if solver == nil {
		solver = Tsit5()
	}
	if opts == nil {
		opts = DefaultOptions()
	}

	dtmin := opts.Dtmin
	abstol := opts.Abstol
	reltol := opts.Reltol
	maxiters := opts.Maxiters
	adaptive := opts.Adaptive

	t0 := prob.Tspan[0]
	tf := prob.Tspan[1]
	u0 := prob.U0
	f := prob.F
	stateLabels := prob.stateLabels

	t := []float64{t0}
	u := []map[string]float64{CopyState(u0)}
	tcur := t0
	ucur := CopyState(u0)
	dtcur := opts.Dt
	nsteps := 0

	for tcur < tf && nsteps < maxiters {
		// Don't overshoot the final time
		if tcur+dtcur > tf {
			dtcur = tf - tcur
		}

		unext, _, err := rkStep(solver, f, stateLabels, tcur, dtcur, ucur, adaptive, abstol, reltol)

		// Accept or reject step
		if !adaptive || err <= 1.0 || dtcur <= dtmin {
			// Accept step
			tcur += dtcur
			ucur = unext
			t = append(t, tcur)
			u = append(u, CopyState(ucur))
			nsteps++

			// Adapt step size for next iteration
			if adaptive && err > 0 {
				dtcur = adaptDt(dtcur, err, solver.Order, opts, false)
			}
		} else {
			// Reject step and reduce step size
			dtcur = adaptDt(dtcur, err, solver.Order, opts, true)
		}
	}

	return &Solution{
		T:           t,
		U:           u,
		StateLabels: stateLabels,
	}
}

// adaptDt rescales the step size from the scaled error estimate: growth
// is capped at 5x after an accepted step, shrink is floored at 0.1x after
// a rejection, and the result always stays within [Dtmin, Dtmax].
func adaptDt(dt, errEst float64, order int, opts *Options, rejected bool) float64 {
	factor := 0.9 * math.Pow(1.0/errEst, 1.0/float64(order+1))
	if rejected {
		return math.Max(opts.Dtmin, dt*math.Max(factor, 0.1))
	}
	return math.Min(opts.Dtmax, math.Max(opts.Dtmin, dt*math.Min(factor, 5.0)))
}

// rkStep advances one candidate Runge-Kutta step of width dt from
// (tcur, ucur): it evaluates the tableau's stages, combines them with the
// solution weights into the candidate next state, and, when adaptive
// stepping is on, folds the embedded estimator into a scaled error value
// (<= 1.0 means the step is acceptable). It also returns the first-stage
// derivative f(tcur, ucur), which equilibrium detection reads as the
// instantaneous rate of change. ucur is not mutated.
func rkStep(solver *Solver, f ODEFunc, stateLabels []string, tcur, dt float64, ucur map[string]float64, adaptive bool, abstol, reltol float64) (unext, du0 map[string]float64, errEst float64) {
	K := make([]map[string]float64, len(solver.C))
	K[0] = f(tcur, ucur)

	for stage := 1; stage < len(solver.C); stage++ {
		tstage := tcur + solver.C[stage]*dt
		ustage := CopyState(ucur)
		for _, key := range stateLabels {
			for j := 0; j < stage; j++ {
				aj := 0.0
				if len(solver.A) > stage && len(solver.A[stage]) > j {
					aj = solver.A[stage][j]
				}
				ustage[key] += dt * aj * K[j][key]
			}
		}
		K[stage] = f(tstage, ustage)
	}

	unext = CopyState(ucur)
	for _, key := range stateLabels {
		for j := 0; j < len(solver.B); j++ {
			unext[key] += dt * solver.B[j] * K[j][key]
		}
	}

	if adaptive {
		for _, key := range stateLabels {
			est := 0.0
			for j := 0; j < len(solver.Bhat); j++ {
				est += dt * solver.Bhat[j] * K[j][key]
			}
			scale := abstol + reltol*math.Max(math.Abs(ucur[key]), math.Abs(unext[key]))
			if scale == 0 {
				scale = abstol
			}
			if val := math.Abs(est) / scale; val > errEst {
				errEst = val
			}
		}
	}
	return unext, K[0], errEst
}

// CopyState creates a deep copy of a state map.
func CopyState(s map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}
