package solver

// EquilibriumOptions configures equilibrium detection during solving: a
// run stops early once the maximum derivative magnitude is below Tolerance
// at ConsecutiveSteps checks in a row, a check being made every
// CheckInterval accepted steps after MinTime has elapsed.
type EquilibriumOptions struct {
	Tolerance        float64 // max |du/dt| still counted as "not moving"
	ConsecutiveSteps int     // how many quiet checks in a row are required
	MinTime          float64 // integration time before checking starts
	CheckInterval    int     // check every N accepted steps, 0 = every step
}

// DefaultEquilibriumOptions returns sensible defaults for equilibrium
// detection.
func DefaultEquilibriumOptions() *EquilibriumOptions {
	return &EquilibriumOptions{
		Tolerance:        1e-6,
		ConsecutiveSteps: 5,
		MinTime:          0.1,
		CheckInterval:    10,
	}
}

// EquilibriumResult reports how a SolveUntilEquilibrium run ended.
type EquilibriumResult struct {
	Reached   bool
	Time      float64            // time equilibrium was detected (or tf)
	State     map[string]float64 // state at detection (or final state)
	MaxChange float64            // max |du/dt|: at the start of the last accepted step when Reached, else at the final state
	Steps     int
	Reason    string // "equilibrium_reached" | "time_exhausted" | "max_iterations"
}

// SolveUntilEquilibrium integrates like Solve but stops early once the
// system stops moving, returning both the trajectory so far and the
// detection result. Useful for steady-state analysis where tf is just an
// upper bound.
func SolveUntilEquilibrium(prob *Problem, solver *Solver, opts *Options, eqOpts *EquilibriumOptions) (*Solution, *EquilibriumResult) {
	if solver == nil {
		solver = Tsit5()
	}
	if opts == nil {
		opts = DefaultOptions()
	}
	if eqOpts == nil {
		eqOpts = DefaultEquilibriumOptions()
	}

	t0 := prob.Tspan[0]
	tf := prob.Tspan[1]
	f := prob.F
	stateLabels := prob.stateLabels

	t := []float64{t0}
	u := []map[string]float64{CopyState(prob.U0)}
	tcur := t0
	ucur := CopyState(prob.U0)
	dtcur := opts.Dt
	nsteps := 0
	quiet := 0
	sinceCheck := 0

	eqResult := &EquilibriumResult{Reason: "time_exhausted"}

	for tcur < tf && nsteps < opts.Maxiters {
		if tcur+dtcur > tf {
			dtcur = tf - tcur
		}

		unext, du0, err := rkStep(solver, f, stateLabels, tcur, dtcur, ucur, opts.Adaptive, opts.Abstol, opts.Reltol)

		if !opts.Adaptive || err <= 1.0 || dtcur <= opts.Dtmin {
			tcur += dtcur
			ucur = unext
			t = append(t, tcur)
			u = append(u, CopyState(ucur))
			nsteps++

			sinceCheck++
			if tcur >= t0+eqOpts.MinTime && (eqOpts.CheckInterval == 0 || sinceCheck >= eqOpts.CheckInterval) {
				sinceCheck = 0
				maxChange := computeMaxChange(du0)
				if maxChange < eqOpts.Tolerance {
					quiet++
					if quiet >= eqOpts.ConsecutiveSteps {
						eqResult.Reached = true
						eqResult.Time = tcur
						eqResult.State = CopyState(ucur)
						eqResult.MaxChange = maxChange
						eqResult.Reason = "equilibrium_reached"
						break
					}
				} else {
					quiet = 0
				}
			}

			if opts.Adaptive && err > 0 {
				dtcur = adaptDt(dtcur, err, solver.Order, opts, false)
			}
		} else {
			dtcur = adaptDt(dtcur, err, solver.Order, opts, true)
		}
	}

	if nsteps >= opts.Maxiters {
		eqResult.Reason = "max_iterations"
	}
	eqResult.Steps = nsteps
	if !eqResult.Reached {
		eqResult.Time = tcur
		eqResult.State = CopyState(ucur)
		eqResult.MaxChange = computeMaxChange(f(tcur, ucur))
	}

	return &Solution{T: t, U: u, StateLabels: stateLabels}, eqResult
}

// computeMaxChange returns the maximum absolute derivative value.
func computeMaxChange(du map[string]float64) float64 {
	maxChange := 0.0
	for _, v := range du {
		if v < 0 {
			v = -v
		}
		if v > maxChange {
			maxChange = v
		}
	}
	return maxChange
}
