package simcontrol

import (
	"github.com/pflow-xyz/biopetri/diagnostics"
	"github.com/pflow-xyz/biopetri/incidence"
	"github.com/pflow-xyz/biopetri/model"
	"github.com/pflow-xyz/biopetri/rateexpr"
	"github.com/pflow-xyz/biopetri/solver"
)

// integrateContinuous advances every continuous transition's contribution
// to the marking over the sub-interval [now, now+span]: each transition's
// rate function is evaluated against the evolving state and its rate times
// the incidence row accumulates into the derivative, which solver.Solve
// integrates with the Tsit5 tableau. The caller advances c.now to now+span
// separately once this returns.
func (c *Controller) integrateContinuous(span float64) {
	if span <= 0 {
		return
	}
	ids := c.transitionIDsOfClass(model.Continuous)
	if len(ids) == 0 {
		return
	}

	prob := solver.NewProblem(
		func(t float64, u map[string]float64) map[string]float64 {
			return c.continuousDerivative(t, incidence.Marking(u), ids)
		},
		map[string]float64(c.Marking.Clone()),
		[2]float64{c.now, c.now + span},
	)
	opts := solver.DefaultOptions()
	opts.Dt = span
	opts.Dtmax = span
	sol := solver.Solve(prob, solver.Tsit5(), opts)

	next := incidence.Marking(sol.GetFinalState())
	for key, v := range next {
		if v < 0 {
			next[key] = 0 // token counts never go negative
		}
	}
	c.Marking = next
}

// continuousDerivative evaluates every continuous transition's rate
// function at state u and accumulates rate * incidence-row into du, mass
// action/Michaelis-Menten style.
func (c *Controller) continuousDerivative(t float64, u incidence.Marking, ids []string) map[string]float64 {
	du := make(map[string]float64, len(u))
	for k := range u {
		du[k] = 0
	}

	lookup := func(name string) (float64, bool) {
		if v, ok := u[name]; ok {
			return v, true
		}
		for id, p := range c.Model.Places {
			if p.Name == name {
				v, ok := u[id]
				return v, ok
			}
		}
		return 0, false
	}
	for _, id := range ids {
		tr := c.Model.Transitions[id]
		ctx := &rateexpr.Context{Time: t, Places: lookup, Parameters: tr.Parameters, Rand: c.rng}
		rf, err := c.compiledRate(tr)
		if err != nil {
			c.warn(diagnostics.Evaluation, "continuous rate compile error for %s: %v", id, err)
			continue
		}
		var rate float64
		if rf != nil {
			v, err := rf.Eval(ctx)
			if err != nil {
				c.warn(diagnostics.Evaluation, "continuous rate eval error for %s: %v", id, err)
				continue
			}
			rate = v
		} else {
			rate = tr.Rate
		}
		if rate == 0 {
			continue
		}
		for _, a := range c.Model.InputArcs(id) {
			du[a.Source] -= rate * float64(a.Weight)
		}
		for _, a := range c.Model.OutputArcs(id) {
			du[a.Target] += rate * float64(a.Weight)
		}
	}
	return du
}
