package simcontrol

import (
	"github.com/pflow-xyz/biopetri/diagnostics"
	"github.com/pflow-xyz/biopetri/model"
)

// Step advances the simulation by up to dt, running five sub-phases in
// order: immediate exhaustion, scheduling, discrete
// advancement (which loops back to exhaustion on every discrete firing),
// continuous integration over the sub-interval actually advanced, and a
// synchronous step-event emission.
func (c *Controller) Step(dt float64) error {
	if c.reentrant {
		// An observer is calling back into the controller mid-emission.
		// Reject before any state moves; the outer Step reports the
		// violation once emission finishes.
		c.reentrancyViolated = true
		return ErrReentrantObserver
	}
	if err := c.refreshMatrix(); err != nil {
		c.state = StoppedWithError
		return err
	}
	c.state = Running
	c.exhaustImmediate()
	c.reschedule()

	c.advanceDiscrete(dt)

	c.emitStep()
	if c.reentrancyViolated {
		c.reentrancyViolated = false
		c.state = StoppedWithError
		return ErrReentrantObserver
	}
	c.state = Idle
	return nil
}

// refreshMatrix re-resolves the incidence matrix through the attached
// cache, picking up structural edits made to the model since the last
// step. A structural error (bipartite violation introduced by an edit) is
// returned to the caller and stops the run. Controllers built without a
// cache keep their fixed matrix.
func (c *Controller) refreshMatrix() error {
	if c.cache == nil {
		return nil
	}
	mat, err := c.cache.Matrix(c.Model)
	if err != nil {
		return err
	}
	c.Matrix = mat
	for id := range c.Model.Transitions {
		if _, ok := c.runtime[id]; !ok {
			c.runtime[id] = &runtimeState{}
		}
	}
	return nil
}

// exhaustImmediate repeatedly fires an enabled immediate transition chosen
// by the conflict policy until none remain enabled.
// Time does not advance.
func (c *Controller) exhaustImmediate() {
	for {
		enabled := c.enabledOfClass(model.Immediate)
		if len(enabled) == 0 {
			return
		}
		id := c.policy.Choose(enabled, c.Model.Transitions, c.rng)
		c.fire(id)
	}
}

// fire applies t's incidence row to the marking, records last-fire time,
// and emits a firing event. It is the sole place Matrix.Fire is called
// from, so every firing is observable.
func (c *Controller) fire(id string) {
	out, err := c.Matrix.Fire(id, c.Marking)
	if err != nil {
		// Firing an un-enabled transition is a Runtime error: it aborts
		// only this firing, never the step or the simulation.
		c.warn(diagnostics.Runtime, "fire %s: %v", id, err)
		return
	}
	c.Marking = out
	rs := c.runtime[id]
	rs.lastFire, rs.hasLastFire = c.now, true
	rs.hasEnabledSince = false
	rs.hasNextFire = false

	tr := c.Model.Transitions[id]
	c.emitFiring(id, FireDetails{TransitionID: id, Class: tr.Class, Time: c.now})
}

// reschedule draws next-fire times for stochastic/timed transitions newly
// enabled this step and invalidates schedules for transitions no longer
// enabled.
func (c *Controller) reschedule() {
	for _, class := range []model.Class{model.Stochastic, model.Timed} {
		for _, id := range c.transitionIDsOfClass(class) {
			t := c.Model.Transitions[id]
			rs := c.runtime[id]
			enabled := c.isEnabled(t)

			switch {
			case enabled && !rs.hasEnabledSince:
				rs.enabledSince, rs.hasEnabledSince = c.now, true
				rs.nextFire, rs.hasNextFire = c.scheduleFireTime(t), true
			case !enabled && rs.hasEnabledSince:
				rs.hasEnabledSince = false
				rs.hasNextFire = false
			}
		}
	}
}

func (c *Controller) scheduleFireTime(t *model.Transition) float64 {
	switch t.Class {
	case model.Stochastic:
		lambda := t.Rate
		if rf, err := c.compiledRate(t); err == nil && rf != nil {
			if v, err := rf.Eval(c.exprContext(t)); err == nil {
				lambda = v
			}
		}
		if lambda <= 0 {
			return c.now // degenerate rate; treat as immediately due, avoids a stuck schedule
		}
		// Exp(1) sample from c.rng rescaled by 1/lambda, rather than the
		// package-level source, so stochastic scheduling is
		// deterministic-when-seeded.
		return c.now + c.rng.ExpFloat64()/lambda
	case model.Timed:
		return c.now + t.Rate
	default:
		return c.now
	}
}

// advanceDiscrete finds the earliest scheduled stochastic/timed fire time.
// If it falls within [now, now+dt], continuous transitions are integrated
// up to that point, time jumps to it, the transition fires (ties broken by
// the conflict policy), and exhaustImmediate/reschedule run again before
// the next iteration. When no firing falls within the window, continuous
// transitions integrate over the full width and time advances to now+dt; a
// step that did fire ends at its last firing time instead, so observers
// see the marking exactly as the firing left it.
func (c *Controller) advanceDiscrete(dt float64) {
	deadline := c.now + dt
	fired := false
	for {
		id, when, ok := c.earliestScheduled()
		if !ok || when > deadline {
			if !fired {
				c.integrateContinuous(deadline - c.now)
				c.now = deadline
			}
			return
		}
		c.integrateContinuous(when - c.now)
		c.now = when
		c.fire(id)
		fired = true
		c.exhaustImmediate()
		c.reschedule()
	}
}

// earliestScheduled returns the transition with the smallest next-fire
// time among stochastic/timed transitions with an active schedule, with
// ties broken by the conflict policy.
func (c *Controller) earliestScheduled() (id string, when float64, ok bool) {
	best := 0.0
	var tie []string
	for _, class := range []model.Class{model.Stochastic, model.Timed} {
		for _, tid := range c.transitionIDsOfClass(class) {
			rs := c.runtime[tid]
			if !rs.hasNextFire {
				continue
			}
			switch {
			case !ok || rs.nextFire < best:
				best = rs.nextFire
				tie = []string{tid}
				ok = true
			case rs.nextFire == best:
				tie = append(tie, tid)
			}
		}
	}
	if !ok {
		return "", 0, false
	}
	if len(tie) == 1 {
		return tie[0], best, true
	}
	return c.policy.Choose(tie, c.Model.Transitions, c.rng), best, true
}
