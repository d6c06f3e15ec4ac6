package simcontrol

import "github.com/pflow-xyz/biopetri/diagnostics"

// StepListenerHandle identifies a registered StepListener for later removal.
type StepListenerHandle int

// FiringListenerHandle identifies a registered FiringListener for later
// removal.
type FiringListenerHandle int

// AddStepListener registers l to be invoked synchronously after every Step
// and returns a handle RemoveStepListener accepts.
func (c *Controller) AddStepListener(l StepListener) StepListenerHandle {
	c.stepListeners = append(c.stepListeners, l)
	return StepListenerHandle(len(c.stepListeners) - 1)
}

// RemoveStepListener deregisters the listener returned by AddStepListener.
func (c *Controller) RemoveStepListener(h StepListenerHandle) {
	if int(h) < 0 || int(h) >= len(c.stepListeners) {
		return
	}
	c.stepListeners[h] = nil
}

// AddFiringListener registers l to be invoked synchronously whenever a
// discrete transition fires.
func (c *Controller) AddFiringListener(l FiringListener) FiringListenerHandle {
	c.firingListeners = append(c.firingListeners, l)
	return FiringListenerHandle(len(c.firingListeners) - 1)
}

// RemoveFiringListener deregisters the listener returned by AddFiringListener.
func (c *Controller) RemoveFiringListener(h FiringListenerHandle) {
	if int(h) < 0 || int(h) >= len(c.firingListeners) {
		return
	}
	c.firingListeners[h] = nil
}

// emitStep invokes every registered step listener, guarded by the
// reentrancy flag.
// Observers must not call back into the Controller: a Step called from a
// listener is rejected with ErrReentrantObserver before any state moves, and
// the outer Step then returns ErrReentrantObserver and stops with
// StoppedWithError. A nested emission is dropped and logged as a
// diagnostics.Warning.
func (c *Controller) emitStep() {
	if c.reentrant {
		c.warn(diagnostics.Lifecycle, "step listener attempted to re-enter Controller")
		c.reentrancyViolated = true
		return
	}
	c.reentrant = true
	defer func() { c.reentrant = false }()
	for _, l := range c.stepListeners {
		if l != nil {
			l(c, c.now)
		}
	}
}

func (c *Controller) emitFiring(id string, details FireDetails) {
	if c.reentrant {
		c.warn(diagnostics.Lifecycle, "firing listener attempted to re-enter Controller")
		c.reentrancyViolated = true
		return
	}
	c.reentrant = true
	defer func() { c.reentrant = false }()
	tr := c.Model.Transitions[id]
	for _, l := range c.firingListeners {
		if l != nil {
			l(tr, c.now, details)
		}
	}
}
