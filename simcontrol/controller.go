// Package simcontrol implements the heterogeneous transition
// scheduler: it consumes an incidence.Matrix and a model.Model, drives time
// advance, exhausts immediate transitions between time steps, schedules
// stochastic/timed transitions, integrates continuous transitions over the
// current step, resolves conflicts, and emits step events to observers.
package simcontrol

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sort"
	"sync"

	"github.com/pflow-xyz/biopetri/diagnostics"
	"github.com/pflow-xyz/biopetri/incidence"
	"github.com/pflow-xyz/biopetri/model"
	"github.com/pflow-xyz/biopetri/rateexpr"
)

// Errors returned by Controller operations.
var (
	ErrReentrantObserver = errors.New("simcontrol: observer attempted to re-enter the controller")
	ErrUnknownTransition = errors.New("simcontrol: unknown transition id")
)

// RunState is the controller's user-visible run state.
type RunState int

const (
	Idle RunState = iota
	Running
	StoppedWithError
)

func (s RunState) String() string {
	switch s {
	case Running:
		return "running"
	case StoppedWithError:
		return "stopped-with-error"
	default:
		return "idle"
	}
}

// runtimeState is per-transition scheduling state, owned by the
// Controller for its own lifetime.
type runtimeState struct {
	enabledSince       float64
	hasEnabledSince    bool
	nextFire           float64
	hasNextFire        bool
	lastFire           float64
	hasLastFire        bool
	pendingAccumulator float64
}

// FireDetails carries information about one firing, passed to
// FiringListener.
type FireDetails struct {
	TransitionID string
	Class        model.Class
	Time         float64
}

// StepListener is invoked synchronously after every Step completes. It
// must not call back into the Controller.
type StepListener func(c *Controller, now float64)

// FiringListener is invoked synchronously whenever a discrete transition
// fires, in the step it fires in.
type FiringListener func(t *model.Transition, now float64, details FireDetails)

// Controller drives one model.Scope's simulation. It owns the incidence
// matrix, the current marking, and per-transition runtime state; it holds
// only a read-only reference to the underlying *model.Model; it never
// mutates model structure, only the marking.
type Controller struct {
	Model   *model.Model
	Matrix  incidence.Matrix
	Marking incidence.Marking

	now    float64
	state  RunState
	policy ConflictPolicy

	runtime map[string]*runtimeState
	guards  map[string]*rateexpr.Compiled
	rates   map[string]*rateexpr.Compiled
	cache   *incidence.Cache

	stepListeners      []StepListener
	firingListeners    []FiringListener
	reentrant          bool
	reentrancyViolated bool

	diag *diagnostics.Channel
	log  *slog.Logger
	rng  *rand.Rand

	runMu   sync.Mutex
	running bool
	cancel  context.CancelFunc
}

// Option configures a Controller constructed by New.
type Option func(*Controller)

// WithConflictPolicy overrides the default Priority policy.
func WithConflictPolicy(p ConflictPolicy) Option { return func(c *Controller) { c.policy = p } }

// WithLogger overrides the default slog.Logger (slog.Default()).
func WithLogger(l *slog.Logger) Option { return func(c *Controller) { c.log = l } }

// WithDiagnostics attaches the channel evaluation/runtime warnings are
// pushed to.
func WithDiagnostics(ch *diagnostics.Channel) Option { return func(c *Controller) { c.diag = ch } }

// WithRand overrides the PRNG used for stochastic scheduling and wiener
// noise, for deterministic-when-seeded tests.
func WithRand(r *rand.Rand) Option { return func(c *Controller) { c.rng = r } }

// WithMatrixCache attaches a lazily-rebuilding matrix cache: every Step
// re-resolves the incidence matrix through it, so structural edits to the
// model between steps (new transitions, changed arc weights) are picked
// up without the caller rebuilding anything by hand.
func WithMatrixCache(cache *incidence.Cache) Option {
	return func(c *Controller) { c.cache = cache }
}

// New builds a Controller over m using mat as its incidence matrix and
// marking as the initial token state. marking is cloned; the caller's copy
// is left untouched.
func New(m *model.Model, mat incidence.Matrix, marking incidence.Marking, opts ...Option) *Controller {
	c := &Controller{
		Model:   m,
		Matrix:  mat,
		Marking: marking.Clone(),
		policy:  PriorityPolicy{},
		runtime: make(map[string]*runtimeState),
		guards:  make(map[string]*rateexpr.Compiled),
		rates:   make(map[string]*rateexpr.Compiled),
		log:     slog.Default(),
		diag:    diagnostics.NewChannel(256),
		rng:     rand.New(rand.NewPCG(1, 1)),
	}
	for _, o := range opts {
		o(c)
	}
	for id := range m.Transitions {
		c.runtime[id] = &runtimeState{}
	}
	return c
}

// State returns the controller's current run state.
func (c *Controller) State() RunState { return c.state }

// Now returns the controller's current simulation time.
func (c *Controller) Now() float64 { return c.now }

// Diagnostics returns every warning logged so far.
func (c *Controller) Diagnostics() []diagnostics.Warning {
	if c.diag == nil {
		return nil
	}
	return c.diag.All()
}

func (c *Controller) warn(kind diagnostics.WarningKind, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if c.diag != nil {
		c.diag.Push(kind, msg)
	}
	c.log.Warn(msg)
}

// placeLookup adapts the current marking plus the model's display names to
// rateexpr.PlaceLookup, resolving a name by id first, then by display
// name.
func (c *Controller) placeLookup() rateexpr.PlaceLookup {
	return func(name string) (float64, bool) {
		if v, ok := c.Marking[name]; ok {
			return v, true
		}
		for id, p := range c.Model.Places {
			if p.Name == name {
				return c.Marking[id], true
			}
		}
		return 0, false
	}
}

// exprContext builds the evaluation environment for t's guard or rate
// function: current time, place lookups, t's parameter block, and the
// controller's PRNG for wiener noise.
func (c *Controller) exprContext(t *model.Transition) *rateexpr.Context {
	ctx := &rateexpr.Context{Time: c.now, Places: c.placeLookup(), Rand: c.rng}
	if t != nil {
		ctx.Parameters = t.Parameters
	}
	return ctx
}

// compiledGuard returns t's cached compiled guard, compiling and caching it
// on first use.
func (c *Controller) compiledGuard(t *model.Transition) (*rateexpr.Compiled, error) {
	if t.Guard == "" {
		return nil, nil
	}
	if g, ok := c.guards[t.ID]; ok {
		return g, nil
	}
	g, err := rateexpr.Compile(t.Guard)
	if err != nil {
		return nil, err
	}
	c.guards[t.ID] = g
	return g, nil
}

// compiledRate returns t's cached compiled rate function.
func (c *Controller) compiledRate(t *model.Transition) (*rateexpr.Compiled, error) {
	if t.RateFunction == "" {
		return nil, nil
	}
	if r, ok := c.rates[t.ID]; ok {
		return r, nil
	}
	r, err := rateexpr.Compile(t.RateFunction)
	if err != nil {
		return nil, err
	}
	c.rates[t.ID] = r
	return r, nil
}

// guardAllows reports whether t's guard evaluates true (non-zero) in the
// current context. A missing guard always allows; a compile/eval failure
// disables the transition and logs a diagnostics.Warning.
func (c *Controller) guardAllows(t *model.Transition) bool {
	g, err := c.compiledGuard(t)
	if err != nil {
		c.warn(diagnostics.Evaluation, "guard compile error for %s: %v", t.ID, err)
		return false
	}
	if g == nil {
		return true
	}
	v, err := g.Eval(c.exprContext(t))
	if err != nil {
		c.warn(diagnostics.Evaluation, "guard eval error for %s: %v", t.ID, err)
		return false
	}
	return v != 0
}

// inhibited reports whether any inhibitor arc gating t is active: place
// tokens >= the arc's weight disables t, evaluated outside F- itself.
func (c *Controller) inhibited(t *model.Transition) bool {
	for _, a := range c.Model.InhibitorArcs(t.ID) {
		if c.Marking[a.Source] >= float64(a.Weight) {
			return true
		}
	}
	return false
}

// isEnabled combines the base matrix test with guards and inhibitor
// arcs.
func (c *Controller) isEnabled(t *model.Transition) bool {
	return c.Matrix.IsEnabled(t.ID, c.Marking) && c.guardAllows(t) && !c.inhibited(t)
}

// transitionIDsOfClass returns transition ids of the given class, in
// stable id order.
func (c *Controller) transitionIDsOfClass(class model.Class) []string {
	var ids []string
	for id, t := range c.Model.Transitions {
		if t.Class == class {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

func (c *Controller) enabledOfClass(class model.Class) []string {
	var ids []string
	for _, id := range c.transitionIDsOfClass(class) {
		if c.isEnabled(c.Model.Transitions[id]) {
			ids = append(ids, id)
		}
	}
	return ids
}
