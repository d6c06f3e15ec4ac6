package kinetics

import (
	"context"
	"log/slog"

	"github.com/pflow-xyz/biopetri/diagnostics"
	"github.com/pflow-xyz/biopetri/model"
)

// AssignOptions are the per-call knobs for the assigner:
// offline mode skips the remote database tier, and the noise wrapper is
// opt-in with a configurable amplitude.
type AssignOptions struct {
	OfflineMode        bool
	AddStochasticNoise bool
	NoiseAmplitude     float64
}

// Assigner implements the four-tier assignment strategy. It never fails
// for an unassignable transition: the Default tier always succeeds, so
// Assign returns only the resulting provenance record and no error.
type Assigner struct {
	db      *Database
	diag    *diagnostics.Channel
	log     *slog.Logger
	factory EstimatorFactory
}

// Option configures an Assigner constructor.
type Option func(*Assigner)

// WithDatabase attaches the three-tier enzyme lookup used by tier 2.
func WithDatabase(db *Database) Option { return func(a *Assigner) { a.db = db } }

// WithDiagnostics attaches the channel tier-fallthrough and I/O warnings
// are pushed to.
func WithDiagnostics(ch *diagnostics.Channel) Option { return func(a *Assigner) { a.diag = ch } }

// WithLogger overrides the default slog.Logger (slog.Default()).
func WithLogger(l *slog.Logger) Option { return func(a *Assigner) { a.log = l } }

// NewAssigner returns an Assigner ready for Assign calls.
func NewAssigner(opts ...Option) *Assigner {
	a := &Assigner{log: slog.Default(), diag: diagnostics.NewChannel(256)}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Diagnostics returns every warning this Assigner has logged so far.
func (a *Assigner) Diagnostics() []diagnostics.Warning {
	if a.diag == nil {
		return nil
	}
	return a.diag.All()
}

func (a *Assigner) warn(kind diagnostics.WarningKind, msg string) {
	if a.diag != nil {
		a.diag.Push(kind, msg)
	}
}

// Assign decorates t with a rate law selected by the strict tiered order
// of: explicit -> database -> heuristic -> default. If t
// already carries a provenance that model.ShouldEnhance reports as
// preserved (explicit, user, or high-confidence database), Assign is a
// no-op and returns the existing provenance unchanged.
func (a *Assigner) Assign(ctx context.Context, t *model.Transition, r *Reaction, m *model.Model, opts AssignOptions) *model.Provenance {
	if !model.ShouldEnhance(t) {
		return t.Kinetics
	}

	prov := &model.Provenance{}
	model.SaveOriginal(t, prov)

	switch {
	case r != nil && r.KineticLaw != nil:
		a.assignExplicit(t, r, prov)
	case r != nil && r.ECNumber != "" && a.db != nil:
		if !a.assignFromDatabase(ctx, t, r, m, opts, prov) {
			a.assignHeuristic(t, r, m, prov)
		}
	case r != nil:
		a.assignHeuristic(t, r, m, prov)
	default:
		a.assignDefault(t, prov)
	}

	if opts.AddStochasticNoise && t.RateFunction != "" {
		t.RateFunction = Noise{}.Wrap(t.RateFunction, opts.NoiseAmplitude, true)
	}

	t.Kinetics = prov
	return prov
}

func (a *Assigner) assignExplicit(t *model.Transition, r *Reaction, prov *model.Provenance) {
	law := r.KineticLaw
	switch law.Kind {
	case MassAction:
		t.Class = model.Stochastic
		t.Rate = law.Parameters["k"]
		t.RateFunction = ""
	case MichaelisMenten:
		t.Class = model.Continuous
		t.Parameters = law.Parameters
		t.RateFunction = michaelisMentenEstimator{}.BuildRateFunction(t, r, nil, law.Parameters)
	}
	prov.Source = model.SourceExplicit
	prov.Confidence = model.ConfidenceHigh
	if r.hasEnzyme() {
		prov.Enzyme = &model.EnzymeMeta{ECNumber: r.ECNumber, EnzymeName: r.EnzymeName}
	}
}

// assignFromDatabase returns false when every database tier fails, signaling
// the caller to fall through to the heuristic tier.
func (a *Assigner) assignFromDatabase(ctx context.Context, t *model.Transition, r *Reaction, m *model.Model, opts AssignOptions, prov *model.Provenance) bool {
	entry, err := a.db.Lookup(ctx, r.ECNumber, opts.OfflineMode)
	if err != nil {
		a.warn(diagnostics.Lifecycle, "kinetics: database tier exhausted for EC "+r.ECNumber+": "+err.Error())
		a.log.Info("kinetics tier fallthrough", "ec", r.ECNumber, "reason", err.Error())
		return false
	}
	switch entry.Kind {
	case MassAction:
		t.Class = model.Stochastic
		t.Rate = entry.K
		t.RateFunction = ""
	case MichaelisMenten:
		t.Class = model.Continuous
		params := map[string]float64{"vmax": entry.Vmax, "km": entry.Km}
		t.Parameters = params
		t.RateFunction = michaelisMentenEstimator{}.BuildRateFunction(t, r, m, params)
	}
	prov.Source = model.SourceDatabase
	if entry.Estimated {
		prov.Confidence = model.ConfidenceMedium
	} else {
		prov.Confidence = model.ConfidenceHigh
	}
	prov.Enzyme = &model.EnzymeMeta{ECNumber: r.ECNumber, EnzymeName: r.EnzymeName, Origin: entry.Origin, Estimated: entry.Estimated}
	return true
}

func (a *Assigner) assignHeuristic(t *model.Transition, r *Reaction, m *model.Model, prov *model.Provenance) {
	kind, rule, confidence := classify(r)
	est := a.factory.Create(kind)
	params := est.EstimateParameters(r, m)
	t.Class = est.Class()
	t.Parameters = params
	if t.Class == model.Stochastic {
		t.Rate = params["k"]
		t.RateFunction = ""
	} else {
		t.RateFunction = est.BuildRateFunction(t, r, m, params)
	}
	prov.Source = model.SourceHeuristic
	prov.Confidence = confidence
	prov.Rule = rule
	if r.hasEnzyme() {
		prov.Enzyme = &model.EnzymeMeta{ECNumber: r.ECNumber, EnzymeName: r.EnzymeName}
	}
}

func (a *Assigner) assignDefault(t *model.Transition, prov *model.Provenance) {
	t.Class = model.Continuous
	params := map[string]float64{"vmax": 10, "km": 5}
	t.Parameters = params
	t.RateFunction = defaultRateFunction(params)
	prov.Source = model.SourceDefault
	prov.Confidence = model.ConfidenceLow
}
