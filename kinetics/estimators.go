package kinetics

import (
	"fmt"
	"math"

	"github.com/pflow-xyz/biopetri/model"
	"github.com/pflow-xyz/biopetri/rateexpr"
)

// estimatorKind is the heuristic tier's classification of a reaction.
type estimatorKind int

const (
	kindMichaelisMentenEnzyme estimatorKind = iota
	kindMassAction
	kindMichaelisMentenSequential
	kindMichaelisMentenDefault
)

// classify implements tier 3's decision tree:
//
//	has EC annotation or explicit enzyme          -> Michaelis-Menten, medium
//	simple stoichiometry (<=2 substrates, coeffs<=2, no enzyme) -> mass action, low
//	multiple substrates                           -> Michaelis-Menten (sequential), low
//	otherwise                                     -> Michaelis-Menten with defaults, low
func classify(r *Reaction) (kind estimatorKind, rule string, confidence model.Confidence) {
	switch {
	case r.hasEnzyme():
		return kindMichaelisMentenEnzyme, "enzyme-annotated", model.ConfidenceMedium
	case len(r.Substrates) <= 2 && r.allCoefficientsAtMost(2) && !r.hasEnzyme():
		return kindMassAction, "simple-stoichiometry", model.ConfidenceLow
	case len(r.Substrates) > 1:
		return kindMichaelisMentenSequential, "multi-substrate-sequential", model.ConfidenceLow
	default:
		return kindMichaelisMentenDefault, "default-michaelis-menten", model.ConfidenceLow
	}
}

// Estimator computes a parameter block and a rate-function string for one
// heuristic kind.
type Estimator interface {
	EstimateParameters(r *Reaction, m *model.Model) map[string]float64
	BuildRateFunction(t *model.Transition, r *Reaction, m *model.Model, params map[string]float64) string
	Class() model.Class
}

// EstimatorFactory selects the Estimator for a classified reaction kind,
// one concrete estimator per heuristic kind.
type EstimatorFactory struct{}

// Create returns the Estimator for kind.
func (EstimatorFactory) Create(kind estimatorKind) Estimator {
	switch kind {
	case kindMassAction:
		return massActionEstimator{}
	default:
		return michaelisMentenEstimator{}
	}
}

// massActionEstimator estimates k = 1/substrate-count, mapped
// {1: 1.0, 2: 0.1, 3+: 0.01}.
type massActionEstimator struct{}

func (massActionEstimator) Class() model.Class { return model.Stochastic }

func (massActionEstimator) EstimateParameters(r *Reaction, m *model.Model) map[string]float64 {
	n := len(r.Substrates)
	if n == 0 {
		n = 1
	}
	var k float64
	switch {
	case n == 1:
		k = 1.0
	case n == 2:
		k = 0.1
	default:
		k = 0.01
	}
	return map[string]float64{"k": k}
}

func (massActionEstimator) BuildRateFunction(t *model.Transition, r *Reaction, m *model.Model, params map[string]float64) string {
	// Mass-action transitions are stochastic: Rate carries k directly and
	// no rate-function string is needed.
	return ""
}

// michaelisMentenEstimator estimates Vmax = 10*maxProductStoichiometry
// (scaled 0.8 if reversible) and Km = mean(substrate tokens)/2 floored at
// 0.5.
type michaelisMentenEstimator struct{}

func (michaelisMentenEstimator) Class() model.Class { return model.Continuous }

func (michaelisMentenEstimator) EstimateParameters(r *Reaction, m *model.Model) map[string]float64 {
	vmax := 10.0 * float64(r.maxProductStoichiometry())
	if r.Reversible {
		vmax *= 0.8
	}
	tokens := r.substrateTokens(m)
	km := 0.5
	if len(tokens) > 0 {
		sum := 0.0
		for _, v := range tokens {
			sum += v
		}
		km = math.Max(sum/float64(len(tokens))/2, 0.5)
	}
	return map[string]float64{"vmax": vmax, "km": km}
}

func (michaelisMentenEstimator) BuildRateFunction(t *model.Transition, r *Reaction, m *model.Model, params map[string]float64) string {
	substrate := singleSubstratePlace(r, t, m)
	if substrate == "" {
		// No substrate to name; fall back to the constant-rate form.
		return defaultRateFunction(params)
	}
	call := &rateexpr.Call{
		Func: "michaelis_menten",
		Args: []rateexpr.Arg{
			{Value: &rateexpr.Ident{Name: substrate}},
			{Name: "vmax", Value: &rateexpr.NumberLit{Value: params["vmax"]}},
			{Name: "km", Value: &rateexpr.NumberLit{Value: params["km"]}},
		},
	}
	return call.String()
}

// defaultRateFunction builds tier 4's fallback: continuous with
// Vmax=10, Km=5, no named substrate (the expression references a literal
// constant rate since no reaction metadata identifies one).
func defaultRateFunction(params map[string]float64) string {
	return fmt.Sprintf("michaelis_menten(1, vmax=%s, km=%s)",
		formatFloat(params["vmax"]), formatFloat(params["km"]))
}

func formatFloat(v float64) string {
	n := &rateexpr.NumberLit{Value: v}
	return n.String()
}
