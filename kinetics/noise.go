package kinetics

import "github.com/pflow-xyz/biopetri/rateexpr"

// Noise gates the optional stochastic-noise wrapper behind
// AssignOptions.AddStochasticNoise; the composition itself is pure string
// rewriting delegated to rateexpr.Wrap, independent of which tier produced
// the underlying rate law.
type Noise struct{}

// Wrap forwards to rateexpr.Wrap when enabled, otherwise returns expr
// unchanged.
func (Noise) Wrap(expr string, amplitude float64, enabled bool) string {
	if !enabled || expr == "" {
		return expr
	}
	return rateexpr.Wrap(expr, amplitude)
}
