// Package kinetics implements the tiered kinetics-assignment
// pipeline: given a transition and optional reaction metadata, select a
// rate law via explicit -> database -> heuristic -> default, writing a
// parameter block and a model.Provenance record onto the transition while
// never overriding a user- or explicit-sourced assignment.
package kinetics

import "github.com/pflow-xyz/biopetri/model"

// LawKind distinguishes the two rate-law shapes this pipeline ever
// produces: a mass-action stochastic transition or a Michaelis-Menten
// continuous one.
type LawKind int

const (
	MassAction LawKind = iota
	MichaelisMenten
)

// KineticLaw is an explicit, reaction-carried rate law (e.g. from SBML
// import), used verbatim when present.
type KineticLaw struct {
	Kind       LawKind
	Parameters map[string]float64 // e.g. "k", or "vmax"/"km"
}

// Substrate is one reactant or product with its stoichiometric coefficient.
type Substrate struct {
	PlaceID     string
	Coefficient int
}

// Reaction is the optional metadata a model import may attach to a
// transition: EC number, an explicit kinetic law, substrates/products, and
// whether the reaction is reversible. All fields are optional; Assign
// falls through tiers as fields are absent.
type Reaction struct {
	ECNumber   string
	EnzymeName string
	KineticLaw *KineticLaw
	Substrates []Substrate
	Products   []Substrate
	Reversible bool
}

func (r *Reaction) hasEnzyme() bool {
	return r != nil && (r.ECNumber != "" || r.EnzymeName != "")
}

func (r *Reaction) substrateTokens(m *model.Model) []float64 {
	if r == nil {
		return nil
	}
	out := make([]float64, 0, len(r.Substrates))
	for _, s := range r.Substrates {
		if p, ok := m.Places[s.PlaceID]; ok {
			out = append(out, p.Initial)
		}
	}
	return out
}

func (r *Reaction) maxProductStoichiometry() int {
	if r == nil {
		return 1
	}
	max := 1
	for _, p := range r.Products {
		if p.Coefficient > max {
			max = p.Coefficient
		}
	}
	return max
}

func (r *Reaction) allCoefficientsAtMost(n int) bool {
	if r == nil {
		return true
	}
	for _, s := range r.Substrates {
		if s.Coefficient > n {
			return false
		}
	}
	for _, p := range r.Products {
		if p.Coefficient > n {
			return false
		}
	}
	return true
}

// singleSubstratePlace returns the place id of the reaction's sole
// substrate, used to build a michaelis_menten(<substrate>, ...) rate
// function. Falls back to the transition's first input arc when no
// Reaction metadata names one.
func singleSubstratePlace(r *Reaction, t *model.Transition, m *model.Model) string {
	if r != nil && len(r.Substrates) > 0 {
		return r.Substrates[0].PlaceID
	}
	if m == nil || t == nil {
		return ""
	}
	inputs := m.InputArcs(t.ID)
	if len(inputs) > 0 {
		return inputs[0].Source
	}
	return ""
}
