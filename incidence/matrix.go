// Package incidence builds and operates on the incidence matrix of a model:
// the F-/F+/C relation between transitions and places, enabling tests, and
// firing. It auto-selects a sparse or dense backing based on arc density,
// matching the two concrete representations a hand-built matrix layer would
// offer.
package incidence

import (
	"errors"
	"fmt"
	"sort"

	"github.com/pflow-xyz/biopetri/model"
)

// Errors of the incidence layer. Build/Load return ErrInvalidStructure and
// Fire returns ErrNotEnabled. Structural errors prevent the model from
// transitioning to an invalid state; NotEnabled is a per-firing runtime
// error that never aborts a simulation step. ErrUnknownPlace and
// ErrUnknownTransition are not returned by any function in this package.
var (
	ErrInvalidStructure = errors.New("incidence: arc does not connect a place to a transition")
	ErrNotEnabled       = errors.New("incidence: transition is not enabled")
	ErrUnknownPlace     = errors.New("incidence: unknown place id")
	ErrUnknownTransition = errors.New("incidence: unknown transition id")
)

// ArcWeight pairs a place id with the weight of the arc connecting it to a
// transition.
type ArcWeight struct {
	PlaceID string
	Weight  int
}

// Implementation selects which concrete Matrix backing Load constructs.
type Implementation int

const (
	Auto Implementation = iota
	Sparse
	Dense
)

// densityThreshold and sizeThreshold drive auto-selection: sparse when
// density < 0.2 or |P|*|T| > 1000.
const (
	densityThreshold = 0.2
	sizeThreshold    = 1000
)

// Matrix is the read-only structural interface both the sparse and dense
// backings satisfy. Callers program to this interface; Load picks the
// concrete type.
type Matrix interface {
	InputWeight(t, p string) int
	OutputWeight(t, p string) int
	Incidence(t, p string) int
	InputArcs(t string) []ArcWeight
	OutputArcs(t string) []ArcWeight
	IsEnabled(t string, marking Marking) bool
	Fire(t string, marking Marking) (Marking, error)
	MarkingToVector(marking Marking) []float64
	VectorToMarking(v []float64) Marking
	Dimensions() (places, transitions int)
	PlaceIDs() []string
	TransitionIDs() []string
}

// ValidateBipartite reports the first arc (in stable id order) that
// connects two places or two transitions, wrapped in ErrInvalidStructure.
// Build calls this implicitly and fails fast on the same condition.
func ValidateBipartite(m *model.Model) error {
	for _, a := range sortedArcs(m) {
		_, srcPlace := m.Places[a.Source]
		_, dstPlace := m.Places[a.Target]
		_, srcTrans := m.Transitions[a.Source]
		_, dstTrans := m.Transitions[a.Target]
		if !((srcPlace && dstTrans) || (srcTrans && dstPlace)) {
			return fmt.Errorf("%w: arc %s (%s -> %s)", ErrInvalidStructure, a.ID, a.Source, a.Target)
		}
	}
	return nil
}

func sortedArcs(m *model.Model) []*model.Arc {
	arcs := make([]*model.Arc, len(m.Arcs))
	copy(arcs, m.Arcs)
	sort.Slice(arcs, func(i, j int) bool { return arcs[i].ID < arcs[j].ID })
	return arcs
}

func sortedPlaceIDs(m *model.Model) []string {
	ids := make([]string, 0, len(m.Places))
	for id := range m.Places {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func sortedTransitionIDs(m *model.Model) []string {
	ids := make([]string, 0, len(m.Transitions))
	for id := range m.Transitions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// density computes |arcs| / (2*|P|*|T|). Zero-sized nets are reported
// dense (defaults to Dense below).
func density(m *model.Model) float64 {
	p, t := len(m.Places), len(m.Transitions)
	if p == 0 || t == 0 {
		return 1
	}
	return float64(len(m.Arcs)) / float64(2*p*t)
}

// chooseImplementation picks a backing store: sparse when density <
// 0.2 or |P|*|T| > 1000.
func chooseImplementation(m *model.Model) Implementation {
	p, t := len(m.Places), len(m.Transitions)
	if density(m) < densityThreshold || p*t > sizeThreshold {
		return Sparse
	}
	return Dense
}

// Build validates the model's bipartite structure and constructs the
// concrete Matrix the auto-selection rule picks. It is equivalent to
// Load(m, Auto).
func Build(m *model.Model) (Matrix, error) {
	return Load(m, Auto)
}

// Load constructs Matrix for m using the requested Implementation. Auto
// defers to chooseImplementation.
func Load(m *model.Model, impl Implementation) (Matrix, error) {
	if err := ValidateBipartite(m); err != nil {
		return nil, err
	}
	if impl == Auto {
		impl = chooseImplementation(m)
	}
	switch impl {
	case Sparse:
		return buildSparse(m), nil
	case Dense:
		return buildDense(m), nil
	default:
		return nil, fmt.Errorf("incidence: unknown implementation %d", impl)
	}
}
