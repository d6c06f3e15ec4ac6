package incidence

import (
	"fmt"

	"github.com/pflow-xyz/biopetri/model"
)

// denseMatrix stores F- and F+ as two-dimensional |T|x|P| integer arrays; C
// is derived lazily as F+[t][p] - F-[t][p]. Fire is a single row-vector add,
// appropriate when arcs are dense relative to |P|*|T|.
type denseMatrix struct {
	fMinus [][]int
	fPlus  [][]int

	placeIDs      []string
	transitionIDs []string
	placeIndex    map[string]int
	transIndex    map[string]int
}

func buildDense(m *model.Model) *denseMatrix {
	dm := &denseMatrix{
		placeIDs:      sortedPlaceIDs(m),
		transitionIDs: sortedTransitionIDs(m),
	}
	np, nt := len(dm.placeIDs), len(dm.transitionIDs)
	dm.placeIndex = make(map[string]int, np)
	for i, id := range dm.placeIDs {
		dm.placeIndex[id] = i
	}
	dm.transIndex = make(map[string]int, nt)
	for i, id := range dm.transitionIDs {
		dm.transIndex[id] = i
	}

	dm.fMinus = make([][]int, nt)
	dm.fPlus = make([][]int, nt)
	for i := range dm.fMinus {
		dm.fMinus[i] = make([]int, np)
		dm.fPlus[i] = make([]int, np)
	}

	placeSet := make(map[string]bool, np)
	for id := range m.Places {
		placeSet[id] = true
	}
	transSet := make(map[string]bool, nt)
	for id := range m.Transitions {
		transSet[id] = true
	}

	for _, a := range sortedArcs(m) {
		if a.Kind == model.Inhibitor {
			continue
		}
		if placeSet[a.Source] && transSet[a.Target] {
			ti, pi := dm.transIndex[a.Target], dm.placeIndex[a.Source]
			dm.fMinus[ti][pi] += a.Weight
		} else if transSet[a.Source] && placeSet[a.Target] {
			ti, pi := dm.transIndex[a.Source], dm.placeIndex[a.Target]
			dm.fPlus[ti][pi] += a.Weight
		}
	}
	return dm
}

func (d *denseMatrix) InputWeight(t, p string) int {
	ti, ok := d.transIndex[t]
	if !ok {
		return 0
	}
	pi, ok := d.placeIndex[p]
	if !ok {
		return 0
	}
	return d.fMinus[ti][pi]
}

func (d *denseMatrix) OutputWeight(t, p string) int {
	ti, ok := d.transIndex[t]
	if !ok {
		return 0
	}
	pi, ok := d.placeIndex[p]
	if !ok {
		return 0
	}
	return d.fPlus[ti][pi]
}

func (d *denseMatrix) Incidence(t, p string) int {
	return d.OutputWeight(t, p) - d.InputWeight(t, p)
}

func (d *denseMatrix) InputArcs(t string) []ArcWeight {
	ti, ok := d.transIndex[t]
	if !ok {
		return nil
	}
	var out []ArcWeight
	for pi, w := range d.fMinus[ti] {
		if w != 0 {
			out = append(out, ArcWeight{PlaceID: d.placeIDs[pi], Weight: w})
		}
	}
	return out
}

func (d *denseMatrix) OutputArcs(t string) []ArcWeight {
	ti, ok := d.transIndex[t]
	if !ok {
		return nil
	}
	var out []ArcWeight
	for pi, w := range d.fPlus[ti] {
		if w != 0 {
			out = append(out, ArcWeight{PlaceID: d.placeIDs[pi], Weight: w})
		}
	}
	return out
}

func (d *denseMatrix) IsEnabled(t string, marking Marking) bool {
	ti, ok := d.transIndex[t]
	if !ok {
		return false
	}
	row := d.fMinus[ti]
	for pi, w := range row {
		if w != 0 && marking[d.placeIDs[pi]] < float64(w) {
			return false
		}
	}
	return true
}

func (d *denseMatrix) Fire(t string, marking Marking) (Marking, error) {
	if !d.IsEnabled(t, marking) {
		return nil, fmt.Errorf("%w: %s", ErrNotEnabled, t)
	}
	ti := d.transIndex[t]
	out := marking.Clone()
	for pi, p := range d.placeIDs {
		if c := d.fPlus[ti][pi] - d.fMinus[ti][pi]; c != 0 {
			out[p] += float64(c)
		}
	}
	return out, nil
}

func (d *denseMatrix) MarkingToVector(marking Marking) []float64 {
	v := make([]float64, len(d.placeIDs))
	for i, p := range d.placeIDs {
		v[i] = marking[p]
	}
	return v
}

func (d *denseMatrix) VectorToMarking(v []float64) Marking {
	m := make(Marking, len(d.placeIDs))
	for i, p := range d.placeIDs {
		if i < len(v) {
			m[p] = v[i]
		}
	}
	return m
}

func (d *denseMatrix) Dimensions() (places, transitions int) {
	return len(d.placeIDs), len(d.transitionIDs)
}

func (d *denseMatrix) PlaceIDs() []string      { return d.placeIDs }
func (d *denseMatrix) TransitionIDs() []string { return d.transitionIDs }
