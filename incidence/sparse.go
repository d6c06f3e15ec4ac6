package incidence

import (
	"fmt"
	"sort"

	"github.com/pflow-xyz/biopetri/model"
)

// key indexes a (transition, place) cell.
type key struct {
	t, p string
}

// sparseMatrix stores only non-zero F-/F+ entries, suitable when density <
// 0.2 or |P|*|T| > 1000. Alongside the flat cell maps it keeps per-
// transition rows so enabling and firing touch only the non-zero entries
// of the firing transition's row.
type sparseMatrix struct {
	fMinus map[key]int
	fPlus  map[key]int

	rowMinus map[string][]ArcWeight
	rowPlus  map[string][]ArcWeight

	placeIDs      []string
	transitionIDs []string
	places        map[string]bool
	transitions   map[string]bool
}

func buildSparse(m *model.Model) *sparseMatrix {
	sm := &sparseMatrix{
		fMinus:        make(map[key]int),
		fPlus:         make(map[key]int),
		rowMinus:      make(map[string][]ArcWeight),
		rowPlus:       make(map[string][]ArcWeight),
		placeIDs:      sortedPlaceIDs(m),
		transitionIDs: sortedTransitionIDs(m),
		places:        make(map[string]bool, len(m.Places)),
		transitions:   make(map[string]bool, len(m.Transitions)),
	}
	for id := range m.Places {
		sm.places[id] = true
	}
	for id := range m.Transitions {
		sm.transitions[id] = true
	}
	for _, a := range sortedArcs(m) {
		if a.Kind == model.Inhibitor {
			continue // inhibitor arcs never enter F- or F+
		}
		if sm.places[a.Source] && sm.transitions[a.Target] {
			sm.fMinus[key{a.Target, a.Source}] += a.Weight
		} else if sm.transitions[a.Source] && sm.places[a.Target] {
			sm.fPlus[key{a.Source, a.Target}] += a.Weight
		}
	}
	for k, w := range sm.fMinus {
		sm.rowMinus[k.t] = append(sm.rowMinus[k.t], ArcWeight{PlaceID: k.p, Weight: w})
	}
	for k, w := range sm.fPlus {
		sm.rowPlus[k.t] = append(sm.rowPlus[k.t], ArcWeight{PlaceID: k.p, Weight: w})
	}
	for _, rows := range []map[string][]ArcWeight{sm.rowMinus, sm.rowPlus} {
		for _, row := range rows {
			sort.Slice(row, func(i, j int) bool { return row[i].PlaceID < row[j].PlaceID })
		}
	}
	return sm
}

func (s *sparseMatrix) InputWeight(t, p string) int  { return s.fMinus[key{t, p}] }
func (s *sparseMatrix) OutputWeight(t, p string) int { return s.fPlus[key{t, p}] }
func (s *sparseMatrix) Incidence(t, p string) int {
	return s.fPlus[key{t, p}] - s.fMinus[key{t, p}]
}

func (s *sparseMatrix) InputArcs(t string) []ArcWeight  { return s.rowMinus[t] }
func (s *sparseMatrix) OutputArcs(t string) []ArcWeight { return s.rowPlus[t] }

func (s *sparseMatrix) IsEnabled(t string, marking Marking) bool {
	for _, aw := range s.rowMinus[t] {
		if marking[aw.PlaceID] < float64(aw.Weight) {
			return false
		}
	}
	return true
}

func (s *sparseMatrix) Fire(t string, marking Marking) (Marking, error) {
	if !s.IsEnabled(t, marking) {
		return nil, fmt.Errorf("%w: %s", ErrNotEnabled, t)
	}
	out := marking.Clone()
	for _, aw := range s.rowMinus[t] {
		out[aw.PlaceID] -= float64(aw.Weight)
	}
	for _, aw := range s.rowPlus[t] {
		out[aw.PlaceID] += float64(aw.Weight)
	}
	return out, nil
}

func (s *sparseMatrix) MarkingToVector(marking Marking) []float64 {
	v := make([]float64, len(s.placeIDs))
	for i, p := range s.placeIDs {
		v[i] = marking[p]
	}
	return v
}

func (s *sparseMatrix) VectorToMarking(v []float64) Marking {
	m := make(Marking, len(s.placeIDs))
	for i, p := range s.placeIDs {
		if i < len(v) {
			m[p] = v[i]
		}
	}
	return m
}

func (s *sparseMatrix) Dimensions() (places, transitions int) {
	return len(s.placeIDs), len(s.transitionIDs)
}

func (s *sparseMatrix) PlaceIDs() []string      { return s.placeIDs }
func (s *sparseMatrix) TransitionIDs() []string { return s.transitionIDs }
