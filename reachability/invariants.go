package reachability

import (
	"sort"
	"strconv"
	"strings"

	"github.com/pflow-xyz/biopetri/incidence"
)

// Invariant is a weighted sum of place tokens that every firing preserves:
// sum(Coefficients[p] * marking[p]) stays at Value.
type Invariant struct {
	Places       []string
	Coefficients map[string]int
	Value        float64
}

func (inv *Invariant) String() string {
	var parts []string
	for _, p := range inv.Places {
		switch c := inv.Coefficients[p]; {
		case c == 1:
			parts = append(parts, p)
		case c == -1:
			parts = append(parts, "-"+p)
		case c != 0:
			parts = append(parts, strconv.Itoa(c)+"*"+p)
		}
	}
	return strings.Join(parts, " + ")
}

// Check reports whether the invariant holds in the given marking.
func (inv *Invariant) Check(marking incidence.Marking) bool {
	sum := 0.0
	for p, c := range inv.Coefficients {
		sum += float64(c) * marking[p]
	}
	return sum == inv.Value
}

// FindPInvariants looks for place invariants against the incidence matrix:
// the all-ones vector (total token conservation) and complementary place
// pairs. Full invariant computation would solve the integer system
// y*C = 0; these two patterns cover the conservation structure typical of
// metabolic nets (conserved moieties, free/bound enzyme pairs).
func FindPInvariants(mat incidence.Matrix, initial incidence.Marking) []Invariant {
	places := sortedPlaces(mat)
	transitions := mat.TransitionIDs()
	var out []Invariant

	if conservesTotal(mat, places, transitions) {
		coeffs := make(map[string]int, len(places))
		total := 0.0
		for _, p := range places {
			coeffs[p] = 1
			total += initial[p]
		}
		out = append(out, Invariant{Places: places, Coefficients: coeffs, Value: total})
	}

	for i := 0; i < len(places); i++ {
		for j := i + 1; j < len(places); j++ {
			if pairConserved(mat, places[i], places[j], transitions) {
				out = append(out, Invariant{
					Places:       []string{places[i], places[j]},
					Coefficients: map[string]int{places[i]: 1, places[j]: 1},
					Value:        initial[places[i]] + initial[places[j]],
				})
			}
		}
	}
	return out
}

// Conservative reports whether every firing preserves the total token
// count, a sufficient condition for structural boundedness.
func Conservative(mat incidence.Matrix) bool {
	return conservesTotal(mat, sortedPlaces(mat), mat.TransitionIDs())
}

func conservesTotal(mat incidence.Matrix, places, transitions []string) bool {
	for _, t := range transitions {
		sum := 0
		for _, p := range places {
			sum += mat.Incidence(t, p)
		}
		if sum != 0 {
			return false
		}
	}
	return len(transitions) > 0
}

// pairConserved reports whether every transition's effect on p1 cancels
// its effect on p2, and at least one transition touches the pair.
func pairConserved(mat incidence.Matrix, p1, p2 string, transitions []string) bool {
	touched := false
	for _, t := range transitions {
		c1 := mat.Incidence(t, p1)
		c2 := mat.Incidence(t, p2)
		if c1+c2 != 0 {
			return false
		}
		if c1 != 0 || c2 != 0 {
			touched = true
		}
	}
	return touched
}

func sortedPlaces(mat incidence.Matrix) []string {
	places := mat.PlaceIDs()
	out := make([]string, len(places))
	copy(out, places)
	sort.Strings(out)
	return out
}
