package simcontrol

import (
	"math/rand/v2"
	"sort"

	"github.com/pflow-xyz/biopetri/model"
)

// ConflictPolicy selects one transition among several simultaneously
// enabled candidates, used both for immediate exhaustion and for
// tie-breaking at simultaneous discrete firings.
type ConflictPolicy interface {
	Choose(candidates []string, transitions map[string]*model.Transition, rng *rand.Rand) string
}

// PriorityPolicy selects the highest-priority enabled transition; ties
// are broken by stable ascending id order, so the same input always
// produces the same firing order.
type PriorityPolicy struct{}

func (PriorityPolicy) Choose(candidates []string, transitions map[string]*model.Transition, rng *rand.Rand) string {
	if len(candidates) == 0 {
		return ""
	}
	ordered := make([]string, len(candidates))
	copy(ordered, candidates)
	sort.Slice(ordered, func(i, j int) bool {
		pi, pj := transitions[ordered[i]].Priority, transitions[ordered[j]].Priority
		if pi != pj {
			return pi > pj
		}
		return ordered[i] < ordered[j]
	})
	return ordered[0]
}

// RandomPolicy selects uniformly among the enabled candidates.
type RandomPolicy struct{}

func (RandomPolicy) Choose(candidates []string, transitions map[string]*model.Transition, rng *rand.Rand) string {
	if len(candidates) == 0 {
		return ""
	}
	ordered := make([]string, len(candidates))
	copy(ordered, candidates)
	sort.Strings(ordered)
	return ordered[rng.IntN(len(ordered))]
}

// RoundRobinPolicy cycles through candidates in ascending id order,
// remembering the last-chosen id so successive calls advance the cursor.
type RoundRobinPolicy struct {
	last string
}

func (p *RoundRobinPolicy) Choose(candidates []string, transitions map[string]*model.Transition, rng *rand.Rand) string {
	if len(candidates) == 0 {
		return ""
	}
	ordered := make([]string, len(candidates))
	copy(ordered, candidates)
	sort.Strings(ordered)

	start := 0
	for i, id := range ordered {
		if id > p.last {
			start = i
			break
		}
		start = 0
	}
	chosen := ordered[start]
	p.last = chosen
	return chosen
}
