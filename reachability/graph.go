// Package reachability builds the discrete state space of a net: breadth-
// first exploration of every marking reachable from the initial one by
// firing immediate, timed, and stochastic transitions. Continuous
// transitions move fractional tokens and have no finite state space, so
// they are excluded from exploration. Guards are not evaluated; the graph
// is a structural over-approximation of the timed behavior.
package reachability

import (
	"sort"

	"github.com/pflow-xyz/biopetri/incidence"
	"github.com/pflow-xyz/biopetri/model"
)

// State is one node of the reachability graph: a marking plus the
// transitions enabled in it.
type State struct {
	ID           int
	Marking      incidence.Marking
	Enabled      []string
	Successors   []*Edge
	Predecessors []*Edge
	IsInitial    bool
	IsDeadlock   bool // no discrete transition enabled
	Depth        int  // firings from the initial marking
}

// Edge records one firing: From's marking plus Transition's incidence row
// yields To's marking.
type Edge struct {
	From       *State
	To         *State
	Transition string
}

// Graph is the explored state space.
type Graph struct {
	Initial incidence.Marking
	Root    *State
	Edges   []*Edge

	states    map[[32]byte]*State
	stateList []*State
	Truncated bool // exploration hit the state bound before exhausting the space
}

// Options bounds exploration. The state cap keeps unbounded nets from
// exhausting memory; a hit sets Graph.Truncated instead of erroring.
type Options struct {
	MaxStates int
}

// DefaultOptions explores up to 10000 states.
func DefaultOptions() Options {
	return Options{MaxStates: 10000}
}

// Explore builds the reachability graph of m from the initial marking,
// firing through mat and honoring inhibitor arcs.
func Explore(m *model.Model, mat incidence.Matrix, initial incidence.Marking, opts Options) *Graph {
	if opts.MaxStates <= 0 {
		opts.MaxStates = DefaultOptions().MaxStates
	}
	g := &Graph{
		Initial: initial.Clone(),
		states:  make(map[[32]byte]*State),
	}

	discrete := discreteTransitionIDs(m)
	root := g.addState(m, mat, initial, discrete)
	root.IsInitial = true
	root.Depth = 0
	g.Root = root

	queue := []*State{root}
	for len(queue) > 0 {
		s := queue[0]
		queue = queue[1:]
		for _, tid := range s.Enabled {
			next, err := mat.Fire(tid, s.Marking)
			if err != nil {
				continue
			}
			hash := next.Hash()
			to, seen := g.states[hash]
			if !seen {
				if len(g.states) >= opts.MaxStates {
					g.Truncated = true
					continue
				}
				to = g.addState(m, mat, next, discrete)
				to.Depth = s.Depth + 1
				queue = append(queue, to)
			} else if s.Depth+1 < to.Depth {
				to.Depth = s.Depth + 1
			}
			edge := &Edge{From: s, To: to, Transition: tid}
			s.Successors = append(s.Successors, edge)
			to.Predecessors = append(to.Predecessors, edge)
			g.Edges = append(g.Edges, edge)
		}
	}
	return g
}

func (g *Graph) addState(m *model.Model, mat incidence.Matrix, marking incidence.Marking, discrete []string) *State {
	hash := marking.Hash()
	if existing, ok := g.states[hash]; ok {
		return existing
	}
	s := &State{
		ID:      len(g.states),
		Marking: marking.Clone(),
		Depth:   -1,
	}
	for _, tid := range discrete {
		if mat.IsEnabled(tid, marking) && enabledByInhibitors(m, tid, marking) {
			s.Enabled = append(s.Enabled, tid)
		}
	}
	s.IsDeadlock = len(s.Enabled) == 0
	g.states[hash] = s
	g.stateList = append(g.stateList, s)
	return s
}

func discreteTransitionIDs(m *model.Model) []string {
	var ids []string
	for id, t := range m.Transitions {
		if t.Class != model.Continuous {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

func enabledByInhibitors(m *model.Model, transitionID string, marking incidence.Marking) bool {
	for _, a := range m.InhibitorArcs(transitionID) {
		if marking[a.Source] >= float64(a.Weight) {
			return false
		}
	}
	return true
}

// States returns every explored state in discovery order.
func (g *Graph) States() []*State { return g.stateList }

// StateCount returns the number of distinct reachable markings found.
func (g *Graph) StateCount() int { return len(g.states) }

// Deadlocks returns states in which no discrete transition is enabled.
func (g *Graph) Deadlocks() []*State {
	var out []*State
	for _, s := range g.stateList {
		if s.IsDeadlock {
			out = append(out, s)
		}
	}
	return out
}

// IsReachable reports whether target appears in the explored state space.
// A false result on a truncated graph only means the marking was not found
// within the state bound.
func (g *Graph) IsReachable(target incidence.Marking) bool {
	_, ok := g.states[target.Hash()]
	return ok
}

// MaxTokens returns the per-place token peak across all explored states,
// the empirical boundedness of each place.
func (g *Graph) MaxTokens() map[string]float64 {
	peak := make(map[string]float64)
	for _, s := range g.stateList {
		for p, v := range s.Marking {
			if v > peak[p] {
				peak[p] = v
			}
		}
	}
	return peak
}
