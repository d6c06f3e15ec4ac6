// Package model defines the owned data graph for a biochemical Petri net:
// places, transitions, arcs, and the document that wraps them. It carries no
// rendering, persistence-encoding, or import-parsing logic — those are the
// concern of external collaborators.
package model

import "fmt"

// Class distinguishes the four transition semantics a simulation controller
// schedules differently.
type Class int

const (
	Immediate Class = iota
	Timed
	Stochastic
	Continuous
)

func (c Class) String() string {
	switch c {
	case Immediate:
		return "immediate"
	case Timed:
		return "timed"
	case Stochastic:
		return "stochastic"
	case Continuous:
		return "continuous"
	default:
		return "unknown"
	}
}

// ArcKind distinguishes ordinary flow arcs from inhibitor arcs. Inhibitor
// arcs are never folded into the negative incidence matrix; they gate
// enabling without consuming tokens.
type ArcKind int

const (
	Normal ArcKind = iota
	Inhibitor
)

// Place is a token-holding node. Initial is the marking at t=0; it may be
// fractional for places fed exclusively by continuous transitions.
type Place struct {
	ID       string
	Name     string
	Initial  float64
	Capacity float64 // 0 means unbounded
	X, Y     float64 // canvas position, written back by the layout engine
}

// Transition is a scheduled event. Rate, RateFunction, and Parameters are
// interpreted according to Class: Timed uses Rate as a fixed delay,
// Stochastic uses Rate as an exponential-distribution lambda unless
// RateFunction is set, Continuous always evaluates RateFunction.
type Transition struct {
	ID           string
	Name         string
	Class        Class
	Rate         float64
	RateFunction string
	Guard        string
	Priority     int
	Parameters   map[string]float64
	Kinetics     *Provenance
	X, Y         float64 // canvas position, written back by the layout engine
}

// ProvenanceSource identifies which tier of kinetics.Assigner.Assign
// produced a transition's rate law.
type ProvenanceSource int

const (
	SourceUnset ProvenanceSource = iota
	SourceExplicit
	SourceDatabase
	SourceHeuristic
	SourceUser
	SourceDefault
)

func (s ProvenanceSource) String() string {
	switch s {
	case SourceExplicit:
		return "explicit"
	case SourceDatabase:
		return "database"
	case SourceHeuristic:
		return "heuristic"
	case SourceUser:
		return "user"
	case SourceDefault:
		return "default"
	default:
		return "unset"
	}
}

// Confidence reflects how much a kinetics assignment should be trusted.
type Confidence int

const (
	ConfidenceUnknown Confidence = iota
	ConfidenceLow
	ConfidenceMedium
	ConfidenceHigh
)

func (c Confidence) String() string {
	switch c {
	case ConfidenceHigh:
		return "high"
	case ConfidenceMedium:
		return "medium"
	case ConfidenceLow:
		return "low"
	default:
		return "unknown"
	}
}

// EnzymeMeta records the EC-number/enzyme-name metadata a database or
// explicit-law tier resolved, for display and for Assign's tier bookkeeping.
type EnzymeMeta struct {
	ECNumber   string
	EnzymeName string
	Origin     string // "cache" | "remote" | "fallback", set by the database tier
	Estimated  bool
}

// Snapshot captures the fields a kinetics assignment is about to overwrite,
// enabling one-level rollback via RestoreOriginal.
type Snapshot struct {
	Class        Class
	Rate         float64
	RateFunction string
	Parameters   map[string]float64
}

// Provenance records how a transition's rate law was assigned, set by a
// kinetics assigner: source, confidence, rule name, and the original
// parameters for rollback. It is opaque to simcontrol beyond the fields
// read for display and logging.
type Provenance struct {
	Source     ProvenanceSource
	Confidence Confidence
	Rule       string
	Enzyme     *EnzymeMeta
	Original   *Snapshot
}

// ShouldEnhance reports whether a kinetics assigner may replace t's current
// rate law. Explicit and user assignments are never replaced; a
// high-confidence database assignment is also preserved.
func ShouldEnhance(t *Transition) bool {
	if t.Kinetics == nil {
		return true
	}
	switch t.Kinetics.Source {
	case SourceExplicit, SourceUser:
		return false
	case SourceDatabase:
		return t.Kinetics.Confidence != ConfidenceHigh
	default:
		return true
	}
}

// SaveOriginal captures t's current class/rate/rate-function/parameters
// into prov.Original, called immediately before a kinetics assigner
// overwrites them. Allows one-level rollback.
func SaveOriginal(t *Transition, prov *Provenance) {
	params := make(map[string]float64, len(t.Parameters))
	for k, v := range t.Parameters {
		params[k] = v
	}
	prov.Original = &Snapshot{
		Class:        t.Class,
		Rate:         t.Rate,
		RateFunction: t.RateFunction,
		Parameters:   params,
	}
}

// RestoreOriginal rolls t back to the snapshot captured in its current
// provenance's Original field, one level deep. It is a no-op if there is
// no snapshot to restore.
func RestoreOriginal(t *Transition) {
	if t.Kinetics == nil || t.Kinetics.Original == nil {
		return
	}
	snap := t.Kinetics.Original
	t.Class = snap.Class
	t.Rate = snap.Rate
	t.RateFunction = snap.RateFunction
	t.Parameters = snap.Parameters
}

// Arc connects a place and a transition (never place-to-place or
// transition-to-transition, enforced by Validate). Weight is the
// stoichiometric coefficient.
type Arc struct {
	ID       string
	Source   string // place or transition ID
	Target   string // the other side
	Weight   int
	Kind     ArcKind
}

// Model owns places, transitions, and arcs by id. It is the unit of
// structural validation; it does not own execution state (see
// incidence.Marking) or layout state (see layout.Node).
type Model struct {
	Name        string
	Places      map[string]*Place
	Transitions map[string]*Transition
	Arcs        []*Arc
}

// NewModel returns an empty, named model ready for AddPlace/AddTransition/AddArc.
func NewModel(name string) *Model {
	return &Model{
		Name:        name,
		Places:      make(map[string]*Place),
		Transitions: make(map[string]*Transition),
	}
}

func (m *Model) AddPlace(p *Place) *Model {
	m.Places[p.ID] = p
	return m
}

func (m *Model) AddTransition(t *Transition) *Model {
	m.Transitions[t.ID] = t
	return m
}

func (m *Model) AddArc(a *Arc) *Model {
	m.Arcs = append(m.Arcs, a)
	return m
}

// RemovePlace deletes a place and every arc touching it.
func (m *Model) RemovePlace(id string) {
	delete(m.Places, id)
	m.pruneArcs(id)
}

// RemoveTransition deletes a transition and every arc touching it.
func (m *Model) RemoveTransition(id string) {
	delete(m.Transitions, id)
	m.pruneArcs(id)
}

func (m *Model) pruneArcs(id string) {
	kept := m.Arcs[:0]
	for _, a := range m.Arcs {
		if a.Source != id && a.Target != id {
			kept = append(kept, a)
		}
	}
	m.Arcs = kept
}

// InputArcs returns the arcs feeding transition t (place -> t), excluding
// inhibitor arcs.
func (m *Model) InputArcs(transitionID string) []*Arc {
	var out []*Arc
	for _, a := range m.Arcs {
		if a.Target == transitionID && a.Kind == Normal {
			out = append(out, a)
		}
	}
	return out
}

// OutputArcs returns the arcs produced by transition t (t -> place).
func (m *Model) OutputArcs(transitionID string) []*Arc {
	var out []*Arc
	for _, a := range m.Arcs {
		if a.Source == transitionID {
			out = append(out, a)
		}
	}
	return out
}

// InhibitorArcs returns the inhibitor arcs gating transition t. These are
// never part of F-; the scheduler checks them separately.
func (m *Model) InhibitorArcs(transitionID string) []*Arc {
	var out []*Arc
	for _, a := range m.Arcs {
		if a.Target == transitionID && a.Kind == Inhibitor {
			out = append(out, a)
		}
	}
	return out
}

// Validate checks arc endpoints and bipartite structure: every arc's source
// and target must exist, and every arc must connect a place to a transition
// or a transition to a place, never like to like. It does not check id
// uniqueness.
func (m *Model) Validate() error {
	for _, a := range m.Arcs {
		_, srcIsPlace := m.Places[a.Source]
		_, srcIsTrans := m.Transitions[a.Source]
		_, dstIsPlace := m.Places[a.Target]
		_, dstIsTrans := m.Transitions[a.Target]

		switch {
		case !srcIsPlace && !srcIsTrans:
			return fmt.Errorf("%w: arc %s has unknown source %s", ErrInvalidArcSource, a.ID, a.Source)
		case !dstIsPlace && !dstIsTrans:
			return fmt.Errorf("%w: arc %s has unknown target %s", ErrInvalidArcTarget, a.ID, a.Target)
		case srcIsPlace == dstIsPlace:
			return fmt.Errorf("%w: arc %s connects %s to %s", ErrInvalidArcConnection, a.ID, a.Source, a.Target)
		}
	}
	return nil
}
