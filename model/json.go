package model

import (
	"encoding/json"
	"fmt"
)

// Wire shape of a persisted document. Places and transitions are objects
// keyed by id; arcs are an array. Every field the round-trip contract
// names is carried: ids, names, token counts, class, rate, priority,
// rate-function, parameter blocks, provenance, arc endpoints, weights,
// and kinds. Positions ride along so a laid-out document reopens laid
// out.
type documentJSON struct {
	Version  string                     `json:"version,omitempty"`
	Name     string                     `json:"name"`
	Places   map[string]placeJSON       `json:"places"`
	Trans    map[string]transitionJSON  `json:"transitions"`
	Arcs     []arcJSON                  `json:"arcs"`
	Metadata *Metadata                  `json:"metadata,omitempty"`
}

type placeJSON struct {
	Name     string  `json:"name,omitempty"`
	Initial  float64 `json:"initial"`
	Capacity float64 `json:"capacity,omitempty"`
	X        float64 `json:"x,omitempty"`
	Y        float64 `json:"y,omitempty"`
}

type transitionJSON struct {
	Name         string             `json:"name,omitempty"`
	Class        string             `json:"class"`
	Rate         float64            `json:"rate,omitempty"`
	RateFunction string             `json:"rateFunction,omitempty"`
	Guard        string             `json:"guard,omitempty"`
	Priority     int                `json:"priority,omitempty"`
	Parameters   map[string]float64 `json:"parameters,omitempty"`
	Kinetics     *provenanceJSON    `json:"kinetics,omitempty"`
	X            float64            `json:"x,omitempty"`
	Y            float64            `json:"y,omitempty"`
}

type provenanceJSON struct {
	Source     string             `json:"source"`
	Confidence string             `json:"confidence"`
	Rule       string             `json:"rule,omitempty"`
	Enzyme     *EnzymeMeta        `json:"enzyme,omitempty"`
	Original   *snapshotJSON      `json:"original,omitempty"`
}

type snapshotJSON struct {
	Class        string             `json:"class"`
	Rate         float64            `json:"rate,omitempty"`
	RateFunction string             `json:"rateFunction,omitempty"`
	Parameters   map[string]float64 `json:"parameters,omitempty"`
}

type arcJSON struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	Target string `json:"target"`
	Weight int    `json:"weight"`
	Kind   string `json:"kind,omitempty"`
}

// ToJSON serializes the document.
func (d *Document) ToJSON() ([]byte, error) {
	out := documentJSON{
		Version:  d.Version,
		Metadata: d.Metadata,
		Places:   make(map[string]placeJSON),
		Trans:    make(map[string]transitionJSON),
	}
	if d.Model != nil {
		out.Name = d.Model.Name
		for id, p := range d.Model.Places {
			out.Places[id] = placeJSON{
				Name: p.Name, Initial: p.Initial, Capacity: p.Capacity, X: p.X, Y: p.Y,
			}
		}
		for id, tr := range d.Model.Transitions {
			out.Trans[id] = transitionJSON{
				Name:         tr.Name,
				Class:        tr.Class.String(),
				Rate:         tr.Rate,
				RateFunction: tr.RateFunction,
				Guard:        tr.Guard,
				Priority:     tr.Priority,
				Parameters:   tr.Parameters,
				Kinetics:     provenanceToJSON(tr.Kinetics),
				X:            tr.X,
				Y:            tr.Y,
			}
		}
		for _, a := range d.Model.Arcs {
			kind := ""
			if a.Kind == Inhibitor {
				kind = "inhibitor"
			}
			out.Arcs = append(out.Arcs, arcJSON{
				ID: a.ID, Source: a.Source, Target: a.Target, Weight: a.Weight, Kind: kind,
			})
		}
	}
	return json.MarshalIndent(out, "", "  ")
}

// FromJSON deserializes a document. A document with no metadata section
// loads correctly; one with metadata preserves it.
func FromJSON(data []byte) (*Document, error) {
	var in documentJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, fmt.Errorf("model: invalid document JSON: %w", err)
	}

	m := NewModel(in.Name)
	for id, p := range in.Places {
		m.AddPlace(&Place{
			ID: id, Name: p.Name, Initial: p.Initial, Capacity: p.Capacity, X: p.X, Y: p.Y,
		})
	}
	for id, tr := range in.Trans {
		class, err := parseClass(tr.Class)
		if err != nil {
			return nil, fmt.Errorf("model: transition %s: %w", id, err)
		}
		m.AddTransition(&Transition{
			ID:           id,
			Name:         tr.Name,
			Class:        class,
			Rate:         tr.Rate,
			RateFunction: tr.RateFunction,
			Guard:        tr.Guard,
			Priority:     tr.Priority,
			Parameters:   tr.Parameters,
			Kinetics:     provenanceFromJSON(tr.Kinetics),
			X:            tr.X,
			Y:            tr.Y,
		})
	}
	for _, a := range in.Arcs {
		kind := Normal
		if a.Kind == "inhibitor" {
			kind = Inhibitor
		}
		m.AddArc(&Arc{ID: a.ID, Source: a.Source, Target: a.Target, Weight: a.Weight, Kind: kind})
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &Document{Model: m, Version: in.Version, Metadata: in.Metadata}, nil
}

func provenanceToJSON(p *Provenance) *provenanceJSON {
	if p == nil {
		return nil
	}
	out := &provenanceJSON{
		Source:     p.Source.String(),
		Confidence: p.Confidence.String(),
		Rule:       p.Rule,
		Enzyme:     p.Enzyme,
	}
	if p.Original != nil {
		out.Original = &snapshotJSON{
			Class:        p.Original.Class.String(),
			Rate:         p.Original.Rate,
			RateFunction: p.Original.RateFunction,
			Parameters:   p.Original.Parameters,
		}
	}
	return out
}

func provenanceFromJSON(p *provenanceJSON) *Provenance {
	if p == nil {
		return nil
	}
	out := &Provenance{
		Source:     parseSource(p.Source),
		Confidence: parseConfidence(p.Confidence),
		Rule:       p.Rule,
		Enzyme:     p.Enzyme,
	}
	if p.Original != nil {
		class, err := parseClass(p.Original.Class)
		if err != nil {
			class = Continuous
		}
		out.Original = &Snapshot{
			Class:        class,
			Rate:         p.Original.Rate,
			RateFunction: p.Original.RateFunction,
			Parameters:   p.Original.Parameters,
		}
	}
	return out
}

func parseClass(s string) (Class, error) {
	switch s {
	case "immediate", "":
		return Immediate, nil
	case "timed":
		return Timed, nil
	case "stochastic":
		return Stochastic, nil
	case "continuous":
		return Continuous, nil
	default:
		return Immediate, fmt.Errorf("unknown transition class %q", s)
	}
}

func parseSource(s string) ProvenanceSource {
	switch s {
	case "explicit":
		return SourceExplicit
	case "database":
		return SourceDatabase
	case "heuristic":
		return SourceHeuristic
	case "user":
		return SourceUser
	case "default":
		return SourceDefault
	default:
		return SourceUnset
	}
}

func parseConfidence(s string) Confidence {
	switch s {
	case "high":
		return ConfidenceHigh
	case "medium":
		return ConfidenceMedium
	case "low":
		return ConfidenceLow
	default:
		return ConfidenceUnknown
	}
}
