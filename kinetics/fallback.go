package kinetics

import (
	_ "embed"
	"encoding/json"
	"fmt"
)

//go:embed fallback_enzymes.json
var fallbackJSON []byte

type fallbackEntry struct {
	Kind      string  `json:"kind"`
	Vmax      float64 `json:"vmax"`
	Km        float64 `json:"km"`
	K         float64 `json:"k"`
	Estimated bool    `json:"estimated"`
}

// FallbackTable is the bundled common-glycolysis-enzyme table compiled
// into the binary, the last tier of Database.Lookup, used when the local
// cache has no entry and the remote tier is unreachable or offline.
type FallbackTable struct {
	entries map[string]fallbackEntry
}

// NewFallbackTable parses the embedded fallback_enzymes.json once.
func NewFallbackTable() *FallbackTable {
	var raw map[string]fallbackEntry
	if err := json.Unmarshal(fallbackJSON, &raw); err != nil {
		panic(fmt.Sprintf("kinetics: embedded fallback table is malformed: %v", err))
	}
	return &FallbackTable{entries: raw}
}

// Lookup returns the bundled entry for ec, if any.
func (f *FallbackTable) Lookup(ec string) (*Entry, bool) {
	e, ok := f.entries[ec]
	if !ok {
		return nil, false
	}
	kind := MichaelisMenten
	if e.Kind == "mass_action" {
		kind = MassAction
	}
	return &Entry{Kind: kind, Vmax: e.Vmax, Km: e.Km, K: e.K, Estimated: e.Estimated}, true
}
