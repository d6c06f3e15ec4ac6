package incidence

import (
	"crypto/sha256"
	"encoding/binary"
	"math"
	"sort"
)

// Marking is the current token count of every place, keyed by place id.
// Continuous transitions leave fractional counts; discrete transitions
// only ever produce integral values, but the type stays float64 throughout
// so the same marking can flow through both regimes in a single step.
type Marking map[string]float64

// Clone returns an independent copy.
func (m Marking) Clone() Marking {
	out := make(Marking, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Hash returns a stable digest of the marking, order-independent, used by
// callers (e.g. a reachability explorer or a state cache) that need to
// deduplicate markings.
func (m Marking) Hash() [32]byte {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	h := sha256.New()
	var buf [8]byte
	for _, k := range keys {
		h.Write([]byte(k))
		binary.BigEndian.PutUint64(buf[:], math.Float64bits(m[k]))
		h.Write(buf[:])
	}
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}
