package model

import (
	"encoding/binary"
	stdhash "hash"
	"sort"

	"github.com/consensys/gnark-crypto/hash"

	_ "github.com/consensys/gnark-crypto/ecc/bn254/fr/mimc"
)

// StructuralHash returns a content hash over the model's structure (place
// ids with initial tokens and capacity; transition ids with class, rate and
// rate function; arc endpoints, weights and kinds) but not over execution
// state such as the current marking. A cached incidence.Matrix is only
// valid as long as this hash is unchanged; incidence.Cache rebuilds
// whenever it changes between accesses.
//
// The hash uses the MiMC construction from gnark-crypto rather than a
// stdlib digest, matching the content-addressable id scheme used elsewhere
// in this codebase for model identifiers.
func (m *Model) StructuralHash() [32]byte {
	h := newBlockWriter(hash.MIMC_BN254.New())

	placeIDs := make([]string, 0, len(m.Places))
	for id := range m.Places {
		placeIDs = append(placeIDs, id)
	}
	sort.Strings(placeIDs)
	for _, id := range placeIDs {
		p := m.Places[id]
		h.writeBytes([]byte(id))
		h.writeFloat(p.Initial)
		h.writeFloat(p.Capacity)
	}

	transIDs := make([]string, 0, len(m.Transitions))
	for id := range m.Transitions {
		transIDs = append(transIDs, id)
	}
	sort.Strings(transIDs)
	for _, id := range transIDs {
		t := m.Transitions[id]
		h.writeBytes([]byte(id))
		h.writeBytes([]byte{byte(t.Class)})
		h.writeFloat(t.Rate)
		h.writeBytes([]byte(t.RateFunction))
	}

	arcs := make([]*Arc, len(m.Arcs))
	copy(arcs, m.Arcs)
	sort.Slice(arcs, func(i, j int) bool {
		if arcs[i].Source != arcs[j].Source {
			return arcs[i].Source < arcs[j].Source
		}
		return arcs[i].Target < arcs[j].Target
	})
	for _, a := range arcs {
		h.writeBytes([]byte(a.Source))
		h.writeBytes([]byte(a.Target))
		var wb [8]byte
		binary.BigEndian.PutUint64(wb[:], uint64(a.Weight))
		h.writeBytes(wb[:])
		h.writeBytes([]byte{byte(a.Kind)})
	}

	return h.sum()
}

// blockWriter adapts arbitrary byte streams to the MiMC digest, which only
// accepts whole 32-byte blocks that decode to canonical field elements.
// Data is packed 31 bytes per block with the leading byte left zero, so
// every block stays below the BN254 scalar modulus.
type blockWriter struct {
	h   stdhash.Hash
	buf []byte
}

func newBlockWriter(h stdhash.Hash) *blockWriter {
	return &blockWriter{h: h}
}

func (w *blockWriter) writeBytes(p []byte) {
	w.buf = append(w.buf, p...)
	for len(w.buf) >= 31 {
		var block [32]byte
		copy(block[1:], w.buf[:31])
		w.h.Write(block[:])
		w.buf = w.buf[31:]
	}
}

func (w *blockWriter) writeFloat(f float64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(int64(f*1e9)))
	w.writeBytes(b[:])
}

// sum flushes any partial block, zero-padded, and returns the digest.
func (w *blockWriter) sum() [32]byte {
	if len(w.buf) > 0 {
		var block [32]byte
		copy(block[1:], w.buf)
		w.h.Write(block[:])
		w.buf = w.buf[:0]
	}
	var out [32]byte
	copy(out[:], w.h.Sum(nil))
	return out
}
