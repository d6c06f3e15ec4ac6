package incidence

import "github.com/pflow-xyz/biopetri/model"

// Cache memoizes one built Matrix against the model's structural hash:
// matrices are built on demand, invalidated when the hash changes (an
// arc, place, transition, or weight edit), and rebuilt lazily on the next
// access. Not safe for concurrent use; each consumer (a controller, a
// document scope) owns its own Cache.
type Cache struct {
	impl  Implementation
	hash  [32]byte
	mat   Matrix
	valid bool
}

// NewCache returns an empty cache building matrices with impl.
func NewCache(impl Implementation) *Cache {
	return &Cache{impl: impl}
}

// Matrix returns the cached matrix for m, rebuilding it only when m's
// structural hash has changed since the last call.
func (c *Cache) Matrix(m *model.Model) (Matrix, error) {
	h := m.StructuralHash()
	if c.valid && h == c.hash {
		return c.mat, nil
	}
	mat, err := Load(m, c.impl)
	if err != nil {
		return nil, err
	}
	c.mat, c.hash, c.valid = mat, h, true
	return mat, nil
}

// Invalidate drops the cached matrix; the next Matrix call rebuilds.
func (c *Cache) Invalidate() {
	c.mat, c.valid = nil, false
}
