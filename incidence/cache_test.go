package incidence

import (
	"errors"
	"testing"

	"github.com/pflow-xyz/biopetri/model"
)

func TestCacheReusesMatrixUntilStructureChanges(t *testing.T) {
	m := producerConsumer()
	cache := NewCache(Auto)

	first, err := cache.Matrix(m)
	if err != nil {
		t.Fatal(err)
	}
	again, err := cache.Matrix(m)
	if err != nil {
		t.Fatal(err)
	}
	if first != again {
		t.Error("unchanged model must return the cached matrix instance")
	}

	m.AddPlace(&model.Place{ID: "p3"})
	m.AddArc(&model.Arc{ID: "a3", Source: "t1", Target: "p3", Weight: 2})
	rebuilt, err := cache.Matrix(m)
	if err != nil {
		t.Fatal(err)
	}
	if rebuilt == first {
		t.Error("structural edit must invalidate the cached matrix")
	}
	if rebuilt.OutputWeight("t1", "p3") != 2 {
		t.Errorf("rebuilt matrix missing new arc, weight=%d", rebuilt.OutputWeight("t1", "p3"))
	}
}

func TestCacheInvalidateForcesRebuild(t *testing.T) {
	m := producerConsumer()
	cache := NewCache(Auto)

	first, err := cache.Matrix(m)
	if err != nil {
		t.Fatal(err)
	}
	cache.Invalidate()
	second, err := cache.Matrix(m)
	if err != nil {
		t.Fatal(err)
	}
	if first == second {
		t.Error("Invalidate must drop the cached instance")
	}
}

func TestCacheSurfacesStructuralErrors(t *testing.T) {
	m := producerConsumer()
	cache := NewCache(Auto)
	if _, err := cache.Matrix(m); err != nil {
		t.Fatal(err)
	}

	m.AddPlace(&model.Place{ID: "px"})
	m.AddArc(&model.Arc{ID: "bad", Source: "p1", Target: "px", Weight: 1})
	if _, err := cache.Matrix(m); !errors.Is(err, ErrInvalidStructure) {
		t.Fatalf("expected ErrInvalidStructure after bad edit, got %v", err)
	}
}
