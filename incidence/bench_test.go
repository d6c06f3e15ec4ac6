package incidence

import (
	"fmt"
	"testing"

	"github.com/pflow-xyz/biopetri/model"
)

// chainModel builds a linear chain p0 -> t0 -> p1 -> t1 -> ... of n stages.
func chainModel(n int) (*model.Model, Marking) {
	m := model.NewModel("chain")
	marking := make(Marking, n+1)
	for i := 0; i <= n; i++ {
		id := fmt.Sprintf("p%03d", i)
		m.AddPlace(&model.Place{ID: id, Initial: 1})
		marking[id] = 1
	}
	for i := 0; i < n; i++ {
		tid := fmt.Sprintf("t%03d", i)
		m.AddTransition(&model.Transition{ID: tid})
		m.AddArc(&model.Arc{ID: tid + "in", Source: fmt.Sprintf("p%03d", i), Target: tid, Weight: 1})
		m.AddArc(&model.Arc{ID: tid + "out", Source: tid, Target: fmt.Sprintf("p%03d", i+1), Weight: 1})
	}
	return m, marking
}

func benchmarkFire(b *testing.B, impl Implementation) {
	m, marking := chainModel(100)
	mat, err := Load(m, impl)
	if err != nil {
		b.Fatal(err)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := mat.Fire("t050", marking); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkFireSparse(b *testing.B) { benchmarkFire(b, Sparse) }
func BenchmarkFireDense(b *testing.B)  { benchmarkFire(b, Dense) }
