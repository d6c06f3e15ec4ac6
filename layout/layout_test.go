package layout

import (
	"context"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/pflow-xyz/biopetri/model"
)

func TestFindSCCsDetectsCycle(t *testing.T) {
	nodes := []string{"a", "b", "c", "d"}
	arcs := []Edge{
		{Source: "a", Target: "b", Weight: 1},
		{Source: "b", Target: "c", Weight: 1},
		{Source: "c", Target: "a", Weight: 1},
		{Source: "c", Target: "d", Weight: 1},
	}
	sccs := FindSCCs(nodes, arcs)

	var cycles []SCC
	for _, s := range sccs {
		if s.IsCycle {
			cycles = append(cycles, s)
		}
	}
	if len(cycles) != 1 {
		t.Fatalf("expected 1 cycle, got %d (%v)", len(cycles), sccs)
	}
	want := []string{"a", "b", "c"}
	got := cycles[0].Members
	if len(got) != len(want) {
		t.Fatalf("cycle members = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("cycle members = %v, want %v", got, want)
		}
	}
}

func TestFindSCCsSelfLoop(t *testing.T) {
	sccs := FindSCCs([]string{"a", "b"}, []Edge{{Source: "a", Target: "a", Weight: 1}})
	for _, s := range sccs {
		switch s.Members[0] {
		case "a":
			if !s.IsCycle {
				t.Error("self-loop node must form a cycle SCC")
			}
		case "b":
			if s.IsCycle {
				t.Error("isolated node must not form a cycle SCC")
			}
		}
	}
}

func TestClassifyRoles(t *testing.T) {
	m := model.NewModel("roles")
	m.AddPlace(&model.Place{ID: "p1"})
	m.AddPlace(&model.Place{ID: "hub"})
	m.AddTransition(&model.Transition{ID: "t1"})
	for i := 0; i < 8; i++ {
		tid := "ht" + string(rune('a'+i))
		m.AddTransition(&model.Transition{ID: tid})
		m.AddArc(&model.Arc{ID: "a" + tid, Source: "hub", Target: tid, Weight: 1})
	}

	masses := ClassifyRoles(m, []SCC{{Members: []string{"p1"}, IsCycle: true}})

	if masses["p1"] != MassSCCMember {
		t.Errorf("SCC member mass = %v, want %v", masses["p1"], MassSCCMember)
	}
	if masses["hub"] != MassSuperHub {
		t.Errorf("degree-8 node mass = %v, want %v", masses["hub"], MassSuperHub)
	}
	if masses["t1"] != MassTransition {
		t.Errorf("plain transition mass = %v, want %v", masses["t1"], MassTransition)
	}
}

func TestConsolidateParallelArcs(t *testing.T) {
	arcs := []Edge{
		{Source: "a", Target: "b", Weight: 2},
		{Source: "a", Target: "b", Weight: 3},
		{Source: "b", Target: "c", Weight: 1},
	}
	out := ConsolidateParallelArcs(arcs)
	if len(out) != 2 {
		t.Fatalf("expected 2 consolidated arcs, got %d", len(out))
	}
	if out[0].Source != "a" || out[0].Target != "b" || out[0].Weight != 5 {
		t.Errorf("parallel arcs must merge to weight 5, got %+v", out[0])
	}
}

// Parallel arcs must be indistinguishable from a single arc carrying the
// summed weight: identical seeds, identical trajectories.
func TestParallelArcsMatchSummedArc(t *testing.T) {
	build := func(arcs []Edge) []*Node {
		nodes := []*Node{
			{ID: "a", Mass: MassPlace, X: -50},
			{ID: "b", Mass: MassTransition, X: 50},
		}
		eng := NewEngine(nodes, arcs, nil, engineTestOptions())
		if _, err := eng.Run(context.Background()); err != nil {
			t.Fatal(err)
		}
		return nodes
	}

	parallel := build([]Edge{
		{Source: "a", Target: "b", Weight: 2},
		{Source: "a", Target: "b", Weight: 3},
	})
	single := build([]Edge{{Source: "a", Target: "b", Weight: 5}})

	for i := range parallel {
		if parallel[i].X != single[i].X || parallel[i].Y != single[i].Y {
			t.Errorf("node %s: parallel (%v,%v) != single (%v,%v)",
				parallel[i].ID, parallel[i].X, parallel[i].Y, single[i].X, single[i].Y)
		}
	}
}

func engineTestOptions() Options {
	opts := DefaultOptions()
	opts.Iterations = 100
	opts.Rand = rand.New(rand.NewPCG(7, 7))
	return opts
}

// galaxyModel builds a connected 25-node net with one 5-node SCC (three
// places, two transitions, strongly connected) plus two hub transitions
// carrying nine satellite places each.
func galaxyModel() *model.Model {
	m := model.NewModel("galaxy")

	m.AddPlace(&model.Place{ID: "cp1"})
	m.AddPlace(&model.Place{ID: "cp2"})
	m.AddPlace(&model.Place{ID: "cp3"})
	m.AddTransition(&model.Transition{ID: "ct1"})
	m.AddTransition(&model.Transition{ID: "ct2"})
	cycleArcs := [][2]string{
		{"cp1", "ct1"}, {"ct1", "cp2"}, {"cp2", "ct2"},
		{"ct2", "cp3"}, {"cp3", "ct1"}, {"ct1", "cp1"},
	}
	for i, a := range cycleArcs {
		m.AddArc(&model.Arc{ID: "cyc" + string(rune('0'+i)), Source: a[0], Target: a[1], Weight: 1})
	}

	for hi, hub := range []string{"hub1", "hub2"} {
		m.AddTransition(&model.Transition{ID: hub})
		feed := []string{"cp2", "cp3"}[hi]
		m.AddArc(&model.Arc{ID: hub + "-in", Source: feed, Target: hub, Weight: 1})
		for i := 0; i < 9; i++ {
			pid := hub + "-s" + string(rune('a'+i))
			m.AddPlace(&model.Place{ID: pid})
			m.AddArc(&model.Arc{ID: pid + "-arc", Source: hub, Target: pid, Weight: 1})
		}
	}
	return m
}

func TestLayoutConvergence(t *testing.T) {
	if testing.Short() {
		t.Skip("physics simulation")
	}
	m := galaxyModel()
	opts := DefaultOptions()
	opts.Rand = rand.New(rand.NewPCG(11, 11))

	res, err := Arrange(context.Background(), m, opts)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Converged {
		t.Errorf("variance did not stabilize within %d iterations (last variance %v)",
			res.Iterations, res.Variance)
	}

	// SCC members must end closer to each other than to any non-SCC node.
	sccIDs := map[string]bool{"cp1": true, "cp2": true, "cp3": true, "ct1": true, "ct2": true}
	pos := func(id string) (float64, float64) {
		if p, ok := m.Places[id]; ok {
			return p.X, p.Y
		}
		return m.Transitions[id].X, m.Transitions[id].Y
	}
	dist := func(a, b string) float64 {
		ax, ay := pos(a)
		bx, by := pos(b)
		return math.Hypot(ax-bx, ay-by)
	}

	var maxIntra float64
	for a := range sccIDs {
		for b := range sccIDs {
			if d := dist(a, b); d > maxIntra {
				maxIntra = d
			}
		}
	}
	allIDs := make([]string, 0, 25)
	for id := range m.Places {
		allIDs = append(allIDs, id)
	}
	for id := range m.Transitions {
		allIDs = append(allIDs, id)
	}
	for a := range sccIDs {
		for _, b := range allIDs {
			if sccIDs[b] {
				continue
			}
			if d := dist(a, b); d < maxIntra {
				t.Fatalf("SCC member %s is closer to outsider %s (%v) than SCC diameter %v",
					a, b, d, maxIntra)
			}
		}
	}
}

func TestArrangeCancellation(t *testing.T) {
	m := galaxyModel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Arrange(ctx, m, DefaultOptions())
	if err == nil {
		t.Fatal("expected context error from cancelled Arrange")
	}
	for _, p := range m.Places {
		if p.X != 0 || p.Y != 0 {
			t.Fatalf("cancelled Arrange must not write positions, place %s moved", p.ID)
		}
	}
}

// With the ambient term disabled, two unconnected low-mass nodes feel no
// force at all; with it enabled they drift apart.
func TestEnableAmbientGatesUniversalRepulsion(t *testing.T) {
	run := func(ambient bool) float64 {
		nodes := []*Node{
			{ID: "a", Mass: MassPlace, X: -10},
			{ID: "b", Mass: MassPlace, X: 10},
		}
		opts := engineTestOptions()
		opts.EnableAmbient = ambient
		opts.PulsationEnabled = false
		eng := NewEngine(nodes, nil, nil, opts)
		if _, err := eng.Run(context.Background()); err != nil {
			t.Fatal(err)
		}
		return nodes[1].X - nodes[0].X
	}

	if gap := run(false); gap != 20 {
		t.Errorf("with ambient off, unconnected nodes must not move: gap=%v", gap)
	}
	if gap := run(true); gap <= 20 {
		t.Errorf("with ambient on, unconnected nodes must repel: gap=%v", gap)
	}
}

func TestProgressCallbackCadence(t *testing.T) {
	nodes := []*Node{
		{ID: "a", Mass: MassPlace, X: -10},
		{ID: "b", Mass: MassTransition, X: 10},
	}
	var calls int
	opts := engineTestOptions()
	opts.Progress = func(iteration, total int) {
		if iteration%10 != 0 {
			t.Errorf("progress at iteration %d, want multiples of 10", iteration)
		}
		calls++
	}
	eng := NewEngine(nodes, []Edge{{Source: "a", Target: "b", Weight: 1}}, nil, opts)
	if _, err := eng.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if calls != 10 {
		t.Errorf("progress called %d times over 100 iterations, want 10", calls)
	}
}
