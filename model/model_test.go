package model

import "testing"

func TestAddAndValidate(t *testing.T) {
	m := NewModel("glycolysis")
	m.AddPlace(&Place{ID: "glucose", Initial: 10})
	m.AddPlace(&Place{ID: "g6p", Initial: 0})
	m.AddTransition(&Transition{ID: "hexokinase", Class: Stochastic, Rate: 1.0})
	m.AddArc(&Arc{ID: "a1", Source: "glucose", Target: "hexokinase", Weight: 1})
	m.AddArc(&Arc{ID: "a2", Source: "hexokinase", Target: "g6p", Weight: 1})

	if err := m.Validate(); err != nil {
		t.Fatalf("unexpected validation error: %v", err)
	}

	if len(m.InputArcs("hexokinase")) != 1 {
		t.Errorf("expected 1 input arc, got %d", len(m.InputArcs("hexokinase")))
	}
	if len(m.OutputArcs("hexokinase")) != 1 {
		t.Errorf("expected 1 output arc, got %d", len(m.OutputArcs("hexokinase")))
	}
}

func TestValidateRejectsPlaceToPlace(t *testing.T) {
	m := NewModel("bad")
	m.AddPlace(&Place{ID: "p1"})
	m.AddPlace(&Place{ID: "p2"})
	m.AddArc(&Arc{ID: "a1", Source: "p1", Target: "p2"})

	err := m.Validate()
	if err == nil {
		t.Fatal("expected error for place-to-place arc")
	}
}

func TestValidateRejectsUnknownEndpoint(t *testing.T) {
	m := NewModel("bad")
	m.AddPlace(&Place{ID: "p1"})
	m.AddTransition(&Transition{ID: "t1"})
	m.AddArc(&Arc{ID: "a1", Source: "p1", Target: "ghost"})

	err := m.Validate()
	if err == nil {
		t.Fatal("expected error for unknown arc target")
	}
}

func TestRemovePlacePrunesArcs(t *testing.T) {
	m := NewModel("m")
	m.AddPlace(&Place{ID: "p1"})
	m.AddTransition(&Transition{ID: "t1"})
	m.AddArc(&Arc{ID: "a1", Source: "p1", Target: "t1"})

	m.RemovePlace("p1")

	if len(m.Arcs) != 0 {
		t.Errorf("expected arcs touching removed place to be pruned, got %d", len(m.Arcs))
	}
}

func TestInhibitorArcsSeparateFromInputArcs(t *testing.T) {
	m := NewModel("m")
	m.AddPlace(&Place{ID: "p1"})
	m.AddTransition(&Transition{ID: "t1"})
	m.AddArc(&Arc{ID: "a1", Source: "p1", Target: "t1", Kind: Inhibitor})

	if len(m.InputArcs("t1")) != 0 {
		t.Errorf("inhibitor arc must not appear in InputArcs, got %d", len(m.InputArcs("t1")))
	}
	if len(m.InhibitorArcs("t1")) != 1 {
		t.Errorf("expected 1 inhibitor arc, got %d", len(m.InhibitorArcs("t1")))
	}
}

func TestStructuralHashStableAndSensitive(t *testing.T) {
	build := func() *Model {
		m := NewModel("m")
		m.AddPlace(&Place{ID: "p1", Initial: 3})
		m.AddTransition(&Transition{ID: "t1", Class: Timed, Rate: 2})
		m.AddArc(&Arc{ID: "a1", Source: "p1", Target: "t1", Weight: 1})
		return m
	}

	h1 := build().StructuralHash()
	h2 := build().StructuralHash()
	if h1 != h2 {
		t.Error("StructuralHash should be deterministic for identical structure")
	}

	m3 := build()
	m3.Places["p1"].Initial = 99
	h3 := m3.StructuralHash()
	if h1 == h3 {
		t.Error("StructuralHash should change when structural fields change")
	}
}

func TestShouldEnhancePreservesExplicitAndUser(t *testing.T) {
	t1 := &Transition{ID: "t1", Kinetics: &Provenance{Source: SourceExplicit}}
	if ShouldEnhance(t1) {
		t.Error("explicit source must never be enhanced")
	}
	t2 := &Transition{ID: "t2", Kinetics: &Provenance{Source: SourceUser}}
	if ShouldEnhance(t2) {
		t.Error("user source must never be enhanced")
	}
	t3 := &Transition{ID: "t3", Kinetics: &Provenance{Source: SourceDatabase, Confidence: ConfidenceHigh}}
	if ShouldEnhance(t3) {
		t.Error("high-confidence database source must not be enhanced")
	}
	t4 := &Transition{ID: "t4", Kinetics: &Provenance{Source: SourceDatabase, Confidence: ConfidenceMedium}}
	if !ShouldEnhance(t4) {
		t.Error("medium-confidence database source should be enhanceable")
	}
	t5 := &Transition{ID: "t5"}
	if !ShouldEnhance(t5) {
		t.Error("transition with no provenance should be enhanceable")
	}
}

func TestSaveAndRestoreOriginal(t *testing.T) {
	tr := &Transition{
		ID: "t1", Class: Stochastic, Rate: 3.0,
		Parameters: map[string]float64{"k": 0.5},
		Kinetics:   &Provenance{Source: SourceHeuristic},
	}
	SaveOriginal(tr, tr.Kinetics)

	tr.Class = Continuous
	tr.Rate = 0
	tr.RateFunction = "michaelis_menten(p, vmax=10, km=5)"
	tr.Parameters = map[string]float64{"vmax": 10, "km": 5}

	RestoreOriginal(tr)

	if tr.Class != Stochastic || tr.Rate != 3.0 || tr.Parameters["k"] != 0.5 {
		t.Errorf("RestoreOriginal did not roll back fields: %+v", tr)
	}
}

func TestRegistrySwitch(t *testing.T) {
	reg := NewRegistry()
	reg.Register(NewScope("alpha", NewDocument(NewModel("alpha"))))
	reg.Register(NewScope("beta", NewDocument(NewModel("beta"))))

	if reg.Active().Name != "alpha" {
		t.Fatalf("expected first registered scope active, got %s", reg.Active().Name)
	}

	sc, err := reg.Switch("beta")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sc.Name != "beta" || reg.Active().Name != "beta" {
		t.Errorf("expected beta active after switch")
	}

	if _, err := reg.Switch("missing"); err == nil {
		t.Error("expected error switching to unknown scope")
	}
}

type fakeRunner struct{ stopped bool }

func (f *fakeRunner) StopRun() { f.stopped = true }

func TestSwitchPausesPreviousScope(t *testing.T) {
	reg := NewRegistry()
	alpha := NewScope("alpha", nil)
	beta := NewScope("beta", nil)
	reg.Register(alpha)
	reg.Register(beta)

	runner := &fakeRunner{}
	alpha.AttachRunner(runner)

	if _, err := reg.Switch("beta"); err != nil {
		t.Fatal(err)
	}
	if !runner.stopped {
		t.Error("switching scopes must pause the previous scope's simulation")
	}
}

func TestScopeIDsAreUnique(t *testing.T) {
	sc := NewScope("s", nil)
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := sc.NextPlaceID()
		if seen[id] {
			t.Fatalf("duplicate id generated: %s", id)
		}
		seen[id] = true
	}
}
