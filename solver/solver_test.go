package solver

import (
	"math"
	"testing"
)

// decay is du/dt = -k*u, solution u(t) = u0 * exp(-k*t).
func decay(k float64) ODEFunc {
	return func(t float64, u map[string]float64) map[string]float64 {
		return map[string]float64{"s": -k * u["s"]}
	}
}

func TestNewProblem(t *testing.T) {
	prob := NewProblem(decay(1.0), map[string]float64{"s": 10.0}, [2]float64{0, 10})

	if prob.U0["s"] != 10.0 {
		t.Errorf("Expected U0[s]=10.0, got %f", prob.U0["s"])
	}
	if prob.Tspan[0] != 0 || prob.Tspan[1] != 10 {
		t.Errorf("Expected Tspan=[0, 10], got %v", prob.Tspan)
	}
	if prob.F == nil {
		t.Error("ODE function not set")
	}
	if len(prob.stateLabels) != 1 {
		t.Errorf("Expected 1 state label, got %d", len(prob.stateLabels))
	}
}

func TestSolutionGetVariable(t *testing.T) {
	sol := &Solution{
		T: []float64{0, 1, 2},
		U: []map[string]float64{
			{"p1": 10.0, "p2": 0.0},
			{"p1": 5.0, "p2": 5.0},
			{"p1": 0.0, "p2": 10.0},
		},
		StateLabels: []string{"p1", "p2"},
	}

	p1 := sol.GetVariable("p1")
	if len(p1) != 3 {
		t.Fatalf("Expected 3 values, got %d", len(p1))
	}
	if p1[0] != 10.0 || p1[1] != 5.0 || p1[2] != 0.0 {
		t.Errorf("Expected [10, 5, 0], got %v", p1)
	}

	byIndex := sol.GetVariable(1)
	if byIndex[2] != 10.0 {
		t.Errorf("Expected p2[2]=10, got %v", byIndex[2])
	}
	if sol.GetVariable(5) != nil {
		t.Error("out-of-range index must return nil")
	}

	if final := sol.GetFinalState(); final["p2"] != 10.0 {
		t.Errorf("Expected final p2=10, got %v", final["p2"])
	}
	if state := sol.GetState(1); state["p1"] != 5.0 {
		t.Errorf("Expected p1=5.0 at index 1, got %f", state["p1"])
	}
	empty := &Solution{}
	if empty.GetFinalState() != nil {
		t.Error("Expected nil final state for empty solution")
	}
}

func TestSolveExponentialDecay(t *testing.T) {
	for _, method := range []*Solver{Tsit5(), RK45(), RK4()} {
		prob := NewProblem(decay(0.5), map[string]float64{"s": 100.0}, [2]float64{0, 2})
		opts := DefaultOptions()
		if method.Name == "RK4" {
			opts.Adaptive = false
			opts.Dt = 0.001
		}
		sol := Solve(prob, method, opts)

		got := sol.GetFinalState()["s"]
		want := 100.0 * math.Exp(-0.5*2)
		if math.Abs(got-want) > 0.01 {
			t.Errorf("%s: final state = %f, want %f", method.Name, got, want)
		}
	}
}

func TestSolveConservesSum(t *testing.T) {
	// A -> B at rate proportional to A conserves A+B.
	f := func(t float64, u map[string]float64) map[string]float64 {
		flux := 0.3 * u["a"]
		return map[string]float64{"a": -flux, "b": flux}
	}
	prob := NewProblem(f, map[string]float64{"a": 10.0, "b": 0.0}, [2]float64{0, 5})
	sol := Solve(prob, Tsit5(), nil)

	final := sol.GetFinalState()
	if total := final["a"] + final["b"]; math.Abs(total-10.0) > 1e-6 {
		t.Errorf("a+b = %f, want 10", total)
	}
	want := 10.0 * math.Exp(-0.3*5)
	if math.Abs(final["a"]-want) > 0.01 {
		t.Errorf("a = %f, want %f", final["a"], want)
	}
}

func TestImplicitEulerStiffDecay(t *testing.T) {
	// Fast decay that would force tiny explicit steps.
	prob := NewProblem(decay(50.0), map[string]float64{"s": 1.0}, [2]float64{0, 1})
	sol := ImplicitEuler(prob, StiffOptions())

	got := sol.GetFinalState()["s"]
	if got < 0 || got > 0.01 {
		t.Errorf("stiff decay final state = %f, want ~0", got)
	}
}

func TestSolveUntilEquilibrium(t *testing.T) {
	prob := NewProblem(decay(2.0), map[string]float64{"s": 1.0}, [2]float64{0, 100})
	sol, eq := SolveUntilEquilibrium(prob, Tsit5(), nil, DefaultEquilibriumOptions())

	if !eq.Reached {
		t.Fatalf("decay to zero must reach equilibrium, reason: %s", eq.Reason)
	}
	if eq.Time >= 100 {
		t.Errorf("equilibrium detected only at tf, time=%f", eq.Time)
	}
	if final := sol.GetFinalState()["s"]; final > 0.01 {
		t.Errorf("equilibrium state s=%f, want ~0", final)
	}
}
