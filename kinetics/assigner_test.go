package kinetics

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pflow-xyz/biopetri/bgtask"
	"github.com/pflow-xyz/biopetri/model"
)

func TestExplicitTierUsedVerbatim(t *testing.T) {
	tr := &model.Transition{ID: "t1"}
	r := &Reaction{KineticLaw: &KineticLaw{Kind: MassAction, Parameters: map[string]float64{"k": 3.0}}}

	a := NewAssigner()
	prov := a.Assign(context.Background(), tr, r, model.NewModel("m"), AssignOptions{})

	if prov.Source != model.SourceExplicit || prov.Confidence != model.ConfidenceHigh {
		t.Fatalf("expected explicit/high, got %v/%v", prov.Source, prov.Confidence)
	}
	if tr.Class != model.Stochastic || tr.Rate != 3.0 {
		t.Errorf("expected stochastic class rate=3.0, got %v rate=%v", tr.Class, tr.Rate)
	}
}

func TestPreservationInvariant(t *testing.T) {
	tr := &model.Transition{
		ID: "t1", Class: model.Stochastic, Rate: 3.0,
		Kinetics: &model.Provenance{Source: model.SourceExplicit},
	}
	before := *tr

	a := NewAssigner()
	a.Assign(context.Background(), tr, &Reaction{ECNumber: "1.1.1.1"}, model.NewModel("m"), AssignOptions{})

	if tr.Rate != before.Rate || tr.Class != before.Class {
		t.Errorf("explicit-sourced transition must not be modified: got %+v", tr)
	}
	if tr.Kinetics.Source != model.SourceExplicit {
		t.Error("source must remain explicit")
	}
}

func TestUserPreservedAgainstHeuristic(t *testing.T) {
	tr := &model.Transition{ID: "t1", Rate: 42, Kinetics: &model.Provenance{Source: model.SourceUser}}
	a := NewAssigner()
	a.Assign(context.Background(), tr, &Reaction{}, model.NewModel("m"), AssignOptions{})
	if tr.Rate != 42 {
		t.Errorf("user-sourced rate must be preserved, got %v", tr.Rate)
	}
}

func TestFourTierOrderingSkipsDatabaseWhenExplicitPresent(t *testing.T) {
	var queries int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		queries++
		fmt.Fprint(w, `{"kind": "michaelis_menten", "vmax": 1, "km": 1}`)
	}))
	defer server.Close()
	db := NewDatabase(nil, NewRemoteClient(server.URL))

	a := NewAssigner(WithDatabase(db))
	r := &Reaction{
		ECNumber:   "1.1.1.1",
		KineticLaw: &KineticLaw{Kind: MassAction, Parameters: map[string]float64{"k": 1}},
	}
	tr := &model.Transition{ID: "t1"}
	prov := a.Assign(context.Background(), tr, r, model.NewModel("m"), AssignOptions{})
	if prov.Source != model.SourceExplicit {
		t.Fatalf("expected explicit tier to win, got %v", prov.Source)
	}
	if queries != 0 {
		t.Errorf("database consulted %d times despite explicit law", queries)
	}

	// Without the explicit law, the same reaction reaches the database tier.
	tr2 := &model.Transition{ID: "t2"}
	prov = a.Assign(context.Background(), tr2, &Reaction{ECNumber: "1.1.1.1"}, model.NewModel("m"), AssignOptions{})
	if prov.Source != model.SourceDatabase {
		t.Fatalf("expected database tier, got %v", prov.Source)
	}
	if queries != 1 {
		t.Errorf("expected exactly one remote query, got %d", queries)
	}
}

func TestRemoteLookupThroughPool(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		fmt.Fprint(w, `{"kind": "michaelis_menten", "vmax": 4.5, "km": 0.2}`)
	}))
	defer server.Close()

	pool := bgtask.NewPool(context.Background(), 2)
	db := NewDatabase(nil, NewRemoteClient(server.URL))
	db.UsePool(pool)

	e, err := db.Lookup(context.Background(), "9.9.9.1", false)
	if err != nil {
		t.Fatal(err)
	}
	if e.Origin != "remote" || e.Vmax != 4.5 {
		t.Errorf("pooled remote lookup returned %+v", e)
	}
	if err := pool.Wait(); err != nil {
		t.Fatal(err)
	}
}

func TestPooledRemoteCancellationFallsThrough(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		fmt.Fprint(w, `{"kind": "michaelis_menten", "vmax": 1, "km": 1}`)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	pool := bgtask.NewPool(ctx, 1)
	db := NewDatabase(nil, NewRemoteClient(server.URL))
	db.UsePool(pool)

	// The pool's context is already cancelled, so the remote tier fails
	// and the lookup lands on the bundled fallback.
	e, err := db.Lookup(context.Background(), "1.1.1.1", false)
	if err != nil {
		t.Fatal(err)
	}
	if e.Origin != "fallback" {
		t.Errorf("expected fallback after cancelled pool, got %+v", e)
	}
}

func TestOfflineModeSkipsRemoteTier(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		t.Error("remote tier must not be consulted in offline mode")
	}))
	defer server.Close()
	db := NewDatabase(nil, NewRemoteClient(server.URL))

	a := NewAssigner(WithDatabase(db))
	tr := &model.Transition{ID: "t1"}
	// 1.1.1.1 is in the bundled fallback, so offline lookup still succeeds.
	prov := a.Assign(context.Background(), tr, &Reaction{ECNumber: "1.1.1.1"}, model.NewModel("m"), AssignOptions{OfflineMode: true})
	if prov.Source != model.SourceDatabase {
		t.Fatalf("expected database (fallback) source, got %v", prov.Source)
	}
	if prov.Enzyme == nil || prov.Enzyme.Origin != "fallback" {
		t.Errorf("expected fallback origin, got %+v", prov.Enzyme)
	}
}

func TestHeuristicMassActionForSimpleStoichiometry(t *testing.T) {
	m := model.NewModel("m")
	m.AddPlace(&model.Place{ID: "p1", Initial: 10})
	m.AddPlace(&model.Place{ID: "p2", Initial: 10})
	tr := &model.Transition{ID: "t1"}
	r := &Reaction{Substrates: []Substrate{{PlaceID: "p1", Coefficient: 1}, {PlaceID: "p2", Coefficient: 1}}}

	a := NewAssigner()
	prov := a.Assign(context.Background(), tr, r, m, AssignOptions{})

	if prov.Source != model.SourceHeuristic {
		t.Fatalf("expected heuristic source, got %v", prov.Source)
	}
	if tr.Class != model.Stochastic {
		t.Errorf("expected mass-action -> stochastic, got %v", tr.Class)
	}
	if tr.Parameters["k"] != 0.1 {
		t.Errorf("expected k=0.1 for bimolecular reaction, got %v", tr.Parameters["k"])
	}
}

func TestDefaultTierWhenNoInformation(t *testing.T) {
	tr := &model.Transition{ID: "t1"}
	a := NewAssigner()
	prov := a.Assign(context.Background(), tr, nil, model.NewModel("m"), AssignOptions{})

	if prov.Source != model.SourceDefault {
		t.Fatalf("expected default source, got %v", prov.Source)
	}
	if tr.Class != model.Continuous || tr.Parameters["vmax"] != 10 || tr.Parameters["km"] != 5 {
		t.Errorf("expected continuous vmax=10 km=5, got %+v", tr)
	}
}

func TestSQLiteCacheRoundTrip(t *testing.T) {
	cache, err := OpenSQLiteCache(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer cache.Close()

	entry := &Entry{Kind: MichaelisMenten, Vmax: 9.9, Km: 0.5}
	if err := cache.Store("9.9.9.9", entry); err != nil {
		t.Fatal(err)
	}
	got, err := cache.Lookup("9.9.9.9")
	if err != nil {
		t.Fatal(err)
	}
	if got.Vmax != 9.9 || got.Km != 0.5 {
		t.Errorf("got %+v", got)
	}
}

func TestFallbackTableHasKnownEnzyme(t *testing.T) {
	ft := NewFallbackTable()
	e, ok := ft.Lookup("1.1.1.1")
	if !ok {
		t.Fatal("expected fallback hit for 1.1.1.1")
	}
	if e.Vmax <= 0 {
		t.Errorf("expected positive Vmax, got %v", e.Vmax)
	}
}

func TestNoiseWrapGated(t *testing.T) {
	n := Noise{}
	if n.Wrap("x", 0.1, false) != "x" {
		t.Error("disabled noise must return the expression unchanged")
	}
	wrapped := n.Wrap("x", 0.1, true)
	if wrapped == "x" {
		t.Error("enabled noise must modify the expression")
	}
}
