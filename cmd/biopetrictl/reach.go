package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/pflow-xyz/biopetri/incidence"
	"github.com/pflow-xyz/biopetri/reachability"
)

func reach(args []string) error {
	fs := flag.NewFlagSet("reach", flag.ExitOnError)
	maxStates := fs.Int("max-states", 10000, "State-space exploration bound")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: biopetrictl reach <model.json> [options]

Explore the discrete state space from the initial marking and report
state counts, deadlocks, and place invariants.

Options:
`)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		fs.Usage()
		return fmt.Errorf("model file required")
	}

	doc, err := loadDocument(fs.Arg(0))
	if err != nil {
		return err
	}
	m := doc.Model

	mat, err := incidence.Build(m)
	if err != nil {
		return err
	}
	initial := make(incidence.Marking, len(m.Places))
	for id, p := range m.Places {
		initial[id] = p.Initial
	}

	g := reachability.Explore(m, mat, initial, reachability.Options{MaxStates: *maxStates})
	fmt.Printf("states: %d  edges: %d  deadlocks: %d", g.StateCount(), len(g.Edges), len(g.Deadlocks()))
	if g.Truncated {
		fmt.Printf("  (truncated at %d states)", *maxStates)
	}
	fmt.Println()

	invs := reachability.FindPInvariants(mat, initial)
	if len(invs) == 0 {
		fmt.Println("no place invariants found")
	}
	for _, inv := range invs {
		fmt.Printf("invariant: %s = %g\n", inv.String(), inv.Value)
	}
	return nil
}
