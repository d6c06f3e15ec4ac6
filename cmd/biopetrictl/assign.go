package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"

	"github.com/pflow-xyz/biopetri/bgtask"
	"github.com/pflow-xyz/biopetri/kinetics"
	"github.com/pflow-xyz/biopetri/model"
)

func assign(args []string) error {
	fs := flag.NewFlagSet("assign", flag.ExitOnError)
	offline := fs.Bool("offline", false, "Skip the remote enzyme-database tier")
	noise := fs.Bool("noise", false, "Wrap assigned rate functions with multiplicative stochastic noise")
	amplitude := fs.Float64("amplitude", 0.1, "Noise amplitude (with -noise)")
	cache := fs.String("cache", "", "Path to the local enzyme-kinetics SQLite cache")
	remote := fs.String("remote", "", "Base URL of a remote enzyme-kinetics service")
	output := fs.String("output", "", "Write the decorated document here (default: overwrite input)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: biopetrictl assign <model.json> [options]

Decorate every transition with a rate law using the tiered strategy:
explicit law, enzyme-database lookup, structural heuristic, default.
Transitions whose provenance is explicit or user are left untouched.

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
	path := fs.Arg(0)

	doc, err := loadDocument(path)
	if err != nil {
		return err
	}
	m := doc.Model

	var sqlite *kinetics.SQLiteCache
	if *cache != "" {
		sqlite, err = kinetics.OpenSQLiteCache(*cache)
		if err != nil {
			return err
		}
		defer sqlite.Close()
	}
	var rc *kinetics.RemoteClient
	if *remote != "" {
		rc = kinetics.NewRemoteClient(*remote)
	}
	db := kinetics.NewDatabase(sqlite, rc)
	pool := bgtask.NewPool(context.Background(), 4)
	db.UsePool(pool)
	assigner := kinetics.NewAssigner(kinetics.WithDatabase(db))
	defer pool.Wait()

	ids := make([]string, 0, len(m.Transitions))
	for id := range m.Transitions {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	assignOpts := kinetics.AssignOptions{
		OfflineMode:        *offline,
		AddStochasticNoise: *noise,
		NoiseAmplitude:     *amplitude,
	}
	for _, id := range ids {
		t := m.Transitions[id]
		prov := assigner.Assign(context.Background(), t, reactionFromTopology(m, t), m, assignOpts)
		fmt.Printf("%s: %s (%s)\n", id, prov.Source, prov.Confidence)
	}
	for _, w := range assigner.Diagnostics() {
		fmt.Fprintf(os.Stderr, "warning: %s: %s\n", w.Kind, w.Message)
	}

	if *output == "" {
		*output = path
	}
	return saveDocument(doc, *output)
}

// reactionFromTopology derives reaction metadata from the net itself:
// input arcs become substrates, output arcs products, and any EC number
// already recorded on the transition rides along so the database tier can
// use it.
func reactionFromTopology(m *model.Model, t *model.Transition) *kinetics.Reaction {
	r := &kinetics.Reaction{}
	if t.Kinetics != nil && t.Kinetics.Enzyme != nil {
		r.ECNumber = t.Kinetics.Enzyme.ECNumber
		r.EnzymeName = t.Kinetics.Enzyme.EnzymeName
	}
	for _, a := range m.InputArcs(t.ID) {
		r.Substrates = append(r.Substrates, kinetics.Substrate{PlaceID: a.Source, Coefficient: a.Weight})
	}
	for _, a := range m.OutputArcs(t.ID) {
		r.Products = append(r.Products, kinetics.Substrate{PlaceID: a.Target, Coefficient: a.Weight})
	}
	return r
}
