package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/pflow-xyz/biopetri/incidence"
	"github.com/pflow-xyz/biopetri/model"
)

func loadDocument(path string) (*model.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return model.FromJSON(data)
}

func saveDocument(doc *model.Document, path string) error {
	data, err := doc.ToJSON()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func validate(args []string) error {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: biopetrictl validate <model.json>")
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
	if err := m.Validate(); err != nil {
		return err
	}
	if err := incidence.ValidateBipartite(m); err != nil {
		return err
	}

	fmt.Printf("%s: OK (%d places, %d transitions, %d arcs)\n",
		m.Name, len(m.Places), len(m.Transitions), len(m.Arcs))
	return nil
}
