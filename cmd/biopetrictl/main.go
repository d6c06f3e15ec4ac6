package main

import (
	"fmt"
	"os"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "validate":
		if err := validate(args); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "simulate":
		if err := simulate(args); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "assign":
		if err := assign(args); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "layout":
		if err := layoutCmd(args); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "reach":
		if err := reach(args); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "help", "-h", "--help":
		printUsage()
	case "version", "-v", "--version":
		fmt.Println("biopetrictl version 1.0.0")
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`biopetrictl - hybrid Petri net modeling for biochemical pathways

Usage:
  biopetrictl <command> [arguments]

Commands:
  validate   Check a model's structure (bipartite arcs, id integrity)
  simulate   Run the hybrid simulation over a document
  assign     Decorate transitions with rate laws (explicit/database/heuristic/default)
  layout     Compute an SCC-centered force-directed layout
  reach      Explore the discrete state space and report invariants
  help       Show this help
  version    Show version

Run 'biopetrictl <command> -h' for command-specific options.`)
}
