// Command graphbench seeds a graph database with random nodes and edges
// and reports how long breadth-first search and cheapest-path search take
// over the result, exercising pkg/graph, pkg/search, pkg/dbmap, and
// pkg/indexedmap end to end against a real file-backed pkg/storage.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"
)

func main() {
	if err := runCLI(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "graphbench: %v\n", err)
		os.Exit(1)
	}
}

func runCLI(args []string) error {
	fset := pflag.NewFlagSet("graphbench", pflag.ContinueOnError)

	dbPath := fset.String("db", "", "path to the database file (default: graphbench.db)")
	nodes := fset.Int("nodes", 0, "number of nodes to seed")
	edges := fset.Int("edges", 0, "number of random edges to seed")
	seed := fset.Int64("seed", 0, "PRNG seed for edge generation")
	configPath := fset.String("config", "", "path to a JSONC config file (default: .graphbench.jsonc in the working directory)")

	if err := fset.Parse(args); err != nil {
		return err
	}

	set := map[string]bool{
		"db":    fset.Changed("db"),
		"nodes": fset.Changed("nodes"),
		"edges": fset.Changed("edges"),
		"seed":  fset.Changed("seed"),
	}

	workDir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getwd: %w", err)
	}

	overrides := Config{DBPath: *dbPath, Nodes: *nodes, Edges: *edges, Seed: *seed}

	cfg, err := LoadConfig(workDir, *configPath, overrides, set)
	if err != nil {
		return err
	}

	lock, err := acquireLock(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("acquire run lock: %w", err)
	}
	defer lock.release()

	rep, err := run(cfg)
	if err != nil {
		return err
	}

	printReport(cfg, rep)

	return nil
}
