package main

import (
	"fmt"
	"math/rand"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/calvinalkan/graphdb/pkg/dbmap"
	"github.com/calvinalkan/graphdb/pkg/dbvec"
	"github.com/calvinalkan/graphdb/pkg/fs"
	"github.com/calvinalkan/graphdb/pkg/graph"
	"github.com/calvinalkan/graphdb/pkg/indexedmap"
	"github.com/calvinalkan/graphdb/pkg/search"
	"github.com/calvinalkan/graphdb/pkg/storage"
	"github.com/calvinalkan/graphdb/pkg/storagedata"
)

// report holds the timings and sizes graphbench prints after a run.
type report struct {
	nodes         int
	edges         int
	seedDuration  time.Duration
	labelDuration time.Duration
	bfsDuration   time.Duration
	bfsVisited    int
	pathDuration  time.Duration
	pathFound     bool
	pathLength    int
}

// run opens (or creates) the database at cfg.DBPath, seeds it with
// cfg.Nodes nodes and cfg.Edges random edges, attaches a label IndexedMap
// keyed by a fresh uuid per node, and times a breadth-first search and a
// cheapest-path search across the result. The *storage.Storage is always
// closed before returning, even on error.
func run(cfg Config) (report, error) {
	dataPath := cfg.DBPath
	walPath := cfg.DBPath + ".wal"

	fsys := fs.NewReal()

	data, err := storagedata.OpenFile(fsys, dataPath)
	if err != nil {
		return report{}, fmt.Errorf("open data file %s: %w", dataPath, err)
	}

	walData, err := storagedata.OpenFile(fsys, walPath)
	if err != nil {
		return report{}, fmt.Errorf("open wal file %s: %w", walPath, err)
	}

	s, err := storage.Open(data, walData)
	if err != nil {
		return report{}, fmt.Errorf("open storage: %w", err)
	}
	defer s.Close() //nolint:errcheck

	g, err := graph.New(s)
	if err != nil {
		return report{}, fmt.Errorf("new graph: %w", err)
	}

	labels, err := indexedmap.New[uuid.UUID, int64](
		s,
		func(k uuid.UUID) uint64 { return dbmap.HashBytes(k[:]) },
		dbmap.HashInt64,
		uuidCodec{},
		dbvec.Int64Codec{},
	)
	if err != nil {
		return report{}, fmt.Errorf("new label index: %w", err)
	}

	rng := rand.New(rand.NewSource(cfg.Seed)) //nolint:gosec

	var rep report

	seedStart := time.Now()

	nodes, err := seedNodes(g, cfg.Nodes)
	if err != nil {
		return report{}, fmt.Errorf("seed nodes: %w", err)
	}

	if err := seedEdges(g, nodes, cfg.Edges, rng); err != nil {
		return report{}, fmt.Errorf("seed edges: %w", err)
	}

	rep.seedDuration = time.Since(seedStart)
	rep.nodes = len(nodes)
	rep.edges = cfg.Edges

	labelStart := time.Now()

	if err := labelNodes(labels, nodes, int64(1)); err != nil {
		return report{}, fmt.Errorf("label nodes: %w", err)
	}

	rep.labelDuration = time.Since(labelStart)

	origin := nodes[0]

	bfsStart := time.Now()

	visited, err := search.BreadthFirstSearch(g, origin, search.AcceptAll())
	if err != nil {
		return report{}, fmt.Errorf("breadth first search: %w", err)
	}

	rep.bfsDuration = time.Since(bfsStart)
	rep.bfsVisited = len(visited)

	destination := nodes[len(nodes)-1]

	pathStart := time.Now()

	path, err := search.Path(g, origin, destination, unitCostHandler{})
	if err != nil {
		return report{}, fmt.Errorf("path search: %w", err)
	}

	rep.pathDuration = time.Since(pathStart)
	rep.pathFound = path != nil
	rep.pathLength = len(path)

	return rep, nil
}

// seedNodes inserts n nodes and returns their indices in insertion order.
func seedNodes(g *graph.Graph, n int) ([]graph.Index, error) {
	nodes := make([]graph.Index, 0, n)

	for range n {
		idx, err := g.InsertNode()
		if err != nil {
			return nil, err
		}

		nodes = append(nodes, idx)
	}

	return nodes, nil
}

// seedEdges inserts n edges between randomly chosen nodes picked from
// nodes (self-loops included, since the graph data model allows them).
func seedEdges(g *graph.Graph, nodes []graph.Index, n int, rng *rand.Rand) error {
	if len(nodes) == 0 {
		return nil
	}

	for range n {
		from := nodes[rng.Intn(len(nodes))]
		to := nodes[rng.Intn(len(nodes))]

		if _, err := g.InsertEdge(from, to); err != nil {
			return err
		}
	}

	return nil
}

// labelNodes assigns each node a fresh uuid.NewV7 identifier, mapped to
// its insertion-order position (starting at start), via labels.
func labelNodes(labels *indexedmap.IndexedMap[uuid.UUID, int64], nodes []graph.Index, start int64) error {
	for i := range nodes {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("new uuid: %w", err)
		}

		if err := labels.Insert(id, start+int64(i)); err != nil {
			return err
		}
	}

	return nil
}

// uuidCodec stores a uuid.UUID inline as its raw 16 bytes, the same
// fixed-size inline pattern as dbvec.Int64Codec.
type uuidCodec struct{}

func (uuidCodec) StorageLen() uint64 { return 16 }

func (uuidCodec) Store(_ *storage.Storage, v uuid.UUID) ([]byte, error) {
	b := make([]byte, 16)
	copy(b, v[:])

	return b, nil
}

func (uuidCodec) Load(_ *storage.Storage, slot []byte) (uuid.UUID, error) {
	var v uuid.UUID

	copy(v[:], slot)

	return v, nil
}

func (uuidCodec) Remove(*storage.Storage, []byte) error { return nil }

// unitCostHandler assigns every node and edge a uniform cost of 1 and
// keeps every element, the simplest PathHandler that still finds the
// shortest (by hop count) path.
type unitCostHandler struct{}

func (unitCostHandler) Process(graph.Index, uint64) (uint64, bool, error) {
	return 1, true, nil
}

func printReport(cfg Config, rep report) {
	fmt.Printf("graphbench: %s\n", filepath.Clean(cfg.DBPath))
	fmt.Printf("  seeded     %d nodes, %d edges in %s\n", rep.nodes, rep.edges, rep.seedDuration)
	fmt.Printf("  labeled    %d nodes in %s\n", rep.nodes, rep.labelDuration)
	fmt.Printf("  bfs        visited %d nodes/edges in %s\n", rep.bfsVisited, rep.bfsDuration)

	if rep.pathFound {
		fmt.Printf("  path       found, %d elements, in %s\n", rep.pathLength, rep.pathDuration)
	} else {
		fmt.Printf("  path       none found, in %s\n", rep.pathDuration)
	}
}
