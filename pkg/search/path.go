package search

import (
	"container/heap"
	"math"

	"github.com/calvinalkan/graphdb/pkg/graph"
)

// PathHandler is invoked once per candidate element (node or edge) a path
// search considers, at its position in the candidate path. cost == 0
// means the element cannot be traversed at all; the larger the cost, the
// less attractive the path that uses it.
type PathHandler interface {
	Process(index graph.Index, distance uint64) (cost uint64, keep bool, err error)
}

// PathHandlerFunc adapts a plain function to a PathHandler.
type PathHandlerFunc func(index graph.Index, distance uint64) (uint64, bool, error)

// Process calls f.
func (f PathHandlerFunc) Process(index graph.Index, distance uint64) (uint64, bool, error) {
	return f(index, distance)
}

type pathElement struct {
	index graph.Index
	keep  bool
}

// pathCandidate is one partial path on the search worklist: the sequence
// of elements from the origin up to and including its last element
// (always a node), and its accumulated cost. seq records insertion order
// and breaks exact cost+length ties, see pathQueue.Less.
type pathCandidate struct {
	elements []pathElement
	cost     uint64
	seq      int
}

func (p pathCandidate) head() graph.Index { return p.elements[len(p.elements)-1].index }

// pathQueue orders candidates cheapest-first, ties broken toward the
// longer path, further ties broken toward the most recently enqueued —
// the latter reproduces the behavior of agdb's Rust implementation, which
// sorts its worklist with a stable sort and always pops from the tail, so
// that among exactly equal candidates the one pushed last (deeper into an
// already-explored branch) is tried first. See DESIGN.md.
type pathQueue []pathCandidate

func (q pathQueue) Len() int { return len(q) }

func (q pathQueue) Less(i, j int) bool {
	if q[i].cost != q[j].cost {
		return q[i].cost < q[j].cost
	}

	if len(q[i].elements) != len(q[j].elements) {
		return len(q[i].elements) > len(q[j].elements)
	}

	return q[i].seq > q[j].seq
}

func (q pathQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *pathQueue) Push(x any) { *q = append(*q, x.(pathCandidate)) } //nolint:forcetypeassert

func (q *pathQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]

	return item
}

// saturatingAdd adds b to a, clamping at math.MaxUint64 instead of
// wrapping, mirroring agdb's path_search.rs cost-overflow guard.
func saturatingAdd(a, b uint64) uint64 {
	if a > math.MaxUint64-b {
		return math.MaxUint64
	}

	return a + b
}

func keepOnly(elements []pathElement) []graph.Index {
	var out []graph.Index

	for _, e := range elements {
		if e.keep {
			out = append(out, e.index)
		}
	}

	return out
}

// Path finds the cheapest origin→destination path under h: a worklist of
// partial paths is repeatedly expanded from its cheapest (ties toward
// longer) candidate until one reaches destination or the worklist is
// exhausted. Returns a nil slice, no error, if origin == destination, if
// either does not name a live node, or no path connects them — matching
// agdb's path(), which never distinguishes "no path" from an error.
func Path(g *graph.Graph, origin, destination graph.Index, h PathHandler) ([]graph.Index, error) {
	if origin == destination {
		return nil, nil
	}

	liveOrigin, err := g.Node(origin)
	if err != nil {
		return nil, err
	}

	liveDestination, err := g.Node(destination)
	if err != nil {
		return nil, err
	}

	if !liveOrigin || !liveDestination {
		return nil, nil
	}

	_, keep, err := h.Process(origin, 0)
	if err != nil {
		return nil, err
	}

	pq := &pathQueue{{elements: []pathElement{{index: origin, keep: keep}}, cost: 0, seq: 0}}
	seq := 1

	visited := map[uint64]struct{}{}

	for pq.Len() > 0 {
		current := heap.Pop(pq).(pathCandidate) //nolint:forcetypeassert

		head := current.head()
		if _, seen := visited[head.Slot()]; seen {
			continue
		}

		if head == destination {
			return keepOnly(current.elements), nil
		}

		visited[head.Slot()] = struct{}{}

		edges, err := expand(g, head, forward)
		if err != nil {
			return nil, err
		}

		distance := uint64(len(current.elements)) //nolint:gosec

		for _, e := range edges {
			edgeCost, edgeKeep, err := h.Process(e, distance)
			if err != nil {
				return nil, err
			}

			if edgeCost == 0 {
				continue
			}

			_, to, ok, err := g.Edge(e)
			if err != nil {
				return nil, err
			}

			if !ok {
				continue
			}

			if _, seen := visited[to.Slot()]; seen {
				continue
			}

			nodeCost, nodeKeep, err := h.Process(to, distance+1)
			if err != nil {
				return nil, err
			}

			if nodeCost == 0 {
				continue
			}

			elements := make([]pathElement, len(current.elements), len(current.elements)+2)
			copy(elements, current.elements)
			elements = append(elements, pathElement{index: e, keep: edgeKeep}, pathElement{index: to, keep: nodeKeep})

			heap.Push(pq, pathCandidate{
				elements: elements,
				cost:     saturatingAdd(saturatingAdd(current.cost, edgeCost), nodeCost),
				seq:      seq,
			})
			seq++
		}
	}

	return nil, nil
}
