package search

import "github.com/calvinalkan/graphdb/pkg/graph"

// direction selects which adjacency lists a traversal expands through.
type direction int

const (
	forward direction = iota
	reverse
)

type frontierItem struct {
	index    graph.Index
	distance uint64
}

// frontier is the worklist BFS (FIFO) and DFS (LIFO) share; only the
// order items come back out differs.
type frontier interface {
	push(items []frontierItem)
	pop() (frontierItem, bool)
}

type fifo struct{ items []frontierItem }

func (q *fifo) push(items []frontierItem) { q.items = append(q.items, items...) }

func (q *fifo) pop() (frontierItem, bool) {
	if len(q.items) == 0 {
		return frontierItem{}, false
	}

	item := q.items[0]
	q.items = q.items[1:]

	return item, true
}

// lifo pushes its batch in reverse so that the first item of the batch
// (in the caller's iteration order) ends up on top of the stack and is
// popped next — matching BFS's FIFO behavior of visiting a node's first
// neighbor first, just depth-first instead of breadth-first.
type lifo struct{ items []frontierItem }

func (s *lifo) push(items []frontierItem) {
	for i := len(items) - 1; i >= 0; i-- {
		s.items = append(s.items, items[i])
	}
}

func (s *lifo) pop() (frontierItem, bool) {
	n := len(s.items)
	if n == 0 {
		return frontierItem{}, false
	}

	item := s.items[n-1]
	s.items = s.items[:n-1]

	return item, true
}

// expand returns i's neighbors in the given direction: a node's
// neighbors are its outgoing (forward) or incoming (reverse) edges; an
// edge's sole neighbor is the node at its far end (the "to" endpoint
// going forward, the "from" endpoint going in reverse).
func expand(g *graph.Graph, i graph.Index, dir direction) ([]graph.Index, error) {
	if i.IsNode() {
		var it *graph.EdgeIterator

		var err error
		if dir == forward {
			it, err = g.OutgoingEdges(i)
		} else {
			it, err = g.IncomingEdges(i)
		}

		if err != nil {
			return nil, err
		}

		var out []graph.Index

		for {
			e, ok := it.Next()
			if !ok {
				break
			}

			out = append(out, e)
		}

		return out, nil
	}

	from, to, ok, err := g.Edge(i)
	if err != nil || !ok {
		return nil, err
	}

	if dir == forward {
		return []graph.Index{to}, nil
	}

	return []graph.Index{from}, nil
}

func validIndex(g *graph.Graph, i graph.Index) (bool, error) {
	if i.IsNode() {
		return g.Node(i)
	}

	_, _, ok, err := g.Edge(i)

	return ok, err
}

// traverse runs the shared BFS/DFS engine: pop the frontier, invoke h,
// record the element if kept, and on Continue expand it into the
// frontier, skipping anything already visited. A visited set keyed by
// |graph_index| (graph.Index.Slot) prevents revisiting, per spec.md's
// §4.8 description.
func traverse(g *graph.Graph, origin graph.Index, h Handler, f frontier, dir direction) ([]graph.Index, error) {
	valid, err := validIndex(g, origin)
	if err != nil || !valid {
		return nil, err
	}

	visited := map[uint64]struct{}{origin.Slot(): {}}
	var result []graph.Index

	f.push([]frontierItem{{index: origin, distance: 0}})

	for {
		item, ok := f.pop()
		if !ok {
			break
		}

		control, err := h.Process(item.index, item.distance)
		if err != nil {
			return nil, err
		}

		if control.Keep() {
			result = append(result, item.index)
		}

		if control.shouldFinish() {
			break
		}

		if !control.shouldExpand() {
			continue
		}

		children, err := expand(g, item.index, dir)
		if err != nil {
			return nil, err
		}

		var fresh []frontierItem

		for _, c := range children {
			if _, seen := visited[c.Slot()]; seen {
				continue
			}

			visited[c.Slot()] = struct{}{}
			fresh = append(fresh, frontierItem{index: c, distance: item.distance + 1})
		}

		f.push(fresh)
	}

	return result, nil
}

// BreadthFirstSearch visits g starting at origin, expanding level by
// level through outgoing edges. Returns an empty result, no error, if
// origin names neither a live node nor a live edge.
func BreadthFirstSearch(g *graph.Graph, origin graph.Index, h Handler) ([]graph.Index, error) {
	return traverse(g, origin, h, &fifo{}, forward)
}

// BreadthFirstSearchReverse is [BreadthFirstSearch] expanding through
// incoming edges instead of outgoing.
func BreadthFirstSearchReverse(g *graph.Graph, origin graph.Index, h Handler) ([]graph.Index, error) {
	return traverse(g, origin, h, &fifo{}, reverse)
}

// DepthFirstSearch visits g starting at origin, descending through
// outgoing edges before backtracking.
func DepthFirstSearch(g *graph.Graph, origin graph.Index, h Handler) ([]graph.Index, error) {
	return traverse(g, origin, h, &lifo{}, forward)
}

// DepthFirstSearchReverse is [DepthFirstSearch] expanding through
// incoming edges instead of outgoing.
func DepthFirstSearchReverse(g *graph.Graph, origin graph.Index, h Handler) ([]graph.Index, error) {
	return traverse(g, origin, h, &lifo{}, reverse)
}
