package graph

import (
	"fmt"
	"math"

	"github.com/calvinalkan/graphdb/pkg/dbvec"
	"github.com/calvinalkan/graphdb/pkg/storage"
)

// freeListEnd terminates the slot free list threaded through fromMeta[0].
// It is i64::MIN rather than 0 because 0 is already the "no adjacency"
// terminator used within an individual from/to chain, per spec.md's
// DESIGN NOTES.
const freeListEnd = int64(math.MinInt64)

// Graph is a persistent directed multigraph. Nodes and edges share one
// slot index space: array slot n backs node index n and edge index -n,
// never both at once. Slot 0 is reserved: fromMeta[0] holds the free-list
// head and toMeta[0] holds the live node count.
type Graph struct {
	storage *storage.Storage
	index   storage.StorageIndex

	from     *dbvec.DbVec[int64]
	to       *dbvec.DbVec[int64]
	fromMeta *dbvec.DbVec[int64]
	toMeta   *dbvec.DbVec[int64]
}

// New allocates a new, empty Graph.
func New(s *storage.Storage) (*Graph, error) {
	txn := s.Transaction()

	from, err := dbvec.New[int64](s, dbvec.Int64Codec{})
	if err != nil {
		return nil, fmt.Errorf("graph: allocate from: %w", err)
	}

	to, err := dbvec.New[int64](s, dbvec.Int64Codec{})
	if err != nil {
		return nil, fmt.Errorf("graph: allocate to: %w", err)
	}

	fromMeta, err := dbvec.New[int64](s, dbvec.Int64Codec{})
	if err != nil {
		return nil, fmt.Errorf("graph: allocate fromMeta: %w", err)
	}

	toMeta, err := dbvec.New[int64](s, dbvec.Int64Codec{})
	if err != nil {
		return nil, fmt.Errorf("graph: allocate toMeta: %w", err)
	}

	if err := from.Push(0); err != nil {
		return nil, err
	}

	if err := to.Push(0); err != nil {
		return nil, err
	}

	if err := fromMeta.Push(freeListEnd); err != nil {
		return nil, err
	}

	if err := toMeta.Push(0); err != nil {
		return nil, err
	}

	idx, err := s.Insert(header{from: from.Index(), to: to.Index(), fromMeta: fromMeta.Index(), toMeta: toMeta.Index()})
	if err != nil {
		return nil, fmt.Errorf("graph: allocate header: %w", err)
	}

	if err := s.Commit(txn); err != nil {
		return nil, err
	}

	return &Graph{storage: s, index: idx, from: from, to: to, fromMeta: fromMeta, toMeta: toMeta}, nil
}

// Open wraps an existing Graph header record.
func Open(s *storage.Storage, index storage.StorageIndex) (*Graph, error) {
	var h header
	if err := s.Value(index, &h); err != nil {
		return nil, fmt.Errorf("graph: read header: %w", err)
	}

	return &Graph{
		storage:  s,
		index:    index,
		from:     dbvec.Open[int64](s, h.from, dbvec.Int64Codec{}),
		to:       dbvec.Open[int64](s, h.to, dbvec.Int64Codec{}),
		fromMeta: dbvec.Open[int64](s, h.fromMeta, dbvec.Int64Codec{}),
		toMeta:   dbvec.Open[int64](s, h.toMeta, dbvec.Int64Codec{}),
	}, nil
}

// Index returns the StorageIndex of the graph's header record.
func (g *Graph) Index() storage.StorageIndex { return g.index }

// NodeCount returns the number of currently live nodes.
func (g *Graph) NodeCount() (uint64, error) {
	n, err := g.toMeta.Value(0)
	if err != nil {
		return 0, err
	}

	return uint64(n), nil
}

func (g *Graph) capacity() (uint64, error) { return g.from.Len() }

func (g *Graph) popFreeSlot() (uint64, bool, error) {
	head, err := g.fromMeta.Value(0)
	if err != nil {
		return 0, false, err
	}

	if head == freeListEnd {
		return 0, false, nil
	}

	slot := uint64(head)

	next, err := g.fromMeta.Value(slot)
	if err != nil {
		return 0, false, err
	}

	if err := g.fromMeta.Replace(0, next); err != nil {
		return 0, false, err
	}

	return slot, true, nil
}

func (g *Graph) pushFreeSlot(slot uint64) error {
	head, err := g.fromMeta.Value(0)
	if err != nil {
		return err
	}

	if err := g.fromMeta.Replace(slot, head); err != nil {
		return err
	}

	return g.fromMeta.Replace(0, int64(slot)) //nolint:gosec
}

// isFreeSlot walks the free list looking for slot. The free list is
// normally short relative to a healthy graph's churn; this is O(freelist
// length) per call, acceptable for the node-liveness check it backs.
func (g *Graph) isFreeSlot(slot uint64) (bool, error) {
	head, err := g.fromMeta.Value(0)
	if err != nil {
		return false, err
	}

	for head != freeListEnd {
		if uint64(head) == slot {
			return true, nil
		}

		next, err := g.fromMeta.Value(uint64(head))
		if err != nil {
			return false, err
		}

		head = next
	}

	return false, nil
}

func (g *Graph) allocateSlot() (uint64, error) {
	slot, ok, err := g.popFreeSlot()
	if err != nil {
		return 0, err
	}

	if ok {
		return slot, nil
	}

	slot, err = g.capacity()
	if err != nil {
		return 0, err
	}

	if err := g.from.Push(0); err != nil {
		return 0, err
	}

	if err := g.to.Push(0); err != nil {
		return 0, err
	}

	if err := g.fromMeta.Push(0); err != nil {
		return 0, err
	}

	if err := g.toMeta.Push(0); err != nil {
		return 0, err
	}

	return slot, nil
}

// isLiveNode reports whether slot currently holds a node. A node slot and
// a free slot are both zero in from/to (only edges occupy those fields),
// so liveness additionally requires that slot is absent from the free
// list.
func (g *Graph) isLiveNode(slot uint64) (bool, error) {
	if slot == 0 {
		return false, nil
	}

	capacity, err := g.capacity()
	if err != nil {
		return false, err
	}

	if slot >= capacity {
		return false, nil
	}

	fv, err := g.from.Value(slot)
	if err != nil {
		return false, err
	}

	tv, err := g.to.Value(slot)
	if err != nil {
		return false, err
	}

	if fv != 0 || tv != 0 {
		return false, nil
	}

	free, err := g.isFreeSlot(slot)
	if err != nil {
		return false, err
	}

	return !free, nil
}

// InsertNode adds a new node and returns its positive Index.
func (g *Graph) InsertNode() (Index, error) {
	txn := g.storage.Transaction()

	slot, err := g.allocateSlot()
	if err != nil {
		return NoIndex, err
	}

	if err := g.fromMeta.Replace(slot, 0); err != nil {
		return NoIndex, err
	}

	if err := g.toMeta.Replace(slot, 0); err != nil {
		return NoIndex, err
	}

	count, err := g.NodeCount()
	if err != nil {
		return NoIndex, err
	}

	if err := g.toMeta.Replace(0, int64(count+1)); err != nil { //nolint:gosec
		return NoIndex, err
	}

	if err := g.storage.Commit(txn); err != nil {
		return NoIndex, err
	}

	return NodeIndex(slot), nil
}

// InsertEdge adds a new edge from→to and returns its negative Index. Both
// endpoints must currently name live nodes.
func (g *Graph) InsertEdge(from, to Index) (Index, error) {
	fromSlot := from.slot()

	liveFrom, err := g.isLiveNode(fromSlot)
	if err != nil {
		return NoIndex, err
	}

	if !from.IsNode() || !liveFrom {
		return NoIndex, fmt.Errorf("%w: %d", ErrInvalidIndex, from)
	}

	toSlot := to.slot()

	liveTo, err := g.isLiveNode(toSlot)
	if err != nil {
		return NoIndex, err
	}

	if !to.IsNode() || !liveTo {
		return NoIndex, fmt.Errorf("%w: %d", ErrInvalidIndex, to)
	}

	txn := g.storage.Transaction()

	slot, err := g.allocateSlot()
	if err != nil {
		return NoIndex, err
	}

	if err := g.from.Replace(slot, int64(fromSlot)); err != nil { //nolint:gosec
		return NoIndex, err
	}

	if err := g.to.Replace(slot, int64(toSlot)); err != nil { //nolint:gosec
		return NoIndex, err
	}

	outHead, err := g.fromMeta.Value(fromSlot)
	if err != nil {
		return NoIndex, err
	}

	if err := g.fromMeta.Replace(slot, outHead); err != nil {
		return NoIndex, err
	}

	if err := g.fromMeta.Replace(fromSlot, -int64(slot)); err != nil { //nolint:gosec
		return NoIndex, err
	}

	inHead, err := g.toMeta.Value(toSlot)
	if err != nil {
		return NoIndex, err
	}

	if err := g.toMeta.Replace(slot, inHead); err != nil {
		return NoIndex, err
	}

	if err := g.toMeta.Replace(toSlot, -int64(slot)); err != nil { //nolint:gosec
		return NoIndex, err
	}

	if err := g.storage.Commit(txn); err != nil {
		return NoIndex, err
	}

	return EdgeIndex(slot), nil
}

// unlink removes the element whose chain-entry value is target from the
// singly-linked list rooted at vec[owner] and threaded through vec for
// subsequent links (fromMeta for outgoing chains, toMeta for incoming).
func unlink(vec *dbvec.DbVec[int64], owner uint64, target int64) error {
	prevOwner := owner

	cur, err := vec.Value(owner)
	if err != nil {
		return err
	}

	for cur != 0 {
		if cur == target {
			next, err := vec.Value(uint64(-target))
			if err != nil {
				return err
			}

			return vec.Replace(prevOwner, next)
		}

		curSlot := uint64(-cur)
		prevOwner = curSlot

		cur, err = vec.Value(curSlot)
		if err != nil {
			return err
		}
	}

	return nil
}

// RemoveEdge deletes edge i. Removing an index that does not name a
// currently live edge is a no-op.
func (g *Graph) RemoveEdge(i Index) error {
	slot := i.slot()

	live, err := g.isLiveEdge(i)
	if err != nil {
		return err
	}

	if !live {
		return nil
	}

	txn := g.storage.Transaction()

	fromSlot, err := g.from.Value(slot)
	if err != nil {
		return err
	}

	toSlot, err := g.to.Value(slot)
	if err != nil {
		return err
	}

	if err := unlink(g.fromMeta, uint64(fromSlot), -int64(slot)); err != nil { //nolint:gosec
		return err
	}

	if err := unlink(g.toMeta, uint64(toSlot), -int64(slot)); err != nil { //nolint:gosec
		return err
	}

	if err := g.from.Replace(slot, 0); err != nil {
		return err
	}

	if err := g.to.Replace(slot, 0); err != nil {
		return err
	}

	if err := g.pushFreeSlot(slot); err != nil {
		return err
	}

	return g.storage.Commit(txn)
}

// RemoveNode deletes node i and every edge incident to it (outgoing and
// incoming). Removing an index that does not name a currently live node
// is a no-op.
func (g *Graph) RemoveNode(i Index) error {
	slot := i.slot()

	if !i.IsNode() {
		return nil
	}

	live, err := g.isLiveNode(slot)
	if err != nil {
		return err
	}

	if !live {
		return nil
	}

	incident := map[uint64]struct{}{}

	out, err := g.fromMeta.Value(slot)
	if err != nil {
		return err
	}

	for out != 0 {
		edgeSlot := uint64(-out)
		incident[edgeSlot] = struct{}{}

		out, err = g.fromMeta.Value(edgeSlot)
		if err != nil {
			return err
		}
	}

	in, err := g.toMeta.Value(slot)
	if err != nil {
		return err
	}

	for in != 0 {
		edgeSlot := uint64(-in)
		incident[edgeSlot] = struct{}{}

		in, err = g.toMeta.Value(edgeSlot)
		if err != nil {
			return err
		}
	}

	txn := g.storage.Transaction()

	for edgeSlot := range incident {
		if err := g.RemoveEdge(EdgeIndex(edgeSlot)); err != nil {
			return err
		}
	}

	count, err := g.NodeCount()
	if err != nil {
		return err
	}

	if err := g.toMeta.Replace(0, int64(count-1)); err != nil { //nolint:gosec
		return err
	}

	if err := g.pushFreeSlot(slot); err != nil {
		return err
	}

	return g.storage.Commit(txn)
}

// Node reports whether i currently names a live node.
func (g *Graph) Node(i Index) (bool, error) {
	if !i.IsNode() {
		return false, nil
	}

	return g.isLiveNode(i.slot())
}

func (g *Graph) isLiveEdge(i Index) (bool, error) {
	if !i.IsEdge() {
		return false, nil
	}

	slot := i.slot()

	capacity, err := g.capacity()
	if err != nil {
		return false, err
	}

	if slot == 0 || slot >= capacity {
		return false, nil
	}

	fv, err := g.from.Value(slot)
	if err != nil {
		return false, err
	}

	tv, err := g.to.Value(slot)
	if err != nil {
		return false, err
	}

	return fv != 0 && tv != 0, nil
}

// Edge returns the (from, to) endpoints of edge i, and whether i currently
// names a live edge.
func (g *Graph) Edge(i Index) (from Index, to Index, ok bool, err error) {
	live, err := g.isLiveEdge(i)
	if err != nil || !live {
		return NoIndex, NoIndex, false, err
	}

	slot := i.slot()

	fv, err := g.from.Value(slot)
	if err != nil {
		return NoIndex, NoIndex, false, err
	}

	tv, err := g.to.Value(slot)
	if err != nil {
		return NoIndex, NoIndex, false, err
	}

	return Index(fv), Index(tv), true, nil
}
