package graph

// NodeIterator walks every live node in ascending slot order (insertion
// order, absent slot reuse), a snapshot of capacity taken at construction
// time.
type NodeIterator struct {
	g        *Graph
	capacity uint64
	next     uint64
}

// NodeIter returns a [NodeIterator] over g's current nodes.
func (g *Graph) NodeIter() (*NodeIterator, error) {
	capacity, err := g.capacity()
	if err != nil {
		return nil, err
	}

	return &NodeIterator{g: g, capacity: capacity, next: 1}, nil
}

// Next returns the next live node's Index and true, or NoIndex and false
// once every slot has been visited or a storage error terminates
// iteration early.
func (it *NodeIterator) Next() (Index, bool) {
	for it.next < it.capacity {
		slot := it.next
		it.next++

		live, err := it.g.isLiveNode(slot)
		if err != nil {
			it.next = it.capacity

			return NoIndex, false
		}

		if live {
			return NodeIndex(slot), true
		}
	}

	return NoIndex, false
}

// EdgeIterator walks an adjacency list (outgoing or incoming edges of one
// node) newest-first, the order edges were threaded onto the list.
type EdgeIterator struct {
	cur  int64
	err  error
	read func(slot uint64) (int64, error)
}

func newEdgeIterator(head int64, read func(slot uint64) (int64, error)) *EdgeIterator {
	return &EdgeIterator{cur: head, read: read}
}

// Next returns the next edge's Index and true, or NoIndex and false once
// the list is exhausted or a storage error terminates iteration early.
func (it *EdgeIterator) Next() (Index, bool) {
	if it.err != nil || it.cur == 0 {
		return NoIndex, false
	}

	edgeSlot := uint64(-it.cur)

	next, err := it.read(edgeSlot)
	if err != nil {
		it.err = err

		return NoIndex, false
	}

	it.cur = next

	return EdgeIndex(edgeSlot), true
}

// OutgoingEdges returns an [EdgeIterator] over node n's outgoing edges,
// newest-inserted first.
func (g *Graph) OutgoingEdges(n Index) (*EdgeIterator, error) {
	head, err := g.fromMeta.Value(n.slot())
	if err != nil {
		return nil, err
	}

	return newEdgeIterator(head, g.fromMeta.Value), nil
}

// IncomingEdges returns an [EdgeIterator] over node n's incoming edges,
// newest-inserted first.
func (g *Graph) IncomingEdges(n Index) (*EdgeIterator, error) {
	head, err := g.toMeta.Value(n.slot())
	if err != nil {
		return nil, err
	}

	return newEdgeIterator(head, g.toMeta.Value), nil
}
