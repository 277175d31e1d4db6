package graph

// Index is a GraphIndex: a signed slot reference into the graph's shared
// node/edge array space. Positive values name nodes, negative values name
// edges, and zero is the "invalid" sentinel never handed out to callers.
type Index int64

// NoIndex is the sentinel value never returned by an insert operation.
const NoIndex Index = 0

// NodeIndex wraps a node's array slot as its public Index.
func NodeIndex(slot uint64) Index { return Index(slot) } //nolint:gosec

// EdgeIndex wraps an edge's array slot as its public Index.
func EdgeIndex(slot uint64) Index { return Index(-int64(slot)) } //nolint:gosec

// IsNode reports whether i names a node.
func (i Index) IsNode() bool { return i > 0 }

// IsEdge reports whether i names an edge.
func (i Index) IsEdge() bool { return i < 0 }

// Slot returns the underlying array index, valid for both node and edge
// indices (the sign is only the node/edge discriminant). Search uses this
// as the key for its visited bitset, which spec.md defines as keyed by
// |graph_index|.
func (i Index) Slot() uint64 { return i.slot() }

// slot returns the underlying array index, valid for both node and edge
// indices (the sign is only the node/edge discriminant).
func (i Index) slot() uint64 {
	if i < 0 {
		return uint64(-i)
	}

	return uint64(i)
}
