// Package graph implements a persistent directed multigraph: nodes and
// edges share one slot index space (positive GraphIndex values name
// nodes, negative values name edges), backed by four parallel
// [pkg/dbvec.DbVec][int64] arrays (from, to, fromMeta, toMeta). Adjacency
// lists and the slot free list are both threaded intrusively through
// fromMeta/toMeta, so no separate allocator or adjacency structure is
// needed.
package graph
