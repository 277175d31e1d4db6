// Package search implements traversals over a [pkg/graph.Graph]: breadth-
// first and depth-first search (plus their reverse, incoming-edge
// variants), and cheapest-path search. Every traversal is driven by a
// caller-supplied [Handler] invoked once per visited element (node or
// edge), whose [Control] answer decides whether the element is kept in
// the result, whether its neighbors are explored, and whether the whole
// search stops early.
package search
