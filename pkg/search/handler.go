package search

import "github.com/calvinalkan/graphdb/pkg/graph"

// Handler is invoked once per element (node or edge) a traversal visits,
// receiving the element's Index and its hop distance from the search
// origin (node→edge and edge→node each count as one hop).
type Handler interface {
	Process(index graph.Index, distance uint64) (Control, error)
}

// HandlerFunc adapts a plain function to a Handler.
type HandlerFunc func(index graph.Index, distance uint64) (Control, error)

// Process calls f.
func (f HandlerFunc) Process(index graph.Index, distance uint64) (Control, error) {
	return f(index, distance)
}

// AcceptAll returns a Handler that records and expands every element. It
// is the Go port of agdb's DefaultHandler, for callers that just want
// every element reachable from the origin.
func AcceptAll() Handler {
	return HandlerFunc(func(graph.Index, uint64) (Control, error) {
		return Continue(true), nil
	})
}
