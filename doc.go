// Package graphdb implements the core of a persistent, in-process graph
// database engine: a record-oriented storage layer with write-ahead
// logging and crash recovery (pkg/storagedata, pkg/wal, pkg/storage), a
// suite of persistent collections built on top of it (pkg/dbvec,
// pkg/dbmap, pkg/indexedmap), and a directed multigraph with traversal
// and path-search primitives (pkg/graph, pkg/search).
//
// Layers are unaware of the layers above them: pkg/storage knows nothing
// of dbvec, dbvec knows nothing of graph. cmd/graphbench wires every
// layer together against a real file and times a search over the result.
package graphdb
