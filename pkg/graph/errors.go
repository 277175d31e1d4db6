package graph

import "errors"

// ErrInvalidIndex is returned (wrapped) when insert_edge's from/to endpoint
// does not name a currently live node.
var ErrInvalidIndex = errors.New("graph: invalid index")
