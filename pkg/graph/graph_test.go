package graph

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/calvinalkan/graphdb/pkg/storage"
	"github.com/calvinalkan/graphdb/pkg/storagedata"
)

func newTestGraph(t *testing.T) *Graph {
	t.Helper()

	s, err := storage.Open(storagedata.NewMemory(), storagedata.NewMemory())
	require.NoError(t, err)

	g, err := New(s)
	require.NoError(t, err)

	return g
}

func drainEdges(t *testing.T, it *EdgeIterator) []Index {
	t.Helper()

	var out []Index

	for {
		e, ok := it.Next()
		if !ok {
			break
		}

		out = append(out, e)
	}

	return out
}

func Test_Graph_InsertNode(t *testing.T) {
	g := newTestGraph(t)

	n, err := g.InsertNode()
	require.NoError(t, err)
	require.Equal(t, Index(1), n)

	live, err := g.Node(n)
	require.NoError(t, err)
	require.True(t, live)
}

func Test_Graph_InsertNode_AfterRemoval_ReusesSlot(t *testing.T) {
	g := newTestGraph(t)

	_, err := g.InsertNode()
	require.NoError(t, err)

	n2, err := g.InsertNode()
	require.NoError(t, err)

	_, err = g.InsertNode()
	require.NoError(t, err)

	require.NoError(t, g.RemoveNode(n2))

	n4, err := g.InsertNode()
	require.NoError(t, err)
	require.Equal(t, n2, n4)
}

func Test_Graph_NodeCount(t *testing.T) {
	g := newTestGraph(t)

	count, err := g.NodeCount()
	require.NoError(t, err)
	require.Equal(t, uint64(0), count)

	_, err = g.InsertNode()
	require.NoError(t, err)
	n2, err := g.InsertNode()
	require.NoError(t, err)
	_, err = g.InsertNode()
	require.NoError(t, err)

	count, err = g.NodeCount()
	require.NoError(t, err)
	require.Equal(t, uint64(3), count)

	require.NoError(t, g.RemoveNode(n2))

	count, err = g.NodeCount()
	require.NoError(t, err)
	require.Equal(t, uint64(2), count)
}

func Test_Graph_Node_Missing(t *testing.T) {
	g := newTestGraph(t)

	live, err := g.Node(Index(1))
	require.NoError(t, err)
	require.False(t, live)
}

func Test_Graph_InsertEdge(t *testing.T) {
	g := newTestGraph(t)

	from, err := g.InsertNode()
	require.NoError(t, err)
	to, err := g.InsertNode()
	require.NoError(t, err)

	e, err := g.InsertEdge(from, to)
	require.NoError(t, err)
	require.Equal(t, Index(-3), e)

	gotFrom, gotTo, ok, err := g.Edge(e)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, from, gotFrom)
	require.Equal(t, to, gotTo)
}

func Test_Graph_Edge_Missing(t *testing.T) {
	g := newTestGraph(t)

	_, _, ok, err := g.Edge(Index(-3))
	require.NoError(t, err)
	require.False(t, ok)
}

func Test_Graph_InsertEdge_InvalidFrom(t *testing.T) {
	g := newTestGraph(t)

	_, err := g.InsertEdge(Index(1), Index(2))
	require.ErrorIs(t, err, ErrInvalidIndex)
}

func Test_Graph_InsertEdge_InvalidTo(t *testing.T) {
	g := newTestGraph(t)

	from, err := g.InsertNode()
	require.NoError(t, err)

	_, err = g.InsertEdge(from, Index(2))
	require.ErrorIs(t, err, ErrInvalidIndex)
}

func Test_Graph_InsertEdge_AfterRemoved_ReusesSlot(t *testing.T) {
	g := newTestGraph(t)

	from, err := g.InsertNode()
	require.NoError(t, err)
	to, err := g.InsertNode()
	require.NoError(t, err)

	e, err := g.InsertEdge(from, to)
	require.NoError(t, err)

	require.NoError(t, g.RemoveEdge(e))

	e2, err := g.InsertEdge(from, to)
	require.NoError(t, err)
	require.Equal(t, e, e2)
}

func Test_Graph_InsertEdge_AfterSeveralRemoved_ReusesLIFO(t *testing.T) {
	g := newTestGraph(t)

	from, err := g.InsertNode()
	require.NoError(t, err)
	to, err := g.InsertNode()
	require.NoError(t, err)

	e1, err := g.InsertEdge(from, to)
	require.NoError(t, err)
	e2, err := g.InsertEdge(from, to)
	require.NoError(t, err)
	_, err = g.InsertEdge(from, to)
	require.NoError(t, err)

	require.NoError(t, g.RemoveEdge(e1))
	require.NoError(t, g.RemoveEdge(e2))

	e4, err := g.InsertEdge(from, to)
	require.NoError(t, err)
	require.Equal(t, e2, e4)
}

func Test_Graph_EdgeIteration_NewestFirst(t *testing.T) {
	g := newTestGraph(t)

	node1, err := g.InsertNode()
	require.NoError(t, err)
	node2, err := g.InsertNode()
	require.NoError(t, err)

	edge1, err := g.InsertEdge(node1, node2)
	require.NoError(t, err)
	edge2, err := g.InsertEdge(node1, node2)
	require.NoError(t, err)
	edge3, err := g.InsertEdge(node1, node2)
	require.NoError(t, err)

	it, err := g.OutgoingEdges(node1)
	require.NoError(t, err)

	require.Equal(t, []Index{edge3, edge2, edge1}, drainEdges(t, it))
}

func Test_Graph_RoundTrip_OutgoingAndIncoming(t *testing.T) {
	g := newTestGraph(t)

	a, err := g.InsertNode()
	require.NoError(t, err)
	b, err := g.InsertNode()
	require.NoError(t, err)

	e, err := g.InsertEdge(a, b)
	require.NoError(t, err)

	outIt, err := g.OutgoingEdges(a)
	require.NoError(t, err)
	require.Equal(t, []Index{e}, drainEdges(t, outIt))

	inIt, err := g.IncomingEdges(b)
	require.NoError(t, err)
	require.Equal(t, []Index{e}, drainEdges(t, inIt))

	require.NoError(t, g.RemoveEdge(e))

	outIt, err = g.OutgoingEdges(a)
	require.NoError(t, err)
	require.Empty(t, drainEdges(t, outIt))

	inIt, err = g.IncomingEdges(b)
	require.NoError(t, err)
	require.Empty(t, drainEdges(t, inIt))
}

func Test_Graph_RemoveEdge_Middle_KeepsNeighbors(t *testing.T) {
	g := newTestGraph(t)

	from, err := g.InsertNode()
	require.NoError(t, err)
	to, err := g.InsertNode()
	require.NoError(t, err)

	e1, err := g.InsertEdge(from, to)
	require.NoError(t, err)
	e2, err := g.InsertEdge(from, to)
	require.NoError(t, err)
	e3, err := g.InsertEdge(from, to)
	require.NoError(t, err)

	require.NoError(t, g.RemoveEdge(e2))

	_, _, ok, err := g.Edge(e1)
	require.NoError(t, err)
	require.True(t, ok)

	_, _, ok, err = g.Edge(e2)
	require.NoError(t, err)
	require.False(t, ok)

	_, _, ok, err = g.Edge(e3)
	require.NoError(t, err)
	require.True(t, ok)
}

func Test_Graph_RemoveEdge_Missing_IsNoop(t *testing.T) {
	g := newTestGraph(t)

	require.NoError(t, g.RemoveEdge(Index(-3)))
}

func Test_Graph_RemoveEdge_Circular(t *testing.T) {
	g := newTestGraph(t)

	n, err := g.InsertNode()
	require.NoError(t, err)

	e, err := g.InsertEdge(n, n)
	require.NoError(t, err)

	require.NoError(t, g.RemoveEdge(e))

	_, _, ok, err := g.Edge(e)
	require.NoError(t, err)
	require.False(t, ok)
}

func Test_Graph_RemoveNode_Only(t *testing.T) {
	g := newTestGraph(t)

	n, err := g.InsertNode()
	require.NoError(t, err)

	require.NoError(t, g.RemoveNode(n))

	live, err := g.Node(n)
	require.NoError(t, err)
	require.False(t, live)
}

func Test_Graph_RemoveNode_Missing_IsNoop(t *testing.T) {
	g := newTestGraph(t)

	require.NoError(t, g.RemoveNode(Index(1)))
}

func Test_Graph_RemoveNode_CircularEdge(t *testing.T) {
	g := newTestGraph(t)

	n, err := g.InsertNode()
	require.NoError(t, err)

	e, err := g.InsertEdge(n, n)
	require.NoError(t, err)

	require.NoError(t, g.RemoveNode(n))

	live, err := g.Node(n)
	require.NoError(t, err)
	require.False(t, live)

	_, _, ok, err := g.Edge(e)
	require.NoError(t, err)
	require.False(t, ok)
}

func Test_Graph_RemoveNode_RemovesIncidentEdgesOnly(t *testing.T) {
	g := newTestGraph(t)

	node1, err := g.InsertNode()
	require.NoError(t, err)
	node2, err := g.InsertNode()
	require.NoError(t, err)
	node3, err := g.InsertNode()
	require.NoError(t, err)

	edge1, err := g.InsertEdge(node1, node2)
	require.NoError(t, err)
	edge2, err := g.InsertEdge(node1, node1)
	require.NoError(t, err)
	edge3, err := g.InsertEdge(node1, node3)
	require.NoError(t, err)
	edge4, err := g.InsertEdge(node2, node1)
	require.NoError(t, err)
	edge5, err := g.InsertEdge(node3, node1)
	require.NoError(t, err)
	edge6, err := g.InsertEdge(node3, node2)
	require.NoError(t, err)
	edge7, err := g.InsertEdge(node2, node3)
	require.NoError(t, err)

	require.NoError(t, g.RemoveNode(node1))

	live, err := g.Node(node1)
	require.NoError(t, err)
	require.False(t, live)

	for _, e := range []Index{edge1, edge2, edge3, edge4, edge5} {
		_, _, ok, err := g.Edge(e)
		require.NoError(t, err)
		require.False(t, ok, "edge %d should have been removed", e)
	}

	for _, n := range []Index{node2, node3} {
		live, err := g.Node(n)
		require.NoError(t, err)
		require.True(t, live)
	}

	for _, e := range []Index{edge6, edge7} {
		_, _, ok, err := g.Edge(e)
		require.NoError(t, err)
		require.True(t, ok)
	}
}

func Test_Graph_NodeIteration(t *testing.T) {
	g := newTestGraph(t)

	var want []Index

	for i := 0; i < 3; i++ {
		n, err := g.InsertNode()
		require.NoError(t, err)
		want = append(want, n)
	}

	it, err := g.NodeIter()
	require.NoError(t, err)

	var got []Index

	for {
		n, ok := it.Next()
		if !ok {
			break
		}

		got = append(got, n)
	}

	require.Equal(t, want, got)
}

func Test_Graph_NodeIteration_WithRemovedNodes(t *testing.T) {
	g := newTestGraph(t)

	var nodes []Index

	for i := 0; i < 5; i++ {
		n, err := g.InsertNode()
		require.NoError(t, err)
		nodes = append(nodes, n)
	}

	require.NoError(t, g.RemoveNode(nodes[1]))
	require.NoError(t, g.RemoveNode(nodes[4]))

	it, err := g.NodeIter()
	require.NoError(t, err)

	var got []Index

	for {
		n, ok := it.Next()
		if !ok {
			break
		}

		got = append(got, n)
	}

	require.Equal(t, []Index{nodes[0], nodes[2], nodes[3]}, got)
}

func Test_Graph_PersistsAcrossReopen(t *testing.T) {
	data := storagedata.NewMemory()
	walData := storagedata.NewMemory()

	s, err := storage.Open(data, walData)
	require.NoError(t, err)

	g, err := New(s)
	require.NoError(t, err)

	node1, err := g.InsertNode()
	require.NoError(t, err)
	node2, err := g.InsertNode()
	require.NoError(t, err)
	node3, err := g.InsertNode()
	require.NoError(t, err)

	edge1, err := g.InsertEdge(node1, node2)
	require.NoError(t, err)
	edge2, err := g.InsertEdge(node2, node3)
	require.NoError(t, err)
	edge3, err := g.InsertEdge(node3, node1)
	require.NoError(t, err)

	index := g.Index()

	require.NoError(t, s.Close())

	s2, err := storage.Open(data, walData)
	require.NoError(t, err)

	g2, err := Open(s2, index)
	require.NoError(t, err)

	for _, n := range []Index{node1, node2, node3} {
		live, err := g2.Node(n)
		require.NoError(t, err)
		require.True(t, live)
	}

	for _, e := range []Index{edge1, edge2, edge3} {
		_, _, ok, err := g2.Edge(e)
		require.NoError(t, err)
		require.True(t, ok)
	}
}
