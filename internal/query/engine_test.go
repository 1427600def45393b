package query

import (
	"context"
	"testing"

	"codemap/internal/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetNode_MissingReturnsNilNoError(t *testing.T) {
	e := NewEngine(newFakeReader())
	n, err := e.GetNode(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, n)
}

func TestGetCallersAndCallees_DedupSameTarget(t *testing.T) {
	f := newFakeReader()
	f.addNode(fn("a")).addNode(fn("b"))
	f.addEdge("a", "b", graph.KindCall)
	f.addEdge("a", "b", graph.KindMethodCall)
	e := NewEngine(f)

	callees, err := e.GetCallees(context.Background(), "a", NewOptions())
	require.NoError(t, err)
	require.Len(t, callees, 1)
	assert.Equal(t, "b", callees[0].ID)

	callers, err := e.GetCallers(context.Background(), "b", NewOptions())
	require.NoError(t, err)
	require.Len(t, callers, 1)
	assert.Equal(t, "a", callers[0].ID)
}

func TestGetFunctionsInFile_ContainsEdgesOnly(t *testing.T) {
	f := newFakeReader()
	file := graph.Node{ID: "file:a.js", Kind: graph.KindFile}
	f.addNode(file).addNode(fn("file:a.js#f1")).addNode(fn("file:a.js#f2"))
	f.addEdge(file.ID, "file:a.js#f1", graph.KindContains)
	f.addEdge(file.ID, "file:a.js#f2", graph.KindContains)
	f.addEdge("file:a.js#f1", "file:a.js#f2", graph.KindCall)
	e := NewEngine(f)

	results, err := e.GetFunctionsInFile(context.Background(), file.ID, NewOptions())
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestHotspots_ScoreIsInTimesOut(t *testing.T) {
	f := newFakeReader()
	f.addNode(fn("hub")).addNode(fn("caller1")).addNode(fn("caller2")).addNode(fn("callee1"))
	f.addEdge("caller1", "hub", graph.KindCall)
	f.addEdge("caller2", "hub", graph.KindCall)
	f.addEdge("hub", "callee1", graph.KindCall)
	e := NewEngine(f)

	hotspots, err := e.Hotspots(context.Background(), 10, NewOptions())
	require.NoError(t, err)
	require.NotEmpty(t, hotspots)
	assert.Equal(t, "hub", hotspots[0].Node.ID)
	assert.Equal(t, 2, hotspots[0].In)
	assert.Equal(t, 1, hotspots[0].Out)
	assert.Equal(t, 2, hotspots[0].Score)
}

// TestHotspots_TieBrokenByIDAscending checks two equal-score nodes
// sort by ID ascending.
func TestHotspots_TieBrokenByIDAscending(t *testing.T) {
	f := newFakeReader()
	f.addNode(fn("z")).addNode(fn("a")).addNode(fn("in1")).addNode(fn("out1"))
	f.addEdge("in1", "z", graph.KindCall)
	f.addEdge("z", "out1", graph.KindCall)
	f.addEdge("in1", "a", graph.KindCall)
	f.addEdge("a", "out1", graph.KindCall)
	e := NewEngine(f)

	hotspots, err := e.Hotspots(context.Background(), 10, NewOptions())
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(hotspots), 2)
	assert.Equal(t, "a", hotspots[0].Node.ID)
	assert.Equal(t, "z", hotspots[1].Node.ID)
}

func TestHotspots_TopCapsResultCount(t *testing.T) {
	f := newFakeReader()
	f.addNode(fn("hub")).addNode(fn("in1")).addNode(fn("out1"))
	f.addEdge("in1", "hub", graph.KindCall)
	f.addEdge("hub", "out1", graph.KindCall)
	e := NewEngine(f)

	hotspots, err := e.Hotspots(context.Background(), 1, NewOptions())
	require.NoError(t, err)
	assert.Len(t, hotspots, 1)
}

func TestGetSemanticStats_CountsMatchChain(t *testing.T) {
	e := NewEngine(buildChain())
	stats, err := e.GetSemanticStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalNodes)
	assert.Equal(t, 2, stats.TotalEdges)
	assert.Equal(t, 3, stats.Functions)
	assert.Equal(t, 2, stats.FunctionCalls)
}
