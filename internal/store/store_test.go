package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codemap/internal/graph"
)

func sampleGraph() *graph.Graph {
	g := graph.NewGraph("/proj")
	g.UpsertNode(graph.Node{ID: "file:a.js", Kind: graph.KindFile, Label: "a.js", Meta: graph.Meta{"path": "a.js"}})
	g.UpsertNode(graph.Node{ID: "a.js#f", Kind: graph.KindFunction, Label: "f", Meta: graph.Meta{"name": "f", "file": "a.js"}})
	g.UpsertNode(graph.Node{ID: "a.js#g", Kind: graph.KindFunction, Label: "g", Meta: graph.Meta{"name": "g", "file": "a.js"}})
	g.UpsertNode(graph.Node{ID: "external:jsonwebtoken", Kind: graph.KindExternal, Label: "jsonwebtoken", Meta: graph.Meta{"moduleName": "jsonwebtoken"}})
	g.UpsertEdge(graph.Edge{From: "file:a.js", To: "a.js#f", Kind: graph.KindContains})
	g.UpsertEdge(graph.Edge{From: "file:a.js", To: "a.js#g", Kind: graph.KindContains})
	g.UpsertEdge(graph.Edge{From: "a.js#f", To: "a.js#g", Kind: graph.KindCall, Meta: graph.Meta{"resolved": true, "receiver": "jwt", "moduleName": "jsonwebtoken"}})
	return g
}

func openTestMemory(t *testing.T) *Store {
	t.Helper()
	s, err := OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSaveGraph_RoundTripsNodesAndEdges(t *testing.T) {
	s := openTestMemory(t)
	ctx := context.Background()
	require.NoError(t, s.SaveGraph(ctx, sampleGraph()))

	n, ok, err := s.GetNode(ctx, "a.js#f")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "f", n.Label)
	assert.Equal(t, "f", n.Meta.String("name"))

	nodes, err := s.AllNodes(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, nodes, 4)

	edges, err := s.AllEdges(ctx)
	require.NoError(t, err)
	assert.Len(t, edges, 3)
}

func TestGetNode_MissingIsNotAnError(t *testing.T) {
	s := openTestMemory(t)
	_, ok, err := s.GetNode(context.Background(), "does-not-exist")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSaveGraph_IsIdempotentAcrossRepeatedSaves(t *testing.T) {
	s := openTestMemory(t)
	ctx := context.Background()
	g := sampleGraph()
	require.NoError(t, s.SaveGraph(ctx, g))
	require.NoError(t, s.SaveGraph(ctx, g))

	nodes, err := s.AllNodes(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, nodes, 4)
}

func TestEdgesFromAndTo_FilterByKind(t *testing.T) {
	s := openTestMemory(t)
	ctx := context.Background()
	require.NoError(t, s.SaveGraph(ctx, sampleGraph()))

	callEdges, err := s.EdgesFrom(ctx, "a.js#f", []graph.EdgeKind{graph.KindCall})
	require.NoError(t, err)
	require.Len(t, callEdges, 1)
	assert.Equal(t, "a.js#g", callEdges[0].To)

	containsEdges, err := s.EdgesTo(ctx, "a.js#f", []graph.EdgeKind{graph.KindContains})
	require.NoError(t, err)
	require.Len(t, containsEdges, 1)
	assert.Equal(t, "file:a.js", containsEdges[0].From)
}

func TestSearchByIDOrLabel_MatchesIDSubstring(t *testing.T) {
	s := openTestMemory(t)
	ctx := context.Background()
	require.NoError(t, s.SaveGraph(ctx, sampleGraph()))

	nodes, err := s.SearchByIDOrLabel(ctx, "a.js#g", 10)
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	assert.Equal(t, "a.js#g", nodes[0].ID)
}

func TestSearchByMeta_MatchesNameCaseInsensitive(t *testing.T) {
	s := openTestMemory(t)
	ctx := context.Background()
	require.NoError(t, s.SaveGraph(ctx, sampleGraph()))

	nodes, err := s.SearchByMeta(ctx, "F", 10)
	require.NoError(t, err)
	var ids []string
	for _, n := range nodes {
		ids = append(ids, n.ID)
	}
	assert.Contains(t, ids, "a.js#f")
}

func TestSearchByEdgeAlias_MatchesEdgeReceiver(t *testing.T) {
	s := openTestMemory(t)
	ctx := context.Background()
	require.NoError(t, s.SaveGraph(ctx, sampleGraph()))

	nodes, err := s.SearchByEdgeAlias(ctx, "jwt", 10)
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	assert.Equal(t, "a.js#g", nodes[0].ID)
}

func TestEdgeCounts_OnlyCountsCallKinds(t *testing.T) {
	s := openTestMemory(t)
	ctx := context.Background()
	require.NoError(t, s.SaveGraph(ctx, sampleGraph()))

	in, out, err := s.EdgeCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, in["a.js#g"])
	assert.Equal(t, 1, out["a.js#f"])
	assert.Equal(t, 0, in["file:a.js"])
}

func TestStats_CountsMatchSampleGraph(t *testing.T) {
	s := openTestMemory(t)
	ctx := context.Background()
	require.NoError(t, s.SaveGraph(ctx, sampleGraph()))

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, stats.TotalNodes)
	assert.Equal(t, 3, stats.TotalEdges)
	assert.Equal(t, 2, stats.Functions)
	assert.Equal(t, 1, stats.Files)
	assert.Equal(t, 1, stats.FunctionCalls)
	assert.Equal(t, 0, stats.MethodCalls)
}

func TestSave_FlushesMemoryBackendToDisk(t *testing.T) {
	s := openTestMemory(t)
	ctx := context.Background()
	require.NoError(t, s.SaveGraph(ctx, sampleGraph()))
	assert.True(t, s.Dirty())

	dest := filepath.Join(t.TempDir(), "flushed.sqlite")
	require.NoError(t, s.Save(ctx, dest))

	reopened, err := OpenNative(dest)
	require.NoError(t, err)
	defer reopened.Close()

	n, ok, err := reopened.GetNode(ctx, "a.js#f")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "f", n.Label)
}

func TestResetSchema_IsIdempotent(t *testing.T) {
	s := openTestMemory(t)
	ctx := context.Background()
	require.NoError(t, s.ResetSchema(ctx))
	require.NoError(t, s.ResetSchema(ctx))

	nodes, err := s.AllNodes(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, nodes)
}
