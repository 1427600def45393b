package query

import (
	"context"
	"testing"

	"codemap/internal/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fn(id string) graph.Node {
	return graph.Node{ID: id, Kind: graph.KindFunction, Label: id}
}

// buildChain wires x -> y -> z as call edges, matching the scenario
// spec §8 uses for hotspot and stats checks.
func buildChain() *fakeReader {
	f := newFakeReader()
	f.addNode(fn("x")).addNode(fn("y")).addNode(fn("z"))
	f.addEdge("x", "y", graph.KindCall)
	f.addEdge("y", "z", graph.KindCall)
	return f
}

func TestTransitiveCalleesFlat_Chain(t *testing.T) {
	e := NewEngine(buildChain())
	results, err := e.TransitiveCalleesFlat(context.Background(), "x", NewOptions())
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "y", results[0].ID)
	assert.Equal(t, "z", results[1].ID)
}

func TestTransitiveCallersFlat_Chain(t *testing.T) {
	e := NewEngine(buildChain())
	results, err := e.TransitiveCallersFlat(context.Background(), "z", NewOptions())
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "y", results[0].ID)
	assert.Equal(t, "x", results[1].ID)
}

// TestTransitiveCalleesFlat_MaxDepthZeroReturnsEmpty checks the literal
// zero-depth boundary (spec §8.3): BFS returns no results, distinct
// from UseDefaultDepth which falls back to DefaultFlatDepth.
func TestTransitiveCalleesFlat_MaxDepthZeroReturnsEmpty(t *testing.T) {
	e := NewEngine(buildChain())
	opts := NewOptions()
	opts.MaxDepth = 0
	results, err := e.TransitiveCalleesFlat(context.Background(), "x", opts)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestTransitiveCalleesFlat_UnsetMaxDepthUsesDefault(t *testing.T) {
	e := NewEngine(buildChain())
	opts := NewOptions()
	results, err := e.TransitiveCalleesFlat(context.Background(), "x", opts)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestTransitiveCalleesFlat_DepthOneStopsAtFirstHop(t *testing.T) {
	e := NewEngine(buildChain())
	opts := NewOptions()
	opts.MaxDepth = 1
	results, err := e.TransitiveCalleesFlat(context.Background(), "x", opts)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "y", results[0].ID)
}

// TestTransitiveFlat_ExcludesStart verifies the traversal never
// reports the start node in its own reachable set, even in a cycle.
func TestTransitiveFlat_ExcludesStart(t *testing.T) {
	f := newFakeReader()
	f.addNode(fn("a")).addNode(fn("b"))
	f.addEdge("a", "b", graph.KindCall)
	f.addEdge("b", "a", graph.KindCall)
	e := NewEngine(f)
	results, err := e.TransitiveCalleesFlat(context.Background(), "a", NewOptions())
	require.NoError(t, err)
	for _, r := range results {
		assert.NotEqual(t, "a", r.ID)
	}
}

// TestTransitiveTree_SelfRecursiveIsCut verifies a function that calls
// itself produces a cut leaf rather than an infinite tree.
func TestTransitiveTree_SelfRecursiveIsCut(t *testing.T) {
	f := newFakeReader()
	f.addNode(fn("r"))
	f.addEdge("r", "r", graph.KindCall)
	e := NewEngine(f)
	tree, err := e.TransitiveCalleesTree(context.Background(), "r", NewOptions())
	require.NoError(t, err)
	require.NotNil(t, tree)
	require.Len(t, tree.Children, 1)
	assert.True(t, tree.Children[0].Cut)
	assert.Equal(t, "r", tree.Children[0].Node.ID)
}

// TestTransitiveTree_TwoCycleTerminates verifies a 2-node cycle
// produces one real hop and a cut leaf back to the start.
func TestTransitiveTree_TwoCycleTerminates(t *testing.T) {
	f := newFakeReader()
	f.addNode(fn("a")).addNode(fn("b"))
	f.addEdge("a", "b", graph.KindCall)
	f.addEdge("b", "a", graph.KindCall)
	e := NewEngine(f)
	tree, err := e.TransitiveCalleesTree(context.Background(), "a", NewOptions())
	require.NoError(t, err)
	require.Len(t, tree.Children, 1)
	b := tree.Children[0]
	assert.False(t, b.Cut)
	require.Len(t, b.Children, 1)
	assert.True(t, b.Children[0].Cut)
	assert.Equal(t, "a", b.Children[0].Node.ID)
}

func TestTransitiveTree_DepthOneHasNoGrandchildren(t *testing.T) {
	e := NewEngine(buildChain())
	opts := NewOptions()
	opts.MaxDepth = 1
	tree, err := e.TransitiveCalleesTree(context.Background(), "x", opts)
	require.NoError(t, err)
	require.Len(t, tree.Children, 1)
	assert.Empty(t, tree.Children[0].Children)
}

// TestTransitiveTree_MaxDepthZeroIsRootOnly checks the literal
// zero-depth boundary (spec §8.3): the tree is just the root, no
// children at all.
func TestTransitiveTree_MaxDepthZeroIsRootOnly(t *testing.T) {
	e := NewEngine(buildChain())
	opts := NewOptions()
	opts.MaxDepth = 0
	tree, err := e.TransitiveCalleesTree(context.Background(), "x", opts)
	require.NoError(t, err)
	require.NotNil(t, tree)
	assert.Equal(t, "x", tree.Node.ID)
	assert.Empty(t, tree.Children)
}

// TestBFSTreeConsistency checks that the set of flat BFS results
// matches the set of nodes appearing anywhere in the DFS tree, for a
// depth deep enough to cover the whole graph.
func TestBFSTreeConsistency(t *testing.T) {
	e := NewEngine(buildChain())
	flat, err := e.TransitiveCalleesFlat(context.Background(), "x", NewOptions())
	require.NoError(t, err)
	tree, err := e.TransitiveCalleesTree(context.Background(), "x", NewOptions())
	require.NoError(t, err)

	flatIDs := map[string]bool{}
	for _, r := range flat {
		flatIDs[r.ID] = true
	}
	treeIDs := map[string]bool{}
	var walk func(n TreeNode)
	walk = func(n TreeNode) {
		if !n.Cut {
			treeIDs[n.Node.ID] = true
		}
		for _, c := range n.Children {
			walk(c)
		}
	}
	for _, c := range tree.Children {
		walk(c)
	}
	assert.Equal(t, flatIDs, treeIDs)
}

func TestAllCallChains_SameStartAndTarget(t *testing.T) {
	e := NewEngine(buildChain())
	chains, err := e.AllCallChains(context.Background(), "x", "x", NewOptions())
	require.NoError(t, err)
	require.Len(t, chains, 1)
	require.Len(t, chains[0], 1)
	assert.Equal(t, "x", chains[0][0].ID)
}

func TestAllCallChains_MissingStartAndTarget(t *testing.T) {
	e := NewEngine(buildChain())
	chains, err := e.AllCallChains(context.Background(), "nope", "nope", NewOptions())
	require.NoError(t, err)
	assert.Nil(t, chains)
}

func TestAllCallChains_SimplePath(t *testing.T) {
	e := NewEngine(buildChain())
	chains, err := e.AllCallChains(context.Background(), "x", "z", NewOptions())
	require.NoError(t, err)
	require.Len(t, chains, 1)
	ids := []string{chains[0][0].ID, chains[0][1].ID, chains[0][2].ID}
	assert.Equal(t, []string{"x", "y", "z"}, ids)
}

// TestAllCallChains_NoRepeatedNodes verifies a cycle does not produce
// paths that revisit a node.
func TestAllCallChains_NoRepeatedNodes(t *testing.T) {
	f := newFakeReader()
	f.addNode(fn("a")).addNode(fn("b")).addNode(fn("c"))
	f.addEdge("a", "b", graph.KindCall)
	f.addEdge("b", "a", graph.KindCall)
	f.addEdge("b", "c", graph.KindCall)
	e := NewEngine(f)
	chains, err := e.AllCallChains(context.Background(), "a", "c", NewOptions())
	require.NoError(t, err)
	require.Len(t, chains, 1)
	seen := map[string]bool{}
	for _, r := range chains[0] {
		assert.False(t, seen[r.ID], "node %s repeated in path", r.ID)
		seen[r.ID] = true
	}
}

func TestAllCallChains_DepthLimitExcludesLongerPaths(t *testing.T) {
	e := NewEngine(buildChain())
	opts := NewOptions()
	opts.DepthLimit = 1
	chains, err := e.AllCallChains(context.Background(), "x", "z", opts)
	require.NoError(t, err)
	assert.Empty(t, chains)
}
