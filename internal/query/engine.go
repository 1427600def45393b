package query

import (
	"context"
	"sort"

	"codemap/internal/graph"
	"codemap/internal/store"
)

// Reader is the read-side capability the query engine needs from a
// graph store. store.Store satisfies it; tests can substitute a fake.
type Reader interface {
	GetNode(ctx context.Context, id string) (graph.Node, bool, error)
	AllNodes(ctx context.Context, kinds []graph.NodeKind) ([]graph.Node, error)
	AllEdges(ctx context.Context) ([]graph.Edge, error)
	EdgesFrom(ctx context.Context, id string, kinds []graph.EdgeKind) ([]graph.Edge, error)
	EdgesTo(ctx context.Context, id string, kinds []graph.EdgeKind) ([]graph.Edge, error)
	SearchByIDOrLabel(ctx context.Context, q string, limit int) ([]graph.Node, error)
	SearchByMeta(ctx context.Context, q string, limit int) ([]graph.Node, error)
	SearchByEdgeAlias(ctx context.Context, q string, limit int) ([]graph.Node, error)
	EdgeCounts(ctx context.Context) (map[string]int, map[string]int, error)
	Stats(ctx context.Context) (store.Stats, error)
}

var callEdgeKinds = []graph.EdgeKind{graph.KindCall, graph.KindMethodCall}
var containsEdgeKind = []graph.EdgeKind{graph.KindContains}

// Engine is the capability interface of spec §4.6, backed by a Reader.
// Two constructors — one per store back-end — replace the class
// hierarchy the teacher's IGraphProvider implementations would use
// (spec §9, "Builder-over-inheritance").
type Engine struct {
	r Reader
}

// NewEngine wraps any Reader (typically a *store.Store, native or
// in-memory) in a query Engine.
func NewEngine(r Reader) *Engine {
	return &Engine{r: r}
}

// NewNativeEngine opens a native SQLite store at path and wraps it.
func NewNativeEngine(path string) (*Engine, *store.Store, error) {
	s, err := store.OpenNative(path)
	if err != nil {
		return nil, nil, err
	}
	return NewEngine(s), s, nil
}

// NewMemoryEngine opens an in-memory store and wraps it.
func NewMemoryEngine() (*Engine, *store.Store, error) {
	s, err := store.OpenMemory()
	if err != nil {
		return nil, nil, err
	}
	return NewEngine(s), s, nil
}

// GetNode returns the node with id, or nil if it does not exist.
// Never errors on a missing node (spec §4.7).
func (e *Engine) GetNode(ctx context.Context, id string) (*graph.Node, error) {
	n, ok, err := e.r.GetNode(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return &n, nil
}

// GetAllNodes returns every node, filtered and optionally expanded.
func (e *Engine) GetAllNodes(ctx context.Context, opts Options) ([]Result, error) {
	nodes, err := e.r.AllNodes(ctx, nil)
	if err != nil {
		return nil, err
	}
	nodes = filterNodes(nodes, opts)
	return toResults(nodes, opts.Expanded), nil
}

// GetAllEdges returns every edge, unfiltered.
func (e *Engine) GetAllEdges(ctx context.Context) ([]graph.Edge, error) {
	return e.r.AllEdges(ctx)
}

// GetCallers returns the direct 1-hop callers of id across call and
// method_call edges.
func (e *Engine) GetCallers(ctx context.Context, id string, opts Options) ([]Result, error) {
	edges, err := e.r.EdgesTo(ctx, id, callEdgeKinds)
	if err != nil {
		return nil, err
	}
	return e.neighborsFromEdges(ctx, edges, func(ed graph.Edge) string { return ed.From }, opts)
}

// GetCallees returns the direct 1-hop callees of id across call and
// method_call edges.
func (e *Engine) GetCallees(ctx context.Context, id string, opts Options) ([]Result, error) {
	edges, err := e.r.EdgesFrom(ctx, id, callEdgeKinds)
	if err != nil {
		return nil, err
	}
	return e.neighborsFromEdges(ctx, edges, func(ed graph.Edge) string { return ed.To }, opts)
}

// GetFunctionsInFile returns the direct contains-children of a file or
// class node; setting IncludeTypes to {method} against a class ID
// yields "methods of class", and to {class,function} against a file
// ID yields its top-level declarations, matching the teacher's
// single-operation reuse for both queries.
func (e *Engine) GetFunctionsInFile(ctx context.Context, id string, opts Options) ([]Result, error) {
	edges, err := e.r.EdgesFrom(ctx, id, containsEdgeKind)
	if err != nil {
		return nil, err
	}
	return e.neighborsFromEdges(ctx, edges, func(ed graph.Edge) string { return ed.To }, opts)
}

func (e *Engine) neighborsFromEdges(ctx context.Context, edges []graph.Edge, pick func(graph.Edge) string, opts Options) ([]Result, error) {
	seen := make(map[string]bool, len(edges))
	var nodes []graph.Node
	for _, ed := range edges {
		id := pick(ed)
		if seen[id] {
			continue
		}
		seen[id] = true
		n, ok, err := e.r.GetNode(ctx, id)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		nodes = append(nodes, n)
	}
	nodes = filterNodes(nodes, opts)
	return toResults(nodes, opts.Expanded), nil
}

func toResults(nodes []graph.Node, expanded bool) []Result {
	out := make([]Result, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, makeResult(n, expanded))
	}
	return out
}

// Hotspot is one ranked entry from Hotspots.
type Hotspot struct {
	Node  Result `json:"node"`
	In    int    `json:"in"`
	Out   int    `json:"out"`
	Score int    `json:"score"`
}

// Hotspots ranks nodes by in-degree × out-degree over call/method_call
// edges, descending, tie-broken by ID ascending (spec §4.6).
func (e *Engine) Hotspots(ctx context.Context, top int, opts Options) ([]Hotspot, error) {
	if top <= 0 {
		top = DefaultTopN
	}
	if top > MaxTopN {
		top = MaxTopN
	}

	inCounts, outCounts, err := e.r.EdgeCounts(ctx)
	if err != nil {
		return nil, err
	}

	ids := make(map[string]bool, len(inCounts)+len(outCounts))
	for id := range inCounts {
		ids[id] = true
	}
	for id := range outCounts {
		ids[id] = true
	}

	include := includeSet(opts.IncludeTypes)
	exclude := includeSet(opts.ExcludeTypes)

	var candidates []Hotspot
	for id := range ids {
		n, ok, err := e.r.GetNode(ctx, id)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		if !passesFilter(n.Kind, include, exclude) {
			continue
		}
		in, out := inCounts[id], outCounts[id]
		candidates = append(candidates, Hotspot{
			Node:  makeResult(n, opts.Expanded),
			In:    in,
			Out:   out,
			Score: in * out,
		})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].Node.ID < candidates[j].Node.ID
	})

	if len(candidates) > top {
		candidates = candidates[:top]
	}
	return candidates, nil
}

// GetSemanticStats returns the aggregate counts of spec §4.6.
func (e *Engine) GetSemanticStats(ctx context.Context) (store.Stats, error) {
	return e.r.Stats(ctx)
}
