package query

import (
	"context"
	"sort"
	"strings"

	"codemap/internal/graph"
	"codemap/internal/store"
)

// fakeReader is an in-memory Reader used to exercise the query engine
// without a live SQLite connection.
type fakeReader struct {
	nodes map[string]graph.Node
	edges []graph.Edge
}

func newFakeReader() *fakeReader {
	return &fakeReader{nodes: make(map[string]graph.Node)}
}

func (f *fakeReader) addNode(n graph.Node) *fakeReader {
	f.nodes[n.ID] = n
	return f
}

func (f *fakeReader) addEdge(from, to string, kind graph.EdgeKind) *fakeReader {
	f.edges = append(f.edges, graph.Edge{From: from, To: to, Kind: kind})
	return f
}

func (f *fakeReader) GetNode(ctx context.Context, id string) (graph.Node, bool, error) {
	n, ok := f.nodes[id]
	return n, ok, nil
}

func (f *fakeReader) AllNodes(ctx context.Context, kinds []graph.NodeKind) ([]graph.Node, error) {
	var out []graph.Node
	set := includeSet(kinds)
	for _, n := range f.nodes {
		if set != nil && !set[n.Kind] {
			continue
		}
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeReader) AllEdges(ctx context.Context) ([]graph.Edge, error) {
	return f.edges, nil
}

func kindSet(kinds []graph.EdgeKind) map[graph.EdgeKind]bool {
	if len(kinds) == 0 {
		return nil
	}
	m := make(map[graph.EdgeKind]bool, len(kinds))
	for _, k := range kinds {
		m[k] = true
	}
	return m
}

func (f *fakeReader) EdgesFrom(ctx context.Context, id string, kinds []graph.EdgeKind) ([]graph.Edge, error) {
	set := kindSet(kinds)
	var out []graph.Edge
	for _, e := range f.edges {
		if e.From != id {
			continue
		}
		if set != nil && !set[e.Kind] {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (f *fakeReader) EdgesTo(ctx context.Context, id string, kinds []graph.EdgeKind) ([]graph.Edge, error) {
	set := kindSet(kinds)
	var out []graph.Edge
	for _, e := range f.edges {
		if e.To != id {
			continue
		}
		if set != nil && !set[e.Kind] {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (f *fakeReader) SearchByIDOrLabel(ctx context.Context, q string, limit int) ([]graph.Node, error) {
	var out []graph.Node
	q = strings.ToLower(q)
	ids := make([]string, 0, len(f.nodes))
	for id := range f.nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		n := f.nodes[id]
		if strings.Contains(strings.ToLower(n.ID), q) || strings.Contains(strings.ToLower(n.Label), q) {
			out = append(out, n)
			if len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}

func (f *fakeReader) SearchByMeta(ctx context.Context, q string, limit int) ([]graph.Node, error) {
	return nil, nil
}

func (f *fakeReader) SearchByEdgeAlias(ctx context.Context, q string, limit int) ([]graph.Node, error) {
	return nil, nil
}

func (f *fakeReader) EdgeCounts(ctx context.Context) (map[string]int, map[string]int, error) {
	in := make(map[string]int)
	out := make(map[string]int)
	for _, e := range f.edges {
		if e.Kind != graph.KindCall && e.Kind != graph.KindMethodCall {
			continue
		}
		out[e.From]++
		in[e.To]++
	}
	return in, out, nil
}

func (f *fakeReader) Stats(ctx context.Context) (store.Stats, error) {
	var s store.Stats
	s.TotalNodes = len(f.nodes)
	s.TotalEdges = len(f.edges)
	for _, n := range f.nodes {
		switch n.Kind {
		case graph.KindClass:
			s.Classes++
		case graph.KindMethod:
			s.Methods++
		case graph.KindFunction:
			s.Functions++
		case graph.KindFile:
			s.Files++
		}
	}
	for _, e := range f.edges {
		switch e.Kind {
		case graph.KindMethodCall:
			s.MethodCalls++
		case graph.KindCall:
			s.FunctionCalls++
		}
	}
	return s, nil
}

var _ Reader = (*fakeReader)(nil)
