// Package graph defines the persisted call-graph data model: nodes,
// edges, their kinds, and the metadata each kind requires.
package graph

// NodeKind tags the vertex kinds a build can produce.
type NodeKind string

const (
	KindFile        NodeKind = "file"
	KindClass       NodeKind = "class"
	KindMethod      NodeKind = "method"
	KindFunction    NodeKind = "function"
	KindExternal    NodeKind = "external"
	KindPlaceholder NodeKind = "placeholder"
)

// EdgeKind tags the arc kinds a build can produce.
type EdgeKind string

const (
	KindContains   EdgeKind = "contains"
	KindCall       EdgeKind = "call"
	KindMethodCall EdgeKind = "method_call"
)

// Meta is the free-form metadata record attached to a node or edge.
// It is stored as JSON and rehydrated on read, so downstream consumers
// can add fields without a schema migration.
type Meta map[string]any

func (m Meta) String(key string) string {
	if m == nil {
		return ""
	}
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

func (m Meta) Int(key string) int {
	if m == nil {
		return 0
	}
	switch v := m[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	}
	return 0
}

func (m Meta) Bool(key string) bool {
	if m == nil {
		return false
	}
	v, _ := m[key].(bool)
	return v
}

// Node is a vertex in the call graph: a globally unique stable ID, a
// kind tag, an optional human label, and its metadata record.
type Node struct {
	ID    string   `json:"id"`
	Kind  NodeKind `json:"kind"`
	Label string   `json:"label,omitempty"`
	Meta  Meta     `json:"meta,omitempty"`
}

// Edge is a directed arc keyed by (From, To, Kind); re-inserting a key
// overwrites its metadata rather than duplicating the edge.
type Edge struct {
	From string   `json:"from"`
	To   string   `json:"to"`
	Kind EdgeKind `json:"kind"`
	Meta Meta     `json:"meta,omitempty"`
}

// Key returns the composite uniqueness key of an edge.
func (e Edge) Key() EdgeKey {
	return EdgeKey{From: e.From, To: e.To, Kind: e.Kind}
}

// EdgeKey is the (from, to, kind) uniqueness triple for an edge.
type EdgeKey struct {
	From string
	To   string
	Kind EdgeKind
}

// Graph is the in-memory materialized result of a build: deduplicated
// nodes keyed by ID and edges keyed by (from, to, kind), plus the
// absolute project root the relative paths inside node/edge metadata
// are relative to.
type Graph struct {
	SourceRoot string          `json:"sourceRoot"`
	Nodes      map[string]Node `json:"-"`
	Edges      map[EdgeKey]Edge `json:"-"`
}

// NewGraph returns an empty graph rooted at sourceRoot.
func NewGraph(sourceRoot string) *Graph {
	return &Graph{
		SourceRoot: sourceRoot,
		Nodes:      make(map[string]Node),
		Edges:      make(map[EdgeKey]Edge),
	}
}

// UpsertNode inserts n, or overwrites the existing node's kind/label/meta
// if a node with the same ID is already present.
func (g *Graph) UpsertNode(n Node) {
	g.Nodes[n.ID] = n
}

// UpsertEdge inserts e, or overwrites the existing edge's metadata if an
// edge with the same (from, to, kind) is already present.
func (g *Graph) UpsertEdge(e Edge) {
	g.Edges[e.Key()] = e
}

// HasNode reports whether a node with the given ID exists.
func (g *Graph) HasNode(id string) bool {
	_, ok := g.Nodes[id]
	return ok
}

// NodeList returns all nodes, order unspecified (callers that need a
// deterministic order should sort by ID).
func (g *Graph) NodeList() []Node {
	out := make([]Node, 0, len(g.Nodes))
	for _, n := range g.Nodes {
		out = append(out, n)
	}
	return out
}

// EdgeList returns all edges, order unspecified.
func (g *Graph) EdgeList() []Edge {
	out := make([]Edge, 0, len(g.Edges))
	for _, e := range g.Edges {
		out = append(out, e)
	}
	return out
}

// BuildArtifact is the JSON interchange format between the builder and
// the store when they are separated by a process boundary (spec §6.2).
type BuildArtifact struct {
	Nodes      []Node `json:"nodes"`
	Edges      []Edge `json:"edges"`
	SourceRoot string `json:"sourceRoot"`
}

// ToArtifact snapshots the graph into its interchange form.
func (g *Graph) ToArtifact() BuildArtifact {
	return BuildArtifact{
		Nodes:      g.NodeList(),
		Edges:      g.EdgeList(),
		SourceRoot: g.SourceRoot,
	}
}

// FromArtifact rehydrates a graph from its interchange form.
func FromArtifact(a BuildArtifact) *Graph {
	g := NewGraph(a.SourceRoot)
	for _, n := range a.Nodes {
		g.UpsertNode(n)
	}
	for _, e := range a.Edges {
		g.UpsertEdge(e)
	}
	return g
}
