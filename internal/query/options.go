// Package query implements the query engine (spec §4.6): direct
// neighbors, BFS/DFS traversal (flat and tree), simple-path
// enumeration, hotspot ranking, and fuzzy search over a graph store
// read through the Reader interface.
package query

import "codemap/internal/graph"

// Options is the common QueryOptions record every operation accepts
// (spec §4.6).
type Options struct {
	// Expanded resolves raw IDs to ExpandedNode records. Defaults to
	// true; use NewOptions to get that default.
	Expanded bool
	// IncludeTypes restricts results to these node kinds.
	IncludeTypes []graph.NodeKind
	// ExcludeTypes drops results of these node kinds, applied before
	// IncludeTypes.
	ExcludeTypes []graph.NodeKind
	// MaxDepth bounds traversal. Zero is the literal spec boundary:
	// BFS returns empty, tree returns root-only. Negative means "use
	// the operation's default" (see DefaultFlatDepth / DefaultTreeDepth);
	// callers that want the default explicitly should set MaxDepth to
	// UseDefaultDepth rather than leaving the zero value in place.
	MaxDepth int
	// Tree requests a tree-shaped result from a traversal operation
	// instead of a flat list.
	Tree bool
	// DepthLimit bounds allCallChains DFS depth.
	DepthLimit int
	// MaxPaths caps the number of paths allCallChains returns.
	MaxPaths int
}

const (
	DefaultFlatDepth = 200
	DefaultTreeDepth = 50
	DefaultPathDepth = 20
	DefaultMaxPaths  = 1000
	DefaultTopN      = 20
	MaxTopN          = 200
	SearchCap        = 100
	// UseDefaultDepth is the MaxDepth sentinel meaning "operation
	// default", distinct from the literal zero-depth boundary spec §8.3
	// requires (BFS returns empty, tree returns root-only).
	UseDefaultDepth = -1
)

// NewOptions returns Options with Expanded defaulted to true, as
// spec §4.6 requires, and MaxDepth set to UseDefaultDepth so callers
// that never touch MaxDepth get each operation's default depth rather
// than the literal zero-depth boundary.
func NewOptions() Options {
	return Options{Expanded: true, MaxDepth: UseDefaultDepth}
}

func (o Options) flatDepth() int {
	if o.MaxDepth < 0 {
		return DefaultFlatDepth
	}
	return o.MaxDepth
}

func (o Options) treeDepth() int {
	if o.MaxDepth < 0 {
		return DefaultTreeDepth
	}
	return o.MaxDepth
}

func (o Options) pathDepthLimit() int {
	if o.DepthLimit > 0 {
		return o.DepthLimit
	}
	return DefaultPathDepth
}

func (o Options) maxPaths() int {
	if o.MaxPaths > 0 {
		return o.MaxPaths
	}
	return DefaultMaxPaths
}

// includeSet / excludeSet build lookup sets once per call.
func includeSet(kinds []graph.NodeKind) map[graph.NodeKind]bool {
	if len(kinds) == 0 {
		return nil
	}
	m := make(map[graph.NodeKind]bool, len(kinds))
	for _, k := range kinds {
		m[k] = true
	}
	return m
}

// passesFilter applies excludeTypes before includeTypes, per spec
// §4.6, "Filtering semantics".
func passesFilter(kind graph.NodeKind, include, exclude map[graph.NodeKind]bool) bool {
	if exclude != nil && exclude[kind] {
		return false
	}
	if include != nil && !include[kind] {
		return false
	}
	return true
}

func filterNodes(nodes []graph.Node, opts Options) []graph.Node {
	include := includeSet(opts.IncludeTypes)
	exclude := includeSet(opts.ExcludeTypes)
	if include == nil && exclude == nil {
		return nodes
	}
	out := nodes[:0:0]
	for _, n := range nodes {
		if passesFilter(n.Kind, include, exclude) {
			out = append(out, n)
		}
	}
	return out
}
