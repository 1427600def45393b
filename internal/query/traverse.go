package query

import (
	"context"

	"codemap/internal/graph"
)

// direction picks which end of a call/method_call edge to step to next.
type direction int

const (
	backward direction = iota // callers: step to edge.From
	forward                   // callees: step to edge.To
)

func (e *Engine) step(ctx context.Context, id string, dir direction) ([]string, error) {
	if dir == backward {
		edges, err := e.r.EdgesTo(ctx, id, callEdgeKinds)
		if err != nil {
			return nil, err
		}
		ids := make([]string, len(edges))
		for i, ed := range edges {
			ids[i] = ed.From
		}
		return ids, nil
	}
	edges, err := e.r.EdgesFrom(ctx, id, callEdgeKinds)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(edges))
	for i, ed := range edges {
		ids[i] = ed.To
	}
	return ids, nil
}

// TransitiveCallersFlat returns every node that can reach id via
// call/method_call edges, breadth-first, excluding id itself.
func (e *Engine) TransitiveCallersFlat(ctx context.Context, id string, opts Options) ([]Result, error) {
	return e.transitiveFlat(ctx, id, backward, opts)
}

// TransitiveCalleesFlat returns every node id can reach via
// call/method_call edges, breadth-first, excluding id itself.
func (e *Engine) TransitiveCalleesFlat(ctx context.Context, id string, opts Options) ([]Result, error) {
	return e.transitiveFlat(ctx, id, forward, opts)
}

// transitiveFlat is a plain BFS: a visited set keeps every node at its
// first (shallowest) depth, the queue drains when nothing new is found
// or the max depth is reached (spec §4.6, "flat traversal").
func (e *Engine) transitiveFlat(ctx context.Context, start string, dir direction, opts Options) ([]Result, error) {
	maxDepth := opts.flatDepth()
	visited := map[string]bool{start: true}
	frontier := []string{start}
	var order []string

	for depth := 0; depth < maxDepth && len(frontier) > 0; depth++ {
		var next []string
		for _, id := range frontier {
			neighbors, err := e.step(ctx, id, dir)
			if err != nil {
				return nil, err
			}
			for _, n := range neighbors {
				if visited[n] {
					continue
				}
				visited[n] = true
				order = append(order, n)
				next = append(next, n)
			}
		}
		frontier = next
	}

	nodes := make([]graph.Node, 0, len(order))
	for _, id := range order {
		n, ok, err := e.r.GetNode(ctx, id)
		if err != nil {
			return nil, err
		}
		if ok {
			nodes = append(nodes, n)
		}
	}
	nodes = filterNodes(nodes, opts)
	return toResults(nodes, opts.Expanded), nil
}

// TreeNode is one node of a DFS traversal tree. A node that is already
// an ancestor on the current path is emitted as a leaf with Cut set
// instead of being expanded again — this is what keeps cyclic call
// graphs terminating (spec §4.6, "tree traversal"). A node reached
// again through a different branch is expanded again. A node at the
// depth limit is emitted with no children and Cut unset.
type TreeNode struct {
	Node     Result     `json:"node"`
	Children []TreeNode `json:"children,omitempty"`
	Cut      bool       `json:"cut,omitempty"`
}

// TransitiveCallersTree returns the DFS call tree of id's callers.
func (e *Engine) TransitiveCallersTree(ctx context.Context, id string, opts Options) (*TreeNode, error) {
	return e.transitiveTree(ctx, id, backward, opts)
}

// TransitiveCalleesTree returns the DFS call tree of id's callees.
func (e *Engine) TransitiveCalleesTree(ctx context.Context, id string, opts Options) (*TreeNode, error) {
	return e.transitiveTree(ctx, id, forward, opts)
}

func (e *Engine) transitiveTree(ctx context.Context, start string, dir direction, opts Options) (*TreeNode, error) {
	maxDepth := opts.treeDepth()
	n, ok, err := e.r.GetNode(ctx, start)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	visiting := map[string]bool{start: true}
	root := &TreeNode{Node: makeResult(n, opts.Expanded)}
	if err := e.buildTree(ctx, start, dir, 0, maxDepth, visiting, root, opts); err != nil {
		return nil, err
	}
	return root, nil
}

func (e *Engine) buildTree(ctx context.Context, id string, dir direction, depth, maxDepth int, visiting map[string]bool, node *TreeNode, opts Options) error {
	if depth >= maxDepth {
		return nil
	}
	neighbors, err := e.step(ctx, id, dir)
	if err != nil {
		return err
	}
	for _, nid := range neighbors {
		n, ok, err := e.r.GetNode(ctx, nid)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		if !passesFilter(n.Kind, includeSet(opts.IncludeTypes), includeSet(opts.ExcludeTypes)) {
			continue
		}
		child := TreeNode{Node: makeResult(n, opts.Expanded)}
		if visiting[nid] {
			child.Cut = true
			node.Children = append(node.Children, child)
			continue
		}
		visiting[nid] = true
		if err := e.buildTree(ctx, nid, dir, depth+1, maxDepth, visiting, &child, opts); err != nil {
			delete(visiting, nid)
			return err
		}
		delete(visiting, nid)
		node.Children = append(node.Children, child)
	}
	return nil
}

// AllCallChains enumerates every simple path (no repeated node) from
// start to target over call/method_call edges via DFS, up to
// opts.pathDepthLimit() edges, capped at opts.maxPaths() paths, in
// edge-insertion order. When start equals target the sole result is
// the zero-length path [start] (spec's Open Question decision, see
// design notes: identity is treated as a trivially satisfied chain).
func (e *Engine) AllCallChains(ctx context.Context, start, target string, opts Options) ([][]Result, error) {
	if start == target {
		n, ok, err := e.r.GetNode(ctx, start)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, nil
		}
		return [][]Result{{makeResult(n, opts.Expanded)}}, nil
	}

	depthLimit := opts.pathDepthLimit()
	maxPaths := opts.maxPaths()

	var paths [][]Result
	visited := map[string]bool{start: true}
	path := []string{start}

	var dfs func(id string) error
	dfs = func(id string) error {
		if len(paths) >= maxPaths {
			return nil
		}
		if len(path)-1 >= depthLimit {
			return nil
		}
		neighbors, err := e.step(ctx, id, forward)
		if err != nil {
			return err
		}
		for _, nid := range neighbors {
			if len(paths) >= maxPaths {
				return nil
			}
			if visited[nid] {
				continue
			}
			if nid == target {
				full := append(append([]string(nil), path...), nid)
				results, err := e.resolvePath(ctx, full, opts)
				if err != nil {
					return err
				}
				paths = append(paths, results)
				continue
			}
			visited[nid] = true
			path = append(path, nid)
			if err := dfs(nid); err != nil {
				return err
			}
			path = path[:len(path)-1]
			delete(visited, nid)
		}
		return nil
	}

	if err := dfs(start); err != nil {
		return nil, err
	}
	return paths, nil
}

func (e *Engine) resolvePath(ctx context.Context, ids []string, opts Options) ([]Result, error) {
	out := make([]Result, 0, len(ids))
	for _, id := range ids {
		n, ok, err := e.r.GetNode(ctx, id)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		out = append(out, makeResult(n, opts.Expanded))
	}
	return out, nil
}
