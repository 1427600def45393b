// Package buildgraph materializes the resolved intermediate
// representation into the final node/edge graph (spec §4.4):
// containment edges, call/method_call edges, and synthesis of
// placeholder and external nodes, all deduplicated by stable ID.
package buildgraph

import (
	"fmt"

	"codemap/internal/apperr"
	"codemap/internal/extract"
	"codemap/internal/graph"
	"codemap/internal/resolve"
	"codemap/internal/scanner"
)

type signature struct {
	file             string
	startL, startC   int
	endL, endC       int
}

// collisionTracker records the (file, span) signature each ID was
// first created with, so a second, differently-spanned definition
// claiming the same ID is caught as spec §4.1's identifier-collision
// rather than silently overwriting the first (spec: "this is
// diagnostic evidence of a bug and must not be silently merged").
type collisionTracker struct {
	seen map[string]signature
}

func newCollisionTracker() *collisionTracker {
	return &collisionTracker{seen: make(map[string]signature)}
}

func (c *collisionTracker) check(id string, sig signature) error {
	prev, ok := c.seen[id]
	if !ok {
		c.seen[id] = sig
		return nil
	}
	if prev == sig {
		return nil
	}
	return &apperr.Collision{ID: id, FileA: prev.file, FileB: sig.file}
}

// Build materializes the final graph from every file's extracted IR
// and the resolver's output. root is the absolute project root
// recorded on the graph for path rehydration (spec §3.2).
func Build(root string, files []*extract.FileIR, calls []resolve.ResolvedCall, fw resolve.FrameworkConfig) (*graph.Graph, error) {
	g := graph.NewGraph(root)
	ct := newCollisionTracker()

	// Step 1: class nodes, then file->class contains (file created on
	// demand).
	for _, f := range files {
		for _, c := range f.Classes {
			if err := ct.check(c.ID, signature{c.File, c.Start.Line, c.Start.Col, c.End.Line, c.End.Col}); err != nil {
				return nil, err
			}
			g.UpsertNode(graph.Node{
				ID:   c.ID,
				Kind: graph.KindClass,
				Label: c.Name,
				Meta: graph.Meta{"file": c.File, "name": c.Name, "start": posMeta(c.Start), "end": posMeta(c.End)},
			})
			ensureFileNode(g, c.File)
			g.UpsertEdge(graph.Edge{From: graph.FileID(c.File), To: c.ID, Kind: graph.KindContains})
		}
	}

	// Step 2: method nodes, then class->method contains.
	for _, f := range files {
		for _, m := range f.Methods {
			if err := ct.check(m.ID, signature{m.File, m.Start.Line, m.Start.Col, m.End.Line, m.End.Col}); err != nil {
				return nil, err
			}
			g.UpsertNode(graph.Node{
				ID:    m.ID,
				Kind:  graph.KindMethod,
				Label: m.ClassName + "." + m.MethodName,
				Meta: graph.Meta{
					"file": m.File, "className": m.ClassName, "methodName": m.MethodName,
					"start": posMeta(m.Start), "end": posMeta(m.End),
				},
			})
			classID := graph.ClassID(m.File, m.ClassName)
			g.UpsertEdge(graph.Edge{From: classID, To: m.ID, Kind: graph.KindContains})
		}
	}

	// Step 3: file nodes (idempotent with step 1's on-demand creation).
	for _, f := range files {
		ensureFileNode(g, f.File)
	}

	// Step 4: function nodes, then file->function contains.
	for _, f := range files {
		for _, fn := range f.Functions {
			if err := ct.check(fn.ID, signature{fn.File, fn.Start.Line, fn.Start.Col, fn.End.Line, fn.End.Col}); err != nil {
				return nil, err
			}
			meta := graph.Meta{"file": fn.File, "start": posMeta(fn.Start), "end": posMeta(fn.End)}
			if fn.Name != "" {
				meta["name"] = fn.Name
			}
			g.UpsertNode(graph.Node{ID: fn.ID, Kind: graph.KindFunction, Label: fn.Name, Meta: meta})
			g.UpsertEdge(graph.Edge{From: graph.FileID(fn.File), To: fn.ID, Kind: graph.KindContains})
		}
	}

	// Step 5: calls.
	for _, call := range calls {
		if err := applyCall(g, call, fw); err != nil {
			return nil, err
		}
	}

	return g, nil
}

func ensureFileNode(g *graph.Graph, relPath string) {
	id := graph.FileID(relPath)
	if g.HasNode(id) {
		return
	}
	g.UpsertNode(graph.Node{ID: id, Kind: graph.KindFile, Label: relPath, Meta: graph.Meta{"path": relPath}})
}

func posMeta(p scanner.Position) map[string]int {
	return map[string]int{"line": p.Line, "col": p.Col}
}

func applyCall(g *graph.Graph, call resolve.ResolvedCall, fw resolve.FrameworkConfig) error {
	from := call.From
	if isTopLevel(from, call.OriginFile) {
		from = graph.FileID(call.OriginFile)
	}
	if !g.HasNode(from) {
		// Defensive: the caller node should already exist from steps
		// 1-4; if not, treat the file itself as the source rather
		// than dropping the edge.
		ensureFileNode(g, call.OriginFile)
		from = graph.FileID(call.OriginFile)
	}

	edgeKind := graph.KindCall
	if call.Type == extract.CallMethod {
		edgeKind = graph.KindMethodCall
	}

	if call.Resolved {
		to := call.ResolvedID
		if !g.HasNode(to) {
			// Defensive synthesis (spec §4.4 step 5): the resolver
			// pointed at an ID that never got materialized.
			g.UpsertNode(graph.Node{ID: to, Kind: graph.KindPlaceholder, Label: to, Meta: graph.Meta{"placeholderId": to}})
		}
		meta := graph.Meta{"resolved": true}
		if call.Receiver != "" {
			meta["receiver"] = call.Receiver
		}
		if call.Method != "" {
			meta["method"] = call.Method
		}
		if fw.IsFramework(call.Receiver, call.Method) {
			meta["isFramework"] = true
		}
		g.UpsertEdge(graph.Edge{From: from, To: to, Kind: edgeKind, Meta: meta})
		return nil
	}

	if call.External {
		placeholderID := graph.PlaceholderID(call.OriginFile, call.CalleeName, call.Line)
		label := call.CalleeName + "()"
		if call.Receiver != "" && call.Method != "" {
			label = fmt.Sprintf("%s.%s()", call.Receiver, call.Method)
		}
		isFW := fw.IsFramework(call.Receiver, call.Method)
		meta := graph.Meta{
			"placeholderId": placeholderID,
			"file":          call.OriginFile,
			"calleeName":    call.CalleeName,
			"line":          call.Line,
			"external":      true,
			"moduleName":    call.ModuleName,
			"isFramework":   isFW,
		}
		if call.Receiver != "" {
			meta["receiver"] = call.Receiver
		}
		if call.Method != "" {
			meta["method"] = call.Method
		}
		g.UpsertNode(graph.Node{ID: placeholderID, Kind: graph.KindPlaceholder, Label: label, Meta: meta})
		g.UpsertNode(graph.Node{ID: graph.ExternalID(call.ModuleName), Kind: graph.KindExternal, Label: call.ModuleName, Meta: graph.Meta{"moduleName": call.ModuleName}})

		edgeMeta := graph.Meta{"resolved": false, "external": true, "moduleName": call.ModuleName}
		if call.Receiver != "" {
			edgeMeta["receiver"] = call.Receiver
		}
		if call.Method != "" {
			edgeMeta["method"] = call.Method
		}
		if isFW {
			edgeMeta["isFramework"] = true
		}
		g.UpsertEdge(graph.Edge{From: from, To: placeholderID, Kind: edgeKind, Meta: edgeMeta})
		return nil
	}

	// Unresolved internal.
	placeholderID := graph.PlaceholderID(call.OriginFile, call.CalleeName, call.Line)
	meta := graph.Meta{
		"placeholderId": placeholderID,
		"file":          call.OriginFile,
		"calleeName":    call.CalleeName,
		"line":          call.Line,
	}
	if call.Receiver != "" {
		meta["receiver"] = call.Receiver
	}
	if call.Method != "" {
		meta["method"] = call.Method
	}
	g.UpsertNode(graph.Node{ID: placeholderID, Kind: graph.KindPlaceholder, Label: call.CalleeName + "()", Meta: meta})

	edgeMeta := graph.Meta{"resolved": false}
	if call.Receiver != "" {
		edgeMeta["receiver"] = call.Receiver
	}
	if call.Method != "" {
		edgeMeta["method"] = call.Method
	}
	if fw.IsFramework(call.Receiver, call.Method) {
		edgeMeta["isFramework"] = true
	}
	g.UpsertEdge(graph.Edge{From: from, To: placeholderID, Kind: edgeKind, Meta: edgeMeta})
	return nil
}

func isTopLevel(from, originFile string) bool {
	return from == originFile+":TOPLEVEL"
}
