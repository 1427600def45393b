package buildgraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codemap/internal/apperr"
	"codemap/internal/extract"
	"codemap/internal/graph"
	"codemap/internal/resolve"
	"codemap/internal/scanner"
)

func newIR(file string) *extract.FileIR {
	return &extract.FileIR{
		File:            file,
		Imports:         make(map[string]extract.Import),
		Exports:         make(map[string][]string),
		InstanceMapping: make(map[string]string),
	}
}

func TestBuild_FileContainsFunctionAndClassMethod(t *testing.T) {
	a := newIR("a.js")
	a.Functions = append(a.Functions, extract.FunctionRecord{ID: "a.js#f", Name: "f", File: "a.js"})
	a.Classes = append(a.Classes, extract.ClassRecord{ID: "class:a.js:C", Name: "C", File: "a.js"})
	a.Methods = append(a.Methods, extract.MethodRecord{ID: "class:a.js:C.m", ClassName: "C", MethodName: "m", File: "a.js"})

	g, err := Build("/root", []*extract.FileIR{a}, nil, resolve.DefaultFrameworkConfig())
	require.NoError(t, err)

	fileID := graph.FileID("a.js")
	assert.True(t, g.HasNode(fileID))
	assert.True(t, g.HasNode("a.js#f"))
	assert.True(t, g.HasNode("class:a.js:C"))
	assert.True(t, g.HasNode("class:a.js:C.m"))

	var sawFileToFunc, sawFileToClass, sawClassToMethod bool
	for _, e := range g.Edges {
		if e.Kind != graph.KindContains {
			continue
		}
		switch {
		case e.From == fileID && e.To == "a.js#f":
			sawFileToFunc = true
		case e.From == fileID && e.To == "class:a.js:C":
			sawFileToClass = true
		case e.From == "class:a.js:C" && e.To == "class:a.js:C.m":
			sawClassToMethod = true
		}
	}
	assert.True(t, sawFileToFunc)
	assert.True(t, sawFileToClass)
	assert.True(t, sawClassToMethod)
}

func TestBuild_CollisionDetectedOnDifferentSpans(t *testing.T) {
	a := newIR("a.js")
	a.Functions = append(a.Functions,
		extract.FunctionRecord{ID: "dup", Name: "f", File: "a.js", Start: pos(1, 0), End: pos(1, 5)},
		extract.FunctionRecord{ID: "dup", Name: "g", File: "a.js", Start: pos(2, 0), End: pos(2, 5)},
	)

	_, err := Build("/root", []*extract.FileIR{a}, nil, resolve.DefaultFrameworkConfig())
	require.Error(t, err)
	var collision *apperr.Collision
	assert.ErrorAs(t, err, &collision)
}

func TestBuild_SameSpanDefinitionIsIdempotent(t *testing.T) {
	a := newIR("a.js")
	a.Functions = append(a.Functions,
		extract.FunctionRecord{ID: "same", Name: "f", File: "a.js", Start: pos(1, 0), End: pos(1, 5)},
		extract.FunctionRecord{ID: "same", Name: "f", File: "a.js", Start: pos(1, 0), End: pos(1, 5)},
	)

	g, err := Build("/root", []*extract.FileIR{a}, nil, resolve.DefaultFrameworkConfig())
	require.NoError(t, err)
	assert.True(t, g.HasNode("same"))
}

func TestBuild_ResolvedCallProducesEdgeNoPlaceholder(t *testing.T) {
	a := newIR("a.js")
	a.Functions = append(a.Functions, extract.FunctionRecord{ID: "a.js#f", Name: "f", File: "a.js"})
	a.Functions = append(a.Functions, extract.FunctionRecord{ID: "a.js#g", Name: "g", File: "a.js"})

	calls := []resolve.ResolvedCall{
		{From: "a.js#f", OriginFile: "a.js", CalleeName: "g", Type: extract.CallBare, Resolved: true, ResolvedID: "a.js#g"},
	}

	g, err := Build("/root", []*extract.FileIR{a}, calls, resolve.DefaultFrameworkConfig())
	require.NoError(t, err)

	var found bool
	for _, e := range g.Edges {
		if e.Kind == graph.KindCall && e.From == "a.js#f" && e.To == "a.js#g" {
			found = true
			assert.True(t, e.Meta.Bool("resolved"))
		}
	}
	assert.True(t, found)
	for _, n := range g.Nodes {
		assert.NotEqual(t, graph.KindPlaceholder, n.Kind)
	}
}

func TestBuild_UnresolvedCallProducesPlaceholder(t *testing.T) {
	a := newIR("a.js")
	a.Functions = append(a.Functions, extract.FunctionRecord{ID: "a.js#f", Name: "f", File: "a.js"})

	calls := []resolve.ResolvedCall{
		{From: "a.js#f", OriginFile: "a.js", CalleeName: "nowhere", Type: extract.CallBare, Line: 3},
	}

	g, err := Build("/root", []*extract.FileIR{a}, calls, resolve.DefaultFrameworkConfig())
	require.NoError(t, err)

	placeholderID := graph.PlaceholderID("a.js", "nowhere", 3)
	require.True(t, g.HasNode(placeholderID))

	var found bool
	for _, e := range g.Edges {
		if e.To == placeholderID {
			found = true
			assert.False(t, e.Meta.Bool("resolved"))
		}
	}
	assert.True(t, found)
}

func TestBuild_ExternalCallCreatesExternalAndPlaceholderNodes(t *testing.T) {
	c := newIR("c.js")
	c.Functions = append(c.Functions, extract.FunctionRecord{ID: "c.js#sign", Name: "sign", File: "c.js"})

	calls := []resolve.ResolvedCall{
		{From: "c.js#sign", OriginFile: "c.js", CalleeName: "sign", Receiver: "jwt", Method: "sign", Type: extract.CallMethod, External: true, ModuleName: "jsonwebtoken", Line: 1},
	}

	g, err := Build("/root", []*extract.FileIR{c}, calls, resolve.DefaultFrameworkConfig())
	require.NoError(t, err)

	assert.True(t, g.HasNode(graph.ExternalID("jsonwebtoken")))
	placeholderID := graph.PlaceholderID("c.js", "sign", 1)
	assert.True(t, g.HasNode(placeholderID))
}

func TestBuild_TopLevelCallAttributedToFileNode(t *testing.T) {
	a := newIR("a.js")
	a.Functions = append(a.Functions, extract.FunctionRecord{ID: "a.js#f", Name: "f", File: "a.js"})

	calls := []resolve.ResolvedCall{
		{From: "a.js:TOPLEVEL", OriginFile: "a.js", CalleeName: "f", Type: extract.CallBare, Resolved: true, ResolvedID: "a.js#f"},
	}

	g, err := Build("/root", []*extract.FileIR{a}, calls, resolve.DefaultFrameworkConfig())
	require.NoError(t, err)

	fileID := graph.FileID("a.js")
	var found bool
	for _, e := range g.Edges {
		if e.From == fileID && e.To == "a.js#f" && e.Kind == graph.KindCall {
			found = true
		}
	}
	assert.True(t, found)
}

func pos(line, col int) scanner.Position {
	return scanner.Position{Line: line, Col: col}
}
