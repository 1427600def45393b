package query

import "codemap/internal/graph"

// ExpandedNode is the resolved node shape returned when Options.Expanded
// is true (the default): id, type, label, file, name, position span,
// and the full metadata record.
type ExpandedNode struct {
	ID    string       `json:"id"`
	Type  graph.NodeKind `json:"type"`
	Label string       `json:"label,omitempty"`
	File  string       `json:"file,omitempty"`
	Name  string       `json:"name,omitempty"`
	Start any          `json:"start,omitempty"`
	End   any          `json:"end,omitempty"`
	Meta  graph.Meta   `json:"meta,omitempty"`
}

// Expand converts a raw node into its expanded record.
func Expand(n graph.Node) ExpandedNode {
	e := ExpandedNode{ID: n.ID, Type: n.Kind, Label: n.Label, Meta: n.Meta}
	if n.Meta != nil {
		e.File = n.Meta.String("file")
		if e.File == "" {
			e.File = n.Meta.String("path")
		}
		e.Name = n.Meta.String("name")
		if e.Name == "" {
			e.Name = n.Meta.String("className")
		}
		e.Start = n.Meta["start"]
		e.End = n.Meta["end"]
	}
	return e
}

// Result is either a raw node ID or, when Options.Expanded is true, an
// expanded node — operations that can be asked for either shape return
// this so callers get one consistent envelope.
type Result struct {
	ID       string        `json:"id"`
	Expanded *ExpandedNode `json:"expanded,omitempty"`
}

func makeResult(n graph.Node, expanded bool) Result {
	r := Result{ID: n.ID}
	if expanded {
		e := Expand(n)
		r.Expanded = &e
	}
	return r
}
