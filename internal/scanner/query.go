package scanner

import (
	"fmt"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// Match is one query match, with its captures grouped by capture name
// for convenient lookup ("class.name" -> the matched identifier node).
type Match struct {
	Captures map[string][]sitter.Node
}

// First returns the first captured node under name, if any.
func (m Match) First(name string) (sitter.Node, bool) {
	nodes := m.Captures[name]
	if len(nodes) == 0 {
		return sitter.Node{}, false
	}
	return nodes[0], true
}

// Run compiles queryStr against lang's grammar and executes it over
// root, returning one Match per query match. The query is compiled
// fresh per call; extraction runs once per file so the parse cost
// dominates and query compilation is not on a hot path.
func Run(lang Lang, queryStr string, root sitter.Node, source []byte) ([]Match, error) {
	language, err := grammar(lang)
	if err != nil {
		return nil, err
	}
	query, qerr := sitter.NewQuery(language, queryStr)
	if qerr != nil {
		return nil, fmt.Errorf("scanner: compile query: %v", qerr)
	}
	defer query.Close()

	cursor := sitter.NewQueryCursor()
	defer cursor.Close()

	names := query.CaptureNames()
	var matches []Match
	qm := cursor.Matches(query, &root, source)
	for {
		m := qm.Next()
		if m == nil {
			break
		}
		match := Match{Captures: make(map[string][]sitter.Node)}
		for _, c := range m.Captures {
			name := names[c.Index]
			match.Captures[name] = append(match.Captures[name], c.Node)
		}
		matches = append(matches, match)
	}
	return matches, nil
}

// IsCallable reports whether n's kind is one of CallableKinds.
func IsCallable(n sitter.Node) bool {
	return CallableKinds[n.Kind()]
}

// IsTopLevel reports whether n has no enclosing callable ancestor.
func IsTopLevel(n sitter.Node) bool {
	p := n.Parent()
	for p != nil {
		if IsCallable(*p) {
			return false
		}
		next := p.Parent()
		p = next
	}
	return true
}

// EnclosingCallable walks n's ancestors and returns the nearest node
// whose kind is in CallableKinds.
func EnclosingCallable(n sitter.Node) (sitter.Node, bool) {
	p := n.Parent()
	for p != nil {
		if IsCallable(*p) {
			return *p, true
		}
		p = p.Parent()
	}
	return sitter.Node{}, false
}

// Position is a 1-based line, 0-based column source position,
// matching the convention used by the rest of the pipeline.
type Position struct {
	Line int
	Col  int
}

// StartPosition returns n's start position.
func StartPosition(n sitter.Node) Position {
	p := n.StartPosition()
	return Position{Line: int(p.Row) + 1, Col: int(p.Column)}
}

// EndPosition returns n's end position.
func EndPosition(n sitter.Node) Position {
	p := n.EndPosition()
	return Position{Line: int(p.Row) + 1, Col: int(p.Column)}
}
