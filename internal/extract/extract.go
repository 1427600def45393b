package extract

import (
	"fmt"
	"os"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"codemap/internal/apperr"
	"codemap/internal/graph"
	"codemap/internal/location"
	"codemap/internal/scanner"
)

// Extract runs the per-file AST pass over the source file at absPath
// (relPath is its project-relative form, forward-slash separated) and
// returns its intermediate representation. A parse failure is
// non-fatal: it returns apperr.ErrParseError so the caller can log and
// skip the file per spec §4.7.
func Extract(absPath, relPath string) (*FileIR, error) {
	source, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", apperr.ErrParseError, relPath, err)
	}

	ext := extOf(relPath)
	lang, ok := scanner.LangForExtension(ext)
	if !ok {
		return nil, fmt.Errorf("%w: %s: unsupported extension %q", apperr.ErrParseError, relPath, ext)
	}

	parsed, err := scanner.Parse(lang, source)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", apperr.ErrParseError, relPath, err)
	}
	defer parsed.Close()

	ir := newFileIR(relPath)
	root := parsed.Root()

	spans := newSpanIndex()

	if err := extractDefinitions(parsed, root, relPath, ir, spans); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", apperr.ErrParseError, relPath, err)
	}
	if err := extractImports(parsed, root, ir); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", apperr.ErrParseError, relPath, err)
	}
	if err := extractRequires(parsed, root, ir); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", apperr.ErrParseError, relPath, err)
	}
	if err := extractExports(parsed, root, relPath, ir, spans); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", apperr.ErrParseError, relPath, err)
	}
	if err := extractInstanceMapping(parsed, root, ir); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", apperr.ErrParseError, relPath, err)
	}
	if err := extractCalls(parsed, root, relPath, ir, spans); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", apperr.ErrParseError, relPath, err)
	}

	resolveLocalExports(ir)

	return ir, nil
}

// resolveLocalExports is Pass 1.5 (spec §4.2, "Export resolution"):
// every "__LOCAL__:<n>" sentinel is replaced by the ID of the first
// function named n defined in this file; if none exists, the sentinel
// is dropped rather than left dangling.
func resolveLocalExports(ir *FileIR) {
	byName := make(map[string]string, len(ir.Functions))
	for _, f := range ir.Functions {
		if f.Name == "" {
			continue
		}
		if _, ok := byName[f.Name]; !ok {
			byName[f.Name] = f.ID
		}
	}
	for exported, targets := range ir.Exports {
		var resolved []string
		for _, t := range targets {
			if strings.HasPrefix(t, "__LOCAL__:") {
				name := strings.TrimPrefix(t, "__LOCAL__:")
				if id, ok := byName[name]; ok {
					resolved = append(resolved, id)
				}
				continue
			}
			resolved = append(resolved, t)
		}
		ir.Exports[exported] = resolved
	}
}

func extOf(relPath string) string {
	i := strings.LastIndexByte(relPath, '.')
	if i < 0 {
		return ""
	}
	return relPath[i:]
}

// spanIndex maps an AST node's byte span to the entity ID recorded for
// it, so that call-site attribution (which walks up to an enclosing
// AST node) can find the entity ID already assigned to that node by
// the definitions pass, or lazily record one if none exists yet
// (spec §4.2, "Recording policy").
type spanIndex struct {
	byByteRange map[[2]uint]entityRef
}

type entityRef struct {
	id       string
	isMethod bool
}

func newSpanIndex() *spanIndex {
	return &spanIndex{byByteRange: make(map[[2]uint]entityRef)}
}

func spanKey(n sitter.Node) [2]uint {
	return [2]uint{n.StartByte(), n.EndByte()}
}

func (s *spanIndex) put(n sitter.Node, id string, isMethod bool) {
	s.byByteRange[spanKey(n)] = entityRef{id: id, isMethod: isMethod}
}

func (s *spanIndex) get(n sitter.Node) (entityRef, bool) {
	ref, ok := s.byByteRange[spanKey(n)]
	return ref, ok
}

func extractDefinitions(p *scanner.Parsed, root sitter.Node, relPath string, ir *FileIR, spans *spanIndex) error {
	q, ok := scanner.Definitions[p.Lang]
	if !ok {
		return fmt.Errorf("no definition query for %s", p.Lang)
	}
	matches, err := scanner.Run(p.Lang, q, root, p.Source)
	if err != nil {
		return err
	}

	// First pass: classes, so methods can look up their enclosing
	// class name.
	classByByteRange := make(map[[2]uint]string)
	for _, m := range matches {
		defNode, ok := m.First("class.def")
		if !ok {
			continue
		}
		nameNode, ok := m.First("class.name")
		if !ok {
			continue
		}
		name := p.Text(nameNode)
		start, end := scanner.StartPosition(defNode), scanner.EndPosition(defNode)
		id := graph.ClassID(relPath, name)
		ir.Classes = append(ir.Classes, ClassRecord{ID: id, Name: name, File: relPath, Start: start, End: end})
		spans.put(defNode, id, false)
		classByByteRange[spanKey(defNode)] = name
	}

	for _, m := range matches {
		if defNode, ok := m.First("method.def"); ok {
			nameNode, ok := m.First("method.name")
			if !ok {
				continue
			}
			methodName := p.Text(nameNode)
			className, ok := enclosingClassName(defNode, classByByteRange)
			if !ok {
				// Method-shaped node with no enclosing class (e.g. an
				// object literal method captured incidentally) is
				// treated as a plain function.
				start, end := scanner.StartPosition(defNode), scanner.EndPosition(defNode)
				id := graph.FunctionID(relPath, start.Line, start.Col, end.Line, end.Col)
				ir.Functions = append(ir.Functions, FunctionRecord{ID: id, Name: methodName, File: relPath, Start: start, End: end})
				spans.put(defNode, id, false)
				continue
			}
			start, end := scanner.StartPosition(defNode), scanner.EndPosition(defNode)
			id := graph.MethodID(relPath, className, methodName)
			ir.Methods = append(ir.Methods, MethodRecord{ID: id, ClassName: className, MethodName: methodName, File: relPath, Start: start, End: end})
			spans.put(defNode, id, true)
			continue
		}
		if defNode, ok := m.First("function.def"); ok {
			name := ""
			if nameNode, ok := m.First("function.name"); ok {
				name = p.Text(nameNode)
			}
			start, end := scanner.StartPosition(defNode), scanner.EndPosition(defNode)
			id := graph.FunctionID(relPath, start.Line, start.Col, end.Line, end.Col)
			ir.Functions = append(ir.Functions, FunctionRecord{ID: id, Name: name, File: relPath, Start: start, End: end})
			spans.put(defNode, id, false)
		}
	}
	return nil
}

func enclosingClassName(n sitter.Node, classByByteRange map[[2]uint]string) (string, bool) {
	p := n.Parent()
	for p != nil {
		if name, ok := classByByteRange[spanKey(*p)]; ok {
			return name, true
		}
		p = p.Parent()
	}
	return "", false
}

func extractImports(p *scanner.Parsed, root sitter.Node, ir *FileIR) error {
	q, ok := scanner.Imports[p.Lang]
	if !ok {
		return nil
	}
	matches, err := scanner.Run(p.Lang, q, root, p.Source)
	if err != nil {
		return err
	}
	for _, m := range matches {
		stmt, ok := m.First("import.stmt")
		if !ok {
			continue
		}
		srcNode, ok := m.First("import.source")
		if !ok {
			continue
		}
		src := unquote(p.Text(srcNode))
		relative := location.IsRelativeSource(src)

		clause := findChildByKind(stmt, "import_clause")
		if clause == nil {
			continue
		}
		walkImportClause(p, *clause, src, relative, ir)
	}
	return nil
}

func walkImportClause(p *scanner.Parsed, clause sitter.Node, src string, relative bool, ir *FileIR) {
	count := clause.NamedChildCount()
	for i := uint(0); i < count; i++ {
		child := clause.NamedChild(i)
		if child == nil {
			continue
		}
		switch child.Kind() {
		case "identifier":
			// bare `import Foo from "..."` default binding
			local := p.Text(*child)
			ir.Imports[local] = Import{LocalName: local, ImportedName: "default", Source: src, Kind: ImportDefault, Relative: relative}
		case "namespace_import":
			if id := findChildByKind(*child, "identifier"); id != nil {
				local := p.Text(*id)
				ir.Imports[local] = Import{LocalName: local, ImportedName: "*", Source: src, Kind: ImportNamespace, Relative: relative}
			}
		case "named_imports":
			nc := child.NamedChildCount()
			for j := uint(0); j < nc; j++ {
				spec := child.NamedChild(j)
				if spec == nil || spec.Kind() != "import_specifier" {
					continue
				}
				names := namedChildrenByKind(*spec, "identifier")
				if len(names) == 0 {
					continue
				}
				importedName := p.Text(names[0])
				localName := importedName
				if len(names) > 1 {
					localName = p.Text(names[1])
				}
				ir.Imports[localName] = Import{LocalName: localName, ImportedName: importedName, Source: src, Kind: ImportNamed, Relative: relative}
			}
		}
	}
}

// extractRequires is CommonJS's counterpart to extractImports (spec
// §4.2): `const x = require("./foo")` binds like a default import,
// `const { a, b: c } = require("./foo")` binds like named imports. A
// require() call with no assignment is a side effect only and needs
// no binding.
func extractRequires(p *scanner.Parsed, root sitter.Node, ir *FileIR) error {
	q, ok := scanner.Requires[p.Lang]
	if !ok {
		return nil
	}
	matches, err := scanner.Run(p.Lang, q, root, p.Source)
	if err != nil {
		return err
	}
	for _, m := range matches {
		fnNode, ok := m.First("require.fn")
		if !ok || p.Text(fnNode) != "require" {
			continue
		}
		srcNode, ok := m.First("require.source")
		if !ok {
			continue
		}
		src := unquote(p.Text(srcNode))
		relative := location.IsRelativeSource(src)

		if varNode, ok := m.First("require.varname"); ok {
			local := p.Text(varNode)
			ir.Imports[local] = Import{LocalName: local, ImportedName: "default", Source: src, Kind: ImportDefault, Relative: relative}
			continue
		}
		if patternNode, ok := m.First("require.pattern"); ok {
			walkRequirePattern(p, patternNode, src, relative, ir)
		}
	}
	return nil
}

func walkRequirePattern(p *scanner.Parsed, pattern sitter.Node, src string, relative bool, ir *FileIR) {
	count := pattern.NamedChildCount()
	for i := uint(0); i < count; i++ {
		child := pattern.NamedChild(i)
		if child == nil {
			continue
		}
		switch child.Kind() {
		case "shorthand_property_identifier_pattern":
			name := p.Text(*child)
			ir.Imports[name] = Import{LocalName: name, ImportedName: name, Source: src, Kind: ImportNamed, Relative: relative}
		case "pair_pattern":
			keyNode := findChildByKind(*child, "property_identifier")
			valNode := findChildByKind(*child, "identifier")
			if keyNode == nil || valNode == nil {
				continue
			}
			imported := p.Text(*keyNode)
			local := p.Text(*valNode)
			ir.Imports[local] = Import{LocalName: local, ImportedName: imported, Source: src, Kind: ImportNamed, Relative: relative}
		}
	}
}

func extractExports(p *scanner.Parsed, root sitter.Node, relPath string, ir *FileIR, spans *spanIndex) error {
	q, ok := scanner.Exports[p.Lang]
	if !ok {
		return nil
	}
	matches, err := scanner.Run(p.Lang, q, root, p.Source)
	if err != nil {
		return err
	}
	for _, m := range matches {
		stmt, ok := m.First("export.stmt")
		if !ok {
			continue
		}
		classifyExport(p, stmt, relPath, ir, spans)
	}
	return nil
}

func classifyExport(p *scanner.Parsed, stmt sitter.Node, relPath string, ir *FileIR, spans *spanIndex) {
	isDefault := hasChildText(p, stmt, "default")

	if decl := findChildByAnyKind(stmt, "function_declaration", "generator_function_declaration", "class_declaration"); decl != nil {
		name := ""
		if nameNode := findChildByAnyKind(*decl, "identifier", "type_identifier"); nameNode != nil {
			name = p.Text(*nameNode)
		}
		if ref, ok := spans.get(*decl); ok {
			key := name
			if isDefault || key == "" {
				key = "default"
			}
			ir.Exports[key] = append(ir.Exports[key], ref.id)
		}
		return
	}

	if isDefault {
		// `export default <identifier>;` — re-export of a local name.
		if idNode := findChildByKind(stmt, "identifier"); idNode != nil {
			ir.Exports["default"] = append(ir.Exports["default"], "__LOCAL__:"+p.Text(*idNode))
		}
		return
	}

	if decl := findChildByKind(stmt, "lexical_declaration"); decl != nil {
		// `export const x = ...`
		nc := decl.NamedChildCount()
		for i := uint(0); i < nc; i++ {
			child := decl.NamedChild(i)
			if child == nil || child.Kind() != "variable_declarator" {
				continue
			}
			nameNode := findChildByKind(*child, "identifier")
			if nameNode == nil {
				continue
			}
			name := p.Text(*nameNode)
			if ref, ok := spans.get(*child); ok {
				ir.Exports[name] = append(ir.Exports[name], ref.id)
			} else {
				ir.Exports[name] = append(ir.Exports[name], "__LOCAL__:"+name)
			}
		}
		return
	}

	if clause := findChildByKind(stmt, "export_clause"); clause != nil {
		nc := clause.NamedChildCount()
		for i := uint(0); i < nc; i++ {
			spec := clause.NamedChild(i)
			if spec == nil || spec.Kind() != "export_specifier" {
				continue
			}
			names := namedChildrenByKind(*spec, "identifier")
			if len(names) == 0 {
				continue
			}
			local := p.Text(names[0])
			exported := local
			if len(names) > 1 {
				exported = p.Text(names[1])
			}
			ir.Exports[exported] = append(ir.Exports[exported], "__LOCAL__:"+local)
		}
	}
}

func extractInstanceMapping(p *scanner.Parsed, root sitter.Node, ir *FileIR) error {
	q, ok := scanner.NewExpressions[p.Lang]
	if !ok {
		return nil
	}
	matches, err := scanner.Run(p.Lang, q, root, p.Source)
	if err != nil {
		return err
	}
	for _, m := range matches {
		varNode, ok := m.First("new.varname")
		if !ok {
			continue
		}
		classNode, ok := m.First("new.class")
		if !ok {
			continue
		}
		ir.InstanceMapping[p.Text(varNode)] = p.Text(classNode)
	}
	return nil
}

func extractCalls(p *scanner.Parsed, root sitter.Node, relPath string, ir *FileIR, spans *spanIndex) error {
	q, ok := scanner.CallSites[p.Lang]
	if !ok {
		return nil
	}
	matches, err := scanner.Run(p.Lang, q, root, p.Source)
	if err != nil {
		return err
	}

	nextAnon := 0
	for _, m := range matches {
		exprNode, ok := m.First("call.expr")
		if !ok {
			continue
		}
		line := scanner.StartPosition(exprNode).Line

		from := attributeCaller(p, exprNode, relPath, ir, spans, &nextAnon)

		if calleeNode, ok := m.First("call.callee"); ok {
			calleeName := p.Text(calleeNode)
			if calleeName == "require" {
				// CommonJS module loading, not a call in the graph's
				// sense; extractRequires already recorded any binding.
				continue
			}
			to := graph.PlaceholderID(relPath, calleeName, line)
			ir.Calls = append(ir.Calls, CallSite{From: from, To: to, CalleeName: calleeName, Type: CallBare, Line: line})
			continue
		}

		receiverNode, hasReceiver := m.First("call.receiver")
		methodNode, hasMethod := m.First("call.method")
		if hasReceiver && hasMethod {
			receiver := p.Text(receiverNode)
			method := p.Text(methodNode)
			to := graph.PlaceholderID(relPath, method, line)
			ir.Calls = append(ir.Calls, CallSite{From: from, To: to, CalleeName: method, Receiver: receiver, Method: method, Type: CallMethod, Line: line})
		}
	}
	return nil
}

// attributeCaller finds the nearest enclosing callable for a call
// site's expression node and returns its entity ID, lazily recording
// an anonymous function record if the enclosing callable was never
// matched by the definitions query (spec §4.2, "Recording policy").
// Calls at module scope are attributed to "<rel>:TOPLEVEL", which the
// graph builder rewrites to the file node ID.
func attributeCaller(p *scanner.Parsed, exprNode sitter.Node, relPath string, ir *FileIR, spans *spanIndex, nextAnon *int) string {
	enclosing, ok := scanner.EnclosingCallable(exprNode)
	if !ok {
		return relPath + ":TOPLEVEL"
	}
	if ref, ok := spans.get(enclosing); ok {
		return ref.id
	}
	start, end := scanner.StartPosition(enclosing), scanner.EndPosition(enclosing)
	id := graph.FunctionID(relPath, start.Line, start.Col, end.Line, end.Col)
	ir.Functions = append(ir.Functions, FunctionRecord{ID: id, Name: "", File: relPath, Start: start, End: end})
	spans.put(enclosing, id, false)
	*nextAnon++
	return id
}

// --- small AST navigation helpers ---

func findChildByKind(n sitter.Node, kind string) *sitter.Node {
	count := n.ChildCount()
	for i := uint(0); i < count; i++ {
		c := n.Child(i)
		if c != nil && c.Kind() == kind {
			return c
		}
	}
	return nil
}

func findChildByAnyKind(n sitter.Node, kinds ...string) *sitter.Node {
	for _, k := range kinds {
		if c := findChildByKind(n, k); c != nil {
			return c
		}
	}
	return nil
}

func namedChildrenByKind(n sitter.Node, kind string) []sitter.Node {
	var out []sitter.Node
	count := n.NamedChildCount()
	for i := uint(0); i < count; i++ {
		c := n.NamedChild(i)
		if c != nil && c.Kind() == kind {
			out = append(out, *c)
		}
	}
	return out
}

func hasChildText(p *scanner.Parsed, n sitter.Node, text string) bool {
	count := n.ChildCount()
	for i := uint(0); i < count; i++ {
		c := n.Child(i)
		if c != nil && p.Text(*c) == text {
			return true
		}
	}
	return false
}

func unquote(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') || (s[0] == '`' && s[len(s)-1] == '`') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
