// Package scanner is the thin AST adapter over tree-sitter: it selects
// a grammar by file extension, parses a file into a walkable tree, and
// exposes node-kind predicates and capture queries the extractor uses.
// This is the pipeline's only external collaborator (spec §1): the
// parser itself is a black box producing structured nodes with source
// locations.
package scanner

import (
	"fmt"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tsjavascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
	tstypescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"
)

// Lang names the grammars this analyzer understands.
type Lang string

const (
	LangJavaScript Lang = "javascript"
	LangTypeScript Lang = "typescript"
	LangTSX        Lang = "tsx"
)

// LangForExtension maps a file extension to the grammar used to parse
// it. JSX shares the JavaScript grammar; TSX uses the TSX dialect of
// the TypeScript grammar.
func LangForExtension(ext string) (Lang, bool) {
	switch ext {
	case ".js", ".jsx", ".mjs", ".cjs":
		return LangJavaScript, true
	case ".ts":
		return LangTypeScript, true
	case ".tsx":
		return LangTSX, true
	default:
		return "", false
	}
}

func grammar(lang Lang) (*sitter.Language, error) {
	switch lang {
	case LangJavaScript:
		return sitter.NewLanguage(tsjavascript.Language()), nil
	case LangTypeScript:
		return sitter.NewLanguage(tstypescript.LanguageTypescript()), nil
	case LangTSX:
		return sitter.NewLanguage(tstypescript.LanguageTSX()), nil
	default:
		return nil, fmt.Errorf("scanner: unsupported language %q", lang)
	}
}

// Parsed is a parsed file: its tree-sitter tree, the original source
// bytes (queries and node text extraction both need the raw bytes),
// and the grammar used.
type Parsed struct {
	Lang   Lang
	Source []byte
	Tree   *sitter.Tree
}

// Parse parses source with the grammar selected for lang. The caller
// must call Close when done to release the tree-sitter tree.
func Parse(lang Lang, source []byte) (*Parsed, error) {
	language, err := grammar(lang)
	if err != nil {
		return nil, err
	}
	parser := sitter.NewParser()
	defer parser.Close()
	if err := parser.SetLanguage(language); err != nil {
		return nil, fmt.Errorf("scanner: set language: %w", err)
	}
	tree := parser.Parse(source, nil)
	if tree == nil {
		return nil, fmt.Errorf("scanner: parse produced no tree")
	}
	return &Parsed{Lang: lang, Source: source, Tree: tree}, nil
}

// Close releases the underlying tree-sitter tree.
func (p *Parsed) Close() {
	if p.Tree != nil {
		p.Tree.Close()
	}
}

// Root returns the file's root AST node.
func (p *Parsed) Root() sitter.Node {
	return *p.Tree.RootNode()
}

// Text returns the source text spanned by n.
func (p *Parsed) Text(n sitter.Node) string {
	return n.Utf8Text(p.Source)
}
