// Package location implements the stable-identifier and path-walking
// primitives shared by every later stage of the pipeline (spec §4.1).
package location

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	gitignore "github.com/sabhiram/go-gitignore"

	"codemap/internal/apperr"
	"codemap/internal/graph"
)

// DefaultIgnoreDirs is the static ignore list consulted during a walk,
// independent of any project .gitignore.
var DefaultIgnoreDirs = map[string]bool{
	"node_modules": true,
	".git":         true,
	"dist":         true,
	"build":        true,
	"coverage":     true,
	"__pycache__":  true,
	".venv":        true,
	"target":       true,
}

// DefaultExtensions is the extension allow-list for the ECMAScript-family
// languages this analyzer understands.
var DefaultExtensions = map[string]bool{
	".js":  true,
	".jsx": true,
	".ts":  true,
	".tsx": true,
	".mjs": true,
	".cjs": true,
}

// Position is a source location: 1-based line, 0-based column, the
// same convention as scanner.Position, from which function IDs are
// built.
type Position struct {
	Line int
	Col  int
}

// Normalize converts an absolute (or root-relative) path into a
// project-relative path with forward-slash separators, as required by
// spec §3.2. Returns apperr.ErrInvalidPath if target does not exist.
func Normalize(target, root string) (string, error) {
	if _, err := os.Stat(target); err != nil {
		return "", fmt.Errorf("%w: %s", apperr.ErrInvalidPath, target)
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("%w: %s", apperr.ErrInvalidPath, root)
	}
	absTarget, err := filepath.Abs(target)
	if err != nil {
		return "", fmt.Errorf("%w: %s", apperr.ErrInvalidPath, target)
	}
	rel, err := filepath.Rel(absRoot, absTarget)
	if err != nil {
		return "", fmt.Errorf("%w: %s", apperr.ErrInvalidPath, target)
	}
	return filepath.ToSlash(rel), nil
}

// Identify builds the stable ID for an entity of the given kind at the
// given file and position, following the tables in spec §3.1. It
// covers the file, class and function kinds only; for any other kind
// it returns the empty string.
func Identify(kind graph.NodeKind, relPath, name string, start, end Position) string {
	switch kind {
	case graph.KindFile:
		return graph.FileID(relPath)
	case graph.KindClass:
		return graph.ClassID(relPath, name)
	case graph.KindFunction:
		return graph.FunctionID(relPath, start.Line, start.Col, end.Line, end.Col)
	default:
		return ""
	}
}

// WalkOptions configures a source-tree walk.
type WalkOptions struct {
	// ExtraIgnoreDirs are additional directory basenames to skip, merged
	// with DefaultIgnoreDirs.
	ExtraIgnoreDirs map[string]bool
	// Extensions restricts which file extensions are visited; nil means
	// DefaultExtensions.
	Extensions map[string]bool
	// UseGitignore, when true, additionally consults a .gitignore file
	// at root (if present) to skip files the static ignore list misses.
	UseGitignore bool
}

// Walk lists every source file under root that matches the extension
// allow-list and is not excluded by the ignore list or an optional
// .gitignore, in stable lexicographic order per directory level so that
// two builds of an unchanged tree visit files in the same order (spec
// §5, ordering guarantees).
func Walk(root string, opts WalkOptions) ([]string, error) {
	if _, err := os.Stat(root); err != nil {
		return nil, fmt.Errorf("%w: %s", apperr.ErrInvalidPath, root)
	}

	ignoreDirs := DefaultIgnoreDirs
	if len(opts.ExtraIgnoreDirs) > 0 {
		ignoreDirs = make(map[string]bool, len(DefaultIgnoreDirs)+len(opts.ExtraIgnoreDirs))
		for k := range DefaultIgnoreDirs {
			ignoreDirs[k] = true
		}
		for k := range opts.ExtraIgnoreDirs {
			ignoreDirs[k] = true
		}
	}
	exts := opts.Extensions
	if exts == nil {
		exts = DefaultExtensions
	}

	var gi *gitignore.GitIgnore
	if opts.UseGitignore {
		if p := filepath.Join(root, ".gitignore"); fileExists(p) {
			gi, _ = gitignore.CompileIgnoreFile(p)
		}
	}

	var files []string
	var walkDir func(dir string) error
	walkDir = func(dir string) error {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return err
		}
		sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })
		for _, e := range entries {
			name := e.Name()
			full := filepath.Join(dir, name)
			if e.IsDir() {
				if ignoreDirs[name] {
					continue
				}
				if gi != nil {
					if rel, err := filepath.Rel(root, full); err == nil && gi.MatchesPath(rel+"/") {
						continue
					}
				}
				if err := walkDir(full); err != nil {
					return err
				}
				continue
			}
			ext := filepath.Ext(name)
			if !exts[ext] {
				continue
			}
			if gi != nil {
				if rel, err := filepath.Rel(root, full); err == nil && gi.MatchesPath(rel) {
					continue
				}
			}
			files = append(files, full)
		}
		return nil
	}
	if err := walkDir(root); err != nil {
		return nil, err
	}
	return files, nil
}

func fileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}

// ResolveRelativeImport tries the module-resolution suffixes the
// resolver uses to locate the file a relative import source refers to
// (spec §4.3, rule 4). It returns the first relative path (forward
// slashes, relative to root) that exists on disk among:
// <src>, <src>.{ts,tsx,js,jsx}, <src>/index.{ts,tsx,js,jsx}.
func ResolveRelativeImport(root, fromFileRel, src string) (string, bool) {
	base := filepath.Join(root, filepath.Dir(filepath.FromSlash(fromFileRel)), filepath.FromSlash(src))
	candidates := []string{base}
	for _, ext := range []string{".ts", ".tsx", ".js", ".jsx"} {
		candidates = append(candidates, base+ext)
	}
	for _, ext := range []string{".ts", ".tsx", ".js", ".jsx"} {
		candidates = append(candidates, filepath.Join(base, "index"+ext))
	}
	for _, c := range candidates {
		if info, err := os.Stat(c); err == nil && !info.IsDir() {
			rel, err := filepath.Rel(root, c)
			if err != nil {
				continue
			}
			return filepath.ToSlash(rel), true
		}
	}
	return "", false
}

// IsRelativeSource reports whether an import source string is relative
// (starts with "." or "/") per spec §4.2.
func IsRelativeSource(src string) bool {
	return strings.HasPrefix(src, ".") || strings.HasPrefix(src, "/")
}
