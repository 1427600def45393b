// Package pipeline drives one end-to-end build: walking the source
// tree, extracting each file's IR, resolving calls across files,
// materializing the graph, and persisting it — the single sequence
// every entrypoint (CLI, MCP tool) triggers (spec §5).
package pipeline

import (
	"context"
	"fmt"

	"codemap/internal/buildgraph"
	"codemap/internal/extract"
	"codemap/internal/graph"
	"codemap/internal/location"
	"codemap/internal/progress"
	"codemap/internal/resolve"
	"codemap/internal/store"
)

// Options configures a build.
type Options struct {
	Root         string
	FrameworkCfg resolve.FrameworkConfig
	ExtraIgnore  map[string]bool
	UseGitignore bool
	Sink         progress.Sink
}

// Result is a completed build's graph plus the file count that
// produced it, for BuildSummary reporting.
type Result struct {
	Graph     *graph.Graph
	FileCount int
	Skipped   []SkippedFile
}

// SkippedFile records a source file that failed to parse. Per spec
// §4.7 a parse failure is never fatal to the whole build; the file is
// logged and excluded.
type SkippedFile struct {
	Path string
	Err  error
}

// Run executes one full build over opts.Root and returns the
// materialized graph. It never runs the two pipeline stages
// concurrently with each other — extraction fully completes before
// resolution begins — because resolution's registries need every
// file's IR (spec §5, "two-pass").
func Run(ctx context.Context, opts Options) (*Result, error) {
	sink := opts.Sink
	if sink == nil {
		sink = progress.NopSink{}
	}

	files, err := location.Walk(opts.Root, location.WalkOptions{
		ExtraIgnoreDirs: opts.ExtraIgnore,
		UseGitignore:    opts.UseGitignore,
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", opts.Root, err)
	}
	sink.Report(fmt.Sprintf("discovered %d source files", len(files)), 0)

	var irs []*extract.FileIR
	var skipped []SkippedFile
	for _, abs := range files {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		rel, err := location.Normalize(abs, opts.Root)
		if err != nil {
			skipped = append(skipped, SkippedFile{Path: abs, Err: err})
			continue
		}

		ir, err := extract.Extract(abs, rel)
		if err != nil {
			sink.Report(fmt.Sprintf("skip %s: %v", rel, err), 0)
			skipped = append(skipped, SkippedFile{Path: rel, Err: err})
			continue
		}
		irs = append(irs, ir)
		sink.Report(fmt.Sprintf("extracted %s", rel), 1)
	}

	fw := opts.FrameworkCfg
	if fw.Receivers == nil {
		fw = resolve.DefaultFrameworkConfig()
	}

	resolver := resolve.New(opts.Root, resolve.Config{Framework: fw}, irs)
	calls := resolver.Resolve(irs)
	sink.Report(fmt.Sprintf("resolved %d call sites", len(calls)), 0)

	g, err := buildgraph.Build(opts.Root, irs, calls, fw)
	if err != nil {
		return nil, err
	}
	sink.Report(fmt.Sprintf("built graph: %d nodes, %d edges", len(g.Nodes), len(g.Edges)), 0)

	return &Result{Graph: g, FileCount: len(irs), Skipped: skipped}, nil
}

// Persist writes a build result to a graph store.
func Persist(ctx context.Context, s *store.Store, g *graph.Graph) error {
	return s.SaveGraph(ctx, g)
}
